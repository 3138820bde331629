package pipeline

import (
	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/symbols"
	"github.com/funvibe/copperhead/internal/token"
	"github.com/funvibe/copperhead/internal/typesystem"
	"github.com/funvibe/copperhead/internal/utils"
	"github.com/google/uuid"
)

// PipelineContext is the state of one compilation. It is created per
// compilation and must not be shared between concurrent runs.
type PipelineContext struct {
	ID         uuid.UUID
	FilePath   string
	SourceCode string

	TokenStream []token.Token
	AstRoot     *ast.Program

	// Globals is the host namespace; Prelude is its outer scope.
	Globals *symbols.SymbolTable
	// Library lists extra host names subject to identifier marking.
	Library []string

	// EntryTypes maps entry point names, as the caller wrote them, to the
	// argument types supplied for the invocation.
	EntryTypes map[string][]typesystem.Type
	// EntryPoints are the entry names after identifier marking, with their
	// argument types.
	EntryPoints     []string
	EntryPointTypes map[string][]typesystem.Type

	// Names is the fresh-name supply shared by every pass.
	Names *utils.Names

	// Filled in by type inference.
	ResultType typesystem.Type
	Solution   typesystem.Subst
	Assumed    map[int]ast.Node

	Errors []*diagnostics.DiagnosticError
}

func NewContext(source string) *PipelineContext {
	return &PipelineContext{
		ID:              uuid.New(),
		SourceCode:      source,
		Globals:         symbols.NewSymbolTable(),
		EntryTypes:      make(map[string][]typesystem.Type),
		EntryPointTypes: make(map[string][]typesystem.Type),
		Names:           utils.NewNames(),
	}
}

// Fail records a diagnostic. A compilation stops at its first error.
func (ctx *PipelineContext) Fail(err *diagnostics.DiagnosticError) *PipelineContext {
	ctx.Errors = append(ctx.Errors, err)
	return ctx
}

// Err returns the first recorded error, or nil.
func (ctx *PipelineContext) Err() error {
	if len(ctx.Errors) == 0 {
		return nil
	}
	return ctx.Errors[0]
}

// IsEntryPoint reports whether the marked name is a designated entry point.
func (ctx *PipelineContext) IsEntryPoint(name string) bool {
	_, ok := ctx.EntryPointTypes[name]
	return ok
}
