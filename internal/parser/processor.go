package parser

import (
	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/lexer"
	"github.com/funvibe/copperhead/internal/pipeline"
)

type ParserProcessor struct{}

func (pp *ParserProcessor) Name() string { return "parse" }

func (pp *ParserProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.TokenStream == nil {
		// This case should ideally not be hit if lexer runs first, but as a safeguard:
		return ctx.Fail(diagnostics.NewError(diagnostics.ErrP001, 0, "parser: token stream is nil"))
	}

	prog, err := New(ctx.TokenStream).ParseProgram()
	if err != nil {
		de, _ := diagnostics.As(err)
		return ctx.Fail(de)
	}
	prog.File = ctx.FilePath
	ctx.AstRoot = prog
	return ctx
}

// ParseString lexes and parses src in one step.
func ParseString(src string) (*ast.Program, error) {
	toks, err := lexer.New(src).Tokenize()
	if err != nil {
		return nil, err
	}
	return New(toks).ParseProgram()
}
