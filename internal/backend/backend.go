// Package backend is the boundary between the front end and code
// generation. A Backend receives the typed, flattened program together with
// its entry points; everything after that point is the backend's business.
package backend

import (
	"fmt"
	"io"

	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/pipeline"
	"github.com/funvibe/copperhead/internal/typesystem"
	"github.com/google/uuid"
)

// Backend consumes a compiled module.
type Backend interface {
	// Emit writes the backend's artifact for m to w.
	Emit(m *Module, w io.Writer) error

	// Name returns the backend name for display
	Name() string
}

// Entry is one entry point procedure of a module.
type Entry struct {
	// Name is the procedure's name after identifier marking.
	Name string
	// Source is the name as written in the program.
	Source string
	// Args are the caller-supplied argument types.
	Args      []typesystem.Type
	Type      typesystem.Type
	Procedure *ast.Procedure
}

// Module is the front end's output.
type Module struct {
	ID      uuid.UUID
	File    string
	Program *ast.Program
	Entries []Entry
	// Type is the type of the program's last statement.
	Type typesystem.Type
}

// NewModule collects the result of a successful compilation.
func NewModule(ctx *pipeline.PipelineContext) (*Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ctx.AstRoot == nil || ctx.ResultType == nil {
		return nil, fmt.Errorf("compilation %s has no typed program", ctx.ID)
	}

	procs := make(map[string]*ast.Procedure)
	for _, s := range ctx.AstRoot.Statements {
		if p, ok := s.(*ast.Procedure); ok {
			procs[p.Name.Value] = p
		}
	}

	m := &Module{ID: ctx.ID, File: ctx.FilePath, Program: ctx.AstRoot, Type: ctx.ResultType}
	for _, name := range ctx.EntryPoints {
		proc, ok := procs[name]
		if !ok {
			return nil, fmt.Errorf("entry point %s was removed from the program", name)
		}
		m.Entries = append(m.Entries, Entry{
			Name:      name,
			Source:    proc.Name.Original(),
			Args:      ctx.EntryPointTypes[name],
			Type:      proc.Type,
			Procedure: proc,
		})
	}
	return m, nil
}
