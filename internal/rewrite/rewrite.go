// Package rewrite implements the syntactic passes that turn a parsed
// program into the flattened, closure-converted, single-assignment form
// type inference and the backend expect.
//
// Every pass mutates the program in place. The passes depend on each
// other's output and must run in the order Passes returns them.
package rewrite

import (
	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/token"
	"github.com/hashicorp/go-set/v3"
)

// rename changes the identifier of n, remembering the source spelling.
func rename(n *ast.Name, value string) {
	if n.Source == "" {
		n.Source = n.Value
	}
	n.Value = value
}

// newName builds a synthesized reference positioned at tok.
func newName(tok token.Token, value string) *ast.Name {
	return &ast.Name{Token: tok, Value: value}
}

// refTo copies a name for use as a reference.
func refTo(n *ast.Name) *ast.Name {
	return &ast.Name{Token: n.Token, Value: n.Value, Source: n.Source}
}

func namesOf(tok token.Token, values []string) []ast.Expression {
	out := make([]ast.Expression, len(values))
	for i, v := range values {
		out[i] = newName(tok, v)
	}
	return out
}

func syntaxError(code diagnostics.ErrorCode, n ast.Node, format string, args ...interface{}) *diagnostics.DiagnosticError {
	return diagnostics.NewError(code, n.GetToken().Line, format, args...)
}

// topLevelProcedures indexes the procedures defined at the top of prog.
func topLevelProcedures(prog *ast.Program) map[string]*ast.Procedure {
	procs := make(map[string]*ast.Procedure)
	for _, s := range prog.Statements {
		if p, ok := s.(*ast.Procedure); ok {
			procs[p.Name.Value] = p
		}
	}
	return procs
}

// formalNames lists the names bound by a formal parameter list.
func formalNames(formals []ast.Expression) []string {
	var out []string
	for _, f := range formals {
		for _, n := range ast.PatternNames(f) {
			out = append(out, n.Value)
		}
	}
	return out
}

func withNames(s *set.Set[string], names ...string) *set.Set[string] {
	c := s.Copy()
	c.InsertSlice(names)
	return c
}
