package rewrite

import (
	"strings"

	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/config"
	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/symbols"
)

// CheckLegality enforces the structural rules of the language:
//   - tuples, formal lists and map inputs are limited to config.MaxArity
//     elements (S001)
//   - every procedure body and every branch of a conditional ends in a
//     return or in a conditional obeying the same rule (S002), with nothing
//     after it (S004)
//   - names of the standard library cannot be rebound (S003)
func CheckLegality(prog *ast.Program) error {
	for n := range ast.Nodes(prog) {
		if err := checkNode(n); err != nil {
			return err
		}
	}
	for _, s := range prog.Statements {
		if c, ok := s.(*ast.Cond); ok {
			if err := checkReturns(c.Body, c); err != nil {
				return err
			}
			if err := checkReturns(c.Orelse, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkNode(n ast.Node) error {
	switch n := n.(type) {
	case *ast.Tuple:
		if len(n.Elements) > config.MaxArity {
			return syntaxError(diagnostics.ErrS001, n, "tuple of %d elements exceeds the limit of %d", len(n.Elements), config.MaxArity)
		}
	case *ast.Map:
		if len(n.Inputs) > config.MaxArity {
			return syntaxError(diagnostics.ErrS001, n, "map over %d sequences exceeds the limit of %d", len(n.Inputs), config.MaxArity)
		}
	case *ast.Lambda:
		return checkFormals(n, n.Formals)
	case *ast.Bind:
		return checkBinders(ast.PatternNames(n.Binder))
	case *ast.Procedure:
		if err := checkFormals(n, n.Formals); err != nil {
			return err
		}
		if err := checkBinders([]*ast.Name{n.Name}); err != nil {
			return err
		}
		return checkReturns(n.Body, n)
	}
	return nil
}

func checkFormals(owner ast.Node, formals []ast.Expression) error {
	if len(formals) > config.MaxArity {
		captured := capturedFormals(formals)
		if len(captured) == 0 {
			return syntaxError(diagnostics.ErrS001, owner, "%d formal parameters exceed the limit of %d", len(formals), config.MaxArity)
		}
		return syntaxError(diagnostics.ErrS001, owner, "%d formal parameters (%d written, plus captured %s) exceed the limit of %d",
			len(formals), len(formals)-len(captured), strings.Join(captured, ", "), config.MaxArity)
	}
	var names []*ast.Name
	for _, f := range formals {
		names = append(names, ast.PatternNames(f)...)
	}
	return checkBinders(names)
}

// capturedFormals names the source variables behind the formals closure
// conversion added.
func capturedFormals(formals []ast.Expression) []string {
	var out []string
	for _, f := range formals {
		if n, ok := f.(*ast.Name); ok && strings.HasPrefix(n.Value, config.ClosureFormalPrefix) {
			out = append(out, n.Original())
		}
	}
	return out
}

func checkBinders(names []*ast.Name) error {
	for _, n := range names {
		if symbols.IsReserved(n.Original()) {
			return syntaxError(diagnostics.ErrS003, n, "cannot redefine reserved name %s", n.Original())
		}
	}
	return nil
}

// checkReturns verifies that body ends in a return, or in a conditional
// whose branches all do.
func checkReturns(body []ast.Statement, owner ast.Node) error {
	if len(body) == 0 {
		return syntaxError(diagnostics.ErrS002, owner, "missing return statement")
	}
	for i, s := range body[:len(body)-1] {
		switch s.(type) {
		case *ast.Return:
			return syntaxError(diagnostics.ErrS004, body[i+1], "unreachable statement after return")
		case *ast.Cond:
			return syntaxError(diagnostics.ErrS004, body[i+1], "statements after a conditional that must return")
		}
	}
	switch last := body[len(body)-1].(type) {
	case *ast.Return:
		return nil
	case *ast.Cond:
		if err := checkReturns(last.Body, last); err != nil {
			return err
		}
		return checkReturns(last.Orelse, last)
	default:
		return syntaxError(diagnostics.ErrS002, last, "missing return statement")
	}
}
