package rewrite

import (
	"github.com/funvibe/copperhead/internal/ast"
	"golang.org/x/exp/maps"
)

// EliminateRebindings removes bindings that only rename a value, such as
// x = y or (a, b) = (c, d), and substitutes the source names for the
// binders in the rest of the block. A tuple binding is removed only when
// every component is such a renaming.
func EliminateRebindings(prog *ast.Program) {
	prog.Statements = eliminate(prog.Statements, map[string]ast.Expression{})
}

func eliminate(stmts []ast.Statement, subst map[string]ast.Expression) []ast.Statement {
	out := stmts[:0]
	for _, s := range stmts {
		switch s := s.(type) {
		case *ast.Bind:
			s.Value = ast.Substitute(s.Value, subst).(ast.Expression)
			if renaming(s.Binder, s.Value) {
				collectRenaming(s.Binder, s.Value, subst)
				continue
			}
		case *ast.Return:
			s.Value = ast.Substitute(s.Value, subst).(ast.Expression)
		case *ast.Cond:
			s.Test = ast.Substitute(s.Test, subst).(ast.Expression)
			s.Body = eliminate(s.Body, maps.Clone(subst))
			s.Orelse = eliminate(s.Orelse, maps.Clone(subst))
		case *ast.Procedure:
			s.Body = eliminate(s.Body, map[string]ast.Expression{})
		}
		out = append(out, s)
	}
	return out
}

// renaming reports whether binding value to binder computes nothing.
func renaming(binder, value ast.Expression) bool {
	switch b := binder.(type) {
	case *ast.Name:
		_, ok := value.(*ast.Name)
		return ok
	case *ast.Tuple:
		v, ok := value.(*ast.Tuple)
		if !ok || len(v.Elements) != len(b.Elements) {
			return false
		}
		for i := range b.Elements {
			if !renaming(b.Elements[i], v.Elements[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func collectRenaming(binder, value ast.Expression, subst map[string]ast.Expression) {
	switch b := binder.(type) {
	case *ast.Name:
		subst[b.Value] = value
	case *ast.Tuple:
		v := value.(*ast.Tuple)
		for i := range b.Elements {
			collectRenaming(b.Elements[i], v.Elements[i], subst)
		}
	}
}
