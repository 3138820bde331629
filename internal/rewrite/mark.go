package rewrite

import (
	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/config"
	"github.com/funvibe/copperhead/internal/symbols"
	"github.com/hashicorp/go-set/v3"
)

// Marked is the set of global names identifier marking prefixes: the
// program's top-level procedures, host globals with attached syntax, and
// the extra library names.
func Marked(prog *ast.Program, globals *symbols.SymbolTable, library []string) *set.Set[string] {
	marked := set.New[string](0)
	for name := range topLevelProcedures(prog) {
		marked.Insert(name)
	}
	for _, name := range globals.Names() {
		if sym, _ := globals.Find(name); sym.HasSyntax() || sym.Kind == symbols.LibrarySymbol {
			marked.Insert(name)
		}
	}
	marked.InsertSlice(library)
	marked.Remove(config.TrueName)
	marked.Remove(config.FalseName)
	return marked
}

// MarkIdentifiers prefixes every reference to a marked global that is not
// shadowed by a local binding, so user names cannot collide with names the
// backend emits.
func MarkIdentifiers(prog *ast.Program, marked *set.Set[string]) {
	m := &marker{marked: marked}
	prog.Statements = m.block(prog.Statements, set.New[string](0), true)
}

type marker struct {
	marked *set.Set[string]
}

func (m *marker) mark(n *ast.Name, bound *set.Set[string]) {
	if !bound.Contains(n.Value) && m.marked.Contains(n.Value) {
		rename(n, config.UserPrefix+n.Value)
	}
}

func (m *marker) block(stmts []ast.Statement, bound *set.Set[string], top bool) []ast.Statement {
	for _, s := range stmts {
		switch s := s.(type) {
		case *ast.Bind:
			m.expr(s.Value, bound)
			for _, n := range ast.PatternNames(s.Binder) {
				if top {
					m.mark(n, bound)
				} else {
					bound.Insert(n.Value)
				}
			}
		case *ast.Return:
			m.expr(s.Value, bound)
		case *ast.Cond:
			m.expr(s.Test, bound)
			m.block(s.Body, bound.Copy(), top)
			m.block(s.Orelse, bound.Copy(), top)
		case *ast.Procedure:
			if top {
				m.mark(s.Name, bound)
			} else {
				bound.Insert(s.Name.Value)
			}
			inner := withNames(bound, formalNames(s.Formals)...)
			m.block(s.Body, inner, false)
		}
	}
	return stmts
}

func (m *marker) expr(e ast.Expression, bound *set.Set[string]) {
	switch e := e.(type) {
	case *ast.Name:
		m.mark(e, bound)
	case *ast.Lambda:
		m.expr(e.Body, withNames(bound, formalNames(e.Formals)...))
	default:
		for _, c := range ast.Children(e) {
			m.expr(c.(ast.Expression), bound)
		}
	}
}
