package rewrite

import (
	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/utils"
	"github.com/hashicorp/go-set/v3"
	"golang.org/x/exp/maps"
)

// SingleAssignment gives every locally bound name a fresh identifier so no
// name is bound twice. Binders, formals and nested procedure names are
// renamed; top-level procedure names are not. A name in keep keeps its
// value where it is first bound in scope. Bindings inside a conditional branch do not leak past it.
func SingleAssignment(stmts []ast.Statement, names *utils.Names, keep *set.Set[string]) []ast.Statement {
	s := &ssa{names: names, keep: keep}
	return s.block(stmts, map[string]string{}, true)
}

// EntryFormals collects the formal names of the program's entry points.
func EntryFormals(prog *ast.Program) *set.Set[string] {
	keep := set.New[string](0)
	for _, p := range topLevelProcedures(prog) {
		if p.EntryPoint {
			keep.InsertSlice(formalNames(p.Formals))
		}
	}
	return keep
}

type ssa struct {
	names *utils.Names
	keep  *set.Set[string]
}

// bind renames a binding occurrence and records it in env. A name in keep
// survives only where nothing visible binds it yet; rebinding it renames.
func (s *ssa) bind(n *ast.Name, env map[string]string) {
	if _, bound := env[n.Value]; !bound && s.keep.Contains(n.Value) {
		env[n.Value] = n.Value
		return
	}
	fresh := s.names.Rename(n.Value)
	env[n.Value] = fresh
	rename(n, fresh)
}

// block renames through stmts. Nested procedure names are bound before the
// walk so a procedure may call a sibling defined after it.
func (s *ssa) block(stmts []ast.Statement, env map[string]string, top bool) []ast.Statement {
	if !top {
		for _, st := range stmts {
			if p, ok := st.(*ast.Procedure); ok {
				s.bind(p.Name, env)
			}
		}
	}
	for _, st := range stmts {
		switch st := st.(type) {
		case *ast.Bind:
			s.expr(st.Value, env)
			for _, n := range ast.PatternNames(st.Binder) {
				s.bind(n, env)
			}
		case *ast.Return:
			s.expr(st.Value, env)
		case *ast.Cond:
			s.expr(st.Test, env)
			s.block(st.Body, maps.Clone(env), false)
			s.block(st.Orelse, maps.Clone(env), false)
		case *ast.Procedure:
			inner := maps.Clone(env)
			s.formals(st.Formals, inner)
			s.block(st.Body, inner, false)
		}
	}
	return stmts
}

func (s *ssa) formals(formals []ast.Expression, env map[string]string) {
	for _, f := range formals {
		for _, n := range ast.PatternNames(f) {
			s.bind(n, env)
		}
	}
}

func (s *ssa) expr(e ast.Expression, env map[string]string) {
	switch e := e.(type) {
	case *ast.Name:
		if fresh, ok := env[e.Value]; ok && fresh != e.Value {
			rename(e, fresh)
		}
	case *ast.Lambda:
		inner := maps.Clone(env)
		s.formals(e.Formals, inner)
		s.expr(e.Body, inner)
	default:
		for _, c := range ast.Children(e) {
			s.expr(c.(ast.Expression), env)
		}
	}
}
