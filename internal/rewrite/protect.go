package rewrite

import (
	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/utils"
	"github.com/hashicorp/go-set/v3"
)

// ProtectConditionals delays both arms of every conditional expression:
//
//	a if t else b   becomes   (thunk_a if t else thunk_b)()
//
// so only the selected arm is evaluated once the program is flattened. The
// thunks are closure converted on the spot.
func ProtectConditionals(prog *ast.Program, names *utils.Names) {
	p := &protector{cc: &closureConverter{names: names}}
	prog.Statements = p.block(prog.Statements, set.New[string](0))
}

type protector struct {
	cc *closureConverter
}

func (p *protector) block(stmts []ast.Statement, env *set.Set[string]) []ast.Statement {
	for _, s := range stmts {
		switch s := s.(type) {
		case *ast.Bind:
			s.Value = p.expr(s.Value, env)
			for _, n := range ast.PatternNames(s.Binder) {
				env.Insert(n.Value)
			}
		case *ast.Return:
			s.Value = p.expr(s.Value, env)
		case *ast.Cond:
			s.Test = p.expr(s.Test, env)
			s.Body = p.block(s.Body, env.Copy())
			s.Orelse = p.block(s.Orelse, env.Copy())
		case *ast.Procedure:
			s.Body = p.block(s.Body, withNames(env, formalNames(s.Formals)...))
		}
	}
	return stmts
}

func (p *protector) expr(e ast.Expression, env *set.Set[string]) ast.Expression {
	if lam, ok := e.(*ast.Lambda); ok {
		lam.Body = p.expr(lam.Body, withNames(env, formalNames(lam.Formals)...))
		return lam
	}
	ast.RewriteChildren(e, func(c ast.Node) ast.Node {
		return p.expr(c.(ast.Expression), env)
	})

	cond, ok := e.(*ast.If)
	if !ok {
		return e
	}
	thunk := func(arm ast.Expression) ast.Expression {
		return p.cc.expr(&ast.Lambda{Token: cond.Token, Body: arm}, env)
	}
	cond.Body = thunk(cond.Body)
	cond.Orelse = thunk(cond.Orelse)
	return &ast.Apply{Token: cond.Token, Fn: cond}
}
