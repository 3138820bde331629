package rewrite

import (
	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/config"
	"github.com/funvibe/copperhead/internal/utils"
)

// LiftLambdas replaces every lambda with a reference to a new named
// procedure. The procedure is emitted immediately before the statement the
// lambda was found in, in the same block. Lambdas must already be closed.
func LiftLambdas(prog *ast.Program, names *utils.Names) {
	l := &lifter{names: names}
	prog.Statements = l.block(prog.Statements)
}

type lifter struct {
	names   *utils.Names
	pending []ast.Statement
}

func (l *lifter) block(stmts []ast.Statement) []ast.Statement {
	out := make([]ast.Statement, 0, len(stmts))
	for _, s := range stmts {
		saved := l.pending
		l.pending = nil
		switch s := s.(type) {
		case *ast.Bind:
			s.Value = l.expr(s.Value)
		case *ast.Return:
			s.Value = l.expr(s.Value)
		case *ast.Cond:
			s.Test = l.expr(s.Test)
			s.Body = l.block(s.Body)
			s.Orelse = l.block(s.Orelse)
		case *ast.Procedure:
			s.Body = l.block(s.Body)
		}
		out = append(out, l.pending...)
		out = append(out, s)
		l.pending = saved
	}
	return out
}

// expr lifts lambdas bottom-up so inner procedures precede outer ones.
func (l *lifter) expr(e ast.Expression) ast.Expression {
	return ast.Rewrite(e, func(n ast.Node) ast.Node {
		lam, ok := n.(*ast.Lambda)
		if !ok {
			return n
		}
		name := newName(lam.Token, l.names.Fresh(config.LambdaPrefix))
		l.pending = append(l.pending, &ast.Procedure{
			Token:   lam.Token,
			Name:    name,
			Formals: lam.Formals,
			Body:    []ast.Statement{&ast.Return{Token: lam.Token, Value: lam.Body}},
		})
		return refTo(name)
	}).(ast.Expression)
}
