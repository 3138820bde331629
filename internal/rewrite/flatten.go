package rewrite

import (
	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/config"
	"github.com/funvibe/copperhead/internal/utils"
)

// FlattenProcedures hoists every nested procedure to the top level. A
// procedure's nested definitions come right before it, in the order they
// were defined. Procedures must already be closed.
func FlattenProcedures(prog *ast.Program) {
	var out []ast.Statement
	for _, s := range prog.Statements {
		if p, ok := s.(*ast.Procedure); ok {
			out = append(out, hoistProcedures(p)...)
			continue
		}
		if c, ok := s.(*ast.Cond); ok {
			var nested []ast.Statement
			c.Body, nested = extractProcedures(c.Body, nested)
			c.Orelse, nested = extractProcedures(c.Orelse, nested)
			out = append(out, nested...)
		}
		out = append(out, s)
	}
	prog.Statements = out
}

// hoistProcedures returns p's nested procedures followed by p itself.
func hoistProcedures(p *ast.Procedure) []ast.Statement {
	var nested []ast.Statement
	p.Body, nested = extractProcedures(p.Body, nil)
	return append(nested, p)
}

func extractProcedures(stmts []ast.Statement, nested []ast.Statement) ([]ast.Statement, []ast.Statement) {
	kept := stmts[:0]
	for _, s := range stmts {
		switch s := s.(type) {
		case *ast.Procedure:
			nested = append(nested, hoistProcedures(s)...)
			continue
		case *ast.Cond:
			s.Body, nested = extractProcedures(s.Body, nested)
			s.Orelse, nested = extractProcedures(s.Orelse, nested)
		}
		kept = append(kept, s)
	}
	return kept, nested
}

// FlattenExpressions splits nested expressions so every operand is atomic:
// a name, a literal, or a closure over names. Intermediate values are bound
// to fresh temporaries. Return values and conditional tests are atomic too.
func FlattenExpressions(prog *ast.Program, names *utils.Names) {
	f := &flattener{names: names}
	prog.Statements = f.block(prog.Statements)
}

type flattener struct {
	names *utils.Names
}

func (f *flattener) block(stmts []ast.Statement) []ast.Statement {
	var out []ast.Statement
	for _, s := range stmts {
		switch s := s.(type) {
		case *ast.Bind:
			s.Value = f.operands(s.Value, &out)
		case *ast.Return:
			s.Value = f.atom(s.Value, &out)
		case *ast.Cond:
			s.Test = f.atom(s.Test, &out)
			s.Body = f.block(s.Body)
			s.Orelse = f.block(s.Orelse)
		case *ast.Procedure:
			s.Body = f.block(s.Body)
		}
		out = append(out, s)
	}
	return out
}

// operands makes the children of e atomic, leaving e itself in place.
func (f *flattener) operands(e ast.Expression, out *[]ast.Statement) ast.Expression {
	ast.RewriteChildren(e, func(c ast.Node) ast.Node {
		return f.atom(c.(ast.Expression), out)
	})
	return e
}

// atom returns an atomic expression with the value of e, binding e to a
// temporary when needed.
func (f *flattener) atom(e ast.Expression, out *[]ast.Statement) ast.Expression {
	if ast.IsAtomic(e) {
		return e
	}
	e = f.operands(e, out)
	if ast.IsAtomic(e) {
		return e
	}
	tmp := newName(e.GetToken(), f.names.Fresh(config.TempPrefix))
	*out = append(*out, &ast.Bind{Token: e.GetToken(), Binder: tmp, Value: e})
	return refTo(tmp)
}
