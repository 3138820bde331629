package rewrite

import (
	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/config"
	"github.com/funvibe/copperhead/internal/utils"
)

// NameTuples replaces every tuple-pattern formal of a procedure with a
// fresh name and destructures it at the top of the body, one level per
// binding:
//
//	def f((a, (b, c))):     def f(tuple0):
//	    ...                     (a, tuple1) = tuple0
//	                            (b, c) = tuple1
//	                            ...
func NameTuples(prog *ast.Program, names *utils.Names) {
	for n := range ast.Nodes(prog) {
		p, ok := n.(*ast.Procedure)
		if !ok {
			continue
		}
		var prologue []ast.Statement
		for i, f := range p.Formals {
			if _, ok := f.(*ast.Tuple); !ok {
				continue
			}
			name := newName(f.GetToken(), names.Fresh(config.TupleFormalPrefix))
			p.Formals[i] = name
			prologue = destructure(f, refTo(name), names, prologue)
		}
		if len(prologue) > 0 {
			p.Body = append(prologue, p.Body...)
		}
	}
}

// destructure binds pattern to value, naming nested tuple patterns.
func destructure(pattern ast.Expression, value ast.Expression, names *utils.Names, out []ast.Statement) []ast.Statement {
	tuple := pattern.(*ast.Tuple)
	binder := &ast.Tuple{Token: tuple.Token, Elements: make([]ast.Expression, len(tuple.Elements))}
	var nested []ast.Statement
	for i, el := range tuple.Elements {
		if _, ok := el.(*ast.Tuple); !ok {
			binder.Elements[i] = el
			continue
		}
		name := newName(el.GetToken(), names.Fresh(config.TupleFormalPrefix))
		binder.Elements[i] = name
		nested = destructure(el, refTo(name), names, nested)
	}
	out = append(out, &ast.Bind{Token: tuple.Token, Binder: binder, Value: value})
	return append(out, nested...)
}
