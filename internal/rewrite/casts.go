package rewrite

import (
	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/config"
	"github.com/funvibe/copperhead/internal/symbols"
	"github.com/funvibe/copperhead/internal/typesystem"
)

// CastLiterals wraps numeric literals passed to typed globals so their
// type follows the callee rather than the literal's default:
//   - a parameter of a concrete scalar type gets that type's conversion,
//     e.g. f(1) with f: Float -> Float becomes f(float32(1))
//   - a polymorphic parameter is cast to the type of a non-literal sibling
//     argument sharing the same type variable, e.g. x + 1 becomes
//     op_add(x, cast_to(1, x))
//
// Literals and calls over nothing but literals are flagged LiteralExpr.
func CastLiterals(prog *ast.Program, globals *symbols.SymbolTable) {
	c := &caster{globals: globals}
	ast.Rewrite(prog, c.rewrite)
}

type caster struct {
	globals *symbols.SymbolTable
}

func (c *caster) rewrite(n ast.Node) ast.Node {
	switch n := n.(type) {
	case *ast.Number:
		n.LiteralExpr = true
	case *ast.Apply:
		c.insertCasts(n)
	}
	return n
}

func isLiteral(e ast.Expression) bool {
	return e.Annotations().LiteralExpr
}

func (c *caster) signature(fn ast.Expression) (typesystem.TFunc, bool) {
	name, ok := fn.(*ast.Name)
	if !ok {
		return typesystem.TFunc{}, false
	}
	sym, ok := c.globals.Find(name.Value)
	if !ok && name.Value == config.UserPrefix+name.Source {
		sym, ok = c.globals.Find(name.Source)
	}
	if !ok || sym.Type == nil {
		return typesystem.TFunc{}, false
	}
	t := sym.Type
	if poly, ok := t.(typesystem.TForall); ok {
		t = poly.Type
	}
	sig, ok := t.(typesystem.TFunc)
	return sig, ok
}

func (c *caster) insertCasts(call *ast.Apply) {
	allLiteral := len(call.Args) > 0
	for _, a := range call.Args {
		allLiteral = allLiteral && isLiteral(a)
	}
	call.LiteralExpr = allLiteral

	sig, ok := c.signature(call.Fn)
	if !ok || len(sig.Params) != len(call.Args) {
		return
	}

	for i, arg := range call.Args {
		if !isLiteral(arg) {
			continue
		}
		switch p := sig.Params[i].(type) {
		case typesystem.TCon:
			if conv, ok := config.ConversionFuncs[p.Name]; ok {
				call.Args[i] = c.cast(arg, conv)
			}
		case typesystem.TVar:
			if sibling := typedSibling(call, sig, i, p); sibling != nil {
				call.Args[i] = c.cast(arg, config.CastToFuncName, sibling)
			}
		}
	}
}

// typedSibling finds a non-literal argument whose parameter is the same
// type variable as parameter i.
func typedSibling(call *ast.Apply, sig typesystem.TFunc, i int, v typesystem.TVar) ast.Expression {
	for j, other := range call.Args {
		if j == i || isLiteral(other) {
			continue
		}
		if w, ok := sig.Params[j].(typesystem.TVar); ok && w.ID == v.ID {
			return other
		}
	}
	return nil
}

func (c *caster) cast(arg ast.Expression, fn string, extra ...ast.Expression) ast.Expression {
	tok := arg.GetToken()
	args := []ast.Expression{arg}
	for _, e := range extra {
		args = append(args, ast.Clone(e))
	}
	out := &ast.Apply{Token: tok, Fn: newName(tok, fn), Args: args}
	out.LiteralExpr = true
	return out
}
