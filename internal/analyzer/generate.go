package analyzer

import (
	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/config"
	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/typesystem"
)

// generator walks a program once, labelling every node with a fresh type
// variable and emitting the constraints relating them. A node's constraints
// follow those of its children, so a binder's right-hand side is always
// solved before the binder is generalized.
type generator struct {
	ctx *TypingContext
	out []Constraint
	err *diagnostics.DiagnosticError
}

// Generate labels prog and returns its constraints in solving order along
// with the type of the program's last statement.
func Generate(ctx *TypingContext, prog *ast.Program) ([]Constraint, typesystem.Type, error) {
	g := &generator{ctx: ctx}
	result := ctx.Fresh()
	prog.Type = result
	g.block(prog.Statements, result)
	if g.err != nil {
		return nil, nil, g.err
	}
	var last typesystem.Type = typesystem.Void
	if n := len(prog.Statements); n > 0 {
		last = prog.Statements[n-1].Annotations().Type
	}
	return g.out, last, nil
}

func (g *generator) emit(c Constraint) {
	g.out = append(g.out, c)
}

func (g *generator) equal(l, r typesystem.Type, n ast.Node) {
	g.emit(&Equality{Left: l, Right: r, Node: n})
}

func (g *generator) fresh(n ast.Node) typesystem.TVar {
	tv := g.ctx.Fresh()
	n.Annotations().Type = tv
	return tv
}

func (g *generator) fail(err *diagnostics.DiagnosticError) {
	if g.err == nil {
		g.err = err
	}
}

func (g *generator) expr(e ast.Expression) typesystem.Type {
	switch n := e.(type) {
	case *ast.Name:
		return g.name(n)

	case *ast.Number:
		tv := g.fresh(n)
		if n.IsFloat {
			g.equal(tv, typesystem.Double, n)
		} else {
			g.equal(tv, typesystem.Long, n)
		}
		return tv

	case *ast.Tuple:
		elems := g.exprs(n.Elements)
		tv := g.fresh(n)
		g.equal(tv, typesystem.TTuple{Elements: elems}, n)
		return tv

	case *ast.Apply:
		fn := g.expr(n.Fn)
		args := g.exprs(n.Args)
		tv := g.fresh(n)
		g.equal(fn, typesystem.Fn(args, tv), n)
		return tv

	case *ast.Lambda:
		g.ctx.BeginScope()
		formals := g.formals(n.Formals)
		body := g.expr(n.Body)
		g.ctx.EndScope()
		tv := g.fresh(n)
		g.equal(tv, typesystem.Fn(formals, body), n)
		return tv

	case *ast.Closure:
		closed := g.exprs(n.Vars)
		body := g.expr(n.Body)
		tv := g.fresh(n)
		g.emit(&ClosedOver{Type: tv, Closed: closed, Body: body, Node: n})
		return tv

	case *ast.If:
		test := g.expr(n.Test)
		g.equal(test, typesystem.Bool, n.Test)
		body := g.expr(n.Body)
		orelse := g.expr(n.Orelse)
		tv := g.fresh(n)
		g.equal(tv, body, n.Body)
		g.equal(tv, orelse, n.Orelse)
		return tv

	case *ast.Subscript:
		value := g.expr(n.Value)
		index := g.expr(n.Index)
		tv := g.fresh(n)
		g.equal(index, typesystem.Long, n.Index)
		g.equal(value, typesystem.Seq(tv), n)
		return tv

	case *ast.Map:
		fn := g.expr(n.Fn)
		inputs := g.exprs(n.Inputs)
		elems := g.ctx.FreshTypes(len(inputs))
		for i, in := range inputs {
			g.equal(in, typesystem.Seq(elems[i]), n.Inputs[i])
		}
		result := g.ctx.Fresh()
		g.equal(fn, typesystem.Fn(elems, result), n.Fn)
		tv := g.fresh(n)
		g.equal(tv, typesystem.Seq(result), n)
		return tv
	}
	panic("analyzer: unexpected expression " + e.Kind().String())
}

func (g *generator) exprs(es []ast.Expression) []typesystem.Type {
	ts := make([]typesystem.Type, len(es))
	for i, e := range es {
		ts[i] = g.expr(e)
	}
	return ts
}

// name types a reference: locals first, then typed globals. Anything else
// becomes an assumption that a later binder may explain.
func (g *generator) name(n *ast.Name) typesystem.Type {
	switch n.Value {
	case config.TrueName, config.FalseName:
		tv := g.fresh(n)
		g.equal(tv, typesystem.Bool, n)
		return tv
	case config.NoneName:
		tv := g.fresh(n)
		g.equal(tv, typesystem.Void, n)
		return tv
	}

	if t, ok := g.ctx.Lookup(n.Value); ok {
		tv := g.fresh(n)
		g.equal(tv, t, n)
		return tv
	}
	if t := g.globalType(n); t != nil {
		tv := g.fresh(n)
		g.equal(tv, t, n)
		return tv
	}
	tv := g.ctx.Assume(n.Value, n)
	n.Type = tv
	return tv
}

// globalType finds the attached type of a global. Marked names are also
// looked up as written in source.
func (g *generator) globalType(n *ast.Name) typesystem.Type {
	if sym, ok := g.ctx.Globals.Find(n.Value); ok && sym.Type != nil {
		return sym.Type
	}
	if n.Original() != n.Value {
		if sym, ok := g.ctx.Globals.Find(n.Original()); ok && sym.Type != nil {
			return sym.Type
		}
	}
	return nil
}

// formals binds formal patterns in the current scope as monomorphs.
func (g *generator) formals(fs []ast.Expression) []typesystem.Type {
	ts := make([]typesystem.Type, len(fs))
	for i, f := range fs {
		ts[i] = g.pattern(f, true)
	}
	return ts
}

// pattern labels a binding pattern and binds its names.
func (g *generator) pattern(e ast.Expression, monomorphic bool) typesystem.Type {
	switch p := e.(type) {
	case *ast.Name:
		tv := g.fresh(p)
		g.ctx.Bind(p.Value, tv)
		if monomorphic {
			g.ctx.AddMonomorph(tv)
		}
		return tv
	case *ast.Tuple:
		elems := make([]typesystem.Type, len(p.Elements))
		for i, el := range p.Elements {
			elems[i] = g.pattern(el, monomorphic)
		}
		t := typesystem.TTuple{Elements: elems}
		p.Type = t
		return t
	}
	panic("analyzer: unexpected pattern " + e.Kind().String())
}

// block generates constraints for a statement list whose returns produce
// result.
func (g *generator) block(stmts []ast.Statement, result typesystem.Type) {
	for _, s := range stmts {
		g.statement(s, result)
	}
}

func (g *generator) statement(s ast.Statement, result typesystem.Type) {
	switch n := s.(type) {
	case *ast.Return:
		v := g.expr(n.Value)
		n.Type = v
		g.equal(v, result, n)

	case *ast.Bind:
		g.bind(n)

	case *ast.Cond:
		test := g.expr(n.Test)
		g.equal(test, typesystem.Bool, n.Test)
		g.ctx.BeginScope()
		g.block(n.Body, result)
		g.ctx.EndScope()
		g.ctx.BeginScope()
		g.block(n.Orelse, result)
		g.ctx.EndScope()
		n.Type = result

	case *ast.Procedure:
		g.procedure(n)

	default:
		panic("analyzer: unexpected statement " + s.Kind().String())
	}
}

// bind generalizes single-name binders only; destructuring binds stay
// monomorphic.
func (g *generator) bind(n *ast.Bind) {
	value := g.expr(n.Value)
	if name, ok := n.Binder.(*ast.Name); ok {
		tv := g.fresh(name)
		g.emit(&Generalizing{Binder: tv, Value: value, Monomorphs: g.ctx.Monomorphs(), Node: n})
		g.ctx.Bind(name.Value, tv)
		g.explain(name.Value, tv, n)
		n.Type = tv
		return
	}
	pt := g.pattern(n.Binder, false)
	g.equal(pt, value, n)
	for _, name := range ast.PatternNames(n.Binder) {
		g.explain(name.Value, name.Type, n)
	}
	n.Type = pt
}

// procedure types the body against a monomorphic self type, so recursive
// calls are monomorphic, then generalizes the signature for later uses.
func (g *generator) procedure(n *ast.Procedure) {
	name := n.Name.Value
	binder := g.fresh(n.Name)
	self := g.ctx.Fresh()

	g.ctx.BeginScope()
	g.ctx.Bind(name, self)
	g.ctx.AddMonomorph(self)
	formals := g.formals(n.Formals)
	if types, ok := g.ctx.EntryTypes[name]; ok {
		if len(types) != len(n.Formals) {
			g.fail(diagnostics.NewError(diagnostics.ErrI005, n.Token.Line,
				"entry point %s takes %d arguments, %d types given", n.Name.Original(), len(n.Formals), len(types)))
		} else {
			for i, t := range types {
				g.equal(formals[i], t, n.Formals[i])
			}
		}
	}
	result := g.ctx.Fresh()
	g.block(n.Body, result)
	g.ctx.EndScope()

	sig := typesystem.Fn(formals, result)
	g.equal(self, sig, n)
	g.emit(&Generalizing{Binder: binder, Value: sig, Monomorphs: g.ctx.Monomorphs(), Node: n})
	g.ctx.Bind(name, binder)
	g.explain(name, binder, n)
	n.Type = binder
}

func (g *generator) explain(name string, binder typesystem.Type, n ast.Node) {
	for _, tv := range g.ctx.explain(name) {
		g.emit(&Explanation{Assumed: tv, Binder: binder, Node: n})
	}
}
