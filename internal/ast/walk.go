package ast

import (
	"fmt"
	"iter"

	"github.com/hashicorp/go-set/v3"
)

// Children returns the direct sub-nodes of n in source order. Binding
// positions (formals, binders, procedure names) are included.
func Children(n Node) []Node {
	var out []Node
	switch n := n.(type) {
	case *Program:
		out = appendStmts(out, n.Statements)
	case *Name, *Number:
	case *Tuple:
		out = appendExprs(out, n.Elements)
	case *Apply:
		out = append(out, n.Fn)
		out = appendExprs(out, n.Args)
	case *Lambda:
		out = appendExprs(out, n.Formals)
		out = append(out, n.Body)
	case *Closure:
		out = appendExprs(out, n.Vars)
		out = append(out, n.Body)
	case *If:
		out = append(out, n.Test, n.Body, n.Orelse)
	case *Subscript:
		out = append(out, n.Value, n.Index)
	case *Map:
		out = append(out, n.Fn)
		out = appendExprs(out, n.Inputs)
	case *Bind:
		out = append(out, n.Binder, n.Value)
	case *Return:
		out = append(out, n.Value)
	case *Cond:
		out = append(out, n.Test)
		out = appendStmts(out, n.Body)
		out = appendStmts(out, n.Orelse)
	case *Procedure:
		out = append(out, n.Name)
		out = appendExprs(out, n.Formals)
		out = appendStmts(out, n.Body)
	default:
		panic(fmt.Sprintf("ast: unknown node kind %T", n))
	}
	return out
}

func appendExprs(out []Node, es []Expression) []Node {
	for _, e := range es {
		out = append(out, e)
	}
	return out
}

func appendStmts(out []Node, ss []Statement) []Node {
	for _, s := range ss {
		out = append(out, s)
	}
	return out
}

// Walk traverses n in pre-order. Children of a node are skipped when fn
// returns false for it.
func Walk(n Node, fn func(Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// Nodes yields every node under n, n included, in pre-order.
func Nodes(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		var rec func(Node) bool
		rec = func(n Node) bool {
			if !yield(n) {
				return false
			}
			for _, c := range Children(n) {
				if !rec(c) {
					return false
				}
			}
			return true
		}
		rec(n)
	}
}

// Collect flattens a tree into one slice: fn's results for a node come
// first, followed by the results of its children in order.
func Collect[T any](n Node, fn func(Node) []T) []T {
	var out []T
	for node := range Nodes(n) {
		out = append(out, fn(node)...)
	}
	return out
}

// RewriteChildren replaces every direct child c of n with f(c) and returns
// n. Results must keep the syntactic category of the slot they replace.
func RewriteChildren(n Node, f func(Node) Node) Node {
	switch n := n.(type) {
	case *Program:
		n.Statements = rewriteStmts(n.Statements, f)
	case *Name, *Number:
	case *Tuple:
		n.Elements = rewriteExprs(n.Elements, f)
	case *Apply:
		n.Fn = rewriteExpr(n.Fn, f)
		n.Args = rewriteExprs(n.Args, f)
	case *Lambda:
		n.Formals = rewriteExprs(n.Formals, f)
		n.Body = rewriteExpr(n.Body, f)
	case *Closure:
		n.Vars = rewriteExprs(n.Vars, f)
		n.Body = rewriteExpr(n.Body, f)
	case *If:
		n.Test = rewriteExpr(n.Test, f)
		n.Body = rewriteExpr(n.Body, f)
		n.Orelse = rewriteExpr(n.Orelse, f)
	case *Subscript:
		n.Value = rewriteExpr(n.Value, f)
		n.Index = rewriteExpr(n.Index, f)
	case *Map:
		n.Fn = rewriteExpr(n.Fn, f)
		n.Inputs = rewriteExprs(n.Inputs, f)
	case *Bind:
		n.Binder = rewriteExpr(n.Binder, f)
		n.Value = rewriteExpr(n.Value, f)
	case *Return:
		n.Value = rewriteExpr(n.Value, f)
	case *Cond:
		n.Test = rewriteExpr(n.Test, f)
		n.Body = rewriteStmts(n.Body, f)
		n.Orelse = rewriteStmts(n.Orelse, f)
	case *Procedure:
		name, ok := f(n.Name).(*Name)
		if !ok {
			panic("ast: procedure name rewritten to a non-name")
		}
		n.Name = name
		n.Formals = rewriteExprs(n.Formals, f)
		n.Body = rewriteStmts(n.Body, f)
	default:
		panic(fmt.Sprintf("ast: unknown node kind %T", n))
	}
	return n
}

// Rewrite applies f bottom-up: children are rewritten before their parent.
func Rewrite(n Node, f func(Node) Node) Node {
	RewriteChildren(n, func(c Node) Node { return Rewrite(c, f) })
	return f(n)
}

func rewriteExpr(e Expression, f func(Node) Node) Expression {
	r, ok := f(e).(Expression)
	if !ok {
		panic(fmt.Sprintf("ast: expression %s rewritten to a non-expression", e.Kind()))
	}
	return r
}

func rewriteExprs(es []Expression, f func(Node) Node) []Expression {
	for i, e := range es {
		es[i] = rewriteExpr(e, f)
	}
	return es
}

func rewriteStmts(ss []Statement, f func(Node) Node) []Statement {
	for i, s := range ss {
		r, ok := f(s).(Statement)
		if !ok {
			panic(fmt.Sprintf("ast: statement %s rewritten to a non-statement", s.Kind()))
		}
		ss[i] = r
	}
	return ss
}

// Clone returns a deep copy of n, annotations included.
func Clone[T Node](n T) T {
	return clone(n).(T)
}

func clone(n Node) Node {
	switch n := n.(type) {
	case *Program:
		c := *n
		c.Statements = CloneStmts(n.Statements)
		return &c
	case *Name:
		c := *n
		return &c
	case *Number:
		c := *n
		return &c
	case *Tuple:
		c := *n
		c.Elements = CloneExprs(n.Elements)
		return &c
	case *Apply:
		c := *n
		c.Fn = Clone(n.Fn)
		c.Args = CloneExprs(n.Args)
		return &c
	case *Lambda:
		c := *n
		c.Formals = CloneExprs(n.Formals)
		c.Body = Clone(n.Body)
		return &c
	case *Closure:
		c := *n
		c.Vars = CloneExprs(n.Vars)
		c.Body = Clone(n.Body)
		return &c
	case *If:
		c := *n
		c.Test, c.Body, c.Orelse = Clone(n.Test), Clone(n.Body), Clone(n.Orelse)
		return &c
	case *Subscript:
		c := *n
		c.Value, c.Index = Clone(n.Value), Clone(n.Index)
		return &c
	case *Map:
		c := *n
		c.Fn = Clone(n.Fn)
		c.Inputs = CloneExprs(n.Inputs)
		return &c
	case *Bind:
		c := *n
		c.Binder, c.Value = Clone(n.Binder), Clone(n.Value)
		return &c
	case *Return:
		c := *n
		c.Value = Clone(n.Value)
		return &c
	case *Cond:
		c := *n
		c.Test = Clone(n.Test)
		c.Body = CloneStmts(n.Body)
		c.Orelse = CloneStmts(n.Orelse)
		return &c
	case *Procedure:
		c := *n
		c.Name = Clone(n.Name)
		c.Formals = CloneExprs(n.Formals)
		c.Body = CloneStmts(n.Body)
		return &c
	}
	panic(fmt.Sprintf("ast: unknown node kind %T", n))
}

func CloneExprs(es []Expression) []Expression {
	if es == nil {
		return nil
	}
	out := make([]Expression, len(es))
	for i, e := range es {
		out[i] = Clone(e)
	}
	return out
}

func CloneStmts(ss []Statement) []Statement {
	if ss == nil {
		return nil
	}
	out := make([]Statement, len(ss))
	for i, s := range ss {
		out[i] = Clone(s)
	}
	return out
}

// PatternNames returns the names bound by a binder or formal pattern, left
// to right.
func PatternNames(e Expression) []*Name {
	switch e := e.(type) {
	case *Name:
		return []*Name{e}
	case *Tuple:
		var out []*Name
		for _, el := range e.Elements {
			out = append(out, PatternNames(el)...)
		}
		return out
	}
	return nil
}

// Bindings returns the names n introduces into scope.
func Bindings(n Node) []*Name {
	switch n := n.(type) {
	case *Lambda:
		return formalNames(n.Formals)
	case *Procedure:
		return formalNames(n.Formals)
	case *Bind:
		return PatternNames(n.Binder)
	}
	return nil
}

func formalNames(formals []Expression) []*Name {
	var out []*Name
	for _, f := range formals {
		out = append(out, PatternNames(f)...)
	}
	return out
}

// IsAtomic reports whether e needs no evaluation: a name, a literal, or a
// closure over names.
func IsAtomic(e Expression) bool {
	switch e := e.(type) {
	case *Name, *Number:
		return true
	case *Closure:
		for _, v := range e.Vars {
			if !IsAtomic(v) {
				return false
			}
		}
		_, ok := e.Body.(*Name)
		return ok
	}
	return false
}

// IsPattern reports whether e is a name or a tuple of patterns.
func IsPattern(e Expression) bool {
	switch e := e.(type) {
	case *Name:
		return true
	case *Tuple:
		for _, el := range e.Elements {
			if !IsPattern(el) {
				return false
			}
		}
		return true
	}
	return false
}

// FreeNames returns the names referenced but not bound inside n, in order
// of first occurrence. A procedure's own name is bound in its body.
func FreeNames(n Node) []string {
	fv := &freeVars{seen: set.New[string](0)}
	fv.node(n, set.New[string](0))
	return fv.out
}

type freeVars struct {
	seen *set.Set[string]
	out  []string
}

func (fv *freeVars) node(n Node, bound *set.Set[string]) {
	switch n := n.(type) {
	case *Name:
		if !bound.Contains(n.Value) && fv.seen.Insert(n.Value) {
			fv.out = append(fv.out, n.Value)
		}
	case *Lambda:
		inner := bound.Copy()
		for _, f := range formalNames(n.Formals) {
			inner.Insert(f.Value)
		}
		fv.node(n.Body, inner)
	case *Procedure:
		inner := bound.Copy()
		inner.Insert(n.Name.Value)
		for _, f := range formalNames(n.Formals) {
			inner.Insert(f.Value)
		}
		fv.block(n.Body, inner)
	case *Program:
		fv.block(n.Statements, bound.Copy())
	case *Bind:
		fv.node(n.Value, bound)
	case *Cond:
		fv.node(n.Test, bound)
		fv.block(n.Body, bound.Copy())
		fv.block(n.Orelse, bound.Copy())
	default:
		for _, c := range Children(n) {
			fv.node(c, bound)
		}
	}
}

func (fv *freeVars) block(stmts []Statement, bound *set.Set[string]) {
	for _, s := range stmts {
		switch s := s.(type) {
		case *Bind:
			fv.node(s.Value, bound)
			for _, b := range PatternNames(s.Binder) {
				bound.Insert(b.Value)
			}
		case *Procedure:
			bound.Insert(s.Name.Value)
			fv.node(s, bound)
		default:
			fv.node(s, bound)
		}
	}
}

// Substitute replaces free occurrences of the names in subst with copies of
// the mapped expressions. Shadowed names are left alone. n is modified in
// place and returned.
func Substitute(n Node, subst map[string]Expression) Node {
	if len(subst) == 0 {
		return n
	}
	switch n := n.(type) {
	case *Name:
		if r, ok := subst[n.Value]; ok {
			return Clone(r)
		}
		return n
	case *Lambda:
		inner := without(subst, formalNames(n.Formals))
		n.Body = Substitute(n.Body, inner).(Expression)
		return n
	case *Procedure:
		inner := without(subst, append(formalNames(n.Formals), n.Name))
		n.Body = SubstituteBlock(n.Body, inner)
		return n
	case *Program:
		n.Statements = SubstituteBlock(n.Statements, subst)
		return n
	case *Bind:
		n.Value = Substitute(n.Value, subst).(Expression)
		return n
	case *Cond:
		n.Test = Substitute(n.Test, subst).(Expression)
		n.Body = SubstituteBlock(n.Body, subst)
		n.Orelse = SubstituteBlock(n.Orelse, subst)
		return n
	}
	return RewriteChildren(n, func(c Node) Node { return Substitute(c, subst) })
}

// SubstituteBlock substitutes through a statement list. A binding of a
// substituted name ends the substitution for the rest of the block.
func SubstituteBlock(stmts []Statement, subst map[string]Expression) []Statement {
	for i, s := range stmts {
		if len(subst) == 0 {
			break
		}
		stmts[i] = Substitute(s, subst).(Statement)
		switch s := s.(type) {
		case *Bind:
			subst = without(subst, PatternNames(s.Binder))
		case *Procedure:
			subst = without(subst, []*Name{s.Name})
		}
	}
	return stmts
}

func without(subst map[string]Expression, names []*Name) map[string]Expression {
	var out map[string]Expression
	for _, n := range names {
		if _, ok := subst[n.Value]; !ok {
			continue
		}
		if out == nil {
			out = make(map[string]Expression, len(subst))
			for k, v := range subst {
				out[k] = v
			}
		}
		delete(out, n.Value)
	}
	if out == nil {
		return subst
	}
	return out
}
