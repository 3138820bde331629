package ast

// Visitor receives one call per node kind. Implementations decide whether
// to descend; VisitChildren provides the default recursion.
type Visitor interface {
	VisitProgram(node *Program)
	VisitName(node *Name)
	VisitNumber(node *Number)
	VisitTuple(node *Tuple)
	VisitApply(node *Apply)
	VisitLambda(node *Lambda)
	VisitClosure(node *Closure)
	VisitIf(node *If)
	VisitSubscript(node *Subscript)
	VisitMap(node *Map)
	VisitBind(node *Bind)
	VisitReturn(node *Return)
	VisitCond(node *Cond)
	VisitProcedure(node *Procedure)
}

// VisitChildren dispatches v on every direct child of n.
func VisitChildren(n Node, v Visitor) {
	for _, c := range Children(n) {
		c.Accept(v)
	}
}

// Inspector is a Visitor driven by a single function. Children are visited
// while Fn returns true, so it behaves like Walk for code that needs a
// Visitor value.
type Inspector struct {
	Fn func(Node) bool
}

func (in *Inspector) visit(n Node) {
	if in.Fn(n) {
		VisitChildren(n, in)
	}
}

func (in *Inspector) VisitProgram(node *Program)     { in.visit(node) }
func (in *Inspector) VisitName(node *Name)           { in.visit(node) }
func (in *Inspector) VisitNumber(node *Number)       { in.visit(node) }
func (in *Inspector) VisitTuple(node *Tuple)         { in.visit(node) }
func (in *Inspector) VisitApply(node *Apply)         { in.visit(node) }
func (in *Inspector) VisitLambda(node *Lambda)       { in.visit(node) }
func (in *Inspector) VisitClosure(node *Closure)     { in.visit(node) }
func (in *Inspector) VisitIf(node *If)               { in.visit(node) }
func (in *Inspector) VisitSubscript(node *Subscript) { in.visit(node) }
func (in *Inspector) VisitMap(node *Map)             { in.visit(node) }
func (in *Inspector) VisitBind(node *Bind)           { in.visit(node) }
func (in *Inspector) VisitReturn(node *Return)       { in.visit(node) }
func (in *Inspector) VisitCond(node *Cond)           { in.visit(node) }
func (in *Inspector) VisitProcedure(node *Procedure) { in.visit(node) }
