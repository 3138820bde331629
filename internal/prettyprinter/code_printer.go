package prettyprinter

import (
	"bytes"
	"strings"

	"github.com/funvibe/copperhead/internal/ast"
)

// --- Code Printer (Output looks like source code) ---

type operator struct {
	symbol string
	prec   int
}

// Operator calls print back in infix form. Precedence: higher binds tighter.
var binaryOperators = map[string]operator{
	"op_bor":    {"or", 1},
	"op_band":   {"and", 2},
	"op_eq":     {"==", 4},
	"op_ne":     {"!=", 4},
	"op_lt":     {"<", 4},
	"op_le":     {"<=", 4},
	"op_gt":     {">", 4},
	"op_ge":     {">=", 4},
	"op_or":     {"|", 5},
	"op_xor":    {"^", 6},
	"op_and":    {"&", 7},
	"op_lshift": {"<<", 8},
	"op_rshift": {">>", 8},
	"op_add":    {"+", 9},
	"op_sub":    {"-", 9},
	"op_mul":    {"*", 10},
	"op_div":    {"/", 10},
	"op_mod":    {"%", 10},
	"op_pow":    {"**", 12},
}

var unaryOperators = map[string]operator{
	"op_not":    {"not ", 3},
	"op_neg":    {"-", 11},
	"op_invert": {"~", 11},
}

const (
	precTernary = 0
	precAtom    = 100
)

type CodePrinter struct {
	buf    bytes.Buffer
	indent int
	// typed adds inferred types as trailing comments.
	typed bool
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

// NewTypedPrinter prints inferred types next to procedures and bindings.
func NewTypedPrinter() *CodePrinter {
	return &CodePrinter{typed: true}
}

// Print renders a node as source text.
func Print(n ast.Node) string {
	p := NewCodePrinter()
	n.Accept(p)
	return p.String()
}

// PrintTyped renders a node with type annotations.
func PrintTyped(n ast.Node) string {
	p := NewTypedPrinter()
	n.Accept(p)
	return p.String()
}

func (p *CodePrinter) String() string {
	return strings.TrimRight(p.buf.String(), "\n")
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
}

func (p *CodePrinter) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("    ")
	}
}

func (p *CodePrinter) writeln() {
	p.buf.WriteString("\n")
}

func (p *CodePrinter) typeComment(n ast.Node) {
	if !p.typed {
		return
	}
	if t := n.Annotations().Type; t != nil {
		p.write("  # :: " + t.String())
	}
}

// printExpr prints an expression, adding parentheses only if needed
func (p *CodePrinter) printExpr(expr ast.Expression, parentPrec int) {
	switch e := expr.(type) {
	case *ast.Apply:
		name, ok := e.Fn.(*ast.Name)
		if !ok {
			break
		}
		if op, ok := binaryOperators[name.Value]; ok && len(e.Args) == 2 {
			p.open(op.prec < parentPrec)
			right := op.prec + 1
			left := op.prec
			if op.symbol == "**" {
				left, right = op.prec+1, op.prec
			}
			p.printExpr(e.Args[0], left)
			p.write(" " + op.symbol + " ")
			p.printExpr(e.Args[1], right)
			p.close(op.prec < parentPrec)
			return
		}
		if op, ok := unaryOperators[name.Value]; ok && len(e.Args) == 1 {
			p.open(op.prec < parentPrec)
			p.write(op.symbol)
			p.printExpr(e.Args[0], op.prec)
			p.close(op.prec < parentPrec)
			return
		}
	case *ast.If:
		p.open(parentPrec > precTernary)
		p.printExpr(e.Body, precTernary+1)
		p.write(" if ")
		p.printExpr(e.Test, precTernary+1)
		p.write(" else ")
		p.printExpr(e.Orelse, precTernary)
		p.close(parentPrec > precTernary)
		return
	case *ast.Lambda:
		p.open(parentPrec > precTernary)
		e.Accept(p)
		p.close(parentPrec > precTernary)
		return
	}
	expr.Accept(p)
}

func (p *CodePrinter) open(paren bool) {
	if paren {
		p.write("(")
	}
}

func (p *CodePrinter) close(paren bool) {
	if paren {
		p.write(")")
	}
}

func (p *CodePrinter) printList(es []ast.Expression) {
	for i, e := range es {
		if i > 0 {
			p.write(", ")
		}
		p.printExpr(e, precTernary)
	}
}

func (p *CodePrinter) printBlock(stmts []ast.Statement) {
	p.indent++
	for _, s := range stmts {
		s.Accept(p)
	}
	p.indent--
}

func (p *CodePrinter) VisitProgram(n *ast.Program) {
	for _, s := range n.Statements {
		s.Accept(p)
	}
}

func (p *CodePrinter) VisitName(n *ast.Name) {
	p.write(n.Value)
}

func (p *CodePrinter) VisitNumber(n *ast.Number) {
	p.write(n.Value)
}

func (p *CodePrinter) VisitTuple(n *ast.Tuple) {
	p.write("(")
	p.printList(n.Elements)
	if len(n.Elements) == 1 {
		p.write(",")
	}
	p.write(")")
}

func (p *CodePrinter) VisitApply(n *ast.Apply) {
	p.printExpr(n.Fn, precAtom)
	p.write("(")
	p.printList(n.Args)
	p.write(")")
}

func (p *CodePrinter) VisitLambda(n *ast.Lambda) {
	p.write("lambda")
	if len(n.Formals) > 0 {
		p.write(" ")
		p.printList(n.Formals)
	}
	p.write(": ")
	p.printExpr(n.Body, precTernary)
}

func (p *CodePrinter) VisitClosure(n *ast.Closure) {
	p.write("closure([")
	p.printList(n.Vars)
	p.write("], ")
	p.printExpr(n.Body, precTernary)
	p.write(")")
}

func (p *CodePrinter) VisitIf(n *ast.If) {
	p.printExpr(n, precTernary)
}

func (p *CodePrinter) VisitSubscript(n *ast.Subscript) {
	p.printExpr(n.Value, precAtom)
	p.write("[")
	p.printExpr(n.Index, precTernary)
	p.write("]")
}

func (p *CodePrinter) VisitMap(n *ast.Map) {
	p.write("map(")
	p.printExpr(n.Fn, precTernary)
	p.write(", ")
	p.printList(n.Inputs)
	p.write(")")
}

func (p *CodePrinter) VisitBind(n *ast.Bind) {
	p.writeIndent()
	p.printPattern(n.Binder)
	p.write(" = ")
	p.printTop(n.Value)
	p.typeComment(n.Binder)
	p.writeln()
}

func (p *CodePrinter) VisitReturn(n *ast.Return) {
	p.writeIndent()
	p.write("return ")
	p.printTop(n.Value)
	p.writeln()
}

func (p *CodePrinter) VisitCond(n *ast.Cond) {
	p.writeIndent()
	p.write("if ")
	p.printExpr(n.Test, precTernary)
	p.write(":")
	p.writeln()
	p.printBlock(n.Body)
	if len(n.Orelse) == 0 {
		return
	}
	p.writeIndent()
	p.write("else:")
	p.writeln()
	p.printBlock(n.Orelse)
}

func (p *CodePrinter) VisitProcedure(n *ast.Procedure) {
	if p.typed && n.Type != nil {
		p.writeIndent()
		p.write("# " + n.Name.Value + " :: " + n.Type.String())
		p.writeln()
	}
	p.writeIndent()
	p.write("def " + n.Name.Value + "(")
	for i, f := range n.Formals {
		if i > 0 {
			p.write(", ")
		}
		p.printPattern(f)
	}
	p.write("):")
	if n.EntryPoint {
		p.write("  # entry point")
	}
	p.writeln()
	p.printBlock(n.Body)
}

// Top-level tuples in binds and returns print without parentheses.
func (p *CodePrinter) printTop(e ast.Expression) {
	if tup, ok := e.(*ast.Tuple); ok && len(tup.Elements) > 1 {
		p.printList(tup.Elements)
		return
	}
	p.printExpr(e, precTernary)
}

func (p *CodePrinter) printPattern(e ast.Expression) {
	p.printExpr(e, precTernary)
}
