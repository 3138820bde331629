package ast

import (
	"github.com/funvibe/copperhead/internal/token"
	"github.com/funvibe/copperhead/internal/typesystem"
)

// Kind tags every node variant. Dispatch in utilities is by Kind through a
// type switch rather than method overriding.
type Kind int

const (
	KindProgram Kind = iota
	KindName
	KindNumber
	KindTuple
	KindApply
	KindLambda
	KindClosure
	KindIf
	KindSubscript
	KindMap
	KindBind
	KindReturn
	KindCond
	KindProcedure
)

var kindNames = [...]string{
	KindProgram:   "Program",
	KindName:      "Name",
	KindNumber:    "Number",
	KindTuple:     "Tuple",
	KindApply:     "Apply",
	KindLambda:    "Lambda",
	KindClosure:   "Closure",
	KindIf:        "If",
	KindSubscript: "Subscript",
	KindMap:       "Map",
	KindBind:      "Bind",
	KindReturn:    "Return",
	KindCond:      "Cond",
	KindProcedure: "Procedure",
}

func (k Kind) String() string { return kindNames[k] }

// Node is the base interface for all AST nodes.
type Node interface {
	Kind() Kind
	TokenLiteral() string
	GetToken() token.Token
	Accept(v Visitor)
	Annotations() *Meta
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
}

// Meta holds the annotations that passes attach to nodes. Clone copies it.
type Meta struct {
	// Type is the inferred type; a fresh variable until solved.
	Type typesystem.Type
	// EntryPoint marks procedures called by the host.
	EntryPoint bool
	// LiteralExpr marks numeric literals and calls over literals only.
	LiteralExpr bool
}

func (m *Meta) Annotations() *Meta { return m }

// Program is the root node of every AST our parser produces.
type Program struct {
	Meta
	File       string // Source file path
	Statements []Statement
}

func (p *Program) Kind() Kind            { return KindProgram }
func (p *Program) Accept(v Visitor)      { v.VisitProgram(p) }
func (p *Program) GetToken() token.Token { return token.Token{} }
func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

// Name is an identifier reference or a binding occurrence.
type Name struct {
	Meta
	Token token.Token
	Value string
	// Source is the identifier as written, kept across renaming for
	// diagnostics and reserved-name checks.
	Source string
}

func (n *Name) Kind() Kind            { return KindName }
func (n *Name) Accept(v Visitor)      { v.VisitName(n) }
func (n *Name) expressionNode()       {}
func (n *Name) TokenLiteral() string  { return n.Token.Lexeme }
func (n *Name) GetToken() token.Token { return n.Token }

// Original returns the name as it appeared in source.
func (n *Name) Original() string {
	if n.Source != "" {
		return n.Source
	}
	return n.Value
}

// Number is a numeric literal. Value keeps the source text.
type Number struct {
	Meta
	Token   token.Token
	Value   string
	IsFloat bool
}

func (n *Number) Kind() Kind            { return KindNumber }
func (n *Number) Accept(v Visitor)      { v.VisitNumber(n) }
func (n *Number) expressionNode()       {}
func (n *Number) TokenLiteral() string  { return n.Token.Lexeme }
func (n *Number) GetToken() token.Token { return n.Token }

// Tuple is a tuple expression, or a destructuring pattern when it appears
// as a binder or formal.
type Tuple struct {
	Meta
	Token    token.Token
	Elements []Expression
}

func (t *Tuple) Kind() Kind            { return KindTuple }
func (t *Tuple) Accept(v Visitor)      { v.VisitTuple(t) }
func (t *Tuple) expressionNode()       {}
func (t *Tuple) TokenLiteral() string  { return t.Token.Lexeme }
func (t *Tuple) GetToken() token.Token { return t.Token }
