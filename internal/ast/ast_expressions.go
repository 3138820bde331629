package ast

import (
	"github.com/funvibe/copperhead/internal/token"
)

// Apply is a function call, e.g. f(x, y). Operators are parsed into calls
// of the corresponding op_* functions.
type Apply struct {
	Meta
	Token token.Token // The '(' token or the operator
	Fn    Expression
	Args  []Expression
}

func (a *Apply) Kind() Kind            { return KindApply }
func (a *Apply) Accept(v Visitor)      { v.VisitApply(a) }
func (a *Apply) expressionNode()       {}
func (a *Apply) TokenLiteral() string  { return a.Token.Lexeme }
func (a *Apply) GetToken() token.Token { return a.Token }

// Lambda is an anonymous function, e.g. lambda x, y: x + y
type Lambda struct {
	Meta
	Token   token.Token // The 'lambda' token
	Formals []Expression
	Body    Expression
}

func (l *Lambda) Kind() Kind            { return KindLambda }
func (l *Lambda) Accept(v Visitor)      { v.VisitLambda(l) }
func (l *Lambda) expressionNode()       {}
func (l *Lambda) TokenLiteral() string  { return l.Token.Lexeme }
func (l *Lambda) GetToken() token.Token { return l.Token }

// Closure pairs a callable with the values it captures. Calling the closure
// with args calls Body with args followed by Vars. Only closure conversion
// produces closures.
type Closure struct {
	Meta
	Token token.Token
	Vars  []Expression
	Body  Expression
}

func (c *Closure) Kind() Kind            { return KindClosure }
func (c *Closure) Accept(v Visitor)      { v.VisitClosure(c) }
func (c *Closure) expressionNode()       {}
func (c *Closure) TokenLiteral() string  { return c.Token.Lexeme }
func (c *Closure) GetToken() token.Token { return c.Token }

// If is the conditional expression: Body if Test else Orelse
type If struct {
	Meta
	Token  token.Token // The 'if' token
	Test   Expression
	Body   Expression
	Orelse Expression
}

func (i *If) Kind() Kind            { return KindIf }
func (i *If) Accept(v Visitor)      { v.VisitIf(i) }
func (i *If) expressionNode()       {}
func (i *If) TokenLiteral() string  { return i.Token.Lexeme }
func (i *If) GetToken() token.Token { return i.Token }

// Subscript represents indexing, e.g. xs[i]
type Subscript struct {
	Meta
	Token token.Token // The '[' token
	Value Expression
	Index Expression
}

func (s *Subscript) Kind() Kind            { return KindSubscript }
func (s *Subscript) Accept(v Visitor)      { v.VisitSubscript(s) }
func (s *Subscript) expressionNode()       {}
func (s *Subscript) TokenLiteral() string  { return s.Token.Lexeme }
func (s *Subscript) GetToken() token.Token { return s.Token }

// Map applies Fn elementwise over one or more sequences, e.g. map(f, xs, ys).
type Map struct {
	Meta
	Token  token.Token
	Fn     Expression
	Inputs []Expression
}

func (m *Map) Kind() Kind            { return KindMap }
func (m *Map) Accept(v Visitor)      { v.VisitMap(m) }
func (m *Map) expressionNode()       {}
func (m *Map) TokenLiteral() string  { return m.Token.Lexeme }
func (m *Map) GetToken() token.Token { return m.Token }
