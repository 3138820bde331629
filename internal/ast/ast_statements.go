package ast

import (
	"github.com/funvibe/copperhead/internal/token"
)

// Bind assigns Value to Binder, a Name or a (nested) Tuple of Names.
type Bind struct {
	Meta
	Token  token.Token // The '=' token
	Binder Expression
	Value  Expression
}

func (b *Bind) Kind() Kind            { return KindBind }
func (b *Bind) Accept(v Visitor)      { v.VisitBind(b) }
func (b *Bind) statementNode()        {}
func (b *Bind) TokenLiteral() string  { return b.Token.Lexeme }
func (b *Bind) GetToken() token.Token { return b.Token }

type Return struct {
	Meta
	Token token.Token // The 'return' token
	Value Expression
}

func (r *Return) Kind() Kind            { return KindReturn }
func (r *Return) Accept(v Visitor)      { v.VisitReturn(r) }
func (r *Return) statementNode()        {}
func (r *Return) TokenLiteral() string  { return r.Token.Lexeme }
func (r *Return) GetToken() token.Token { return r.Token }

// Cond is the conditional statement. elif chains nest in Orelse.
type Cond struct {
	Meta
	Token  token.Token // The 'if' token
	Test   Expression
	Body   []Statement
	Orelse []Statement
}

func (c *Cond) Kind() Kind            { return KindCond }
func (c *Cond) Accept(v Visitor)      { v.VisitCond(c) }
func (c *Cond) statementNode()        {}
func (c *Cond) TokenLiteral() string  { return c.Token.Lexeme }
func (c *Cond) GetToken() token.Token { return c.Token }

// Procedure represents a function definition.
// def name(formals): body
type Procedure struct {
	Meta
	Token   token.Token // The 'def' token
	Name    *Name
	Formals []Expression
	Body    []Statement
}

func (p *Procedure) Kind() Kind            { return KindProcedure }
func (p *Procedure) Accept(v Visitor)      { v.VisitProcedure(p) }
func (p *Procedure) statementNode()        {}
func (p *Procedure) TokenLiteral() string  { return p.Token.Lexeme }
func (p *Procedure) GetToken() token.Token { return p.Token }
