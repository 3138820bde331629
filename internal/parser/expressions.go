package parser

import (
	"strings"

	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/config"
	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/token"
)

// Expression parsers start on the first token of the expression and leave
// curToken on its last token.

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.fail(diagnostics.ErrP001, p.curToken, "unexpected %s", describeToken(p.curToken))
	}
	leftExp := prefix()

	for !p.peekTokenIs(token.NEWLINE) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
	}
	return leftExp
}

// parseExpressionList parses a comma separated list; more than one element,
// or a trailing comma, makes a tuple.
func (p *Parser) parseExpressionList() ast.Expression {
	start := p.curToken
	first := p.parseExpression(LOWEST)
	if !p.peekTokenIs(token.COMMA) {
		return first
	}
	tup := &ast.Tuple{Token: start, Elements: []ast.Expression{first}}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekEndsList() {
			break
		}
		p.nextToken()
		tup.Elements = append(tup.Elements, p.parseExpression(LOWEST))
	}
	return tup
}

func (p *Parser) peekEndsList() bool {
	switch p.peekToken.Type {
	case token.NEWLINE, token.SEMICOLON, token.ASSIGN, token.RPAREN, token.RBRACKET, token.EOF:
		return true
	}
	return false
}

func (p *Parser) parseName() ast.Expression {
	return p.nameFromCur()
}

func (p *Parser) parseNumber() ast.Expression {
	return &ast.Number{Token: p.curToken, Value: p.curToken.Lexeme, IsFloat: p.curTokenIs(token.FLOAT)}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	tok := p.curToken
	precedence := PREFIX
	if tok.Type == token.NOT {
		precedence = NOT
	}
	p.nextToken()
	operand := p.parseExpression(precedence)

	// Negative literals stay literals.
	if num, ok := operand.(*ast.Number); ok && tok.Type == token.MINUS && !strings.HasPrefix(num.Value, "-") {
		num.Value = "-" + num.Value
		num.Token = tok
		return num
	}
	return operatorCall(tok, unaryOperators[tok.Type], operand)
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	tok := p.curToken
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	return operatorCall(tok, binaryOperators[tok.Type], left, right)
}

// parseRightAssocInfixExpression parses right-associative operators like **
func (p *Parser) parseRightAssocInfixExpression(left ast.Expression) ast.Expression {
	tok := p.curToken
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence - 1)
	return operatorCall(tok, binaryOperators[tok.Type], left, right)
}

func operatorCall(tok token.Token, fn string, args ...ast.Expression) ast.Expression {
	return &ast.Apply{
		Token: tok,
		Fn:    &ast.Name{Token: tok, Value: fn},
		Args:  args,
	}
}

// body if test else orelse
func (p *Parser) parseTernary(body ast.Expression) ast.Expression {
	expr := &ast.If{Token: p.curToken, Body: body}
	p.nextToken()
	expr.Test = p.parseExpression(TERNARY)
	p.expectPeek(token.ELSE)
	p.nextToken()
	expr.Orelse = p.parseExpression(LOWEST)
	return expr
}

// lambda formals: body
func (p *Parser) parseLambda() ast.Expression {
	lam := &ast.Lambda{Token: p.curToken}
	p.nextToken()
	lam.Formals = p.parseFormals(token.COLON)
	p.nextToken()
	lam.Body = p.parseExpression(LOWEST)
	return lam
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	start := p.curToken
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return &ast.Tuple{Token: start}
	}
	p.nextToken()
	exp := p.parseExpressionList()
	p.expectPeek(token.RPAREN)
	if tup, ok := exp.(*ast.Tuple); ok {
		tup.Token = start
	}
	return exp
}

func (p *Parser) parseListLiteral() ast.Expression {
	p.fail(diagnostics.ErrP003, p.curToken, "list literals are not supported")
	return nil
}

func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	tok := p.curToken
	args := p.parseCallArguments()
	if name, ok := function.(*ast.Name); ok && name.Value == config.MapFuncName {
		if len(args) < 2 {
			p.fail(diagnostics.ErrP003, tok, "map requires a function and at least one sequence")
		}
		return &ast.Map{Token: name.Token, Fn: args[0], Inputs: args[1:]}
	}
	return &ast.Apply{Token: tok, Fn: function, Args: args}
}

// parseCallArguments reads arguments up to the closing parenthesis, leaving
// curToken on it.
func (p *Parser) parseCallArguments() []ast.Expression {
	var args []ast.Expression
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return args
	}
	p.nextToken()
	args = append(args, p.parseExpression(LOWEST))
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekTokenIs(token.RPAREN) {
			break
		}
		p.nextToken()
		args = append(args, p.parseExpression(LOWEST))
	}
	p.expectPeek(token.RPAREN)
	return args
}

func (p *Parser) parseSubscript(value ast.Expression) ast.Expression {
	sub := &ast.Subscript{Token: p.curToken, Value: value}
	p.nextToken()
	sub.Index = p.parseExpression(LOWEST)
	p.expectPeek(token.RBRACKET)
	return sub
}
