package parser

import (
	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/config"
	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/token"
)

// Statement parsers start on the first token of the statement and leave
// curToken on the first token after it.

func (p *Parser) parseStatement() []ast.Statement {
	switch p.curToken.Type {
	case token.DEF:
		return []ast.Statement{p.parseProcedure()}
	case token.IF:
		return []ast.Statement{p.parseCond()}
	case token.INDENT:
		p.fail(diagnostics.ErrP002, p.curToken, "unexpected indent")
	case token.DEDENT:
		p.fail(diagnostics.ErrP002, p.curToken, "unexpected unindent")
	}
	return p.parseSimpleStatements()
}

// parseSimpleStatements parses small statements separated by semicolons up
// to the end of the line.
func (p *Parser) parseSimpleStatements() []ast.Statement {
	stmts := []ast.Statement{p.parseSmallStatement()}
	for p.curTokenIs(token.SEMICOLON) {
		p.nextToken()
		if p.curTokenIs(token.NEWLINE) {
			break
		}
		stmts = append(stmts, p.parseSmallStatement())
	}
	p.expectCur(token.NEWLINE)
	return stmts
}

func (p *Parser) parseSmallStatement() ast.Statement {
	if p.curTokenIs(token.RETURN) {
		ret := &ast.Return{Token: p.curToken}
		p.nextToken()
		if p.atStatementEnd() {
			ret.Value = &ast.Name{Token: ret.Token, Value: config.NoneName}
			return ret
		}
		ret.Value = p.parseExpressionList()
		p.nextToken()
		return ret
	}

	start := p.curToken
	target := p.parseExpressionList()
	if !p.peekTokenIs(token.ASSIGN) {
		p.fail(diagnostics.ErrP003, start, "expression statements are not supported")
	}
	p.nextToken()
	bind := &ast.Bind{Token: p.curToken, Binder: target}
	if !ast.IsPattern(target) {
		p.fail(diagnostics.ErrP003, start, "cannot assign to %s", target.Kind())
	}
	p.nextToken()
	bind.Value = p.parseExpressionList()
	if p.peekTokenIs(token.ASSIGN) {
		p.fail(diagnostics.ErrP003, p.peekToken, "chained assignment is not supported")
	}
	p.nextToken()
	return bind
}

func (p *Parser) atStatementEnd() bool {
	switch p.curToken.Type {
	case token.NEWLINE, token.SEMICOLON, token.EOF:
		return true
	}
	return false
}

// parseSuite parses the block after a colon: either an indented block or
// simple statements on the same line.
func (p *Parser) parseSuite() []ast.Statement {
	p.expectCur(token.COLON)
	if !p.curTokenIs(token.NEWLINE) {
		return p.parseSimpleStatements()
	}
	p.nextToken()
	p.skipNewlines()
	p.expectCur(token.INDENT)

	var stmts []ast.Statement
	for {
		p.skipNewlines()
		if p.curTokenIs(token.DEDENT) || p.curTokenIs(token.EOF) {
			break
		}
		stmts = append(stmts, p.parseStatement()...)
	}
	p.expectCur(token.DEDENT)
	return stmts
}

// def name(formals): body
func (p *Parser) parseProcedure() *ast.Procedure {
	proc := &ast.Procedure{Token: p.curToken}
	p.expectPeek(token.IDENT)
	proc.Name = p.nameFromCur()
	p.expectPeek(token.LPAREN)
	p.nextToken()
	proc.Formals = p.parseFormals(token.RPAREN)
	p.expectCur(token.RPAREN)
	proc.Body = p.parseSuite()
	return proc
}

// parseFormals reads formal parameters up to end, leaving curToken on end.
func (p *Parser) parseFormals(end token.TokenType) []ast.Expression {
	var formals []ast.Expression
	for !p.curTokenIs(end) {
		formals = append(formals, p.parseFormal())
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		if !p.curTokenIs(end) {
			p.fail(diagnostics.ErrP001, p.curToken, "expected ',' or %s in parameter list, got %s", describe(end), describeToken(p.curToken))
		}
	}
	return formals
}

// A formal is a name or a parenthesised tuple of formals.
func (p *Parser) parseFormal() ast.Expression {
	switch p.curToken.Type {
	case token.IDENT:
		name := p.nameFromCur()
		p.nextToken()
		return name
	case token.LPAREN:
		tup := &ast.Tuple{Token: p.curToken}
		p.nextToken()
		tup.Elements = p.parseFormals(token.RPAREN)
		p.nextToken()
		return tup
	}
	p.fail(diagnostics.ErrP001, p.curToken, "expected parameter, got %s", describeToken(p.curToken))
	return nil
}

// if test: body [elif test: body]* [else: body]
func (p *Parser) parseCond() *ast.Cond {
	cond := &ast.Cond{Token: p.curToken}
	p.nextToken()
	cond.Test = p.parseExpression(LOWEST)
	p.nextToken()
	cond.Body = p.parseSuite()
	p.skipNewlines()

	switch p.curToken.Type {
	case token.ELIF:
		cond.Orelse = []ast.Statement{p.parseCond()}
	case token.ELSE:
		p.nextToken()
		cond.Orelse = p.parseSuite()
	}
	return cond
}

func (p *Parser) nameFromCur() *ast.Name {
	if token.Unsupported[p.curToken.Lexeme] {
		p.fail(diagnostics.ErrP003, p.curToken, "'%s' is not supported", p.curToken.Lexeme)
	}
	return &ast.Name{Token: p.curToken, Value: p.curToken.Lexeme}
}
