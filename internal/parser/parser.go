package parser

import (
	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/token"
)

const (
	_ int = iota
	LOWEST
	TERNARY     // x if c else y
	OR          // or
	AND         // and
	NOT         // not x
	COMPARE     // == != < > <= >=
	BITOR       // |
	BITXOR      // ^
	BITAND      // &
	SHIFT       // << >>
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -x ~x
	POWER       // **
	CALL        // f(x) xs[i]
)

var precedences = map[token.TokenType]int{
	token.IF:       TERNARY,
	token.OR:       OR,
	token.AND:      AND,
	token.EQ:       COMPARE,
	token.NOT_EQ:   COMPARE,
	token.LT:       COMPARE,
	token.GT:       COMPARE,
	token.LTE:      COMPARE,
	token.GTE:      COMPARE,
	token.PIPE:     BITOR,
	token.CARET:    BITXOR,
	token.AMPER:    BITAND,
	token.LSHIFT:   SHIFT,
	token.RSHIFT:   SHIFT,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
	token.POWER:    POWER,
	token.LPAREN:   CALL,
	token.LBRACKET: CALL,
}

// Binary operators are lowered to calls of these library functions.
var binaryOperators = map[token.TokenType]string{
	token.PLUS:     "op_add",
	token.MINUS:    "op_sub",
	token.ASTERISK: "op_mul",
	token.SLASH:    "op_div",
	token.PERCENT:  "op_mod",
	token.POWER:    "op_pow",
	token.LT:       "op_lt",
	token.LTE:      "op_le",
	token.GT:       "op_gt",
	token.GTE:      "op_ge",
	token.EQ:       "op_eq",
	token.NOT_EQ:   "op_ne",
	token.AND:      "op_band",
	token.OR:       "op_bor",
	token.AMPER:    "op_and",
	token.PIPE:     "op_or",
	token.CARET:    "op_xor",
	token.LSHIFT:   "op_lshift",
	token.RSHIFT:   "op_rshift",
}

var unaryOperators = map[token.TokenType]string{
	token.MINUS: "op_neg",
	token.TILDE: "op_invert",
	token.NOT:   "op_not",
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	tokens []token.Token
	pos    int

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

// bailout unwinds the parser on the first error.
type bailout struct {
	err *diagnostics.DiagnosticError
}

func New(tokens []token.Token) *Parser {
	p := &Parser{tokens: tokens}

	p.prefixParseFns = map[token.TokenType]prefixParseFn{
		token.IDENT:    p.parseName,
		token.TRUE:     p.parseName,
		token.FALSE:    p.parseName,
		token.NONE:     p.parseName,
		token.INT:      p.parseNumber,
		token.FLOAT:    p.parseNumber,
		token.LPAREN:   p.parseGroupedExpression,
		token.LBRACKET: p.parseListLiteral,
		token.MINUS:    p.parsePrefixExpression,
		token.TILDE:    p.parsePrefixExpression,
		token.NOT:      p.parsePrefixExpression,
		token.LAMBDA:   p.parseLambda,
	}
	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for tt := range binaryOperators {
		p.infixParseFns[tt] = p.parseInfixExpression
	}
	p.infixParseFns[token.POWER] = p.parseRightAssocInfixExpression
	p.infixParseFns[token.IF] = p.parseTernary
	p.infixParseFns[token.LPAREN] = p.parseCallExpression
	p.infixParseFns[token.LBRACKET] = p.parseSubscript

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()
	return p
}

// ParseProgram parses the whole token stream. Parsing stops at the first
// error.
func (p *Parser) ParseProgram() (prog *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			prog, err = nil, b.err
		}
	}()

	prog = &ast.Program{}
	for {
		p.skipNewlines()
		if p.curTokenIs(token.EOF) {
			break
		}
		prog.Statements = append(prog.Statements, p.parseStatement()...)
	}
	return prog, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	if p.pos < len(p.tokens) {
		p.peekToken = p.tokens[p.pos]
		p.pos++
	} else {
		p.peekToken = token.Token{Type: token.EOF, Line: p.curToken.Line}
	}
}

func (p *Parser) curTokenIs(t token.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) skipNewlines() {
	for p.curTokenIs(token.NEWLINE) {
		p.nextToken()
	}
}

// expectPeek advances if the next token has type t and fails otherwise.
func (p *Parser) expectPeek(t token.TokenType) {
	if !p.peekTokenIs(t) {
		p.fail(diagnostics.ErrP001, p.peekToken, "expected %s, got %s", describe(t), describeToken(p.peekToken))
	}
	p.nextToken()
}

func (p *Parser) expectCur(t token.TokenType) {
	if !p.curTokenIs(t) {
		p.fail(diagnostics.ErrP001, p.curToken, "expected %s, got %s", describe(t), describeToken(p.curToken))
	}
	p.nextToken()
}

func (p *Parser) fail(code diagnostics.ErrorCode, tok token.Token, format string, args ...interface{}) {
	panic(bailout{err: diagnostics.NewError(code, tok.Line, format, args...)})
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

func describe(t token.TokenType) string {
	switch t {
	case token.NEWLINE:
		return "end of line"
	case token.INDENT:
		return "indented block"
	case token.DEDENT:
		return "end of block"
	case token.EOF:
		return "end of input"
	case token.IDENT:
		return "identifier"
	}
	return string(t)
}

func describeToken(tok token.Token) string {
	if tok.Lexeme != "" {
		return "'" + tok.Lexeme + "'"
	}
	return describe(tok.Type)
}
