package lexer

import (
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/token"
)

// Lexer turns source text into tokens. Indentation at the start of a logical
// line is reported with INDENT and DEDENT tokens; line breaks inside
// brackets are ignored.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number

	indents   []int
	depth     int // open brackets
	atLineBeg bool
	pending   []token.Token
	done      bool
	err       *diagnostics.DiagnosticError
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0, indents: []int{0}, atLineBeg: true}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
		l.ch = r
		l.position = l.readPosition
		l.readPosition += w
		l.column++
		return
	}

	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// Tokenize lexes the whole input. The stream always ends with NEWLINE,
// closing DEDENTs and EOF.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var toks []token.Token
	for {
		tok := l.NextToken()
		if l.err != nil {
			return nil, l.err
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) NextToken() token.Token {
	if len(l.pending) > 0 {
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return tok
	}

	if l.atLineBeg && l.depth == 0 {
		l.atLineBeg = false
		if toks := l.indentation(); len(toks) > 0 {
			l.pending = toks[1:]
			return toks[0]
		}
	}

	l.skipWhitespace()

	var tok token.Token
	switch l.ch {
	case 0:
		return l.finish()
	case '\n':
		if l.depth > 0 {
			l.readChar()
			return l.NextToken()
		}
		tok = newToken(token.NEWLINE, l.ch, l.line, l.column)
		l.atLineBeg = true
	case ';':
		tok = newToken(token.SEMICOLON, l.ch, l.line, l.column)
	case '=':
		tok = l.twoChar('=', token.EQ, token.ASSIGN)
	case '!':
		if l.peekChar() != '=' {
			tok = newToken(token.ILLEGAL, l.ch, l.line, l.column)
			break
		}
		tok = l.twoChar('=', token.NOT_EQ, token.ILLEGAL)
	case '<':
		if l.peekChar() == '<' {
			tok = l.twoChar('<', token.LSHIFT, token.LT)
		} else {
			tok = l.twoChar('=', token.LTE, token.LT)
		}
	case '>':
		if l.peekChar() == '>' {
			tok = l.twoChar('>', token.RSHIFT, token.GT)
		} else {
			tok = l.twoChar('=', token.GTE, token.GT)
		}
	case '*':
		tok = l.twoChar('*', token.POWER, token.ASTERISK)
	case '+':
		tok = newToken(token.PLUS, l.ch, l.line, l.column)
	case '-':
		tok = newToken(token.MINUS, l.ch, l.line, l.column)
	case '/':
		tok = newToken(token.SLASH, l.ch, l.line, l.column)
	case '%':
		tok = newToken(token.PERCENT, l.ch, l.line, l.column)
	case '&':
		tok = newToken(token.AMPER, l.ch, l.line, l.column)
	case '|':
		tok = newToken(token.PIPE, l.ch, l.line, l.column)
	case '^':
		tok = newToken(token.CARET, l.ch, l.line, l.column)
	case '~':
		tok = newToken(token.TILDE, l.ch, l.line, l.column)
	case ',':
		tok = newToken(token.COMMA, l.ch, l.line, l.column)
	case ':':
		tok = newToken(token.COLON, l.ch, l.line, l.column)
	case '(', '[':
		l.depth++
		tt := token.LPAREN
		if l.ch == '[' {
			tt = token.LBRACKET
		}
		tok = newToken(tt, l.ch, l.line, l.column)
	case ')', ']':
		if l.depth > 0 {
			l.depth--
		}
		tt := token.RPAREN
		if l.ch == ']' {
			tt = token.RBRACKET
		}
		tok = newToken(tt, l.ch, l.line, l.column)
	default:
		if isLetter(l.ch) {
			line, col := l.line, l.column
			ident := l.readIdentifier()
			return token.Token{Type: token.LookupIdent(ident), Lexeme: ident, Literal: ident, Line: line, Column: col}
		}
		if isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())) {
			return l.readNumber()
		}
		tok = newToken(token.ILLEGAL, l.ch, l.line, l.column)
	}

	l.readChar()
	return tok
}

func (l *Lexer) twoChar(second rune, both, single token.TokenType) token.Token {
	line, col := l.line, l.column
	if l.peekChar() == second {
		first := l.ch
		l.readChar()
		lexeme := string(first) + string(second)
		return token.Token{Type: both, Lexeme: lexeme, Literal: lexeme, Line: line, Column: col}
	}
	return newToken(single, l.ch, line, col)
}

// indentation measures the leading whitespace of a new logical line and
// returns the INDENT/DEDENT tokens it implies. Blank and comment-only lines
// produce nothing.
func (l *Lexer) indentation() []token.Token {
	for {
		width := 0
		for l.ch == ' ' || l.ch == '\t' {
			if l.ch == '\t' {
				width += 8 - width%8
			} else {
				width++
			}
			l.readChar()
		}
		if l.ch == '#' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		}
		if l.ch == '\r' {
			l.readChar()
		}
		if l.ch == '\n' {
			l.readChar()
			continue
		}
		if l.ch == 0 {
			return nil
		}

		top := l.indents[len(l.indents)-1]
		switch {
		case width > top:
			l.indents = append(l.indents, width)
			return []token.Token{{Type: token.INDENT, Line: l.line, Column: 1}}
		case width < top:
			var toks []token.Token
			for width < l.indents[len(l.indents)-1] {
				l.indents = l.indents[:len(l.indents)-1]
				toks = append(toks, token.Token{Type: token.DEDENT, Line: l.line, Column: 1})
			}
			if width != l.indents[len(l.indents)-1] {
				l.err = diagnostics.NewError(diagnostics.ErrP002, l.line, "unindent does not match any outer indentation level")
			}
			return toks
		}
		return nil
	}
}

func (l *Lexer) finish() token.Token {
	if l.done {
		return token.Token{Type: token.EOF, Line: l.line}
	}
	l.done = true
	toks := []token.Token{{Type: token.NEWLINE, Line: l.line}}
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		toks = append(toks, token.Token{Type: token.DEDENT, Line: l.line})
	}
	toks = append(toks, token.Token{Type: token.EOF, Line: l.line})
	l.pending = toks[1:]
	return toks[0]
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readNumber() token.Token {
	startLine, startCol := l.line, l.column
	position := l.position
	isFloat := false

	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || ((next == '-' || next == '+') && isDigit(l.peekChar2())) {
			isFloat = true
			l.readChar()
			if l.ch == '-' || l.ch == '+' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	lexeme := l.input[position:l.position]
	if isFloat {
		val, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: err.Error(), Line: startLine, Column: startCol}
		}
		return token.Token{Type: token.FLOAT, Lexeme: lexeme, Literal: val, Line: startLine, Column: startCol}
	}
	val, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: "integer overflow", Line: startLine, Column: startCol}
	}
	return token.Token{Type: token.INT, Lexeme: lexeme, Literal: val, Line: startLine, Column: startCol}
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || (ch >= 0x80 && unicode.IsLetter(ch))
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) peekChar2() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	_, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	pos2 := l.readPosition + w
	if pos2 >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[pos2:])
	return r
}

func newToken(tokenType token.TokenType, ch rune, line, col int) token.Token {
	literal := string(ch)
	return token.Token{Type: tokenType, Lexeme: literal, Literal: literal, Line: line, Column: col}
}

func (l *Lexer) skipWhitespace() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch == '#' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		// Explicit line continuation.
		if l.ch == '\\' && l.peekChar() == '\n' {
			l.readChar()
			l.readChar()
			continue
		}
		break
	}
}
