package token

import "fmt"

type TokenType string

type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{}
	Line    int
	Column  int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q) at %d:%d", t.Type, t.Lexeme, t.Line, t.Column)
}

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	// Layout
	NEWLINE TokenType = "NEWLINE"
	INDENT  TokenType = "INDENT"
	DEDENT  TokenType = "DEDENT"

	// Identifiers + literals
	IDENT TokenType = "IDENT"
	INT   TokenType = "INT"
	FLOAT TokenType = "FLOAT"

	// Operators
	ASSIGN   TokenType = "="
	PLUS     TokenType = "+"
	MINUS    TokenType = "-"
	ASTERISK TokenType = "*"
	SLASH    TokenType = "/"
	PERCENT  TokenType = "%"
	POWER    TokenType = "**"
	LT       TokenType = "<"
	GT       TokenType = ">"
	LTE      TokenType = "<="
	GTE      TokenType = ">="
	EQ       TokenType = "=="
	NOT_EQ   TokenType = "!="
	AMPER    TokenType = "&"
	PIPE     TokenType = "|"
	CARET    TokenType = "^"
	TILDE    TokenType = "~"
	LSHIFT   TokenType = "<<"
	RSHIFT   TokenType = ">>"

	// Delimiters
	COMMA     TokenType = ","
	COLON     TokenType = ":"
	SEMICOLON TokenType = ";"
	LPAREN    TokenType = "("
	RPAREN    TokenType = ")"
	LBRACKET  TokenType = "["
	RBRACKET  TokenType = "]"

	// Keywords
	DEF    TokenType = "DEF"
	RETURN TokenType = "RETURN"
	IF     TokenType = "IF"
	ELIF   TokenType = "ELIF"
	ELSE   TokenType = "ELSE"
	LAMBDA TokenType = "LAMBDA"
	AND    TokenType = "AND"
	OR     TokenType = "OR"
	NOT    TokenType = "NOT"
	TRUE   TokenType = "TRUE"
	FALSE  TokenType = "FALSE"
	NONE   TokenType = "NONE"
)

var keywords = map[string]TokenType{
	"def":    DEF,
	"return": RETURN,
	"if":     IF,
	"elif":   ELIF,
	"else":   ELSE,
	"lambda": LAMBDA,
	"and":    AND,
	"or":     OR,
	"not":    NOT,
	"True":   TRUE,
	"False":  FALSE,
	"None":   NONE,
}

// LookupIdent checks the keywords table to see whether the given identifier is in fact a keyword.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Unsupported lists Python keywords outside the accepted subset.
var Unsupported = map[string]bool{
	"for": true, "while": true, "class": true, "import": true, "from": true,
	"global": true, "nonlocal": true, "try": true, "except": true, "with": true,
	"yield": true, "del": true, "assert": true, "raise": true, "break": true, "pass": true,
	"continue": true, "is": true, "in": true, "async": true, "await": true,
}
