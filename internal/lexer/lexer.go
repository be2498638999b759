package lexer

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/iley/stackc/internal/diag"
)

type TokenType int

// Token types
const (
	LEX_EOF TokenType = iota
	LEX_INTEGER
	LEX_IDENT
	LEX_PLUS
	LEX_MINUS
	LEX_STAR
	LEX_SLASH
	LEX_LPAREN
	LEX_RPAREN
	LEX_IF
	LEX_ELSE
	LEX_LBRACE
	LEX_RBRACE
	LEX_SEMICOLON
	LEX_EQUALS
	LEX_DOUBLE_EQUALS
	LEX_LESS
	LEX_GREATER
	LEX_LESS_EQUALS
	LEX_GREATER_EQUALS
)

var tokenNames = map[TokenType]string{
	LEX_EOF:            "EOF",
	LEX_INTEGER:        "INTEGER",
	LEX_IDENT:          "IDENT",
	LEX_PLUS:           "+",
	LEX_MINUS:          "-",
	LEX_STAR:           "*",
	LEX_SLASH:          "/",
	LEX_LPAREN:         "(",
	LEX_RPAREN:         ")",
	LEX_IF:             "if",
	LEX_ELSE:           "else",
	LEX_LBRACE:         "{",
	LEX_RBRACE:         "}",
	LEX_SEMICOLON:      ";",
	LEX_EQUALS:         "=",
	LEX_DOUBLE_EQUALS:  "==",
	LEX_LESS:           "<",
	LEX_GREATER:        ">",
	LEX_LESS_EQUALS:    "<=",
	LEX_GREATER_EQUALS: ">=",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsComparison reports whether the token is one of the five relational operators.
func (t TokenType) IsComparison() bool {
	switch t {
	case LEX_DOUBLE_EQUALS, LEX_LESS, LEX_GREATER, LEX_LESS_EQUALS, LEX_GREATER_EQUALS:
		return true
	}
	return false
}

// Reserved words.
var keywords = map[string]TokenType{
	"if":   LEX_IF,
	"else": LEX_ELSE,
}

// Single-character operators and punctuation.
// '=', '<' and '>' are handled separately because they may start a two-character operator.
var singleCharTokens = map[rune]TokenType{
	'+': LEX_PLUS,
	'-': LEX_MINUS,
	'*': LEX_STAR,
	'/': LEX_SLASH,
	'(': LEX_LPAREN,
	')': LEX_RPAREN,
	'{': LEX_LBRACE,
	'}': LEX_RBRACE,
	';': LEX_SEMICOLON,
}

type Location struct {
	Line int
	Col  int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Col)
}

type Lexeme struct {
	Type TokenType
	Str  string
	// Value is only meaningful for LEX_INTEGER.
	Value int32
	Loc   Location
}

func (l Lexeme) String() string {
	switch l.Type {
	case LEX_EOF:
		return "<EOF>"
	case LEX_INTEGER, LEX_IDENT:
		return fmt.Sprintf("<%s %q>", l.Type, l.Str)
	}
	return fmt.Sprintf("<%q>", l.Str)
}

// Text returns the source text of the lexeme.
func (l Lexeme) Text() string {
	switch l.Type {
	case LEX_EOF:
		return ""
	case LEX_INTEGER, LEX_IDENT:
		return l.Str
	}
	return l.Type.String()
}

type Lexer struct {
	input     *bufio.Reader
	line      int
	col       int
	prevCol   int
	lastRune  rune
	hasUnread bool
}

func New(inputReader io.Reader) *Lexer {
	return &Lexer{
		input:   bufio.NewReader(inputReader),
		line:    1,
		col:     1,
		prevCol: 1,
	}
}

// Tokenize consumes the whole source and returns its lexemes, not including the trailing EOF.
func Tokenize(src string) ([]Lexeme, error) {
	lex := New(strings.NewReader(src))
	var result []Lexeme
	for {
		lexeme, err := lex.Next()
		if err != nil {
			return nil, err
		}
		if lexeme.Type == LEX_EOF {
			return result, nil
		}
		result = append(result, lexeme)
	}
}

// Render turns lexemes back into source text separated by single spaces.
func Render(lexemes []Lexeme) string {
	parts := make([]string, 0, len(lexemes))
	for _, l := range lexemes {
		if l.Type == LEX_EOF {
			continue
		}
		parts = append(parts, l.Text())
	}
	return strings.Join(parts, " ")
}

func (l *Lexer) readRune() (rune, error) {
	var r rune
	var err error

	if l.hasUnread {
		l.hasUnread = false
		r = l.lastRune
	} else {
		l.prevCol = l.col
		r, _, err = l.input.ReadRune()
	}

	if err != nil {
		return 0, err
	}

	l.lastRune = r
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r, nil
}

// unreadRune puts back the last read rune.
// Should be called at most once per readRune.
func (l *Lexer) unreadRune() {
	l.hasUnread = true
	if l.lastRune == '\n' {
		l.line--
	}
	l.col = l.prevCol
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func (l *Lexer) skipSpace() error {
	for {
		r, err := l.readRune()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if !isSpace(r) {
			l.unreadRune()
			return nil
		}
	}
}

// Next returns the next lexeme from the input.
// At the end of input it returns a LEX_EOF lexeme.
func (l *Lexer) Next() (Lexeme, error) {
	if err := l.skipSpace(); err != nil {
		return Lexeme{Type: LEX_EOF}, err
	}
	loc := Location{Line: l.line, Col: l.col}
	r, err := l.readRune()
	if err != nil {
		if err == io.EOF {
			return Lexeme{Type: LEX_EOF, Loc: loc}, nil
		}
		return Lexeme{Type: LEX_EOF}, err
	}

	switch {
	case isLetter(r):
		l.unreadRune()
		return l.lexIdent(loc)
	case isDigit(r):
		l.unreadRune()
		return l.lexInteger(loc)
	case r == '=':
		return l.lexWithEquals(loc, LEX_EQUALS, LEX_DOUBLE_EQUALS)
	case r == '<':
		return l.lexWithEquals(loc, LEX_LESS, LEX_LESS_EQUALS)
	case r == '>':
		return l.lexWithEquals(loc, LEX_GREATER, LEX_GREATER_EQUALS)
	}

	if tokenType, ok := singleCharTokens[r]; ok {
		return Lexeme{Type: tokenType, Str: string(r), Loc: loc}, nil
	}

	return Lexeme{Type: LEX_EOF}, diag.Errorf(diag.KindUnrecognizedCharacter, "%s: unrecognized character %q", loc, r)
}

// lexWithEquals produces either a one-character operator or its two-character form ending in '='.
func (l *Lexer) lexWithEquals(loc Location, single, double TokenType) (Lexeme, error) {
	nextR, err := l.readRune()
	if err != nil {
		if err == io.EOF {
			return Lexeme{Type: single, Str: single.String(), Loc: loc}, nil
		}
		return Lexeme{Type: LEX_EOF}, err
	}
	if nextR == '=' {
		return Lexeme{Type: double, Str: double.String(), Loc: loc}, nil
	}
	l.unreadRune()
	return Lexeme{Type: single, Str: single.String(), Loc: loc}, nil
}

// lexIdent reads an identifier or a reserved word.
func (l *Lexer) lexIdent(loc Location) (Lexeme, error) {
	var sb strings.Builder

	for {
		r, err := l.readRune()
		if err != nil {
			if err == io.EOF {
				break
			}
			return Lexeme{}, err
		}
		if !isLetter(r) && !isDigit(r) {
			l.unreadRune()
			break
		}
		sb.WriteRune(r)
	}

	ident := sb.String()
	if tokenType, ok := keywords[ident]; ok {
		return Lexeme{Type: tokenType, Str: ident, Loc: loc}, nil
	}
	return Lexeme{Type: LEX_IDENT, Str: ident, Loc: loc}, nil
}

// lexInteger reads a run of decimal digits. The value must fit into int32.
func (l *Lexer) lexInteger(loc Location) (Lexeme, error) {
	var sb strings.Builder

	for {
		r, err := l.readRune()
		if err != nil {
			if err == io.EOF {
				break
			}
			return Lexeme{}, err
		}
		if !isDigit(r) {
			l.unreadRune()
			break
		}
		sb.WriteRune(r)
	}

	num := sb.String()
	value, err := strconv.ParseInt(num, 10, 64)
	if err != nil || value > math.MaxInt32 {
		return Lexeme{Type: LEX_EOF}, diag.Errorf(diag.KindSyntax, "%s: integer literal %s does not fit into 32 bits", loc, num)
	}
	return Lexeme{Type: LEX_INTEGER, Str: num, Value: int32(value), Loc: loc}, nil
}
