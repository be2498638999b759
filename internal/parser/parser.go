package parser

import (
	"github.com/iley/stackc/internal/ast"
	"github.com/iley/stackc/internal/diag"
	"github.com/iley/stackc/internal/lexer"
)

type Parser struct {
	// lexer is nil when the parser works over a fixed slice of lexemes.
	lexer   *lexer.Lexer
	lexemes []lexer.Lexeme
	pos     int
}

// New creates a parser that pulls lexemes from lex on demand.
func New(lex *lexer.Lexer) *Parser {
	return &Parser{lexer: lex}
}

// NewFromLexemes creates a parser over an already tokenized source.
func NewFromLexemes(lexemes []lexer.Lexeme) *Parser {
	buf := make([]lexer.Lexeme, 0, len(lexemes)+1)
	buf = append(buf, lexemes...)
	if len(buf) == 0 || buf[len(buf)-1].Type != lexer.LEX_EOF {
		eof := lexer.Lexeme{Type: lexer.LEX_EOF}
		if len(buf) > 0 {
			eof.Loc = buf[len(buf)-1].Loc
		}
		buf = append(buf, eof)
	}
	return &Parser{lexemes: buf}
}

// Parse is a shortcut for NewFromLexemes(lexemes).ParseProgram().
func Parse(lexemes []lexer.Lexeme) (*ast.Program, error) {
	return NewFromLexemes(lexemes).ParseProgram()
}

func (p *Parser) fill(n int) error {
	for len(p.lexemes) <= n {
		if p.lexer == nil {
			// The slice always ends with EOF, repeat it.
			p.lexemes = append(p.lexemes, p.lexemes[len(p.lexemes)-1])
			continue
		}
		lex, err := p.lexer.Next()
		if err != nil {
			return err
		}
		p.lexemes = append(p.lexemes, lex)
	}
	return nil
}

func (p *Parser) peekAt(offset int) (lexer.Lexeme, error) {
	if err := p.fill(p.pos + offset); err != nil {
		return lexer.Lexeme{}, err
	}
	return p.lexemes[p.pos+offset], nil
}

func (p *Parser) peek() (lexer.Lexeme, error) {
	return p.peekAt(0)
}

func (p *Parser) consume() (lexer.Lexeme, error) {
	lex, err := p.peek()
	if err != nil {
		return lexer.Lexeme{}, err
	}
	p.pos++
	return lex, nil
}

func (p *Parser) expect(tokenType lexer.TokenType) (lexer.Lexeme, error) {
	lex, err := p.consume()
	if err != nil {
		return lexer.Lexeme{}, err
	}
	if lex.Type != tokenType {
		return lexer.Lexeme{}, syntaxErrorf(lex, "expected '%s', got %v", tokenType, lex)
	}
	return lex, nil
}

func syntaxErrorf(lex lexer.Lexeme, format string, args ...any) error {
	return diag.Errorf(diag.KindSyntax, "%s: "+format, append([]any{lex.Loc}, args...)...)
}

func (p *Parser) ParseProgram() (*ast.Program, error) {
	stmts, err := p.parseStatementList(lexer.LEX_EOF)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LEX_EOF); err != nil {
		return nil, err
	}
	return &ast.Program{Statements: stmts}, nil
}

// parseStatementList parses statements separated by semicolons up to (but not including) the terminator.
// A trailing semicolon before the terminator is optional. A statement ending in a closing brace
// does not need a semicolon after it.
func (p *Parser) parseStatementList(terminator lexer.TokenType) ([]ast.Node, error) {
	stmts := []ast.Node{}
	for {
		lex, err := p.peek()
		if err != nil {
			return nil, err
		}
		if lex.Type == terminator {
			return stmts, nil
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)

		lex, err = p.peek()
		if err != nil {
			return nil, err
		}
		switch {
		case lex.Type == lexer.LEX_SEMICOLON:
			p.pos++
		case lex.Type == terminator:
			return stmts, nil
		default:
			if _, isIf := stmt.(*ast.IfElse); !isIf {
				return nil, syntaxErrorf(lex, "expected ';', got %v", lex)
			}
		}
	}
}

func (p *Parser) parseStatement() (ast.Node, error) {
	lex, err := p.peek()
	if err != nil {
		return nil, err
	}

	if lex.Type == lexer.LEX_IF {
		return p.parseIfElse()
	}

	if lex.Type == lexer.LEX_IDENT {
		next, err := p.peekAt(1)
		if err != nil {
			return nil, err
		}
		if next.Type == lexer.LEX_EQUALS {
			return p.parseAssignment()
		}
	}

	return p.parseExpression()
}

func (p *Parser) parseIfElse() (*ast.IfElse, error) {
	ifLex, err := p.expect(lexer.LEX_IF)
	if err != nil {
		return nil, err
	}

	condition, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	ifBranch, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	node := &ast.IfElse{Loc: ifLex.Loc, Condition: condition, IfBranch: ifBranch}

	lex, err := p.peek()
	if err != nil {
		return nil, err
	}
	if lex.Type == lexer.LEX_ELSE {
		p.pos++
		node.ElseBranch, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}

	return node, nil
}

func (p *Parser) parseBlock() ([]ast.Node, error) {
	if _, err := p.expect(lexer.LEX_LBRACE); err != nil {
		return nil, err
	}
	stmts, err := p.parseStatementList(lexer.LEX_RBRACE)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LEX_RBRACE); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) parseAssignment() (*ast.Assignment, error) {
	ident, err := p.expect(lexer.LEX_IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LEX_EQUALS); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.Assignment{Loc: ident.Loc, Identifier: ident.Str, Value: value}, nil
}

func isExpressionOperator(t lexer.TokenType) bool {
	return t == lexer.LEX_PLUS || t == lexer.LEX_MINUS || t.IsComparison()
}

func isTermOperator(t lexer.TokenType) bool {
	return t == lexer.LEX_STAR || t == lexer.LEX_SLASH
}

// parseExpression handles additive and comparison operators, which share one precedence level.
func (p *Parser) parseExpression() (ast.Node, error) {
	return p.parseBinaryLevel(isExpressionOperator, p.parseTerm)
}

func (p *Parser) parseTerm() (ast.Node, error) {
	return p.parseBinaryLevel(isTermOperator, p.parseFactor)
}

// parseBinaryLevel parses a left-associative chain of operands separated by operators accepted by isOperator.
func (p *Parser) parseBinaryLevel(isOperator func(lexer.TokenType) bool, parseOperand func() (ast.Node, error)) (ast.Node, error) {
	left, err := parseOperand()
	if err != nil {
		return nil, err
	}

	for {
		lex, err := p.peek()
		if err != nil {
			return nil, err
		}
		if !isOperator(lex.Type) {
			return left, nil
		}
		p.pos++

		right, err := parseOperand()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Loc: lex.Loc, Left: left, Operator: lex.Type, Right: right}
	}
}

func (p *Parser) parseFactor() (ast.Node, error) {
	lex, err := p.consume()
	if err != nil {
		return nil, err
	}

	switch lex.Type {
	case lexer.LEX_INTEGER:
		return &ast.Integer{Loc: lex.Loc, Value: lex.Value}, nil
	case lexer.LEX_IDENT:
		return &ast.Identifier{Loc: lex.Loc, Name: lex.Str}, nil
	case lexer.LEX_LPAREN:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		closing, err := p.consume()
		if err != nil {
			return nil, err
		}
		if closing.Type != lexer.LEX_RPAREN {
			return nil, syntaxErrorf(closing, "unmatched '(' at %s, got %v", lex.Loc, closing)
		}
		return expr, nil
	}

	return nil, syntaxErrorf(lex, "unexpected token %v", lex)
}
