// Package parser implements a recursive-descent parser over the Lexer's
// token stream, producing the ast package's statement/expression trees.
package parser

import (
	"fmt"

	"github.com/devgithub-sl/ponzlang/pkg/ast"
	"github.com/devgithub-sl/ponzlang/pkg/lexer"
)

// Diagnostic is a single parse error; parsing resynchronizes and
// continues rather than aborting, matching the lexer's posture.
type Diagnostic struct {
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[line %d] %s", d.Line, d.Message)
}

// Parser consumes a token slice and builds a statement list.
type Parser struct {
	tokens      []lexer.Token
	pos         int
	diagnostics []Diagnostic
}

// New constructs a Parser over an already-scanned token stream.
func New(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse runs the program grammar and returns the statement list plus any
// diagnostics. A statement that failed to parse is omitted from the
// result; surrounding statements still parse.
func (p *Parser) Parse() ([]ast.Statement, []Diagnostic) {
	var stmts []ast.Statement
	for !p.isAtEnd() {
		if p.match(lexer.NEWLINE) {
			continue
		}
		stmt := p.declaration()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, p.diagnostics
}

//-----------------------------------------------------------------------------
// Token stream helpers
//-----------------------------------------------------------------------------

func (p *Parser) peek() lexer.Token  { return p.tokens[p.pos] }
func (p *Parser) isAtEnd() bool      { return p.peek().Kind == lexer.EOF }
func (p *Parser) previous() lexer.Token {
	return p.tokens[p.pos-1]
}

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.pos++
	}
	return p.previous()
}

func (p *Parser) check(kind lexer.Kind) bool {
	if p.isAtEnd() {
		return kind == lexer.EOF
	}
	return p.peek().Kind == kind
}

func (p *Parser) match(kinds ...lexer.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(kind lexer.Kind, message string) (lexer.Token, bool) {
	if p.check(kind) {
		return p.advance(), true
	}
	p.errorAt(p.peek(), message)
	return lexer.Token{}, false
}

func (p *Parser) errorAt(tok lexer.Token, message string) {
	p.diagnostics = append(p.diagnostics, Diagnostic{
		Line:    tok.Line,
		Message: fmt.Sprintf("%s (got %s %q)", message, tok.Kind, tok.Lexeme),
	})
}

// synchronize discards tokens until a NEWLINE or a statement-starting
// keyword, per spec.md §4.2's error-recovery rule.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.previous().Kind == lexer.NEWLINE {
			return
		}
		switch p.peek().Kind {
		case lexer.LET, lexer.TYPE, lexer.IMPL, lexer.FUN, lexer.IF,
			lexer.WHILE, lexer.PRINT, lexer.RETURN, lexer.IMPORT, lexer.DELETE:
			return
		}
		p.advance()
	}
}

func (p *Parser) skipNewlines() {
	for p.match(lexer.NEWLINE) {
	}
}
