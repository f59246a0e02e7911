package parser

import (
	"github.com/devgithub-sl/ponzlang/pkg/ast"
	"github.com/devgithub-sl/ponzlang/pkg/lexer"
)

// declaration parses one top-level or block-level construct. On syntax
// error it reports the diagnostic, resynchronizes, and returns nil — no
// partial tree is emitted for the failed declaration.
func (p *Parser) declaration() ast.Statement {
	start := p.pos
	stmt, ok := p.declarationOrError()
	if !ok {
		if p.pos == start {
			p.advance() // skip the offending token so recovery always makes progress
		}
		p.synchronize()
		return nil
	}
	return stmt
}

func (p *Parser) declarationOrError() (ast.Statement, bool) {
	switch {
	case p.check(lexer.LET):
		return p.letStatement()
	case p.check(lexer.TYPE):
		return p.typeStatement()
	case p.check(lexer.IMPL):
		return p.implStatement()
	case p.check(lexer.FUN):
		return p.funcStatement()
	case p.check(lexer.IMPORT):
		return p.importStatement()
	case p.check(lexer.DELETE):
		return p.deleteStatement()
	default:
		return p.statement()
	}
}

func (p *Parser) letStatement() (ast.Statement, bool) {
	line := p.peek().Line
	p.advance() // 'let'
	mutable := p.match(lexer.MUTABLE)
	name, ok := p.consume(lexer.IDENT, "expected identifier after 'let'")
	if !ok {
		return nil, false
	}
	if _, ok := p.consume(lexer.ASSIGN, "expected '=' in let binding"); !ok {
		return nil, false
	}
	init, ok := p.expression()
	if !ok {
		return nil, false
	}
	p.match(lexer.NEWLINE)
	return ast.NewLet(line, name.Lexeme, init, mutable), true
}

func (p *Parser) typeStatement() (ast.Statement, bool) {
	line := p.peek().Line
	p.advance() // 'type'
	name, ok := p.consume(lexer.IDENT, "expected type name")
	if !ok {
		return nil, false
	}
	if _, ok := p.consume(lexer.ASSIGN, "expected '=' in type declaration"); !ok {
		return nil, false
	}
	var kind ast.TypeKind
	switch {
	case p.match(lexer.STRUCT):
		kind = ast.TypeKindStruct
	case p.match(lexer.CLASS):
		kind = ast.TypeKindClass
	default:
		p.errorAt(p.peek(), "expected 'struct' or 'class'")
		return nil, false
	}
	if _, ok := p.consume(lexer.LBRACE, "expected '{' to open type body"); !ok {
		return nil, false
	}
	var fields []string
	for !p.check(lexer.RBRACE) && !p.isAtEnd() {
		if p.match(lexer.NEWLINE, lexer.COMMA, lexer.SEMICOLON, lexer.INDENT, lexer.DEDENT) {
			continue
		}
		fname, ok := p.consume(lexer.IDENT, "expected field name")
		if !ok {
			return nil, false
		}
		if _, ok := p.consume(lexer.COLON, "expected ':' after field name"); !ok {
			return nil, false
		}
		if _, ok := p.consume(lexer.IDENT, "expected field type"); !ok {
			return nil, false
		}
		fields = append(fields, fname.Lexeme)
	}
	if _, ok := p.consume(lexer.RBRACE, "expected '}' to close type body"); !ok {
		return nil, false
	}
	p.match(lexer.NEWLINE)
	return ast.NewTypeDecl(line, name.Lexeme, kind, fields), true
}

func (p *Parser) implStatement() (ast.Statement, bool) {
	line := p.peek().Line
	p.advance() // 'impl'
	typeName, ok := p.consume(lexer.IDENT, "expected type name after 'impl'")
	if !ok {
		return nil, false
	}
	if _, ok := p.consume(lexer.COLON, "expected ':' after impl target"); !ok {
		return nil, false
	}
	p.match(lexer.NEWLINE)
	if _, ok := p.consume(lexer.INDENT, "expected indented impl body"); !ok {
		return nil, false
	}
	var methods []*ast.Function
	for !p.check(lexer.DEDENT) && !p.isAtEnd() {
		if p.match(lexer.NEWLINE) {
			continue
		}
		if !p.check(lexer.FUN) {
			p.errorAt(p.peek(), "expected 'fun' inside impl body")
			return nil, false
		}
		fn, ok := p.funcStatement()
		if !ok {
			return nil, false
		}
		methods = append(methods, fn.(*ast.Function))
	}
	if _, ok := p.consume(lexer.DEDENT, "expected dedent to close impl body"); !ok {
		return nil, false
	}
	return ast.NewImpl(line, typeName.Lexeme, methods), true
}

func (p *Parser) funcStatement() (ast.Statement, bool) {
	line := p.peek().Line
	p.advance() // 'fun'
	name, ok := p.consume(lexer.IDENT, "expected function name")
	if !ok {
		return nil, false
	}
	if _, ok := p.consume(lexer.LPAREN, "expected '(' after function name"); !ok {
		return nil, false
	}
	var params []string
	for !p.check(lexer.RPAREN) {
		pname, ok := p.consume(lexer.IDENT, "expected parameter name")
		if !ok {
			return nil, false
		}
		params = append(params, pname.Lexeme)
		if !p.match(lexer.COMMA) {
			break
		}
	}
	if _, ok := p.consume(lexer.RPAREN, "expected ')' after parameters"); !ok {
		return nil, false
	}
	if _, ok := p.consume(lexer.COLON, "expected ':' after function signature"); !ok {
		return nil, false
	}
	p.match(lexer.NEWLINE)
	body, ok := p.indentedBlockStatements()
	if !ok {
		return nil, false
	}
	return ast.NewFunction(line, name.Lexeme, params, body), true
}

func (p *Parser) importStatement() (ast.Statement, bool) {
	line := p.peek().Line
	p.advance() // 'import'
	path, ok := p.consume(lexer.STRING, "expected string path after 'import'")
	if !ok {
		return nil, false
	}
	if _, ok := p.consume(lexer.AS, "expected 'as' after import path"); !ok {
		return nil, false
	}
	alias, ok := p.consume(lexer.IDENT, "expected alias after 'as'")
	if !ok {
		return nil, false
	}
	p.match(lexer.NEWLINE)
	return ast.NewImport(line, path.Literal.(string), alias.Lexeme), true
}

func (p *Parser) deleteStatement() (ast.Statement, bool) {
	line := p.peek().Line
	p.advance() // 'delete'
	name, ok := p.consume(lexer.IDENT, "expected identifier after 'delete'")
	if !ok {
		return nil, false
	}
	p.match(lexer.NEWLINE)
	return ast.NewDelete(line, name.Lexeme), true
}

// statement parses if/while/print/return/indented-block/expr-statement.
func (p *Parser) statement() (ast.Statement, bool) {
	switch {
	case p.check(lexer.IF):
		return p.ifStatement()
	case p.check(lexer.WHILE):
		return p.whileStatement()
	case p.check(lexer.PRINT):
		return p.printStatement()
	case p.check(lexer.RETURN):
		return p.returnStatement()
	case p.check(lexer.INDENT):
		return p.blockStatement()
	default:
		return p.exprStatement()
	}
}

func (p *Parser) blockStatement() (ast.Statement, bool) {
	line := p.peek().Line
	stmts, ok := p.indentedBlockStatements()
	if !ok {
		return nil, false
	}
	return ast.NewBlock(line, stmts), true
}

// indentedBlockStatements consumes INDENT ... DEDENT and returns the
// statements in between. Assumes the preceding NEWLINE was consumed.
func (p *Parser) indentedBlockStatements() ([]ast.Statement, bool) {
	if _, ok := p.consume(lexer.INDENT, "expected indented block"); !ok {
		return nil, false
	}
	var stmts []ast.Statement
	for !p.check(lexer.DEDENT) && !p.isAtEnd() {
		if p.match(lexer.NEWLINE) {
			continue
		}
		stmt := p.declaration()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	if _, ok := p.consume(lexer.DEDENT, "expected dedent to close block"); !ok {
		return nil, false
	}
	return stmts, true
}

func (p *Parser) ifStatement() (ast.Statement, bool) {
	line := p.peek().Line
	p.advance() // 'if'
	cond, ok := p.expression()
	if !ok {
		return nil, false
	}
	if _, ok := p.consume(lexer.COLON, "expected ':' after if condition"); !ok {
		return nil, false
	}
	p.match(lexer.NEWLINE)
	then, ok := p.statement()
	if !ok {
		return nil, false
	}
	save := p.pos
	p.skipNewlines()
	if p.match(lexer.ELSE) {
		if _, ok := p.consume(lexer.COLON, "expected ':' after else"); !ok {
			return nil, false
		}
		p.match(lexer.NEWLINE)
		els, ok := p.statement()
		if !ok {
			return nil, false
		}
		return ast.NewIf(line, cond, then, els), true
	}
	p.pos = save
	return ast.NewIf(line, cond, then, nil), true
}

func (p *Parser) whileStatement() (ast.Statement, bool) {
	line := p.peek().Line
	p.advance() // 'while'
	cond, ok := p.expression()
	if !ok {
		return nil, false
	}
	if _, ok := p.consume(lexer.COLON, "expected ':' after while condition"); !ok {
		return nil, false
	}
	p.match(lexer.NEWLINE)
	body, ok := p.statement()
	if !ok {
		return nil, false
	}
	return ast.NewWhile(line, cond, body), true
}

func (p *Parser) printStatement() (ast.Statement, bool) {
	line := p.peek().Line
	p.advance() // 'print'
	value, ok := p.expression()
	if !ok {
		return nil, false
	}
	p.match(lexer.NEWLINE)
	return ast.NewPrint(line, value), true
}

func (p *Parser) returnStatement() (ast.Statement, bool) {
	line := p.peek().Line
	p.advance() // 'return'
	if p.check(lexer.NEWLINE) || p.check(lexer.DEDENT) || p.isAtEnd() {
		p.match(lexer.NEWLINE)
		return ast.NewReturn(line, nil), true
	}
	value, ok := p.expression()
	if !ok {
		return nil, false
	}
	p.match(lexer.NEWLINE)
	return ast.NewReturn(line, value), true
}

func (p *Parser) exprStatement() (ast.Statement, bool) {
	line := p.peek().Line
	expr, ok := p.expression()
	if !ok {
		return nil, false
	}
	p.match(lexer.NEWLINE)
	return ast.NewExprStmt(line, expr), true
}
