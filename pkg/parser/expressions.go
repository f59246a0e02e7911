package parser

import (
	"github.com/devgithub-sl/ponzlang/pkg/ast"
	"github.com/devgithub-sl/ponzlang/pkg/lexer"
)

// expression is the entry point of the precedence chain.
func (p *Parser) expression() (ast.Expression, bool) {
	return p.assignment()
}

// assignment parses the right-associative assignment operator and rewrites
// the left-hand side into the appropriate target node. Only Variable, Get,
// and Dereference are legal assignment targets.
func (p *Parser) assignment() (ast.Expression, bool) {
	left, ok := p.equality()
	if !ok {
		return nil, false
	}
	if !p.match(lexer.ASSIGN) {
		return left, true
	}
	line := p.previous().Line
	value, ok := p.assignment()
	if !ok {
		return nil, false
	}
	switch target := left.(type) {
	case *ast.Variable:
		return ast.NewAssign(line, target.Name, value), true
	case *ast.Get:
		return ast.NewSet(line, target.Object, target.Name, value), true
	case *ast.Dereference:
		return ast.NewPointerSet(line, target.Target, value), true
	default:
		p.errorAt(p.previous(), "invalid assignment target")
		return nil, false
	}
}

func (p *Parser) equality() (ast.Expression, bool) {
	left, ok := p.comparison()
	if !ok {
		return nil, false
	}
	for p.match(lexer.EQ, lexer.NEQ) {
		op := p.previous()
		right, ok := p.comparison()
		if !ok {
			return nil, false
		}
		left = ast.NewBinary(op.Line, op.Lexeme, left, right)
	}
	return left, true
}

func (p *Parser) comparison() (ast.Expression, bool) {
	left, ok := p.term()
	if !ok {
		return nil, false
	}
	for p.match(lexer.GT, lexer.GE, lexer.LT, lexer.LE) {
		op := p.previous()
		right, ok := p.term()
		if !ok {
			return nil, false
		}
		left = ast.NewBinary(op.Line, op.Lexeme, left, right)
	}
	return left, true
}

func (p *Parser) term() (ast.Expression, bool) {
	left, ok := p.factor()
	if !ok {
		return nil, false
	}
	for p.match(lexer.PLUS, lexer.MINUS) {
		op := p.previous()
		right, ok := p.factor()
		if !ok {
			return nil, false
		}
		left = ast.NewBinary(op.Line, op.Lexeme, left, right)
	}
	return left, true
}

func (p *Parser) factor() (ast.Expression, bool) {
	left, ok := p.unary()
	if !ok {
		return nil, false
	}
	for p.match(lexer.STAR, lexer.SLASH) {
		op := p.previous()
		right, ok := p.unary()
		if !ok {
			return nil, false
		}
		left = ast.NewBinary(op.Line, op.Lexeme, left, right)
	}
	return left, true
}

// unary handles "!", "-", and address-of "*IDENT". A bare "*" followed by
// anything other than an identifier is not AddressOf — it's a syntax error
// at this level, since dereference is spelled postfix (".*") instead.
func (p *Parser) unary() (ast.Expression, bool) {
	if p.match(lexer.BANG, lexer.MINUS) {
		op := p.previous()
		right, ok := p.unary()
		if !ok {
			return nil, false
		}
		return ast.NewUnary(op.Line, op.Lexeme, right), true
	}
	if p.check(lexer.STAR) {
		line := p.peek().Line
		if p.peekAt(1).Kind == lexer.IDENT {
			p.advance() // '*'
			name := p.advance()
			return ast.NewAddressOf(line, name.Lexeme), true
		}
		p.errorAt(p.peek(), "'*' must be followed by a bare identifier")
		return nil, false
	}
	return p.call()
}

// peekAt looks n tokens ahead of the current position without consuming.
func (p *Parser) peekAt(n int) lexer.Token {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) call() (ast.Expression, bool) {
	expr, ok := p.primary()
	if !ok {
		return nil, false
	}
	for {
		switch {
		case p.match(lexer.LPAREN):
			line := p.previous().Line
			args, ok := p.argumentList()
			if !ok {
				return nil, false
			}
			if _, ok := p.consume(lexer.RPAREN, "expected ')' after arguments"); !ok {
				return nil, false
			}
			expr = ast.NewCall(line, expr, args)
		case p.match(lexer.DOT):
			line := p.previous().Line
			if p.match(lexer.STAR) {
				expr = ast.NewDereference(line, expr)
				continue
			}
			name, ok := p.consume(lexer.IDENT, "expected field/method name after '.'")
			if !ok {
				return nil, false
			}
			expr = ast.NewGet(line, expr, name.Lexeme)
		default:
			return expr, true
		}
	}
}

func (p *Parser) argumentList() ([]ast.Expression, bool) {
	var args []ast.Expression
	if p.check(lexer.RPAREN) {
		return args, true
	}
	for {
		arg, ok := p.expression()
		if !ok {
			return nil, false
		}
		args = append(args, arg)
		if !p.match(lexer.COMMA) {
			break
		}
	}
	return args, true
}

func (p *Parser) primary() (ast.Expression, bool) {
	tok := p.peek()
	switch {
	case p.match(lexer.THIS):
		return ast.NewThis(tok.Line), true
	case p.match(lexer.NEW):
		return p.newExpression(tok.Line)
	case p.match(lexer.NUMBER):
		return ast.NewIntLiteral(tok.Line, tok.Literal.(int32)), true
	case p.match(lexer.STRING):
		return ast.NewStringLiteral(tok.Line, tok.Literal.(string)), true
	case p.match(lexer.ATOM):
		return ast.NewAtom(tok.Line, tok.Literal.(string)), true
	case p.match(lexer.IDENT):
		return ast.NewVariable(tok.Line, tok.Lexeme), true
	case p.match(lexer.LPAREN):
		inner, ok := p.expression()
		if !ok {
			return nil, false
		}
		if _, ok := p.consume(lexer.RPAREN, "expected ')' after expression"); !ok {
			return nil, false
		}
		return ast.NewGrouping(tok.Line, inner), true
	case p.check(lexer.LBRACKET):
		return p.listOrLambda()
	case p.check(lexer.MAP_START):
		return p.mapLiteral()
	case p.check(lexer.LBRACE):
		return p.tupleLiteral()
	default:
		p.errorAt(tok, "expected expression")
		return nil, false
	}
}

func (p *Parser) newExpression(line int) (ast.Expression, bool) {
	name, ok := p.consume(lexer.IDENT, "expected type name after 'new'")
	if !ok {
		return nil, false
	}
	if _, ok := p.consume(lexer.LPAREN, "expected '(' after type name"); !ok {
		return nil, false
	}
	args, ok := p.argumentList()
	if !ok {
		return nil, false
	}
	if _, ok := p.consume(lexer.RPAREN, "expected ')' after constructor arguments"); !ok {
		return nil, false
	}
	return ast.NewNewExpr(line, name.Lexeme, args), true
}

// listOrLambda resolves the "[" ambiguity: a lambda head is a sequence of
// (optional '*')IDENT entries, comma-separated, immediately followed by
// "] (" — anything else at this position is a list literal.
func (p *Parser) listOrLambda() (ast.Expression, bool) {
	line := p.peek().Line
	if p.looksLikeLambdaHead() {
		return p.lambda(line)
	}
	return p.listLiteral(line)
}

func (p *Parser) looksLikeLambdaHead() bool {
	save := p.pos
	defer func() { p.pos = save }()

	if !p.match(lexer.LBRACKET) {
		return false
	}
	for !p.check(lexer.RBRACKET) {
		p.match(lexer.STAR)
		if !p.match(lexer.IDENT) {
			return false
		}
		if !p.match(lexer.COMMA) {
			break
		}
	}
	if !p.match(lexer.RBRACKET) {
		return false
	}
	return p.check(lexer.LPAREN)
}

func (p *Parser) lambda(line int) (ast.Expression, bool) {
	p.advance() // '['
	var captures []ast.Capture
	for !p.check(lexer.RBRACKET) {
		byAddr := p.match(lexer.STAR)
		name, ok := p.consume(lexer.IDENT, "expected capture name")
		if !ok {
			return nil, false
		}
		captures = append(captures, ast.Capture{Name: name.Lexeme, ByAddress: byAddr})
		if !p.match(lexer.COMMA) {
			break
		}
	}
	if _, ok := p.consume(lexer.RBRACKET, "expected ']' after capture list"); !ok {
		return nil, false
	}
	if _, ok := p.consume(lexer.LPAREN, "expected '(' after lambda captures"); !ok {
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
	if _, ok := p.consume(lexer.RPAREN, "expected ')' after lambda parameters"); !ok {
		return nil, false
	}
	if _, ok := p.consume(lexer.COLON, "expected ':' after lambda signature"); !ok {
		return nil, false
	}
	p.match(lexer.NEWLINE)
	body, ok := p.indentedBlockStatements()
	if !ok {
		return nil, false
	}
	return ast.NewLambda(line, captures, params, body), true
}

func (p *Parser) listLiteral(line int) (ast.Expression, bool) {
	p.advance() // '['
	var elems []ast.Expression
	for !p.check(lexer.RBRACKET) {
		elem, ok := p.expression()
		if !ok {
			return nil, false
		}
		elems = append(elems, elem)
		if !p.match(lexer.COMMA) {
			break
		}
	}
	if _, ok := p.consume(lexer.RBRACKET, "expected ']' to close list literal"); !ok {
		return nil, false
	}
	return ast.NewListLit(line, elems), true
}

func (p *Parser) mapLiteral() (ast.Expression, bool) {
	line := p.peek().Line
	p.advance() // '#{'
	var keys, values []ast.Expression
	for !p.check(lexer.RBRACE) {
		key, ok := p.expression()
		if !ok {
			return nil, false
		}
		if _, ok := p.consume(lexer.ARROW, "expected '=>' in map entry"); !ok {
			return nil, false
		}
		val, ok := p.expression()
		if !ok {
			return nil, false
		}
		keys = append(keys, key)
		values = append(values, val)
		if !p.match(lexer.COMMA) {
			break
		}
	}
	if _, ok := p.consume(lexer.RBRACE, "expected '}' to close map literal"); !ok {
		return nil, false
	}
	return ast.NewMapLit(line, keys, values), true
}

func (p *Parser) tupleLiteral() (ast.Expression, bool) {
	line := p.peek().Line
	p.advance() // '{'
	var elems []ast.Expression
	for !p.check(lexer.RBRACE) {
		elem, ok := p.expression()
		if !ok {
			return nil, false
		}
		elems = append(elems, elem)
		if !p.match(lexer.COMMA) {
			break
		}
	}
	if _, ok := p.consume(lexer.RBRACE, "expected '}' to close tuple literal"); !ok {
		return nil, false
	}
	return ast.NewTuple(line, elems), true
}
