// Package parser implements the Rill recursive-descent parser, transforming
// a token stream into an AST, with an optional error-recovery mode.
package parser

import (
	"fmt"
	"strings"

	"github.com/rill-lang/rill/internal/rill/ast"
	"github.com/rill-lang/rill/internal/rill/lexer"
	"github.com/rill-lang/rill/internal/rill/token"
)

// Parser holds parsing state over a fixed token buffer.
type Parser struct {
	tokens   []token.Token
	current  int
	recovery bool
	errors   []*ParseError
}

// New creates a Parser over an already-scanned token stream.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: filterTrivia(tokens)}
}

// filterTrivia drops COMMENT tokens; NEWLINE is kept (it is statement
// syntax) but runs of them are collapsed by the caller where convenient.
func filterTrivia(toks []token.Token) []token.Token {
	out := make([]token.Token, 0, len(toks))
	for _, t := range toks {
		if t.Kind == token.COMMENT {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Parse scans and parses source in strict mode: the first syntax error
// aborts parsing and is returned.
func Parse(source string) (*ast.Script, error) {
	toks, lexErrs := lexer.ScanTokens(source)
	if len(lexErrs) > 0 {
		return nil, &lexErrs[0]
	}
	p := New(toks)
	script := p.parseScript()
	if len(p.errors) > 0 {
		return script, p.errors[0]
	}
	return script, nil
}

// ParseWithRecovery scans and parses source in error-recovery mode: syntax
// errors are collected and the parser resynchronizes to the next statement,
// returning a best-effort AST alongside every error encountered.
func ParseWithRecovery(source string) (script *ast.Script, errs []*ParseError, success bool) {
	toks, lexErrs := lexer.ScanTokens(source)
	p := New(toks)
	p.recovery = true
	script = p.parseScript()
	for _, le := range lexErrs {
		p.errors = append(p.errors, &ParseError{Message: le.Message, Loc: le.Loc})
	}
	return script, p.errors, len(p.errors) == 0
}

// --- navigation helpers ---

func (p *Parser) peek() token.Token  { return p.tokens[p.current] }
func (p *Parser) previous() token.Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}
func (p *Parser) isAtEnd() bool { return p.peek().Kind == token.EOF }

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(k token.Kind) bool {
	if p.isAtEnd() && k != token.EOF {
		return false
	}
	return p.peek().Kind == k
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(k token.Kind, msg string) (token.Token, error) {
	if p.check(k) {
		return p.advance(), nil
	}
	return p.peek(), p.errorAt(p.peek(), msg)
}

func (p *Parser) errorAt(tok token.Token, msg string) error {
	msg = p.hint(tok, msg)
	pe := newParseError(msg, tok)
	p.errors = append(p.errors, pe)
	return pe
}

// hint adds contextual suggestions for common mistakes (§4.2.3).
func (p *Parser) hint(tok token.Token, msg string) string {
	typos := map[string]string{
		"tru": "true", "fals": "false", "retrn": "return",
		"retunr": "return", "brek": "break", "brak": "break",
	}
	if tok.Kind == token.IDENT {
		if suggestion, ok := typos[tok.Lexeme]; ok {
			return fmt.Sprintf("%s (did you mean %q?)", msg, suggestion)
		}
	}
	if tok.Kind == token.ASSIGN {
		return fmt.Sprintf("%s (use '->' to pipe, not '=')", msg)
	}
	if tok.Kind == token.EOF {
		return fmt.Sprintf("%s (unexpected end of input — check for an unclosed bracket, brace, or paren)", msg)
	}
	return msg
}

// skipNewlines consumes any run of NEWLINE tokens.
func (p *Parser) skipNewlines() {
	for p.check(token.NEWLINE) {
		p.advance()
	}
}

// synchronize implements panic-mode recovery: skip to the next plausible
// statement boundary (past a NEWLINE at top level, or at an unmatched
// closing bracket, left for the enclosing construct), per §4.2.4.
func (p *Parser) synchronize() {
	depth := 0
	for !p.isAtEnd() {
		switch p.peek().Kind {
		case token.LPAREN, token.LBRACE, token.LBRACKET:
			depth++
		case token.RPAREN, token.RBRACE, token.RBRACKET:
			if depth == 0 {
				return
			}
			depth--
		case token.NEWLINE:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

// --- top level ---

func (p *Parser) parseScript() *ast.Script {
	start := p.peek().Span.Start
	script := &ast.Script{}

	p.skipNewlines()
	if p.check(token.FRONTMATTER_DELIM) {
		script.Frontmatter = p.parseFrontmatter()
		p.skipNewlines()
	}

	for !p.isAtEnd() {
		p.skipNewlines()
		if p.isAtEnd() {
			break
		}
		stmt := p.parseStatementRecoverable()
		if stmt != nil {
			script.Statements = append(script.Statements, stmt)
		}
		p.skipNewlines()
	}

	end := p.previous().Span.End
	script.Sp = token.Span{Start: start, End: end}
	return script
}

func (p *Parser) parseFrontmatter() *ast.Frontmatter {
	start := p.advance() // consume opening ---
	var sb strings.Builder
	prevEnd := -1
	for !p.check(token.FRONTMATTER_DELIM) && !p.isAtEnd() {
		t := p.advance()
		if t.Kind == token.NEWLINE {
			sb.WriteByte('\n')
		} else {
			if prevEnd >= 0 && t.Span.Start.Offset > prevEnd {
				sb.WriteByte(' ')
			}
			sb.WriteString(t.Lexeme)
		}
		prevEnd = t.Span.End.Offset
	}
	end := start
	if p.check(token.FRONTMATTER_DELIM) {
		end = p.advance()
	} else {
		p.errorAt(p.peek(), "unclosed frontmatter block (expected closing '---')")
	}
	return &ast.Frontmatter{Base: ast.Base{Sp: token.Span{Start: start.Span.Start, End: end.Span.End}}, Raw: strings.TrimSpace(sb.String())}
}

func (p *Parser) parseStatementRecoverable() ast.Stmt {
	startTok := p.peek()
	if !p.recovery {
		return p.parseStatement()
	}
	errBefore := len(p.errors)
	stmt := func() (s ast.Stmt) {
		defer func() {
			if r := recover(); r != nil {
				s = nil
			}
		}()
		return p.parseStatement()
	}()
	if len(p.errors) > errBefore || stmt == nil {
		msg := "could not parse statement"
		if len(p.errors) > errBefore {
			msg = p.errors[len(p.errors)-1].Message
		}
		p.synchronize()
		endTok := p.previous()
		return &ast.RecoveryError{
			Base:    ast.Base{Sp: token.Span{Start: startTok.Span.Start, End: endTok.Span.End}},
			Message: msg,
		}
	}
	return stmt
}

func (p *Parser) parseStatement() ast.Stmt {
	start := p.peek().Span.Start
	var anns []ast.Annotation
	if p.check(token.CARET) {
		anns = p.parseAnnotations()
	}
	chain := p.parsePipeChain()
	end := p.previous().Span.End
	return &ast.Statement{
		Base:        ast.Base{Sp: token.Span{Start: start, End: end}},
		Annotations: anns,
		Chain:       chain,
	}
}

func (p *Parser) parseAnnotations() []ast.Annotation {
	p.advance() // '^'
	if _, err := p.consume(token.LPAREN, "expected '(' after annotation '^'"); err != nil {
		return nil
	}
	var anns []ast.Annotation
	if !p.check(token.RPAREN) {
		for {
			start := p.peek().Span.Start
			if p.match(token.STAR) {
				val := p.parseExpr()
				anns = append(anns, ast.Annotation{
					Base:   ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}},
					Spread: val,
				})
			} else {
				nameTok, err := p.consume(token.IDENT, "expected annotation name")
				if err != nil {
					break
				}
				if _, err := p.consume(token.COLON, "expected ':' after annotation name"); err != nil {
					break
				}
				val := p.parseExpr()
				anns = append(anns, ast.Annotation{
					Base:  ast.Base{Sp: token.Span{Start: start, End: p.previous().Span.End}},
					Name:  nameTok.Lexeme,
					Value: val,
				})
			}
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "expected ')' to close annotation")
	return anns
}

// parsePipeChain parses `Head ('->' PipeTarget)* Terminator?`.
func (p *Parser) parsePipeChain() *ast.PipeChain {
	start := p.peek().Span.Start
	head := p.parseExpr()
	chain := &ast.PipeChain{Head: head}
	for p.match(token.ARROW) {
		// An arrow directly before a capture (`-> => $name`) adds no segment.
		if p.check(token.CAPTURE) || p.check(token.CAPTURE_ALT) {
			break
		}
		seg := p.parseExpr()
		chain.Segments = append(chain.Segments, seg)
	}
	switch {
	case p.match(token.CAPTURE, token.CAPTURE_ALT):
		switch {
		case p.match(token.ACCUM):
			chain.Terminator = ast.CaptureTerm
			chain.CaptureTarget = "$@"
		case p.check(token.DOLLAR):
			p.advance()
			chain.Terminator = ast.CaptureTerm
			chain.CaptureTarget = fmt.Sprint(p.previous().Literal)
		default:
			p.errorAt(p.peek(), "expected '$name' or '$@' after capture arrow")
		}
	case p.match(token.BREAK):
		chain.Terminator = ast.BreakTerm
	case p.match(token.RETURN):
		chain.Terminator = ast.ReturnTerm
	}
	chain.Sp = token.Span{Start: start, End: p.previous().Span.End}
	return chain
}
