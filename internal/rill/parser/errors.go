package parser

import (
	"fmt"

	"github.com/rill-lang/rill/internal/rill/token"
)

// ParseError is a single syntax error encountered while parsing, with its
// location and the token the parser was looking at.
type ParseError struct {
	Message string
	Loc     token.Location
	Tok     token.Token
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s (near %q)",
		e.Loc.Line, e.Loc.Column, e.Message, e.Tok.Lexeme)
}

func newParseError(msg string, tok token.Token) *ParseError {
	return &ParseError{Message: msg, Loc: tok.Span.Start, Tok: tok}
}

// RecoveryStrategy selects how the parser resynchronizes after an error.
// Only PanicMode is implemented; the others are named for parity with the
// taxonomy in §4.2.4 of the specification.
type RecoveryStrategy int

const (
	PanicMode RecoveryStrategy = iota
	PhraseLevel
	ErrorProduction
)
