// Package token defines the lexical token kinds produced by the Rill lexer
// and consumed by the parser.
package token

import "fmt"

// Kind identifies the lexical category of a token.
type Kind int

const (
	ILLEGAL Kind = iota
	EOF
	NEWLINE
	COMMENT

	// literals
	STRING
	NUMBER
	IDENT

	// sigils
	DOLLAR     // $ident
	PIPE_VAR   // lone $
	ACCUM      // $@

	// keywords
	TRUE
	FALSE
	BREAK
	RETURN
	EACH
	MAP
	FOLD
	FILTER

	FRONTMATTER_DELIM // ---

	// two-character operators
	ARROW       // ->
	CAPTURE     // => (the parser treats :> as an alias, see DESIGN.md open-question decision)
	CAPTURE_ALT // :>
	DESTRUCTURE // *<
	SLICE       // /<
	AND         // &&
	OR          // ||
	EQ          // ==
	NEQ         // !=
	LE          // <=
	GE          // >=
	COALESCE    // ??
	SAFE_DOT    // .?
	NAMESPACE   // ::

	// single-character operators
	DOT
	QUESTION
	AT
	COLON
	COMMA
	BANG
	ASSIGN
	LT
	GT
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	PIPE
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	AMP
	CARET
)

var names = map[Kind]string{
	ILLEGAL:           "ILLEGAL",
	EOF:               "EOF",
	NEWLINE:           "NEWLINE",
	COMMENT:           "COMMENT",
	STRING:            "STRING",
	NUMBER:            "NUMBER",
	IDENT:             "IDENT",
	DOLLAR:            "DOLLAR",
	PIPE_VAR:          "PIPE_VAR",
	ACCUM:             "ACCUM",
	TRUE:              "TRUE",
	FALSE:             "FALSE",
	BREAK:             "BREAK",
	RETURN:            "RETURN",
	EACH:              "EACH",
	MAP:               "MAP",
	FOLD:              "FOLD",
	FILTER:            "FILTER",
	FRONTMATTER_DELIM: "FRONTMATTER_DELIM",
	ARROW:             "ARROW",
	CAPTURE:           "CAPTURE",
	CAPTURE_ALT:       "CAPTURE_ALT",
	DESTRUCTURE:       "DESTRUCTURE",
	SLICE:             "SLICE",
	AND:               "AND",
	OR:                "OR",
	EQ:                "EQ",
	NEQ:               "NEQ",
	LE:                "LE",
	GE:                "GE",
	COALESCE:          "COALESCE",
	SAFE_DOT:          "SAFE_DOT",
	NAMESPACE:         "NAMESPACE",
	DOT:               "DOT",
	QUESTION:          "QUESTION",
	AT:                "AT",
	COLON:             "COLON",
	COMMA:             "COMMA",
	BANG:              "BANG",
	ASSIGN:            "ASSIGN",
	LT:                "LT",
	GT:                "GT",
	LPAREN:            "LPAREN",
	RPAREN:            "RPAREN",
	LBRACE:            "LBRACE",
	RBRACE:            "RBRACE",
	LBRACKET:          "LBRACKET",
	RBRACKET:          "RBRACKET",
	PIPE:              "PIPE",
	PLUS:              "PLUS",
	MINUS:             "MINUS",
	STAR:              "STAR",
	SLASH:             "SLASH",
	PERCENT:           "PERCENT",
	AMP:               "AMP",
	CARET:             "CARET",
}

func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Keywords maps recognized identifier text to its keyword token kind.
var Keywords = map[string]Kind{
	"true":   TRUE,
	"false":  FALSE,
	"break":  BREAK,
	"return": RETURN,
	"each":   EACH,
	"map":    MAP,
	"fold":   FOLD,
	"filter": FILTER,
}

// Location is a 1-based line/column position plus a 0-based byte offset.
type Location struct {
	Line   int
	Column int
	Offset int
}

// Span covers the half-open lexical extent [Start, End) of a token or node.
type Span struct {
	Start Location
	End   Location
}

// Token is a single lexical unit.
type Token struct {
	Kind    Kind
	Lexeme  string
	Literal interface{} // string/float64/bool payload for literals
	Span    Span
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.Kind, t.Lexeme, t.Span.Start.Line, t.Span.Start.Column)
}
