package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rill-lang/rill/internal/rill/token"
)

func scanSource(t *testing.T, source string) []token.Token {
	t.Helper()
	toks, errs := ScanTokens(source)
	require.Empty(t, errs, "unexpected lex errors: %v", errs)
	return toks
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, tok := range toks {
		if tok.Kind == token.EOF || tok.Kind == token.COMMENT || tok.Kind == token.NEWLINE {
			continue
		}
		out = append(out, tok.Kind)
	}
	return out
}

func TestScanTokensNumberAndOperators(t *testing.T) {
	toks := scanSource(t, "5 + 3 * 2")
	assert.Equal(t, []token.Kind{token.NUMBER, token.PLUS, token.NUMBER, token.STAR, token.NUMBER}, kinds(toks))
}

func TestScanTokensArrowAndVariable(t *testing.T) {
	toks := scanSource(t, "5 -> $x")
	assert.Equal(t, []token.Kind{token.NUMBER, token.ARROW, token.DOLLAR}, kinds(toks))
	assert.Equal(t, "x", toks[2].Literal)
}

func TestScanTokensStringLiteral(t *testing.T) {
	toks := scanSource(t, `"hello"`)
	require.Len(t, toks, 2) // STRING + EOF
	assert.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, "hello", toks[0].Literal)
}

func TestScanTokensKeywords(t *testing.T) {
	toks := scanSource(t, "true false break return each map fold filter")
	assert.Equal(t, []token.Kind{
		token.TRUE, token.FALSE, token.BREAK, token.RETURN,
		token.EACH, token.MAP, token.FOLD, token.FILTER,
	}, kinds(toks))
}

func TestScanTokensFrontmatterDelimiter(t *testing.T) {
	toks := scanSource(t, "---\nname: x\n---\n5")
	assert.Equal(t, token.FRONTMATTER_DELIM, toks[0].Kind)
}

func TestScanTokensUnterminatedStringReportsError(t *testing.T) {
	_, errs := ScanTokens(`"unterminated`)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "unterminated string")
}

func TestScanTokensComment(t *testing.T) {
	toks := scanSource(t, "5 # a trailing comment\n+ 3")
	assert.Equal(t, []token.Kind{token.NUMBER, token.PLUS, token.NUMBER}, kinds(toks))
}

func TestScanTokensPipeValueAndAccumulator(t *testing.T) {
	toks := scanSource(t, "$ -> fold(|acc, x| $@ + x)")
	assert.Contains(t, kinds(toks), token.PIPE_VAR)
	assert.Contains(t, kinds(toks), token.ACCUM)
}
