package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rill-lang/rill/internal/rill/ast"
)

func TestParseSimplePipeChain(t *testing.T) {
	script, err := Parse("5 -> $x")
	require.NoError(t, err)
	require.Len(t, script.Statements, 1)

	stmt, ok := script.Statements[0].(*ast.Statement)
	require.True(t, ok)
	require.NotNil(t, stmt.Chain)
	assert.Len(t, stmt.Chain.Segments, 1)
}

func TestParseCaptureTerminator(t *testing.T) {
	script, err := Parse("5 -> => $total")
	require.NoError(t, err)
	stmt := script.Statements[0].(*ast.Statement)
	assert.Equal(t, ast.CaptureTerm, stmt.Chain.Terminator)
	assert.Equal(t, "total", stmt.Chain.CaptureTarget)
}

func TestParseAccumulatorCapture(t *testing.T) {
	script, err := Parse("5 -> => $@")
	require.NoError(t, err)
	stmt := script.Statements[0].(*ast.Statement)
	assert.Equal(t, ast.CaptureTerm, stmt.Chain.Terminator)
	assert.Equal(t, "$@", stmt.Chain.CaptureTarget)
}

func TestParseFrontmatter(t *testing.T) {
	script, err := Parse("---\nname: a test\n---\n5 -> => $x")
	require.NoError(t, err)
	require.NotNil(t, script.Frontmatter)
	assert.Contains(t, script.Frontmatter.Raw, "name: a test")
}

func TestParseMultipleStatements(t *testing.T) {
	script, err := Parse("5 -> => $a\n10 -> => $b")
	require.NoError(t, err)
	assert.Len(t, script.Statements, 2)
}

func TestParseSyntaxErrorAborts(t *testing.T) {
	_, err := Parse("5 -> -> ->")
	assert.Error(t, err)
}

func TestParseWithRecoveryCollectsMultipleErrors(t *testing.T) {
	script, errs, success := ParseWithRecovery("5 -> -> \n10 -> => $ok\n-> -> ->")
	assert.False(t, success)
	assert.NotEmpty(t, errs)
	require.NotNil(t, script)

	found := false
	for _, stmt := range script.Statements {
		if s, ok := stmt.(*ast.Statement); ok && s.Chain != nil && s.Chain.CaptureTarget == "ok" {
			found = true
		}
	}
	assert.True(t, found, "expected the valid middle statement to still be present after recovery")
}

func TestParseBareDotPipeTarget(t *testing.T) {
	script, err := Parse(`"hello" -> .len() -> => $n`)
	require.NoError(t, err)
	stmt := script.Statements[0].(*ast.Statement)
	assert.Len(t, stmt.Chain.Segments, 1)
}

func TestParseAnnotation(t *testing.T) {
	script, err := Parse("^(retries: 3) 5 -> => $x")
	require.NoError(t, err)
	stmt := script.Statements[0].(*ast.Statement)
	require.Len(t, stmt.Annotations, 1)
	assert.Equal(t, "retries", stmt.Annotations[0].Name)
}
