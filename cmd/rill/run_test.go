package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rill-lang/rill/internal/rill/ast"
)

func TestParseFrontmatterVars(t *testing.T) {
	raw := "name: the user's name\nage: how old = 30\n# a comment\n\ncity: where they live"
	decls := parseFrontmatterVars(raw)

	require.Len(t, decls, 3)

	assert.Equal(t, "name", decls[0].Name)
	assert.Equal(t, "the user's name", decls[0].Description)
	assert.False(t, decls[0].HasDefault)

	assert.Equal(t, "age", decls[1].Name)
	assert.Equal(t, "how old", decls[1].Description)
	assert.True(t, decls[1].HasDefault)
	assert.Equal(t, "30", decls[1].Default)

	assert.Equal(t, "city", decls[2].Name)
}

func TestCollectVariablesFromCLIFlags(t *testing.T) {
	script := &ast.Script{}

	vars, err := collectVariables(script, []string{"name=Ada", "role=admin"}, false)
	require.NoError(t, err)

	assert.Equal(t, "Ada", vars["name"].AsString())
	assert.Equal(t, "admin", vars["role"].AsString())
}

func TestCollectVariablesRejectsMalformedFlag(t *testing.T) {
	script := &ast.Script{}
	_, err := collectVariables(script, []string{"noequalssign"}, false)
	assert.Error(t, err)
}

func TestCollectVariablesNoPromptUsesFrontmatterDefault(t *testing.T) {
	script := &ast.Script{
		Frontmatter: &ast.Frontmatter{Raw: "greeting: how to greet = hello"},
	}

	vars, err := collectVariables(script, nil, true)
	require.NoError(t, err)
	assert.Equal(t, "hello", vars["greeting"].AsString())
}

func TestCollectVariablesNoPromptFailsWithoutDefault(t *testing.T) {
	script := &ast.Script{
		Frontmatter: &ast.Frontmatter{Raw: "required_field: must be supplied"},
	}

	_, err := collectVariables(script, nil, true)
	assert.Error(t, err)
}

func TestCollectVariablesCLIFlagOverridesFrontmatterDefault(t *testing.T) {
	script := &ast.Script{
		Frontmatter: &ast.Frontmatter{Raw: "greeting: how to greet = hello"},
	}

	vars, err := collectVariables(script, []string{"greeting=hi"}, true)
	require.NoError(t, err)
	assert.Equal(t, "hi", vars["greeting"].AsString())
}
