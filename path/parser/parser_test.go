package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/otquery/path/ast"
)

func TestParseString_Slice(t *testing.T) {
	p, err := ParseString("$[1:4:2]")
	require.NoError(t, err)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, ast.MatchSlice, p.Steps[0].Kind)
	assert.Equal(t, ast.Slice{Start: 1, End: 4, Step: 2}, p.Steps[0].Slice)
}

func TestParseString_NegativeIndex(t *testing.T) {
	p, err := ParseString("$[-1]")
	require.NoError(t, err)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, ast.MatchIndex, p.Steps[0].Kind)
	assert.Equal(t, []int{-1}, p.Steps[0].Indexes)
}

func TestParseString_KeyList(t *testing.T) {
	p, err := ParseString("$['x','z']")
	require.NoError(t, err)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, ast.MatchKeys, p.Steps[0].Kind)
	assert.Equal(t, []string{"x", "z"}, p.Steps[0].Keys)
}

func TestParseString_DeepWithFilter(t *testing.T) {
	p, err := ParseString("$..items[?(@.type=='a')].id")
	require.NoError(t, err)
	// deep, key("items"), implicit-wildcard-filter, key("id")
	require.Len(t, p.Steps, 4)
	assert.Equal(t, ast.MatchDeep, p.Steps[0].Kind)
	assert.Equal(t, ast.MatchKey, p.Steps[1].Kind)
	assert.Equal(t, []string{"items"}, p.Steps[1].Keys)
	assert.Equal(t, ast.MatchSlice, p.Steps[2].Kind)
	require.NotNil(t, p.Steps[2].Predicate)
	assert.Equal(t, ast.ExprEq, p.Steps[2].Predicate.Tag)
	assert.Equal(t, ast.MatchKey, p.Steps[3].Kind)
	assert.Equal(t, []string{"id"}, p.Steps[3].Keys)
}

func TestParseString_RegexFilter(t *testing.T) {
	p, err := ParseString("$.k[?(@ ~= 'foo')]")
	require.NoError(t, err)
	// key("k"), implicit-wildcard-filter
	require.Len(t, p.Steps, 2)
	assert.Equal(t, ast.MatchKey, p.Steps[0].Kind)
	assert.Equal(t, []string{"k"}, p.Steps[0].Keys)
	step := p.Steps[1]
	assert.Equal(t, ast.MatchSlice, step.Kind)
	require.NotNil(t, step.Predicate)
	assert.Equal(t, ast.ExprRegex, step.Predicate.Tag)
}

func TestParseString_DoubleStarReserved(t *testing.T) {
	_, err := ParseString("$.a[**]")
	require.Error(t, err)
}

func TestParseString_StopsAtUnrecognisedToken(t *testing.T) {
	p, err := ParseString("$.a???")
	require.NoError(t, err)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, "???", p.Residual)
}

func TestParseString_RootDefault(t *testing.T) {
	p, err := ParseString(".")
	require.Error(t, err) // "." alone is not "$" or "@"; callers should default to "$" themselves
	_ = p
}
