package source

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/otquery/ot"
)

func parse(t *testing.T, src string) *sitter.Node {
	t.Helper()
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(src))
	require.NoError(t, err)
	return tree.RootNode()
}

func drainObject(t *testing.T, n ot.Node) map[string]ot.Node {
	t.Helper()
	out := make(map[string]ot.Node)
	cur := ot.ZeroKey()
	for {
		var child ot.Node
		count, err := ot.Iterate(&n, &cur, &child)
		require.NoError(t, err)
		if count == 0 {
			break
		}
		out[child.StrKey] = child
	}
	return out
}

func drainArray(t *testing.T, n ot.Node) []ot.Node {
	t.Helper()
	var out []ot.Node
	cur := ot.ZeroKey()
	for {
		var child ot.Node
		count, err := ot.Iterate(&n, &cur, &child)
		require.NoError(t, err)
		if count == 0 {
			break
		}
		out = append(out, child)
	}
	return out
}

const sample = `package main

func add(a, b int) int {
	return a + b
}
`

func TestNode_RootHasKindAndChildren(t *testing.T) {
	root := parse(t, sample)
	n := Node(Root{Node: root, Source: []byte(sample), Lang: "go"})
	fields := drainObject(t, n)
	assert.Equal(t, "source_file", fields["kind"].Str)
	assert.Equal(t, "go", fields["lang"].Str)
	assert.Contains(t, fields, "children")
	children := drainArray(t, fields["children"])
	assert.NotEmpty(t, children)
}

func TestNode_LeafProjectsText(t *testing.T) {
	root := parse(t, sample)
	n := Node(Root{Node: root, Source: []byte(sample), Lang: "go"})
	fields := drainObject(t, n)
	children := drainArray(t, fields["children"])

	var funcDecl ot.Node
	for _, c := range children {
		cf := drainObject(t, c)
		if cf["kind"].Str == "function_declaration" {
			funcDecl = c
			break
		}
	}
	require.NotZero(t, funcDecl.Kind)

	funcFields := drainObject(t, funcDecl)
	funcChildren := drainArray(t, funcFields["children"])

	var nameNode ot.Node
	for _, c := range funcChildren {
		cf := drainObject(t, c)
		if cf["kind"].Str == "identifier" {
			nameNode = c
			break
		}
	}
	require.NotZero(t, nameNode.Kind)
	nameFields := drainObject(t, nameNode)
	assert.Equal(t, "add", nameFields["text"].Str)
	assert.NotContains(t, nameFields, "children")
}

func TestNode_Restartable(t *testing.T) {
	root := parse(t, sample)
	n := Node(Root{Node: root, Source: []byte(sample), Lang: "go"})

	first := drainObject(t, n)
	second := drainObject(t, n)
	assert.Equal(t, first["kind"].Str, second["kind"].Str)
}

func TestPath_IncludesKindAndOffset(t *testing.T) {
	root := parse(t, sample)
	p := Path(root)
	assert.Contains(t, p, "source_file@")
}
