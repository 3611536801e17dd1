package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/otquery/ot"
	"github.com/agentic-research/otquery/ot/jsonstream"
	"github.com/agentic-research/otquery/path/parser"
	"github.com/agentic-research/otquery/path/predicate"
)

func mustParse(t *testing.T, src string) ot.Node {
	t.Helper()
	n, err := jsonstream.Parse([]byte(src))
	require.NoError(t, err)
	return n
}

func drain(t *testing.T, n ot.Node) []ot.Node {
	t.Helper()
	var out []ot.Node
	cur := ot.ZeroKey()
	for {
		var child ot.Node
		count, err := ot.Iterate(&n, &cur, &child)
		require.NoError(t, err)
		if count == 0 {
			return out
		}
		out = append(out, child)
	}
}

func nums(t *testing.T, nodes []ot.Node) []float64 {
	t.Helper()
	var out []float64
	for _, n := range nodes {
		require.Equal(t, ot.KindNumber, n.Kind)
		out = append(out, n.Num)
	}
	return out
}

func strs(t *testing.T, nodes []ot.Node) []string {
	t.Helper()
	var out []string
	for _, n := range nodes {
		require.Equal(t, ot.KindString, n.Kind)
		out = append(out, n.Str)
	}
	return out
}

// scenario 2: slice and negative index on a flat array.
func TestRun_SliceOnArray(t *testing.T) {
	root := mustParse(t, `[10,20,30,40,50]`)

	p, err := parser.ParseString("$[1:4:2]")
	require.NoError(t, err)
	result := Run(root, p, root)
	assert.Equal(t, []float64{20, 40}, nums(t, drain(t, result)))
}

func TestRun_NegativeIndex(t *testing.T) {
	root := mustParse(t, `[10,20,30,40,50]`)

	p, err := parser.ParseString("$[-1]")
	require.NoError(t, err)
	result := Run(root, p, root)
	assert.Equal(t, []float64{50}, nums(t, drain(t, result)))
}

// scenario 3: quoted key list on an object.
func TestRun_KeyListOnObject(t *testing.T) {
	root := mustParse(t, `{"x":1,"y":2,"z":3}`)

	p, err := parser.ParseString("$['x','z']")
	require.NoError(t, err)
	result := Run(root, p, root)
	assert.Equal(t, []float64{1, 3}, nums(t, drain(t, result)))
}

// scenario 4: recursive descent with an equality filter.
func TestRun_DeepWithFilter(t *testing.T) {
	root := mustParse(t, `{"items":[{"type":"a","id":1},{"type":"b","id":2},{"type":"a","id":3}]}`)

	p, err := parser.ParseString("$..items[?(@.type=='a')].id")
	require.NoError(t, err)
	result := Run(root, p, root)
	assert.Equal(t, []float64{1, 3}, nums(t, drain(t, result)))
}

// scenario 5: regex filter over a string array.
func TestRun_RegexFilter(t *testing.T) {
	root := mustParse(t, `{"k":["foo","foobar","baz"]}`)

	p, err := parser.ParseString("$.k[?(@ ~= 'foo')]")
	require.NoError(t, err)
	result := Run(root, p, root)
	assert.Equal(t, []string{"foo", "foobar"}, strs(t, drain(t, result)))
}

// scenario 6: multi-value cross-product join, evaluated directly at the
// root (no enclosing step), matching spec §8's "predicate @.a == @.b at
// root" wording.
func TestPredicate_MultiValueCrossProduct(t *testing.T) {
	root := mustParse(t, `{"a":[1,2],"b":[2,3]}`)

	condTrue, err := parser.ParseCondition("@.a == @.b")
	require.NoError(t, err)
	ctx := predicate.Context{Candidate: root, RunPath: EvalPath(root)}
	assert.True(t, predicate.EvalBool(condTrue, ctx))

	condFalse, err := parser.ParseCondition("@.a == 4")
	require.NoError(t, err)
	assert.False(t, predicate.EvalBool(condFalse, ctx))
}

// restartableObject builds an object Node backed by a Producer that (unlike
// ot/jsonstream's single-shot containers) supports being drained more than
// once, so this test can isolate the engine's own restartability from any
// restriction of the underlying backing store.
func restartableObject(pairs map[string]float64, order []string) ot.Node {
	return ot.Object(func(cur *ot.Key, out *ot.Node) (int, error) {
		idx := cur.Index
		if idx < 0 || idx >= len(order) {
			return 0, nil
		}
		k := order[idx]
		*out = ot.Float(pairs[k]).WithKey(k)
		cur.Index = idx + 1
		cur.Str = k
		cur.HasStr = true
		return 1, nil
	})
}

// Restartability: resetting the result's cursor to {0,∅} re-yields the
// same sequence, even though the step engine's own frame stack is
// single-pass internally.
func TestRun_Restartable(t *testing.T) {
	root := restartableObject(map[string]float64{"x": 1, "y": 2, "z": 3}, []string{"x", "y", "z"})
	p, err := parser.ParseString("$['x','y','z']")
	require.NoError(t, err)

	result := Run(root, p, root)
	first := nums(t, drain(t, result))
	second := nums(t, drain(t, result))
	assert.Equal(t, []float64{1, 2, 3}, first)
	assert.Equal(t, first, second)
}
