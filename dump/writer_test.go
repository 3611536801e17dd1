package dump

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/otquery/ot"
	"github.com/agentic-research/otquery/ot/jsonstream"
)

// normalizeSpace collapses whitespace so indentation differences don't
// matter when comparing against spec §8's "(whitespace-normalised)"
// worked examples.
func normalizeSpace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// scenario 1: parse-and-dump scalars.
func TestDump_ParseAndDumpScalars(t *testing.T) {
	root, err := jsonstream.Parse([]byte(`{"a":1,"b":1.5,"c":true,"d":null,"e":"hi"}`))
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, New(&buf).Dump(root))

	got := normalizeSpace(buf.String())
	assert.Contains(t, got, `"a": 1`)
	assert.Contains(t, got, `"b": 1.50000`)
	assert.Contains(t, got, `"c": true`)
	assert.Contains(t, got, `"d": null`)
	assert.Contains(t, got, `"e": "hi"`)
}

func TestDump_FlatArrayInline(t *testing.T) {
	n := ot.Array(func(cur *ot.Key, out *ot.Node) (int, error) {
		vals := []ot.Node{ot.Int(1), ot.Int(2)}
		if cur.Index < 0 || cur.Index >= len(vals) {
			return 0, nil
		}
		*out = vals[cur.Index].WithIndex(cur.Index)
		cur.Index++
		return 1, nil
	}).WithFlags(ot.FlatFlag)

	var buf strings.Builder
	require.NoError(t, New(&buf).Dump(n))
	assert.Equal(t, "[ 1, 2 ]", buf.String())
	assert.NotContains(t, buf.String(), "\n")
}

func TestDump_ExpensiveCutoffElidesChildren(t *testing.T) {
	var makeExpensive func(depth int) ot.Node
	makeExpensive = func(depth int) ot.Node {
		return ot.Object(func(cur *ot.Key, out *ot.Node) (int, error) {
			if cur.Index > 0 || depth >= 3 {
				return 0, nil
			}
			cur.Index = 1
			*out = makeExpensive(depth + 1).WithKey("child").WithFlags(ot.ExpensiveFlag)
			return 1, nil
		}).WithFlags(ot.ExpensiveFlag)
	}
	root := makeExpensive(0)

	var buf strings.Builder
	require.NoError(t, New(&buf, WithExpensiveCutoff(1)).Dump(root))
	// only the root's own expansion is allowed through before the cutoff
	// elides the next expensive container as "{}".
	assert.Contains(t, buf.String(), "{}")
}

func TestDump_NoKeyFlagSuppressesPrefix(t *testing.T) {
	n := ot.Object(func(cur *ot.Key, out *ot.Node) (int, error) {
		if cur.Index > 0 {
			return 0, nil
		}
		cur.Index = 1
		*out = ot.Int(1).WithKey("x").WithFlags(ot.NoKeyFlag)
		return 1, nil
	})

	var buf strings.Builder
	require.NoError(t, New(&buf).Dump(n))
	assert.NotContains(t, buf.String(), `"x"`)
	assert.Contains(t, buf.String(), "1")
}

// Dumper round-trip: dumping a JSON-parsed tree, re-parsing the output,
// and dumping again yields the same result (spec §8).
func TestDump_RoundTrip(t *testing.T) {
	src := `{"x":[1,2,3],"y":"z"}`
	root, err := jsonstream.Parse([]byte(src))
	require.NoError(t, err)

	var first strings.Builder
	require.NoError(t, New(&first).Dump(root))

	reparsed, err := jsonstream.Parse([]byte(first.String()))
	require.NoError(t, err)

	var second strings.Builder
	require.NoError(t, New(&second).Dump(reparsed))

	assert.Equal(t, first.String(), second.String())
}
