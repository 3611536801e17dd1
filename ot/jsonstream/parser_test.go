package jsonstream

import (
	"testing"

	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/otquery/ot"
)

func TestParse_Scalars(t *testing.T) {
	root, err := Parse([]byte(`{"a":1,"b":1.5,"c":true,"d":null,"e":"hi"}`))
	require.NoError(t, err)
	require.Equal(t, ot.KindObject, root.Kind)

	got := map[string]ot.Node{}
	cur := ot.ZeroKey()
	for {
		var out ot.Node
		n, err := ot.Iterate(&root, &cur, &out)
		require.NoError(t, err)
		if n == 0 {
			break
		}
		got[out.StrKey] = out
	}

	assert.Equal(t, float64(1), got["a"].Num)
	assert.True(t, got["a"].Flags&ot.IntFlag != 0)
	assert.Equal(t, 1.5, got["b"].Num)
	assert.False(t, got["b"].Flags&ot.IntFlag != 0)
	assert.True(t, got["c"].Bool)
	assert.Equal(t, ot.KindNull, got["d"].Kind)
	assert.Equal(t, "hi", got["e"].Str)
}

func TestParse_SingleShotContainer(t *testing.T) {
	root, err := Parse([]byte(`[1,2,3]`))
	require.NoError(t, err)

	cur := ot.ZeroKey()
	var out ot.Node
	n, err := ot.Iterate(&root, &cur, &out)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, float64(1), out.Num)

	// Resetting the cursor does NOT restart a JSON container (the
	// documented exception to restartability, spec §4.2) — the next
	// element continues from where the shared scanner left off.
	cur.Reset()
	n, err = ot.Iterate(&root, &cur, &out)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, float64(2), out.Num, "single-shot cursor must continue past the first element, not restart")
}

// TestParse_AgreesWithOjg cross-checks the root object's member count
// against ohler55/ojg's independent JSON decoder for the same document.
func TestParse_AgreesWithOjg(t *testing.T) {
	doc := `{"x":[1,2,3],"y":"z","n":null,"f":1.25}`

	ojgVal, err := oj.ParseString(doc)
	require.NoError(t, err)
	ojgMap, ok := ojgVal.(map[string]interface{})
	require.True(t, ok)

	root, err := Parse([]byte(doc))
	require.NoError(t, err)

	cur := ot.ZeroKey()
	count := 0
	for {
		var out ot.Node
		n, err := ot.Iterate(&root, &cur, &out)
		require.NoError(t, err)
		if n == 0 {
			break
		}
		count++
	}
	assert.Equal(t, len(ojgMap), count)
}

func TestParse_InvalidUTF8Aborts(t *testing.T) {
	_, err := Parse([]byte{'"', 0xFF, '"'})
	require.Error(t, err)
}
