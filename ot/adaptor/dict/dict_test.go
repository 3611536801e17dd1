package dict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/otquery/ot"
)

func drainObject(t *testing.T, n ot.Node) []ot.Node {
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

func TestNew_WalksEntriesInOrder(t *testing.T) {
	n := New([]Entry{
		{Key: "b", Value: "2"},
		{Key: "a", Value: "1"},
	})

	children := drainObject(t, n)
	require.Len(t, children, 2)
	assert.Equal(t, "b", children[0].StrKey)
	assert.Equal(t, "a", children[1].StrKey)
}

func TestNew_CoercesValuesLikeJSONScalars(t *testing.T) {
	n := New([]Entry{
		{Key: "n", Value: "null"},
		{Key: "t", Value: "true"},
		{Key: "f", Value: "false"},
		{Key: "i", Value: "42"},
		{Key: "x", Value: "1.5"},
		{Key: "s", Value: "hello"},
	})

	children := drainObject(t, n)
	require.Len(t, children, 6)

	assert.Equal(t, ot.KindNull, children[0].Kind)

	assert.Equal(t, ot.KindBool, children[1].Kind)
	assert.True(t, children[1].Bool)

	assert.Equal(t, ot.KindBool, children[2].Kind)
	assert.False(t, children[2].Bool)

	assert.Equal(t, ot.KindNumber, children[3].Kind)
	assert.True(t, children[3].Flags&ot.IntFlag != 0)
	assert.Equal(t, float64(42), children[3].Num)

	assert.Equal(t, ot.KindNumber, children[4].Kind)
	assert.False(t, children[4].Flags&ot.IntFlag != 0)
	assert.Equal(t, 1.5, children[4].Num)

	assert.Equal(t, ot.KindString, children[5].Kind)
	assert.Equal(t, "hello", children[5].Str)
}

func TestFromMap_MissingKeyYieldsNull(t *testing.T) {
	n := FromMap([]string{"present", "absent"}, map[string]string{"present": "7"})

	children := drainObject(t, n)
	require.Len(t, children, 2)

	assert.Equal(t, "present", children[0].StrKey)
	assert.Equal(t, ot.KindNumber, children[0].Kind)

	assert.Equal(t, "absent", children[1].StrKey)
	assert.Equal(t, ot.KindNull, children[1].Kind)
}

func TestNew_Restartable(t *testing.T) {
	n := New([]Entry{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}})

	first := drainObject(t, n)
	second := drainObject(t, n)
	require.Len(t, first, 2)
	require.Len(t, second, 2)
	assert.Equal(t, first[0].StrKey, second[0].StrKey)
	assert.Equal(t, first[1].StrKey, second[1].StrKey)
}
