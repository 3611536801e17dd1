package ot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceProducer builds a Producer over an in-memory slice of ints, used to
// exercise restartability and negative-index translation.
func sliceProducer(values []int64) Producer {
	return func(cur *Key, out *Node) (int, error) {
		n := len(values)
		idx := cur.Index
		if idx < 0 {
			idx = n + idx
		}
		if idx < 0 || idx >= n {
			return 0, nil
		}
		*out = Int(values[idx]).WithIndex(idx)
		cur.Index = idx + 1
		return 1, nil
	}
}

func TestIterate_Restartable(t *testing.T) {
	arr := Array(sliceProducer([]int64{10, 20, 30}))

	first := collectInts(t, &arr)
	second := collectInts(t, &arr)

	assert.Equal(t, []int64{10, 20, 30}, first)
	assert.Equal(t, first, second, "two independent cursors over the same node must yield identical sequences")
}

func TestIterate_NegativeIndex(t *testing.T) {
	arr := Array(sliceProducer([]int64{10, 20, 30, 40, 50}))

	cur := Key{Index: -1}
	var out Node
	n, err := Iterate(&arr, &cur, &out)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, int64(50), int64(out.Num))
}

func TestIterate_ScalarNeverCallsProducer(t *testing.T) {
	s := StringNode("hi")
	cur := ZeroKey()
	var out Node
	n, err := Iterate(&s, &cur, &out)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestIterate_EmptyContainerWithoutProducer(t *testing.T) {
	empty := Node{Kind: KindObject}
	cur := ZeroKey()
	var out Node
	n, err := Iterate(&empty, &cur, &out)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func collectInts(t *testing.T, n *Node) []int64 {
	t.Helper()
	cur := ZeroKey()
	var result []int64
	for {
		var out Node
		count, err := Iterate(n, &cur, &out)
		require.NoError(t, err)
		if count == 0 {
			break
		}
		result = append(result, int64(out.Num))
	}
	return result
}
