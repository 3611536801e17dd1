package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentic-research/otquery/ot"
)

func TestCompare_NullNull(t *testing.T) {
	assert.Equal(t, Equal, Compare(ot.Null(), ot.Null()))
}

func TestCompare_NullOther(t *testing.T) {
	assert.Equal(t, Unordered, Compare(ot.Null(), ot.Int(0)))
	assert.Equal(t, Unordered, Compare(ot.StringNode("x"), ot.Null()))
}

func TestCompare_Strings(t *testing.T) {
	assert.Equal(t, Equal, Compare(ot.StringNode("ab"), ot.StringNode("ab")))
	assert.Equal(t, Less, Compare(ot.StringNode("ab"), ot.StringNode("b")))
	assert.Equal(t, Greater, Compare(ot.StringNode("b"), ot.StringNode("ab")))
}

func TestCompare_Numbers(t *testing.T) {
	assert.Equal(t, Less, Compare(ot.Float(1), ot.Float(2)))
	assert.Equal(t, Greater, Compare(ot.Float(2), ot.Float(1)))
	assert.Equal(t, Equal, Compare(ot.Int(3), ot.Float(3)))
}

func TestCompare_NumberCoercesOther(t *testing.T) {
	assert.Equal(t, Equal, Compare(ot.Float(1), ot.BoolNode(true)))
	assert.Equal(t, Equal, Compare(ot.Float(0), ot.Null()))
	assert.Equal(t, Equal, Compare(ot.Float(42), ot.StringNode("42")))
	assert.Equal(t, Unordered, Compare(ot.Float(1), ot.StringNode("not-a-number")))
}

func TestCompare_Bools(t *testing.T) {
	assert.Equal(t, Equal, Compare(ot.BoolNode(true), ot.BoolNode(true)))
	assert.Equal(t, Less, Compare(ot.BoolNode(false), ot.BoolNode(true)))
	assert.Equal(t, Greater, Compare(ot.BoolNode(true), ot.BoolNode(false)))
}

func TestCompare_OtherMixedFallsBackToTruthiness(t *testing.T) {
	assert.Equal(t, Equal, Compare(ot.StringNode("x"), ot.BoolNode(true)))
	assert.Equal(t, Unordered, Compare(ot.StringNode(""), ot.BoolNode(true)))
}

func TestToBool(t *testing.T) {
	assert.False(t, ToBool(ot.Null()))
	assert.True(t, ToBool(ot.BoolNode(true)))
	assert.False(t, ToBool(ot.BoolNode(false)))
	assert.False(t, ToBool(ot.Float(0)))
	assert.True(t, ToBool(ot.Float(1)))
	assert.False(t, ToBool(ot.StringNode("")))
	assert.True(t, ToBool(ot.StringNode("x")))
}
