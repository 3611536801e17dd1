package dump

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/otquery/ot"
	"github.com/agentic-research/otquery/path/parser"
)

func TestPath_RoundTripsCommonForms(t *testing.T) {
	for _, src := range []string{
		"$[1:4:2]",
		"$[-1]",
		"$['x','z']",
	} {
		p, err := parser.ParseString(src)
		require.NoError(t, err)
		assert.Equal(t, src, Path(p))
	}
}

func TestPath_WildcardFilterStep(t *testing.T) {
	p, err := parser.ParseString("$.k[?(@ ~= 'foo')]")
	require.NoError(t, err)
	assert.Equal(t, "$['k'][*][?(@ ~= 'foo')]", Path(p))
}

func TestLocation_WalksParentChain(t *testing.T) {
	grandparent := &ot.Node{Kind: ot.KindObject}
	parentNode := ot.Object(nil).WithKey("outer").WithParent(grandparent)
	leaf := ot.Int(42).WithIndex(2).WithParent(&parentNode)

	assert.Equal(t, "$['outer'][2]", Location(&leaf))
}
