package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/otquery/ot"
)

// countingFetcher records how many times each round trip kind runs, so
// tests can assert on cache reuse and invalidation.
type countingFetcher struct {
	mu         sync.Mutex
	infoCalls  map[uint32]int
	paramCalls map[[2]uint32]int

	infoByID  map[uint32]map[string]string
	paramIDs  map[uint32][]uint32
	paramByID map[[2]uint32]map[string]string
}

func newCountingFetcher() *countingFetcher {
	return &countingFetcher{
		infoCalls:  make(map[uint32]int),
		paramCalls: make(map[[2]uint32]int),
		infoByID:   make(map[uint32]map[string]string),
		paramIDs:   make(map[uint32][]uint32),
		paramByID:  make(map[[2]uint32]map[string]string),
	}
}

func (f *countingFetcher) FetchInfo(id uint32) (map[string]string, []uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infoCalls[id]++
	return f.infoByID[id], f.paramIDs[id], nil
}

func (f *countingFetcher) FetchParam(id, paramID uint32) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]uint32{id, paramID}
	f.paramCalls[key]++
	return f.paramByID[key], nil
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

func TestDirectory_StaticFieldsDoNotTriggerFetch(t *testing.T) {
	f := newCountingFetcher()
	r := New(f)

	entries := []DirectoryEntry{
		{ID: 1, Type: "Node", Version: 3, Permissions: map[string]string{"r": "true"}, Properties: map[string]string{"media.class": "Audio/Sink"}},
	}
	objs := drainArray(t, r.Directory(entries))
	require.Len(t, objs, 1)

	fields := drainObject(t, objs[0])
	assert.Equal(t, ot.KindNumber, fields["id"].Kind)
	assert.Equal(t, ot.KindString, fields["type"].Kind)
	assert.Equal(t, "Node", fields["type"].Str)
	assert.Equal(t, ot.KindNumber, fields["version"].Kind)

	perms := drainObject(t, fields["permissions"])
	assert.True(t, perms["r"].Bool)

	props := drainObject(t, fields["properties"])
	assert.Equal(t, "Audio/Sink", props["media.class"].Str)

	assert.Zero(t, f.infoCalls[1])
}

func TestInfo_EnteringTriggersFetchOnceThenCaches(t *testing.T) {
	f := newCountingFetcher()
	f.infoByID[1] = map[string]string{"state": "running", "n-input-ports": "2"}
	r := New(f)

	entries := []DirectoryEntry{{ID: 1, Type: "Node"}}
	objs := drainArray(t, r.Directory(entries))
	fields := drainObject(t, objs[0])

	info1 := drainObject(t, fields["info"])
	assert.Equal(t, "running", info1["state"].Str)
	assert.True(t, info1["n-input-ports"].Flags&ot.IntFlag != 0)
	assert.Equal(t, 1, f.infoCalls[1])

	// re-entering "info" via a fresh node reuses the cache, not a refetch.
	fields2 := drainObject(t, r.entryNode(entries[0]))
	_ = drainObject(t, fields2["info"])
	assert.Equal(t, 1, f.infoCalls[1])
}

func TestInfo_InvalidateForcesRefetch(t *testing.T) {
	f := newCountingFetcher()
	f.infoByID[1] = map[string]string{"state": "running"}
	r := New(f)

	entries := []DirectoryEntry{{ID: 1, Type: "Node"}}
	fields := drainObject(t, r.entryNode(entries[0]))
	_ = drainObject(t, fields["info"])
	require.Equal(t, 1, f.infoCalls[1])

	r.InvalidateInfo(1)

	f.infoByID[1] = map[string]string{"state": "suspended"}
	fields2 := drainObject(t, r.entryNode(entries[0]))
	info2 := drainObject(t, fields2["info"])
	assert.Equal(t, "suspended", info2["state"].Str)
	assert.Equal(t, 2, f.infoCalls[1])
}

func TestParams_LazyPerParamIDAndInvalidate(t *testing.T) {
	f := newCountingFetcher()
	f.infoByID[1] = map[string]string{}
	f.paramIDs[1] = []uint32{3, 7}
	f.paramByID[[2]uint32{1, 3}] = map[string]string{"volume": "1.0"}
	f.paramByID[[2]uint32{1, 7}] = map[string]string{"mute": "false"}
	r := New(f)

	entries := []DirectoryEntry{{ID: 1, Type: "Node"}}
	fields := drainObject(t, r.entryNode(entries[0]))

	params := drainObject(t, fields["params"])
	require.Contains(t, params, "3")
	require.Contains(t, params, "7")
	assert.Zero(t, f.paramCalls[[2]uint32{1, 3}])

	vol := drainObject(t, params["3"])
	assert.Equal(t, 1.0, vol["volume"].Num)
	assert.Equal(t, 1, f.paramCalls[[2]uint32{1, 3}])

	// re-reading the same param id from a fresh traversal reuses the cache.
	fields2 := drainObject(t, r.entryNode(entries[0]))
	params2 := drainObject(t, fields2["params"])
	_ = drainObject(t, params2["3"])
	assert.Equal(t, 1, f.paramCalls[[2]uint32{1, 3}])

	r.InvalidateParam(1, 3)

	f.paramByID[[2]uint32{1, 3}] = map[string]string{"volume": "0.5"}
	fields3 := drainObject(t, r.entryNode(entries[0]))
	params3 := drainObject(t, fields3["params"])
	vol2 := drainObject(t, params3["3"])
	assert.Equal(t, 0.5, vol2["volume"].Num)
	assert.Equal(t, 2, f.paramCalls[[2]uint32{1, 3}])
}

func TestInfoAndParams_CarryExpensiveFlag(t *testing.T) {
	f := newCountingFetcher()
	f.infoByID[1] = map[string]string{}
	r := New(f)

	fields := drainObject(t, r.entryNode(DirectoryEntry{ID: 1}))
	assert.True(t, fields["info"].Flags&ot.ExpensiveFlag != 0)
	assert.True(t, fields["params"].Flags&ot.ExpensiveFlag != 0)
}

func TestDirectory_MultipleObjectsIndependentCaches(t *testing.T) {
	f := newCountingFetcher()
	f.infoByID[1] = map[string]string{"state": "running"}
	f.infoByID[2] = map[string]string{"state": "idle"}
	r := New(f)

	entries := []DirectoryEntry{{ID: 1, Type: "Node"}, {ID: 2, Type: "Port"}}
	objs := drainArray(t, r.Directory(entries))
	require.Len(t, objs, 2)

	for i, want := range []string{"running", "idle"} {
		fields := drainObject(t, objs[i])
		info := drainObject(t, fields["info"])
		assert.Equal(t, want, info["state"].Str, fmt.Sprintf("object %d", i))
	}
	assert.Equal(t, 1, f.infoCalls[1])
	assert.Equal(t, 1, f.infoCalls[2])
}
