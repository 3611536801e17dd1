// Package registry implements the §4.3 registry adaptor: a directory of
// (id, type, version, permissions, properties) tuples, each carrying a
// lazily-populated, "expensive"-flagged info subtree and a lazily-
// populated params subtree.
//
// Grounded on the original PipeWire dump tool's tree.c: a "global" is the
// static directory tuple; entering it binds a proxy and performs a core
// sync round trip (tree.c's global_bind), after which *_info events
// accumulate state keyed by a change-mask (tree.c's ot_set_mask /
// core_event_info); per-param-id state is separately lazy, populated by
// an enum-params round trip (tree.c's global_params) and invalidated by
// the corresponding spa_param_info[...].user generation flag. This
// package generalises "proxy + core" to an arbitrary Fetcher, and the
// PipeWire generation counters to an explicit Invalidate call driven by
// whatever transport the caller wires up.
package registry

import (
	"sort"
	"strconv"
	"sync"

	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/otquery/ot"
	"github.com/agentic-research/otquery/ot/adaptor/dict"
	"github.com/agentic-research/otquery/ot/jsonstream"
)

// DirectoryEntry is one static tuple known to the registry before
// anything has been bound or fetched.
type DirectoryEntry struct {
	ID          uint32
	Type        string
	Version     uint32
	Permissions map[string]string
	Properties  map[string]string
}

// Fetcher performs the round trips a bound object needs: resolving
// "info", and enumerating one param id's value. Both are expected to
// round-trip over whatever transport the caller is adapting (a remote
// daemon connection, an RPC client, a local socket) — the registry
// itself is transport-agnostic.
type Fetcher interface {
	// FetchInfo binds id and returns its info fields plus the set of
	// param ids it currently advertises.
	FetchInfo(id uint32) (info map[string]string, paramIDs []uint32, err error)
	// FetchParam enumerates one param id's current value for id.
	FetchParam(id uint32, paramID uint32) (map[string]string, error)
}

// Registry adapts a directory + Fetcher into the OT array of objects
// described in spec §4.3.
type Registry struct {
	fetcher Fetcher

	mu        sync.Mutex
	infoKnown map[uint32]bool
	infoCache map[uint32]map[string]string

	paramSets  map[uint32]*roaring.Bitmap // object id -> set of advertised param ids
	populated  map[uint32]*roaring.Bitmap // object id -> set of currently-cached param ids
	paramCache map[uint32]map[uint32]map[string]string
}

// New builds a Registry that fetches through fetcher.
func New(fetcher Fetcher) *Registry {
	return &Registry{
		fetcher:    fetcher,
		infoKnown:  make(map[uint32]bool),
		infoCache:  make(map[uint32]map[string]string),
		paramSets:  make(map[uint32]*roaring.Bitmap),
		populated:  make(map[uint32]*roaring.Bitmap),
		paramCache: make(map[uint32]map[uint32]map[string]string),
	}
}

// Directory builds the OT array of objects for entries, in the order
// given.
func (r *Registry) Directory(entries []DirectoryEntry) ot.Node {
	return ot.Array(func(cur *ot.Key, out *ot.Node) (int, error) {
		i := cur.Index
		if i < 0 || i >= len(entries) {
			return 0, nil
		}
		*out = r.entryNode(entries[i]).WithIndex(i)
		cur.Index = i + 1
		return 1, nil
	})
}

// InvalidateInfo discards id's cached info, per a transport change-mask
// naming the object as stale: the next "info" entry re-triggers
// FetchInfo.
func (r *Registry) InvalidateInfo(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.infoCache, id)
	r.infoKnown[id] = false
	delete(r.paramSets, id)
	delete(r.populated, id)
	delete(r.paramCache, id)
}

// InvalidateParam discards one cached param value, per the param's own
// generation counter signalling invalidation: the next entry of that
// param id re-triggers FetchParam. Clearing the bit in the per-object
// "populated" bitmap is the same O(1) index-clear idiom the teacher's
// fileToNodes bitmap uses in DeleteFileNodes, here keyed by param id
// instead of by file-originated node id.
func (r *Registry) InvalidateParam(id, paramID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if bm, ok := r.populated[id]; ok {
		bm.Remove(paramID)
	}
	if m, ok := r.paramCache[id]; ok {
		delete(m, paramID)
	}
}

func (r *Registry) entryNode(e DirectoryEntry) ot.Node {
	fields := []struct {
		key   string
		build func() ot.Node
	}{
		{"id", func() ot.Node { return ot.Int(int64(e.ID)) }},
		{"type", func() ot.Node { return ot.StringNode(e.Type) }},
		{"version", func() ot.Node { return ot.Int(int64(e.Version)) }},
		{"permissions", func() ot.Node { return dictOf(e.Permissions) }},
		{"properties", func() ot.Node { return dictOf(e.Properties) }},
		{"info", func() ot.Node { return r.infoNode(e.ID) }},
		{"params", func() ot.Node { return r.paramsNode(e.ID) }},
	}
	return ot.Object(func(cur *ot.Key, out *ot.Node) (int, error) {
		i := cur.Index
		if i < 0 || i >= len(fields) {
			return 0, nil
		}
		f := fields[i]
		*out = f.build().WithKey(f.key)
		cur.Index = i + 1
		cur.HasStr = false
		return 1, nil
	})
}

// dictOf composes a plain string map into an OT object via the dict
// adaptor, sorting keys for a stable iteration order (the source map
// itself, unlike the top-level dict adaptor's ordered-entries contract,
// carries no ordering of its own).
func dictOf(m map[string]string) ot.Node {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]dict.Entry, len(keys))
	for i, k := range keys {
		entries[i] = dict.Entry{Key: k, Value: m[k]}
	}
	return dict.New(entries)
}

// infoNode is the expensive, lazily-bound "info" subtree (spec §4.3):
// entering it for the first time binds the object and performs the sync
// round trip; subsequent entries reuse the cached fields unless
// InvalidateInfo discarded them.
func (r *Registry) infoNode(id uint32) ot.Node {
	return ot.Object(func(cur *ot.Key, out *ot.Node) (int, error) {
		fields, values, err := r.ensureInfo(id)
		if err != nil {
			return 0, err
		}
		i := cur.Index
		if i < 0 || i >= len(fields) {
			return 0, nil
		}
		k := fields[i]
		*out = jsonstream.CoerceToken(values[k]).WithKey(k)
		cur.Index = i + 1
		cur.HasStr = false
		return 1, nil
	}).WithFlags(ot.ExpensiveFlag)
}

func (r *Registry) ensureInfo(id uint32) ([]string, map[string]string, error) {
	r.mu.Lock()
	known := r.infoKnown[id]
	r.mu.Unlock()

	if !known {
		info, paramIDs, err := r.fetcher.FetchInfo(id)
		if err != nil {
			return nil, nil, err
		}
		bm := roaring.New()
		for _, p := range paramIDs {
			bm.Add(p)
		}
		r.mu.Lock()
		r.infoCache[id] = info
		r.infoKnown[id] = true
		r.paramSets[id] = bm
		r.mu.Unlock()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	values := r.infoCache[id]
	fields := make([]string, 0, len(values))
	for k := range values {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields, values, nil
}

// paramsNode is the expensive "params" subtree, keyed by param id:
// enumerating it requires info to already have bound the object (to
// know which param ids exist); entering a specific param id is itself
// lazy and independently cached/invalidated.
func (r *Registry) paramsNode(id uint32) ot.Node {
	return ot.Object(func(cur *ot.Key, out *ot.Node) (int, error) {
		ids, err := r.paramIDs(id)
		if err != nil {
			return 0, err
		}
		i := cur.Index
		if i < 0 || i >= len(ids) {
			return 0, nil
		}
		pid := ids[i]
		*out = r.paramNode(id, pid).WithKey(strconv.FormatUint(uint64(pid), 10))
		cur.Index = i + 1
		cur.HasStr = false
		return 1, nil
	}).WithFlags(ot.ExpensiveFlag)
}

func (r *Registry) paramIDs(id uint32) ([]uint32, error) {
	if _, _, err := r.ensureInfo(id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	bm := r.paramSets[id]
	if bm == nil {
		return nil, nil
	}
	ids := make([]uint32, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		ids = append(ids, it.Next())
	}
	return ids, nil
}

func (r *Registry) paramNode(id, paramID uint32) ot.Node {
	return ot.Object(func(cur *ot.Key, out *ot.Node) (int, error) {
		fields, values, err := r.ensureParam(id, paramID)
		if err != nil {
			return 0, err
		}
		i := cur.Index
		if i < 0 || i >= len(fields) {
			return 0, nil
		}
		k := fields[i]
		*out = jsonstream.CoerceToken(values[k]).WithKey(k)
		cur.Index = i + 1
		cur.HasStr = false
		return 1, nil
	}).WithFlags(ot.ExpensiveFlag)
}

func (r *Registry) ensureParam(id, paramID uint32) ([]string, map[string]string, error) {
	r.mu.Lock()
	cached := r.populated[id] != nil && r.populated[id].Contains(paramID)
	values := r.paramCache[id][paramID]
	r.mu.Unlock()

	if !cached {
		fetched, err := r.fetcher.FetchParam(id, paramID)
		if err != nil {
			return nil, nil, err
		}
		r.mu.Lock()
		if r.paramCache[id] == nil {
			r.paramCache[id] = make(map[uint32]map[string]string)
		}
		r.paramCache[id][paramID] = fetched
		if r.populated[id] == nil {
			r.populated[id] = roaring.New()
		}
		r.populated[id].Add(paramID)
		r.mu.Unlock()
		values = fetched
	}

	fields := make([]string, 0, len(values))
	for k := range values {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields, values, nil
}
