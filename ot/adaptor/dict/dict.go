// Package dict implements the §4.3 dict adaptor: given an ordered
// key/value string dictionary, it yields an OT object whose producer
// walks the entries in insertion order, coercing each value the same way
// the JSON parser coerces a bare scalar token (ot/jsonstream.CoerceToken).
//
// Grounded on the teacher's internal/ingest.JsonWalker, whose Values()
// fallback coerces an arbitrary map into string-keyed form; this adaptor
// runs that coercion the other way, from string-keyed form into typed OT
// scalars.
package dict

import (
	"github.com/agentic-research/otquery/ot"
	"github.com/agentic-research/otquery/ot/jsonstream"
)

// Entry is one key/value pair of the source dictionary. A plain
// map[string]string has no defined iteration order, so callers supply
// entries as an explicit ordered slice to satisfy spec §4.3's "walks the
// entries in insertion order".
type Entry struct {
	Key   string
	Value string

	// missing marks an entry whose value is absent rather than empty;
	// only FromMap sets this, for keys named in order but not in values.
	missing bool
}

// New builds an ordered dictionary from entries, in the order given.
// Every entry built by a caller has a value; use FromMap where a key may
// have no value.
func New(entries []Entry) ot.Node {
	return ot.Object(producer(entries))
}

// FromMap builds a dictionary from a map and an explicit key order. Keys
// present in order but absent from values yield a null per spec §4.3
// ("emits null for missing values"); keys in values but not in order are
// not visited, since order is authoritative.
func FromMap(order []string, values map[string]string) ot.Node {
	entries := make([]Entry, len(order))
	for i, k := range order {
		v, ok := values[k]
		entries[i] = Entry{Key: k}
		if ok {
			entries[i].Value = v
		} else {
			entries[i].missing = true
		}
	}
	return New(entries)
}

func producer(entries []Entry) ot.Producer {
	return func(cur *ot.Key, out *ot.Node) (int, error) {
		i := cur.Index
		if i < 0 || i >= len(entries) {
			return 0, nil
		}
		e := entries[i]
		var val ot.Node
		if e.missing {
			val = ot.Null()
		} else {
			val = jsonstream.CoerceToken(e.Value)
		}
		*out = val.WithKey(e.Key)
		cur.Index = i + 1
		cur.HasStr = false
		return 1, nil
	}
}
