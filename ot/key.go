package ot

// Key is the caller-owned cursor state for iterating a container node.
// A Key holds a signed ordinal (negative indices count from the end, with
// -1 meaning "last") and an optional string key. The node being iterated
// holds no iterator state of its own — two independent Keys can walk the
// same Node concurrently (restartability, spec §3).
type Key struct {
	Index int    // ordinal position; negative counts from the end
	Str   string // object key, set iff HasStr
	HasStr bool
}

// Reset rewinds k to the start of a sequence: {index: 0, key: absent}.
func (k *Key) Reset() {
	k.Index = 0
	k.Str = ""
	k.HasStr = false
}

// ZeroKey returns a fresh cursor positioned at the start of a sequence.
func ZeroKey() Key {
	return Key{}
}
