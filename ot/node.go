// Package ot implements the object-tree (OT) model: a uniform, lazily
// pull-iterated node abstraction over heterogeneous backing stores (a
// parsed JSON document, a live registry of remote objects, a decoded POD
// blob, a plain string dictionary). Every value in the tree — scalar,
// array, or object — is a Node carrying a kind tag, an optional key, a
// value, and (for containers) a Producer closure that materialises
// children on demand.
//
// Grounded on the teacher's internal/graph.Node (explicit kind
// discriminant carried on a universal struct) and on its ContentRef /
// ContentResolverFunc lazy-resolution idiom (internal/graph/graph.go),
// generalised here from "lazy leaf bytes" to "lazy children".
package ot

import "github.com/agentic-research/otquery/otqerr"

// Kind is the tag discriminating a Node's value shape. A Node's Kind never
// changes over its lifetime (spec §3 invariant).
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Flags are the rendering/traversal hints carried on a Node.
type Flags uint8

const (
	// FlatFlag asks the dumper to render a container inline (spaces, no
	// newlines) instead of indented multi-line JSON.
	FlatFlag Flags = 1 << iota
	// ExpensiveFlag marks that iterating this container triggers a
	// round-trip to an external system. It propagates down visually (the
	// dumper caps how many expensive containers it expands) but never
	// affects correctness.
	ExpensiveFlag
	// MultiFlag marks an array node whose children are *alternatives*
	// (existential semantics in the predicate engine), not ordinary
	// siblings.
	MultiFlag
	// IntFlag marks that a number Node's value has no fractional part and
	// should be dumped without a decimal point.
	IntFlag
	// NoKeyFlag suppresses the "key": prefix when dumping, even if the
	// Node carries a string key (used for synthetic wrapper nodes).
	NoKeyFlag
)

func (f Flags) has(bit Flags) bool { return f&bit != 0 }

// Producer materialises the next child of a container Node. Given the
// current cursor Key, it either:
//   - writes the next child into out and returns (1, nil)
//   - returns (0, nil) to signal end-of-sequence
//   - returns (0, err) on error — the engine aborts this iteration but the
//     caller's cursor is left usable to continue past the offending child.
//
// A Producer must not retain out beyond the call; Node values are
// stack-resident and short-lived (spec §3 "Lifecycle").
type Producer func(cur *Key, out *Node) (int, error)

// Node is the universal element of the object tree.
type Node struct {
	Kind Kind

	// Index is the ordinal position of this node within its parent array,
	// and StrKey/HasStrKey identify the node's position within its parent
	// object. Exactly one of (array-index-valid) or HasStrKey holds for
	// any non-root node; the key rides on the child, not the parent, so a
	// consumer can report "[n]" or "['k']" context without a separate
	// lookup (spec §3).
	Index     int
	StrKey    string
	HasStrKey bool
	HasIndex  bool

	Flags Flags

	// Scalar payload.
	Bool   bool
	Num    float64
	Str    string

	// Container payload. Produce is nil for scalar nodes and for empty
	// containers; Scratch is a small fixed-size area the Producer may use
	// to hold streaming state between calls so iteration needs no heap
	// allocation per node (grounded on the teacher's arena allocator,
	// internal/graph/arena.go, generalised from "arena of graph nodes" to
	// "per-producer scratch").
	Produce Producer
	Scratch Scratch

	// Parent is a non-owning back-reference used only for path-printing
	// (dump.Location). A child borrows its parent for the duration of one
	// iteration step; it is never retained past that.
	Parent *Node
}

// Scratch is a small fixed-capacity array a Producer may use to carry
// iteration state (a byte offset, a slice index, a walk-stack pointer)
// without allocating. Producers that need more than this agree among
// themselves on an encoding (e.g. an index into an engine-owned side
// table) rather than widening this type.
type Scratch [4]int

// Null constructs a scalar null Node.
func Null() Node { return Node{Kind: KindNull} }

// BoolNode constructs a scalar boolean Node.
func BoolNode(v bool) Node { return Node{Kind: KindBool, Bool: v} }

// Int constructs a scalar integer-flagged number Node.
func Int(v int64) Node { return Node{Kind: KindNumber, Num: float64(v), Flags: IntFlag} }

// Float constructs a scalar floating-point number Node.
func Float(v float64) Node { return Node{Kind: KindNumber, Num: v} }

// StringNode constructs a scalar string Node. s is copied by reference
// (Go strings are immutable), not re-validated — callers that need
// UTF-8 validation use ot/jsonstream, which validates ahead of
// construction.
func StringNode(s string) Node { return Node{Kind: KindString, Str: s} }

// Array constructs a container Node of kind array, backed by producer.
func Array(producer Producer) Node {
	return Node{Kind: KindArray, Produce: producer}
}

// Object constructs a container Node of kind object, backed by producer.
func Object(producer Producer) Node {
	return Node{Kind: KindObject, Produce: producer}
}

// WithIndex returns a copy of n tagged with array index idx.
func (n Node) WithIndex(idx int) Node {
	n.HasIndex = true
	n.Index = idx
	return n
}

// WithKey returns a copy of n tagged with object key k.
func (n Node) WithKey(k string) Node {
	n.HasStrKey = true
	n.StrKey = k
	return n
}

// WithParent returns a copy of n with its Parent back-reference set.
func (n Node) WithParent(p *Node) Node {
	n.Parent = p
	return n
}

// WithFlags returns a copy of n with the given flags OR'd in.
func (n Node) WithFlags(f Flags) Node {
	n.Flags |= f
	return n
}

// IsContainer reports whether n.Kind is array or object.
func (n *Node) IsContainer() bool { return n.Kind == KindArray || n.Kind == KindObject }

// Iterate is the single iteration primitive (§4.1). Scalar nodes never
// call their producer — Iterate returns (0, nil) immediately. Container
// nodes without a Producer yield the empty sequence for the same reason.
//
// Negative-index translation is the producer's responsibility (§4.1): if
// cur.Index < 0 and the producer knows its length, it maps -1 to the
// last element; otherwise it treats the cursor as exhausted and returns 0.
func Iterate(n *Node, cur *Key, out *Node) (int, error) {
	if n == nil {
		return 0, otqerr.ErrInvalidArgument
	}
	if !n.IsContainer() || n.Produce == nil {
		return 0, nil
	}
	count, err := n.Produce(cur, out)
	if count == 1 && out.Parent == nil {
		out.Parent = n
	}
	return count, err
}
