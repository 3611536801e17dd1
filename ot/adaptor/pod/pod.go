// Package pod bridges an already-decoded SPA POD value into the OT tree.
// Per spec §1, the POD binary layout and its filter/compare utilities are
// explicitly out of scope — this package fixes only the *contract* the
// core must satisfy (an abstract decoded Value tree in, an ot.Node out),
// the way spec.md describes the POD adaptor's backing API as specified
// abstractly rather than concretely.
//
// Grounded on the original PipeWire dump tool's tree.c POD projection
// (ot_pod_set_value and its per-shape helpers): field names ("width"/
// "height", "num"/"denom"), the rectangle/fraction/narrow-array "flat"
// rendering flag, and the choice-type label scheme ("default"/"min"/
// "max"/"step" for Range/Step, "alt%d"/"flag%d" for Enum/Flags) are all
// carried over unchanged in meaning, generalised from spa_pod_iter's
// binary walk to a plain Go value tree.
package pod

import (
	"fmt"

	"github.com/agentic-research/otquery/ot"
	"github.com/agentic-research/otquery/otqerr"
)

// Kind is the decoded POD value's shape, mirroring spa/pod-iter.h's type
// tags (the subset the dumper actually projects; Pointer/Fd/Sequence are
// not given a distinct projection in tree.c and fall back to KindBytes).
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindString
	KindBytes
	KindRectangle
	KindFraction
	KindArray
	KindStruct
	KindObject
	KindChoice
)

// ChoiceType mirrors SPA_CHOICE_* from spa/pod-iter.h's choice body tag.
type ChoiceType int

const (
	ChoiceNone ChoiceType = iota
	ChoiceRange
	ChoiceStep
	ChoiceEnum
	ChoiceFlags
)

// Value is one already-decoded POD node. A Decoder populates exactly the
// fields relevant to Kind; all others are zero.
type Value struct {
	Kind Kind

	Bool   bool
	Int    int32
	Long   int64
	Float  float32
	Double float64
	Str    string
	Bytes  []byte

	Rect struct{ Width, Height int32 }
	Frac struct{ Num, Denom int32 }

	// Array/Struct hold their elements in order. Array additionally
	// records the shared child kind (tree.c's b->child.type), used only
	// to decide the "flat" rendering flag.
	Array      []Value
	ArrayChild Kind
	Struct     []Value

	Object ObjectValue
	Choice ChoiceValue
}

// ObjectValue is a POD object's type/id plus its (key, value) properties,
// grounded on spa_pod_object_body + SPA_POD_OBJECT_BODY_FOREACH.
type ObjectValue struct {
	Type  uint32
	ID    uint32
	Props []ObjectProp
}

// ObjectProp is one property of an Object value. Key is the resolved
// field name (tree.c's spa_debug_type_find / spa_debug_type_short_name
// lookup is a Decoder responsibility, out of scope here) or "" if
// unresolved, projected as "*unknown*" per the original dumper.
type ObjectProp struct {
	Key   string
	Value Value
}

// ChoiceValue is a POD choice's discriminant plus its ordered items.
// Item count and meaning depend on Type: Range/Step expect up to 4 items
// (default, min, max, step), Enum/Flags expect a variable-length list
// (default, alt0, alt1, ... / default, flag0, flag1, ...).
type ChoiceValue struct {
	Type  ChoiceType
	Items []Value
}

// Root converts a decoded POD value into an OT node rooted at key "" (an
// array/struct/object root has no key of its own; callers that need one
// call Node(key, v) directly, or WithKey the result).
func Root(v Value) ot.Node {
	return valueNode(v)
}

// Node converts v into an OT node tagged with key k, for embedding inside
// a larger object.
func Node(k string, v Value) ot.Node {
	return valueNode(v).WithKey(k)
}

func valueNode(v Value) ot.Node {
	switch v.Kind {
	case KindNone:
		return ot.Null()
	case KindBool:
		return ot.BoolNode(v.Bool)
	case KindInt:
		return ot.Int(int64(v.Int))
	case KindLong:
		return ot.Int(v.Long)
	case KindFloat:
		return ot.Float(float64(v.Float))
	case KindDouble:
		return ot.Float(v.Double)
	case KindString:
		return ot.StringNode(v.Str)
	case KindBytes:
		return ot.StringNode(fmt.Sprintf("<%d bytes>", len(v.Bytes)))
	case KindRectangle:
		return rectangleNode(v)
	case KindFraction:
		return fractionNode(v)
	case KindArray:
		return arrayNode(v)
	case KindStruct:
		return structNode(v)
	case KindObject:
		return objectNode(v)
	case KindChoice:
		return choiceNode(v)
	default:
		return ot.Null()
	}
}

// rectangleNode projects {width, height} flat, per ot_set_pod_rectangle's
// NODE_FLAG_FLAT.
func rectangleNode(v Value) ot.Node {
	fields := []ot.Node{
		ot.Int(int64(v.Rect.Width)).WithKey("width"),
		ot.Int(int64(v.Rect.Height)).WithKey("height"),
	}
	return fixedObject(fields).WithFlags(ot.FlatFlag)
}

// fractionNode projects {num, denom} flat, per ot_set_pod_fraction.
func fractionNode(v Value) ot.Node {
	fields := []ot.Node{
		ot.Int(int64(v.Frac.Num)).WithKey("num"),
		ot.Int(int64(v.Frac.Denom)).WithKey("denom"),
	}
	return fixedObject(fields).WithFlags(ot.FlatFlag)
}

// arrayNode projects a POD array as an OT array, rendered flat iff its
// child kind is "small" scalar data — tree.c's b->child.type <
// SPA_TYPE_Bitmap cutoff, generalised here to "not itself a container or
// choice".
func arrayNode(v Value) ot.Node {
	n := fixedArray(v.Array)
	if v.ArrayChild != KindArray && v.ArrayChild != KindStruct &&
		v.ArrayChild != KindObject && v.ArrayChild != KindChoice {
		n = n.WithFlags(ot.FlatFlag)
	}
	return n
}

func structNode(v Value) ot.Node {
	return fixedArray(v.Struct)
}

// objectNode projects an Object's properties by resolved key name,
// falling back to "*unknown*" for an unresolved one, per
// ot_pod_object_iterate's spa_debug_type_find miss path.
func objectNode(v Value) ot.Node {
	fields := make([]ot.Node, len(v.Object.Props))
	for i, p := range v.Object.Props {
		key := p.Key
		if key == "" {
			key = "*unknown*"
		}
		fields[i] = valueNode(p.Value).WithKey(key)
	}
	return fixedObject(fields)
}

// choiceNode projects a choice body. ChoiceNone never reaches here — a
// Decoder resolves SPA_CHOICE_None choices to their single child value
// directly (ot_set_pod_choice's b->type == SPA_CHOICE_None branch), so
// Root/Node never see Kind == KindChoice with Type == ChoiceNone.
func choiceNode(v Value) ot.Node {
	var labels func(i int) string
	switch v.Choice.Type {
	case ChoiceRange:
		labels = fixedLabels("default", "min", "max")
	case ChoiceStep:
		labels = fixedLabels("default", "min", "max", "step")
	case ChoiceEnum:
		labels = func(i int) string {
			if i == 0 {
				return "default"
			}
			return fmt.Sprintf("alt%d", i-1)
		}
	case ChoiceFlags:
		labels = func(i int) string {
			if i == 0 {
				return "default"
			}
			return fmt.Sprintf("flag%d", i-1)
		}
	default:
		labels = func(i int) string { return fmt.Sprintf("item%d", i) }
	}
	fields := make([]ot.Node, len(v.Choice.Items))
	for i, item := range v.Choice.Items {
		fields[i] = valueNode(item).WithKey(labels(i))
	}
	return fixedObject(fields)
}

func fixedLabels(names ...string) func(int) string {
	return func(i int) string {
		if i < 0 || i >= len(names) {
			return fmt.Sprintf("item%d", i)
		}
		return names[i]
	}
}

// fixedObject/fixedArray wrap a precomputed, already-keyed/indexed slice
// of child nodes as a cursor-index producer — the decoded Value tree is
// fully materialised by the Decoder up front, so no further laziness is
// needed at this layer (unlike the registry adaptor's round-trip-backed
// producers).
func fixedObject(fields []ot.Node) ot.Node {
	return ot.Object(func(cur *ot.Key, out *ot.Node) (int, error) {
		i := cur.Index
		if i < 0 || i >= len(fields) {
			return 0, nil
		}
		*out = fields[i]
		cur.Index = i + 1
		cur.HasStr = false
		return 1, nil
	})
}

func fixedArray(items []Value) ot.Node {
	return ot.Array(func(cur *ot.Key, out *ot.Node) (int, error) {
		i := cur.Index
		if i < 0 || i >= len(items) {
			return 0, nil
		}
		*out = valueNode(items[i]).WithIndex(i)
		cur.Index = i + 1
		return 1, nil
	})
}

// Compare reports whether a and b have the same Kind, returning
// otqerr.ErrIncompatible if not — the one piece of POD "compare" this
// package keeps, since spec §7 names ErrIncompatible explicitly for "a
// filter/compare on structurally mismatched POD (adaptor)"; the
// predicate engine's own Compare (path/predicate) handles the actual
// value ordering once both operands are scalar OT nodes of resolvable
// kind.
func Compare(a, b Value) error {
	if a.Kind != b.Kind {
		return fmt.Errorf("pod: comparing kind %d against kind %d: %w", a.Kind, b.Kind, otqerr.ErrIncompatible)
	}
	return nil
}
