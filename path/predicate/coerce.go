package predicate

import (
	"math"
	"strconv"

	"github.com/agentic-research/otquery/ot"
)

// Outcome is the total-function result of comparing two scalar Nodes,
// encoding the coercion table of spec §4.6 as a single ordered-outcome
// tag. All comparison operators (eq/neq/lt/lte/gt/gte) are pure functions
// of this tag, avoiding the ambiguous cascade of conditionals spec §9
// flags as a pattern to re-architect.
//
// Grounded on the teacher's internal/lattice/infer.go type-lattice
// join/meet dispatch (a total function over a small tag set).
type Outcome int

const (
	Equal Outcome = iota
	Less
	Greater
	Unordered
)

// Compare implements the §4.6 coercion table.
func Compare(a, b ot.Node) Outcome {
	switch {
	case a.Kind == ot.KindNull && b.Kind == ot.KindNull:
		return Equal
	case a.Kind == ot.KindNumber && b.Kind == ot.KindNull:
		return compareFloats(a.Num, numericCoerce(b))
	case a.Kind == ot.KindNull || b.Kind == ot.KindNull:
		return Unordered
	case a.Kind == ot.KindString && b.Kind == ot.KindString:
		return compareStrings(a.Str, b.Str)
	case a.Kind == ot.KindNumber && b.Kind == ot.KindNumber:
		return compareFloats(a.Num, b.Num)
	case a.Kind == ot.KindNumber && b.Kind != ot.KindNumber:
		return compareFloats(a.Num, numericCoerce(b))
	case a.Kind != ot.KindNumber && b.Kind == ot.KindNumber:
		return compareFloats(numericCoerce(a), b.Num)
	case a.Kind == ot.KindBool && b.Kind == ot.KindBool:
		return compareBools(a.Bool, b.Bool)
	default:
		// "other mixed: fall back to boolean-interpretation compare;
		// equal iff same truth".
		if ToBool(a) == ToBool(b) {
			return Equal
		}
		return Unordered
	}
}

func compareStrings(a, b string) Outcome {
	// "lexicographic by bytes, ties by length" — Go's native string
	// comparison is already byte-lexicographic; the length tie-break is
	// subsumed because a proper byte-prefix of a longer string always
	// compares Less under lexicographic order already.
	switch {
	case a == b:
		return Equal
	case a < b:
		return Less
	default:
		return Greater
	}
}

func compareFloats(a, b float64) Outcome {
	if math.IsNaN(a) || math.IsNaN(b) {
		return Unordered
	}
	switch {
	case a == b:
		return Equal
	case a < b:
		return Less
	default:
		return Greater
	}
}

func compareBools(a, b bool) Outcome {
	switch {
	case a == b:
		return Equal
	case !a && b:
		return Less
	default:
		return Greater
	}
}

// numericCoerce implements "numeric coerce other (string->double, bool->0/1,
// null->0)"; a non-numeric string that fails to parse coerces to NaN,
// which Compare then treats as Unordered.
func numericCoerce(n ot.Node) float64 {
	switch n.Kind {
	case ot.KindString:
		f, err := strconv.ParseFloat(n.Str, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case ot.KindBool:
		if n.Bool {
			return 1
		}
		return 0
	case ot.KindNull:
		return 0
	default:
		return math.NaN()
	}
}

// ToBool implements the §4.6 boolean-coercion table used by logical
// operators, "!" negation, and a bare term used as a whole condition.
func ToBool(n ot.Node) bool {
	switch n.Kind {
	case ot.KindNull:
		return false
	case ot.KindBool:
		return n.Bool
	case ot.KindNumber:
		return n.Num != 0 && !math.IsNaN(n.Num)
	case ot.KindString:
		return n.Str != ""
	case ot.KindArray:
		if n.Flags&ot.MultiFlag != 0 {
			return multiHasAnyChild(n)
		}
		return arrayNonEmpty(n)
	case ot.KindObject:
		return true
	default:
		return false
	}
}

func arrayNonEmpty(n ot.Node) bool {
	cur := ot.ZeroKey()
	var out ot.Node
	count, err := ot.Iterate(&n, &cur, &out)
	return err == nil && count > 0
}

func multiHasAnyChild(n ot.Node) bool {
	return arrayNonEmpty(n)
}
