// Package ast holds the compiled representation shared by path/parser,
// path/eval, and path/predicate: a Path is an ordered list of Steps, each
// an optional predicate Expr. Keeping these types dependency-free of both
// the evaluator and the predicate engine avoids an import cycle (the
// predicate engine evaluates sub-paths, which are themselves step lists;
// the evaluator dispatches predicates, which are themselves expressions
// over the path domain).
package ast

import "regexp"

// MatchKind is the match-kind discriminant of a compiled Step (spec §3/§4.5).
type MatchKind int

const (
	MatchDeep MatchKind = iota
	MatchSlice
	MatchIndex
	MatchIndexes
	MatchKey
	MatchKeys
)

func (k MatchKind) String() string {
	switch k {
	case MatchDeep:
		return "deep"
	case MatchSlice:
		return "slice"
	case MatchIndex:
		return "index"
	case MatchIndexes:
		return "indexes"
	case MatchKey:
		return "key"
	case MatchKeys:
		return "keys"
	default:
		return "unknown"
	}
}

// Slice is a compiled [start:end:step] specification. End = -1 means "to
// the end"; negative Start/End are translated by the step engine at
// evaluation time, mirroring how ot.Producer translates negative array
// indices.
type Slice struct {
	Start int
	End   int
	Step  int
}

// Step is one element of a compiled path: a match kind plus its operands
// and an optional attached predicate (the parser compiles each "[?(...)]"
// into its own full-slice step carrying the predicate, which then filters
// that step's children).
type Step struct {
	Kind      MatchKind
	Slice     Slice    // valid iff Kind == MatchSlice
	Indexes   []int    // valid iff Kind == MatchIndex (len 1) or MatchIndexes
	Keys      []string // valid iff Kind == MatchKey (len 1) or MatchKeys
	Predicate *Expr    // nil if no "[?(...)]" was attached
}

// Path is a compiled path expression: an ordered Step list plus whether
// the expression was rooted at "@" (relative, evaluated against the
// current step's input) rather than "$" (absolute, evaluated against the
// document root).
type Path struct {
	Steps    []Step
	Relative bool
	// Residual holds any unparsed suffix left over when the parser stopped
	// at an unrecognised token (spec §4.4 error handling) — empty on a
	// fully-parsed path.
	Residual string
}

// ExprTag is the tagged-union discriminant for a predicate Expr (spec §4.6).
type ExprTag int

const (
	ExprEq ExprTag = iota
	ExprNeq
	ExprLt
	ExprLte
	ExprGt
	ExprGte
	ExprAnd
	ExprOr
	ExprNot
	ExprRegex
	ExprLiteral
	ExprSubPath
	ExprFuncCall
)

// Expr is a node in the predicate expression tree. Exactly the fields
// relevant to Tag are populated; see path/predicate for evaluation.
type Expr struct {
	Tag ExprTag

	// Binary/unary operands (Eq, Neq, Lt, Lte, Gt, Gte, And, Or, Not, Regex).
	Left  *Expr
	Right *Expr

	// Literal (ExprLiteral): exactly one of these is meaningful, selected
	// by LiteralKind.
	LiteralKind LiteralKind
	BoolVal     bool
	NumVal      float64
	StrVal      string

	// Regex (ExprRegex): Right must be ExprLiteral/string; Compiled is the
	// POSIX-extended matcher compiled once at parse time.
	Compiled *regexp.Regexp

	// Sub-path (ExprSubPath): an embedded path, "$..." or "@...", evaluated
	// against the current step's input (for "@") or the document root
	// (for "$").
	SubPath *Path

	// Function call (ExprFuncCall, reserved for future extension points
	// named by a path author, e.g. length()); not produced by the current
	// grammar but kept so the tagged union matches spec §3's Expr
	// definition exactly.
	FuncName string
	FuncArgs []*Expr
}

// LiteralKind discriminates an ExprLiteral Expr's payload.
type LiteralKind int

const (
	LiteralNull LiteralKind = iota
	LiteralBool
	LiteralNumber
	LiteralString
)
