// Package predicate evaluates the filter-condition AST produced by
// path/parser (spec §4.6). It has no dependency on path/eval: a sub-path
// inside a condition ("$..." or "@...") is resolved through the
// SubPathEvaluator callback injected by the caller, breaking what would
// otherwise be an import cycle between the step engine and the
// expression evaluator (see DESIGN.md).
package predicate

import (
	"github.com/agentic-research/otquery/ot"
	"github.com/agentic-research/otquery/path/ast"
)

// SubPathEvaluator resolves a compiled sub-path against either the
// overall query root (absolute, "$...") or the candidate currently under
// test (relative, "@..."), returning a node carrying every match. The
// returned node is expected to behave like the "multi" array described
// in spec §4.3: a container whose children are the individual matches,
// tagged with ot.MultiFlag.
type SubPathEvaluator func(sub *ast.Path, candidate ot.Node) ot.Node

// Context carries the two node references an expression may refer to
// plus the callback used to resolve sub-paths.
type Context struct {
	Candidate ot.Node
	RunPath   SubPathEvaluator
}

// EvalBool evaluates expr as a whole condition, returning its truth
// value. This is the entry point path/eval calls once per candidate
// produced by a predicate-bearing step.
func EvalBool(expr *ast.Expr, ctx Context) bool {
	if expr == nil {
		return false
	}
	switch expr.Tag {
	case ast.ExprAnd:
		return EvalBool(expr.Left, ctx) && EvalBool(expr.Right, ctx)
	case ast.ExprOr:
		return EvalBool(expr.Left, ctx) || EvalBool(expr.Right, ctx)
	case ast.ExprNot:
		return !EvalBool(expr.Left, ctx)
	case ast.ExprEq, ast.ExprNeq, ast.ExprLt, ast.ExprLte, ast.ExprGt, ast.ExprGte:
		return evalComparison(expr, ctx)
	case ast.ExprRegex:
		return evalRegex(expr, ctx)
	default:
		// A bare value-producing term used standalone as a condition
		// (literal, sub-path, or function call): truthiness per §4.6.
		return ToBool(evalValue(expr, ctx))
	}
}

// evalValue resolves a value-producing expression node (literal,
// sub-path, function call) to a single ot.Node. For sub-paths this may
// be a multi-valued container; evalComparison/evalRegex expand it.
func evalValue(expr *ast.Expr, ctx Context) ot.Node {
	switch expr.Tag {
	case ast.ExprLiteral:
		return literalNode(expr)
	case ast.ExprSubPath:
		if ctx.RunPath == nil {
			return ot.Null()
		}
		return ctx.RunPath(expr.SubPath, ctx.Candidate)
	case ast.ExprFuncCall:
		// No named functions are defined by spec §4.6; reserved for
		// future extension, evaluates to null (falsy) until then.
		return ot.Null()
	default:
		// A logical/comparison sub-expression used where a value was
		// expected (e.g. "(@.a==1) == true"): coerce its truth to a bool
		// node so comparisons can still operate on it.
		return ot.BoolNode(EvalBool(expr, ctx))
	}
}

func literalNode(expr *ast.Expr) ot.Node {
	switch expr.LiteralKind {
	case ast.LiteralNull:
		return ot.Null()
	case ast.LiteralBool:
		return ot.BoolNode(expr.BoolVal)
	case ast.LiteralNumber:
		return ot.Float(expr.NumVal)
	case ast.LiteralString:
		return ot.StringNode(expr.StrVal)
	default:
		return ot.Null()
	}
}

// evalComparison implements the §4.6 multi-value existential join: a
// comparison between two (possibly multi-valued) operands holds if ANY
// pairing of alternatives from the left and right value sets satisfies
// it. A single-valued operand behaves as if it were a one-element set,
// so the join degenerates to the ordinary scalar comparison in the
// common case.
func evalComparison(expr *ast.Expr, ctx Context) bool {
	lefts := collectValues(evalValue(expr.Left, ctx))
	rights := collectValues(evalValue(expr.Right, ctx))
	for _, l := range lefts {
		for _, r := range rights {
			if satisfies(expr.Tag, Compare(l, r)) {
				return true
			}
		}
	}
	return false
}

func satisfies(tag ast.ExprTag, outcome Outcome) bool {
	switch tag {
	case ast.ExprEq:
		return outcome == Equal
	case ast.ExprNeq:
		return outcome != Equal
	case ast.ExprLt:
		return outcome == Less
	case ast.ExprLte:
		return outcome == Less || outcome == Equal
	case ast.ExprGt:
		return outcome == Greater
	case ast.ExprGte:
		return outcome == Greater || outcome == Equal
	default:
		return false
	}
}

// evalRegex implements "~=": the right operand must be a string literal
// (enforced at parse time, see path/parser/condition.go), matched against
// every alternative of the left operand's value set via POSIX extended
// regexp substring search (spec §4.6: "matches if the compiled pattern
// finds any match within the string, not just a full-string match").
func evalRegex(expr *ast.Expr, ctx Context) bool {
	if expr.Compiled == nil {
		return false
	}
	lefts := collectValues(evalValue(expr.Left, ctx))
	for _, l := range lefts {
		if l.Kind != ot.KindString {
			continue
		}
		if expr.Compiled.MatchString(l.Str) {
			return true
		}
	}
	return false
}

// collectValues expands a node into its set of comparison alternatives.
// A sub-path's result is always wrapped in a "multi" array (spec §4.5);
// unwrapping it recovers the actual matches. When a match is itself a
// plain JSON array — e.g. "@.a" matching an array-valued field — its
// elements are the natural set of alternatives for the existential join
// described in spec §8 scenario 6 ("@.a == @.b" is true because the two
// arrays share an element), so array nodes are unwrapped recursively
// until a non-array value is reached. A non-array node is returned as
// its own one-element set, which is what makes the join degenerate
// correctly for ordinary single-valued operands.
func collectValues(n ot.Node) []ot.Node {
	if n.Kind != ot.KindArray {
		return []ot.Node{n}
	}
	var out []ot.Node
	cur := ot.ZeroKey()
	for {
		var child ot.Node
		count, err := ot.Iterate(&n, &cur, &child)
		if err != nil || count <= 0 {
			break
		}
		out = append(out, collectValues(child)...)
	}
	return out
}
