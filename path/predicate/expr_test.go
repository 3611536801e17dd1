package predicate

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/otquery/ot"
	"github.com/agentic-research/otquery/path/ast"
)

// multiOf builds a "multi" array node over a fixed slice, standing in for
// a sub-path evaluation result without depending on path/eval (which
// itself depends on this package).
func multiOf(values ...ot.Node) ot.Node {
	return ot.Array(func(cur *ot.Key, out *ot.Node) (int, error) {
		if cur.Index < 0 || cur.Index >= len(values) {
			return 0, nil
		}
		*out = values[cur.Index]
		cur.Index++
		return 1, nil
	}).WithFlags(ot.MultiFlag)
}

func literal(k ast.LiteralKind, s string, f float64, b bool) *ast.Expr {
	return &ast.Expr{Tag: ast.ExprLiteral, LiteralKind: k, StrVal: s, NumVal: f, BoolVal: b}
}

func numLit(v float64) *ast.Expr    { return literal(ast.LiteralNumber, "", v, false) }
func strLit(v string) *ast.Expr     { return literal(ast.LiteralString, v, 0, false) }
func boolLit(v bool) *ast.Expr      { return literal(ast.LiteralBool, "", 0, v) }
func nullLit() *ast.Expr            { return literal(ast.LiteralNull, "", 0, false) }

func TestEvalBool_LiteralComparisons(t *testing.T) {
	ctx := Context{}
	assert.True(t, EvalBool(&ast.Expr{Tag: ast.ExprEq, Left: numLit(3), Right: numLit(3)}, ctx))
	assert.False(t, EvalBool(&ast.Expr{Tag: ast.ExprEq, Left: numLit(3), Right: numLit(4)}, ctx))
	assert.True(t, EvalBool(&ast.Expr{Tag: ast.ExprLt, Left: numLit(3), Right: numLit(4)}, ctx))
	assert.True(t, EvalBool(&ast.Expr{Tag: ast.ExprGte, Left: numLit(4), Right: numLit(4)}, ctx))
	assert.True(t, EvalBool(&ast.Expr{Tag: ast.ExprNeq, Left: nullLit(), Right: numLit(0)}, ctx))
}

func TestEvalBool_LogicalOperators(t *testing.T) {
	ctx := Context{}
	tru := &ast.Expr{Tag: ast.ExprEq, Left: numLit(1), Right: numLit(1)}
	fls := &ast.Expr{Tag: ast.ExprEq, Left: numLit(1), Right: numLit(2)}

	assert.True(t, EvalBool(&ast.Expr{Tag: ast.ExprAnd, Left: tru, Right: tru}, ctx))
	assert.False(t, EvalBool(&ast.Expr{Tag: ast.ExprAnd, Left: tru, Right: fls}, ctx))
	assert.True(t, EvalBool(&ast.Expr{Tag: ast.ExprOr, Left: fls, Right: tru}, ctx))
	assert.False(t, EvalBool(&ast.Expr{Tag: ast.ExprOr, Left: fls, Right: fls}, ctx))
	assert.True(t, EvalBool(&ast.Expr{Tag: ast.ExprNot, Left: fls}, ctx))
	assert.False(t, EvalBool(&ast.Expr{Tag: ast.ExprNot, Left: boolLit(true)}, ctx))
}

func TestEvalBool_BareTermTruthiness(t *testing.T) {
	ctx := Context{}
	assert.True(t, EvalBool(strLit("non-empty"), ctx))
	assert.False(t, EvalBool(strLit(""), ctx))
	assert.False(t, EvalBool(nullLit(), ctx))
}

func TestEvalBool_SubPathResolvesViaCallback(t *testing.T) {
	called := false
	ctx := Context{
		Candidate: ot.StringNode("ignored"),
		RunPath: func(sub *ast.Path, candidate ot.Node) ot.Node {
			called = true
			assert.True(t, sub.Relative)
			return multiOf(ot.Float(7))
		},
	}
	sub := &ast.Expr{Tag: ast.ExprSubPath, SubPath: &ast.Path{Relative: true}}
	assert.True(t, EvalBool(&ast.Expr{Tag: ast.ExprEq, Left: sub, Right: numLit(7)}, ctx))
	assert.True(t, called)
}

func TestEvalBool_MultiValueCrossProduct(t *testing.T) {
	left := &ast.Expr{Tag: ast.ExprSubPath, SubPath: &ast.Path{Relative: true}}
	right := &ast.Expr{Tag: ast.ExprSubPath, SubPath: &ast.Path{Relative: true}}

	ctx := Context{RunPath: func(sub *ast.Path, candidate ot.Node) ot.Node {
		return multiOf(ot.Float(1), ot.Float(2))
	}}
	// {1,2} == {1,2}: shares element 1 (and 2), so existential eq holds.
	assert.True(t, EvalBool(&ast.Expr{Tag: ast.ExprEq, Left: left, Right: right}, ctx))

	ctxDisjoint := Context{RunPath: func(sub *ast.Path, candidate ot.Node) ot.Node {
		return multiOf(ot.Float(5), ot.Float(6))
	}}
	assert.False(t, EvalBool(&ast.Expr{Tag: ast.ExprEq, Left: numLit(1), Right: right}, ctxDisjoint))
}

func TestEvalRegex_SubstringMatch(t *testing.T) {
	re := regexp.MustCompilePOSIX("foo")
	expr := &ast.Expr{Tag: ast.ExprRegex, Left: strLit("foobar"), Compiled: re}
	assert.True(t, EvalBool(expr, Context{}))

	exprNoMatch := &ast.Expr{Tag: ast.ExprRegex, Left: strLit("baz"), Compiled: re}
	assert.False(t, EvalBool(exprNoMatch, Context{}))
}

func TestCollectValues_FlattensNestedArrays(t *testing.T) {
	n := multiOf(ot.Array(func(cur *ot.Key, out *ot.Node) (int, error) {
		vals := []ot.Node{ot.Float(1), ot.Float(2)}
		if cur.Index < 0 || cur.Index >= len(vals) {
			return 0, nil
		}
		*out = vals[cur.Index]
		cur.Index++
		return 1, nil
	}))
	got := collectValues(n)
	require.Len(t, got, 2)
	assert.Equal(t, float64(1), got[0].Num)
	assert.Equal(t, float64(2), got[1].Num)
}
