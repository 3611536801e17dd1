package dump

import (
	"strconv"
	"strings"

	"github.com/agentic-research/otquery/ot"
	"github.com/agentic-research/otquery/path/ast"
)

// Path renders a compiled path/ast.Path back to the textual form
// described in spec §4.4, used by the CLI's --verbose echo of the
// parsed path. It is a best-effort reconstruction, not guaranteed to
// round-trip byte-for-byte with the original source (e.g. whitespace
// inside a predicate is not preserved).
func Path(p *ast.Path) string {
	var b strings.Builder
	if p.Relative {
		b.WriteByte('@')
	} else {
		b.WriteByte('$')
	}
	for _, step := range p.Steps {
		writeStep(&b, step)
	}
	return b.String()
}

func writeStep(b *strings.Builder, step ast.Step) {
	switch step.Kind {
	case ast.MatchDeep:
		b.WriteString("..")
	case ast.MatchSlice:
		writeSlice(b, step.Slice)
	case ast.MatchIndex, ast.MatchIndexes:
		b.WriteByte('[')
		for i, idx := range step.Indexes {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(idx))
		}
		b.WriteByte(']')
	case ast.MatchKey, ast.MatchKeys:
		b.WriteByte('[')
		for i, k := range step.Keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('\'')
			b.WriteString(k)
			b.WriteByte('\'')
		}
		b.WriteByte(']')
	}
	if step.Predicate != nil {
		b.WriteString("[?(")
		writeExpr(b, step.Predicate)
		b.WriteString(")]")
	}
}

// writeSlice special-cases the full-wildcard slice ("*", and the
// synthetic slice a bare "[?(...)]" filter selector compiles to) so its
// textual form reads as a wildcard rather than "[0:-1:1]".
func writeSlice(b *strings.Builder, sl ast.Slice) {
	if sl.Start == 0 && sl.End == -1 && sl.Step == 1 {
		b.WriteString("[*]")
		return
	}
	b.WriteByte('[')
	b.WriteString(strconv.Itoa(sl.Start))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(sl.End))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(sl.Step))
	b.WriteByte(']')
}

func writeExpr(b *strings.Builder, e *ast.Expr) {
	switch e.Tag {
	case ast.ExprAnd:
		writeExpr(b, e.Left)
		b.WriteString(" && ")
		writeExpr(b, e.Right)
	case ast.ExprOr:
		writeExpr(b, e.Left)
		b.WriteString(" || ")
		writeExpr(b, e.Right)
	case ast.ExprNot:
		b.WriteByte('!')
		writeExpr(b, e.Left)
	case ast.ExprEq, ast.ExprNeq, ast.ExprLt, ast.ExprLte, ast.ExprGt, ast.ExprGte, ast.ExprRegex:
		writeExpr(b, e.Left)
		b.WriteByte(' ')
		b.WriteString(opSymbol(e.Tag))
		b.WriteByte(' ')
		writeExpr(b, e.Right)
	case ast.ExprLiteral:
		writeLiteral(b, e)
	case ast.ExprSubPath:
		b.WriteString(Path(e.SubPath))
	case ast.ExprFuncCall:
		b.WriteString(e.FuncName)
		b.WriteByte('(')
		for i, arg := range e.FuncArgs {
			if i > 0 {
				b.WriteByte(',')
			}
			writeExpr(b, arg)
		}
		b.WriteByte(')')
	}
}

func opSymbol(tag ast.ExprTag) string {
	switch tag {
	case ast.ExprEq:
		return "=="
	case ast.ExprNeq:
		return "!="
	case ast.ExprLt:
		return "<"
	case ast.ExprLte:
		return "<="
	case ast.ExprGt:
		return ">"
	case ast.ExprGte:
		return ">="
	case ast.ExprRegex:
		return "~="
	default:
		return "?"
	}
}

func writeLiteral(b *strings.Builder, e *ast.Expr) {
	switch e.LiteralKind {
	case ast.LiteralNull:
		b.WriteString("null")
	case ast.LiteralBool:
		if e.BoolVal {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case ast.LiteralNumber:
		b.WriteString(strconv.FormatFloat(e.NumVal, 'g', -1, 64))
	case ast.LiteralString:
		b.WriteByte('\'')
		b.WriteString(e.StrVal)
		b.WriteByte('\'')
	}
}

// Location renders n's absolute position by walking its Parent
// back-reference to the root, per spec §6's "--path" format: one
// "['key']" or "[n]" segment per ancestor, prefixed with "$".
func Location(n *ot.Node) string {
	var segments []string
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.HasStrKey {
			segments = append(segments, "['"+cur.StrKey+"']")
		} else if cur.HasIndex {
			segments = append(segments, "["+strconv.Itoa(cur.Index)+"]")
		}
	}
	var b strings.Builder
	b.WriteByte('$')
	for i := len(segments) - 1; i >= 0; i-- {
		b.WriteString(segments[i])
	}
	return b.String()
}
