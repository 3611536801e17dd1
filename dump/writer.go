package dump

import (
	"io"
	"strconv"

	"github.com/agentic-research/otquery/ot"
)

// Writer renders ot.Node trees to an underlying io.Writer.
type Writer struct {
	w               io.Writer
	style           styler
	expensiveCutoff int
	expensiveSeen   int
}

// Option configures a Writer.
type Option func(*Writer)

// WithExpensiveCutoff sets how many ExpensiveFlag containers may be
// entered before further ones are elided as empty (spec §4.7). Zero (the
// default) means no cutoff — every expensive container is expanded.
func WithExpensiveCutoff(n int) Option {
	return func(wr *Writer) { wr.expensiveCutoff = n }
}

// New builds a Writer over w, auto-detecting ANSI support via isTTY.
func New(w io.Writer, opts ...Option) *Writer {
	wr := &Writer{w: w, style: stylerFor(w)}
	for _, opt := range opts {
		opt(wr)
	}
	return wr
}

// Dump renders n as indented JSON with a two-space indent per level.
func (wr *Writer) Dump(n ot.Node) error {
	return wr.dumpValue(n, 0)
}

func (wr *Writer) dumpValue(n ot.Node, depth int) error {
	switch n.Kind {
	case ot.KindNull:
		return wr.emit(wr.style.null("null"))
	case ot.KindBool:
		if n.Bool {
			return wr.emit(wr.style.boolean("true"))
		}
		return wr.emit(wr.style.boolean("false"))
	case ot.KindNumber:
		return wr.emit(wr.style.number(formatNumber(n)))
	case ot.KindString:
		return wr.emit(wr.style.str(quote(n.Str)))
	case ot.KindArray:
		return wr.dumpContainer(n, depth, '[', ']')
	case ot.KindObject:
		return wr.dumpContainer(n, depth, '{', '}')
	default:
		return wr.emit(wr.style.null("null"))
	}
}

// formatNumber implements spec §4.7/§8 scenario 1's literal rule:
// int-flagged numbers render with no fractional digits, everything else
// renders fixed at 5 digits after the decimal point.
func formatNumber(n ot.Node) string {
	if n.Flags&ot.IntFlag != 0 {
		return strconv.FormatInt(int64(n.Num), 10)
	}
	return strconv.FormatFloat(n.Num, 'f', 5, 64)
}

// quote wraps s in double quotes without re-escaping its contents: the
// parser that produced s already validated UTF-8 (spec §6 "Dump
// format").
func quote(s string) string { return `"` + s + `"` }

// dumpContainer renders an array or object. Non-flat containers put one
// child per line at depth+1; flat containers stay on one line, separated
// by ", " with a single space after the opening and before the closing
// bracket.
func (wr *Writer) dumpContainer(n ot.Node, depth int, open, closeByte byte) error {
	flat := n.Flags&ot.FlatFlag != 0

	if n.Flags&ot.ExpensiveFlag != 0 {
		wr.expensiveSeen++
		if wr.expensiveCutoff > 0 && wr.expensiveSeen > wr.expensiveCutoff {
			return wr.emit(wr.style.punct(string(open) + string(closeByte)))
		}
	}

	if err := wr.emit(wr.style.punct(string(open))); err != nil {
		return err
	}

	cur := ot.ZeroKey()
	count := 0
	for {
		var child ot.Node
		n1, err := ot.Iterate(&n, &cur, &child)
		if err != nil {
			return err
		}
		if n1 == 0 {
			break
		}

		if count == 0 {
			if err := wr.separator(flat, depth+1); err != nil {
				return err
			}
		} else {
			if err := wr.emit(wr.style.punct(",")); err != nil {
				return err
			}
			if err := wr.separator(flat, depth+1); err != nil {
				return err
			}
		}
		count++

		if n.Kind == ot.KindObject && child.Flags&ot.NoKeyFlag == 0 {
			prefix := wr.style.key(quote(child.StrKey)) + wr.style.punct(":") + " "
			if err := wr.emit(prefix); err != nil {
				return err
			}
		}
		if err := wr.dumpValue(child, depth+1); err != nil {
			return err
		}
	}

	if count > 0 {
		if err := wr.separator(flat, depth); err != nil {
			return err
		}
	}
	return wr.emit(wr.style.punct(string(closeByte)))
}

// separator writes the whitespace between a container's bracket/comma
// and its next element: a single space for a flat container, a newline
// plus two-space-per-level indent otherwise.
func (wr *Writer) separator(flat bool, depth int) error {
	if flat {
		return wr.emit(" ")
	}
	if _, err := io.WriteString(wr.w, "\n"); err != nil {
		return err
	}
	for i := 0; i < depth; i++ {
		if _, err := io.WriteString(wr.w, "  "); err != nil {
			return err
		}
	}
	return nil
}

func (wr *Writer) emit(s string) error {
	_, err := io.WriteString(wr.w, s)
	return err
}
