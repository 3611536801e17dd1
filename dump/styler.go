// Package dump renders an ot.Node tree as indented JSON (spec §4.7): a
// Writer walks the tree, honoring the Flat/Expensive/NoKey/Int flags
// carried on each Node, and optionally wraps each literal category in
// ANSI color when the destination is a terminal. It also renders a
// compiled path/ast.Path back to its textual form, and a Node's absolute
// location by walking its Parent chain to the root — both used by the
// CLI's --verbose and --path modes.
package dump

import (
	"io"

	"github.com/mattn/go-isatty"
)

// styler wraps literal text in the surrounding style (or not) for one of
// the categories spec §4.7 calls out: punctuation, null, bool, number,
// string, key.
type styler interface {
	punct(s string) string
	null(s string) string
	boolean(s string) string
	number(s string) string
	str(s string) string
	key(s string) string
}

type plainStyler struct{}

func (plainStyler) punct(s string) string   { return s }
func (plainStyler) null(s string) string    { return s }
func (plainStyler) boolean(s string) string { return s }
func (plainStyler) number(s string) string  { return s }
func (plainStyler) str(s string) string     { return s }
func (plainStyler) key(s string) string     { return s }

// ansiStyler assigns each category a distinct SGR code, matching the
// category set named in §4.7 one-for-one rather than reusing a single
// "value" color for everything.
type ansiStyler struct{}

const (
	ansiReset  = "\x1b[0m"
	ansiPunct  = "\x1b[2m"  // dim
	ansiNull   = "\x1b[90m" // bright black
	ansiBool   = "\x1b[35m" // magenta
	ansiNumber = "\x1b[36m" // cyan
	ansiString = "\x1b[32m" // green
	ansiKey    = "\x1b[34m" // blue
)

func wrap(code, s string) string { return code + s + ansiReset }

func (ansiStyler) punct(s string) string   { return wrap(ansiPunct, s) }
func (ansiStyler) null(s string) string    { return wrap(ansiNull, s) }
func (ansiStyler) boolean(s string) string { return wrap(ansiBool, s) }
func (ansiStyler) number(s string) string  { return wrap(ansiNumber, s) }
func (ansiStyler) str(s string) string     { return wrap(ansiString, s) }
func (ansiStyler) key(s string) string     { return wrap(ansiKey, s) }

// stylerFor picks plain or ANSI styling: an *os.File destination is
// checked via go-isatty; anything else (a pipe, a bytes.Buffer in
// tests) gets plain output.
func stylerFor(w io.Writer) styler {
	if isTTY(w) {
		return ansiStyler{}
	}
	return plainStyler{}
}

type fdHaver interface {
	Fd() uintptr
}

func isTTY(w io.Writer) bool {
	f, ok := w.(fdHaver)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
