// Package parser implements the textual-path-to-compiled-steps grammar of
// spec §4.4. It never panics on malformed input: on an unrecognised
// token, it stops and returns the steps accumulated so far, leaving the
// unparsed suffix in Path.Residual for the caller to inspect (spec's
// explicit "the caller decides whether that is acceptable").
//
// Grammar shape cross-checked against github.com/ohler55/ojg/jp's segment
// vocabulary (slice/union/filter/wildcard, as used by the teacher's
// internal/ingest/json_walker.go) and against
// other_examples/462942f8_ramesharun-ajson__jsonpath.go.go's textual
// command splitting. The scanner itself is hand-written (see DESIGN.md):
// none of the pack's JSONPath libraries stop-and-return-partial on an
// unrecognised token the way this grammar requires.
package parser

import (
	"github.com/agentic-research/otquery/otqerr"
	"github.com/agentic-research/otquery/path/ast"
)

// ParseString compiles a textual path expression into an *ast.Path.
func ParseString(src string) (*ast.Path, error) {
	if src == "" {
		return nil, otqerr.ErrInvalidArgument
	}
	l := newLexer(src)
	l.skipSpaces()
	if l.eof() {
		return nil, &otqerr.ParseErrorAt{Offset: 0, Reason: "empty path"}
	}

	relative := false
	switch l.peek() {
	case '@':
		relative = true
		l.pos++
	case '$':
		l.pos++
	default:
		return nil, &otqerr.ParseErrorAt{Offset: l.pos, Reason: "path must start with '$' or '@'"}
	}

	steps, err := parseSteps(l)
	if err != nil {
		return nil, err
	}

	return &ast.Path{
		Steps:    steps,
		Relative: relative,
		Residual: string(l.src[l.pos:]),
	}, nil
}

// parseSteps consumes as many steps as recognised, leaving l positioned
// at the first unrecognised token (or at eof). A step-expr that is
// recognised but invalid (malformed bracket body, reserved "**") is a
// hard parse error, distinct from simply running out of recognisable
// steps — the latter is the spec §4.4 "stop and return accumulated
// steps" case, the former means the author's intent was identifiable but
// not satisfiable.
func parseSteps(l *lexer) ([]ast.Step, error) {
	var steps []ast.Step
	afterDeep := false
	for {
		save := l.pos
		step, ok, err := tryParseStep(l, afterDeep)
		if err != nil {
			return nil, err
		}
		if !ok {
			l.pos = save
			break
		}
		steps = append(steps, step)
		afterDeep = step.Kind == ast.MatchDeep
	}
	return steps, nil
}

// tryParseStep attempts to consume one step-expr plus its optional
// "[?(...)]" predicate. ok is false (with no position change visible to
// the caller — the caller restores l.pos) when the next token does not
// begin a recognised step. afterDeep is true when the immediately
// preceding step was a "..". "//" recursive descent: a bare key may
// follow such a step with no separator of its own ("$..items", not
// "$...items"), so a bare identifier is accepted here the same as if a
// separator had been seen.
func tryParseStep(l *lexer, afterDeep bool) (ast.Step, bool, error) {
	l.skipSpaces()
	if l.eof() {
		return ast.Step{}, false, nil
	}

	// ".." or "//" -> recursive descent, no separator required.
	if l.consumeString("..") || l.consumeString("//") {
		return ast.Step{Kind: ast.MatchDeep}, true, nil
	}

	sepSeen := false
	if l.peek() == '.' || l.peek() == '/' {
		sepSeen = true
		l.pos++
	}

	if l.eof() {
		return ast.Step{}, false, nil
	}

	switch {
	case l.peek() == '*':
		// "**" is reserved (spec §9 Open Question): the grammar recognises
		// it but no behavior is defined, so it is a hard parse error
		// rather than silently falling back to "*".
		if nxt, ok := l.peekAt(1); ok && nxt == '*' {
			return ast.Step{}, false, &otqerr.ParseErrorAt{Offset: l.pos, Reason: "'**' is reserved and not supported"}
		}
		l.pos++
		return ast.Step{Kind: ast.MatchSlice, Slice: ast.Slice{Start: 0, End: -1, Step: 1}}, true, nil

	case l.peek() == '[':
		return parseBracketStep(l)

	case sepSeen || afterDeep:
		// sep simple-key
		if key, ok := l.scanIdent(); ok {
			return ast.Step{Kind: ast.MatchKey, Keys: []string{key}}, true, nil
		}
		return ast.Step{}, false, nil

	default:
		return ast.Step{}, false, nil
	}
}

// parseBracketStep parses a "[...]" step-expr: either "['esc-key']" or a
// general bracket-body (index list, slice, key list, or wildcard).
func parseBracketStep(l *lexer) (ast.Step, bool, error) {
	start := l.pos
	if !l.consumeByte('[') {
		return ast.Step{}, false, nil
	}
	l.skipSpaces()

	// "[?(condition)]" filter selector: per spec §4.4 "a trailing [?(...)]
	// attaches a predicate to the most recent step" — here "most recent
	// step" is this synthetic full-slice step itself, since a filter
	// selector with no preceding explicit wildcard still means "iterate
	// my input's children and keep the ones matching condition" (spec
	// §4.6: the expression is evaluated against each candidate the step
	// produces, so the step must itself be a full iteration, not a
	// single-candidate selector).
	if !l.eof() && l.peek() == '?' {
		l.pos++
		l.skipSpaces()
		hasParen := l.consumeByte('(')
		cond, err := parseCondition(l)
		if err != nil {
			return ast.Step{}, false, err
		}
		l.skipSpaces()
		if hasParen && !l.consumeByte(')') {
			return ast.Step{}, false, &otqerr.ParseErrorAt{Offset: l.pos, Reason: "expected ')'"}
		}
		l.skipSpaces()
		if !l.consumeByte(']') {
			return ast.Step{}, false, &otqerr.ParseErrorAt{Offset: l.pos, Reason: "expected ']' to close filter"}
		}
		return ast.Step{Kind: ast.MatchSlice, Slice: ast.Slice{Start: 0, End: -1, Step: 1}, Predicate: cond}, true, nil
	}

	// "['esc-key']" single-quoted key form.
	if !l.eof() && (l.peek() == '\'' || l.peek() == '"') {
		key, ok := l.scanQuoted(l.peek())
		if !ok {
			l.pos = start
			return ast.Step{}, false, &otqerr.ParseErrorAt{Offset: l.pos, Reason: "unterminated quoted key"}
		}
		keys := []string{key}
		l.skipSpaces()
		for l.consumeByte(',') {
			l.skipSpaces()
			if l.eof() || (l.peek() != '\'' && l.peek() != '"') {
				return ast.Step{}, false, &otqerr.ParseErrorAt{Offset: l.pos, Reason: "expected quoted key"}
			}
			k, ok := l.scanQuoted(l.peek())
			if !ok {
				return ast.Step{}, false, &otqerr.ParseErrorAt{Offset: l.pos, Reason: "unterminated quoted key"}
			}
			keys = append(keys, k)
			l.skipSpaces()
		}
		if !l.consumeByte(']') {
			return ast.Step{}, false, &otqerr.ParseErrorAt{Offset: l.pos, Reason: "expected ']'"}
		}
		if len(keys) == 1 {
			return ast.Step{Kind: ast.MatchKey, Keys: keys}, true, nil
		}
		return ast.Step{Kind: ast.MatchKeys, Keys: keys}, true, nil
	}

	// Wildcard forms.
	if !l.eof() && l.peek() == '*' {
		if nxt, ok := l.peekAt(1); ok && nxt == '*' {
			return ast.Step{}, false, &otqerr.ParseErrorAt{Offset: l.pos, Reason: "'**' is reserved and not supported"}
		}
		l.pos++
		l.skipSpaces()
		if !l.consumeByte(']') {
			return ast.Step{}, false, &otqerr.ParseErrorAt{Offset: l.pos, Reason: "expected ']'"}
		}
		return ast.Step{Kind: ast.MatchSlice, Slice: ast.Slice{Start: 0, End: -1, Step: 1}}, true, nil
	}

	// Numeric forms: index list or slice.
	first, ok := l.scanInt()
	if !ok {
		return ast.Step{}, false, &otqerr.ParseErrorAt{Offset: l.pos, Reason: "expected index, slice, or key inside '[...]'"}
	}
	l.skipSpaces()

	if l.consumeByte(':') {
		sl := ast.Slice{Start: first, End: -1, Step: 1}
		l.skipSpaces()
		if v, ok := l.scanInt(); ok {
			sl.End = v
			l.skipSpaces()
		}
		if l.consumeByte(':') {
			l.skipSpaces()
			if v, ok := l.scanInt(); ok {
				sl.Step = v
				l.skipSpaces()
			}
		}
		if !l.consumeByte(']') {
			return ast.Step{}, false, &otqerr.ParseErrorAt{Offset: l.pos, Reason: "expected ']'"}
		}
		return ast.Step{Kind: ast.MatchSlice, Slice: sl}, true, nil
	}

	indexes := []int{first}
	for l.consumeByte(',') {
		l.skipSpaces()
		v, ok := l.scanInt()
		if !ok {
			return ast.Step{}, false, &otqerr.ParseErrorAt{Offset: l.pos, Reason: "expected index"}
		}
		indexes = append(indexes, v)
		l.skipSpaces()
	}
	if !l.consumeByte(']') {
		return ast.Step{}, false, &otqerr.ParseErrorAt{Offset: l.pos, Reason: "expected ']'"}
	}
	if len(indexes) == 1 {
		return ast.Step{Kind: ast.MatchIndex, Indexes: indexes}, true, nil
	}
	return ast.Step{Kind: ast.MatchIndexes, Indexes: indexes}, true, nil
}

