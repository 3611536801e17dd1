package jsonstream

import (
	"strconv"

	"github.com/agentic-research/otquery/ot"
	"github.com/agentic-research/otquery/otqerr"
)

// Parse returns a root ot.Node over src. Parsing is incremental: only
// enough of src is scanned to determine the root's kind (and, for
// scalars, its full value); containers return immediately with a
// Producer that advances the shared scanner lazily as the caller
// iterates.
//
// Consequence (spec §4.2, the documented restartability exception):
// because every container produced from this root shares one underlying
// scanner position, a container may be iterated only once, and siblings
// must be iterated in order. Callers needing random access must copy the
// result into a different ot backend first; no package in this module
// provides that copy.
func Parse(src []byte) (ot.Node, error) {
	if len(src) == 0 {
		return ot.Node{}, otqerr.ErrInvalidArgument
	}
	sc := newScanner(src)
	sc.skipWhitespace()
	if sc.eof() {
		return ot.Node{}, &otqerr.ParseErrorAt{Offset: sc.pos, Reason: "empty document"}
	}
	return parseValue(sc)
}

func parseValue(sc *scanner) (ot.Node, error) {
	sc.skipWhitespace()
	if sc.eof() {
		return ot.Node{}, &otqerr.ParseErrorAt{Offset: sc.pos, Reason: "unexpected end of input"}
	}
	switch sc.peek() {
	case '{':
		sc.pos++
		return ot.Object(objectProducer(sc)), nil
	case '[':
		sc.pos++
		return ot.Array(arrayProducer(sc)), nil
	case '"':
		s, err := sc.scanString()
		if err != nil {
			return ot.Node{}, err
		}
		return ot.StringNode(s), nil
	default:
		tok := sc.scanBareToken()
		if tok == "" {
			return ot.Node{}, &otqerr.ParseErrorAt{Offset: sc.pos, Reason: "invalid token"}
		}
		return CoerceToken(tok), nil
	}
}

// CoerceToken implements spec §4.2's scalar coercion: null/true/false
// literals, then a ranged integer parse (values outside signed 32-bit are
// still tagged integer — only the dumper's int flag changes, not the
// float64 storage), then a float parse, then fall back to a string.
// Exported so other adaptors needing the same "bare token" coercion (the
// dict adaptor's string values, per spec §4.3) share one implementation
// rather than reimplementing the cascade.
func CoerceToken(tok string) ot.Node {
	switch tok {
	case "null":
		return ot.Null()
	case "true":
		return ot.BoolNode(true)
	case "false":
		return ot.BoolNode(false)
	}
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return ot.Int(i)
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return ot.Float(f)
	}
	return ot.StringNode(tok)
}

// objectProducer returns the Producer for a '{' already consumed from sc.
// On each call it parses one "key": value member (skipping a leading
// comma after the first member) and writes it into out, or consumes the
// closing '}' and returns 0.
func objectProducer(sc *scanner) ot.Producer {
	first := true
	idx := 0
	return func(cur *ot.Key, out *ot.Node) (int, error) {
		sc.skipWhitespace()
		if sc.eof() {
			return 0, &otqerr.ParseErrorAt{Offset: sc.pos, Reason: "unterminated object"}
		}
		if sc.peek() == '}' {
			sc.pos++
			return 0, nil
		}
		if !first {
			if sc.peek() != ',' {
				return 0, &otqerr.ParseErrorAt{Offset: sc.pos, Reason: "expected ',' or '}'"}
			}
			sc.pos++
			sc.skipWhitespace()
		}
		first = false

		if sc.eof() || sc.peek() != '"' {
			return 0, &otqerr.ParseErrorAt{Offset: sc.pos, Reason: "expected object key"}
		}
		key, err := sc.scanString()
		if err != nil {
			return 0, err
		}
		sc.skipWhitespace()
		if sc.eof() || sc.peek() != ':' {
			return 0, &otqerr.ParseErrorAt{Offset: sc.pos, Reason: "expected ':'"}
		}
		sc.pos++

		val, err := parseValue(sc)
		if err != nil {
			return 0, err
		}
		*out = val.WithKey(key)
		cur.Str = key
		cur.HasStr = true
		cur.Index = idx
		idx++
		return 1, nil
	}
}

// arrayProducer returns the Producer for a '[' already consumed from sc.
func arrayProducer(sc *scanner) ot.Producer {
	first := true
	idx := 0
	return func(cur *ot.Key, out *ot.Node) (int, error) {
		sc.skipWhitespace()
		if sc.eof() {
			return 0, &otqerr.ParseErrorAt{Offset: sc.pos, Reason: "unterminated array"}
		}
		if sc.peek() == ']' {
			sc.pos++
			return 0, nil
		}
		if !first {
			if sc.peek() != ',' {
				return 0, &otqerr.ParseErrorAt{Offset: sc.pos, Reason: "expected ',' or ']'"}
			}
			sc.pos++
		}
		first = false

		val, err := parseValue(sc)
		if err != nil {
			return 0, err
		}
		*out = val.WithIndex(idx)
		cur.Index = idx
		cur.HasStr = false
		idx++
		return 1, nil
	}
}
