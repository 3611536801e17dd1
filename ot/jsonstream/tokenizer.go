// Package jsonstream implements the incremental, non-validating-ahead JSON
// parser described in spec §4.2. Instead of building an AST, it exposes
// the document as an ot.Node tree whose container Producer advances a
// cursor through the source byte slice and materialises children on
// demand.
//
// Grounded on the teacher's internal/ingest/sitter_flatten.go (walking an
// already-tokenized structure incrementally) combined with the pack's
// other_examples/d9b12d34_mcvoid-json__parser.go.go hand-rolled tokenizer
// for the literal state-machine shape. Pure stdlib: encoding/json and
// ojg/oj both materialise a whole value per call and cannot expose a
// mid-parse cursor, which is the entire point of this package (see
// DESIGN.md).
package jsonstream

import "github.com/agentic-research/otquery/otqerr"

// tokState is the tokenizer's state, named after spec §4.2's states.
type tokState int

const (
	stateNone tokState = iota
	stateStruct
	stateBare
	stateString
	stateUTF8
	stateEsc
)

// scanner walks a byte slice, one token at a time, tracking UTF-8
// continuation bytes and aborting on any byte outside the permitted
// ranges.
type scanner struct {
	src []byte
	pos int
}

func newScanner(src []byte) *scanner {
	return &scanner{src: src}
}

// skipWhitespace advances pos past JSON insignificant whitespace.
func (s *scanner) skipWhitespace() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case ' ', '\t', '\n', '\r':
			s.pos++
		default:
			return
		}
	}
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() byte { return s.src[s.pos] }

// utf8ContinuationLen returns how many continuation bytes follow a lead
// byte, or -1 if the lead byte is not a valid UTF-8 lead byte.
func utf8ContinuationLen(b byte) int {
	switch {
	case b&0x80 == 0x00:
		return 0
	case b&0xE0 == 0xC0:
		return 1
	case b&0xF0 == 0xE0:
		return 2
	case b&0xF8 == 0xF0:
		return 3
	default:
		return -1
	}
}

// scanString consumes a JSON string literal starting at the opening
// quote (s.pos points at '"'). It validates UTF-8 and processes escapes,
// returning the decoded string and leaving s.pos just past the closing
// quote.
func (s *scanner) scanString() (string, error) {
	if s.eof() || s.src[s.pos] != '"' {
		return "", &otqerr.ParseErrorAt{Offset: s.pos, Reason: "expected '\"'"}
	}
	start := s.pos
	s.pos++
	state := stateString
	var needContinuation int
	var buf []byte
	literalStart := s.pos

	flush := func(end int) {
		buf = append(buf, s.src[literalStart:end]...)
	}

	for s.pos < len(s.src) {
		b := s.src[s.pos]
		switch state {
		case stateString:
			switch {
			case b == '"':
				flush(s.pos)
				s.pos++
				return string(buf), nil
			case b == '\\':
				flush(s.pos)
				state = stateEsc
				s.pos++
			case b < 0x20:
				return "", &otqerr.ParseErrorAt{Offset: s.pos, Reason: "control byte in string"}
			case b < 0x80:
				s.pos++
			default:
				n := utf8ContinuationLen(b)
				if n <= 0 {
					return "", &otqerr.ParseErrorAt{Offset: s.pos, Reason: "invalid UTF-8 lead byte"}
				}
				needContinuation = n
				state = stateUTF8
				s.pos++
			}
		case stateUTF8:
			if b&0xC0 != 0x80 {
				return "", &otqerr.ParseErrorAt{Offset: s.pos, Reason: "invalid UTF-8 continuation byte"}
			}
			needContinuation--
			s.pos++
			if needContinuation == 0 {
				state = stateString
			}
		case stateEsc:
			switch b {
			case '"', '\\', '/':
				buf = append(buf, b)
			case 'b':
				buf = append(buf, '\b')
			case 'f':
				buf = append(buf, '\f')
			case 'n':
				buf = append(buf, '\n')
			case 'r':
				buf = append(buf, '\r')
			case 't':
				buf = append(buf, '\t')
			case 'u':
				r, err := s.scanUnicodeEscape()
				if err != nil {
					return "", err
				}
				buf = appendRune(buf, r)
				literalStart = s.pos
				state = stateString
				continue
			default:
				return "", &otqerr.ParseErrorAt{Offset: s.pos, Reason: "invalid escape"}
			}
			s.pos++
			literalStart = s.pos
			state = stateString
		}
	}
	return "", &otqerr.ParseErrorAt{Offset: start, Reason: "unterminated string"}
}

func appendRune(buf []byte, r rune) []byte {
	if r < 0x80 {
		return append(buf, byte(r))
	}
	// Minimal UTF-8 encode without importing unicode/utf8 twice; correctness
	// for the BMP range  -￿ handled here, surrogate pairs are
	// merged by the caller before this is invoked.
	tmp := make([]byte, 4)
	n := encodeRune(tmp, r)
	return append(buf, tmp[:n]...)
}

// encodeRune is a minimal UTF-8 encoder, so this package needs no
// unicode/utf8 import.
func encodeRune(dst []byte, r rune) int {
	switch {
	case r < 0x80:
		dst[0] = byte(r)
		return 1
	case r < 0x800:
		dst[0] = 0xC0 | byte(r>>6)
		dst[1] = 0x80 | byte(r&0x3F)
		return 2
	case r < 0x10000:
		dst[0] = 0xE0 | byte(r>>12)
		dst[1] = 0x80 | byte((r>>6)&0x3F)
		dst[2] = 0x80 | byte(r&0x3F)
		return 3
	default:
		dst[0] = 0xF0 | byte(r>>18)
		dst[1] = 0x80 | byte((r>>12)&0x3F)
		dst[2] = 0x80 | byte((r>>6)&0x3F)
		dst[3] = 0x80 | byte(r&0x3F)
		return 4
	}
}

func (s *scanner) scanUnicodeEscape() (rune, error) {
	r, err := s.scan4Hex()
	if err != nil {
		return 0, err
	}
	if r >= 0xD800 && r <= 0xDBFF {
		// High surrogate: require a following \uXXXX low surrogate.
		if s.pos+1 < len(s.src) && s.src[s.pos] == '\\' && s.src[s.pos+1] == 'u' {
			s.pos += 2
			low, err := s.scan4Hex()
			if err != nil {
				return 0, err
			}
			if low < 0xDC00 || low > 0xDFFF {
				return 0, &otqerr.ParseErrorAt{Offset: s.pos, Reason: "invalid low surrogate"}
			}
			return ((r - 0xD800) << 10) + (low - 0xDC00) + 0x10000, nil
		}
		return 0xFFFD, nil
	}
	return r, nil
}

func (s *scanner) scan4Hex() (rune, error) {
	if s.pos+4 > len(s.src) {
		return 0, &otqerr.ParseErrorAt{Offset: s.pos, Reason: "truncated \\u escape"}
	}
	var v rune
	for i := 0; i < 4; i++ {
		b := s.src[s.pos+i]
		var d rune
		switch {
		case b >= '0' && b <= '9':
			d = rune(b - '0')
		case b >= 'a' && b <= 'f':
			d = rune(b-'a') + 10
		case b >= 'A' && b <= 'F':
			d = rune(b-'A') + 10
		default:
			return 0, &otqerr.ParseErrorAt{Offset: s.pos + i, Reason: "invalid hex digit"}
		}
		v = v<<4 | d
	}
	s.pos += 4
	return v, nil
}

// scanBareToken consumes a run of bytes that form a bare (unquoted) token:
// a number, or one of the literals null/true/false, stopping at the next
// structural byte or whitespace.
func (s *scanner) scanBareToken() string {
	start := s.pos
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case ',', ']', '}', ' ', '\t', '\n', '\r', ':':
			return string(s.src[start:s.pos])
		default:
			s.pos++
		}
	}
	return string(s.src[start:s.pos])
}
