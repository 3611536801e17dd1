package parser

import (
	"regexp"

	"github.com/agentic-research/otquery/otqerr"
	"github.com/agentic-research/otquery/path/ast"
)

// ParseCondition compiles a standalone predicate-condition string (the
// grammar inside a "[?(...)]" filter, without the surrounding brackets),
// letting callers build an Expr for contexts that bypass the step
// grammar entirely — e.g. evaluating a condition directly against a
// document root.
func ParseCondition(src string) (*ast.Expr, error) {
	l := newLexer(src)
	expr, err := parseCondition(l)
	if err != nil {
		return nil, err
	}
	l.skipSpaces()
	if !l.eof() {
		return nil, &otqerr.ParseErrorAt{Offset: l.pos, Reason: "unexpected trailing input after condition"}
	}
	return expr, nil
}

// parseCondition implements: condition = test {("&&"|"||") test}.
func parseCondition(l *lexer) (*ast.Expr, error) {
	left, err := parseTest(l)
	if err != nil {
		return nil, err
	}
	for {
		l.skipSpaces()
		var tag ast.ExprTag
		switch {
		case l.consumeString("&&"):
			tag = ast.ExprAnd
		case l.consumeString("||"):
			tag = ast.ExprOr
		default:
			return left, nil
		}
		l.skipSpaces()
		right, err := parseTest(l)
		if err != nil {
			return nil, err
		}
		left = &ast.Expr{Tag: tag, Left: left, Right: right}
	}
}

// parseTest implements: test = term [cmp-op term].
func parseTest(l *lexer) (*ast.Expr, error) {
	left, err := parseTerm(l)
	if err != nil {
		return nil, err
	}
	l.skipSpaces()
	tag, ok := matchCompareOp(l)
	if !ok {
		return left, nil
	}
	l.skipSpaces()
	right, err := parseTerm(l)
	if err != nil {
		return nil, err
	}
	if tag == ast.ExprRegex {
		if right.Tag != ast.ExprLiteral || right.LiteralKind != ast.LiteralString {
			return nil, &otqerr.ParseErrorAt{Offset: l.pos, Reason: "~= requires a string literal operand"}
		}
		re, err := regexp.CompilePOSIX(right.StrVal)
		if err != nil {
			return nil, &otqerr.ParseErrorAt{Offset: l.pos, Reason: "invalid regex: " + err.Error()}
		}
		return &ast.Expr{Tag: ast.ExprRegex, Left: left, Right: right, Compiled: re}, nil
	}
	return &ast.Expr{Tag: tag, Left: left, Right: right}, nil
}

func matchCompareOp(l *lexer) (ast.ExprTag, bool) {
	switch {
	case l.consumeString("=="):
		return ast.ExprEq, true
	case l.consumeString("!="):
		return ast.ExprNeq, true
	case l.consumeString("<="):
		return ast.ExprLte, true
	case l.consumeString(">="):
		return ast.ExprGte, true
	case l.consumeString("~="):
		return ast.ExprRegex, true
	case l.consumeString("<"):
		return ast.ExprLt, true
	case l.consumeString(">"):
		return ast.ExprGt, true
	default:
		return 0, false
	}
}

// parseTerm implements:
//
//	term = "!" term | ("$"|"@") path | number | "'" string "'"
//	     | "true" | "false" | "null" | "(" condition ")"
func parseTerm(l *lexer) (*ast.Expr, error) {
	l.skipSpaces()
	if l.eof() {
		return nil, &otqerr.ParseErrorAt{Offset: l.pos, Reason: "expected term"}
	}

	if l.consumeByte('!') {
		inner, err := parseTerm(l)
		if err != nil {
			return nil, err
		}
		return &ast.Expr{Tag: ast.ExprNot, Left: inner}, nil
	}

	if l.consumeByte('(') {
		inner, err := parseCondition(l)
		if err != nil {
			return nil, err
		}
		l.skipSpaces()
		if !l.consumeByte(')') {
			return nil, &otqerr.ParseErrorAt{Offset: l.pos, Reason: "expected ')'"}
		}
		return inner, nil
	}

	switch {
	case l.peek() == '$' || l.peek() == '@':
		relative := l.peek() == '@'
		l.pos++
		steps, err := parseSteps(l)
		if err != nil {
			return nil, err
		}
		sub := &ast.Path{Steps: steps, Relative: relative}
		return &ast.Expr{Tag: ast.ExprSubPath, SubPath: sub}, nil

	case l.peek() == '\'' || l.peek() == '"':
		s, ok := l.scanQuoted(l.peek())
		if !ok {
			return nil, &otqerr.ParseErrorAt{Offset: l.pos, Reason: "unterminated string literal"}
		}
		return &ast.Expr{Tag: ast.ExprLiteral, LiteralKind: ast.LiteralString, StrVal: s}, nil

	case l.consumeString("true"):
		return &ast.Expr{Tag: ast.ExprLiteral, LiteralKind: ast.LiteralBool, BoolVal: true}, nil

	case l.consumeString("false"):
		return &ast.Expr{Tag: ast.ExprLiteral, LiteralKind: ast.LiteralBool, BoolVal: false}, nil

	case l.consumeString("null"):
		return &ast.Expr{Tag: ast.ExprLiteral, LiteralKind: ast.LiteralNull}, nil

	default:
		if f, ok := l.scanNumber(); ok {
			return &ast.Expr{Tag: ast.ExprLiteral, LiteralKind: ast.LiteralNumber, NumVal: f}, nil
		}
		return nil, &otqerr.ParseErrorAt{Offset: l.pos, Reason: "unrecognised term"}
	}
}
