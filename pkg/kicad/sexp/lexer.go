package sexp

import (
	"strings"
)

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenLeftParen
	tokenRightParen
	tokenSymbol
	tokenString
)

// token carries the decoded value, the exact source text, and the trivia
// (whitespace and # comments) that preceded it.
type token struct {
	typ   tokenType
	value string // decoded value (strings unescaped)
	raw   string // exact source text (strings include quotes)
	lead  string // trivia before the token
	line  int
	col   int
}

// lexer tokenizes S-expression text while recording every byte so the parser
// can rebuild the input exactly.
type lexer struct {
	input string
	pos   int
	line  int
	col   int
}

func newLexer(input string) *lexer {
	return &lexer{input: input, line: 1, col: 1}
}

func (l *lexer) peek() (byte, bool) {
	if l.pos >= len(l.input) {
		return 0, false
	}
	return l.input[l.pos], true
}

func (l *lexer) advance() byte {
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v' || ch == '\f'
}

// skipTrivia consumes whitespace and # line comments, returning them
// verbatim.
func (l *lexer) skipTrivia() string {
	start := l.pos
	for {
		ch, ok := l.peek()
		if !ok {
			break
		}
		if isSpace(ch) {
			l.advance()
			continue
		}
		if ch == '#' {
			for {
				c, ok := l.peek()
				if !ok || c == '\n' {
					break
				}
				l.advance()
			}
			continue
		}
		break
	}
	return l.input[start:l.pos]
}

func (l *lexer) next() (token, error) {
	lead := l.skipTrivia()
	line, col := l.line, l.col

	ch, ok := l.peek()
	if !ok {
		return token{typ: tokenEOF, lead: lead, line: line, col: col}, nil
	}

	switch ch {
	case '(':
		l.advance()
		return token{typ: tokenLeftParen, value: "(", raw: "(", lead: lead, line: line, col: col}, nil
	case ')':
		l.advance()
		return token{typ: tokenRightParen, value: ")", raw: ")", lead: lead, line: line, col: col}, nil
	case '"':
		return l.readString(lead, line, col)
	default:
		return l.readSymbol(lead, line, col)
	}
}

func (l *lexer) readString(lead string, line, col int) (token, error) {
	start := l.pos
	l.advance() // opening quote

	var value strings.Builder
	for {
		ch, ok := l.peek()
		if !ok {
			return token{}, &ParseError{Line: line, Col: col, Msg: "unterminated string"}
		}
		l.advance()
		if ch == '"' {
			break
		}
		if ch == '\\' {
			esc, ok := l.peek()
			if !ok {
				return token{}, &ParseError{Line: line, Col: col, Msg: "unterminated escape in string"}
			}
			l.advance()
			switch esc {
			case 'n':
				value.WriteByte('\n')
			case 't':
				value.WriteByte('\t')
			case 'r':
				value.WriteByte('\r')
			case '\\':
				value.WriteByte('\\')
			case '"':
				value.WriteByte('"')
			default:
				// KiCad only emits the escapes above; pass anything
				// else through unchanged.
				value.WriteByte('\\')
				value.WriteByte(esc)
			}
			continue
		}
		value.WriteByte(ch)
	}

	return token{
		typ:   tokenString,
		value: value.String(),
		raw:   l.input[start:l.pos],
		lead:  lead,
		line:  line,
		col:   col,
	}, nil
}

func (l *lexer) readSymbol(lead string, line, col int) (token, error) {
	start := l.pos
	for {
		ch, ok := l.peek()
		if !ok {
			break
		}
		if isSpace(ch) || ch == '(' || ch == ')' || ch == '"' || ch == '#' {
			break
		}
		l.advance()
	}
	raw := l.input[start:l.pos]
	if raw == "" {
		return token{}, &ParseError{Line: line, Col: col, Msg: "empty token"}
	}
	return token{typ: tokenSymbol, value: raw, raw: raw, lead: lead, line: line, col: col}, nil
}
