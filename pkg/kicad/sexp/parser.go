package sexp

import (
	"fmt"
	"io"
	"os"
)

// ParseError reports malformed input. Parsing is all-or-nothing: a document
// that fails to parse yields no partial tree.
type ParseError struct {
	File string
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Col, e.Msg)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// ParseString parses a complete document from a string. The input must
// contain exactly one top-level expression; anything else after it besides
// whitespace is an error.
func ParseString(input string) (*Document, error) {
	lex := newLexer(input)

	tok, err := lex.next()
	if err != nil {
		return nil, err
	}
	root, err := parseNode(lex, tok)
	if err != nil {
		return nil, err
	}

	tail, err := lex.next()
	if err != nil {
		return nil, err
	}
	if tail.typ != tokenEOF {
		return nil, &ParseError{Line: tail.line, Col: tail.col, Msg: fmt.Sprintf("unexpected %q after document root", tail.value)}
	}

	return &Document{Root: root, Trailing: tail.lead, parsed: true}, nil
}

// Parse parses a complete document from a reader.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseString(string(data))
}

// ParseFile parses a document from disk, annotating errors with the path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := ParseString(string(data))
	if err != nil {
		var pe *ParseError
		if ok := asParseError(err, &pe); ok {
			pe.File = path
		}
		return nil, err
	}
	return doc, nil
}

func asParseError(err error, target **ParseError) bool {
	pe, ok := err.(*ParseError)
	if ok {
		*target = pe
	}
	return ok
}

func parseNode(lex *lexer, tok token) (*Node, error) {
	switch tok.typ {
	case tokenLeftParen:
		return parseList(lex, tok)
	case tokenSymbol:
		n := &Node{Kind: classifySymbol(tok.value), Value: tok.value, raw: tok.raw, lead: tok.lead}
		return n, nil
	case tokenString:
		return &Node{Kind: KindString, Value: tok.value, raw: tok.raw, lead: tok.lead}, nil
	case tokenRightParen:
		return nil, &ParseError{Line: tok.line, Col: tok.col, Msg: "unexpected ')'"}
	case tokenEOF:
		return nil, &ParseError{Line: tok.line, Col: tok.col, Msg: "unexpected end of input"}
	}
	return nil, &ParseError{Line: tok.line, Col: tok.col, Msg: "unexpected token"}
}

func parseList(lex *lexer, open token) (*Node, error) {
	list := &Node{Kind: KindList, lead: open.lead}
	for {
		tok, err := lex.next()
		if err != nil {
			return nil, err
		}
		switch tok.typ {
		case tokenRightParen:
			list.closeLead = tok.lead
			return list, nil
		case tokenEOF:
			return nil, &ParseError{Line: tok.line, Col: tok.col, Msg: "unclosed '('"}
		default:
			child, err := parseNode(lex, tok)
			if err != nil {
				return nil, err
			}
			list.Children = append(list.Children, child)
		}
	}
}

// classifySymbol distinguishes numeric tokens from plain symbols so that
// numbers keep their exact textual representation alongside a parsed value.
func classifySymbol(v string) Kind {
	if v == "" {
		return KindSymbol
	}
	i := 0
	if v[i] == '+' || v[i] == '-' {
		i++
	}
	digits, dot := 0, 0
	for ; i < len(v); i++ {
		switch {
		case v[i] >= '0' && v[i] <= '9':
			digits++
		case v[i] == '.':
			dot++
			if dot > 1 {
				return KindSymbol
			}
		default:
			return KindSymbol
		}
	}
	if digits == 0 {
		return KindSymbol
	}
	return KindNumber
}
