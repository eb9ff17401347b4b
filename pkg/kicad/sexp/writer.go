package sexp

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

type separator int

const (
	sepNone separator = iota
	sepSpace
	sepNewline
)

// writeNode emits a node. A node that still carries its source trivia and
// text is replayed verbatim; synthesized nodes are rendered canonically:
// atoms separated by single spaces, nested lists each on their own line
// indented one tab per depth, closing paren on its own line.
func writeNode(b *strings.Builder, n *Node, depth int, sep separator) {
	if n.lead != "" {
		b.WriteString(n.lead)
	} else {
		switch sep {
		case sepSpace:
			b.WriteByte(' ')
		case sepNewline:
			b.WriteByte('\n')
			writeIndent(b, depth)
		}
	}

	if n.Kind != KindList {
		writeAtom(b, n)
		return
	}

	b.WriteByte('(')
	multi := n.isMultiline()
	for i, c := range n.Children {
		childSep := sepSpace
		if i == 0 {
			childSep = sepNone
		} else if multi && c.Kind == KindList {
			childSep = sepNewline
		}
		writeNode(b, c, depth+1, childSep)
	}
	if n.closeLead != "" {
		b.WriteString(n.closeLead)
	} else if multi {
		b.WriteByte('\n')
		writeIndent(b, depth)
	}
	b.WriteByte(')')
}

func writeIndent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteByte('\t')
	}
}

// isMultiline decides the layout of a list. A parsed list keeps whatever
// layout its trivia encodes; a synthesized list breaks onto multiple lines
// as soon as it contains a nested list, which is how KiCad formats symbol
// and footprint bodies.
func (n *Node) isMultiline() bool {
	if strings.ContainsRune(n.closeLead, '\n') {
		return true
	}
	for _, c := range n.Children {
		if strings.ContainsRune(c.lead, '\n') {
			return true
		}
	}
	if n.closeLead != "" {
		return false
	}
	for _, c := range n.Children {
		if c.Kind == KindList && c.lead == "" {
			return true
		}
	}
	return false
}

func writeAtom(b *strings.Builder, n *Node) {
	if n.raw != "" {
		b.WriteString(n.raw)
		return
	}
	switch n.Kind {
	case KindString:
		b.WriteString(Quote(n.Value))
	default:
		if n.Value == "" || needsQuoting(n.Value) {
			b.WriteString(Quote(n.Value))
		} else {
			b.WriteString(n.Value)
		}
	}
}

// needsQuoting reports whether a token cannot be written bare.
func needsQuoting(v string) bool {
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case ' ', '\t', '\n', '\r', '(', ')', '"', '#', '\\':
			return true
		}
	}
	return false
}

// Quote renders a string token with KiCad's escaping rules.
func Quote(v string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(v[i])
		}
	}
	b.WriteByte('"')
	return b.String()
}

// WriteTo serializes the document to a writer.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	s := d.String()
	n, err := io.WriteString(w, s)
	return int64(n), err
}

// WriteFile atomically replaces path with the serialized document: the text
// is written to a temporary file in the same directory and renamed over the
// target, so a crash mid-write never leaves a corrupt design file.
func (d *Document) WriteFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(d.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
