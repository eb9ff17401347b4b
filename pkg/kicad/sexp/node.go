// Package sexp implements an exact-format S-expression engine for KiCad
// design files. Unlike general-purpose sexp libraries, this engine preserves
// the source text of every token and the whitespace between tokens, so a
// parsed document serializes back to the original bytes unless it was
// explicitly mutated. Nodes created programmatically are rendered with
// KiCad's canonical formatting (tab indentation, one nested list per line).
package sexp

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies a node.
type Kind int

const (
	KindSymbol Kind = iota // unquoted token: at, symbol, F.Cu
	KindString             // quoted token: "Device:R"
	KindNumber             // unquoted token that parses as a number
	KindList               // parenthesized sequence
)

func (k Kind) String() string {
	switch k {
	case KindSymbol:
		return "symbol"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindList:
		return "list"
	}
	return "unknown"
}

// Node is one unit of a parsed or constructed S-expression tree.
//
// For atoms, Value holds the decoded token (strings are unescaped and
// unquoted) and raw holds the exact source text, empty when the atom was
// built or mutated programmatically. For lists, Children holds the elements
// in order.
type Node struct {
	Kind     Kind
	Value    string
	Children []*Node

	raw       string // exact source text of the atom, "" if synthesized
	lead      string // trivia (whitespace, comments) before this node
	closeLead string // trivia before the closing paren (lists only)
}

// Symbol constructs an unquoted atom.
func Symbol(v string) *Node {
	return &Node{Kind: KindSymbol, Value: v}
}

// String constructs a quoted string atom.
func String(v string) *Node {
	return &Node{Kind: KindString, Value: v}
}

// Float constructs a number atom with minimal round-trip formatting.
func Float(v float64) *Node {
	return &Node{Kind: KindNumber, Value: FormatFloat(v)}
}

// Int constructs a number atom from an integer.
func Int(v int) *Node {
	return &Node{Kind: KindNumber, Value: strconv.Itoa(v)}
}

// List constructs a list whose first element is the given head symbol.
func List(head string, elems ...*Node) *Node {
	children := make([]*Node, 0, len(elems)+1)
	children = append(children, Symbol(head))
	children = append(children, elems...)
	return &Node{Kind: KindList, Children: children}
}

// FormatFloat renders a float with the minimum number of digits that parses
// back to the same value. Integral values render without a decimal point,
// matching how KiCad writes coordinates like (at 100 50).
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// IsList reports whether the node is a list.
func (n *Node) IsList() bool { return n != nil && n.Kind == KindList }

// IsAtom reports whether the node is an atom.
func (n *Node) IsAtom() bool { return n != nil && n.Kind != KindList }

// Head returns the value of the list's first symbol, or "" when the node is
// not a list or does not start with a symbol.
func (n *Node) Head() string {
	if !n.IsList() || len(n.Children) == 0 {
		return ""
	}
	first := n.Children[0]
	if first.Kind == KindSymbol {
		return first.Value
	}
	return ""
}

// Len returns the number of list elements (0 for atoms).
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.Children)
}

// Arg returns the element at index i, or nil when out of range.
func (n *Node) Arg(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// Float parses the atom's value as a float64.
func (n *Node) Float() (float64, error) {
	if !n.IsAtom() {
		return 0, fmt.Errorf("sexp: expected atom, got list")
	}
	v, err := strconv.ParseFloat(n.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("sexp: not a number %q: %w", n.Value, err)
	}
	return v, nil
}

// Int parses the atom's value as an int.
func (n *Node) Int() (int, error) {
	if !n.IsAtom() {
		return 0, fmt.Errorf("sexp: expected atom, got list")
	}
	v, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, fmt.Errorf("sexp: not an integer %q: %w", n.Value, err)
	}
	return v, nil
}

// SetString replaces the atom's value with a quoted string. The exact source
// text is discarded so the writer re-derives quoting, but the surrounding
// trivia is kept so the file layout survives the edit.
func (n *Node) SetString(v string) {
	n.Kind = KindString
	n.Value = v
	n.raw = ""
}

// SetSymbol replaces the atom's value with an unquoted symbol.
func (n *Node) SetSymbol(v string) {
	n.Kind = KindSymbol
	n.Value = v
	n.raw = ""
}

// SetFloat replaces the atom's value with a minimally formatted number.
func (n *Node) SetFloat(v float64) {
	n.Kind = KindNumber
	n.Value = FormatFloat(v)
	n.raw = ""
}

// SetInt replaces the atom's value with an integer.
func (n *Node) SetInt(v int) {
	n.Kind = KindNumber
	n.Value = strconv.Itoa(v)
	n.raw = ""
}

// AppendChild adds a node to the end of a list.
func (n *Node) AppendChild(c *Node) {
	n.Children = append(n.Children, c)
}

// InsertChild inserts a node at index i, clamping i into range.
func (n *Node) InsertChild(i int, c *Node) {
	if i < 0 {
		i = 0
	}
	if i > len(n.Children) {
		i = len(n.Children)
	}
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = c
}

// RemoveChild removes the first occurrence of c and reports whether it was
// present.
func (n *Node) RemoveChild(c *Node) bool {
	for i, child := range n.Children {
		if child == c {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the node, including source text and trivia.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		Kind:      n.Kind,
		Value:     n.Value,
		raw:       n.raw,
		lead:      n.lead,
		closeLead: n.closeLead,
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// StripFormat clears source text and trivia recursively so the writer
// renders the subtree with canonical formatting.
func (n *Node) StripFormat() *Node {
	if n == nil {
		return nil
	}
	n.raw = ""
	n.lead = ""
	n.closeLead = ""
	for _, c := range n.Children {
		c.StripFormat()
	}
	return n
}

// Equal reports structural equality, ignoring source text and trivia.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		// A number written as a symbol and vice versa still compares by
		// value when both are atoms.
		if a.Kind == KindList || b.Kind == KindList {
			return false
		}
		if a.Kind == KindString || b.Kind == KindString {
			return false
		}
	}
	if a.Kind != KindList {
		return a.Value == b.Value
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// Document is a parsed file: one root expression plus any trailing trivia
// (normally a single newline).
type Document struct {
	Root     *Node
	Trailing string

	// parsed distinguishes a document read from source, whose trailing
	// trivia is authoritative even when empty, from one built
	// programmatically, which gets the conventional final newline.
	parsed bool
}

// String serializes the document.
func (d *Document) String() string {
	var b strings.Builder
	writeNode(&b, d.Root, 0, sepNone)
	if d.Trailing != "" {
		b.WriteString(d.Trailing)
	} else if !d.parsed {
		b.WriteString("\n")
	}
	return b.String()
}
