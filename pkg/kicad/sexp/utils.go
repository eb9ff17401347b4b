package sexp

import (
	"fmt"
)

// Navigation helpers over list nodes. A "child node with key" is a list
// element that is itself a list starting with the given symbol, e.g.
// FindChild(symbolNode, "at") locates (at 100 50 90).

// FindChild returns the first list child whose head symbol equals key.
func (n *Node) FindChild(key string) (*Node, bool) {
	if !n.IsList() {
		return nil, false
	}
	for _, c := range n.Children {
		if c.IsList() && c.Head() == key {
			return c, true
		}
	}
	return nil, false
}

// FindAll returns every list child whose head symbol equals key.
func (n *Node) FindAll(key string) []*Node {
	if !n.IsList() {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.IsList() && c.Head() == key {
			out = append(out, c)
		}
	}
	return out
}

// HasSymbol reports whether the list contains the bare symbol, e.g. the
// "hide" flag inside (effects ...).
func (n *Node) HasSymbol(symbol string) bool {
	if !n.IsList() {
		return false
	}
	for _, c := range n.Children {
		if c.Kind == KindSymbol && c.Value == symbol {
			return true
		}
	}
	return false
}

// ChildString extracts the atom value at index i. Index 0 is the head
// symbol, 1 the first argument.
func (n *Node) ChildString(i int) (string, error) {
	c := n.Arg(i)
	if c == nil {
		return "", fmt.Errorf("sexp: (%s ...) has no element %d", n.Head(), i)
	}
	if !c.IsAtom() {
		return "", fmt.Errorf("sexp: (%s ...) element %d is a list, expected atom", n.Head(), i)
	}
	return c.Value, nil
}

// ChildFloat extracts the numeric value at index i.
func (n *Node) ChildFloat(i int) (float64, error) {
	c := n.Arg(i)
	if c == nil {
		return 0, fmt.Errorf("sexp: (%s ...) has no element %d", n.Head(), i)
	}
	return c.Float()
}

// ChildInt extracts the integer value at index i.
func (n *Node) ChildInt(i int) (int, error) {
	c := n.Arg(i)
	if c == nil {
		return 0, fmt.Errorf("sexp: (%s ...) has no element %d", n.Head(), i)
	}
	return c.Int()
}

// StringAt is like ChildString but looks the key up first: StringAt("lib_id", 1)
// reads the first argument of the (lib_id ...) child.
func (n *Node) StringAt(key string, i int) (string, bool) {
	c, ok := n.FindChild(key)
	if !ok {
		return "", false
	}
	v, err := c.ChildString(i)
	if err != nil {
		return "", false
	}
	return v, true
}

// FloatAt reads a numeric argument of a keyed child.
func (n *Node) FloatAt(key string, i int) (float64, bool) {
	c, ok := n.FindChild(key)
	if !ok {
		return 0, false
	}
	v, err := c.ChildFloat(i)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Position is a 2D point in document units (mm).
type Position struct {
	X float64
	Y float64
}

// At reads the (at X Y [angle]) child. The angle defaults to 0 when absent,
// which for the "at" node is the documented file-format default, not a
// silent fallback.
func (n *Node) At() (Position, float64, bool) {
	at, ok := n.FindChild("at")
	if !ok {
		return Position{}, 0, false
	}
	x, errX := at.ChildFloat(1)
	y, errY := at.ChildFloat(2)
	if errX != nil || errY != nil {
		return Position{}, 0, false
	}
	angle := 0.0
	if a, err := at.ChildFloat(3); err == nil {
		angle = a
	}
	return Position{X: x, Y: y}, angle, true
}

// SetAt rewrites or creates the (at ...) child. The angle argument is
// always written, matching how KiCad serializes symbol placements.
func (n *Node) SetAt(pos Position, angle float64) {
	at, ok := n.FindChild("at")
	if !ok {
		at = List("at", Float(pos.X), Float(pos.Y), Float(angle))
		n.AppendChild(at)
		return
	}
	at.Children = []*Node{Symbol("at"), Float(pos.X), Float(pos.Y), Float(angle)}
}

// Property reads the value of a (property "Key" "Value" ...) child with the
// given key.
func (n *Node) Property(key string) (string, bool) {
	p, ok := n.PropertyNode(key)
	if !ok {
		return "", false
	}
	v, err := p.ChildString(2)
	if err != nil {
		return "", false
	}
	return v, true
}

// PropertyNode returns the (property "Key" ...) child with the given key.
func (n *Node) PropertyNode(key string) (*Node, bool) {
	for _, p := range n.FindAll("property") {
		k, err := p.ChildString(1)
		if err == nil && k == key {
			return p, true
		}
	}
	return nil, false
}

// SetProperty updates the value of an existing property in place, or
// appends a new (property "Key" "Value") child. It reports whether the
// document changed.
func (n *Node) SetProperty(key, value string) bool {
	if p, ok := n.PropertyNode(key); ok {
		cur, err := p.ChildString(2)
		if err == nil && cur == value {
			return false
		}
		if v := p.Arg(2); v != nil {
			v.SetString(value)
			return true
		}
		p.InsertChild(2, String(value))
		return true
	}
	n.AppendChild(List("property", String(key), String(value)))
	return true
}

// RemoveAll removes every list child with the given head symbol and returns
// how many were removed.
func (n *Node) RemoveAll(key string) int {
	removed := 0
	kept := n.Children[:0]
	for _, c := range n.Children {
		if c.IsList() && c.Head() == key {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	n.Children = kept
	return removed
}
