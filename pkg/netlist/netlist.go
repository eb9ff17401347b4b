// Package netlist defines the neutral structural form exchanged between the
// circuit-description front-end and the synchronizers. The front-end hands
// over a resolved sheet tree; the schematic synchronizer consumes it per
// sheet and the PCB synchronizer consumes the flattened view. This package
// never parses design files itself.
package netlist

import (
	"fmt"
)

// Component is a circuit element the design wants placed.
type Component struct {
	Reference  string       // unique per sheet, e.g. "R1"
	LibID      string       // symbolic part type, e.g. "Device:R"
	Value      string       // free-form value, e.g. "10k"
	Footprint  string       // footprint identifier, e.g. "Resistor_SMD:R_0603"
	Pins       []string     // pin numbers the part exposes
	Properties *PropertyBag // extra properties (MPN, tolerance, ...)
}

// NetNode addresses one pin of one component.
type NetNode struct {
	Ref string // component reference
	Pin string // pin number/name
}

func (n NetNode) String() string {
	return fmt.Sprintf("%s.%s", n.Ref, n.Pin)
}

// Net is an equivalence class of pins that must be electrically connected.
type Net struct {
	Name  string
	Nodes []NetNode
}

// Sheet is one schematic page of the design, with its child pages.
type Sheet struct {
	File       string // target file name, e.g. "power.kicad_sch"
	Name       string // display name; empty for the project root
	Components []Component
	Nets       []Net
	Children   []*Sheet
}

// Design is the full sheet tree rooted at the project's top sheet.
type Design struct {
	Root *Sheet
}

// Walk visits every sheet depth-first, root first. It returns the first
// error from the visitor.
func (d *Design) Walk(fn func(*Sheet) error) error {
	if d.Root == nil {
		return nil
	}
	return walkSheet(d.Root, fn)
}

func walkSheet(s *Sheet, fn func(*Sheet) error) error {
	if err := fn(s); err != nil {
		return err
	}
	for _, child := range s.Children {
		if err := walkSheet(child, fn); err != nil {
			return err
		}
	}
	return nil
}

// ComponentCount returns the number of components across the whole tree.
func (d *Design) ComponentCount() int {
	total := 0
	d.Walk(func(s *Sheet) error {
		total += len(s.Components)
		return nil
	})
	return total
}

// FindComponent looks a component up by reference anywhere in the tree.
func (d *Design) FindComponent(ref string) (*Component, *Sheet) {
	var comp *Component
	var sheet *Sheet
	d.Walk(func(s *Sheet) error {
		for i := range s.Components {
			if s.Components[i].Reference == ref {
				comp = &s.Components[i]
				sheet = s
			}
		}
		return nil
	})
	return comp, sheet
}
