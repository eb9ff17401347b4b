package pcb

import (
	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceSync/pkg/netlist"
)

// Footprint is the extracted view of one placed footprint.
type Footprint struct {
	Node *sexp.Node

	LibID     string // full footprint identifier, e.g. "Resistor_SMD:R_0603"
	Reference string
	Value     string
	Layer     string
	Position  sexp.Position
	Rotation  float64
	Pads      []*Pad
}

// Pad is one pad of a footprint with its current net assignment.
type Pad struct {
	Node    *sexp.Node
	Number  string
	NetNum  int
	NetName string
	HasNet  bool
}

// Footprints extracts every footprint on the board.
func (b *Board) Footprints() []*Footprint {
	var out []*Footprint
	for _, node := range b.doc.Root.FindAll("footprint") {
		out = append(out, extractFootprint(node))
	}
	return out
}

func extractFootprint(node *sexp.Node) *Footprint {
	f := &Footprint{Node: node}
	f.LibID, _ = node.ChildString(1)
	f.Reference, _ = node.Property("Reference")
	f.Value, _ = node.Property("Value")
	f.Layer, _ = node.StringAt("layer", 1)
	f.Position, f.Rotation, _ = node.At()

	for _, padNode := range node.FindAll("pad") {
		pad := &Pad{Node: padNode}
		pad.Number, _ = padNode.ChildString(1)
		if netNode, ok := padNode.FindChild("net"); ok {
			if num, err := netNode.ChildInt(1); err == nil {
				pad.NetNum = num
				pad.NetName, _ = netNode.ChildString(2)
				pad.HasNet = true
			}
		}
		f.Pads = append(f.Pads, pad)
	}
	return f
}

// SetLibID rewrites the footprint identifier in place.
func (f *Footprint) SetLibID(libID string) bool {
	if f.LibID == libID {
		return false
	}
	if id := f.Node.Arg(1); id != nil {
		id.SetString(libID)
		f.LibID = libID
		return true
	}
	return false
}

// AssignNet points a pad at a net, adding or rewriting its (net ...) node.
func (p *Pad) AssignNet(number int, name string) bool {
	if p.HasNet && p.NetNum == number && p.NetName == name {
		return false
	}
	if netNode, ok := p.Node.FindChild("net"); ok {
		netNode.Children = []*sexp.Node{
			sexp.Symbol("net"), sexp.Int(number), sexp.String(name),
		}
	} else {
		p.Node.AppendChild(sexp.List("net", sexp.Int(number), sexp.String(name)))
	}
	p.NetNum, p.NetName, p.HasNet = number, name, true
	return true
}

// ClearNet detaches a pad from its net entirely; a pad outside every wanted
// net must not keep a stale membership.
func (p *Pad) ClearNet() bool {
	if !p.HasNet {
		return false
	}
	p.Node.RemoveAll("net")
	p.NetNum, p.NetName, p.HasNet = 0, "", false
	return true
}

// RemoveFootprint deletes a footprint node from the board.
func (b *Board) RemoveFootprint(f *Footprint) bool {
	return b.doc.Root.RemoveChild(f.Node)
}

// AddFootprint places a new footprint for a wanted component. Pads are
// synthesized from the component's pin list as plain SMD rectangles in a
// row; real pad geometry arrives when the user assigns a library footprint
// in the layout tool. Net assignment happens separately.
func (b *Board) AddFootprint(comp netlist.Component, pos sexp.Position) *Footprint {
	libID := comp.Footprint
	if libID == "" {
		libID = comp.LibID
	}
	node := sexp.List("footprint", sexp.String(libID),
		sexp.List("layer", sexp.String("F.Cu")),
		uuidNode(),
		sexp.List("at", sexp.Float(pos.X), sexp.Float(pos.Y), sexp.Float(0)),
		sexp.List("property", sexp.String("Reference"), sexp.String(comp.Reference),
			sexp.List("at", sexp.Float(0), sexp.Float(-1.5), sexp.Float(0)),
			sexp.List("layer", sexp.String("F.SilkS")),
		),
		sexp.List("property", sexp.String("Value"), sexp.String(comp.Value),
			sexp.List("at", sexp.Float(0), sexp.Float(1.5), sexp.Float(0)),
			sexp.List("layer", sexp.String("F.Fab")),
		),
	)
	for i, pin := range comp.Pins {
		node.AppendChild(sexp.List("pad", sexp.String(pin),
			sexp.Symbol("smd"), sexp.Symbol("rect"),
			sexp.List("at", sexp.Float(float64(i)*1.27), sexp.Float(0)),
			sexp.List("size", sexp.Float(1), sexp.Float(1)),
			sexp.List("layers", sexp.String("F.Cu"), sexp.String("F.Paste"), sexp.String("F.Mask")),
			uuidNode(),
		))
	}
	b.doc.Root.AppendChild(node)

	f := extractFootprint(node)
	return f
}
