package schematic

import (
	"github.com/google/uuid"

	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/sexp"
)

// Label is the extracted view of one connectivity label. Net reconciliation
// uses global labels: a pin carries its net by having a label with the net
// name at the pin's world position.
type Label struct {
	Node     *sexp.Node
	Text     string
	Position sexp.Position
	Angle    float64
}

// GlobalLabels extracts every global label on the sheet.
func (d *Document) GlobalLabels() []*Label {
	var out []*Label
	for _, node := range d.doc.Root.FindAll("global_label") {
		l := &Label{Node: node}
		l.Text, _ = node.ChildString(1)
		l.Position, l.Angle, _ = node.At()
		out = append(out, l)
	}
	return out
}

// AddGlobalLabel places a connectivity label. The angle comes from the
// shared label-orientation formula; this function only writes the node.
func (d *Document) AddGlobalLabel(text string, pos sexp.Position, angle float64) *Label {
	node := sexp.List("global_label", sexp.String(text),
		sexp.List("shape", sexp.Symbol("passive")),
		sexp.List("at", sexp.Float(pos.X), sexp.Float(pos.Y), sexp.Float(angle)),
		sexp.List("effects",
			sexp.List("font",
				sexp.List("size", sexp.Float(1.27), sexp.Float(1.27)),
			),
		),
		sexp.List("uuid", sexp.String(uuid.NewString())),
	)
	d.doc.Root.AppendChild(node)
	return &Label{Node: node, Text: text, Position: pos, Angle: angle}
}

// RemoveLabel deletes one label node, leaving labels of other nets alone.
func (d *Document) RemoveLabel(l *Label) bool {
	return d.doc.Root.RemoveChild(l.Node)
}
