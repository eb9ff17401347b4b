package schematic

import (
	"strings"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/geometry"
	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/library"
	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceSync/pkg/netlist"
)

// Symbol is the extracted view of one placed symbol. Node points back into
// the document tree; mutations go through the node so layout is preserved.
type Symbol struct {
	Node *sexp.Node

	Reference string
	LibID     string
	Value     string
	Footprint string
	Position  sexp.Position
	Rotation  float64
	UUID      string

	// InstancePath is the hierarchical occurrence identity: the sheet-path
	// string from the (instances) block plus the symbol's own uuid.
	// HasInstances is false when the file carries no instance data, which
	// is common in hand-edited sheets.
	InstancePath string
	HasInstances bool
}

// Symbols extracts every placed symbol on the sheet.
func (d *Document) Symbols() []*Symbol {
	var out []*Symbol
	for _, node := range d.doc.Root.FindAll("symbol") {
		out = append(out, extractSymbol(node))
	}
	return out
}

func extractSymbol(node *sexp.Node) *Symbol {
	s := &Symbol{Node: node}
	s.LibID, _ = node.StringAt("lib_id", 1)
	s.Reference, _ = node.Property("Reference")
	s.Value, _ = node.Property("Value")
	s.Footprint, _ = node.Property("Footprint")
	s.Position, s.Rotation, _ = node.At()
	s.UUID, _ = node.StringAt("uuid", 1)

	if instances, ok := node.FindChild("instances"); ok {
		for _, project := range instances.FindAll("project") {
			if path, ok := project.FindChild("path"); ok {
				if p, err := path.ChildString(1); err == nil {
					s.InstancePath = joinInstancePath(p, s.UUID)
					s.HasInstances = true
					break
				}
			}
		}
	}
	return s
}

// joinInstancePath appends a symbol uuid to a sheet path; the root path "/"
// must not produce a doubled slash.
func joinInstancePath(sheetPath, uuid string) string {
	if strings.HasSuffix(sheetPath, "/") {
		return sheetPath + uuid
	}
	return sheetPath + "/" + uuid
}

// SetInstancePath writes a minimal single-instance block for a symbol that
// has none, using the sheet path and project name given.
func (s *Symbol) SetInstancePath(project, sheetPath string) {
	if _, ok := s.Node.FindChild("instances"); ok {
		return
	}
	s.Node.AppendChild(instancesNode(project, sheetPath, s.Reference))
	s.InstancePath = joinInstancePath(sheetPath, s.UUID)
	s.HasInstances = true
}

func instancesNode(project, sheetPath, reference string) *sexp.Node {
	return sexp.List("instances",
		sexp.List("project", sexp.String(project),
			sexp.List("path", sexp.String(sheetPath),
				sexp.List("reference", sexp.String(reference)),
				sexp.List("unit", sexp.Int(1)),
			),
		),
	)
}

// SetReference renames the symbol, updating both the Reference property and
// every reference entry in the instances block.
func (s *Symbol) SetReference(ref string) bool {
	if s.Reference == ref {
		return false
	}
	s.Node.SetProperty("Reference", ref)
	if instances, ok := s.Node.FindChild("instances"); ok {
		for _, project := range instances.FindAll("project") {
			for _, path := range project.FindAll("path") {
				if refNode, ok := path.FindChild("reference"); ok {
					if v := refNode.Arg(1); v != nil {
						v.SetString(ref)
					}
				}
			}
		}
	}
	s.Reference = ref
	return true
}

// RemoveSymbol deletes a placed symbol node from the sheet.
func (d *Document) RemoveSymbol(s *Symbol) bool {
	return d.doc.Root.RemoveChild(s.Node)
}

// libSymbolsNode returns the (lib_symbols ...) container, creating it after
// the preamble if the sheet lacks one.
func (d *Document) libSymbolsNode() *sexp.Node {
	if node, ok := d.doc.Root.FindChild("lib_symbols"); ok {
		return node
	}
	node := sexp.List("lib_symbols")
	d.doc.Root.AppendChild(node)
	return node
}

// LibSymbolUseCount returns how many placed symbols reference each embedded
// library definition.
func (d *Document) LibSymbolUseCount() map[string]int {
	counts := make(map[string]int)
	for _, s := range d.Symbols() {
		if s.LibID != "" {
			counts[s.LibID]++
		}
	}
	return counts
}

// HasLibSymbol reports whether a definition for libID is embedded.
func (d *Document) HasLibSymbol(libID string) bool {
	return d.findLibSymbol(libID) != nil
}

func (d *Document) findLibSymbol(libID string) *sexp.Node {
	lib, ok := d.doc.Root.FindChild("lib_symbols")
	if !ok {
		return nil
	}
	for _, sym := range lib.FindAll("symbol") {
		if name, err := sym.ChildString(1); err == nil && name == libID {
			return sym
		}
	}
	return nil
}

// EnsureLibSymbol embeds a definition for libID built from resolver
// geometry, unless one is already present.
func (d *Document) EnsureLibSymbol(geom *library.SymbolGeometry) {
	if d.HasLibSymbol(geom.LibID) {
		return
	}
	d.libSymbolsNode().AppendChild(libSymbolNode(geom))
}

// PruneLibSymbol removes the embedded definition for libID when no placed
// symbol references it anymore. Shared definitions survive; this is
// reference counting, not blind deletion.
func (d *Document) PruneLibSymbol(libID string) bool {
	if d.LibSymbolUseCount()[libID] > 0 {
		return false
	}
	node := d.findLibSymbol(libID)
	if node == nil {
		return false
	}
	lib, _ := d.doc.Root.FindChild("lib_symbols")
	return lib.RemoveChild(node)
}

// libSymbolNode builds a minimal embedded symbol definition. Pins convert
// back from sheet coordinates to symbol-file coordinates (Y up).
func libSymbolNode(geom *library.SymbolGeometry) *sexp.Node {
	name := geom.LibID
	node := sexp.List("symbol", sexp.String(name),
		sexp.List("property", sexp.String("Reference"), sexp.String(geom.RefPrefix),
			sexp.List("at", sexp.Float(2.032), sexp.Float(0), sexp.Float(90)),
		),
		sexp.List("property", sexp.String("Value"), sexp.String(geom.RefPrefix),
			sexp.List("at", sexp.Float(0), sexp.Float(0), sexp.Float(90)),
		),
	)

	unit := sexp.List("symbol", sexp.String(unitName(name)))
	for _, pin := range geom.Pins {
		unit.AppendChild(sexp.List("pin", sexp.Symbol("passive"), sexp.Symbol("line"),
			sexp.List("at",
				sexp.Float(pin.Offset.X),
				sexp.Float(-pin.Offset.Y),
				sexp.Float(geometry.Normalize(360-pin.Orientation)),
			),
			sexp.List("length", sexp.Float(pin.Length)),
			sexp.List("name", sexp.String(pin.Name)),
			sexp.List("number", sexp.String(pin.Number)),
		))
	}
	node.AppendChild(unit)
	return node
}

func unitName(libID string) string {
	// "Device:R" -> "R_1_1", matching the drawing-unit naming KiCad uses.
	for i := len(libID) - 1; i >= 0; i-- {
		if libID[i] == ':' {
			return libID[i+1:] + "_1_1"
		}
	}
	return libID + "_1_1"
}

// AddSymbol places a new symbol on the sheet for a wanted component. The
// embedded library definition must already be present (EnsureLibSymbol).
func (d *Document) AddSymbol(comp netlist.Component, geom *library.SymbolGeometry, pos sexp.Position, rotation float64, project, sheetPath string) *Symbol {
	id := uuid.NewString()
	node := sexp.List("symbol",
		sexp.List("lib_id", sexp.String(comp.LibID)),
		sexp.List("at", sexp.Float(pos.X), sexp.Float(pos.Y), sexp.Float(rotation)),
		sexp.List("unit", sexp.Int(1)),
		sexp.List("in_bom", sexp.Symbol("yes")),
		sexp.List("on_board", sexp.Symbol("yes")),
		sexp.List("uuid", sexp.String(id)),
		propertyNode("Reference", comp.Reference, sexp.Position{X: pos.X + 2.54, Y: pos.Y - 1.27}, false),
		propertyNode("Value", comp.Value, sexp.Position{X: pos.X + 2.54, Y: pos.Y + 1.27}, false),
		propertyNode("Footprint", comp.Footprint, pos, true),
	)
	if comp.Properties != nil {
		for _, key := range comp.Properties.Keys() {
			v, _ := comp.Properties.Get(key)
			node.AppendChild(propertyNode(key, v, pos, true))
		}
	}
	for _, pin := range geom.Pins {
		node.AppendChild(sexp.List("pin", sexp.String(pin.Number),
			sexp.List("uuid", sexp.String(uuid.NewString())),
		))
	}
	node.AppendChild(instancesNode(project, sheetPath, comp.Reference))

	d.doc.Root.AppendChild(node)

	s := extractSymbol(node)
	return s
}

func propertyNode(key, value string, pos sexp.Position, hide bool) *sexp.Node {
	node := sexp.List("property", sexp.String(key), sexp.String(value),
		sexp.List("at", sexp.Float(pos.X), sexp.Float(pos.Y), sexp.Float(0)),
	)
	effects := sexp.List("effects",
		sexp.List("font",
			sexp.List("size", sexp.Float(1.27), sexp.Float(1.27)),
		),
	)
	if hide {
		effects.AppendChild(sexp.List("hide", sexp.Symbol("yes")))
	}
	node.AppendChild(effects)
	return node
}
