package library

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/sexp"
)

// TableSource serves built-in geometry for the common passive and discrete
// parts, so small designs synchronize without any symbol libraries on disk.
// Offsets follow the standard KiCad device library: two-terminal parts span
// 7.62mm on the vertical axis, pin 1 on top.
type TableSource struct {
	symbols map[string]*SymbolGeometry
}

// NewTableSource creates the built-in table.
func NewTableSource() *TableSource {
	t := &TableSource{symbols: make(map[string]*SymbolGeometry)}
	for _, g := range builtinSymbols() {
		t.symbols[g.LibID] = g
	}
	return t
}

// Add registers or replaces a symbol, for callers that carry their own
// geometry.
func (t *TableSource) Add(g *SymbolGeometry) {
	t.symbols[g.LibID] = g
}

// Load implements Source.
func (t *TableSource) Load(libID string) (*SymbolGeometry, error) {
	if g, ok := t.symbols[libID]; ok {
		return g, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, libID)
}

func twoTerminal(libID, prefix string) *SymbolGeometry {
	return &SymbolGeometry{
		LibID:     libID,
		RefPrefix: prefix,
		Pins: []PinGeometry{
			{Number: "1", Name: "~", Offset: sexp.Position{X: 0, Y: -3.81}, Orientation: 90, Length: 1.27},
			{Number: "2", Name: "~", Offset: sexp.Position{X: 0, Y: 3.81}, Orientation: 270, Length: 1.27},
		},
	}
}

func builtinSymbols() []*SymbolGeometry {
	return []*SymbolGeometry{
		twoTerminal("Device:R", "R"),
		twoTerminal("Device:C", "C"),
		twoTerminal("Device:L", "L"),
		twoTerminal("Device:D", "D"),
		twoTerminal("Device:LED", "D"),
		{
			LibID:     "power:GND",
			RefPrefix: "#PWR",
			Pins: []PinGeometry{
				{Number: "1", Name: "GND", Offset: sexp.Position{X: 0, Y: 0}, Orientation: 90, Length: 0},
			},
		},
		{
			LibID:     "power:VCC",
			RefPrefix: "#PWR",
			Pins: []PinGeometry{
				{Number: "1", Name: "VCC", Offset: sexp.Position{X: 0, Y: 0}, Orientation: 270, Length: 0},
			},
		},
	}
}
