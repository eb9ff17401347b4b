package netlist

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPropertyBagOrder(t *testing.T) {
	bag := NewPropertyBag()
	bag.Set("MPN", "RC0603FR-0710KL")
	bag.Set("Tolerance", "1%")
	bag.Set("MPN", "RC0603FR-0722KL") // update keeps position

	require.Equal(t, []string{"MPN", "Tolerance"}, bag.Keys())

	v, ok := bag.Get("MPN")
	require.True(t, ok)
	require.Equal(t, "RC0603FR-0722KL", v)

	require.True(t, bag.Delete("MPN"))
	require.False(t, bag.Delete("MPN"))
	require.Equal(t, []string{"Tolerance"}, bag.Keys())
}

func TestParseBusName(t *testing.T) {
	base, lo, hi, ok, err := ParseBusName("DATA[0..7]")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "DATA", base)
	require.Equal(t, 0, lo)
	require.Equal(t, 7, hi)

	_, _, _, ok, err = ParseBusName("GND")
	require.NoError(t, err)
	require.False(t, ok)

	_, _, _, _, err = ParseBusName("D[7..0]")
	require.Error(t, err)

	_, _, _, _, err = ParseBusName("D[x..y]")
	require.Error(t, err)
}

func TestExpandBuses(t *testing.T) {
	d := &Design{Root: &Sheet{
		File: "root.kicad_sch",
		Nets: []Net{
			{Name: "GND", Nodes: []NetNode{{Ref: "C1", Pin: "2"}}},
			{Name: "D[0..1]", Nodes: []NetNode{
				{Ref: "U1", Pin: "1"}, {Ref: "U1", Pin: "2"},
				{Ref: "U2", Pin: "5"}, {Ref: "U2", Pin: "6"},
			}},
		},
	}}

	require.NoError(t, ExpandBuses(d))

	nets := d.Root.Nets
	require.Len(t, nets, 3)
	require.Equal(t, "GND", nets[0].Name)
	require.Equal(t, "D0", nets[1].Name)
	require.Equal(t, "D1", nets[2].Name)
	require.Equal(t, []NetNode{{Ref: "U1", Pin: "1"}, {Ref: "U2", Pin: "5"}}, nets[1].Nodes)
	require.Equal(t, []NetNode{{Ref: "U1", Pin: "2"}, {Ref: "U2", Pin: "6"}}, nets[2].Nodes)
}

func TestExpandBusesBadNodeCount(t *testing.T) {
	d := &Design{Root: &Sheet{
		Nets: []Net{{Name: "D[0..3]", Nodes: []NetNode{{Ref: "U1", Pin: "1"}}}},
	}}
	require.Error(t, ExpandBuses(d))
}

func TestFlattenMergesNetsByName(t *testing.T) {
	d := &Design{Root: &Sheet{
		File:       "root.kicad_sch",
		Components: []Component{{Reference: "R1", LibID: "Device:R"}},
		Nets:       []Net{{Name: "VCC", Nodes: []NetNode{{Ref: "R1", Pin: "1"}}}},
		Children: []*Sheet{{
			File:       "child.kicad_sch",
			Name:       "Power",
			Components: []Component{{Reference: "C1", LibID: "Device:C"}},
			Nets:       []Net{{Name: "VCC", Nodes: []NetNode{{Ref: "C1", Pin: "1"}}}},
		}},
	}}

	flat := Flatten(d)
	require.Len(t, flat.Components, 2)
	require.Len(t, flat.Nets, 1)
	require.Len(t, flat.Nets[0].Nodes, 2)

	name, ok := flat.NetOf("C1", "1")
	require.True(t, ok)
	require.Equal(t, "VCC", name)

	_, ok = flat.NetOf("C1", "2")
	require.False(t, ok)
}

func TestJSONRoundTrip(t *testing.T) {
	props := NewPropertyBag()
	props.Set("MPN", "X123")
	props.Set("Tolerance", "5%")

	d := &Design{Root: &Sheet{
		File: "root.kicad_sch",
		Components: []Component{{
			Reference:  "R1",
			LibID:      "Device:R",
			Value:      "10k",
			Footprint:  "Resistor_SMD:R_0603",
			Pins:       []string{"1", "2"},
			Properties: props,
		}},
		Nets: []Net{{Name: "VCC", Nodes: []NetNode{{Ref: "R1", Pin: "1"}}}},
		Children: []*Sheet{{
			File: "io.kicad_sch",
			Name: "IO",
		}},
	}}

	data, err := json.Marshal(d)
	require.NoError(t, err)

	var back Design
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, "root.kicad_sch", back.Root.File)
	require.Len(t, back.Root.Components, 1)
	require.Equal(t, []string{"MPN", "Tolerance"}, back.Root.Components[0].Properties.Keys())
	require.Len(t, back.Root.Children, 1)
	require.Equal(t, "IO", back.Root.Children[0].Name)
}

func TestLoadSaveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "design.json")

	d := &Design{Root: &Sheet{File: "root.kicad_sch"}}
	require.NoError(t, d.SaveFile(path))

	back, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "root.kicad_sch", back.Root.File)
}
