package pcb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceSync/pkg/netlist"
)

const sampleBoard = `(kicad_pcb
	(version 20241229)
	(generator "test")
	(general
		(thickness 1.6)
	)
	(layers
		(0 "F.Cu" signal)
		(31 "B.Cu" signal)
	)
	(net 0 "")
	(net 1 "VIN")
	(footprint "Resistor_SMD:R_0603"
		(layer "F.Cu")
		(uuid "fp-uuid")
		(at 120.5 80.25 90)
		(property "Reference" "R1"
			(at 0 -1.5 0)
			(layer "F.SilkS")
		)
		(property "Value" "10k"
			(at 0 1.5 0)
			(layer "F.Fab")
		)
		(pad "1" smd rect
			(at -0.8 0)
			(size 1 1)
			(layers "F.Cu" "F.Paste" "F.Mask")
			(net 1 "VIN")
		)
		(pad "2" smd rect
			(at 0.8 0)
			(size 1 1)
			(layers "F.Cu" "F.Paste" "F.Mask")
		)
	)
)
`

func TestBoardRoundTrip(t *testing.T) {
	board, err := ParseString(sampleBoard)
	require.NoError(t, err)
	require.Equal(t, sampleBoard, board.String())
}

func TestParseRejectsWrongRoot(t *testing.T) {
	_, err := ParseString("(kicad_sch (version 1))\n")
	require.Error(t, err)
}

func TestFootprintExtraction(t *testing.T) {
	board, err := ParseString(sampleBoard)
	require.NoError(t, err)

	fps := board.Footprints()
	require.Len(t, fps, 1)
	f := fps[0]
	require.Equal(t, "Resistor_SMD:R_0603", f.LibID)
	require.Equal(t, "R1", f.Reference)
	require.Equal(t, "10k", f.Value)
	require.Equal(t, "F.Cu", f.Layer)
	require.Equal(t, sexp.Position{X: 120.5, Y: 80.25}, f.Position)
	require.Equal(t, 90.0, f.Rotation)

	require.Len(t, f.Pads, 2)
	require.True(t, f.Pads[0].HasNet)
	require.Equal(t, 1, f.Pads[0].NetNum)
	require.Equal(t, "VIN", f.Pads[0].NetName)
	require.False(t, f.Pads[1].HasNet)
}

func TestEnsureNetKeepsExistingNumbers(t *testing.T) {
	board, err := ParseString(sampleBoard)
	require.NoError(t, err)

	require.Equal(t, 1, board.EnsureNet("VIN"), "known nets keep their number")
	require.Equal(t, 2, board.EnsureNet("GND"))
	require.Equal(t, 2, board.EnsureNet("GND"), "declaring twice is stable")

	name, ok := board.NetName(2)
	require.True(t, ok)
	require.Equal(t, "GND", name)
}

func TestEnsureNetNeverAllocatesZero(t *testing.T) {
	// Net 0 means "no net"; a board without the (net 0 "") declaration must
	// still start real nets at 1.
	board, err := ParseString("(kicad_pcb\n\t(version 20241229)\n)\n")
	require.NoError(t, err)

	require.Equal(t, 1, board.EnsureNet("VIN"))
	require.Equal(t, 2, board.EnsureNet("GND"))
	require.Equal(t, 1, board.EnsureNet("VIN"))
}

func TestPadNetAssignment(t *testing.T) {
	board, err := ParseString(sampleBoard)
	require.NoError(t, err)

	f := board.Footprints()[0]
	num := board.EnsureNet("GND")
	require.True(t, f.Pads[1].AssignNet(num, "GND"))
	require.False(t, f.Pads[1].AssignNet(num, "GND"), "re-assigning the same net is a no-op")

	reparsed, err := ParseString(board.String())
	require.NoError(t, err)
	pad := reparsed.Footprints()[0].Pads[1]
	require.True(t, pad.HasNet)
	require.Equal(t, "GND", pad.NetName)
}

func TestPadClearNet(t *testing.T) {
	board, err := ParseString(sampleBoard)
	require.NoError(t, err)

	f := board.Footprints()[0]
	require.True(t, f.Pads[0].ClearNet())
	require.False(t, f.Pads[0].ClearNet())

	reparsed, err := ParseString(board.String())
	require.NoError(t, err)
	require.False(t, reparsed.Footprints()[0].Pads[0].HasNet)
}

func TestAddFootprintSynthesizesPads(t *testing.T) {
	board := New()
	comp := netlist.Component{
		Reference: "C1",
		LibID:     "Device:C",
		Value:     "100n",
		Footprint: "Capacitor_SMD:C_0603",
		Pins:      []string{"1", "2"},
	}
	f := board.AddFootprint(comp, sexp.Position{X: 30, Y: 40})
	require.Equal(t, "Capacitor_SMD:C_0603", f.LibID)
	require.Equal(t, "C1", f.Reference)
	require.Len(t, f.Pads, 2)

	reparsed, err := ParseString(board.String())
	require.NoError(t, err)
	require.Len(t, reparsed.Footprints(), 1)
	require.Equal(t, sexp.Position{X: 30, Y: 40}, reparsed.Footprints()[0].Position)
}

func TestRemoveFootprint(t *testing.T) {
	board, err := ParseString(sampleBoard)
	require.NoError(t, err)

	require.True(t, board.RemoveFootprint(board.Footprints()[0]))
	require.Empty(t, board.Footprints())

	// The net table is sync's business, not removal's.
	require.Len(t, board.Nets(), 2)
}
