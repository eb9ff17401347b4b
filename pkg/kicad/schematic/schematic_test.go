package schematic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/sexp"
)

const sampleSheet = `(kicad_sch
	(version 20250114)
	(generator "test")
	(uuid "root-uuid")
	(lib_symbols
		(symbol "Device:R"
			(property "Reference" "R" (at 2.032 0 90))
			(symbol "R_1_1"
				(pin passive line (at 0 3.81 270) (length 1.27) (name "~") (number "2"))
			)
		)
	)
	(symbol
		(lib_id "Device:R")
		(at 50.8 63.5 0)
		(unit 1)
		(uuid "r1-uuid")
		(property "Reference" "R1" (at 53.34 62.23 0))
		(property "Value" "10k" (at 53.34 64.77 0))
		(instances
			(project "demo"
				(path "/root-uuid"
					(reference "R1")
					(unit 1)
				)
			)
		)
	)
	(sheet
		(at 152.4 25.4)
		(size 25.4 19.05)
		(uuid "sheet-uuid")
		(property "Sheetname" "Power")
		(property "Sheetfile" "power.kicad_sch")
	)
)
`

func TestParseRejectsWrongRoot(t *testing.T) {
	_, err := ParseString("(kicad_pcb (version 1))\n")
	require.Error(t, err)
}

func TestRoundTripUntouchedSheet(t *testing.T) {
	doc, err := ParseString(sampleSheet)
	require.NoError(t, err)
	require.Equal(t, sampleSheet, doc.String())
}

func TestSymbolExtraction(t *testing.T) {
	doc, err := ParseString(sampleSheet)
	require.NoError(t, err)

	symbols := doc.Symbols()
	require.Len(t, symbols, 1)
	s := symbols[0]
	require.Equal(t, "R1", s.Reference)
	require.Equal(t, "Device:R", s.LibID)
	require.Equal(t, "10k", s.Value)
	require.Equal(t, sexp.Position{X: 50.8, Y: 63.5}, s.Position)
	require.Equal(t, "r1-uuid", s.UUID)
	require.True(t, s.HasInstances)
	require.Equal(t, "/root-uuid/r1-uuid", s.InstancePath)
}

func TestSheetLinkExtraction(t *testing.T) {
	doc, err := ParseString(sampleSheet)
	require.NoError(t, err)

	links := doc.SheetLinks()
	require.Len(t, links, 1)
	require.Equal(t, "power.kicad_sch", links[0].File)
	require.Equal(t, "Power", links[0].Name)
	require.Equal(t, "sheet-uuid", links[0].UUID)
}

func TestSetReferenceFollowsInstances(t *testing.T) {
	doc, err := ParseString(sampleSheet)
	require.NoError(t, err)

	s := doc.Symbols()[0]
	require.True(t, s.SetReference("R5"))
	require.False(t, s.SetReference("R5"), "renaming to the current name is a no-op")

	out := doc.String()
	require.Contains(t, out, `(property "Reference" "R5"`)
	require.Contains(t, out, `(reference "R5")`)
	require.NotContains(t, out, `"R1"`)
}

func TestLibSymbolRefCounting(t *testing.T) {
	doc, err := ParseString(sampleSheet)
	require.NoError(t, err)
	require.True(t, doc.HasLibSymbol("Device:R"))

	// Still referenced by R1: pruning must refuse.
	require.False(t, doc.PruneLibSymbol("Device:R"))
	require.True(t, doc.HasLibSymbol("Device:R"))

	doc.RemoveSymbol(doc.Symbols()[0])
	require.True(t, doc.PruneLibSymbol("Device:R"))
	require.False(t, doc.HasLibSymbol("Device:R"))
}

func TestPropertyUpdateKeepsSurroundingLayout(t *testing.T) {
	doc, err := ParseString(sampleSheet)
	require.NoError(t, err)

	s := doc.Symbols()[0]
	require.True(t, s.Node.SetProperty("Value", "4k7"))

	out := doc.String()
	require.Contains(t, out, `(property "Value" "4k7" (at 53.34 64.77 0))`)

	// Everything before the symbol block is untouched.
	cut := strings.Index(sampleSheet, "(symbol\n")
	require.Positive(t, cut)
	require.Equal(t, sampleSheet[:cut], out[:cut])
}

func TestGlobalLabelLifecycle(t *testing.T) {
	doc, err := ParseString(sampleSheet)
	require.NoError(t, err)

	doc.AddGlobalLabel("VIN", sexp.Position{X: 50.8, Y: 59.69}, 270)
	labels := doc.GlobalLabels()
	require.Len(t, labels, 1)
	require.Equal(t, "VIN", labels[0].Text)
	require.Equal(t, 270.0, labels[0].Angle)

	require.True(t, doc.RemoveLabel(labels[0]))
	require.Empty(t, doc.GlobalLabels())
}

func TestNewSheetParsesBack(t *testing.T) {
	doc := New()
	require.NotEmpty(t, doc.UUID())

	again, err := ParseString(doc.String())
	require.NoError(t, err)
	require.Equal(t, doc.UUID(), again.UUID())
	require.Empty(t, again.Symbols())
}
