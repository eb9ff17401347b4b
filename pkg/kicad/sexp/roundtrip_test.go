package sexp

import (
	"strings"
	"testing"
)

const sampleSchematic = `(kicad_sch
	(version 20250114)
	(generator "eeschema")
	(generator_version "9.0")
	(uuid "862335ee-c981-4fe1-9eb9-84db19301dd4")
	(paper "A4")
	(lib_symbols
		(symbol "Device:R"
			(pin_numbers hide)
			(property "Reference" "R"
				(at 2.032 0 90)
			)
			(property "Value" "R"
				(at 0 0 90)
			)
			(pin passive line
				(at 0 3.81 270)
				(length 1.27)
				(name "~"
					(effects
						(font
							(size 1.27 1.27)
						)
					)
				)
				(number "1")
			)
		)
	)
	(symbol
		(lib_id "Device:R")
		(at 100.33 50.8 0)
		(unit 1)
		(uuid "11111111-2222-3333-4444-555555555555")
		(property "Reference" "R1"
			(at 102.87 49.53 0)
		)
		(property "Value" "10k"
			(at 102.87 52.07 0)
		)
	)
	(sheet_instances
		(path "/"
			(page "1")
		)
	)
)
`

func TestRoundTripSample(t *testing.T) {
	doc, err := ParseString(sampleSchematic)
	if err != nil {
		t.Fatalf("Failed to parse sample: %v", err)
	}

	out := doc.String()
	if out != sampleSchematic {
		t.Errorf("Round trip changed bytes.\n--- in ---\n%s\n--- out ---\n%s", sampleSchematic, out)
	}
}

func TestRoundTripPreservesOddFormatting(t *testing.T) {
	// Hand-edited files carry irregular spacing; all of it must survive.
	inputs := []string{
		"(a  b\t\tc)\n",
		"(a\n  (b 1)\n\n\n  (c 2.50))\n",
		"(a \"quoted \\\"string\\\" with\\nnewline\")\n",
		"(top (mid (inner 1.000 -2.500)) )\n",
		"# leading comment\n(a 1)\n",
		"(a 1)",
	}

	for _, in := range inputs {
		doc, err := ParseString(in)
		if err != nil {
			t.Errorf("Failed to parse %q: %v", in, err)
			continue
		}
		if got := doc.String(); got != in {
			t.Errorf("Round trip of %q produced %q", in, got)
		}
	}
}

func TestRoundTripKeepsMissingFinalNewline(t *testing.T) {
	// A file that ends right after the closing paren must not gain a byte;
	// only documents built programmatically get the conventional newline.
	in := "(kicad_sch (version 1))"
	doc, err := ParseString(in)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	if got := doc.String(); got != in {
		t.Errorf("Expected %q, got %q", in, got)
	}

	built := &Document{Root: List("kicad_sch", List("version", Int(1)))}
	if got := built.String(); !strings.HasSuffix(got, ")\n") {
		t.Errorf("Synthesized document should end in a newline, got %q", got)
	}
}

func TestRoundTripPreservesNumberText(t *testing.T) {
	// 1.00 and 1 parse to the same float but must serialize differently.
	in := "(size 1.00 1)\n"
	doc, err := ParseString(in)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	if got := doc.String(); got != in {
		t.Errorf("Expected %q, got %q", in, got)
	}

	w, err := doc.Root.ChildFloat(1)
	if err != nil || w != 1.0 {
		t.Errorf("Expected parsed value 1.0, got %v (err %v)", w, err)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"unclosed list", "(a (b 1)"},
		{"stray close", "(a 1))"},
		{"unterminated string", `(a "oops`},
		{"empty input", ""},
		{"two roots", "(a)(b)"},
	}

	for _, tc := range cases {
		if _, err := ParseString(tc.input); err == nil {
			t.Errorf("%s: expected parse error for %q", tc.name, tc.input)
		}
	}
}

func TestParseErrorLocation(t *testing.T) {
	_, err := ParseString("(a\n  (b 1)\n")
	if err != nil {
		pe, ok := err.(*ParseError)
		if !ok {
			t.Fatalf("Expected *ParseError, got %T", err)
		}
		if pe.Line != 3 {
			t.Errorf("Expected error on line 3, got line %d", pe.Line)
		}
		return
	}
	t.Fatal("Expected parse error")
}

func TestReparseStructuralEquality(t *testing.T) {
	doc, err := ParseString(sampleSchematic)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	again, err := ParseString(doc.String())
	if err != nil {
		t.Fatalf("Failed to reparse: %v", err)
	}
	if !Equal(doc.Root, again.Root) {
		t.Error("Reparsed document is not structurally equal")
	}
}
