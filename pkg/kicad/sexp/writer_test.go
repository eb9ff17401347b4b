package sexp

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanonicalFormatting(t *testing.T) {
	root := List("kicad_sch",
		List("version", Int(20250114)),
		List("generator", String("eeschema")),
		List("symbol",
			List("lib_id", String("Device:R")),
			List("at", Float(100.33), Float(50.8), Float(0)),
		),
	)
	doc := &Document{Root: root}

	want := `(kicad_sch
	(version 20250114)
	(generator "eeschema")
	(symbol
		(lib_id "Device:R")
		(at 100.33 50.8 0)
	)
)
`
	if got := doc.String(); got != want {
		t.Errorf("Canonical output mismatch.\n--- want ---\n%s\n--- got ---\n%s", want, got)
	}
}

func TestCanonicalOutputIsStable(t *testing.T) {
	root := List("a", List("b", Int(1)), List("c", String("x y")))
	first := (&Document{Root: root}).String()

	doc, err := ParseString(first)
	if err != nil {
		t.Fatalf("Failed to reparse canonical output: %v", err)
	}
	if second := doc.String(); second != first {
		t.Errorf("Canonical output not stable:\n%q\nvs\n%q", first, second)
	}
}

func TestFloatFormatting(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1.27, "1.27"},
		{-2.54, "-2.54"},
		{100, "100"},
		{0.1, "0.1"},
		{3.81, "3.81"},
	}
	for _, tc := range cases {
		if got := FormatFloat(tc.in); got != tc.want {
			t.Errorf("FormatFloat(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestQuoting(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", `"plain"`},
		{"two words", `"two words"`},
		{`has "quotes"`, `"has \"quotes\""`},
		{"line\nbreak", `"line\nbreak"`},
		{"", `""`},
	}
	for _, tc := range cases {
		if got := Quote(tc.in); got != tc.want {
			t.Errorf("Quote(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMutatedAtomKeepsLayout(t *testing.T) {
	in := "(symbol\n\t(property \"Value\" \"10k\"\n\t\t(at 0 0 0)\n\t)\n)\n"
	doc, err := ParseString(in)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	prop, ok := doc.Root.PropertyNode("Value")
	if !ok {
		t.Fatal("Missing Value property")
	}
	prop.Arg(2).SetString("22k")

	want := "(symbol\n\t(property \"Value\" \"22k\"\n\t\t(at 0 0 0)\n\t)\n)\n"
	if got := doc.String(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestAppendIntoParsedList(t *testing.T) {
	in := "(kicad_sch\n\t(version 1)\n)\n"
	doc, err := ParseString(in)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	doc.Root.AppendChild(List("paper", String("A4")))
	out := doc.String()

	again, err := ParseString(out)
	if err != nil {
		t.Fatalf("Mutated output failed to reparse: %v", err)
	}
	if _, ok := again.Root.FindChild("paper"); !ok {
		t.Error("Appended child missing after reparse")
	}
	if again.String() != out {
		t.Error("Mutated output is not stable across reparse")
	}
}

func TestRemoveChildKeepsValidity(t *testing.T) {
	in := "(root\n\t(a 1)\n\t(b 2)\n\t(c 3)\n)\n"
	doc, err := ParseString(in)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	b, _ := doc.Root.FindChild("b")
	if !doc.Root.RemoveChild(b) {
		t.Fatal("RemoveChild reported not found")
	}

	out := doc.String()
	again, err := ParseString(out)
	if err != nil {
		t.Fatalf("Output after removal failed to reparse: %v", err)
	}
	if _, ok := again.Root.FindChild("b"); ok {
		t.Error("Removed child still present")
	}
	if _, ok := again.Root.FindChild("a"); !ok {
		t.Error("Sibling lost during removal")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.kicad_sch")

	doc := &Document{Root: List("kicad_sch", List("version", Int(1)))}
	if err := doc.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read back: %v", err)
	}
	if string(data) != doc.String() {
		t.Error("File content does not match serialized document")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to list dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the target file, found %d entries", len(entries))
	}
}
