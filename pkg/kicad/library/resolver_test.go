package library

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/sexp"
)

// countingSource wraps a Source and counts Load calls.
type countingSource struct {
	inner Source
	mu    sync.Mutex
	calls map[string]int
}

func (c *countingSource) Load(libID string) (*SymbolGeometry, error) {
	c.mu.Lock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[libID]++
	c.mu.Unlock()
	return c.inner.Load(libID)
}

func TestResolverCachesPerKey(t *testing.T) {
	src := &countingSource{inner: NewTableSource()}
	r := NewResolver(src)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Resolve("Device:R"); err != nil {
				t.Errorf("Resolve failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if src.calls["Device:R"] != 1 {
		t.Errorf("Expected exactly 1 load, got %d", src.calls["Device:R"])
	}
}

func TestResolverUnknownSymbol(t *testing.T) {
	r := NewResolver(NewTableSource())
	_, err := r.Resolve("Nope:Missing")
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("Expected ErrSymbolNotFound, got %v", err)
	}
}

func TestTableSourceGeometry(t *testing.T) {
	geom, err := NewTableSource().Load("Device:R")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if geom.RefPrefix != "R" {
		t.Errorf("Expected prefix R, got %q", geom.RefPrefix)
	}
	if len(geom.Pins) != 2 {
		t.Fatalf("Expected 2 pins, got %d", len(geom.Pins))
	}

	p1, ok := geom.Pin("1")
	if !ok {
		t.Fatal("Missing pin 1")
	}
	if p1.Offset != (sexp.Position{X: 0, Y: -3.81}) {
		t.Errorf("Pin 1 offset %v", p1.Offset)
	}

	o := geom.PinOrientation("1")
	if deg, resolved := o.OrDefault(0); !resolved || deg != 90 {
		t.Errorf("Pin 1 orientation %v resolved=%v", deg, resolved)
	}
	if _, resolved := geom.PinOrientation("99").OrDefault(0); resolved {
		t.Error("Orientation of missing pin reported as resolved")
	}
}

const sampleLib = `(kicad_symbol_lib
	(version 20241209)
	(generator "kicad_symbol_editor")
	(symbol "R"
		(property "Reference" "R"
			(at 2.032 0 90)
		)
		(property "Value" "R"
			(at 0 0 90)
		)
		(symbol "R_1_1"
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
			(pin passive line
				(at 0 -3.81 90)
				(length 1.27)
				(name "~")
				(number "2")
			)
		)
	)
)
`

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Device.kicad_sym"), []byte(sampleLib), 0o644); err != nil {
		t.Fatalf("Failed to write library: %v", err)
	}

	src := NewFileSource(dir)
	geom, err := src.Load("Device:R")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if geom.RefPrefix != "R" {
		t.Errorf("Expected prefix R, got %q", geom.RefPrefix)
	}
	if len(geom.Pins) != 2 {
		t.Fatalf("Expected 2 pins, got %d", len(geom.Pins))
	}

	// Symbol files are Y-up; sheet coordinates are Y-down.
	p1, _ := geom.Pin("1")
	if p1.Offset != (sexp.Position{X: 0, Y: -3.81}) {
		t.Errorf("Pin 1 offset %v", p1.Offset)
	}
	if p1.Orientation != 90 {
		t.Errorf("Pin 1 orientation %v", p1.Orientation)
	}

	if _, err := src.Load("Device:Missing"); !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("Expected ErrSymbolNotFound, got %v", err)
	}
	if _, err := src.Load("NoSuchLib:X"); !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("Expected ErrSymbolNotFound, got %v", err)
	}
}

func TestMultiSource(t *testing.T) {
	table := NewTableSource()
	custom := NewTableSource()
	custom.Add(&SymbolGeometry{LibID: "Custom:X", RefPrefix: "U"})

	src := MultiSource{table, custom}
	if _, err := src.Load("Custom:X"); err != nil {
		t.Errorf("MultiSource missed second source: %v", err)
	}
	if _, err := src.Load("Device:R"); err != nil {
		t.Errorf("MultiSource missed first source: %v", err)
	}
	if _, err := src.Load("Nope:X"); !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("Expected ErrSymbolNotFound, got %v", err)
	}
}
