package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/geometry"
	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/sexp"
)

// FileSource loads geometry from .kicad_sym symbol library files. An
// identifier "Device:R" maps to the symbol "R" inside "Device.kicad_sym",
// searched across the configured directories. Parsed libraries are kept so
// each file is read once.
type FileSource struct {
	dirs []string

	mu   sync.Mutex
	libs map[string]map[string]*SymbolGeometry // lib name -> symbol name -> geometry
}

// NewFileSource creates a source searching the given directories in order.
func NewFileSource(dirs ...string) *FileSource {
	return &FileSource{
		dirs: dirs,
		libs: make(map[string]map[string]*SymbolGeometry),
	}
}

// Load implements Source.
func (f *FileSource) Load(libID string) (*SymbolGeometry, error) {
	libName, symName, ok := strings.Cut(libID, ":")
	if !ok {
		return nil, fmt.Errorf("%w: %q has no library prefix", ErrSymbolNotFound, libID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	lib, ok := f.libs[libName]
	if !ok {
		var err error
		lib, err = f.loadLibrary(libName)
		if err != nil {
			return nil, err
		}
		f.libs[libName] = lib
	}

	geom, ok := lib[symName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, libID)
	}
	return geom, nil
}

func (f *FileSource) loadLibrary(libName string) (map[string]*SymbolGeometry, error) {
	for _, dir := range f.dirs {
		path := filepath.Join(dir, libName+".kicad_sym")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		doc, err := sexp.ParseFile(path)
		if err != nil {
			return nil, fmt.Errorf("symbol library %s: %w", path, err)
		}
		return parseLibrary(libName, doc.Root)
	}
	return nil, fmt.Errorf("%w: no library file for %q", ErrSymbolNotFound, libName)
}

func parseLibrary(libName string, root *sexp.Node) (map[string]*SymbolGeometry, error) {
	if root.Head() != "kicad_symbol_lib" {
		return nil, fmt.Errorf("not a symbol library (root is %q)", root.Head())
	}

	lib := make(map[string]*SymbolGeometry)
	for _, symNode := range root.FindAll("symbol") {
		name, err := symNode.ChildString(1)
		if err != nil {
			continue
		}
		geom := &SymbolGeometry{LibID: libName + ":" + name}
		if ref, ok := symNode.Property("Reference"); ok {
			geom.RefPrefix = ref
		}
		collectPins(symNode, geom)
		lib[name] = geom
	}
	return lib, nil
}

// collectPins gathers pins from the symbol and its unit sub-symbols
// (KiCad nests drawing units as inner (symbol "R_1_1" ...) blocks).
func collectPins(symNode *sexp.Node, geom *SymbolGeometry) {
	for _, pinNode := range symNode.FindAll("pin") {
		if pin, ok := parsePin(pinNode); ok {
			geom.Pins = append(geom.Pins, pin)
		}
	}
	for _, unit := range symNode.FindAll("symbol") {
		collectPins(unit, geom)
	}
}

// parsePin converts a pin from symbol-file coordinates (Y up) to sheet
// coordinates (Y down): the Y offset negates and the angle mirrors.
func parsePin(pinNode *sexp.Node) (PinGeometry, bool) {
	pos, angle, ok := pinNode.At()
	if !ok {
		return PinGeometry{}, false
	}
	pin := PinGeometry{
		Offset:      sexp.Position{X: pos.X, Y: -pos.Y},
		Orientation: geometry.Normalize(360 - angle),
	}
	if length, ok := pinNode.FloatAt("length", 1); ok {
		pin.Length = length
	}
	if nameNode, ok := pinNode.FindChild("name"); ok {
		pin.Name, _ = nameNode.ChildString(1)
	}
	if numNode, ok := pinNode.FindChild("number"); ok {
		pin.Number, _ = numNode.ChildString(1)
	}
	if pin.Number == "" {
		return PinGeometry{}, false
	}
	return pin, true
}
