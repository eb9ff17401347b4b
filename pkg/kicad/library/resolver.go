// Package library resolves symbolic part identifiers to the pin geometry
// the synchronizer needs for connectivity and label placement. Geometry is
// loaded through a Source and cached; the cache is explicit state owned by
// the Resolver, shared read-only between concurrent sheet syncs.
package library

import (
	"errors"
	"fmt"
	"sync"

	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/geometry"
	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/sexp"
)

// ErrSymbolNotFound reports an unresolvable library identifier. It is fatal
// only for components of that type; other components on a sheet still sync.
var ErrSymbolNotFound = errors.New("library symbol not found")

// PinGeometry describes one pin of a symbol in sheet coordinates (Y down).
type PinGeometry struct {
	Number      string
	Name        string
	Offset      sexp.Position // offset from the symbol anchor
	Orientation float64       // direction the pin points away from the body, degrees
	Length      float64
}

// SymbolGeometry is the canonical geometry of a library symbol.
type SymbolGeometry struct {
	LibID     string
	RefPrefix string // default reference prefix, e.g. "R"
	Pins      []PinGeometry
}

// Pin returns the pin with the given number. The orientation of a missing
// pin is explicitly unresolved, never a silent zero.
func (g *SymbolGeometry) Pin(number string) (*PinGeometry, bool) {
	for i := range g.Pins {
		if g.Pins[i].Number == number {
			return &g.Pins[i], true
		}
	}
	return nil, false
}

// PinOrientation looks up a pin's orientation as an explicit option.
func (g *SymbolGeometry) PinOrientation(number string) geometry.Orientation {
	if p, ok := g.Pin(number); ok {
		return geometry.Resolved(p.Orientation)
	}
	return geometry.Orientation{}
}

// Source loads symbol geometry by library identifier.
type Source interface {
	Load(libID string) (*SymbolGeometry, error)
}

// Resolver wraps a Source with a read-through cache. Each identifier is
// loaded at most once; concurrent readers share cached entries safely.
type Resolver struct {
	source Source

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	once sync.Once
	geom *SymbolGeometry
	err  error
}

// NewResolver creates a resolver over the given source.
func NewResolver(source Source) *Resolver {
	return &Resolver{
		source:  source,
		entries: make(map[string]*entry),
	}
}

// Resolve returns the geometry for a library identifier, loading it on
// first use.
func (r *Resolver) Resolve(libID string) (*SymbolGeometry, error) {
	r.mu.Lock()
	e, ok := r.entries[libID]
	if !ok {
		e = &entry{}
		r.entries[libID] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		e.geom, e.err = r.source.Load(libID)
	})
	if e.err != nil {
		return nil, fmt.Errorf("resolve %q: %w", libID, e.err)
	}
	return e.geom, nil
}

// MultiSource tries each source in order, returning the first hit.
type MultiSource []Source

// Load implements Source.
func (m MultiSource) Load(libID string) (*SymbolGeometry, error) {
	for _, s := range m {
		geom, err := s.Load(libID)
		if err == nil {
			return geom, nil
		}
		if !errors.Is(err, ErrSymbolNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, libID)
}
