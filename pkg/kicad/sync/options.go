package sync

import (
	"log/slog"

	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/library"
	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/sexp"
)

// Options configures a synchronization run. The zero value is not usable;
// call Defaults or fill Resolver yourself.
type Options struct {
	// Resolver supplies symbol geometry. Shared read-only across sheets.
	Resolver *library.Resolver

	// Logger receives warnings as they happen; warnings also accumulate in
	// the report. Nil means slog.Default().
	Logger *slog.Logger

	// Project is the project name written into symbol instance blocks.
	Project string

	// PlacementOrigin is where newly added components start; each addition
	// steps right by PlacementStep, skipping positions already occupied.
	PlacementOrigin sexp.Position
	PlacementStep   float64

	// Parallel bounds concurrent sheet syncs in a hierarchical run.
	// Values below 1 mean one sheet at a time.
	Parallel int
}

// Defaults returns options with the built-in symbol table and standard
// placement policy.
func Defaults() Options {
	return Options{
		Resolver:        library.NewResolver(library.NewTableSource()),
		Project:         "project",
		PlacementOrigin: sexp.Position{X: 25.4, Y: 25.4},
		PlacementStep:   12.7,
		Parallel:        4,
	}
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Options) placementStep() float64 {
	if o.PlacementStep > 0 {
		return o.PlacementStep
	}
	return 12.7
}

// placer hands out non-colliding default positions for added components.
type placer struct {
	origin   sexp.Position
	step     float64
	occupied map[sexp.Position]bool
}

func newPlacer(o *Options, taken []sexp.Position) *placer {
	p := &placer{
		origin:   o.PlacementOrigin,
		step:     o.placementStep(),
		occupied: make(map[sexp.Position]bool),
	}
	for _, pos := range taken {
		p.occupied[pos] = true
	}
	return p
}

// next returns the first free slot. Exact overlap is all we avoid; packing
// quality is not a correctness concern, users re-place parts anyway.
func (p *placer) next() sexp.Position {
	pos := p.origin
	for p.occupied[pos] {
		pos.X += p.step
	}
	p.occupied[pos] = true
	return pos
}
