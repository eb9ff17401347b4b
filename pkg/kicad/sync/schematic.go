package sync

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/geometry"
	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/library"
	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/schematic"
	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceSync/pkg/netlist"
)

// SyncSheet reconciles one schematic sheet against the wanted components
// and nets for that sheet. Matched components keep their position, rotation
// and instance identity; the circuit description wins on value, footprint
// and properties. sheetPath is the hierarchical path of this sheet ("/" for
// the root).
func SyncSheet(doc *schematic.Document, sheet *netlist.Sheet, sheetPath string, opts *Options) *SheetReport {
	report := &SheetReport{File: sheet.File}
	log := opts.logger()

	existing := doc.Symbols()

	wantedItems := make([]WantedItem, len(sheet.Components))
	for i, c := range sheet.Components {
		wantedItems[i] = WantedItem{Reference: c.Reference}
	}
	existingItems := make([]ExistingItem, len(existing))
	for i, s := range existing {
		path := ""
		if s.HasInstances {
			path = s.InstancePath
		}
		existingItems[i] = ExistingItem{Reference: s.Reference, InstancePath: path, Position: s.Position}
	}

	result := Match(wantedItems, existingItems)
	report.Matched = len(result.Matched)
	report.Warnings = append(report.Warnings, result.Warnings...)
	for _, w := range result.Warnings {
		log.Warn(w, "sheet", sheet.File)
	}

	// Removals first, then orphaned library definitions by use count.
	removedLibs := make(map[string]bool)
	for _, ei := range result.ToRemove {
		s := existing[ei]
		doc.RemoveSymbol(s)
		removedLibs[s.LibID] = true
		report.Removed++
		report.RemovedRefs = append(report.RemovedRefs, s.Reference)
	}
	for libID := range removedLibs {
		doc.PruneLibSymbol(libID)
	}

	for _, ei := range result.Preserved {
		report.PreservedRefs = append(report.PreservedRefs, existing[ei].Reference)
	}

	// live maps reference -> symbol that survives this sync, for net
	// reconciliation below.
	live := make(map[string]*schematic.Symbol)

	for _, pair := range result.Matched {
		w := sheet.Components[pair.Wanted]
		e := existing[pair.Existing]
		changed := false

		// A pair matched through its instance path can carry a renamed
		// reference; the circuit description owns it.
		if e.SetReference(w.Reference) {
			changed = true
		}
		if updateProperty(e.Node, "Value", w.Value) {
			changed = true
		}
		if updateProperty(e.Node, "Footprint", w.Footprint) {
			changed = true
		}
		if w.Properties != nil {
			for _, key := range w.Properties.Keys() {
				v, _ := w.Properties.Get(key)
				if e.Node.SetProperty(key, v) {
					changed = true
				}
			}
		}
		if !e.HasInstances {
			e.SetInstancePath(opts.Project, sheetPath)
			warn := WarnSynthesizedInstances(e.Reference)
			report.Warnings = append(report.Warnings, warn)
			log.Warn(warn, "sheet", sheet.File)
			changed = true
		}

		if changed {
			report.Updated++
			report.UpdatedRefs = append(report.UpdatedRefs, w.Reference)
		}
		live[w.Reference] = e
	}

	// Additions at default non-colliding positions.
	taken := make([]sexp.Position, 0, len(existing))
	for _, s := range doc.Symbols() {
		taken = append(taken, s.Position)
	}
	place := newPlacer(opts, taken)

	for _, wi := range result.ToAdd {
		w := sheet.Components[wi]
		geom, err := opts.Resolver.Resolve(w.LibID)
		if err != nil {
			warn := WarnUnresolvedSymbol(w.Reference, w.LibID, err)
			report.Warnings = append(report.Warnings, warn)
			log.Warn(warn, "sheet", sheet.File)
			continue
		}
		doc.EnsureLibSymbol(geom)
		s := doc.AddSymbol(w, geom, place.next(), 0, opts.Project, sheetPath)
		live[w.Reference] = s
		report.Added++
		report.AddedRefs = append(report.AddedRefs, w.Reference)
	}

	reconcileLabels(doc, sheet, live, report, opts)

	return report
}

// updateProperty rewrites a property only when the wanted value differs,
// and never creates empty properties that were not there before.
func updateProperty(node *sexp.Node, key, value string) bool {
	current, has := node.Property(key)
	if has && current == value {
		return false
	}
	if !has && value == "" {
		return false
	}
	return node.SetProperty(key, value)
}

type labelWant struct {
	text      string
	pos       sexp.Position
	angle     float64
	satisfied bool
}

func posKey(p sexp.Position) string {
	return fmt.Sprintf("%.4f|%.4f", p.X, p.Y)
}

// reconcileLabels makes every wanted connection visible as a global label
// at the pin's world position, and removes labels at our pins whose
// connection disappeared. Labels anywhere else belong to the user and are
// never touched; there is no global regeneration.
func reconcileLabels(doc *schematic.Document, sheet *netlist.Sheet, live map[string]*schematic.Symbol, report *SheetReport, opts *Options) {
	log := opts.logger()

	// World positions of every pin of every live component, so we can tell
	// our labels from the user's.
	pinAt := make(map[string]bool)
	geoms := make(map[string]*library.SymbolGeometry)
	for _, s := range live {
		geom, err := opts.Resolver.Resolve(s.LibID)
		if err != nil {
			continue
		}
		geoms[s.Reference] = geom
		for _, pin := range geom.Pins {
			world := geometry.PinWorldPosition(s.Position, s.Rotation, pin.Offset)
			pinAt[posKey(world)] = true
		}
	}

	var wants []*labelWant
	wantAt := make(map[string]*labelWant)
	for _, net := range sheet.Nets {
		for _, node := range net.Nodes {
			s, ok := live[node.Ref]
			if !ok {
				continue
			}
			geom, ok := geoms[node.Ref]
			if !ok {
				continue
			}

			pin, havePin := geom.Pin(node.Pin)
			var world sexp.Position
			orientation := geometry.Orientation{}
			if havePin {
				world = geometry.PinWorldPosition(s.Position, s.Rotation, pin.Offset)
				orientation = geometry.Resolved(pin.Orientation)
			} else {
				world = s.Position
			}
			pinDeg, resolved := orientation.OrDefault(0)
			if !resolved {
				warn := WarnDefaultedOrientation(node.Ref, node.Pin)
				report.Warnings = append(report.Warnings, warn)
				log.Warn(warn, "sheet", sheet.File)
			}

			want := &labelWant{
				text:  net.Name,
				pos:   world,
				angle: geometry.LabelOrientation(pinDeg, s.Rotation),
			}
			key := posKey(world)
			if _, dup := wantAt[key]; dup {
				continue
			}
			wants = append(wants, want)
			wantAt[key] = want
			pinAt[key] = true
		}
	}

	for _, label := range doc.GlobalLabels() {
		key := posKey(label.Position)
		if want, ok := wantAt[key]; ok {
			if label.Text == want.text {
				// Connection already labeled; placement (including any
				// user rotation) is left alone.
				want.satisfied = true
				continue
			}
			doc.RemoveLabel(label)
			continue
		}
		if pinAt[key] {
			// A label of ours whose connection no longer exists.
			doc.RemoveLabel(label)
		}
	}

	for _, want := range wants {
		if !want.satisfied {
			doc.AddGlobalLabel(want.text, want.pos, want.angle)
		}
	}
}
