package sync

import (
	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/pcb"
	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceSync/pkg/netlist"
)

// SyncPCB reconciles a board against the flattened design. Matched
// footprints keep their position, rotation and layer untouched; only the
// identifier, value and pad nets follow the design. Footprints on the board
// that the design no longer contains are removed, and a pad whose pin left
// every net loses its membership instead of keeping a stale one. Duplicate
// references follow the same policy as the schematic side: the
// lowest-position copy is matched, the rest stay untouched.
func SyncPCB(board *pcb.Board, flat *netlist.Flat, opts *Options) *SheetReport {
	report := &SheetReport{File: board.Path}
	log := opts.logger()

	existing := board.Footprints()
	wantedItems := make([]WantedItem, len(flat.Components))
	for i, c := range flat.Components {
		wantedItems[i] = WantedItem{Reference: c.Reference}
	}
	existingItems := make([]ExistingItem, len(existing))
	for i, f := range existing {
		existingItems[i] = ExistingItem{Reference: f.Reference, Position: f.Position}
	}

	result := Match(wantedItems, existingItems)
	report.Matched = len(result.Matched)
	report.Warnings = append(report.Warnings, result.Warnings...)
	for _, w := range result.Warnings {
		log.Warn(w, "board", board.Path)
	}

	for _, ei := range result.ToRemove {
		f := existing[ei]
		board.RemoveFootprint(f)
		report.Removed++
		report.RemovedRefs = append(report.RemovedRefs, f.Reference)
	}
	for _, ei := range result.Preserved {
		report.PreservedRefs = append(report.PreservedRefs, existing[ei].Reference)
	}

	for _, pair := range result.Matched {
		c := flat.Components[pair.Wanted]
		f := existing[pair.Existing]

		changed := false
		if c.Footprint != "" && f.SetLibID(c.Footprint) {
			changed = true
		}
		if updateProperty(f.Node, "Value", c.Value) {
			changed = true
		}
		if syncPads(board, f, c.Reference, flat) {
			changed = true
		}
		if changed {
			report.Updated++
			report.UpdatedRefs = append(report.UpdatedRefs, c.Reference)
		}
	}

	taken := make([]sexp.Position, 0, len(existing))
	for _, f := range board.Footprints() {
		taken = append(taken, f.Position)
	}
	place := newPlacer(opts, taken)

	for _, wi := range result.ToAdd {
		c := flat.Components[wi]
		f := board.AddFootprint(c, place.next())
		syncPads(board, f, c.Reference, flat)
		report.Added++
		report.AddedRefs = append(report.AddedRefs, c.Reference)
	}

	return report
}

// syncPads points every pad of a footprint at the net its pin belongs to.
func syncPads(board *pcb.Board, f *pcb.Footprint, ref string, flat *netlist.Flat) bool {
	changed := false
	for _, pad := range f.Pads {
		name, ok := flat.NetOf(ref, pad.Number)
		if !ok {
			if pad.ClearNet() {
				changed = true
			}
			continue
		}
		num := board.EnsureNet(name)
		if pad.AssignNet(num, name) {
			changed = true
		}
	}
	return changed
}
