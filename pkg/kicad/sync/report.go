package sync

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// SheetReport records what one sheet or board sync did.
type SheetReport struct {
	File string

	Matched int
	Added   int
	Removed int
	Updated int

	AddedRefs     []string
	RemovedRefs   []string
	UpdatedRefs   []string
	PreservedRefs []string

	Warnings []string
}

// Report aggregates the sheet reports of one synchronization run. It is
// created fresh per run and only surfaced to the caller, never persisted.
type Report struct {
	mu     sync.Mutex
	Sheets []*SheetReport
}

// Add appends a sheet report; safe for concurrent sheet syncs.
func (r *Report) Add(sheet *SheetReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sheets = append(r.Sheets, sheet)
}

// Sort orders sheet reports by file for deterministic output after a
// parallel run.
func (r *Report) Sort() {
	sort.Slice(r.Sheets, func(i, j int) bool {
		return r.Sheets[i].File < r.Sheets[j].File
	})
}

// Totals sums the per-sheet counts.
func (r *Report) Totals() (matched, added, removed, updated int) {
	for _, s := range r.Sheets {
		matched += s.Matched
		added += s.Added
		removed += s.Removed
		updated += s.Updated
	}
	return
}

// Warnings collects every warning across sheets.
func (r *Report) Warnings() []string {
	var out []string
	for _, s := range r.Sheets {
		for _, w := range s.Warnings {
			out = append(out, fmt.Sprintf("%s: %s", s.File, w))
		}
	}
	return out
}

// Clean reports whether the run changed nothing and warned about nothing.
func (r *Report) Clean() bool {
	_, added, removed, updated := r.Totals()
	return added == 0 && removed == 0 && updated == 0 && len(r.Warnings()) == 0
}

// Summary renders a human-readable digest.
func (r *Report) Summary() string {
	var b strings.Builder
	matched, added, removed, updated := r.Totals()
	fmt.Fprintf(&b, "%d sheets: %d matched, %d added, %d removed, %d updated\n",
		len(r.Sheets), matched, added, removed, updated)
	for _, s := range r.Sheets {
		fmt.Fprintf(&b, "  %s: matched %d added %d removed %d updated %d\n",
			s.File, s.Matched, s.Added, s.Removed, s.Updated)
	}
	for _, w := range r.Warnings() {
		fmt.Fprintf(&b, "  warning: %s\n", w)
	}
	return b.String()
}
