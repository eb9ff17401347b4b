// Package sync reconciles a wanted circuit description against existing
// KiCad design files: it matches components by identity, applies the
// minimal set of mutations, and reports everything it did. Running the same
// sync twice produces a byte-identical file the second time.
package sync

import (
	"fmt"
	"sort"

	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/sexp"
)

// WantedItem is the matcher's view of a component the design wants.
type WantedItem struct {
	Reference    string
	InstancePath string // optional hierarchical occurrence identity
}

// ExistingItem is the matcher's view of a component found in a file.
type ExistingItem struct {
	Reference    string
	InstancePath string // optional; hand-edited files often have none
	Position     sexp.Position
}

// Pair links a wanted index to an existing index.
type Pair struct {
	Wanted   int
	Existing int
}

// MatchResult is the correspondence between wanted and existing sets.
// Preserved lists surplus existing components under a colliding reference;
// they are reported, never deleted.
type MatchResult struct {
	Matched   []Pair
	ToAdd     []int // wanted indices with no existing counterpart
	ToRemove  []int // existing indices with no wanted counterpart
	Preserved []int // existing indices kept due to ambiguous reference
	Warnings  []string
}

// Match computes the correspondence. The primary key is the instance path
// when both sides carry one; otherwise reference equality within the sheet.
// Duplicate references on the existing side resolve deterministically to
// the lowest-position candidate (smallest Y, then X) with a warning.
// Neither input is mutated.
func Match(wanted []WantedItem, existing []ExistingItem) MatchResult {
	var result MatchResult

	matchedExisting := make([]bool, len(existing))
	preserved := make([]bool, len(existing))

	byPath := make(map[string]int)
	for i, e := range existing {
		if e.InstancePath != "" {
			byPath[e.InstancePath] = i
		}
	}

	for wi, w := range wanted {
		// Primary key: full instance path.
		if w.InstancePath != "" {
			if ei, ok := byPath[w.InstancePath]; ok && !matchedExisting[ei] {
				matchedExisting[ei] = true
				result.Matched = append(result.Matched, Pair{Wanted: wi, Existing: ei})
				continue
			}
		}

		// Fallback: reference equality.
		candidates := referenceCandidates(existing, matchedExisting, w.Reference)
		switch len(candidates) {
		case 0:
			result.ToAdd = append(result.ToAdd, wi)
		case 1:
			ei := candidates[0]
			matchedExisting[ei] = true
			result.Matched = append(result.Matched, Pair{Wanted: wi, Existing: ei})
		default:
			// Duplicate reference in the file. Pick the lowest-position
			// candidate; the rest stay on the sheet untouched.
			ei := lowestPosition(existing, candidates)
			matchedExisting[ei] = true
			result.Matched = append(result.Matched, Pair{Wanted: wi, Existing: ei})
			for _, other := range candidates {
				if other != ei {
					preserved[other] = true
				}
			}
			result.Warnings = append(result.Warnings, WarnAmbiguousMatch(w.Reference, len(candidates)))
		}
	}

	for ei := range existing {
		switch {
		case matchedExisting[ei]:
		case preserved[ei]:
			result.Preserved = append(result.Preserved, ei)
		default:
			result.ToRemove = append(result.ToRemove, ei)
		}
	}

	return result
}

func referenceCandidates(existing []ExistingItem, taken []bool, ref string) []int {
	var out []int
	for i, e := range existing {
		if !taken[i] && e.Reference == ref {
			out = append(out, i)
		}
	}
	return out
}

func lowestPosition(existing []ExistingItem, candidates []int) int {
	sorted := append([]int(nil), candidates...)
	sort.Slice(sorted, func(a, b int) bool {
		pa, pb := existing[sorted[a]].Position, existing[sorted[b]].Position
		if pa.Y != pb.Y {
			return pa.Y < pb.Y
		}
		if pa.X != pb.X {
			return pa.X < pb.X
		}
		return sorted[a] < sorted[b]
	})
	return sorted[0]
}

// WarnAmbiguousMatch describes a duplicate-reference resolution.
func WarnAmbiguousMatch(ref string, count int) string {
	return fmt.Sprintf("ambiguous match: %d components share reference %q; matched the lowest-position one, preserved the rest", count, ref)
}
