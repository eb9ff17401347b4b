package sync

import (
	"errors"
	"fmt"
)

// ErrMissingSheet marks a child sheet file referenced by a parent that is
// absent on disk. It surfaces as a warning; sibling sheets still sync.
var ErrMissingSheet = errors.New("missing sheet file")

// ErrSheetCycle marks a sheet tree that references itself.
var ErrSheetCycle = errors.New("sheet hierarchy contains a cycle")

// WarnMissingSheet describes an absent child sheet file.
func WarnMissingSheet(file string) string {
	return fmt.Sprintf("missing sheet file %q; skipped, siblings still synchronized", file)
}

// WarnSynthesizedInstances describes instance data invented for a matched
// component. Losing instance data degrades future matching precision, so
// the synthesis is always reported.
func WarnSynthesizedInstances(ref string) string {
	return fmt.Sprintf("component %q had no instance data; synthesized a single-instance path", ref)
}

// WarnUnresolvedSymbol describes a library identifier the resolver cannot
// serve. Components of that type are skipped; the rest of the sheet syncs.
func WarnUnresolvedSymbol(ref, libID string, err error) string {
	return fmt.Sprintf("component %q: cannot resolve symbol %q: %v; skipped", ref, libID, err)
}

// WarnDefaultedOrientation describes a pin orientation that fell back to a
// default because the library geometry did not cover the pin.
func WarnDefaultedOrientation(ref, pin string) string {
	return fmt.Sprintf("pin %s.%s has no resolved orientation; label placed with default 0", ref, pin)
}
