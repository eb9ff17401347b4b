package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/schematic"
	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceSync/pkg/netlist"
)

// sheetTask is one sheet scheduled for synchronization.
type sheetTask struct {
	wanted    *netlist.Sheet // empty sheet when the file is only on disk
	doc       *schematic.Document
	path      string // on-disk path
	sheetPath string // hierarchical path, "/" for the root
	created   bool
	before    string
}

// SyncProject synchronizes the whole sheet tree of a design against the
// files in dir. Every sheet reachable from the root is matched and
// mutated, not just the root; per-sheet reports aggregate into one Report.
// A missing child file referenced only by an existing sheet is a warning;
// a file that fails to parse aborts that file alone, and both leave
// sibling sheets synchronized. Files are written atomically, and only when
// their content actually changed.
func SyncProject(ctx context.Context, dir string, design *netlist.Design, opts Options) (*Report, error) {
	if design == nil || design.Root == nil {
		return nil, errors.New("sync: design has no root sheet")
	}
	if opts.Resolver == nil {
		return nil, errors.New("sync: options carry no resolver")
	}
	if err := netlist.ExpandBuses(design); err != nil {
		return nil, err
	}

	report := &Report{}
	tasks, loadErrs := collectSheets(dir, design, &opts, report)

	group, _ := errgroup.WithContext(ctx)
	limit := opts.Parallel
	if limit < 1 {
		limit = 1
	}
	group.SetLimit(limit)

	for _, t := range tasks {
		group.Go(func() error {
			sheet := t.wanted
			if sheet == nil {
				sheet = &netlist.Sheet{File: filepath.Base(t.path)}
			}
			report.Add(SyncSheet(t.doc, sheet, t.sheetPath, &opts))
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return report, err
	}

	for _, t := range tasks {
		after := t.doc.String()
		if t.created || after != t.before {
			if err := t.doc.Save(t.path); err != nil {
				loadErrs = append(loadErrs, fmt.Errorf("write %s: %w", t.path, err))
			}
		}
	}

	if err := writeIndex(dir, &opts, tasks); err != nil {
		loadErrs = append(loadErrs, err)
	}

	report.Sort()
	return report, errors.Join(loadErrs...)
}

// collectSheets walks the combined tree: the sheets the design wants plus
// the sheets existing files link to. Wanted child links missing from a
// parent are added; wanted sheet files missing on disk are created fresh.
func collectSheets(dir string, design *netlist.Design, opts *Options, report *Report) ([]*sheetTask, []error) {
	type queued struct {
		wanted    *netlist.Sheet
		file      string
		sheetPath string
	}

	var tasks []*sheetTask
	var errs []error
	visited := make(map[string]bool)

	queue := []queued{{wanted: design.Root, file: design.Root.File, sheetPath: "/"}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if visited[item.file] {
			// The same file reached twice means the hierarchy loops (or two
			// parents share a child; either way the first visit synced it).
			errs = append(errs, fmt.Errorf("%w: %s revisited", ErrSheetCycle, item.file))
			continue
		}
		visited[item.file] = true

		path := filepath.Join(dir, item.file)
		task := &sheetTask{wanted: item.wanted, path: path, sheetPath: item.sheetPath}

		doc, err := schematic.Load(path)
		switch {
		case err == nil:
			task.doc = doc
			task.before = doc.String()
		case errors.Is(err, os.ErrNotExist):
			if item.wanted == nil {
				sr := &SheetReport{File: item.file}
				warn := WarnMissingSheet(item.file)
				sr.Warnings = append(sr.Warnings, warn)
				opts.logger().Warn(warn)
				report.Add(sr)
				continue
			}
			task.doc = schematic.New()
			task.created = true
		default:
			// The parse error costs this file its sync, nothing more: the
			// sheets below it are known from the design and still run. The
			// parent's link uuid is unreadable, so their paths get fresh
			// segments.
			errs = append(errs, err)
			if item.wanted != nil {
				for _, child := range item.wanted.Children {
					queue = append(queue, queued{wanted: child, file: child.File, sheetPath: childPath(item.sheetPath, uuid.NewString())})
				}
			}
			continue
		}
		tasks = append(tasks, task)

		// Children: the wanted ones first (creating links as needed), then
		// whatever else the file links to.
		links := task.doc.SheetLinks()
		linked := make(map[string]schematic.SheetLink)
		for _, l := range links {
			linked[l.File] = l
		}

		var wantedChildren []*netlist.Sheet
		if item.wanted != nil {
			wantedChildren = item.wanted.Children
		}
		linkPos := sexp.Position{X: 152.4, Y: 25.4}
		for _, child := range wantedChildren {
			link, ok := linked[child.File]
			if !ok {
				node := task.doc.AddSheetLink(child.File, child.Name, linkPos)
				linkPos.Y += 31.75
				uuid, _ := node.StringAt("uuid", 1)
				link = schematic.SheetLink{Node: node, File: child.File, Name: child.Name, UUID: uuid}
				linked[child.File] = link
			}
			queue = append(queue, queued{wanted: child, file: child.File, sheetPath: childPath(item.sheetPath, link.UUID)})
		}
		for _, l := range links {
			if !wantedChild(wantedChildren, l.File) {
				queue = append(queue, queued{wanted: nil, file: l.File, sheetPath: childPath(item.sheetPath, l.UUID)})
			}
		}
	}

	return tasks, errs
}

func wantedChild(children []*netlist.Sheet, file string) bool {
	for _, c := range children {
		if c.File == file {
			return true
		}
	}
	return false
}

func childPath(parent, uuid string) string {
	if parent == "/" {
		return "/" + uuid
	}
	return parent + "/" + uuid
}
