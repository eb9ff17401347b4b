package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceSync/internal/config"
	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/library"
	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/pcb"
	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/sexp"
	kicadsync "github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/sync"
	"github.com/OpenTraceLab/OpenTraceSync/pkg/netlist"
)

var (
	syncDir    string
	syncPCB    string
	syncConfig string
	syncDryRun bool
	syncJobs   int
)

var syncCmd = &cobra.Command{
	Use:   "sync <design.json>",
	Short: "Synchronize KiCad files against a circuit description",
	Long: `Reconcile the schematic sheet tree (and optionally a board) in a project
directory against a circuit description.

Matched components are updated in place: positions, rotations and other
manual edits survive. With --dry-run nothing is written; the changes are
shown as unified diffs instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringVarP(&syncDir, "dir", "d", ".", "project directory holding the sheet files")
	syncCmd.Flags().StringVar(&syncPCB, "pcb", "", "board file to synchronize as well, relative to --dir")
	syncCmd.Flags().StringVar(&syncConfig, "config", "ots.yaml", "config file name inside the project directory")
	syncCmd.Flags().BoolVarP(&syncDryRun, "dry-run", "n", false, "show changes as diffs without writing")
	syncCmd.Flags().IntVarP(&syncJobs, "jobs", "j", 0, "max concurrent sheet syncs (0 = config default)")
}

func runSync(cmd *cobra.Command, args []string) error {
	design, err := netlist.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("load design: %w", err)
	}

	cfg, err := config.Load(filepath.Join(syncDir, syncConfig))
	if err != nil {
		return err
	}
	opts := buildOptions(cfg)

	dir := syncDir
	var snapshot map[string]string
	if syncDryRun {
		// Work on a throwaway copy; diffs come from comparing it back.
		dir, snapshot, err = copyProject(syncDir, syncPCB)
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
	}

	report, err := kicadsync.SyncProject(cmd.Context(), dir, design, opts)
	if err != nil {
		return err
	}

	if syncPCB != "" {
		boardPath := filepath.Join(dir, filepath.Base(syncPCB))
		if err := syncBoard(boardPath, design, &opts, report); err != nil {
			return err
		}
	}

	fmt.Print(report.Summary())

	if syncDryRun {
		return printDiffs(syncDir, dir, snapshot)
	}
	return nil
}

func buildOptions(cfg config.Config) kicadsync.Options {
	opts := kicadsync.Defaults()
	opts.Project = cfg.Project
	opts.Logger = logger()
	opts.PlacementOrigin = sexp.Position{X: cfg.Placement.OriginX, Y: cfg.Placement.OriginY}
	opts.PlacementStep = cfg.Placement.Step
	opts.Parallel = cfg.Parallel
	if syncJobs > 0 {
		opts.Parallel = syncJobs
	}
	if len(cfg.Libraries) > 0 {
		opts.Resolver = library.NewResolver(library.MultiSource{
			library.NewFileSource(cfg.Libraries...),
			library.NewTableSource(),
		})
	}
	return opts
}

func syncBoard(path string, design *netlist.Design, opts *kicadsync.Options, report *kicadsync.Report) error {
	board, err := pcb.Load(path)
	if os.IsNotExist(err) {
		board = pcb.New()
		board.Path = filepath.Base(path)
	} else if err != nil {
		return err
	}

	before := board.String()
	report.Add(kicadsync.SyncPCB(board, netlist.Flatten(design), opts))

	if after := board.String(); after != before {
		return board.Save(path)
	}
	return nil
}

// copyProject stages the sheet files (and the board, if any) into a temp
// directory and remembers their original content for diffing.
func copyProject(dir, pcbFile string) (string, map[string]string, error) {
	tmp, err := os.MkdirTemp("", "ots-dryrun-*")
	if err != nil {
		return "", nil, err
	}

	snapshot := make(map[string]string)
	entries, err := os.ReadDir(dir)
	if err != nil {
		os.RemoveAll(tmp)
		return "", nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if filepath.Ext(name) != ".kicad_sch" && name != filepath.Base(pcbFile) && filepath.Ext(name) != ".yaml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			os.RemoveAll(tmp)
			return "", nil, err
		}
		if err := os.WriteFile(filepath.Join(tmp, name), data, 0o644); err != nil {
			os.RemoveAll(tmp)
			return "", nil, err
		}
		snapshot[name] = string(data)
	}
	return tmp, snapshot, nil
}

// printDiffs renders a unified diff per file the dry run would change.
func printDiffs(origDir, tmpDir string, snapshot map[string]string) error {
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return err
	}
	changed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		data, err := os.ReadFile(filepath.Join(tmpDir, name))
		if err != nil {
			return err
		}
		before := snapshot[name]
		if string(data) == before {
			continue
		}
		changed++

		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(before),
			B:        difflib.SplitLines(string(data)),
			FromFile: filepath.Join(origDir, name),
			ToFile:   filepath.Join(origDir, name) + " (after sync)",
			Context:  3,
		})
		if err != nil {
			return err
		}
		fmt.Print(diff)
	}
	if changed == 0 {
		fmt.Println("dry run: nothing would change")
	} else {
		fmt.Printf("dry run: %d file(s) would change\n", changed)
	}
	return nil
}
