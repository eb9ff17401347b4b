package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ots",
	Short: "OpenTraceSync - keep KiCad files in step with a circuit description",
	Long: `OpenTraceSync (ots) synchronizes KiCad design files against a circuit
description without destroying manual work:
  - schematic sheets gain, lose and update components in place
  - component positions, rotations and user edits survive
  - board footprints follow the design, placement stays untouched

Examples:
  ots sync design.json                      # Sync schematics in the current directory
  ots sync design.json --pcb board.kicad_pcb
  ots sync design.json --dry-run            # Show what would change
  ots info design.json                      # Summarize a circuit description`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// logger builds the run logger; warnings always show, debug only with -v.
func logger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
