package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceSync/pkg/netlist"
)

var infoCmd = &cobra.Command{
	Use:   "info <design.json>",
	Short: "Summarize a circuit description",
	Long: `Display the sheet tree, component counts and nets of a circuit
description file without touching any KiCad files.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	design, err := netlist.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("load design: %w", err)
	}
	if design.Root == nil {
		return fmt.Errorf("%s: design has no root sheet", args[0])
	}
	if err := netlist.ExpandBuses(design); err != nil {
		return err
	}

	fmt.Printf("Design: %s\n", args[0])
	fmt.Printf("Components: %d\n\n", design.ComponentCount())

	fmt.Println("Sheets:")
	printSheet(design.Root, 1)
	fmt.Println()

	flat := netlist.Flatten(design)
	if len(flat.Nets) > 0 {
		fmt.Println("Nets:")
		names := make([]string, 0, len(flat.Nets))
		nodes := make(map[string]int)
		for _, n := range flat.Nets {
			names = append(names, n.Name)
			nodes[n.Name] = len(n.Nodes)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s (%d pins)\n", name, nodes[name])
		}
	}
	return nil
}

func printSheet(s *netlist.Sheet, depth int) {
	name := s.Name
	if name == "" {
		name = "(root)"
	}
	refs := make([]string, 0, len(s.Components))
	for _, c := range s.Components {
		refs = append(refs, c.Reference)
	}
	sort.Strings(refs)
	fmt.Printf("%s%s [%s]: %s\n", strings.Repeat("  ", depth), name, s.File, strings.Join(refs, ", "))
	for _, child := range s.Children {
		printSheet(child, depth+1)
	}
}
