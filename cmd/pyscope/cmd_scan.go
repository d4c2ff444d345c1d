package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/LH183523/jedi/python/codebase"
	"github.com/LH183523/jedi/python/parser"
)

func newScanCmd() *cobra.Command {
	var listNames bool

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Scan a directory tree of Python files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			config, err := codebase.LoadConfig(root)
			if err != nil {
				return err
			}

			cb := codebase.New(root, config)
			if err := cb.ScanAll(); err != nil {
				return fmt.Errorf("scan %s: %w", root, err)
			}

			stats := cb.Stats()
			fmt.Printf("Files:     %d\n", stats.Files)
			fmt.Printf("Classes:   %d\n", stats.Classes)
			fmt.Printf("Functions: %d\n", stats.Functions)
			fmt.Printf("Imports:   %d\n", stats.Imports)

			if listNames {
				printTopLevelNames(cb)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&listNames, "names", "n", false, "list top-level definitions per file")

	return cmd
}

func printTopLevelNames(cb *codebase.Codebase) {
	files := cb.Files()
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	for _, file := range files {
		fmt.Printf("\n%s:\n", file.Path)
		for _, sub := range file.Tree.Subscopes {
			switch n := sub.(type) {
			case *parser.Class:
				fmt.Printf("  class %s (line %d)\n", n.Name, n.StartLine)
			case *parser.Function:
				fmt.Printf("  def %s (line %d)\n", n.Name, n.StartLine)
			}
		}
	}
}
