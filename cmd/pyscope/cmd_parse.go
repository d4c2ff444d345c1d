package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LH183523/jedi/format"
	"github.com/LH183523/jedi/python/parser"
)

func newParseCmd() *cobra.Command {
	var outputFormat string
	var line int

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a Python file and dump its scope tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			data, err := os.ReadFile(filename)
			if err != nil {
				return fmt.Errorf("read file: %w", err)
			}

			opts := []parser.Option{parser.WithFile(filename)}
			if line > 0 {
				opts = append(opts, parser.WithLine(line))
			}
			res := parser.Parse(data, opts...)

			if line > 0 {
				printScopeAt(res, line)
				return nil
			}

			var encoder format.Encoder
			switch outputFormat {
			case "json":
				encoder = format.NewJSONEncoder(os.Stdout)
			case "python":
				encoder = format.NewPythonEncoder(os.Stdout)
			default:
				return fmt.Errorf("unknown format: %s", outputFormat)
			}
			if err := encoder.Encode(res.Module); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "output format (json, python)")
	cmd.Flags().IntVarP(&line, "line", "l", 0, "print the scope open at this line instead of the whole tree")

	return cmd
}

func printScopeAt(res *parser.Result, line int) {
	scope := res.UserScope
	if scope == nil {
		fmt.Printf("no scope at line %d\n", line)
		return
	}

	fmt.Printf("%s (lines %d..%d)\n", describeScope(scope), scope.Base().StartLine, scope.Base().EndLine)
	for _, name := range scope.DefinedNames() {
		fmt.Printf("  %s\n", name)
	}
}

func describeScope(scope parser.ScopeNode) string {
	switch n := scope.(type) {
	case *parser.Class:
		return "class " + n.Name.String()
	case *parser.Function:
		return "function " + n.Name.String()
	case *parser.Flow:
		return "flow " + n.Keyword
	default:
		return "module"
	}
}
