package main

import (
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/LH183523/jedi/python/codebase"
)

func newLSPCmd() *cobra.Command {
	var verbosity int

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		RunE: func(cmd *cobra.Command, args []string) error {
			commonlog.Configure(verbosity, nil)
			server := codebase.NewLSPServer(version)
			return server.RunStdio()
		},
	}

	cmd.Flags().IntVarP(&verbosity, "verbose", "v", 0, "log verbosity (0-2)")

	return cmd
}
