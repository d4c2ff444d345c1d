package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LH183523/jedi/python/codebase"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dir>",
		Short: "Scan a directory and keep the scope trees fresh as files change",
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
			fmt.Printf("watching %s (%d files)\n", root, cb.Stats().Files)

			watcher, err := codebase.NewFileWatcher(cb)
			if err != nil {
				return fmt.Errorf("watch %s: %w", root, err)
			}
			if err := watcher.Start(); err != nil {
				return fmt.Errorf("watch %s: %w", root, err)
			}
			defer watcher.Stop()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop
			return nil
		},
	}
}
