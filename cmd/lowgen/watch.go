package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func newWatchCommand(noColor *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <grammar.json>",
		Short: "Recompile a grammar document on every save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], *noColor)
		},
	}
	return cmd
}

func runWatch(cmd *cobra.Command, path string, noColor bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	useColor := shouldUseColor(noColor)
	out := cmd.OutOrStdout()
	recompile := func() {
		m, err := buildMachine(path)
		if err != nil {
			formatError(os.Stderr, err, useColor)
			return
		}
		fmt.Fprintf(out, "%s %s (%d nodes)\n", colorize("rebuilt", colorGreen, useColor), m.Fingerprint().String(), len(m.Nodes))
	}

	recompile()
	fmt.Fprintf(out, "%s %s\n", colorize("watching", colorCyan, useColor), dir)

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			evAbs, err := filepath.Abs(ev.Name)
			if err != nil || evAbs != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			recompile()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "%s %v\n", colorize("watcher error:", colorRed, useColor), err)
		}
	}
}
