package main

import (
	"fmt"
	"os"

	"github.com/aledsdavies/lowgen/backend"
	"github.com/aledsdavies/lowgen/grammar"
	"github.com/aledsdavies/lowgen/lower"
	"github.com/spf13/cobra"
)

func newBuildCommand(noColor *bool) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "build <grammar.json>",
		Short: "Load, validate, and translate a grammar document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := buildMachine(args[0])
			if err != nil {
				formatError(os.Stderr, err, shouldUseColor(*noColor))
				return err
			}

			fp := m.Fingerprint()
			useColor := shouldUseColor(*noColor)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", colorize("fingerprint:", colorGreen, useColor), fp.String())
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", colorize("nodes:", colorGray, useColor), len(m.Nodes))

			if verbose {
				d := backend.Describe(m)
				for _, ep := range d.EntryPoints {
					fmt.Fprintf(cmd.OutOrStdout(), "  %-24s -> node %d\n", ep.Name, ep.Index)
				}
				for _, p := range d.Props {
					fmt.Fprintf(cmd.OutOrStdout(), "  prop[%d] %s: %s\n", p.Index, p.Name, p.Typ)
				}
				for _, bt := range d.Bitmaps {
					fmt.Fprintf(cmd.OutOrStdout(), "  bitmap[%d] %s\n", bt.Index, bt.Interval.String())
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print entry points, storage props, and bitmap tables")
	return cmd
}

func buildMachine(path string) (*lower.Machine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	g, err := grammar.LoadGrammar(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	m, err := lower.Translate(*g)
	if err != nil {
		return nil, err
	}
	return m, nil
}
