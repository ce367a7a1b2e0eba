package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var noColor bool

	rootCmd := &cobra.Command{
		Use:           "lowgen",
		Short:         "Lower a byte-matching grammar into a flat instruction machine",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newBuildCommand(&noColor))
	rootCmd.AddCommand(newWatchCommand(&noColor))

	if err := rootCmd.Execute(); err != nil {
		formatError(os.Stderr, err, shouldUseColor(noColor))
		os.Exit(1)
	}
}
