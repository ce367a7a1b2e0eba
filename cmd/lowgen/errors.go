package main

import (
	"fmt"
	"io"

	"github.com/aledsdavies/lowgen/lower"
	"github.com/aledsdavies/lowgen/specialize"
)

// formatError prints err with the detail its concrete type carries,
// colorized the way the rest of the CLI's output is.
func formatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}
	switch e := err.(type) {
	case *lower.GrammarConflict:
		fmt.Fprintf(w, "%s state %q: %s%s\n", colorize("conflict:", colorRed, useColor), e.State, e.Detail, colorize("", colorReset, useColor))
	case *lower.UnknownState:
		fmt.Fprintf(w, "%s %s%s\n", colorize("error:", colorRed, useColor), e.Error(), colorize("", colorReset, useColor))
		if e.Suggest != "" {
			fmt.Fprintf(w, "%s  did you mean %q?%s\n", colorize("", colorYellow, useColor), e.Suggest, colorize("", colorReset, useColor))
		}
	case *lower.BadCapture:
		fmt.Fprintf(w, "%s %s%s\n", colorize("warning:", colorYellow, useColor), e.Error(), colorize("", colorReset, useColor))
	case *lower.EmptyPattern:
		fmt.Fprintf(w, "%s %s%s\n", colorize("error:", colorRed, useColor), e.Error(), colorize("", colorReset, useColor))
	case *specialize.ConflictError:
		fmt.Fprintf(w, "%s state %q: %s%s\n", colorize("conflict:", colorRed, useColor), e.State, e.Detail, colorize("", colorReset, useColor))
	default:
		fmt.Fprintf(w, "%s %s%s\n", colorize("error:", colorRed, useColor), err.Error(), colorize("", colorReset, useColor))
	}
}
