package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"png2jpg/core/converter"
)

// newConsoleSink writes progress lines to stdout and per-file failures to
// stderr, coloring failures only when stderr is a terminal.
func newConsoleSink() converter.ProgressSink {
	colorize := term.IsTerminal(int(os.Stderr.Fd()))
	red := color.New(color.FgRed)

	return func(message string, isError bool) {
		if !isError {
			fmt.Println(message)
			return
		}
		if colorize {
			red.Fprintln(os.Stderr, message)
			return
		}
		fmt.Fprintln(os.Stderr, message)
	}
}
