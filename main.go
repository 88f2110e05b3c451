package main

import (
	"errors"
	"fmt"
	"os"

	"png2jpg/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		// The summary line has already been printed for this case; the
		// sentinel only carries the exit code.
		if !errors.Is(err, cmd.ErrNothingConverted) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
