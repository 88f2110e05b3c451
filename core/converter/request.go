package converter

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
)

// ConversionRequest carries everything one batch run needs. It is built once
// by the CLI or the interactive shell after validation and passed by value;
// nothing mutates it afterwards.
type ConversionRequest struct {
	InputDir   string
	OutputDir  string
	Quality    int
	Recursive  bool
	Background color.NRGBA
}

// RunResult holds the totals accumulated over one batch run.
type RunResult struct {
	Converted int
	Skipped   int
}

// FileTask is one discovered input file and its mirrored output path.
type FileTask struct {
	InputPath  string
	OutputPath string
}

// ParseBackground parses an "R,G,B" string into an opaque color. Exactly
// three comma-separated integers in [0,255] are accepted.
func ParseBackground(s string) (color.NRGBA, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return color.NRGBA{}, &ValidationError{
			Field:   "background",
			Value:   s,
			Message: "must have exactly 3 values (R,G,B)",
		}
	}

	var channels [3]uint8
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return color.NRGBA{}, &ValidationError{
				Field:   "background",
				Value:   s,
				Message: "must be three integers separated by commas (e.g. 255,255,255)",
			}
		}
		if v < 0 || v > 255 {
			return color.NRGBA{}, &ValidationError{
				Field:   "background",
				Value:   s,
				Message: fmt.Sprintf("color value must be between 0 and 255, got %d", v),
			}
		}
		channels[i] = uint8(v)
	}

	return color.NRGBA{R: channels[0], G: channels[1], B: channels[2], A: 255}, nil
}

// Validate checks the request before any file is touched. Quality and the
// input directory are range-checked here; the background color is already a
// concrete value by construction.
func (r ConversionRequest) Validate() error {
	info, err := os.Stat(r.InputDir)
	if err != nil || !info.IsDir() {
		return &ValidationError{
			Field:   "input",
			Value:   r.InputDir,
			Message: "input directory does not exist",
		}
	}
	if r.Quality < 1 || r.Quality > 100 {
		return &ValidationError{
			Field:   "quality",
			Value:   r.Quality,
			Message: "must be between 1 and 100",
		}
	}
	return nil
}
