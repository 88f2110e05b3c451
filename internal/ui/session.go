package ui

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/panjf2000/ants/v2"
	"github.com/pterm/pterm"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"png2jpg/config"
	"png2jpg/core/converter"
)

// Session drives the interactive conversion shell: it collects the same
// parameters as the CLI flags, then runs the identical batch routine on a
// single background worker while the render loop owns the terminal.
type Session struct {
	logger *zap.Logger
	cfg    *config.Config
	walker *converter.Walker
	pool   *ants.Pool
}

// NewSession creates an interactive session. The pool has exactly one worker:
// batches run sequentially, off the goroutine that drives prompts and
// rendering.
func NewSession(logger *zap.Logger, cfg *config.Config) (*Session, error) {
	pool, err := ants.NewPool(1, ants.WithOptions(ants.Options{PreAlloc: true}))
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	return &Session{
		logger: logger.Named("ui"),
		cfg:    cfg,
		walker: converter.NewWalker(logger),
		pool:   pool,
	}, nil
}

// Close releases the worker pool.
func (s *Session) Close() {
	s.pool.Release()
}

// Run shows the shell until the user quits.
func (s *Session) Run() error {
	if s.cfg.UI.DisableColor {
		pterm.DisableColor()
	}

	pterm.DefaultHeader.WithFullWidth().Println("PNG to JPEG Batch Converter")

	for {
		req, ok, err := s.collectRequest()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}
		if !ok {
			continue
		}

		if err := s.runBatch(req); err != nil {
			pterm.Error.Println(err.Error())
		}

		idx, _, err := (&promptui.Select{
			Label: "Run another conversion?",
			Items: []string{"Yes", "Quit"},
		}).Run()
		if err != nil || idx != 0 {
			return nil
		}
	}
}

// collectRequest prompts for every parameter. It returns ok=false (without
// error) when the chosen input folder holds nothing to convert, sending the
// user back to the start rather than running an empty batch.
func (s *Session) collectRequest() (converter.ConversionRequest, bool, error) {
	var req converter.ConversionRequest

	inputDir, err := (&promptui.Prompt{
		Label: "Input folder",
		Validate: func(s string) error {
			info, err := os.Stat(strings.TrimSpace(s))
			if err != nil || !info.IsDir() {
				return fmt.Errorf("folder does not exist")
			}
			return nil
		},
	}).Run()
	if err != nil {
		return req, false, err
	}
	req.InputDir = strings.TrimSpace(inputDir)

	outputDir, err := (&promptui.Prompt{
		Label: "Output folder",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("output folder is required")
			}
			return nil
		},
	}).Run()
	if err != nil {
		return req, false, err
	}
	req.OutputDir = strings.TrimSpace(outputDir)

	quality, err := (&promptui.Prompt{
		Label:   "JPEG quality (1-100)",
		Default: strconv.Itoa(s.cfg.Conversion.Quality),
		Validate: func(s string) error {
			v, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil || v < 1 || v > 100 {
				return fmt.Errorf("quality must be between 1 and 100")
			}
			return nil
		},
	}).Run()
	if err != nil {
		return req, false, err
	}
	req.Quality, _ = strconv.Atoi(strings.TrimSpace(quality))

	idx, _, err := (&promptui.Select{
		Label: "Include subfolders",
		Items: []string{"No", "Yes"},
	}).Run()
	if err != nil {
		return req, false, err
	}
	req.Recursive = idx == 1

	bg, err := s.promptBackground()
	if err != nil {
		return req, false, err
	}
	req.Background = bg

	// Same guard the convert button has: refuse to start a run that cannot
	// convert anything.
	count, err := s.walker.CountPNGFiles(req.InputDir, req.Recursive)
	if err != nil {
		pterm.Warning.Printfln("Cannot scan input folder: %v", err)
		return req, false, nil
	}
	if count == 0 {
		pterm.Warning.Println("No PNG files found in the input folder.")
		return req, false, nil
	}

	return req, true, nil
}

func (s *Session) promptBackground() (color.NRGBA, error) {
	idx, _, err := (&promptui.Select{
		Label: "Background for transparent PNGs",
		Items: []string{"White", "Black", "Custom (R,G,B)"},
	}).Run()
	if err != nil {
		return color.NRGBA{}, err
	}

	switch idx {
	case 0:
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}, nil
	case 1:
		return color.NRGBA{A: 255}, nil
	}

	value, err := (&promptui.Prompt{
		Label:   "Custom background color (R,G,B)",
		Default: s.cfg.Conversion.Background,
		Validate: func(s string) error {
			_, err := converter.ParseBackground(s)
			return err
		},
	}).Run()
	if err != nil {
		return color.NRGBA{}, err
	}
	return converter.ParseBackground(value)
}

// runBatch submits the walk to the background worker and blocks on the render
// loop until all progress output is drained. The worker never touches the
// terminal; the renderer goroutine never touches the filesystem.
func (s *Session) runBatch(req converter.ConversionRequest) error {
	pterm.Println()
	pterm.Info.Printfln("Input: %s", req.InputDir)
	pterm.Info.Printfln("Output: %s", req.OutputDir)
	pterm.Info.Printfln("Quality: %d", req.Quality)
	pterm.Info.Printfln("Recursive: %v", req.Recursive)
	pterm.Info.Printfln("Background: %d,%d,%d", req.Background.R, req.Background.G, req.Background.B)
	pterm.Println()

	renderer := NewRenderer(s.logger)

	var g errgroup.Group
	g.Go(renderer.Loop)

	var result converter.RunResult
	var runErr error
	done := make(chan struct{})
	if err := s.pool.Submit(func() {
		defer close(done)
		result, runErr = s.walker.Run(req, renderer.Post)
	}); err != nil {
		renderer.Close()
		_ = g.Wait()
		return fmt.Errorf("submitting batch: %w", err)
	}

	<-done
	renderer.Close()
	if err := g.Wait(); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	pterm.Println()
	pterm.Success.Printfln("Complete! Converted %d files. %d skipped.", result.Converted, result.Skipped)
	return nil
}
