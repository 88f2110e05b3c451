package converter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"go.uber.org/zap"
)

const (
	pngExt  = ".png"
	jpegExt = ".jpg"
)

// Walker enumerates files under an input root and drives the single-file
// converter, mirroring the directory structure under the output root.
type Walker struct {
	logger *zap.Logger
}

// NewWalker creates a batch walker.
func NewWalker(logger *zap.Logger) *Walker {
	return &Walker{logger: logger}
}

// Run processes every entry under req.InputDir in lexicographic order and
// returns the converted/skipped totals. Per-file failures are reported
// through sink and never abort the batch; only validation and a broken walk
// of the input root itself return an error.
func (w *Walker) Run(req ConversionRequest, sink ProgressSink) (RunResult, error) {
	if err := req.Validate(); err != nil {
		return RunResult{}, err
	}
	if sink == nil {
		sink = NopSink
	}

	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return RunResult{}, &FilesystemError{Path: req.OutputDir, Err: err}
	}

	// godirwalk reports cleaned paths; normalize the root so the comparison
	// and Rel computations below stay consistent.
	req.InputDir = filepath.Clean(req.InputDir)

	conv := NewConverter(w.logger, req.Quality, req.Background)
	var result RunResult

	err := godirwalk.Walk(req.InputDir, &godirwalk.Options{
		// Sorted walk keeps the processing order reproducible across runs.
		Unsorted: false,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				if path == req.InputDir {
					return nil
				}
				// Directories are never counted, and in non-recursive mode
				// their contents are not visited at all.
				if !req.Recursive {
					return filepath.SkipDir
				}
				return nil
			}
			w.processFile(req, conv, path, sink, &result)
			return nil
		},
	})
	if err != nil {
		return result, &FilesystemError{Path: req.InputDir, Err: err}
	}

	w.logger.Info("batch finished",
		zap.String("input", req.InputDir),
		zap.String("output", req.OutputDir),
		zap.Int("converted", result.Converted),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// isConvertiblePNG reports whether path names a PNG input. The extension
// check is case-insensitive, and a file named exactly ".png" is a dotfile
// with an empty stem, not a PNG.
func isConvertiblePNG(path string) bool {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.EqualFold(ext, pngExt) && len(base) > len(ext)
}

func (w *Walker) processFile(req ConversionRequest, conv *Converter, path string, sink ProgressSink, result *RunResult) {
	if !isConvertiblePNG(path) {
		sink(fmt.Sprintf("Warning: Skipping non-PNG file: %s", path), false)
		result.Skipped++
		return
	}

	rel, err := filepath.Rel(req.InputDir, path)
	if err != nil {
		sink(fmt.Sprintf("Error converting %s: %v", path, err), true)
		result.Skipped++
		return
	}

	task := FileTask{
		InputPath:  path,
		OutputPath: filepath.Join(req.OutputDir, strings.TrimSuffix(rel, filepath.Ext(rel))+jpegExt),
	}

	sink(fmt.Sprintf("Converting: %s -> %s", filepath.Base(task.InputPath), filepath.Base(task.OutputPath)), false)

	if err := conv.ConvertFile(task); err != nil {
		sink(fmt.Sprintf("Error converting %s: %v", task.InputPath, err), true)
		w.logger.Warn("conversion failed", zap.String("file", task.InputPath), zap.Error(err))
		result.Skipped++
		return
	}
	result.Converted++
}

// CountPNGFiles reports how many convertible files a run over dir would
// find. The interactive shell uses it to refuse starting a batch that can do
// nothing; an unwalkable dir is an error, not an empty result.
func (w *Walker) CountPNGFiles(dir string, recursive bool) (int, error) {
	dir = filepath.Clean(dir)
	count := 0
	err := godirwalk.Walk(dir, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				if path == dir {
					return nil
				}
				if !recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if isConvertiblePNG(path) {
				count++
			}
			return nil
		},
	})
	if err != nil {
		return 0, &FilesystemError{Path: dir, Err: err}
	}
	return count, nil
}
