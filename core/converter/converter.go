package converter

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/h2non/filetype/types"
	"go.uber.org/zap"
)

// Converter flattens single images to JPEG. Transparent sources are
// composited over the configured background color; everything else is
// converted to a directly addressable RGBA representation before encoding.
type Converter struct {
	logger  *zap.Logger
	quality int
	bg      color.NRGBA
}

// NewConverter creates a single-file converter bound to one quality setting
// and one background color.
func NewConverter(logger *zap.Logger, quality int, background color.NRGBA) *Converter {
	return &Converter{
		logger:  logger,
		quality: quality,
		bg:      background,
	}
}

// ConvertFile decodes the image at task.InputPath and writes a JPEG at
// task.OutputPath. Exactly one file is written on success; on failure the
// destination is left untouched and a typed error is returned.
func (c *Converter) ConvertFile(task FileTask) error {
	src, err := imaging.Open(task.InputPath)
	if err != nil {
		return &DecodeError{Path: task.InputPath, Err: c.describeDecodeFailure(task.InputPath, err)}
	}

	flat := c.flatten(src)

	if err := os.MkdirAll(filepath.Dir(task.OutputPath), 0755); err != nil {
		return &FilesystemError{Path: filepath.Dir(task.OutputPath), Err: err}
	}

	if err := c.writeJPEG(task.OutputPath, flat); err != nil {
		return err
	}

	c.logger.Debug("converted file",
		zap.String("input", task.InputPath),
		zap.String("output", task.OutputPath),
		zap.Int("quality", c.quality))
	return nil
}

// flatten produces an opaque NRGBA image. Sources that report transparency
// (RGBA, gray+alpha, paletted images with transparent palette entries) are
// composited over the background color using their own alpha as the mask;
// opaque sources are clone-converted so grayscale and paletted inputs end up
// in the same directly addressable representation.
func (c *Converter) flatten(src image.Image) *image.NRGBA {
	if isOpaque(src) {
		return imaging.Clone(src)
	}
	bounds := src.Bounds()
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), c.bg)
	return imaging.Overlay(canvas, src, image.Point{}, 1.0)
}

// isOpaque asks the decoded image whether every pixel is fully opaque. All
// stdlib image types implement Opaque; paletted images scan their palette.
// Unknown types are composited, which is an identity operation when the
// source turns out to be opaque anyway.
func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

// writeJPEG encodes to a temporary file in the destination directory and
// renames it over the final path, so a failed encode never leaves a partial
// output behind.
func (c *Converter) writeJPEG(outputPath string, img *image.NRGBA) error {
	tempPath := fmt.Sprintf("%s.tmp.%d", outputPath, os.Getpid())

	f, err := os.Create(tempPath)
	if err != nil {
		return &FilesystemError{Path: tempPath, Err: err}
	}

	if err := imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(c.quality)); err != nil {
		f.Close()
		os.Remove(tempPath)
		return &EncodeError{Path: outputPath, Err: err}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempPath)
		return &FilesystemError{Path: tempPath, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return &FilesystemError{Path: tempPath, Err: err}
	}

	if err := os.Rename(tempPath, outputPath); err != nil {
		os.Remove(tempPath)
		return &FilesystemError{Path: outputPath, Err: err}
	}
	return nil
}

// describeDecodeFailure sniffs the file header so the error can name what the
// payload actually is when someone renamed a non-image to .png.
func (c *Converter) describeDecodeFailure(path string, decodeErr error) error {
	f, err := os.Open(path)
	if err != nil {
		return decodeErr
	}
	defer f.Close()

	head := make([]byte, 261)
	n, err := f.Read(head)
	if err != nil || n == 0 {
		return decodeErr
	}

	kind, err := filetype.Match(head[:n])
	if err != nil || kind == types.Unknown || kind == matchers.TypePng {
		return decodeErr
	}
	return fmt.Errorf("%w (content looks like %s)", decodeErr, kind.MIME.Value)
}
