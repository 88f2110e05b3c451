package converter

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
)

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// collectSink records sink calls for assertions.
type collectSink struct {
	mu       sync.Mutex
	messages []string
	errors   []string
}

func (c *collectSink) sink(message string, isError bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if isError {
		c.errors = append(c.errors, message)
		return
	}
	c.messages = append(c.messages, message)
}

func TestEndToEndScenario(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")

	// a.png opaque, b.png fully transparent, notes.txt not a PNG.
	writePNG(t, filepath.Join(inDir, "a.png"), solidNRGBA(10, 10, color.NRGBA{R: 10, G: 200, B: 30, A: 255}))
	writePNG(t, filepath.Join(inDir, "b.png"), solidNRGBA(16, 16, color.NRGBA{}))
	if err := os.WriteFile(filepath.Join(inDir, "notes.txt"), []byte("notes"), 0644); err != nil {
		t.Fatal(err)
	}

	sink := &collectSink{}
	result, err := NewWalker(zap.NewNop()).Run(ConversionRequest{
		InputDir:   inDir,
		OutputDir:  outDir,
		Quality:    90,
		Recursive:  false,
		Background: white,
	}, sink.sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Converted != 2 || result.Skipped != 1 {
		t.Errorf("result = %+v, want converted=2 skipped=1", result)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if len(names) != 2 || names[0] != "a.jpg" || names[1] != "b.jpg" {
		t.Errorf("output entries = %v, want [a.jpg b.jpg]", names)
	}

	// Fully transparent source pixels must equal the background exactly.
	got := decodeJPEG(t, filepath.Join(outDir, "b.jpg"))
	for _, p := range [][2]int{{0, 0}, {15, 0}, {0, 15}, {15, 15}} {
		r, g, b := rgbAt(got, p[0], p[1])
		if r != 255 || g != 255 || b != 255 {
			t.Errorf("b.jpg pixel %v = (%d,%d,%d), want (255,255,255)", p, r, g, b)
		}
	}

	var sawSkipWarning bool
	for _, m := range sink.messages {
		if strings.Contains(m, "Skipping non-PNG file") && strings.Contains(m, "notes.txt") {
			sawSkipWarning = true
		}
	}
	if !sawSkipWarning {
		t.Error("expected a skip warning for notes.txt")
	}
	if len(sink.errors) != 0 {
		t.Errorf("unexpected error messages: %v", sink.errors)
	}
}

func TestRecursiveMirrorsStructure(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")

	nested := filepath.Join(inDir, "sub", "deep")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(inDir, "top.png"), solidNRGBA(4, 4, color.NRGBA{R: 1, A: 255}))
	writePNG(t, filepath.Join(nested, "c.png"), solidNRGBA(4, 4, color.NRGBA{G: 1, A: 255}))

	result, err := NewWalker(zap.NewNop()).Run(ConversionRequest{
		InputDir:   inDir,
		OutputDir:  outDir,
		Quality:    85,
		Recursive:  true,
		Background: white,
	}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Converted != 2 || result.Skipped != 0 {
		t.Errorf("result = %+v, want converted=2 skipped=0", result)
	}
	if _, err := os.Stat(filepath.Join(outDir, "sub", "deep", "c.jpg")); err != nil {
		t.Errorf("nested output missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "top.jpg")); err != nil {
		t.Errorf("top-level output missing: %v", err)
	}
}

func TestNonRecursiveIgnoresSubdirectories(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")

	nested := filepath.Join(inDir, "sub")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(inDir, "top.png"), solidNRGBA(4, 4, color.NRGBA{R: 1, A: 255}))
	writePNG(t, filepath.Join(nested, "c.png"), solidNRGBA(4, 4, color.NRGBA{G: 1, A: 255}))

	result, err := NewWalker(zap.NewNop()).Run(ConversionRequest{
		InputDir:   inDir,
		OutputDir:  outDir,
		Quality:    85,
		Recursive:  false,
		Background: white,
	}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Nested files are not visited at all: not converted, not counted.
	if result.Converted != 1 || result.Skipped != 0 {
		t.Errorf("result = %+v, want converted=1 skipped=0", result)
	}
	if _, err := os.Stat(filepath.Join(outDir, "sub")); !os.IsNotExist(err) {
		t.Error("sub directory should not be mirrored in non-recursive mode")
	}
}

func TestDeterministicProcessingOrder(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")

	for _, name := range []string{"c.png", "a.png", "b.png"} {
		writePNG(t, filepath.Join(inDir, name), solidNRGBA(4, 4, color.NRGBA{B: 1, A: 255}))
	}

	sink := &collectSink{}
	if _, err := NewWalker(zap.NewNop()).Run(ConversionRequest{
		InputDir:   inDir,
		OutputDir:  outDir,
		Quality:    85,
		Background: white,
	}, sink.sink); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var order []string
	for _, m := range sink.messages {
		if strings.HasPrefix(m, "Converting: ") {
			order = append(order, m)
		}
	}
	want := []string{
		"Converting: a.png -> a.jpg",
		"Converting: b.png -> b.jpg",
		"Converting: c.png -> c.jpg",
	}
	if len(order) != len(want) {
		t.Fatalf("converting lines = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestCorruptPNGCountedSkipped(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")

	if err := os.WriteFile(filepath.Join(inDir, "bad.png"), []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}

	sink := &collectSink{}
	result, err := NewWalker(zap.NewNop()).Run(ConversionRequest{
		InputDir:   inDir,
		OutputDir:  outDir,
		Quality:    85,
		Background: white,
	}, sink.sink)
	if err != nil {
		t.Fatalf("batch should not abort on a per-file failure: %v", err)
	}
	if result.Converted != 0 || result.Skipped != 1 {
		t.Errorf("result = %+v, want converted=0 skipped=1", result)
	}
	if len(sink.errors) != 1 || !strings.Contains(sink.errors[0], "bad.png") {
		t.Errorf("expected one error message naming bad.png, got %v", sink.errors)
	}
	if _, err := os.Stat(filepath.Join(outDir, "bad.jpg")); !os.IsNotExist(err) {
		t.Error("no output should be written for a failed conversion")
	}
}

func TestValidationRunsBeforeAnyFilesystemWork(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")

	_, err := NewWalker(zap.NewNop()).Run(ConversionRequest{
		InputDir:   "/definitely/not/a/real/dir",
		OutputDir:  outDir,
		Quality:    85,
		Background: white,
	}, nil)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if _, serr := os.Stat(outDir); !os.IsNotExist(serr) {
		t.Error("output root must not be created when validation fails")
	}
}

func TestCountPNGFiles(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "sub")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(dir, "a.png"), solidNRGBA(2, 2, color.NRGBA{A: 255}))
	writePNG(t, filepath.Join(dir, "B.PNG"), solidNRGBA(2, 2, color.NRGBA{A: 255}))
	writePNG(t, filepath.Join(nested, "c.png"), solidNRGBA(2, 2, color.NRGBA{A: 255}))
	writePNG(t, filepath.Join(dir, ".png"), solidNRGBA(2, 2, color.NRGBA{A: 255}))
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	w := NewWalker(zap.NewNop())
	got, err := w.CountPNGFiles(dir, false)
	if err != nil {
		t.Fatalf("CountPNGFiles: %v", err)
	}
	if got != 2 {
		t.Errorf("non-recursive count = %d, want 2", got)
	}
	got, err = w.CountPNGFiles(dir, true)
	if err != nil {
		t.Fatalf("CountPNGFiles: %v", err)
	}
	if got != 3 {
		t.Errorf("recursive count = %d, want 3", got)
	}
}

func TestCountPNGFilesReportsWalkFailure(t *testing.T) {
	// A regular file is not walkable; that must surface as an error rather
	// than an empty count.
	file := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewWalker(zap.NewNop()).CountPNGFiles(file, false)
	if err == nil {
		t.Fatal("expected an error for an unwalkable path")
	}
}

func TestBareDotPNGIsNotConvertible(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")

	// A file named exactly ".png" is a dotfile with an empty stem; it must
	// be skipped with a warning, never converted to a file named ".jpg".
	writePNG(t, filepath.Join(inDir, ".png"), solidNRGBA(4, 4, color.NRGBA{R: 1, A: 255}))

	sink := &collectSink{}
	result, err := NewWalker(zap.NewNop()).Run(ConversionRequest{
		InputDir:   inDir,
		OutputDir:  outDir,
		Quality:    85,
		Background: white,
	}, sink.sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Converted != 0 || result.Skipped != 1 {
		t.Errorf("result = %+v, want converted=0 skipped=1", result)
	}
	if len(sink.messages) != 1 || !strings.Contains(sink.messages[0], "Skipping non-PNG file") {
		t.Errorf("expected a skip warning, got %v", sink.messages)
	}
	if _, err := os.Stat(filepath.Join(outDir, ".jpg")); !os.IsNotExist(err) {
		t.Error("no \".jpg\" output should be produced for a bare \".png\" dotfile")
	}
}
