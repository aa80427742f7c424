package source

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTestPNG writes a tiny valid PNG so the decode path exercises real
// image bytes.
func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, testPNGBytes(t), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func testPNGBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(64 * x), G: uint8(64 * y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestNewReplayNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"f10.png", "f1.png", "f2.png"} {
		writeTestPNG(t, filepath.Join(dir, name))
	}
	// Non-image files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	src, err := NewReplay(dir, 100)
	if err != nil {
		t.Fatalf("NewReplay() error: %v", err)
	}
	defer src.Close()

	want := []string{
		filepath.Join(dir, "f1.png"),
		filepath.Join(dir, "f2.png"),
		filepath.Join(dir, "f10.png"),
	}
	got := src.Files()
	if len(got) != len(want) {
		t.Fatalf("Files() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Files()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNewReplayEmptyDirectory(t *testing.T) {
	_, err := NewReplay(t.TempDir(), 25)
	if !errors.Is(err, ErrEmptySource) {
		t.Errorf("NewReplay(empty dir) error = %v, want ErrEmptySource", err)
	}
}

func TestReplayReadsAllFramesThenStops(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a1.png", "a2.png", "a3.png"} {
		writeTestPNG(t, filepath.Join(dir, name))
	}

	src, err := NewReplay(dir, 200)
	if err != nil {
		t.Fatalf("NewReplay() error: %v", err)
	}
	defer src.Close()

	for i := 1; i <= 3; i++ {
		frame, ok := src.Read()
		if !ok {
			t.Fatalf("Read() %d returned ok=false", i)
		}
		if frame.Mat.Empty() {
			t.Fatalf("Read() %d returned empty frame", i)
		}
		if frame.Sequence != int64(i) {
			t.Errorf("Read() %d sequence = %d", i, frame.Sequence)
		}
	}
	if _, ok := src.Read(); ok {
		t.Error("Read() after exhaustion should return ok=false")
	}
}

func TestReplayPacingNeverFasterThanTarget(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"p1.png", "p2.png", "p3.png"} {
		writeTestPNG(t, filepath.Join(dir, name))
	}

	const fps = 50.0
	src, err := NewReplay(dir, fps)
	if err != nil {
		t.Fatalf("NewReplay() error: %v", err)
	}
	defer src.Close()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, ok := src.Read(); !ok {
			t.Fatalf("Read() %d returned ok=false", i)
		}
	}
	elapsed := time.Since(start)

	// N reads at rate R take at least (N-1)/R wall-clock time.
	min := time.Duration(float64(2) / fps * float64(time.Second))
	if elapsed < min {
		t.Errorf("3 reads took %v, want >= %v", elapsed, min)
	}
}

func TestReplayCloseIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "x1.png"))

	src, err := NewReplay(dir, 25)
	if err != nil {
		t.Fatalf("NewReplay() error: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("first Close() error: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
	if _, ok := src.Read(); ok {
		t.Error("Read() after Close should return ok=false")
	}
}
