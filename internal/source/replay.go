package source

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gocv.io/x/gocv"
)

// ReplaySource replays a directory of still images as a synthetic video
// feed. Files are visited in natural numeric order and each Read sleeps
// off the remainder of the inter-frame interval so playback never runs
// faster than the configured rate.
type ReplaySource struct {
	files    []string
	cursor   int
	interval time.Duration
	lastRead time.Time
	current  gocv.Mat
	seq      int64
	closed   bool
}

// NewReplay enumerates supported image files under dir. Fails with
// ErrEmptySource when the directory holds no decodable images.
func NewReplay(dir string, targetFPS float64) (*ReplaySource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrSourceOpen, dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no images in %q", ErrEmptySource, dir)
	}
	SortNatural(files)
	for i, name := range files {
		files[i] = filepath.Join(dir, name)
	}

	if targetFPS <= 0 {
		targetFPS = 1
	}
	return &ReplaySource{
		files:    files,
		interval: time.Duration(float64(time.Second) / targetFPS),
		current:  gocv.NewMat(),
	}, nil
}

// Files returns the replay order. The slice is owned by the source.
func (s *ReplaySource) Files() []string {
	return s.files
}

// Read sleeps off the remaining inter-frame delay, decodes the file at
// the cursor and advances. Returns ok=false once the file list is
// exhausted or when a file fails both decode paths.
func (s *ReplaySource) Read() (*Frame, bool) {
	if s.closed || s.cursor >= len(s.files) {
		return nil, false
	}

	if !s.lastRead.IsZero() {
		if remaining := s.interval - time.Since(s.lastRead); remaining > 0 {
			time.Sleep(remaining)
		}
	}
	s.lastRead = time.Now()

	path := s.files[s.cursor]
	s.cursor++

	img := s.decode(path)
	if img.Empty() {
		img.Close()
		return nil, false
	}

	s.current.Close()
	s.current = img
	s.seq++
	return &Frame{Mat: s.current, Time: time.Now(), Sequence: s.seq}, true
}

// decode reads path with IMRead first, then falls back to an in-memory
// decode. The fallback covers path encodings the primary loader cannot
// open directly.
func (s *ReplaySource) decode(path string) gocv.Mat {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if !img.Empty() {
		return img
	}
	img.Close()

	buf, err := os.ReadFile(path)
	if err != nil {
		log.Printf("replay: failed to read %q: %v", path, err)
		return gocv.NewMat()
	}
	img, err = gocv.IMDecode(buf, gocv.IMReadColor)
	if err != nil {
		log.Printf("replay: failed to decode %q: %v", path, err)
		return gocv.NewMat()
	}
	return img
}

// Close releases the retained frame buffer. Safe to call more than once.
func (s *ReplaySource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.current.Close()
}
