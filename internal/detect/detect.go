// Package detect defines the boundary to the external object
// detector/tracker. The detector itself (model, association,
// re-identification) lives outside this system; this package carries the
// request/response types, the class allow-list, and client
// implementations that satisfy the Detector interface.
package detect

import (
	"image"

	"gocv.io/x/gocv"
)

// Detection is one detector output: a pixel-space bounding box, a class
// id, and a track id that persists for the lifetime of the object in
// view. Track ids are assigned by the external tracker; re-detection
// after occlusion may or may not preserve them.
type Detection struct {
	TrackID    int64
	ClassID    int
	Confidence float32
	Box        image.Rectangle
}

// Center returns the box center in pixel coordinates.
func (d Detection) Center() (x, y float64) {
	return float64(d.Box.Min.X+d.Box.Max.X) / 2, float64(d.Box.Min.Y+d.Box.Max.Y) / 2
}

// Config holds the parameters forwarded to the external detector.
type Config struct {
	Confidence   float64 // minimum detection confidence
	IoUThreshold float64 // NMS IoU threshold
	DecodeSize   int     // inference input size (longest side)
	Device       string  // inference device target, e.g. "cpu", "cuda:0"
	Persist      bool    // keep track identity across frames
}

// Detector runs inference over one frame at a time. Implementations are
// synchronous; the ingestion loop blocks on Detect for the duration of
// one inference.
type Detector interface {
	Detect(frame *gocv.Mat) ([]Detection, error)
	Close() error
}

// ClassFilter is an optional allow-list of detector class ids. A nil
// filter allows everything.
type ClassFilter map[int]struct{}

// NewClassFilter builds a filter from a class id list; an empty list
// yields a nil (allow-all) filter.
func NewClassFilter(classes []int) ClassFilter {
	if len(classes) == 0 {
		return nil
	}
	f := make(ClassFilter, len(classes))
	for _, c := range classes {
		f[c] = struct{}{}
	}
	return f
}

// Allows reports whether class id c passes the filter.
func (f ClassFilter) Allows(c int) bool {
	if f == nil {
		return true
	}
	_, ok := f[c]
	return ok
}
