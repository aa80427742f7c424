package ingest

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/quaystone/dwellwatch/internal/detect"
	"github.com/quaystone/dwellwatch/internal/source"
)

var (
	colorMoving  = color.RGBA{G: 200, B: 40}
	colorStopped = color.RGBA{R: 220, G: 40}
)

// drawDetection overlays one detection box on the frame; the color
// encodes the dwell state.
func drawDetection(mat *gocv.Mat, d detect.Detection, stopped bool) {
	c := colorMoving
	label := fmt.Sprintf("id %d", d.TrackID)
	if stopped {
		c = colorStopped
		label += " stopped"
	}
	gocv.Rectangle(mat, d.Box, c, 2)
	origin := image.Pt(d.Box.Min.X, d.Box.Min.Y-6)
	gocv.PutText(mat, label, origin, gocv.FontHersheySimplex, 0.5, c, 1)
}

// display wraps the optional interactive window so the loop body stays
// free of window nil-checks.
type display struct {
	window *gocv.Window
}

func newDisplay(enabled bool, title string) *display {
	if !enabled {
		return &display{}
	}
	return &display{window: gocv.NewWindow(title)}
}

// Show renders the frame and reports whether the user asked to quit
// (q or ESC).
func (d *display) Show(frame *source.Frame) bool {
	if d.window == nil {
		return false
	}
	d.window.IMShow(frame.Mat)
	key := d.window.WaitKey(1)
	return key == 'q' || key == 27
}

func (d *display) Close() {
	if d.window != nil {
		d.window.Close()
	}
}
