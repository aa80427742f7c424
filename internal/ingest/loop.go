// Package ingest runs the frame→detector→dwell-state cycle for one
// source. The loop is single-goroutine and blocking: each iteration
// fully completes acquisition, detection, state update and rendering
// before the next begins, so frames and track updates are strictly
// ordered.
package ingest

import (
	"context"
	"log"
	"time"

	"github.com/quaystone/dwellwatch/internal/detect"
	"github.com/quaystone/dwellwatch/internal/source"
	"github.com/quaystone/dwellwatch/internal/track"
)

// EventSink consumes Moving→Stopped transitions. The loop emits the
// signal; retry, batching and persistence details belong to the sink.
type EventSink interface {
	RecordStop(trackID int64, classID int, center track.Point, at time.Time) error
}

// Config holds the per-run loop options.
type Config struct {
	// Classes is an optional allow-list; detections outside it are
	// ignored entirely (no state, no render).
	Classes detect.ClassFilter
	// SoftReadFailures keeps the loop polling after a failed read
	// instead of treating it as end-of-stream. Set for snapshot sources,
	// where a failed poll is an expected transient.
	SoftReadFailures bool
	// Display opens an interactive window; pressing q or ESC quits.
	Display bool
	// WindowTitle names the display window.
	WindowTitle string
	// LogInterval emits a progress line every N frames. Zero disables.
	LogInterval int64
}

// Loop owns one ingestion run: it pulls frames from src, feeds them to
// det, applies detections to store and reports stop transitions to sink.
type Loop struct {
	src   source.FrameSource
	det   detect.Detector
	store *track.Store
	sink  EventSink
	cfg   Config

	frames int64
}

// NewLoop wires a run. sink may be nil when no reporting is wanted.
func NewLoop(src source.FrameSource, det detect.Detector, store *track.Store, sink EventSink, cfg Config) *Loop {
	if cfg.WindowTitle == "" {
		cfg.WindowTitle = "dwellwatch"
	}
	return &Loop{src: src, det: det, store: store, sink: sink, cfg: cfg}
}

// Frames reports how many frames the loop has processed.
func (l *Loop) Frames() int64 { return l.frames }

// Run drives the loop until end-of-source, cancellation or a quit key.
// The source is released on every exit path. Cancellation takes effect
// after the current iteration completes.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		if err := l.src.Close(); err != nil {
			log.Printf("failed to close source: %v", err)
		}
	}()

	display := newDisplay(l.cfg.Display, l.cfg.WindowTitle)
	defer display.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frame, ok := l.src.Read()
		if !ok {
			if l.cfg.SoftReadFailures {
				continue
			}
			log.Printf("end of source after %d frames", l.frames)
			return nil
		}
		l.frames++

		detections, err := l.det.Detect(&frame.Mat)
		if err != nil {
			log.Printf("detector failed on frame %d: %v", frame.Sequence, err)
			continue
		}

		for _, d := range detections {
			if !l.cfg.Classes.Allows(d.ClassID) {
				continue
			}
			cx, cy := d.Center()
			center := track.Point{X: cx, Y: cy}
			st, transitioned := l.store.Update(d.TrackID, d.ClassID, center, frame.Time)
			drawDetection(&frame.Mat, d, st.Stopped)
			if transitioned {
				log.Printf("track %d (class %d) stopped at %s", d.TrackID, d.ClassID, st.StoppedAt.Format(time.RFC3339))
				if l.sink != nil {
					if err := l.sink.RecordStop(d.TrackID, d.ClassID, center, st.StoppedAt); err != nil {
						log.Printf("failed to record stop event for track %d: %v", d.TrackID, err)
					}
				}
			}
		}

		l.store.Evict(frame.Time)

		if l.cfg.LogInterval > 0 && l.frames%l.cfg.LogInterval == 0 {
			created, stops := l.store.Counters()
			log.Printf("processed %d frames: %d live tracks, %d seen, %d stops", l.frames, l.store.Len(), created, stops)
		}

		if display.Show(frame) {
			log.Printf("quit requested after %d frames", l.frames)
			return nil
		}
	}
}
