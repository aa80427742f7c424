package main

import (
	"testing"
	"time"

	"github.com/quaystone/dwellwatch/internal/db"
)

func TestInterEventGaps(t *testing.T) {
	base := time.Unix(1700000000, 0)
	// Newest first, as Events() returns them.
	events := []db.StopEvent{
		{StoppedAt: base.Add(90 * time.Second)},
		{StoppedAt: base.Add(60 * time.Second)},
		{StoppedAt: base},
	}

	gaps := interEventGaps(events)
	if len(gaps) != 2 {
		t.Fatalf("got %d gaps, want 2", len(gaps))
	}
	if gaps[0] != 30 || gaps[1] != 60 {
		t.Errorf("gaps = %v, want [30 60]", gaps)
	}
}

func TestInterEventGapsSingleEvent(t *testing.T) {
	gaps := interEventGaps([]db.StopEvent{{StoppedAt: time.Now()}})
	if len(gaps) != 0 {
		t.Errorf("got %d gaps for a single event, want 0", len(gaps))
	}
}
