package db

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationsApplyToFreshDB(t *testing.T) {
	db := newTestDB(t)

	version, dirty, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion() error: %v", err)
	}
	if dirty {
		t.Error("fresh database should not be dirty")
	}
	if version == 0 {
		t.Error("fresh database should be migrated past version 0")
	}
}

func TestStopEventRoundTrip(t *testing.T) {
	db := newTestDB(t)

	started := time.Unix(1700000000, 0)
	runID, err := db.StartRun("rtsp://cam.local/stream1", started)
	if err != nil {
		t.Fatalf("StartRun() error: %v", err)
	}

	want := StopEvent{
		RunID:     runID,
		TrackID:   7,
		ClassID:   2,
		CenterX:   100.5,
		CenterY:   240.25,
		StoppedAt: time.Unix(1700000042, 123456789),
	}
	if err := db.RecordStopEvent(want); err != nil {
		t.Fatalf("RecordStopEvent() error: %v", err)
	}

	events, err := db.Events(0)
	if err != nil {
		t.Fatalf("Events() error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Events() returned %d events, want 1", len(events))
	}

	got := events[0]
	got.ID = 0 // assigned by the database
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stop event mismatch (-want +got):\n%s", diff)
	}
}

func TestEventsNewestFirstWithLimit(t *testing.T) {
	db := newTestDB(t)

	runID, err := db.StartRun("0", time.Now())
	if err != nil {
		t.Fatalf("StartRun() error: %v", err)
	}

	base := time.Unix(1700000000, 0)
	for i := 0; i < 5; i++ {
		ev := StopEvent{
			RunID:     runID,
			TrackID:   int64(i),
			ClassID:   2,
			StoppedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.RecordStopEvent(ev); err != nil {
			t.Fatalf("RecordStopEvent() error: %v", err)
		}
	}

	events, err := db.Events(2)
	if err != nil {
		t.Fatalf("Events() error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Events(2) returned %d events", len(events))
	}
	if events[0].TrackID != 4 || events[1].TrackID != 3 {
		t.Errorf("Events(2) order = [%d, %d], want [4, 3]", events[0].TrackID, events[1].TrackID)
	}
}

func TestEventCountsByClass(t *testing.T) {
	db := newTestDB(t)

	runID, err := db.StartRun("frames/", time.Now())
	if err != nil {
		t.Fatalf("StartRun() error: %v", err)
	}
	for _, classID := range []int{2, 2, 2, 7} {
		ev := StopEvent{RunID: runID, ClassID: classID, StoppedAt: time.Now()}
		if err := db.RecordStopEvent(ev); err != nil {
			t.Fatalf("RecordStopEvent() error: %v", err)
		}
	}

	counts, err := db.EventCountsByClass()
	if err != nil {
		t.Fatalf("EventCountsByClass() error: %v", err)
	}
	if counts[2] != 3 || counts[7] != 1 {
		t.Errorf("EventCountsByClass() = %v, want map[2:3 7:1]", counts)
	}
}

func TestAdminStatsEndpoint(t *testing.T) {
	db := newTestDB(t)

	mux := http.NewServeMux()
	db.AttachAdminRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/debug/db-stats", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}
