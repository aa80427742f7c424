// Package api serves read-only run state over HTTP: live track
// snapshots, recorded stop events, and a dwell chart.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/quaystone/dwellwatch/internal/db"
	"github.com/quaystone/dwellwatch/internal/track"
)

type Server struct {
	store   *track.Store
	db      *db.DB
	runID   string
	source  string
	started time.Time
}

func NewServer(store *track.Store, database *db.DB, runID, source string) *Server {
	return &Server{
		store:   store,
		db:      database,
		runID:   runID,
		source:  source,
		started: time.Now(),
	}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/tracks", s.listTracks)
	mux.HandleFunc("/events", s.listEvents)
	mux.HandleFunc("/status", s.status)
	mux.HandleFunc("/chart/dwell", s.dwellChart)
	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func (s *Server) listTracks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tracks := s.store.Snapshot()
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].TrackID < tracks[j].TrackID })
	s.writeJSON(w, map[string]any{"tracks": tracks})
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = v
	}

	events, err := s.db.Events(limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to retrieve events: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, map[string]any{"events": events})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	created, stops := s.store.Counters()
	s.writeJSON(w, map[string]any{
		"run_id":         s.runID,
		"source":         s.source,
		"started_at":     s.started,
		"live_tracks":    s.store.Len(),
		"tracks_created": created,
		"stop_events":    stops,
	})
}
