// Package track maintains per-object dwell state: for every track id the
// external tracker reports, the store decides whether the object has
// been effectively stationary for longer than the stop-time threshold.
package track

import (
	"math"
	"sync"
	"time"
)

// Config holds the stop-detection parameters.
type Config struct {
	// MovementTolerancePx is the maximum center displacement between
	// frames still considered "no movement".
	MovementTolerancePx float64
	// StopTimeThreshold is the minimum continuous sub-tolerance duration
	// required to declare an object stopped.
	StopTimeThreshold time.Duration
	// TrackExpiry drops entries not observed for this long. Zero
	// disables eviction.
	TrackExpiry time.Duration
}

// Point is a pixel-space center position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance to q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// State is the dwell record for one track id.
//
// LastMotion is the timestamp of the most recent frame in which the
// center moved by at least the tolerance — not the last time the object
// was seen. Stopped holds once now-LastMotion reaches the threshold with
// no intervening super-tolerance displacement.
type State struct {
	TrackID    int64     `json:"track_id"`
	ClassID    int       `json:"class_id"`
	LastCenter Point     `json:"last_center"`
	LastMotion time.Time `json:"last_motion"`
	LastSeen   time.Time `json:"last_seen"`
	Stopped    bool      `json:"stopped"`
	// StoppedAt is the time of the Moving→Stopped transition; zero while
	// moving.
	StoppedAt time.Time `json:"stopped_at,omitempty"`
}

// Store owns all dwell state. Guarded by a single RWMutex: the ingestion
// loop writes, the HTTP API reads snapshots.
type Store struct {
	mu     sync.RWMutex
	cfg    Config
	tracks map[int64]*State

	// Counters since process start.
	tracksCreated   int64
	stopTransitions int64
}

// NewStore builds an empty store.
func NewStore(cfg Config) *Store {
	return &Store{
		cfg:    cfg,
		tracks: make(map[int64]*State),
	}
}

// Update applies one observation of trackID at center. It returns a copy
// of the resulting state and whether this update was the Moving→Stopped
// transition. Updates for a given id must arrive in frame order; the
// single-goroutine ingestion loop guarantees that.
func (s *Store) Update(trackID int64, classID int, center Point, now time.Time) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.tracks[trackID]
	if !ok {
		st = &State{
			TrackID:    trackID,
			ClassID:    classID,
			LastCenter: center,
			LastMotion: now,
			LastSeen:   now,
		}
		s.tracks[trackID] = st
		s.tracksCreated++
		return *st, false
	}

	st.LastSeen = now
	st.ClassID = classID

	transitioned := false
	if center.Dist(st.LastCenter) < s.cfg.MovementTolerancePx {
		// Effectively stationary this frame. LastCenter stays put so
		// slow drift accumulates against the original rest position.
		if !st.Stopped && now.Sub(st.LastMotion) >= s.cfg.StopTimeThreshold {
			st.Stopped = true
			st.StoppedAt = now
			s.stopTransitions++
			transitioned = true
		}
	} else {
		st.LastCenter = center
		st.LastMotion = now
		st.Stopped = false
		st.StoppedAt = time.Time{}
	}
	return *st, transitioned
}

// Evict removes entries not seen for longer than the configured expiry
// and returns how many were dropped. No-op when expiry is disabled.
func (s *Store) Evict(now time.Time) int {
	if s.cfg.TrackExpiry <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, st := range s.tracks {
		if now.Sub(st.LastSeen) > s.cfg.TrackExpiry {
			delete(s.tracks, id)
			evicted++
		}
	}
	return evicted
}

// Get returns a copy of the state for trackID.
func (s *Store) Get(trackID int64) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.tracks[trackID]
	if !ok {
		return State{}, false
	}
	return *st, true
}

// Snapshot returns copies of all live entries in unspecified order.
func (s *Store) Snapshot() []State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]State, 0, len(s.tracks))
	for _, st := range s.tracks {
		out = append(out, *st)
	}
	return out
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// Counters returns totals since process start: tracks created and
// Moving→Stopped transitions.
func (s *Store) Counters() (created, stops int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracksCreated, s.stopTransitions
}
