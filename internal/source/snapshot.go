package source

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"gocv.io/x/gocv"
)

// maxSnapshotBytes caps a single poll response (32MB covers any sane
// still image).
const maxSnapshotBytes = 32 << 20

// SnapshotSource simulates a video feed by polling a single-image HTTP
// endpoint at a fixed interval. Every per-poll failure (timeout, bad
// status, undecodable payload) is logged and mapped to ok=false so one
// bad poll never terminates the run.
type SnapshotSource struct {
	url      string
	client   *http.Client
	headers  map[string]string
	interval time.Duration
	lastPoll time.Time
	current  gocv.Mat
	seq      int64
	closed   bool
}

// NewSnapshot builds a polling source for url. headers may be nil.
func NewSnapshot(url string, interval, timeout time.Duration, headers map[string]string) *SnapshotSource {
	if interval <= 0 {
		interval = time.Second
	}
	return &SnapshotSource{
		url:      url,
		client:   &http.Client{Timeout: timeout},
		headers:  headers,
		interval: interval,
		current:  gocv.NewMat(),
	}
}

// snapshotPayload is the JSON envelope used by endpoints that do not
// serve raw image bytes: the frame travels base64-encoded in "image".
type snapshotPayload struct {
	Image string `json:"image"`
}

// Read sleeps off the remainder of the polling interval, then issues one
// GET. The response is decoded directly when the endpoint declares an
// image content type, otherwise as a base64 JSON envelope.
func (s *SnapshotSource) Read() (*Frame, bool) {
	if s.closed {
		return nil, false
	}

	if !s.lastPoll.IsZero() {
		if remaining := s.interval - time.Since(s.lastPoll); remaining > 0 {
			time.Sleep(remaining)
		}
	}
	s.lastPoll = time.Now()

	img, err := s.poll()
	if err != nil {
		log.Printf("snapshot: poll failed: %v", err)
		return nil, false
	}

	s.current.Close()
	s.current = img
	s.seq++
	return &Frame{Mat: s.current, Time: time.Now(), Sequence: s.seq}, true
}

func (s *SnapshotSource) poll() (gocv.Mat, error) {
	req, err := http.NewRequest(http.MethodGet, s.url, nil)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("build request: %w", err)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("fetch %q: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gocv.Mat{}, fmt.Errorf("fetch %q: status %d", s.url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("read body: %w", err)
	}

	raw := body
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		var payload snapshotPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return gocv.Mat{}, fmt.Errorf("parse JSON envelope: %w", err)
		}
		raw, err = base64.StdEncoding.DecodeString(strings.TrimSpace(payload.Image))
		if err != nil {
			return gocv.Mat{}, fmt.Errorf("decode base64 image field: %w", err)
		}
	}

	img, err := gocv.IMDecode(raw, gocv.IMReadColor)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("decode image bytes: %w", err)
	}
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, fmt.Errorf("decoded empty image from %q", s.url)
	}
	return img, nil
}

// Close releases the retained frame buffer. Safe to call more than once.
func (s *SnapshotSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.current.Close()
}

// ParseHeaders converts "key:value" strings into a header map. Malformed
// entries (no colon) are skipped with a log line.
func ParseHeaders(pairs []string) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	headers := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, found := strings.Cut(p, ":")
		if !found || strings.TrimSpace(k) == "" {
			log.Printf("ignoring malformed header %q (want key:value)", p)
			continue
		}
		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return headers
}
