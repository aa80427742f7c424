package detect

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"time"

	"gocv.io/x/gocv"
)

// RemoteDetector talks to an external detector/tracker service over
// HTTP: each frame is JPEG-encoded, base64-wrapped and POSTed; the
// service answers with the detections for that frame. One request per
// frame, synchronous, matching the ingestion loop's blocking model.
type RemoteDetector struct {
	url    string
	cfg    Config
	client *http.Client
}

// NewRemoteDetector builds a client for the detector service at url.
func NewRemoteDetector(url string, cfg Config, timeout time.Duration) *RemoteDetector {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteDetector{
		url:    url,
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type inferenceRequest struct {
	Image      string  `json:"image"` // base64 JPEG
	Confidence float64 `json:"confidence"`
	IoU        float64 `json:"iou"`
	Size       int     `json:"size"`
	Device     string  `json:"device"`
	Persist    bool    `json:"persist"`
}

type inferenceResponse struct {
	Detections []struct {
		TrackID    int64      `json:"track_id"`
		ClassID    int        `json:"class_id"`
		Confidence float32    `json:"confidence"`
		Box        [4]float64 `json:"box"` // x1, y1, x2, y2
	} `json:"detections"`
}

// Detect encodes frame and runs one inference round-trip.
func (d *RemoteDetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	reqBody, err := json.Marshal(inferenceRequest{
		Image:      base64.StdEncoding.EncodeToString(buf.GetBytes()),
		Confidence: d.cfg.Confidence,
		IoU:        d.cfg.IoUThreshold,
		Size:       d.cfg.DecodeSize,
		Device:     d.cfg.Device,
		Persist:    d.cfg.Persist,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal inference request: %w", err)
	}

	resp, err := d.client.Post(d.url, "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("detector request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector returned status %d", resp.StatusCode)
	}

	var parsed inferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse detector response: %w", err)
	}

	detections := make([]Detection, 0, len(parsed.Detections))
	for _, raw := range parsed.Detections {
		detections = append(detections, Detection{
			TrackID:    raw.TrackID,
			ClassID:    raw.ClassID,
			Confidence: raw.Confidence,
			Box: image.Rect(
				int(raw.Box[0]), int(raw.Box[1]),
				int(raw.Box[2]), int(raw.Box[3]),
			),
		})
	}
	return detections, nil
}

// Close is a no-op; the HTTP client holds no per-run resources.
func (d *RemoteDetector) Close() error { return nil }
