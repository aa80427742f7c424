package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Default tuning values. These apply whenever a field is absent from the
// config file and no flag overrides it.
const (
	DefaultMovementTolerancePx = 8.0
	DefaultStopTimeSeconds     = 30.0
	DefaultReplayFPS           = 25.0
	DefaultPollIntervalSeconds = 1.0
	DefaultHTTPTimeoutSeconds  = 10.0
	DefaultTrackExpirySeconds  = 300.0
	DefaultDecodeSize          = 640
	DefaultConfidence          = 0.35
	DefaultIoUThreshold        = 0.5
	DefaultDetectorDevice      = "cpu"
)

// Config represents the tuning parameters for a dwellwatch run. All fields
// are pointers so a partial JSON file only overrides what it names; the
// Get* methods supply defaults for the rest. The schema matches the
// /api/config endpoint so the same JSON works for startup and inspection.
type Config struct {
	// Stop detection params
	MovementTolerancePx *float64 `json:"movement_tolerance_px,omitempty"`
	StopTimeSeconds     *float64 `json:"stop_time_seconds,omitempty"`
	TrackExpirySeconds  *float64 `json:"track_expiry_seconds,omitempty"`

	// Source pacing params
	ReplayFPS           *float64 `json:"replay_fps,omitempty"`
	PollIntervalSeconds *float64 `json:"poll_interval_seconds,omitempty"`
	HTTPTimeoutSeconds  *float64 `json:"http_timeout_seconds,omitempty"`

	// Detector params
	DecodeSize     *int     `json:"decode_size,omitempty"`
	Confidence     *float64 `json:"confidence,omitempty"`
	IoUThreshold   *float64 `json:"iou_threshold,omitempty"`
	DetectorDevice *string  `json:"detector_device,omitempty"`

	// Optional allow-list of detector class ids. Empty means all classes.
	AllowedClasses []int `json:"allowed_classes,omitempty"`

	// Optional "key:value" headers for authenticated snapshot polling.
	PollHeaders []string `json:"poll_headers,omitempty"`
}

// Empty returns a Config with all fields unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file. The path must have a .json
// extension and the file must be under the max size. Fields omitted from
// the JSON retain their defaults, so partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

func (c *Config) GetMovementTolerancePx() float64 {
	if c.MovementTolerancePx != nil {
		return *c.MovementTolerancePx
	}
	return DefaultMovementTolerancePx
}

func (c *Config) GetStopTime() time.Duration {
	secs := DefaultStopTimeSeconds
	if c.StopTimeSeconds != nil {
		secs = *c.StopTimeSeconds
	}
	return time.Duration(secs * float64(time.Second))
}

func (c *Config) GetTrackExpiry() time.Duration {
	secs := DefaultTrackExpirySeconds
	if c.TrackExpirySeconds != nil {
		secs = *c.TrackExpirySeconds
	}
	return time.Duration(secs * float64(time.Second))
}

func (c *Config) GetReplayFPS() float64 {
	if c.ReplayFPS != nil && *c.ReplayFPS > 0 {
		return *c.ReplayFPS
	}
	return DefaultReplayFPS
}

func (c *Config) GetPollInterval() time.Duration {
	secs := DefaultPollIntervalSeconds
	if c.PollIntervalSeconds != nil && *c.PollIntervalSeconds > 0 {
		secs = *c.PollIntervalSeconds
	}
	return time.Duration(secs * float64(time.Second))
}

func (c *Config) GetHTTPTimeout() time.Duration {
	secs := DefaultHTTPTimeoutSeconds
	if c.HTTPTimeoutSeconds != nil && *c.HTTPTimeoutSeconds > 0 {
		secs = *c.HTTPTimeoutSeconds
	}
	return time.Duration(secs * float64(time.Second))
}

func (c *Config) GetDecodeSize() int {
	if c.DecodeSize != nil && *c.DecodeSize > 0 {
		return *c.DecodeSize
	}
	return DefaultDecodeSize
}

func (c *Config) GetConfidence() float64 {
	if c.Confidence != nil {
		return *c.Confidence
	}
	return DefaultConfidence
}

func (c *Config) GetIoUThreshold() float64 {
	if c.IoUThreshold != nil {
		return *c.IoUThreshold
	}
	return DefaultIoUThreshold
}

func (c *Config) GetDetectorDevice() string {
	if c.DetectorDevice != nil && *c.DetectorDevice != "" {
		return *c.DetectorDevice
	}
	return DefaultDetectorDevice
}
