// Package source provides frame acquisition from heterogeneous inputs
// behind a single FrameSource contract: local capture devices, video
// files, directories of still images replayed at a target rate, and
// remote HTTP snapshot endpoints polled at a fixed interval.
package source

import (
	"errors"
	"time"

	"gocv.io/x/gocv"
)

// Construction-fatal errors. The ingestion loop never starts when one of
// these is returned; match with errors.Is.
var (
	ErrSourceOpen        = errors.New("failed to open capture source")
	ErrEmptySource       = errors.New("no readable frames in source")
	ErrUnsupportedSource = errors.New("unsupported source descriptor")
)

// Frame is one decoded raster image with its acquisition timestamp and a
// monotonically increasing sequence index within the run.
type Frame struct {
	Mat      gocv.Mat
	Time     time.Time
	Sequence int64
}

// FrameSource is the uniform pull contract over all acquisition models.
//
// Read blocks until the next frame is available (including any
// self-imposed pacing sleep) and returns ok=false on end-of-stream or a
// soft per-read failure. The returned frame's Mat is owned by the source
// and is valid only until the next Read or Close call; callers must not
// retain it across iterations.
//
// Close is idempotent and releases the underlying capture handle and any
// retained frame buffers.
type FrameSource interface {
	Read() (*Frame, bool)
	Close() error
}

// imageExtensions lists the still-image suffixes the replay source accepts.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".webp": true,
	".tif":  true,
	".tiff": true,
}

// streamSchemes are URI schemes handled by continuous decode rather than
// snapshot polling.
var streamSchemes = map[string]bool{
	"rtsp": true,
	"rtmp": true,
	"udp":  true,
	"tcp":  true,
	"srt":  true,
}

// streamSuffixes are URL path extensions that indicate a continuous
// stream even over http(s).
var streamSuffixes = map[string]bool{
	".m3u8":  true,
	".mjpg":  true,
	".mjpeg": true,
}
