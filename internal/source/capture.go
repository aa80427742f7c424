package source

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"
)

// CaptureSource wraps a live gocv decode handle: a local capture device,
// a finite video file, or a continuous network stream. All three share
// the same read semantics; end-of-stream and decode failure both map to
// ok=false.
type CaptureSource struct {
	cap    *gocv.VideoCapture
	mat    gocv.Mat
	seq    int64
	closed bool
}

// NewDevice opens capture device index (e.g. /dev/video0 for index 0).
func NewDevice(index int) (*CaptureSource, error) {
	cap, err := gocv.VideoCaptureDevice(index)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrSourceOpen, index, err)
	}
	return &CaptureSource{cap: cap, mat: gocv.NewMat()}, nil
}

// NewFile opens a seekable media file for sequential decode.
func NewFile(path string) (*CaptureSource, error) {
	cap, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: file %q: %v", ErrSourceOpen, path, err)
	}
	return &CaptureSource{cap: cap, mat: gocv.NewMat()}, nil
}

// NewStream opens a continuous stream URI (rtsp, rtmp, HLS playlist, ...)
// with the same contract as a capture device.
func NewStream(uri string) (*CaptureSource, error) {
	cap, err := gocv.OpenVideoCapture(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: stream %q: %v", ErrSourceOpen, uri, err)
	}
	return &CaptureSource{cap: cap, mat: gocv.NewMat()}, nil
}

// Read blocks until the decoder yields a frame. End-of-stream and decoder
// failure both return ok=false; the distinction is not observable here.
func (s *CaptureSource) Read() (*Frame, bool) {
	if s.closed {
		return nil, false
	}
	if ok := s.cap.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, false
	}
	s.seq++
	return &Frame{Mat: s.mat, Time: time.Now(), Sequence: s.seq}, true
}

// Close releases the capture handle and frame buffer. Safe to call more
// than once.
func (s *CaptureSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.mat.Close(); err != nil {
		return err
	}
	return s.cap.Close()
}
