package source

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Kind classifies a source descriptor. Classification is side-effect
// free; the concrete source performs its own resource acquisition.
type Kind int

const (
	KindUnsupported Kind = iota
	KindDevice
	KindFile
	KindDirectory
	KindStream
	KindSnapshot
)

func (k Kind) String() string {
	switch k {
	case KindDevice:
		return "device"
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindStream:
		return "stream"
	case KindSnapshot:
		return "snapshot"
	}
	return "unsupported"
}

// Options carries the per-variant construction parameters the resolver
// forwards to the source it builds.
type Options struct {
	ReplayFPS    float64           // directory replay target rate
	PollInterval time.Duration     // snapshot polling interval
	HTTPTimeout  time.Duration     // snapshot request timeout
	Headers      map[string]string // snapshot request headers
}

// Classify maps a descriptor onto a source kind. Resolution order, first
// match wins: digit string → device; existing file → file decode;
// existing directory → paced replay; streaming scheme or suffix →
// continuous stream; http(s) → snapshot polling; otherwise unsupported.
func Classify(descriptor string) Kind {
	if descriptor == "" {
		return KindUnsupported
	}
	if isAllDigits(descriptor) {
		return KindDevice
	}

	if info, err := os.Stat(descriptor); err == nil {
		if info.Mode().IsRegular() {
			return KindFile
		}
		if info.IsDir() {
			return KindDirectory
		}
	}

	u, err := url.Parse(descriptor)
	if err != nil || u.Scheme == "" {
		return KindUnsupported
	}
	if streamSchemes[strings.ToLower(u.Scheme)] {
		return KindStream
	}
	if streamSuffixes[strings.ToLower(filepath.Ext(u.Path))] {
		return KindStream
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		return KindSnapshot
	}
	return KindUnsupported
}

// Resolve classifies descriptor and constructs the matching FrameSource.
// Construction failures surface as ErrSourceOpen / ErrEmptySource; an
// unclassifiable descriptor fails with ErrUnsupportedSource.
func Resolve(descriptor string, opts Options) (FrameSource, error) {
	switch Classify(descriptor) {
	case KindDevice:
		index, err := strconv.Atoi(descriptor)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, descriptor)
		}
		return NewDevice(index)
	case KindFile:
		return NewFile(descriptor)
	case KindDirectory:
		return NewReplay(descriptor, opts.ReplayFPS)
	case KindStream:
		return NewStream(descriptor)
	case KindSnapshot:
		return NewSnapshot(descriptor, opts.PollInterval, opts.HTTPTimeout, opts.Headers), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, descriptor)
}

func isAllDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
