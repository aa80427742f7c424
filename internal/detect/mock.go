package detect

import "gocv.io/x/gocv"

// ScriptedDetector implements Detector with pre-programmed per-frame
// results. It stands in for the external detector service in tests and
// dev mode, the same way a mock device stands in for real hardware.
type ScriptedDetector struct {
	script [][]Detection
	cursor int
	calls  int
	closed bool
}

// NewScriptedDetector returns a detector that yields script[i] for the
// i-th frame. Once the script is exhausted the last entry repeats; an
// empty script always yields no detections.
func NewScriptedDetector(script [][]Detection) *ScriptedDetector {
	return &ScriptedDetector{script: script}
}

func (d *ScriptedDetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	d.calls++
	if len(d.script) == 0 {
		return nil, nil
	}
	if d.cursor >= len(d.script) {
		return d.script[len(d.script)-1], nil
	}
	out := d.script[d.cursor]
	d.cursor++
	return out, nil
}

// Calls reports how many frames were submitted.
func (d *ScriptedDetector) Calls() int { return d.calls }

// Closed reports whether Close has been called.
func (d *ScriptedDetector) Closed() bool { return d.closed }

func (d *ScriptedDetector) Close() error {
	d.closed = true
	return nil
}
