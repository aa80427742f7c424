package detect

import (
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestDetectionCenter(t *testing.T) {
	d := Detection{Box: image.Rect(10, 20, 30, 60)}
	x, y := d.Center()
	if x != 20 || y != 40 {
		t.Errorf("Center() = (%v, %v), want (20, 40)", x, y)
	}
}

func TestClassFilter(t *testing.T) {
	t.Run("nil filter allows everything", func(t *testing.T) {
		var f ClassFilter
		if !f.Allows(0) || !f.Allows(999) {
			t.Error("nil filter should allow all classes")
		}
	})

	t.Run("empty list yields allow-all", func(t *testing.T) {
		f := NewClassFilter(nil)
		if !f.Allows(3) {
			t.Error("empty filter should allow all classes")
		}
	})

	t.Run("listed classes only", func(t *testing.T) {
		f := NewClassFilter([]int{2, 5, 7})
		if !f.Allows(2) || !f.Allows(7) {
			t.Error("filter should allow listed classes")
		}
		if f.Allows(0) {
			t.Error("filter should reject unlisted classes")
		}
	})
}

func TestRemoteDetectorRoundTrip(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req inferenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Image == "" {
			t.Error("request carried no image payload")
		}
		if req.Confidence != 0.4 {
			t.Errorf("request confidence = %v, want 0.4", req.Confidence)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"detections": []map[string]interface{}{
				{"track_id": 7, "class_id": 2, "confidence": 0.91, "box": []float64{100, 100, 180, 160}},
			},
		})
	}))
	defer ts.Close()

	det := NewRemoteDetector(ts.URL, Config{Confidence: 0.4, IoUThreshold: 0.5, DecodeSize: 640, Device: "cpu", Persist: true}, time.Second)
	defer det.Close()

	frame := gocv.NewMatWithSize(32, 32, gocv.MatTypeCV8UC3)
	defer frame.Close()

	detections, err := det.Detect(&frame)
	if err != nil {
		t.Fatalf("Detect() error: %v", err)
	}
	if len(detections) != 1 {
		t.Fatalf("Detect() returned %d detections, want 1", len(detections))
	}
	d := detections[0]
	if d.TrackID != 7 || d.ClassID != 2 {
		t.Errorf("detection = %+v, want track 7 class 2", d)
	}
	if d.Box != image.Rect(100, 100, 180, 160) {
		t.Errorf("box = %v, want (100,100)-(180,160)", d.Box)
	}
}

func TestRemoteDetectorServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	det := NewRemoteDetector(ts.URL, Config{}, time.Second)
	frame := gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8UC3)
	defer frame.Close()

	if _, err := det.Detect(&frame); err == nil {
		t.Error("Detect() should return an error on HTTP 503")
	}
}

func TestScriptedDetector(t *testing.T) {
	script := [][]Detection{
		{{TrackID: 1, ClassID: 2}},
		{{TrackID: 1, ClassID: 2}, {TrackID: 4, ClassID: 2}},
	}
	det := NewScriptedDetector(script)

	frame := gocv.NewMat()
	defer frame.Close()

	first, err := det.Detect(&frame)
	if err != nil || len(first) != 1 {
		t.Fatalf("first Detect() = %v, %v", first, err)
	}
	second, _ := det.Detect(&frame)
	if len(second) != 2 {
		t.Fatalf("second Detect() returned %d detections, want 2", len(second))
	}
	// Exhausted script repeats its last entry.
	third, _ := det.Detect(&frame)
	if len(third) != 2 {
		t.Errorf("third Detect() returned %d detections, want 2", len(third))
	}
	if det.Calls() != 3 {
		t.Errorf("Calls() = %d, want 3", det.Calls())
	}
}
