package perception

import (
	"math"
	"testing"
	"time"
)

func TestParseFrame(t *testing.T) {
	payload := `{
		"camera_id": "cam-1",
		"timestamp": "2026-08-20T23:15:00Z",
		"width": 640,
		"height": 480,
		"detections": [
			{"x": 100, "y": 80, "w": 60, "h": 160, "class": "person", "confidence": 0.91,
			 "gender": "female", "gender_confidence": 0.8, "age": 27},
			{"x": 300, "y": 200, "w": 40, "h": 20, "class": "knife", "confidence": 0.12}
		]
	}`

	f, err := ParseFrame([]byte(payload))
	if err != nil {
		t.Fatalf("ParseFrame failed: %v", err)
	}

	if f.CameraID != "cam-1" {
		t.Errorf("CameraID = %q, want cam-1", f.CameraID)
	}
	want := time.Date(2026, 8, 20, 23, 15, 0, 0, time.UTC)
	if !f.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", f.Timestamp, want)
	}
	if len(f.Detections) != 2 {
		t.Fatalf("expected 2 detections, got %d", len(f.Detections))
	}

	p := f.Detections[0]
	if p.Class != "person" || p.Gender != "female" || p.Age != 27 {
		t.Errorf("unexpected person detection: %+v", p)
	}
	if p.CenterX() != 130 || p.CenterY() != 160 {
		t.Errorf("center = (%v,%v), want (130,160)", p.CenterX(), p.CenterY())
	}

	// Optional attributes absent on the knife detection.
	k := f.Detections[1]
	if k.Gender != "" || k.Age != 0 || len(k.Keypoints) != 0 {
		t.Errorf("expected zero-value optional attributes, got %+v", k)
	}
}

func TestParseFrameRejectsBadJSON(t *testing.T) {
	if _, err := ParseFrame([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestParseFrameRejectsMissingDimensions(t *testing.T) {
	if _, err := ParseFrame([]byte(`{"camera_id":"c","detections":[]}`)); err == nil {
		t.Fatal("expected error for zero frame dimensions")
	}
}

func TestDiagonal(t *testing.T) {
	f := Frame{Width: 640, Height: 480}
	if got := f.Diagonal(); got != 800 {
		t.Errorf("Diagonal() = %v, want 800", got)
	}

	f = Frame{Width: 1, Height: 1}
	if got := f.Diagonal(); math.Abs(got-math.Sqrt2) > 1e-12 {
		t.Errorf("Diagonal() = %v, want sqrt(2)", got)
	}
}
