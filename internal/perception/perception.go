// Package perception defines the data contract with the upstream perception
// adapter: per-frame lists of raw detections (people and objects) produced by
// an external detector, delivered as JSON frames. Records in this package are
// ephemeral; they exist only for the lifetime of one frame's evaluation.
package perception

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// COCO-17 keypoint indices as emitted by pose detectors.
const (
	KeypointNose          = 0
	KeypointLeftShoulder  = 5
	KeypointRightShoulder = 6
	KeypointLeftWrist     = 9
	KeypointRightWrist    = 10
	KeypointLeftHip       = 11
	KeypointRightHip      = 12

	// KeypointCount is the expected length of a full COCO pose.
	KeypointCount = 17
)

// Keypoint is one named 2D pose point with a per-point confidence.
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Detection is one raw detection from the perception adapter. Gender, age and
// keypoints are optional: a degraded adapter omits them and the engine treats
// the absence as first-class data, never as an error.
type Detection struct {
	// Bounding box as top-left corner plus extents, in frame pixels.
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`

	// Class is "person" or an object vocabulary label (e.g. "knife").
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`

	// Keypoints holds COCO-17 ordered pose points when available.
	Keypoints []Keypoint `json:"keypoints,omitempty"`

	// Gender is "male", "female" or "" when the attribute estimator
	// produced nothing usable for this detection.
	Gender           string  `json:"gender,omitempty"`
	GenderConfidence float64 `json:"gender_confidence,omitempty"`

	// Age is the estimated age in years, 0 when unknown.
	Age int `json:"age,omitempty"`
}

// CenterX returns the x coordinate of the bounding box center.
func (d Detection) CenterX() float64 { return d.X + d.W/2 }

// CenterY returns the y coordinate of the bounding box center.
func (d Detection) CenterY() float64 { return d.Y + d.H/2 }

// Frame is one frame's worth of perception output plus its context: the
// source camera, the capture timestamp and the frame geometry the proximity
// radii are computed against.
type Frame struct {
	CameraID   string      `json:"camera_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Detections []Detection `json:"detections"`
}

// Diagonal returns the frame diagonal in pixels. Proximity radii are
// expressed as fractions of this value so thresholds survive resolution
// changes.
func (f Frame) Diagonal() float64 {
	return math.Hypot(f.Width, f.Height)
}

// ParseFrame decodes one JSON frame payload as delivered by the frame source.
func ParseFrame(payload []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(payload, &f); err != nil {
		return Frame{}, fmt.Errorf("failed to unmarshal frame JSON: %w", err)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return Frame{}, fmt.Errorf("frame must carry positive dimensions, got %gx%g", f.Width, f.Height)
	}
	return f, nil
}
