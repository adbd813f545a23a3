// Package risk implements the frame evaluation pipeline: raw detections are
// normalized into people and weapons, scanned for hazardous scenarios, scored
// additively, then mapped onto a bounded 0..100 scale and a threat level.
// Evaluation is deterministic; the same frame and configuration always
// produce the same assessment.
package risk

import "github.com/watchher-data/risk.report/internal/perception"

// Gender is the normalized gender attribute of a detected person.
type Gender string

const (
	GenderUnknown Gender = "unknown"
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
)

// Person is a normalized person detection. IDs index into the frame's person
// list and are stable only within a single frame.
type Person struct {
	ID int

	// Center coordinates and box extents in frame pixels.
	X, Y float64
	W, H float64

	Confidence       float64
	Gender           Gender
	GenderConfidence float64
	Age              int

	Keypoints []perception.Keypoint

	// Pose flags derived from keypoints.
	ArmsRaised    bool
	HandsNearFace bool
	Horizontal    bool
}

// Distressed reports whether any distress signal is active for the person.
func (p Person) Distressed() bool {
	return p.ArmsRaised || p.HandsNearFace || p.Horizontal
}

// Weapon is a normalized weapon detection. Severity comes from the weapon
// vocabulary; PersonID is the holder's person ID, or -1 when no person is
// within the association radius.
type Weapon struct {
	X, Y       float64
	Type       string
	Severity   float64
	Confidence float64
	PersonID   int
}

// Associated reports whether the weapon is attributed to a person.
func (w Weapon) Associated() bool { return w.PersonID >= 0 }
