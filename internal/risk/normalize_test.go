package risk

import (
	"testing"
	"time"

	"github.com/watchher-data/risk.report/internal/config"
	"github.com/watchher-data/risk.report/internal/perception"
)

func TestNormalizeConfidenceFloors(t *testing.T) {
	n := NewNormalizer(config.EmptyEngineConfig())
	frame := testFrame(time.Now(),
		personAt(100, 100, "male", 0.24), // below person floor
		personAt(200, 100, "male", 0.25), // at floor, kept
		objectAt(300, 100, "knife", 0.07), // below knife floor
		objectAt(350, 100, "knife", 0.08), // at knife floor, kept
		objectAt(400, 100, "gun", 0.19),   // below general weapon floor
		objectAt(450, 100, "gun", 0.20),   // at floor, kept
		objectAt(500, 100, "backpack", 0.95), // not in the weapon vocabulary
	)

	people, weapons := n.Normalize(frame)
	if len(people) != 1 {
		t.Fatalf("people = %d, want 1", len(people))
	}
	if len(weapons) != 2 {
		t.Fatalf("weapons = %d, want 2 (knife + gun)", len(weapons))
	}
	if weapons[0].Type != "knife" || weapons[0].Severity != 2.0 {
		t.Errorf("weapons[0] = %+v, want knife severity 2.0", weapons[0])
	}
	if weapons[1].Type != "gun" || weapons[1].Severity != 3.0 {
		t.Errorf("weapons[1] = %+v, want gun severity 3.0", weapons[1])
	}
}

func TestNormalizeGenderCanonicalization(t *testing.T) {
	n := NewNormalizer(config.EmptyEngineConfig())

	cases := []struct {
		raw  string
		want Gender
	}{
		{"female", GenderFemale},
		{"F", GenderFemale},
		{"Woman", GenderFemale},
		{"male", GenderMale},
		{"M", GenderMale},
		{"MAN", GenderMale},
		{"", GenderUnknown},
		{"nonbinary", GenderUnknown},
	}
	for _, tc := range cases {
		d := personAt(100, 100, tc.raw, 0.9)
		people, _ := n.Normalize(testFrame(time.Now(), d))
		if len(people) != 1 {
			t.Fatalf("gender %q: no person", tc.raw)
		}
		if people[0].Gender != tc.want {
			t.Errorf("gender %q normalized to %v, want %v", tc.raw, people[0].Gender, tc.want)
		}
	}
}

func TestNormalizeUnknownGenderHasNoConfidence(t *testing.T) {
	n := NewNormalizer(config.EmptyEngineConfig())
	d := personAt(100, 100, "", 0.9)
	people, _ := n.Normalize(testFrame(time.Now(), d))
	if people[0].GenderConfidence != 0 {
		t.Errorf("unknown gender kept confidence %v", people[0].GenderConfidence)
	}
}

func TestNormalizeWeaponAssociation(t *testing.T) {
	n := NewNormalizer(config.EmptyEngineConfig())
	// Weapon radius on 640x480 is 100px.
	frame := testFrame(time.Now(),
		personAt(100, 100, "male", 0.9),
		personAt(300, 100, "male", 0.9),
		objectAt(130, 100, "knife", 0.5), // 30px from person 0, 170 from person 1
		objectAt(500, 400, "gun", 0.8),   // out of range of everyone
	)

	_, weapons := n.Normalize(frame)
	if len(weapons) != 2 {
		t.Fatalf("weapons = %d, want 2", len(weapons))
	}
	if weapons[0].PersonID != 0 {
		t.Errorf("knife PersonID = %d, want 0", weapons[0].PersonID)
	}
	if weapons[1].Associated() {
		t.Errorf("distant gun associated to person %d, want unassociated", weapons[1].PersonID)
	}
}

func TestNormalizeHorizontalFlag(t *testing.T) {
	n := NewNormalizer(config.EmptyEngineConfig())

	lying := perception.Detection{
		X: 100, Y: 300, W: 150, H: 50,
		Class: "person", Confidence: 0.8,
	}
	lying.Keypoints = make([]perception.Keypoint, perception.KeypointCount)
	lying.Keypoints[perception.KeypointLeftShoulder] = perception.Keypoint{X: 110, Y: 320, Confidence: 0.9}
	lying.Keypoints[perception.KeypointRightShoulder] = perception.Keypoint{X: 110, Y: 335, Confidence: 0.9}
	lying.Keypoints[perception.KeypointLeftHip] = perception.Keypoint{X: 200, Y: 322, Confidence: 0.9}
	lying.Keypoints[perception.KeypointRightHip] = perception.Keypoint{X: 200, Y: 337, Confidence: 0.9}

	people, _ := n.Normalize(testFrame(time.Now(), lying))
	if len(people) != 1 || !people[0].Horizontal {
		t.Errorf("horizontal shoulder-to-hip axis should set Horizontal, got %+v", people)
	}
	if !people[0].Distressed() {
		t.Error("horizontal person should read as distressed")
	}

	// A wide box without keypoints stays unflagged; box shape alone is not
	// a pose signal.
	wide := perception.Detection{
		X: 100, Y: 300, W: 150, H: 50,
		Class: "person", Confidence: 0.8,
	}
	people, _ = n.Normalize(testFrame(time.Now(), wide))
	if len(people) != 1 || people[0].Horizontal {
		t.Errorf("missing keypoints should leave Horizontal false, got %+v", people)
	}
}
