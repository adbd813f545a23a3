package risk

import (
	"math"
	"strings"

	"github.com/watchher-data/risk.report/internal/config"
	"github.com/watchher-data/risk.report/internal/perception"
)

// weaponSeverity is the weapon vocabulary. Labels outside this map are not
// weapons and are dropped during normalization.
var weaponSeverity = map[string]float64{
	"gun":      3.0,
	"pistol":   3.0,
	"firearm":  3.0,
	"rifle":    3.5,
	"knife":    2.0,
	"sword":    2.5,
	"club":     1.5,
	"bat":      1.5,
	"scissors": 1.6,
}

// Normalizer turns raw perception detections into typed Person and Weapon
// records: confidence floors applied, gender labels canonicalized, pose flags
// derived, weapons associated to their nearest holder.
type Normalizer struct {
	cfg *config.EngineConfig
}

// NewNormalizer returns a Normalizer using the given engine configuration.
func NewNormalizer(cfg *config.EngineConfig) *Normalizer {
	return &Normalizer{cfg: cfg}
}

// Normalize filters and types the frame's detections. Person IDs index the
// returned slice; detection order is preserved so the mapping is stable for
// a given frame.
func (n *Normalizer) Normalize(frame perception.Frame) ([]Person, []Weapon) {
	var people []Person
	var weapons []Weapon

	for _, d := range frame.Detections {
		cls := strings.ToLower(strings.TrimSpace(d.Class))
		switch {
		case cls == "person":
			if d.Confidence < n.cfg.GetPersonMinConfidence() {
				continue
			}
			people = append(people, n.normalizePerson(len(people), d))
		default:
			sev, ok := weaponSeverity[cls]
			if !ok {
				continue
			}
			if d.Confidence < n.weaponFloor(cls) {
				continue
			}
			weapons = append(weapons, Weapon{
				X:          d.CenterX(),
				Y:          d.CenterY(),
				Type:       cls,
				Severity:   sev,
				Confidence: d.Confidence,
				PersonID:   -1,
			})
		}
	}

	radius := n.cfg.GetWeaponProximityFraction() * frame.Diagonal()
	for i := range weapons {
		weapons[i].PersonID = nearestPerson(weapons[i], people, radius)
	}

	return people, weapons
}

// weaponFloor returns the confidence floor for the given weapon class. The
// knife floor sits far below the general weapon floor: small blades are hard
// to detect and a missed knife costs more than a spurious one.
func (n *Normalizer) weaponFloor(class string) float64 {
	if class == "knife" {
		return n.cfg.GetKnifeMinConfidence()
	}
	return n.cfg.GetWeaponMinConfidence()
}

func (n *Normalizer) normalizePerson(id int, d perception.Detection) Person {
	p := Person{
		ID:         id,
		X:          d.CenterX(),
		Y:          d.CenterY(),
		W:          d.W,
		H:          d.H,
		Confidence: d.Confidence,
		Age:        d.Age,
		Keypoints:  d.Keypoints,
	}

	switch strings.ToLower(strings.TrimSpace(d.Gender)) {
	case "female", "f", "woman":
		p.Gender = GenderFemale
		p.GenderConfidence = d.GenderConfidence
	case "male", "m", "man":
		p.Gender = GenderMale
		p.GenderConfidence = d.GenderConfidence
	default:
		p.Gender = GenderUnknown
	}

	p.ArmsRaised = armsRaised(d.Keypoints)
	p.HandsNearFace = handsNearFace(d.Keypoints)
	p.Horizontal = horizontalOrientation(d.Keypoints)
	return p
}

// nearestPerson returns the ID of the person closest to the weapon within
// radius, or -1 when nobody is close enough. Ties break toward the lower ID
// so association stays deterministic.
func nearestPerson(w Weapon, people []Person, radius float64) int {
	best := -1
	bestDist := radius
	for _, p := range people {
		d := math.Hypot(p.X-w.X, p.Y-w.Y)
		if d < bestDist || (best == -1 && d == bestDist) {
			best = p.ID
			bestDist = d
		}
	}
	return best
}
