package risk

import (
	"math"

	"github.com/watchher-data/risk.report/internal/config"
	"github.com/watchher-data/risk.report/internal/perception"
)

// ArmedPair is one weapon attributed to a person. WomanAtRisk marks an armed
// woman, or a woman inside the group radius of the holder; either escalates
// the pair's weight.
type ArmedPair struct {
	PersonID    int  `json:"person_id"`
	WeaponIndex int  `json:"weapon_index"`
	WomanAtRisk bool `json:"woman_at_risk"`
}

// ScenarioFlags is the output of the scenario classifier: which hazardous
// patterns are present in the frame and who is involved. All slices hold
// person IDs except ArmedThreats.
type ScenarioFlags struct {
	// LoneWomen lists women with no other person inside the group radius.
	LoneWomen []int `json:"lone_women,omitempty"`

	// SurroundedWomen maps a woman's ID to the count of men inside her
	// group radius, for women meeting the surrounded threshold.
	SurroundedWomen map[int]int `json:"surrounded_women,omitempty"`

	// ArmedThreats lists weapons attributed to a holder.
	ArmedThreats []ArmedPair `json:"armed_threats,omitempty"`

	// Distressed lists people with an active distress pose signal.
	Distressed []int `json:"distressed,omitempty"`
}

// Any reports whether at least one scenario is active.
func (f ScenarioFlags) Any() bool {
	return len(f.LoneWomen) > 0 || len(f.SurroundedWomen) > 0 ||
		len(f.ArmedThreats) > 0 || len(f.Distressed) > 0
}

// Classifier detects hazardous scenarios from normalized people and weapons.
type Classifier struct {
	cfg *config.EngineConfig
}

// NewClassifier returns a Classifier using the given engine configuration.
func NewClassifier(cfg *config.EngineConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify scans the frame for hazardous scenarios. The frame supplies the
// geometry the proximity radii are computed against.
func (c *Classifier) Classify(frame perception.Frame, people []Person, weapons []Weapon) ScenarioFlags {
	var flags ScenarioFlags

	groupRadius := c.cfg.GetGroupProximityFraction() * frame.Diagonal()
	minMen := c.cfg.GetSurroundedMinMen()

	for _, p := range people {
		if p.Distressed() {
			flags.Distressed = append(flags.Distressed, p.ID)
		}
		if p.Gender != GenderFemale {
			continue
		}

		neighbors := 0
		menNearby := 0
		for _, q := range people {
			if q.ID == p.ID {
				continue
			}
			if math.Hypot(q.X-p.X, q.Y-p.Y) > groupRadius {
				continue
			}
			neighbors++
			if q.Gender == GenderMale {
				menNearby++
			}
		}

		if neighbors == 0 {
			flags.LoneWomen = append(flags.LoneWomen, p.ID)
		}
		if menNearby >= minMen {
			if flags.SurroundedWomen == nil {
				flags.SurroundedWomen = make(map[int]int)
			}
			flags.SurroundedWomen[p.ID] = menNearby
		}
	}

	for i, w := range weapons {
		if !w.Associated() {
			continue
		}
		holder := people[w.PersonID]
		pair := ArmedPair{PersonID: w.PersonID, WeaponIndex: i}
		if holder.Gender == GenderFemale {
			pair.WomanAtRisk = true
		} else {
			for _, q := range people {
				if q.Gender != GenderFemale {
					continue
				}
				if math.Hypot(q.X-holder.X, q.Y-holder.Y) <= groupRadius {
					pair.WomanAtRisk = true
					break
				}
			}
		}
		flags.ArmedThreats = append(flags.ArmedThreats, pair)
	}

	return flags
}
