package risk

import (
	"math"
	"time"

	"github.com/watchher-data/risk.report/internal/config"
	"github.com/watchher-data/risk.report/internal/monitoring"
)

// Factor is one named contribution to a frame's raw score. Contributions are
// reported after context multipliers, so the factor list always sums to the
// raw score.
type Factor struct {
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"`
}

// Scorer computes the additive raw score and the normalized 0..100 score.
type Scorer struct {
	cfg *config.EngineConfig
}

// NewScorer returns a Scorer using the given engine configuration.
func NewScorer(cfg *config.EngineConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// ContextMultiplier returns the combined environment multiplier for the given
// wall-clock time: the night multiplier when the hour falls inside the night
// window, times the static location multiplier.
func (s *Scorer) ContextMultiplier(t time.Time) float64 {
	mult := s.cfg.GetLocationMultiplier()
	if s.IsNight(t) {
		mult *= s.cfg.GetNightMultiplier()
	}
	return mult
}

// IsNight reports whether t falls inside the configured night window. The
// window is inclusive on both ends and wraps midnight when start > end.
func (s *Scorer) IsNight(t time.Time) bool {
	hour := t.In(s.cfg.Location()).Hour()
	start := s.cfg.GetNightStartHour()
	end := s.cfg.GetNightEndHour()
	if start <= end {
		return hour >= start && hour <= end
	}
	return hour >= start || hour <= end
}

// Score computes the raw additive score for the frame. Every contribution is
// scaled by ctxMult before it enters the factor list, so the list sums to the
// returned raw score exactly.
func (s *Scorer) Score(people []Person, weapons []Weapon, flags ScenarioFlags, ctxMult float64) (float64, []Factor) {
	var factors []Factor
	add := func(name string, v float64) {
		if v == 0 {
			return
		}
		factors = append(factors, Factor{Name: name, Contribution: v * ctxMult})
	}

	if len(people) > 0 {
		add("presence", s.cfg.GetBasePresenceWeight()*float64(len(people)))
	}

	var female, male, unknown float64
	women, men := 0, 0
	for _, p := range people {
		switch p.Gender {
		case GenderFemale:
			women++
			female += s.cfg.GetFemaleVulnerabilityWeight() * p.GenderConfidence
		case GenderMale:
			men++
			male += s.cfg.GetMaleBaseWeight() * p.GenderConfidence
		default:
			unknown += s.cfg.GetUnknownGenderWeight()
		}
	}
	add("female_presence", female)
	add("male_presence", male)
	add("unknown_presence", unknown)

	if women > 0 && men > women {
		ratio := float64(men) / float64(women)
		impact := s.cfg.GetRatioImpactWeight() * (ratio - 1)
		if cap := s.cfg.GetRatioImpactCap(); impact > cap {
			impact = cap
		}
		add("gender_ratio", impact)
	}

	if n := len(flags.LoneWomen); n > 0 {
		w := s.cfg.GetLoneWomanWeight()
		if men == 0 {
			w = s.cfg.GetLoneWomanNoMenWeight()
		}
		add("lone_woman", w*float64(n))
	}

	var surrounded float64
	minMen := s.cfg.GetSurroundedMinMen()
	for _, count := range flags.SurroundedWomen {
		surrounded += s.cfg.GetSurroundedWeight()
		if extra := count - minMen; extra > 0 {
			surrounded += s.cfg.GetSurroundedPerExtraMan() * float64(extra)
		}
	}
	add("surrounded", surrounded)

	if n := len(flags.Distressed); n > 0 {
		add("distress", s.cfg.GetDistressWeight()*float64(n))
	}

	var armed float64
	for _, pair := range flags.ArmedThreats {
		w := weapons[pair.WeaponIndex]
		v := s.cfg.GetArmedPairWeight() * w.Severity * w.Confidence
		if pair.WomanAtRisk {
			v *= s.cfg.GetArmedWomanMultiplier()
		}
		armed += v
	}
	add("armed_threat", armed)

	var unassoc float64
	for _, w := range weapons {
		if w.Associated() {
			continue
		}
		unassoc += s.cfg.GetUnassociatedWeaponWeight() * w.Severity * w.Confidence
	}
	add("unattended_weapon", unassoc)

	var raw float64
	for _, f := range factors {
		raw += f.Contribution
	}
	return raw, factors
}

// Normalize maps a raw additive score onto the bounded 0..100 scale with a
// logistic curve. A raw score of exactly zero stays zero so an empty scene
// never reads as residual risk.
func (s *Scorer) Normalize(raw float64) float64 {
	if raw == 0 {
		return 0
	}
	score := 100 / (1 + math.Exp(-s.cfg.GetSigmoidSlope()*(raw-s.cfg.GetSigmoidMidpoint())))
	if score < 0 || score > 100 || math.IsNaN(score) {
		monitoring.Logf("scorer: normalized score %f out of range for raw %f, clamping", score, raw)
		return math.Min(100, math.Max(0, score))
	}
	return score
}
