package risk

import "github.com/watchher-data/risk.report/internal/config"

// ThreatLevel is the discrete band a normalized score maps into.
type ThreatLevel string

const (
	ThreatSafe     ThreatLevel = "SAFE"
	ThreatLow      ThreatLevel = "LOW"
	ThreatModerate ThreatLevel = "MODERATE"
	ThreatHigh     ThreatLevel = "HIGH"
	ThreatCritical ThreatLevel = "CRITICAL"
)

// Rank orders threat levels for comparison; higher is worse.
func (l ThreatLevel) Rank() int {
	switch l {
	case ThreatLow:
		return 1
	case ThreatModerate:
		return 2
	case ThreatHigh:
		return 3
	case ThreatCritical:
		return 4
	default:
		return 0
	}
}

// AtLeast reports whether l is as severe as other or worse.
func (l ThreatLevel) AtLeast(other ThreatLevel) bool {
	return l.Rank() >= other.Rank()
}

// ClassifyThreat maps a normalized 0..100 score onto its threat band. Bands
// are closed on the left: a score equal to a boundary lands in the higher
// band.
func ClassifyThreat(cfg *config.EngineConfig, score float64) ThreatLevel {
	switch {
	case score >= cfg.GetThreatCriticalBoundary():
		return ThreatCritical
	case score >= cfg.GetThreatHighBoundary():
		return ThreatHigh
	case score >= cfg.GetThreatModerateBoundary():
		return ThreatModerate
	case score >= cfg.GetThreatLowBoundary():
		return ThreatLow
	default:
		return ThreatSafe
	}
}
