package risk

import (
	"testing"

	"github.com/watchher-data/risk.report/internal/config"
)

func TestClassifyThreatBoundaries(t *testing.T) {
	cfg := config.EmptyEngineConfig()

	cases := []struct {
		score float64
		want  ThreatLevel
	}{
		{0, ThreatSafe},
		{14.999, ThreatSafe},
		{15, ThreatLow}, // boundaries are closed on the left
		{29.999, ThreatLow},
		{30, ThreatModerate},
		{69.999, ThreatModerate},
		{70, ThreatHigh},
		{84.999, ThreatHigh},
		{85, ThreatCritical},
		{100, ThreatCritical},
	}
	for _, tc := range cases {
		if got := ClassifyThreat(cfg, tc.score); got != tc.want {
			t.Errorf("ClassifyThreat(%v) = %v, want %v", tc.score, got, tc.want)
		}
	}
}

func TestThreatLevelOrdering(t *testing.T) {
	order := []ThreatLevel{ThreatSafe, ThreatLow, ThreatModerate, ThreatHigh, ThreatCritical}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("%v should rank above %v", order[i], order[i-1])
		}
	}
	if !ThreatCritical.AtLeast(ThreatHigh) || ThreatLow.AtLeast(ThreatModerate) {
		t.Error("AtLeast comparisons wrong")
	}
}
