package alerting

import (
	"testing"
	"time"

	"github.com/watchher-data/risk.report/internal/config"
	"github.com/watchher-data/risk.report/internal/risk"
	"github.com/watchher-data/risk.report/internal/timeutil"
)

func highAssessment(camera string) risk.Assessment {
	return risk.Assessment{
		ID:        "a-1",
		CameraID:  camera,
		Timestamp: time.Date(2026, 8, 20, 23, 0, 0, 0, time.UTC),
		Score:     78,
		Level:     risk.ThreatHigh,
		People:    3, Women: 1, Men: 2,
		Night: true,
		Flags: risk.ScenarioFlags{SurroundedWomen: map[int]int{0: 2}},
	}
}

func TestEvaluateBelowHighIsSilent(t *testing.T) {
	al := NewAlerter(config.EmptyEngineConfig(), nil)
	a := highAssessment("cam-1")
	a.Level = risk.ThreatModerate
	if alert := al.Evaluate(a); alert != nil {
		t.Errorf("MODERATE produced alert %+v", alert)
	}
}

func TestEvaluateCooldown(t *testing.T) {
	clock := timeutil.NewMockClock(time.Now())
	al := NewAlerter(config.EmptyEngineConfig(), clock)

	if al.Evaluate(highAssessment("cam-1")) == nil {
		t.Fatal("first HIGH assessment should alert")
	}
	if al.Evaluate(highAssessment("cam-1")) != nil {
		t.Error("second alert inside cooldown window")
	}

	// Another camera has its own cooldown.
	if al.Evaluate(highAssessment("cam-2")) == nil {
		t.Error("cooldown leaked across cameras")
	}

	clock.Advance(301 * time.Second)
	if al.Evaluate(highAssessment("cam-1")) == nil {
		t.Error("no alert after cooldown expired")
	}
}

func TestEvaluateReset(t *testing.T) {
	clock := timeutil.NewMockClock(time.Now())
	al := NewAlerter(config.EmptyEngineConfig(), clock)

	al.Evaluate(highAssessment("cam-1"))
	al.Reset("cam-1")
	if al.Evaluate(highAssessment("cam-1")) == nil {
		t.Error("Reset did not clear the cooldown")
	}
}

func TestAlertGeotagging(t *testing.T) {
	cfg := config.EmptyEngineConfig()
	lat, lon := 40.7128, -74.006
	cfg.Cameras = []config.CameraConfig{
		{ID: "cam-1", Name: "North Gate", Latitude: &lat, Longitude: &lon},
	}
	al := NewAlerter(cfg, nil)

	alert := al.Evaluate(highAssessment("cam-1"))
	if alert == nil {
		t.Fatal("expected alert")
	}
	if alert.CameraName != "North Gate" || alert.Latitude == nil || *alert.Latitude != lat {
		t.Errorf("alert missing site metadata: %+v", alert)
	}

	// Unknown camera alerts without coordinates.
	alert = al.Evaluate(highAssessment("cam-unconfigured"))
	if alert == nil || alert.Latitude != nil {
		t.Errorf("unconfigured camera alert = %+v, want nil coordinates", alert)
	}
}

func TestAlertTypePrecedence(t *testing.T) {
	al := NewAlerter(config.EmptyEngineConfig(), nil)

	a := highAssessment("cam-armed")
	a.Flags = risk.ScenarioFlags{
		ArmedThreats:    []risk.ArmedPair{{PersonID: 1, WeaponIndex: 0}},
		SurroundedWomen: map[int]int{0: 3},
		Distressed:      []int{0},
	}
	alert := al.Evaluate(a)
	if alert == nil || alert.Type != TypeArmedThreat {
		t.Errorf("alert = %+v, want type armed_threat", alert)
	}

	b := highAssessment("cam-plain")
	b.Flags = risk.ScenarioFlags{}
	alert = al.Evaluate(b)
	if alert == nil || alert.Type != TypeHighRisk {
		t.Errorf("alert = %+v, want type high_risk", alert)
	}
}
