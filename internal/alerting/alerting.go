// Package alerting turns high-severity assessments into discrete alerts. A
// per-camera cooldown keeps a sustained incident from producing an alert per
// frame; the first frame raises the alert and the rest ride it out.
package alerting

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/watchher-data/risk.report/internal/config"
	"github.com/watchher-data/risk.report/internal/monitoring"
	"github.com/watchher-data/risk.report/internal/risk"
	"github.com/watchher-data/risk.report/internal/timeutil"
)

// Alert types, ordered by precedence when several scenarios are active.
const (
	TypeArmedThreat = "armed_threat"
	TypeSurrounded  = "surrounded"
	TypeDistress    = "distress"
	TypeLoneWoman   = "lone_woman"
	TypeHighRisk    = "high_risk"
)

// Alert is one dispatched alert with site metadata for responders.
type Alert struct {
	ID         string           `json:"alert_id"`
	CameraID   string           `json:"camera_id"`
	CameraName string           `json:"camera_name,omitempty"`
	Latitude   *float64         `json:"latitude,omitempty"`
	Longitude  *float64         `json:"longitude,omitempty"`
	Type       string           `json:"alert_type"`
	Level      risk.ThreatLevel `json:"threat_level"`
	Score      float64          `json:"score"`
	Details    string           `json:"details"`
	Timestamp  time.Time        `json:"timestamp"`
}

// Alerter gates alert dispatch behind threat level and per-camera cooldown.
// Safe for concurrent use.
type Alerter struct {
	cfg   *config.EngineConfig
	clock timeutil.Clock

	mu   sync.Mutex
	last map[string]time.Time
}

// NewAlerter returns an Alerter using the given configuration. A nil clock
// falls back to the real clock.
func NewAlerter(cfg *config.EngineConfig, clock timeutil.Clock) *Alerter {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Alerter{
		cfg:   cfg,
		clock: clock,
		last:  make(map[string]time.Time),
	}
}

// Evaluate returns an alert for the assessment, or nil when the assessment
// does not warrant one or the camera is still cooling down.
func (al *Alerter) Evaluate(a risk.Assessment) *Alert {
	if !a.Level.AtLeast(risk.ThreatHigh) {
		return nil
	}

	now := al.clock.Now()
	al.mu.Lock()
	if last, ok := al.last[a.CameraID]; ok && now.Sub(last) < al.cfg.GetAlertCooldown() {
		al.mu.Unlock()
		return nil
	}
	al.last[a.CameraID] = now
	al.mu.Unlock()

	alert := &Alert{
		ID:        uuid.New().String(),
		CameraID:  a.CameraID,
		Type:      alertType(a.Flags),
		Level:     a.Level,
		Score:     a.Score,
		Details:   details(a),
		Timestamp: a.Timestamp,
	}
	if cam := al.cfg.Camera(a.CameraID); cam != nil {
		alert.CameraName = cam.Name
		alert.Latitude = cam.Latitude
		alert.Longitude = cam.Longitude
	}

	monitoring.Logf("alert %s on camera %s: %s level=%s score=%.1f",
		alert.ID, alert.CameraID, alert.Type, alert.Level, alert.Score)
	return alert
}

// Reset clears the cooldown for a camera, typically after operator review.
func (al *Alerter) Reset(cameraID string) {
	al.mu.Lock()
	defer al.mu.Unlock()
	delete(al.last, cameraID)
}

// alertType picks the most actionable active scenario.
func alertType(f risk.ScenarioFlags) string {
	switch {
	case len(f.ArmedThreats) > 0:
		return TypeArmedThreat
	case len(f.SurroundedWomen) > 0:
		return TypeSurrounded
	case len(f.Distressed) > 0:
		return TypeDistress
	case len(f.LoneWomen) > 0:
		return TypeLoneWoman
	default:
		return TypeHighRisk
	}
}

func details(a risk.Assessment) string {
	s := fmt.Sprintf("%d people (%d women, %d men), %d weapons",
		a.People, a.Women, a.Men, a.Weapons)
	if a.Night {
		s += ", at night"
	}
	return s
}
