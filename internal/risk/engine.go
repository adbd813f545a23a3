package risk

import (
	"time"

	"github.com/watchher-data/risk.report/internal/config"
	"github.com/watchher-data/risk.report/internal/perception"
)

// Assessment is the full result of evaluating one frame.
type Assessment struct {
	// ID is assigned by the caller when the assessment is recorded.
	// Evaluation leaves it empty so identical frames evaluate identically.
	ID        string    `json:"assessment_id"`
	CameraID  string    `json:"camera_id"`
	Timestamp time.Time `json:"timestamp"`

	Score    float64     `json:"score"`
	RawScore float64     `json:"raw_score"`
	Level    ThreatLevel `json:"threat_level"`

	People  int `json:"people"`
	Women   int `json:"women"`
	Men     int `json:"men"`
	Weapons int `json:"weapons"`

	Night   bool          `json:"night"`
	Factors []Factor      `json:"factors,omitempty"`
	Flags   ScenarioFlags `json:"flags"`
}

// Engine wires the normalizer, scenario classifier and scorer into a single
// frame evaluation pipeline.
type Engine struct {
	cfg        *config.EngineConfig
	normalizer *Normalizer
	classifier *Classifier
	scorer     *Scorer
}

// NewEngine returns an Engine using the given engine configuration.
func NewEngine(cfg *config.EngineConfig) *Engine {
	return &Engine{
		cfg:        cfg,
		normalizer: NewNormalizer(cfg),
		classifier: NewClassifier(cfg),
		scorer:     NewScorer(cfg),
	}
}

// Evaluate runs the full pipeline on one frame. The result is a pure
// function of the frame and the configuration; evaluating the same frame
// twice yields identical assessments.
func (e *Engine) Evaluate(frame perception.Frame) Assessment {
	people, weapons := e.normalizer.Normalize(frame)
	flags := e.classifier.Classify(frame, people, weapons)

	ctxMult := e.scorer.ContextMultiplier(frame.Timestamp)
	raw, factors := e.scorer.Score(people, weapons, flags, ctxMult)
	score := e.scorer.Normalize(raw)

	a := Assessment{
		CameraID:  frame.CameraID,
		Timestamp: frame.Timestamp,
		Score:     score,
		RawScore:  raw,
		Level:     ClassifyThreat(e.cfg, score),
		People:    len(people),
		Weapons:   len(weapons),
		Night:     e.scorer.IsNight(frame.Timestamp),
		Factors:   factors,
		Flags:     flags,
	}
	for _, p := range people {
		switch p.Gender {
		case GenderFemale:
			a.Women++
		case GenderMale:
			a.Men++
		}
	}
	return a
}
