package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/watchher-data/risk.report/internal/risk"
)

// RiskPlotter records assessment scores over time for offline visualization.
// Feed it every assessment during a tuning run, then call GeneratePlots()
// to produce one PNG per camera.
type RiskPlotter struct {
	mu        sync.Mutex
	enabled   bool
	outputDir string

	// samples holds per-camera time series.
	samples   map[string][]ScoreSample
	startTime time.Time
	frameIdx  int
}

// ScoreSample represents one assessment's scores.
type ScoreSample struct {
	FrameIdx  int
	Timestamp time.Time
	Score     float64
	RawScore  float64
	People    int
	Weapons   int
}

// NewRiskPlotter creates a plotter. It records nothing until Start is called.
func NewRiskPlotter() *RiskPlotter {
	return &RiskPlotter{
		samples: make(map[string][]ScoreSample),
	}
}

// Start initializes the plotter for a new run.
// outputDir should be a timestamped directory (e.g., "plots/20260820_231500").
func (rp *RiskPlotter) Start(outputDir string) error {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	rp.outputDir = outputDir
	rp.enabled = true
	rp.startTime = time.Time{}
	rp.frameIdx = 0
	rp.samples = make(map[string][]ScoreSample)
	return nil
}

// Stop disables sampling. Call GeneratePlots() to produce output files.
func (rp *RiskPlotter) Stop() {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.enabled = false
}

// IsEnabled returns true if the plotter is currently recording.
func (rp *RiskPlotter) IsEnabled() bool {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return rp.enabled
}

// Sample records one assessment.
func (rp *RiskPlotter) Sample(a risk.Assessment) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if !rp.enabled {
		return
	}
	if rp.startTime.IsZero() {
		rp.startTime = a.Timestamp
	}
	rp.frameIdx++

	rp.samples[a.CameraID] = append(rp.samples[a.CameraID], ScoreSample{
		FrameIdx:  rp.frameIdx,
		Timestamp: a.Timestamp,
		Score:     a.Score,
		RawScore:  a.RawScore,
		People:    a.People,
		Weapons:   a.Weapons,
	})
}

// GeneratePlots writes one score plot per camera and returns the count.
func (rp *RiskPlotter) GeneratePlots() (int, error) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if rp.outputDir == "" {
		return 0, fmt.Errorf("no output directory configured")
	}
	if len(rp.samples) == 0 {
		return 0, nil
	}

	var cameras []string
	for camera := range rp.samples {
		cameras = append(cameras, camera)
	}
	sort.Strings(cameras)

	plotCount := 0
	for _, camera := range cameras {
		if err := rp.generateCameraPlot(camera, rp.samples[camera]); err != nil {
			return plotCount, fmt.Errorf("camera %s: %w", camera, err)
		}
		plotCount++
	}

	return plotCount, nil
}

// generateCameraPlot creates the score plot for one camera: normalized score,
// raw score, and people count on a shared frame axis.
func (rp *RiskPlotter) generateCameraPlot(camera string, samples []ScoreSample) error {
	if len(samples) == 0 {
		return nil
	}

	sort.Slice(samples, func(a, b int) bool {
		return samples[a].FrameIdx < samples[b].FrameIdx
	})

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Camera %s - Risk Scores", camera)
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Score"
	p.Y.Min = 0

	scorePts := make(plotter.XYs, 0, len(samples))
	rawPts := make(plotter.XYs, 0, len(samples))
	peoplePts := make(plotter.XYs, 0, len(samples))
	for _, s := range samples {
		scorePts = append(scorePts, plotter.XY{X: float64(s.FrameIdx), Y: s.Score})
		rawPts = append(rawPts, plotter.XY{X: float64(s.FrameIdx), Y: s.RawScore})
		peoplePts = append(peoplePts, plotter.XY{X: float64(s.FrameIdx), Y: float64(s.People)})
	}

	series := []struct {
		name string
		pts  plotter.XYs
	}{
		{"score", scorePts},
		{"raw", rawPts},
		{"people", peoplePts},
	}
	colors := generateColors(len(series))
	for i, sr := range series {
		line, err := plotter.NewLine(sr.pts)
		if err != nil {
			return err
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(sr.name, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	outFile := filepath.Join(rp.outputDir, fmt.Sprintf("camera_%s_scores.png", camera))
	if err := p.Save(14*vg.Inch, 6*vg.Inch, outFile); err != nil {
		return fmt.Errorf("save score plot: %w", err)
	}

	return nil
}

// generateColors creates a palette of distinct colors for plot lines.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}
