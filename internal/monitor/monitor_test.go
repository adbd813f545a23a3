package monitor

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/watchher-data/risk.report/internal/db"
	"github.com/watchher-data/risk.report/internal/risk"
	"github.com/watchher-data/risk.report/internal/zones"
)

func testWebServer(t *testing.T) (*WebServer, *db.DB, *zones.Accumulator) {
	t.Helper()
	database, err := db.NewDB(filepath.Join(t.TempDir(), "monitor.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	acc := zones.NewAccumulator(0.85, nil)
	return NewWebServer(database, acc), database, acc
}

func TestZoneBarChart(t *testing.T) {
	ws, _, acc := testWebServer(t)
	mux := http.NewServeMux()
	ws.AttachMonitorRoutes(mux)

	// Empty accumulator is a 404.
	req := httptest.NewRequest(http.MethodGet, "/monitor/zones", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("empty zones status = %d, want 404", rec.Code)
	}

	acc.Update("cam-1", 35)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/monitor/zones", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "cam-1") {
		t.Error("chart HTML does not mention the zone")
	}
}

func TestScoreTimeline(t *testing.T) {
	ws, database, _ := testWebServer(t)
	mux := http.NewServeMux()
	ws.AttachMonitorRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/monitor/timeline", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("empty timeline status = %d, want 404", rec.Code)
	}

	a := risk.Assessment{
		ID: "as-1", CameraID: "cam-9",
		Timestamp: time.Now().UTC(), Score: 55, Level: risk.ThreatModerate,
	}
	if err := database.RecordAssessment(a); err != nil {
		t.Fatal(err)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/monitor/timeline", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cam-9") {
		t.Error("chart HTML does not mention the camera")
	}
}

func TestRiskPlotterLifecycle(t *testing.T) {
	rp := NewRiskPlotter()

	// Sampling before Start records nothing.
	rp.Sample(risk.Assessment{CameraID: "cam-1", Score: 10})

	dir := filepath.Join(t.TempDir(), "plots")
	if err := rp.Start(dir); err != nil {
		t.Fatal(err)
	}
	if !rp.IsEnabled() {
		t.Fatal("plotter not enabled after Start")
	}

	base := time.Now()
	for i := 0; i < 20; i++ {
		rp.Sample(risk.Assessment{
			CameraID:  "cam-1",
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Score:     float64(i * 4),
			RawScore:  float64(i),
			People:    2,
		})
	}
	rp.Stop()

	count, err := rp.GeneratePlots()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("GeneratePlots = %d, want 1", count)
	}

	if _, err := os.Stat(filepath.Join(dir, "camera_cam-1_scores.png")); err != nil {
		t.Errorf("plot file missing: %v", err)
	}
}

func TestGeneratePlotsWithoutStart(t *testing.T) {
	rp := NewRiskPlotter()
	if _, err := rp.GeneratePlots(); err == nil {
		t.Error("expected error when no output directory configured")
	}
}

func TestGenerateColors(t *testing.T) {
	if generateColors(0) != nil {
		t.Error("zero colors should be nil")
	}
	colors := generateColors(5)
	if len(colors) != 5 {
		t.Fatalf("got %d colors", len(colors))
	}
	seen := make(map[string]bool)
	for _, c := range colors {
		r, g, b, _ := c.RGBA()
		key := string(rune(r)) + string(rune(g)) + string(rune(b))
		if seen[key] {
			t.Error("palette contains duplicate colors")
		}
		seen[key] = true
	}
}
