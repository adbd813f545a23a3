// Package monitor serves operator-facing visualizations: live zone risk
// charts rendered with go-echarts, and offline PNG score plots for tuning
// sessions.
package monitor

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/watchher-data/risk.report/internal/db"
	"github.com/watchher-data/risk.report/internal/zones"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// WebServer renders monitoring charts from the live accumulator and the
// assessment history. These are debugging/tuning endpoints, not the public
// API surface.
type WebServer struct {
	db  *db.DB
	acc *zones.Accumulator
}

func NewWebServer(database *db.DB, acc *zones.Accumulator) *WebServer {
	return &WebServer{db: database, acc: acc}
}

// AttachMonitorRoutes attaches chart endpoints under /monitor/.
func (ws *WebServer) AttachMonitorRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/monitor/zones", ws.handleZoneBarChart)
	mux.HandleFunc("/monitor/timeline", ws.handleScoreTimeline)
}

func (ws *WebServer) writeError(w http.ResponseWriter, status int, msg string) {
	http.Error(w, msg, status)
}

// handleZoneBarChart renders the current per-zone risk values as a bar chart
// (HTML) using go-echarts.
func (ws *WebServer) handleZoneBarChart(w http.ResponseWriter, r *http.Request) {
	snaps := ws.acc.Snapshots()
	if len(snaps) == 0 {
		ws.writeError(w, http.StatusNotFound, "no zones have been updated yet")
		return
	}

	x := make([]string, 0, len(snaps))
	y := make([]opts.BarData, 0, len(snaps))
	for _, s := range snaps {
		x = append(x, s.Zone)
		y = append(y, opts.BarData{Value: s.Value})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "720px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Zone Risk Profiles", Subtitle: time.Now().Format(time.RFC3339)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100, Name: "risk"}),
	)
	bar.SetXAxis(x).
		AddSeries("risk", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsPrefix)
	page.AddCharts(bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		ws.writeError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleScoreTimeline renders recent assessment scores as one line per
// camera. Query params:
//   - limit (optional; default 500) number of assessments to chart
func (ws *WebServer) handleScoreTimeline(w http.ResponseWriter, r *http.Request) {
	limit := 500
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 1 && parsed <= 10000 {
			limit = parsed
		}
	}

	assessments, err := ws.db.RecentAssessments(limit)
	if err != nil {
		ws.writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load assessments: %v", err))
		return
	}
	if len(assessments) == 0 {
		ws.writeError(w, http.StatusNotFound, "no assessments recorded yet")
		return
	}

	// RecentAssessments returns newest first; chart oldest to newest.
	byCamera := make(map[string][]opts.LineData)
	var x []string
	for i := len(assessments) - 1; i >= 0; i-- {
		a := assessments[i]
		x = append(x, a.Timestamp.Format("15:04:05"))
		byCamera[a.CameraID] = append(byCamera[a.CameraID], opts.LineData{Value: a.Score})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "720px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Assessment Scores", Subtitle: fmt.Sprintf("last %d assessments", len(assessments))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100, Name: "score"}),
	)
	line.SetXAxis(x)
	for camera, series := range byCamera {
		line.AddSeries(camera, series)
	}

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsPrefix)
	page.AddCharts(line)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		ws.writeError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
