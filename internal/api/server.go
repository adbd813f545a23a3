// Package api serves the engine's HTTP surface: recent assessments and
// alerts, live zone profiles, the effective configuration, and a server-sent
// event stream of assessments as frames are evaluated.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/watchher-data/risk.report/internal/config"
	"github.com/watchher-data/risk.report/internal/db"
	"github.com/watchher-data/risk.report/internal/risk"
	"github.com/watchher-data/risk.report/internal/zones"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

const defaultListLimit = 100

type Server struct {
	db  *db.DB
	cfg *config.EngineConfig
	acc *zones.Accumulator

	streamMu sync.Mutex
	streams  map[chan risk.Assessment]struct{}
}

func NewServer(database *db.DB, cfg *config.EngineConfig, acc *zones.Accumulator) *Server {
	return &Server{
		db:      database,
		cfg:     cfg,
		acc:     acc,
		streams: make(map[chan risk.Assessment]struct{}),
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.healthz)
	mux.HandleFunc("/api/assessments", s.listAssessments)
	mux.HandleFunc("/api/alerts", s.listAlerts)
	mux.HandleFunc("/api/zones", s.listZones)
	mux.HandleFunc("/api/zones/history", s.zoneHistory)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/stream", s.streamAssessments)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// parseLimit returns the limit query parameter, or the default.
func (s *Server) parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("invalid 'limit' parameter %q", raw)
	}
	return limit, nil
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) listAssessments(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit, err := s.parseLimit(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	assessments, err := s.db.RecentAssessments(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve assessments: %v", err))
		return
	}
	if assessments == nil {
		assessments = []risk.Assessment{}
	}

	if err := json.NewEncoder(w).Encode(assessments); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write assessments")
		return
	}
}

func (s *Server) listAlerts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit, err := s.parseLimit(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	alerts, err := s.db.RecentAlerts(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve alerts: %v", err))
		return
	}

	if err := json.NewEncoder(w).Encode(alerts); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write alerts")
		return
	}
}

func (s *Server) listZones(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := json.NewEncoder(w).Encode(s.acc.Snapshots()); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write zones")
		return
	}
}

func (s *Server) zoneHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	zone := r.URL.Query().Get("zone")
	if zone == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'zone' parameter")
		return
	}
	limit, err := s.parseLimit(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	history, err := s.db.ZoneHistory(zone, limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve zone history: %v", err))
		return
	}

	if err := json.NewEncoder(w).Encode(history); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write zone history")
		return
	}
}

// showConfig returns the effective engine configuration, defaults included,
// so operators can see exactly which values the engine is scoring with.
func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	effective := map[string]interface{}{
		"person_min_confidence":     s.cfg.GetPersonMinConfidence(),
		"knife_min_confidence":      s.cfg.GetKnifeMinConfidence(),
		"weapon_min_confidence":     s.cfg.GetWeaponMinConfidence(),
		"group_proximity_fraction":  s.cfg.GetGroupProximityFraction(),
		"weapon_proximity_fraction": s.cfg.GetWeaponProximityFraction(),
		"surrounded_min_men":        s.cfg.GetSurroundedMinMen(),
		"night_start_hour":          s.cfg.GetNightStartHour(),
		"night_end_hour":            s.cfg.GetNightEndHour(),
		"night_multiplier":          s.cfg.GetNightMultiplier(),
		"location_multiplier":       s.cfg.GetLocationMultiplier(),
		"timezone":                  s.cfg.GetTimezone(),
		"threat_low_boundary":       s.cfg.GetThreatLowBoundary(),
		"threat_moderate_boundary":  s.cfg.GetThreatModerateBoundary(),
		"threat_high_boundary":      s.cfg.GetThreatHighBoundary(),
		"threat_critical_boundary":  s.cfg.GetThreatCriticalBoundary(),
		"zone_decay":                s.cfg.GetZoneDecay(),
		"alert_cooldown_seconds":    int(s.cfg.GetAlertCooldown().Seconds()),
		"cameras":                   s.cfg.Cameras,
	}

	if err := json.NewEncoder(w).Encode(effective); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write config")
		return
	}
}

// Publish sends an assessment to every connected stream client. Clients that
// are not draining miss assessments rather than blocking evaluation.
func (s *Server) Publish(a risk.Assessment) {
	s.streamMu.Lock()
	defer s.streamMu.Unlock()
	for ch := range s.streams {
		select {
		case ch <- a:
		default:
		}
	}
}

func (s *Server) streamAssessments(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan risk.Assessment, 8)
	s.streamMu.Lock()
	s.streams[ch] = struct{}{}
	s.streamMu.Unlock()
	defer func() {
		s.streamMu.Lock()
		delete(s.streams, ch)
		s.streamMu.Unlock()
	}()

	flusher.Flush()
	for {
		select {
		case <-r.Context().Done():
			return
		case a := <-ch:
			payload, err := json.Marshal(a)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: assessment\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
