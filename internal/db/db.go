// Package db persists assessments, alerts and zone snapshots to sqlite. The
// base schema is created on open so a fresh deployment works with no setup;
// golang-migrate handles everything beyond the base schema.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/watchher-data/risk.report/internal/alerting"
	"github.com/watchher-data/risk.report/internal/monitoring"
	"github.com/watchher-data/risk.report/internal/risk"
	"github.com/watchher-data/risk.report/internal/zones"
)

type DB struct {
	*sql.DB
}

func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS assessments (
			assessment_id     TEXT PRIMARY KEY,
			camera_id         TEXT,
			frame_time        TIMESTAMP,
			score             DOUBLE,
			raw_score         DOUBLE,
			threat_level      TEXT,
			people            BIGINT,
			women             BIGINT,
			men               BIGINT,
			weapons           BIGINT,
			night             BOOLEAN,
			factors           TEXT,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS alerts (
			alert_id          TEXT PRIMARY KEY,
			camera_id         TEXT,
			camera_name       TEXT,
			latitude          DOUBLE,
			longitude         DOUBLE,
			alert_type        TEXT,
			threat_level      TEXT,
			score             DOUBLE,
			details           TEXT,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS zone_snapshots (
			zone              TEXT,
			value             DOUBLE,
			samples           BIGINT,
			mean              DOUBLE,
			stddev            DOUBLE,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// RecordAssessment persists one frame assessment. Factors are stored as a
// JSON column; they are read back far less often than they are written.
func (db *DB) RecordAssessment(a risk.Assessment) error {
	factors, err := json.Marshal(a.Factors)
	if err != nil {
		return fmt.Errorf("failed to marshal factors: %w", err)
	}

	_, err = db.Exec(
		`INSERT INTO assessments (
			assessment_id, camera_id, frame_time, score, raw_score,
			threat_level, people, women, men, weapons, night, factors
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.CameraID, a.Timestamp, a.Score, a.RawScore,
		string(a.Level), a.People, a.Women, a.Men, a.Weapons, a.Night, string(factors),
	)
	return err
}

// RecentAssessments returns up to limit assessments, newest first.
func (db *DB) RecentAssessments(limit int) ([]risk.Assessment, error) {
	rows, err := db.Query(
		`SELECT assessment_id, camera_id, frame_time, score, raw_score,
			threat_level, people, women, men, weapons, night, factors
		FROM assessments ORDER BY frame_time DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []risk.Assessment
	for rows.Next() {
		var a risk.Assessment
		var level, factors string
		if err := rows.Scan(
			&a.ID, &a.CameraID, &a.Timestamp, &a.Score, &a.RawScore,
			&level, &a.People, &a.Women, &a.Men, &a.Weapons, &a.Night, &factors,
		); err != nil {
			return nil, err
		}
		a.Level = risk.ThreatLevel(level)
		if factors != "" && factors != "null" {
			if err := json.Unmarshal([]byte(factors), &a.Factors); err != nil {
				return nil, fmt.Errorf("failed to unmarshal factors for %s: %w", a.ID, err)
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// RecordAlert persists one dispatched alert.
func (db *DB) RecordAlert(a alerting.Alert) error {
	_, err := db.Exec(
		`INSERT INTO alerts (
			alert_id, camera_id, camera_name, latitude, longitude,
			alert_type, threat_level, score, details, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.CameraID, a.CameraName, a.Latitude, a.Longitude,
		a.Type, string(a.Level), a.Score, a.Details, a.Timestamp,
	)
	return err
}

// RecentAlerts returns up to limit alerts, newest first.
func (db *DB) RecentAlerts(limit int) ([]alerting.Alert, error) {
	rows, err := db.Query(
		`SELECT alert_id, camera_id, camera_name, latitude, longitude,
			alert_type, threat_level, score, details, timestamp
		FROM alerts ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []alerting.Alert
	for rows.Next() {
		var a alerting.Alert
		var level string
		if err := rows.Scan(
			&a.ID, &a.CameraID, &a.CameraName, &a.Latitude, &a.Longitude,
			&a.Type, &level, &a.Score, &a.Details, &a.Timestamp,
		); err != nil {
			return nil, err
		}
		a.Level = risk.ThreatLevel(level)
		out = append(out, a)
	}
	return out, rows.Err()
}

// RecordZoneSnapshots persists one snapshot row per zone. Rows accumulate
// into a history, one batch per persistence tick.
func (db *DB) RecordZoneSnapshots(snaps []zones.Snapshot) error {
	for _, s := range snaps {
		_, err := db.Exec(
			`INSERT INTO zone_snapshots (zone, value, samples, mean, stddev)
			VALUES (?, ?, ?, ?, ?)`,
			s.Zone, s.Value, s.Samples, s.Mean, s.StdDev,
		)
		if err != nil {
			return fmt.Errorf("failed to record snapshot for zone %s: %w", s.Zone, err)
		}
	}
	return nil
}

// ZoneHistory returns up to limit snapshot rows for one zone, newest first.
func (db *DB) ZoneHistory(zone string, limit int) ([]zones.Snapshot, error) {
	rows, err := db.Query(
		`SELECT zone, value, samples, mean, stddev FROM zone_snapshots
		WHERE zone = ? ORDER BY timestamp DESC LIMIT ?`, zone, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []zones.Snapshot
	for rows.Next() {
		var s zones.Snapshot
		if err := rows.Scan(&s.Zone, &s.Value, &s.Samples, &s.Mean, &s.StdDev); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AttachAdminRoutes attaches database admin endpoints under /debug/db/.
// These are for operators on the local network, not the public API.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/db/backup", func(w http.ResponseWriter, r *http.Request) {
		unixTime := time.Now().Unix()
		backupPath := fmt.Sprintf("backup-%d.db", unixTime)
		if _, err := db.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				monitoring.Logf("failed to remove backup file %s: %v", backupPath, err)
			}
		}()
		io.Copy(w, backupFile)
	})
}
