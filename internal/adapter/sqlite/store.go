// Package sqlite persists flattened race results to a SQLite database so they
// can be queried ad hoc alongside the CSV table.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/f1-weather-etl/internal/domain"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const schema = `
CREATE TABLE IF NOT EXISTS race_result (
    id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    race_name TEXT NOT NULL,
    race_location TEXT NOT NULL,
    race_date TEXT NOT NULL,
    race_format TEXT,
    race_start_time TEXT,
    air_temperature REAL,
    relative_humidity REAL,
    air_pressure REAL,
    rainfall INTEGER NOT NULL,
    track_temperature REAL,
    wind_speed REAL,
    driver_number TEXT NOT NULL,
    driver_name TEXT NOT NULL,
    driver_team TEXT,
    position INTEGER,
    race_time_ms INTEGER,
    race_points REAL NOT NULL CHECK (race_points >= 0),
    grid_position INTEGER,
    circuit_lat REAL,
    circuit_lon REAL,
    geo_source TEXT,
    ingested_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_race_result_race ON race_result(race_name);
CREATE INDEX IF NOT EXISTS idx_race_result_driver ON race_result(driver_name);
`

const upsert = `
INSERT OR REPLACE INTO race_result (
    id, run_id, race_name, race_location, race_date, race_format, race_start_time,
    air_temperature, relative_humidity, air_pressure, rainfall, track_temperature, wind_speed,
    driver_number, driver_name, driver_team, position, race_time_ms, race_points, grid_position,
    circuit_lat, circuit_lon, geo_source, ingested_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Store upserts records keyed by their deterministic ID, tagging each row with
// the ingestion run that last wrote it. It implements pipeline.BatchLoader.
type Store struct {
	db     *sql.DB
	runID  string
	logger *slog.Logger
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(ctx context.Context, path, runID string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := CreateSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("sqlite store opened", "path", path)
	return &Store{db: db, runID: runID, logger: logger}, nil
}

// CreateSchema creates the result table. Safe to call multiple times.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// LoadBatch upserts the records in a single transaction.
func (s *Store) LoadBatch(ctx context.Context, records []domain.RaceResultRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, s.args(r)...); err != nil {
			return fmt.Errorf("upsert %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("sqlite rows upserted", "count", len(records), "run_id", s.runID)
	return nil
}

func (s *Store) args(r domain.RaceResultRecord) []any {
	var position, raceTime any
	if r.Position != nil {
		position = *r.Position
	}
	if r.RaceTime != nil {
		raceTime = r.RaceTime.Milliseconds()
	}
	var startTime any
	if !r.RaceStartTime.IsZero() {
		startTime = r.RaceStartTime.UTC().Format(time.RFC3339)
	}
	var lat, lon any
	if r.GeoSource == "forward" {
		lat, lon = r.Circuit.Lat, r.Circuit.Lon
	}

	return []any{
		r.ID, s.runID, r.RaceName, r.RaceLocation, r.RaceDate.Format(time.DateOnly), r.RaceFormat, startTime,
		nullable(r.Weather.AirTemperature), nullable(r.Weather.RelativeHumidity), nullable(r.Weather.AirPressure),
		r.Rainfall, nullable(r.Weather.TrackTemperature), nullable(r.Weather.WindSpeed),
		r.DriverNumber, r.DriverName, r.DriverTeam, position, raceTime, r.RacePoints, r.GridPosition,
		lat, lon, r.GeoSource, r.IngestedAt.UTC().Format(time.RFC3339Nano),
	}
}

// nullable stores NaN (a session without weather samples) as NULL.
func nullable(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// Count returns the number of stored rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM race_result`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
