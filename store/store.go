// Package store provides SQLite-backed caching of fetched hourly series and
// a history of pipeline runs. Caching makes reruns over the same date range
// reproducible without touching the external APIs.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bridgelift/tide"
	"bridgelift/weather"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database for all persistence operations.
type Store struct {
	db *sql.DB
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/liftcast/cache.db.
func New(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "liftcast", "cache.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tide_predictions (
			station   TEXT NOT NULL,
			hour      INTEGER NOT NULL,
			height_ft REAL NOT NULL,
			PRIMARY KEY (station, hour)
		)`,
		`CREATE TABLE IF NOT EXISTS weather_observations (
			latitude         REAL NOT NULL,
			longitude        REAL NOT NULL,
			hour             INTEGER NOT NULL,
			temperature_c    REAL NOT NULL,
			precipitation_mm REAL NOT NULL,
			windspeed_mph    REAL NOT NULL,
			PRIMARY KEY (latitude, longitude, hour)
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id              TEXT PRIMARY KEY,
			started_at      INTEGER NOT NULL,
			finished_at     INTEGER NOT NULL,
			events          INTEGER NOT NULL,
			dropped_rows    INTEGER NOT NULL,
			imputed_weather INTEGER NOT NULL,
			imputed_tide    INTEGER NOT NULL,
			rmse            REAL NOT NULL,
			mae             REAL NOT NULL,
			within_5min     REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveTidePredictions upserts the fetched predictions for a station.
func (s *Store) SaveTidePredictions(station string, preds []tide.Prediction) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, p := range preds {
		if _, err := tx.Exec(`
			INSERT OR REPLACE INTO tide_predictions (station, hour, height_ft)
			VALUES (?,?,?)`,
			station, p.T.Unix(), p.HeightFt,
		); err != nil {
			return fmt.Errorf("failed to insert tide prediction: %w", err)
		}
	}
	return tx.Commit()
}

// LoadTidePredictions returns cached predictions for the station covering
// [start, end], ordered by hour.
func (s *Store) LoadTidePredictions(station string, start, end time.Time) ([]tide.Prediction, error) {
	rows, err := s.db.Query(`
		SELECT hour, height_ft FROM tide_predictions
		WHERE station = ? AND hour >= ? AND hour <= ?
		ORDER BY hour`,
		station, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query tide predictions: %w", err)
	}
	defer rows.Close()

	var preds []tide.Prediction
	for rows.Next() {
		var hour int64
		var height float64
		if err := rows.Scan(&hour, &height); err != nil {
			return nil, fmt.Errorf("failed to scan tide prediction: %w", err)
		}
		preds = append(preds, tide.Prediction{
			T:        time.Unix(hour, 0).UTC(),
			HeightFt: height,
		})
	}
	return preds, rows.Err()
}

// SaveWeatherObservations upserts the fetched observations for a coordinate.
func (s *Store) SaveWeatherObservations(latitude, longitude float64, obs []weather.Observation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, o := range obs {
		if _, err := tx.Exec(`
			INSERT OR REPLACE INTO weather_observations
				(latitude, longitude, hour, temperature_c, precipitation_mm, windspeed_mph)
			VALUES (?,?,?,?,?,?)`,
			latitude, longitude, o.T.Unix(), o.TemperatureC, o.PrecipitationMm, o.WindspeedMph,
		); err != nil {
			return fmt.Errorf("failed to insert weather observation: %w", err)
		}
	}
	return tx.Commit()
}

// LoadWeatherObservations returns cached observations for the coordinate
// covering [start, end], ordered by hour. DidRain is re-derived from the
// stored precipitation.
func (s *Store) LoadWeatherObservations(latitude, longitude float64, start, end time.Time) ([]weather.Observation, error) {
	rows, err := s.db.Query(`
		SELECT hour, temperature_c, precipitation_mm, windspeed_mph FROM weather_observations
		WHERE latitude = ? AND longitude = ? AND hour >= ? AND hour <= ?
		ORDER BY hour`,
		latitude, longitude, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query weather observations: %w", err)
	}
	defer rows.Close()

	var obs []weather.Observation
	for rows.Next() {
		var hour int64
		var o weather.Observation
		if err := rows.Scan(&hour, &o.TemperatureC, &o.PrecipitationMm, &o.WindspeedMph); err != nil {
			return nil, fmt.Errorf("failed to scan weather observation: %w", err)
		}
		o.T = time.Unix(hour, 0).UTC()
		o.DidRain = o.PrecipitationMm > 0
		obs = append(obs, o)
	}
	return obs, rows.Err()
}

// Run is one persisted pipeline invocation.
type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	Events         int
	DroppedRows    int
	ImputedWeather int
	ImputedTide    int
	RMSE           float64
	MAE            float64
	Within5Min     float64
}

// SaveRun records a completed pipeline run.
func (s *Store) SaveRun(run *Run) error {
	_, err := s.db.Exec(`
		INSERT INTO runs
			(id, started_at, finished_at, events, dropped_rows, imputed_weather, imputed_tide, rmse, mae, within_5min)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(),
		run.Events, run.DroppedRows, run.ImputedWeather, run.ImputedTide,
		run.RMSE, run.MAE, run.Within5Min,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, events, dropped_rows, imputed_weather, imputed_tide, rmse, mae, within_5min
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedNano, finishedNano int64
		if err := rows.Scan(
			&r.ID, &startedNano, &finishedNano,
			&r.Events, &r.DroppedRows, &r.ImputedWeather, &r.ImputedTide,
			&r.RMSE, &r.MAE, &r.Within5Min,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, startedNano)
		r.FinishedAt = time.Unix(0, finishedNano)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
