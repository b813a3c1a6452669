package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Alias1177/ForceGold/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
	now func() time.Time
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RunMeta describes the window an analysis ran over
type RunMeta struct {
	Provider    string
	Interval    string
	WindowStart time.Time
	WindowEnd   time.Time
}

// CorrelationRun is a stored correlation result
type CorrelationRun struct {
	ID      uuid.UUID
	Result  models.CorrelationResult
	Meta    RunMeta
	Created time.Time
}

// StrengthRun is a stored strength index
type StrengthRun struct {
	ID      uuid.UUID
	Index   models.StrengthIndex
	Meta    RunMeta
	Created time.Time
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	// Create PostgreSQL connection string
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	wrapped := Wrap(db)
	if err := wrapped.CreateTables(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return wrapped, nil
}

// Wrap uses an already opened handle without touching the schema
func Wrap(db *sql.DB) *DB {
	return &DB{DB: db, now: time.Now}
}

// CreateTables creates the necessary tables if they don't exist
func (db *DB) CreateTables(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS correlation_runs (
			id UUID PRIMARY KEY,
			base TEXT NOT NULL,
			other TEXT NOT NULL,
			rho DOUBLE PRECISION NOT NULL,
			samples INTEGER NOT NULL,
			label TEXT NOT NULL,
			provider TEXT,
			interval TEXT,
			window_start TIMESTAMPTZ,
			window_end TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating correlation_runs: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS strength_runs (
			id UUID PRIMARY KEY,
			base TEXT NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			raw DOUBLE PRECISION NOT NULL,
			pressure TEXT NOT NULL,
			series TEXT[] NOT NULL,
			samples INTEGER NOT NULL,
			provider TEXT,
			interval TEXT,
			window_start TIMESTAMPTZ,
			window_end TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating strength_runs: %w", err)
	}
	return nil
}

// SaveCorrelation stores a correlation result and returns its run id
func (db *DB) SaveCorrelation(ctx context.Context, res *models.CorrelationResult, meta RunMeta) (uuid.UUID, error) {
	id := uuid.New()
	_, err := db.ExecContext(ctx, `
		INSERT INTO correlation_runs (
			id, base, other, rho, samples, label, provider, interval, window_start, window_end, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		id, res.Base, res.Other, res.Rho, res.Samples, string(res.Label),
		meta.Provider, meta.Interval, meta.WindowStart, meta.WindowEnd, db.now().UTC())
	if err != nil {
		return uuid.Nil, fmt.Errorf("saving correlation run: %w", err)
	}
	return id, nil
}

// SaveStrength stores a strength index and returns its run id
func (db *DB) SaveStrength(ctx context.Context, idx *models.StrengthIndex, meta RunMeta) (uuid.UUID, error) {
	id := uuid.New()
	_, err := db.ExecContext(ctx, `
		INSERT INTO strength_runs (
			id, base, value, raw, pressure, series, samples, provider, interval, window_start, window_end, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		id, idx.Base, idx.Value, idx.Raw, string(idx.Pressure), pq.Array(idx.Series), idx.Samples,
		meta.Provider, meta.Interval, meta.WindowStart, meta.WindowEnd, db.now().UTC())
	if err != nil {
		return uuid.Nil, fmt.Errorf("saving strength run: %w", err)
	}
	return id, nil
}

// RecentCorrelations returns the latest correlation runs for base, newest first
func (db *DB) RecentCorrelations(ctx context.Context, base string, limit int) ([]CorrelationRun, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, base, other, rho, samples, label, provider, interval, window_start, window_end, created_at
		FROM correlation_runs
		WHERE base = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, base, limit)
	if err != nil {
		return nil, fmt.Errorf("querying correlation runs: %w", err)
	}
	defer rows.Close()

	var runs []CorrelationRun
	for rows.Next() {
		var run CorrelationRun
		var label string
		var provider, interval sql.NullString
		var start, end sql.NullTime
		if err := rows.Scan(
			&run.ID, &run.Result.Base, &run.Result.Other, &run.Result.Rho, &run.Result.Samples, &label,
			&provider, &interval, &start, &end, &run.Created,
		); err != nil {
			return nil, fmt.Errorf("scanning correlation run: %w", err)
		}
		run.Result.Label = models.RegimeLabel(label)
		run.Meta = meta(provider, interval, start, end)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecentStrength returns the latest strength runs for base, newest first
func (db *DB) RecentStrength(ctx context.Context, base string, limit int) ([]StrengthRun, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, base, value, raw, pressure, series, samples, provider, interval, window_start, window_end, created_at
		FROM strength_runs
		WHERE base = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, base, limit)
	if err != nil {
		return nil, fmt.Errorf("querying strength runs: %w", err)
	}
	defer rows.Close()

	var runs []StrengthRun
	for rows.Next() {
		var run StrengthRun
		var pressure string
		var provider, interval sql.NullString
		var start, end sql.NullTime
		if err := rows.Scan(
			&run.ID, &run.Index.Base, &run.Index.Value, &run.Index.Raw, &pressure,
			pq.Array(&run.Index.Series), &run.Index.Samples,
			&provider, &interval, &start, &end, &run.Created,
		); err != nil {
			return nil, fmt.Errorf("scanning strength run: %w", err)
		}
		run.Index.Pressure = models.Pressure(pressure)
		run.Meta = meta(provider, interval, start, end)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func meta(provider, interval sql.NullString, start, end sql.NullTime) RunMeta {
	var m RunMeta
	if provider.Valid {
		m.Provider = provider.String
	}
	if interval.Valid {
		m.Interval = interval.String
	}
	if start.Valid {
		m.WindowStart = start.Time
	}
	if end.Valid {
		m.WindowEnd = end.Time
	}
	return m
}
