package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"dbxdeploy/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store records deployment runs and lists them back, newest first.
type Store interface {
	RecordRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context, environment string, limit int) ([]Run, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) the history database at the given path
// and runs migrations. An empty path resolves to history.db inside the user
// config directory.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		resolved, err := defaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve history database path: %w", err)
		}
		path = resolved
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sqlx.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database %s: %w", path, err)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history database %s: %w", path, err)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runRow represents a deployment run row in the database.
type runRow struct {
	ID          string `db:"id"`
	Environment string `db:"environment"`
	UseCase     string `db:"use_case"`
	StartedAt   string `db:"started_at"`
	FinishedAt  string `db:"finished_at"`
	Outcome     string `db:"outcome"`
	Warnings    int    `db:"warnings"`
	Sets        string `db:"sets"`
}

// RecordRun persists a deployment run. A zero run ID is assigned here.
func (s *SQLiteStore) RecordRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	sets, err := json.Marshal(run.Sets)
	if err != nil {
		return fmt.Errorf("failed to encode set records: %w", err)
	}

	row := runRow{
		ID:          run.ID,
		Environment: run.Environment,
		UseCase:     run.UseCase,
		StartedAt:   run.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt:  run.FinishedAt.UTC().Format(time.RFC3339),
		Outcome:     string(run.Outcome),
		Warnings:    run.Warnings,
		Sets:        string(sets),
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO deployment_runs (id, environment, use_case, started_at, finished_at, outcome, warnings, sets)
		VALUES (:id, :environment, :use_case, :started_at, :finished_at, :outcome, :warnings, :sets)`, row)
	if err != nil {
		return fmt.Errorf("failed to record deployment run: %w", err)
	}
	return nil
}

// ListRuns returns recorded runs, newest first. An empty environment matches
// every environment; limit <= 0 means no limit.
func (s *SQLiteStore) ListRuns(ctx context.Context, environment string, limit int) ([]Run, error) {
	query := `SELECT id, environment, use_case, started_at, finished_at, outcome, warnings, sets
		FROM deployment_runs`
	args := []any{}
	if environment != "" {
		query += ` WHERE environment = ?`
		args = append(args, environment)
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list deployment runs: %w", err)
	}

	runs := make([]Run, 0, len(rows))
	for _, row := range rows {
		run, err := row.toRun()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (r runRow) toRun() (Run, error) {
	startedAt, err := time.Parse(time.RFC3339, r.StartedAt)
	if err != nil {
		return Run{}, fmt.Errorf("invalid started_at for run %s: %w", r.ID, err)
	}
	finishedAt, err := time.Parse(time.RFC3339, r.FinishedAt)
	if err != nil {
		return Run{}, fmt.Errorf("invalid finished_at for run %s: %w", r.ID, err)
	}

	var sets []SetRecord
	if r.Sets != "" {
		if err := json.Unmarshal([]byte(r.Sets), &sets); err != nil {
			return Run{}, fmt.Errorf("invalid set records for run %s: %w", r.ID, err)
		}
	}

	return Run{
		ID:          r.ID,
		Environment: r.Environment,
		UseCase:     r.UseCase,
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
		Outcome:     Outcome(r.Outcome),
		Warnings:    r.Warnings,
		Sets:        sets,
	}, nil
}

// defaultPath places the history database inside the user config directory.
func defaultPath() (string, error) {
	dir, err := config.GetUserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}
