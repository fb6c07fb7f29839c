package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a run or outcome id does not exist.
var ErrNotFound = errors.New("not found")

// Store persists reconciliation runs, their outcomes and generated scripts.
// Queries use $N placeholders, accepted by both lib/pq and modernc sqlite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// New wraps an open database handle.
func New(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger.Named("store")}
}

// Open connects to driver ("postgres" or "sqlite") and pings it.
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (*Store, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	switch driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if dsn == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == "sqlite" {
		// sqlite allows a single writer.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	return New(db, logger), nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS recon_runs (
		id                    TEXT PRIMARY KEY,
		operator              TEXT NOT NULL,
		roster_file           TEXT NOT NULL,
		directory_file        TEXT NOT NULL,
		status                TEXT NOT NULL,
		started_at            TIMESTAMP NOT NULL,
		finished_at           TIMESTAMP,
		total_employees       INTEGER NOT NULL DEFAULT 0,
		total_accounts        INTEGER NOT NULL DEFAULT 0,
		outcomes              INTEGER NOT NULL DEFAULT 0,
		ghost_accounts        INTEGER NOT NULL DEFAULT 0,
		inactive_with_account INTEGER NOT NULL DEFAULT 0,
		conflict_review       INTEGER NOT NULL DEFAULT 0,
		ok_active             INTEGER NOT NULL DEFAULT 0,
		ok_inactive           INTEGER NOT NULL DEFAULT 0,
		needs_action          INTEGER NOT NULL DEFAULT 0,
		duplicate_accounts    INTEGER NOT NULL DEFAULT 0,
		error_message         TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS recon_outcomes (
		id                    TEXT PRIMARY KEY,
		run_id                TEXT NOT NULL REFERENCES recon_runs(id),
		identifier            TEXT NOT NULL,
		exists_in_roster      BOOLEAN NOT NULL,
		has_directory_account BOOLEAN NOT NULL,
		category              TEXT NOT NULL,
		priority              TEXT NOT NULL,
		priority_rank         INTEGER NOT NULL,
		action                TEXT NOT NULL,
		description           TEXT NOT NULL,
		account_name          TEXT NOT NULL DEFAULT '',
		display_name          TEXT NOT NULL DEFAULT '',
		resolved              BOOLEAN NOT NULL DEFAULT FALSE,
		resolved_at           TIMESTAMP,
		resolved_by           TEXT NOT NULL DEFAULT '',
		notes                 TEXT NOT NULL DEFAULT '',
		UNIQUE (run_id, identifier)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recon_outcomes_run ON recon_outcomes (run_id, priority_rank, identifier)`,
	`CREATE TABLE IF NOT EXISTS recon_scripts (
		id           TEXT PRIMARY KEY,
		run_id       TEXT NOT NULL REFERENCES recon_runs(id),
		kind         TEXT NOT NULL,
		content      TEXT NOT NULL,
		safe_mode    BOOLEAN NOT NULL,
		operator     TEXT NOT NULL,
		accounts     INTEGER NOT NULL,
		generated_at TIMESTAMP NOT NULL
	)`,
}

// Migrate creates the tables if they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	s.logger.Debug("schema ready", zap.Int("statements", len(schemaStatements)))
	return nil
}
