package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"recon/pkg/report"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunProcessing RunStatus = "PROCESSING"
	RunCompleted  RunStatus = "COMPLETED"
	RunError      RunStatus = "ERROR"
)

// RunInput describes a run about to start.
type RunInput struct {
	Operator      string
	RosterFile    string
	DirectoryFile string
}

// Run is one persisted reconciliation.
type Run struct {
	ID            string         `json:"id"`
	Operator      string         `json:"operator"`
	RosterFile    string         `json:"rosterFile"`
	DirectoryFile string         `json:"directoryFile"`
	Status        RunStatus      `json:"status"`
	StartedAt     time.Time      `json:"startedAt"`
	FinishedAt    *time.Time     `json:"finishedAt,omitempty"`
	Summary       report.Summary `json:"summary"`
	ErrorMessage  string         `json:"errorMessage,omitempty"`
}

const runColumns = `
	id, operator, roster_file, directory_file, status, started_at, finished_at,
	total_employees, total_accounts, outcomes, ghost_accounts, inactive_with_account,
	conflict_review, ok_active, ok_inactive, needs_action, duplicate_accounts, error_message`

// CreateRun records a new run in PROCESSING state.
func (s *Store) CreateRun(ctx context.Context, in RunInput) (*Run, error) {
	if in.Operator == "" {
		return nil, fmt.Errorf("operator is required")
	}

	run := &Run{
		ID:            uuid.New().String(),
		Operator:      in.Operator,
		RosterFile:    in.RosterFile,
		DirectoryFile: in.DirectoryFile,
		Status:        RunProcessing,
		StartedAt:     time.Now().UTC(),
	}

	query := `
		INSERT INTO recon_runs (id, operator, roster_file, directory_file, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.Operator, run.RosterFile, run.DirectoryFile, string(run.Status), run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	s.logger.Info("run created", zap.String("run_id", run.ID), zap.String("operator", run.Operator))
	return run, nil
}

// CompleteRun marks a run COMPLETED and stores its counts.
func (s *Store) CompleteRun(ctx context.Context, id string, sum report.Summary) error {
	query := `
		UPDATE recon_runs SET
			status = $1,
			finished_at = $2,
			total_employees = $3,
			total_accounts = $4,
			outcomes = $5,
			ghost_accounts = $6,
			inactive_with_account = $7,
			conflict_review = $8,
			ok_active = $9,
			ok_inactive = $10,
			needs_action = $11,
			duplicate_accounts = $12
		WHERE id = $13
	`
	res, err := s.db.ExecContext(ctx, query,
		string(RunCompleted), time.Now().UTC(),
		sum.TotalEmployees, sum.TotalAccounts, sum.Outcomes,
		sum.GhostAccounts, sum.InactiveWithAccount, sum.ConflictReview,
		sum.OKActive, sum.OKInactive, sum.NeedsAction, sum.DuplicateAccounts,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if err := expectOneRow(res, "run", id); err != nil {
		return err
	}

	s.logger.Info("run completed", zap.String("run_id", id), zap.Int("needs_action", sum.NeedsAction))
	return nil
}

// FailRun marks a run ERROR with the cause's message.
func (s *Store) FailRun(ctx context.Context, id string, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}

	query := `UPDATE recon_runs SET status = $1, finished_at = $2, error_message = $3 WHERE id = $4`
	res, err := s.db.ExecContext(ctx, query, string(RunError), time.Now().UTC(), msg, id)
	if err != nil {
		return fmt.Errorf("failed to mark run as failed: %w", err)
	}
	if err := expectOneRow(res, "run", id); err != nil {
		return err
	}

	s.logger.Warn("run failed", zap.String("run_id", id), zap.String("error", msg))
	return nil
}

// GetRun returns one run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	if id == "" {
		return nil, fmt.Errorf("run id is required")
	}

	query := `SELECT` + runColumns + ` FROM recon_runs WHERE id = $1`
	run, err := scanRun(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 means 20.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT` + runColumns + ` FROM recon_runs ORDER BY started_at DESC, id LIMIT $1`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var status string
	var finishedAt sql.NullTime
	err := row.Scan(
		&run.ID, &run.Operator, &run.RosterFile, &run.DirectoryFile, &status, &run.StartedAt, &finishedAt,
		&run.Summary.TotalEmployees, &run.Summary.TotalAccounts, &run.Summary.Outcomes,
		&run.Summary.GhostAccounts, &run.Summary.InactiveWithAccount, &run.Summary.ConflictReview,
		&run.Summary.OKActive, &run.Summary.OKInactive, &run.Summary.NeedsAction,
		&run.Summary.DuplicateAccounts, &run.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

func expectOneRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
