package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"recon/pkg/engine"
	"recon/pkg/schema"
)

// StoredOutcome is a persisted outcome plus its resolution tracking.
type StoredOutcome struct {
	ID    string `json:"id"`
	RunID string `json:"runId"`
	engine.Outcome
	Resolved   bool       `json:"resolved"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	ResolvedBy string     `json:"resolvedBy,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// OutcomeFilter narrows ListOutcomes. Zero values match everything.
type OutcomeFilter struct {
	UnresolvedOnly bool
	Category       engine.Category
}

// SaveOutcomes inserts all outcomes of a run in one transaction.
func (s *Store) SaveOutcomes(ctx context.Context, runID string, outcomes []engine.Outcome) error {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recon_outcomes (
			id, run_id, identifier, exists_in_roster, has_directory_account,
			category, priority, priority_rank, action, description,
			account_name, display_name
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare outcome insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range outcomes {
		_, err := stmt.ExecContext(ctx,
			uuid.New().String(), runID, string(o.Identifier), o.ExistsInRoster, o.HasDirectoryAccount,
			string(o.Category), string(o.Priority), o.Priority.Rank(), string(o.Action), o.Description,
			o.AccountName, o.DisplayName,
		)
		if err != nil {
			return fmt.Errorf("failed to insert outcome %s: %w", o.Identifier, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit outcomes: %w", err)
	}

	s.logger.Info("outcomes saved", zap.String("run_id", runID), zap.Int("count", len(outcomes)))
	return nil
}

// ListOutcomes returns a run's outcomes ordered by priority then identifier.
func (s *Store) ListOutcomes(ctx context.Context, runID string, filter OutcomeFilter) ([]*StoredOutcome, error) {
	if runID == "" {
		return nil, fmt.Errorf("run id is required")
	}

	where := []string{"run_id = $1"}
	args := []any{runID}
	argN := 2
	if filter.UnresolvedOnly {
		where = append(where, "resolved = $"+fmt.Sprint(argN))
		args = append(args, false)
		argN++
	}
	if filter.Category != "" {
		where = append(where, "category = $"+fmt.Sprint(argN))
		args = append(args, string(filter.Category))
	}

	query := `
		SELECT id, run_id, identifier, exists_in_roster, has_directory_account,
			category, priority, action, description, account_name, display_name,
			resolved, resolved_at, resolved_by, notes
		FROM recon_outcomes
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY priority_rank, identifier
	`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}
	defer rows.Close()

	var out []*StoredOutcome
	for rows.Next() {
		var o StoredOutcome
		var identifier, category, priority, action string
		var resolvedAt sql.NullTime
		if err := rows.Scan(
			&o.ID, &o.RunID, &identifier, &o.ExistsInRoster, &o.HasDirectoryAccount,
			&category, &priority, &action, &o.Description, &o.AccountName, &o.DisplayName,
			&o.Resolved, &resolvedAt, &o.ResolvedBy, &o.Notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		o.Identifier = schema.Identifier(identifier)
		o.Category = engine.Category(category)
		o.Priority = engine.Priority(priority)
		o.Action = engine.Action(action)
		if resolvedAt.Valid {
			t := resolvedAt.Time
			o.ResolvedAt = &t
		}
		out = append(out, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outcomes: %w", err)
	}
	return out, nil
}

// ResolveOutcome marks an outcome handled by user.
func (s *Store) ResolveOutcome(ctx context.Context, id, user, notes string) error {
	if id == "" {
		return fmt.Errorf("outcome id is required")
	}
	if user == "" {
		return fmt.Errorf("user is required")
	}

	query := `
		UPDATE recon_outcomes
		SET resolved = $1, resolved_at = $2, resolved_by = $3, notes = $4
		WHERE id = $5
	`
	res, err := s.db.ExecContext(ctx, query, true, time.Now().UTC(), user, notes, id)
	if err != nil {
		return fmt.Errorf("failed to resolve outcome: %w", err)
	}
	if err := expectOneRow(res, "outcome", id); err != nil {
		return err
	}

	s.logger.Info("outcome resolved", zap.String("outcome_id", id), zap.String("user", user))
	return nil
}
