package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"recon/pkg/report"
)

// SaveScript stores a rendered script against its run and returns its id.
func (s *Store) SaveScript(ctx context.Context, runID string, script report.Script) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	id := uuid.New().String()
	query := `
		INSERT INTO recon_scripts (id, run_id, kind, content, safe_mode, operator, accounts, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		id, runID, string(script.Kind), script.Content, script.SafeMode,
		script.Operator, script.Accounts, script.GeneratedAt.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save script: %w", err)
	}

	s.logger.Info("script saved",
		zap.String("script_id", id),
		zap.String("run_id", runID),
		zap.String("kind", string(script.Kind)),
	)
	return id, nil
}
