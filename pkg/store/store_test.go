package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"recon/pkg/engine"
	"recon/pkg/report"
)

func setupMockStore(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Store) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, New(db, zap.NewNop())
}

func sampleOutcomes() []engine.Outcome {
	return []engine.Outcome{
		{
			Identifier: "11111111-1", ExistsInRoster: true, HasDirectoryAccount: true,
			Category: engine.CategoryOKActive, Priority: engine.PriorityNone, Action: engine.ActionKeep,
			Description: "ok", AccountName: "ana",
		},
		{
			Identifier: "99999999-9", HasDirectoryAccount: true,
			Category: engine.CategoryGhostAccount, Priority: engine.PriorityHigh, Action: engine.ActionRemoveAccount,
			Description: "ghost", AccountName: "ghost",
		},
	}
}

func TestMigrate(t *testing.T) {
	db, mock, s := setupMockStore(t)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS recon_runs`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS recon_outcomes`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_recon_outcomes_run`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS recon_scripts`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRun_Success(t *testing.T) {
	db, mock, s := setupMockStore(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO recon_runs`).
		WithArgs(sqlmock.AnyArg(), "auditor", "roster.xlsx", "ad.txt", "PROCESSING", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	run, err := s.CreateRun(context.Background(), RunInput{
		Operator:      "auditor",
		RosterFile:    "roster.xlsx",
		DirectoryFile: "ad.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, RunProcessing, run.Status)
	_, err = uuid.Parse(run.ID)
	assert.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRun_RequiresOperator(t *testing.T) {
	db, _, s := setupMockStore(t)
	defer db.Close()

	_, err := s.CreateRun(context.Background(), RunInput{})
	assert.Error(t, err)
}

func TestCompleteRun(t *testing.T) {
	db, mock, s := setupMockStore(t)
	defer db.Close()

	runID := uuid.New().String()
	sum := report.Summary{TotalEmployees: 3, TotalAccounts: 4, Outcomes: 4, GhostAccounts: 1, NeedsAction: 1}

	mock.ExpectExec(`UPDATE recon_runs SET`).
		WithArgs("COMPLETED", sqlmock.AnyArg(), 3, 4, 4, 1, 0, 0, 0, 0, 1, 0, runID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.CompleteRun(context.Background(), runID, sum))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteRun_NotFound(t *testing.T) {
	db, mock, s := setupMockStore(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE recon_runs SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.CompleteRun(context.Background(), "missing", report.Summary{})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFailRun(t *testing.T) {
	db, mock, s := setupMockStore(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE recon_runs SET status`).
		WithArgs("ERROR", sqlmock.AnyArg(), "bad roster", "run-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.FailRun(context.Background(), "run-1", errors.New("bad roster")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func runRow(id string, finished any) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "operator", "roster_file", "directory_file", "status", "started_at", "finished_at",
		"total_employees", "total_accounts", "outcomes", "ghost_accounts", "inactive_with_account",
		"conflict_review", "ok_active", "ok_inactive", "needs_action", "duplicate_accounts", "error_message",
	}).AddRow(
		id, "auditor", "roster.xlsx", "ad.txt", "COMPLETED", time.Now(), finished,
		3, 4, 4, 1, 1, 0, 1, 1, 2, 1, "",
	)
}

func TestGetRun_Success(t *testing.T) {
	db, mock, s := setupMockStore(t)
	defer db.Close()

	runID := uuid.New().String()
	mock.ExpectQuery(`SELECT`).WithArgs(runID).WillReturnRows(runRow(runID, time.Now()))

	run, err := s.GetRun(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, runID, run.ID)
	assert.Equal(t, RunCompleted, run.Status)
	require.NotNil(t, run.FinishedAt)
	assert.Equal(t, 2, run.Summary.NeedsAction)
	assert.Equal(t, 1, run.Summary.DuplicateAccounts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRun_NotFound(t *testing.T) {
	db, mock, s := setupMockStore(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	run, err := s.GetRun(context.Background(), "nope")
	assert.Nil(t, run)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListRuns_DefaultLimit(t *testing.T) {
	db, mock, s := setupMockStore(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT.*FROM recon_runs ORDER BY started_at DESC`).
		WithArgs(20).
		WillReturnRows(runRow("a", nil))

	runs, err := s.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Nil(t, runs[0].FinishedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveOutcomes_Transaction(t *testing.T) {
	db, mock, s := setupMockStore(t)
	defer db.Close()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO recon_outcomes`)
	prep.ExpectExec().
		WithArgs(sqlmock.AnyArg(), "run-1", "11111111-1", true, true,
			"OK_ACTIVE", "NONE", 3, "KEEP", "ok", "ana", "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs(sqlmock.AnyArg(), "run-1", "99999999-9", false, true,
			"GHOST_ACCOUNT", "HIGH", 0, "REMOVE_ACCOUNT", "ghost", "ghost", "").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, s.SaveOutcomes(context.Background(), "run-1", sampleOutcomes()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveOutcomes_RollbackOnError(t *testing.T) {
	db, mock, s := setupMockStore(t)
	defer db.Close()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO recon_outcomes`)
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := s.SaveOutcomes(context.Background(), "run-1", sampleOutcomes())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "99999999-9")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListOutcomes_Filtered(t *testing.T) {
	db, mock, s := setupMockStore(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "run_id", "identifier", "exists_in_roster", "has_directory_account",
		"category", "priority", "action", "description", "account_name", "display_name",
		"resolved", "resolved_at", "resolved_by", "notes",
	}).AddRow(
		"o-1", "run-1", "99999999-9", false, true,
		"GHOST_ACCOUNT", "HIGH", "REMOVE_ACCOUNT", "ghost", "ghost", "",
		false, nil, "", "",
	)

	mock.ExpectQuery(`WHERE run_id = \$1 AND resolved = \$2 AND category = \$3\s+ORDER BY priority_rank, identifier`).
		WithArgs("run-1", false, "GHOST_ACCOUNT").
		WillReturnRows(rows)

	out, err := s.ListOutcomes(context.Background(), "run-1", OutcomeFilter{
		UnresolvedOnly: true,
		Category:       engine.CategoryGhostAccount,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, engine.CategoryGhostAccount, out[0].Category)
	assert.Equal(t, engine.ActionRemoveAccount, out[0].Action)
	assert.True(t, out[0].NeedsAction())
	assert.Nil(t, out[0].ResolvedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveOutcome(t *testing.T) {
	db, mock, s := setupMockStore(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE recon_outcomes`).
		WithArgs(true, sqlmock.AnyArg(), "auditor", "disabled by ticket 42", "o-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.ResolveOutcome(context.Background(), "o-1", "auditor", "disabled by ticket 42"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveOutcome_Validation(t *testing.T) {
	db, mock, s := setupMockStore(t)
	defer db.Close()

	assert.Error(t, s.ResolveOutcome(context.Background(), "", "auditor", ""))
	assert.Error(t, s.ResolveOutcome(context.Background(), "o-1", "", ""))

	mock.ExpectExec(`UPDATE recon_outcomes`).WillReturnResult(sqlmock.NewResult(0, 0))
	err := s.ResolveOutcome(context.Background(), "missing", "auditor", "")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSaveScript(t *testing.T) {
	db, mock, s := setupMockStore(t)
	defer db.Close()

	script := report.Script{
		Kind:        report.ScriptMassDisable,
		Content:     "Disable-ADAccount",
		SafeMode:    true,
		Operator:    "auditor",
		Accounts:    2,
		GeneratedAt: time.Now(),
	}
	mock.ExpectExec(`INSERT INTO recon_scripts`).
		WithArgs(sqlmock.AnyArg(), "run-1", "MASS_DISABLE", "Disable-ADAccount", true, "auditor", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := s.SaveScript(context.Background(), "run-1", script)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn", nil)
	assert.Error(t, err)

	_, err = Open(context.Background(), "sqlite", "", nil)
	assert.Error(t, err)
}

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "sqlite", filepath.Join(t.TempDir(), "recon.db"), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx))

	run, err := s.CreateRun(ctx, RunInput{Operator: "auditor", RosterFile: "r.xlsx", DirectoryFile: "d.txt"})
	require.NoError(t, err)
	require.NoError(t, s.SaveOutcomes(ctx, run.ID, sampleOutcomes()))
	require.NoError(t, s.CompleteRun(ctx, run.ID, report.Summary{Outcomes: 2, GhostAccounts: 1, NeedsAction: 1}))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunCompleted, got.Status)
	assert.Equal(t, 1, got.Summary.GhostAccounts)
	require.NotNil(t, got.FinishedAt)

	outcomes, err := s.ListOutcomes(ctx, run.ID, OutcomeFilter{})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	// HIGH sorts before NONE.
	assert.Equal(t, engine.CategoryGhostAccount, outcomes[0].Category)

	require.NoError(t, s.ResolveOutcome(ctx, outcomes[0].ID, "auditor", "done"))
	open, err := s.ListOutcomes(ctx, run.ID, OutcomeFilter{UnresolvedOnly: true})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, engine.CategoryOKActive, open[0].Category)

	runs, err := s.ListRuns(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	_, err = s.GetRun(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}
