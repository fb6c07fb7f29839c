package engine

import (
	"go.uber.org/zap"

	"recon/pkg/schema"
)

// Result contains the outcome of reconciling a roster against a directory.
type Result struct {
	Outcomes   []Outcome             `json:"outcomes"`
	Duplicates []DuplicateIdentifier `json:"duplicates"`
	Stats      ReconcileStats        `json:"stats"`
}

// ReconcileStats contains aggregate statistics about one reconciliation.
type ReconcileStats struct {
	RosterRecords        int              `json:"rosterRecords"`
	DirectoryAccounts    int              `json:"directoryAccounts"`
	DirectoryIdentifiers int              `json:"directoryIdentifiers"`
	ByCategory           map[Category]int `json:"byCategory"`
}

// Reconciler classifies every identifier in the union of a roster and a
// directory. It holds no state between calls.
type Reconciler struct {
	policy ConflictPolicy
	logger *zap.Logger
}

// NewReconciler creates a reconciler. An empty policy means ConflictPolicyFold;
// a nil logger discards output.
func NewReconciler(policy ConflictPolicy, logger *zap.Logger) *Reconciler {
	if policy == "" {
		policy = ConflictPolicyFold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{policy: policy, logger: logger.Named("reconciler")}
}

// Reconcile performs a full outer join on identifier:
//  1. Every directory identifier, in directory order: GHOST_ACCOUNT when not
//     in the roster, INACTIVE_WITH_ACCOUNT when the roster says INACTIVE,
//     OK_ACTIVE otherwise
//  2. Every roster-only identifier, in roster order: OK_ACTIVE or OK_INACTIVE
//
// With ConflictPolicyReview, conflicted roster records become
// CONFLICT_REVIEW in either pass. Outcomes are not sorted by priority.
func (r *Reconciler) Reconcile(roster []schema.RosterRecord, directory []schema.DirectoryAccount) *Result {
	rosterIdx := BuildRosterIndex(roster)
	dirIdx := BuildDirectoryIndex(directory)

	result := &Result{
		Outcomes:   make([]Outcome, 0, len(dirIdx.Order)+len(rosterIdx.Order)),
		Duplicates: dirIdx.Duplicates,
		Stats: ReconcileStats{
			RosterRecords:        rosterIdx.Stats.UniqueIdentifiers,
			DirectoryAccounts:    dirIdx.Stats.TotalRecords,
			DirectoryIdentifiers: dirIdx.Stats.UniqueIdentifiers,
			ByCategory:           make(map[Category]int, len(Categories)),
		},
	}

	for _, dup := range dirIdx.Duplicates {
		r.logger.Warn("duplicate directory identifier, keeping last row",
			zap.String("identifier", string(dup.Identifier)),
			zap.String("replaced_account", dup.ReplacedAccount),
			zap.Int("replaced_row", dup.ReplacedRow),
			zap.String("kept_account", dup.KeptAccount),
			zap.Int("kept_row", dup.KeptRow),
		)
	}

	for _, id := range dirIdx.Order {
		result.add(classify(id, rosterIdx.ByIdentifier[id], dirIdx.ByIdentifier[id], r.policy))
	}

	for _, id := range rosterIdx.Order {
		if _, hasAccount := dirIdx.ByIdentifier[id]; hasAccount {
			continue
		}
		result.add(classify(id, rosterIdx.ByIdentifier[id], nil, r.policy))
	}

	r.logger.Info("reconciliation finished",
		zap.Int("outcomes", len(result.Outcomes)),
		zap.Int("ghost_accounts", result.Stats.ByCategory[CategoryGhostAccount]),
		zap.Int("inactive_with_account", result.Stats.ByCategory[CategoryInactiveWithAccount]),
		zap.Int("conflict_review", result.Stats.ByCategory[CategoryConflictReview]),
		zap.Int("duplicate_directory_identifiers", len(result.Duplicates)),
		zap.String("conflict_policy", string(r.policy)),
	)

	return result
}

func (res *Result) add(o Outcome) {
	res.Outcomes = append(res.Outcomes, o)
	res.Stats.ByCategory[o.Category]++
}
