package report

import (
	"sort"

	"recon/pkg/engine"
)

// Summary holds the per-run counts recorded alongside a reconciliation.
type Summary struct {
	TotalEmployees      int `json:"totalEmployees"`
	TotalAccounts       int `json:"totalAccounts"`
	Outcomes            int `json:"outcomes"`
	GhostAccounts       int `json:"ghostAccounts"`
	InactiveWithAccount int `json:"inactiveWithAccount"`
	ConflictReview      int `json:"conflictReview"`
	OKActive            int `json:"okActive"`
	OKInactive          int `json:"okInactive"`
	NeedsAction         int `json:"needsAction"`
	DuplicateAccounts   int `json:"duplicateAccounts"`
}

// Summarize compiles the counts for a reconciliation result.
func Summarize(res *engine.Result) Summary {
	s := Summary{
		TotalEmployees:    res.Stats.RosterRecords,
		TotalAccounts:     res.Stats.DirectoryAccounts,
		Outcomes:          len(res.Outcomes),
		DuplicateAccounts: len(res.Duplicates),
	}

	for _, o := range res.Outcomes {
		switch o.Category {
		case engine.CategoryGhostAccount:
			s.GhostAccounts++
		case engine.CategoryInactiveWithAccount:
			s.InactiveWithAccount++
		case engine.CategoryConflictReview:
			s.ConflictReview++
		case engine.CategoryOKActive:
			s.OKActive++
		case engine.CategoryOKInactive:
			s.OKInactive++
		}
		if o.NeedsAction() {
			s.NeedsAction++
		}
	}

	return s
}

// SortByPriority returns a copy of outcomes ordered HIGH, MEDIUM, LOW, NONE.
// Outcomes of equal priority keep their reconciliation order.
func SortByPriority(outcomes []engine.Outcome) []engine.Outcome {
	sorted := make([]engine.Outcome, len(outcomes))
	copy(sorted, outcomes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority.Rank() < sorted[j].Priority.Rank()
	})
	return sorted
}

// FilterActionable returns the outcomes that ask for a directory change.
func FilterActionable(outcomes []engine.Outcome) []engine.Outcome {
	var out []engine.Outcome
	for _, o := range outcomes {
		if o.NeedsAction() {
			out = append(out, o)
		}
	}
	return out
}
