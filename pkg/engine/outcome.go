package engine

import (
	"fmt"

	"recon/pkg/schema"
)

// Category is the disposition assigned to an identifier.
type Category string

const (
	CategoryGhostAccount        Category = "GHOST_ACCOUNT"
	CategoryInactiveWithAccount Category = "INACTIVE_WITH_ACCOUNT"
	CategoryConflictReview      Category = "CONFLICT_REVIEW"
	CategoryOKActive            Category = "OK_ACTIVE"
	CategoryOKInactive          Category = "OK_INACTIVE"
)

// Categories lists every category in report order.
var Categories = []Category{
	CategoryGhostAccount,
	CategoryInactiveWithAccount,
	CategoryConflictReview,
	CategoryOKActive,
	CategoryOKInactive,
}

// Priority is the remediation urgency of an outcome.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
	PriorityNone   Priority = "NONE"
)

// Rank orders priorities from most to least urgent (HIGH = 0).
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Action is the recommended remediation.
type Action string

const (
	ActionRemoveAccount  Action = "REMOVE_ACCOUNT"
	ActionDisableAccount Action = "DISABLE_ACCOUNT"
	ActionManualReview   Action = "MANUAL_REVIEW"
	ActionKeep           Action = "KEEP"
)

// Outcome is the classification of one identifier from the union of the
// roster and the directory.
type Outcome struct {
	Identifier          schema.Identifier `json:"identifier"`
	ExistsInRoster      bool              `json:"existsInRoster"`
	HasDirectoryAccount bool              `json:"hasDirectoryAccount"`
	Category            Category          `json:"category"`
	Priority            Priority          `json:"priority"`
	Action              Action            `json:"recommendedAction"`
	Description         string            `json:"description"`
	AccountName         string            `json:"accountName,omitempty"`
	DisplayName         string            `json:"displayName,omitempty"`
}

// NeedsAction reports whether the outcome asks for a change in the directory.
func (o Outcome) NeedsAction() bool {
	return o.Category == CategoryGhostAccount || o.Category == CategoryInactiveWithAccount
}

// classify applies the disposition table. roster and account may each be nil
// but never both.
func classify(id schema.Identifier, roster *schema.RosterRecord, account *schema.DirectoryAccount, policy ConflictPolicy) Outcome {
	o := Outcome{
		Identifier:          id,
		ExistsInRoster:      roster != nil,
		HasDirectoryAccount: account != nil,
	}
	if account != nil {
		o.AccountName = account.AccountName
		o.DisplayName = account.FullName
	}
	if roster != nil && roster.DisplayName != schema.UnknownName {
		o.DisplayName = roster.DisplayName
	}

	switch {
	case roster == nil:
		o.Category, o.Priority, o.Action = CategoryGhostAccount, PriorityHigh, ActionRemoveAccount
		o.Description = "Directory account exists but the identifier is not in the payroll roster"

	case policy == ConflictPolicyReview && roster.HasConflict:
		o.Category, o.Priority, o.Action = CategoryConflictReview, PriorityLow, ActionManualReview
		o.Description = fmt.Sprintf("Payroll has contradictory statuses across %d rows (%s); manual review required",
			roster.OccurrenceCount, accountPresence(account))

	case roster.FinalStatus == schema.StatusInactive && account != nil:
		o.Category, o.Priority, o.Action = CategoryInactiveWithAccount, PriorityMedium, ActionDisableAccount
		o.Description = "Employee is INACTIVE in payroll but still has a directory account"

	case roster.FinalStatus == schema.StatusInactive:
		o.Category, o.Priority, o.Action = CategoryOKInactive, PriorityNone, ActionKeep
		o.Description = "INACTIVE employee without directory account - correct situation"

	case account != nil:
		o.Category, o.Priority, o.Action = CategoryOKActive, PriorityNone, ActionKeep
		o.Description = "ACTIVE employee with directory account - normal situation"

	default:
		o.Category, o.Priority, o.Action = CategoryOKActive, PriorityNone, ActionKeep
		o.Description = "ACTIVE employee without directory account"
	}

	return o
}

func accountPresence(account *schema.DirectoryAccount) string {
	if account != nil {
		return "has directory account"
	}
	return "no directory account"
}
