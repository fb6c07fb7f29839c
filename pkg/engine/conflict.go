package engine

import (
	"fmt"
	"strings"

	"recon/pkg/schema"
)

// ConflictPolicy decides how roster records flagged HasConflict are reported.
type ConflictPolicy string

const (
	// ConflictPolicyFold reports conflicted ACTIVE records like any other
	// ACTIVE record (OK_ACTIVE).
	ConflictPolicyFold ConflictPolicy = "fold"
	// ConflictPolicyReview reports every conflicted record as CONFLICT_REVIEW
	// with LOW priority and MANUAL_REVIEW, with or without an account.
	ConflictPolicyReview ConflictPolicy = "review"
)

// ParseConflictPolicy accepts "fold" or "review" (case-insensitive); empty
// means fold.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch p := ConflictPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ConflictPolicyFold, nil
	case ConflictPolicyFold, ConflictPolicyReview:
		return p, nil
	}
	return "", fmt.Errorf("unknown conflict policy %q (want %q or %q)", s, ConflictPolicyFold, ConflictPolicyReview)
}

// DuplicateIdentifier records a directory row that replaced an earlier row
// with the same identifier. Only the last row takes part in reconciliation.
type DuplicateIdentifier struct {
	Identifier      schema.Identifier `json:"identifier"`
	ReplacedAccount string            `json:"replacedAccount"`
	ReplacedRow     int               `json:"replacedRow"`
	KeptAccount     string            `json:"keptAccount"`
	KeptRow         int               `json:"keptRow"`
}
