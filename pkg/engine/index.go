package engine

import (
	"recon/pkg/schema"
)

// RosterIndex provides lookup of roster records by identifier while keeping
// first-insertion order for iteration.
type RosterIndex struct {
	ByIdentifier map[schema.Identifier]*schema.RosterRecord `json:"byIdentifier"`
	Order        []schema.Identifier                        `json:"order"`
	Stats        IndexStats                                 `json:"stats"`
}

// DirectoryIndex is the directory-side counterpart of RosterIndex.
type DirectoryIndex struct {
	ByIdentifier map[schema.Identifier]*schema.DirectoryAccount `json:"byIdentifier"`
	Order        []schema.Identifier                            `json:"order"`
	Duplicates   []DuplicateIdentifier                          `json:"duplicates"`
	Stats        IndexStats                                     `json:"stats"`
}

// IndexStats contains aggregate statistics about an index.
type IndexStats struct {
	TotalRecords      int `json:"totalRecords"`
	UniqueIdentifiers int `json:"uniqueIdentifiers"`
	ActiveCount       int `json:"activeCount"`
	InactiveCount     int `json:"inactiveCount"`
	ConflictCount     int `json:"conflictCount,omitempty"`
}

// BuildRosterIndex keys roster records by identifier. A repeated identifier
// replaces the stored record but keeps its original position.
func BuildRosterIndex(records []schema.RosterRecord) *RosterIndex {
	index := &RosterIndex{
		ByIdentifier: make(map[schema.Identifier]*schema.RosterRecord, len(records)),
		Order:        make([]schema.Identifier, 0, len(records)),
	}

	for i := range records {
		rec := &records[i]
		if _, exists := index.ByIdentifier[rec.Identifier]; !exists {
			index.Order = append(index.Order, rec.Identifier)
		}
		index.ByIdentifier[rec.Identifier] = rec
	}

	index.Stats.TotalRecords = len(records)
	index.Stats.UniqueIdentifiers = len(index.Order)
	for _, id := range index.Order {
		rec := index.ByIdentifier[id]
		if rec.FinalStatus == schema.StatusInactive {
			index.Stats.InactiveCount++
		} else {
			index.Stats.ActiveCount++
		}
		if rec.HasConflict {
			index.Stats.ConflictCount++
		}
	}

	return index
}

// BuildDirectoryIndex keys accounts by identifier. Last write wins: a later
// account replaces an earlier one at the earlier one's position, and the
// replacement is recorded in Duplicates.
func BuildDirectoryIndex(accounts []schema.DirectoryAccount) *DirectoryIndex {
	index := &DirectoryIndex{
		ByIdentifier: make(map[schema.Identifier]*schema.DirectoryAccount, len(accounts)),
		Order:        make([]schema.Identifier, 0, len(accounts)),
	}

	for i := range accounts {
		acc := &accounts[i]
		if prev, exists := index.ByIdentifier[acc.Identifier]; exists {
			index.Duplicates = append(index.Duplicates, DuplicateIdentifier{
				Identifier:      acc.Identifier,
				ReplacedAccount: prev.AccountName,
				ReplacedRow:     prev.SourceRow,
				KeptAccount:     acc.AccountName,
				KeptRow:         acc.SourceRow,
			})
		} else {
			index.Order = append(index.Order, acc.Identifier)
		}
		index.ByIdentifier[acc.Identifier] = acc
	}

	index.Stats.TotalRecords = len(accounts)
	index.Stats.UniqueIdentifiers = len(index.Order)
	for _, id := range index.Order {
		if index.ByIdentifier[id].AccountStatus == schema.StatusInactive {
			index.Stats.InactiveCount++
		} else {
			index.Stats.ActiveCount++
		}
	}

	return index
}
