package engine

import (
	"strings"

	"go.uber.org/zap"

	"recon/pkg/schema"
)

// RosterIngestor turns a payroll table into one RosterRecord per identifier.
type RosterIngestor struct {
	logger *zap.Logger
}

// NewRosterIngestor creates a roster ingestor. A nil logger discards output.
func NewRosterIngestor(logger *zap.Logger) *RosterIngestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterIngestor{logger: logger.Named("roster")}
}

// rosterAccumulator collects every row seen for one identifier.
type rosterAccumulator struct {
	record   schema.RosterRecord
	statuses map[schema.Status]bool
}

// Ingest collapses payroll rows by identifier:
//  1. Locate the identifier column (required) and status column (optional)
//  2. Skip rows whose identifier cannot be extracted
//  3. First sight of an identifier captures name, department and title
//  4. Every row appends its status and bumps the occurrence count
//  5. Finalize: ACTIVE if any row was ACTIVE; conflict only when ACTIVE won
//     over at least one INACTIVE row
//
// Records are returned in first-sight order.
func (ri *RosterIngestor) Ingest(t schema.Table) ([]schema.RosterRecord, error) {
	idCol := schema.DetectIdentifierColumn(t)
	if idCol < 0 {
		return nil, &SchemaError{Source: "roster", Field: schema.FieldIdentifier, Headers: t.Headers}
	}
	statusCol := schema.DetectStatusColumn(t)

	ri.logger.Debug("roster columns detected",
		zap.String("identifier", t.Headers[idCol]),
		zap.Int("status_index", statusCol),
	)

	var order []schema.Identifier
	accs := make(map[schema.Identifier]*rosterAccumulator)
	skipped := 0

	for row := range t.Rows {
		id, ok := schema.ExtractIdentifier(t.Cell(row, idCol))
		if !ok {
			skipped++
			continue
		}

		acc, seen := accs[id]
		if !seen {
			acc = &rosterAccumulator{
				record: schema.RosterRecord{
					Identifier:  id,
					DisplayName: schema.UnknownName,
				},
				statuses: make(map[schema.Status]bool, 2),
			}
			if name, ok := schema.FirstValue(t, row, schema.EmployeeNameRule); ok {
				acc.record.DisplayName = name
			}
			acc.record.Department, _ = schema.FirstValue(t, row, schema.DepartmentRule)
			acc.record.Title, _ = schema.FirstValue(t, row, schema.TitleRule)
			accs[id] = acc
			order = append(order, id)
		}

		status := RosterStatus(t.Cell(row, statusCol))
		acc.record.StatusesSeen = append(acc.record.StatusesSeen, status)
		acc.statuses[status] = true
		acc.record.OccurrenceCount++
	}

	records := make([]schema.RosterRecord, 0, len(order))
	for _, id := range order {
		acc := accs[id]
		rec := acc.record
		if acc.statuses[schema.StatusActive] {
			rec.FinalStatus = schema.StatusActive
			rec.HasConflict = len(acc.statuses) > 1
		} else {
			rec.FinalStatus = schema.StatusInactive
		}

		if rec.OccurrenceCount > 1 {
			ri.logger.Debug("duplicate roster identifier collapsed",
				zap.String("identifier", string(rec.Identifier)),
				zap.Int("occurrences", rec.OccurrenceCount),
				zap.String("final_status", string(rec.FinalStatus)),
				zap.Bool("conflict", rec.HasConflict),
			)
		}
		records = append(records, rec)
	}

	ri.logger.Info("roster ingested",
		zap.Int("unique_employees", len(records)),
		zap.Int("rows", len(t.Rows)),
		zap.Int("rows_without_identifier", skipped),
	)

	return records, nil
}

// RosterStatus classifies a payroll status cell. INACTIV is tested before
// ACTIV because every "INACTIVO" also contains "ACTIVO". Anything else,
// including an empty cell, counts as ACTIVE.
func RosterStatus(value string) schema.Status {
	v := strings.ToUpper(value)
	switch {
	case strings.Contains(v, "INACTIV"):
		return schema.StatusInactive
	case strings.Contains(v, "ACTIV"):
		return schema.StatusActive
	}
	return schema.StatusActive
}
