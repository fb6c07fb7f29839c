package schema

// Status is the activity state of a payroll employee or a directory account.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// UnknownName is the display name used when no name column has a value for a row.
const UnknownName = "(name not found)"

// RosterRecord represents one unique identifier from the payroll roster after
// duplicate rows have been collapsed.
type RosterRecord struct {
	Identifier      Identifier `json:"identifier"`
	DisplayName     string     `json:"displayName"`
	Department      string     `json:"department,omitempty"`
	Title           string     `json:"title,omitempty"`
	FinalStatus     Status     `json:"finalStatus"`
	HasConflict     bool       `json:"hasConflict"`
	OccurrenceCount int        `json:"occurrenceCount"`
	StatusesSeen    []Status   `json:"statusesSeen"`
}

// DirectoryAccount represents one account row from the directory export that
// yielded an identifier.
type DirectoryAccount struct {
	Identifier    Identifier `json:"identifier"`
	AccountName   string     `json:"accountName"`
	FullName      string     `json:"fullName,omitempty"`
	Email         string     `json:"email,omitempty"`
	AccountStatus Status     `json:"accountStatus"`
	SourceRow     int        `json:"sourceRow"`
}

// Table is a parsed tabular source. Headers keep their source order, which
// the column detectors rely on for first-match-wins.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Cell returns the trimmed value at row, col, or "" when out of range.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return trimCell(r[col])
}

// Column returns every value of column col in row order.
func (t Table) Column(col int) []string {
	values := make([]string, len(t.Rows))
	for i := range t.Rows {
		values[i] = t.Cell(i, col)
	}
	return values
}
