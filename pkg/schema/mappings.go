package schema

import (
	"strings"
)

// Field names the attribute a column rule locates.
type Field string

const (
	FieldIdentifier    Field = "identifier"
	FieldRosterStatus  Field = "rosterStatus"
	FieldAccountStatus Field = "accountStatus"
	FieldUsername      Field = "username"
	FieldEmployeeName  Field = "employeeName"
	FieldDepartment    Field = "department"
	FieldTitle         Field = "title"
	FieldFullName      Field = "fullName"
	FieldEmail         Field = "email"
)

// ColumnRule matches a column whose folded header contains any of Substrings.
type ColumnRule struct {
	Field      Field
	Substrings []string
}

// Vocabularies for header matching. Substrings are compared against the
// lowercased, accent-free header.
var (
	IdentifierRule    = ColumnRule{FieldIdentifier, []string{"rut", "documento", "cedula", "dni", "identificacion"}}
	RosterStatusRule  = ColumnRule{FieldRosterStatus, []string{"estado", "status", "situacion", "activo", "inactivo"}}
	AccountStatusRule = ColumnRule{FieldAccountStatus, []string{"estado", "status", "enabled", "disabled", "active"}}
	UsernameRule      = ColumnRule{FieldUsername, []string{"usuario", "user", "username", "samaccountname", "login"}}
	EmployeeNameRule  = ColumnRule{FieldEmployeeName, []string{"nombre", "name", "empleado", "persona", "fullname"}}
	DepartmentRule    = ColumnRule{FieldDepartment, []string{"departamento", "dpto", "depto"}}
	TitleRule         = ColumnRule{FieldTitle, []string{"cargo", "puesto", "position"}}
	FullNameRule      = ColumnRule{FieldFullName, []string{"nombre", "name", "displayname"}}
	EmailRule         = ColumnRule{FieldEmail, []string{"email", "mail", "correo"}}
)

// Content sampling bounds for identifier detection.
const (
	sampleSize       = 5
	sampleMinMatches = 3
)

// Matches reports whether header satisfies the rule.
func (r ColumnRule) Matches(header string) bool {
	folded := foldHeader(header)
	for _, sub := range r.Substrings {
		if strings.Contains(folded, sub) {
			return true
		}
	}
	return false
}

// DetectByName returns the index of the first column, in table order, whose
// header matches the rule, or -1.
func DetectByName(t Table, rule ColumnRule) int {
	for i, h := range t.Headers {
		if rule.Matches(h) {
			return i
		}
	}
	return -1
}

// DetectIdentifierColumn locates the identifier column:
//  1. Header name match against IdentifierRule
//  2. Content sampling: the first column where at least 3 of its first 5
//     non-empty cells contain an extractable identifier
//  3. No match -> -1
func DetectIdentifierColumn(t Table) int {
	if col := DetectByName(t, IdentifierRule); col >= 0 {
		return col
	}

	for col := range t.Headers {
		matches := 0
		for _, v := range sampleColumn(t, col, sampleSize) {
			if _, ok := ExtractIdentifier(v); ok {
				matches++
			}
		}
		if matches >= sampleMinMatches {
			return col
		}
	}

	return -1
}

// DetectIdentifierColumnByName is DetectIdentifierColumn without the content
// sampling fallback.
func DetectIdentifierColumnByName(t Table) int {
	return DetectByName(t, IdentifierRule)
}

// DetectStatusColumn locates the payroll status column, or -1.
func DetectStatusColumn(t Table) int {
	return DetectByName(t, RosterStatusRule)
}

// DetectUsernameColumn locates the account name column. When no header
// matches, the first column is used; -1 only for a table without columns.
func DetectUsernameColumn(t Table) int {
	if col := DetectByName(t, UsernameRule); col >= 0 {
		return col
	}
	if len(t.Headers) > 0 {
		return 0
	}
	return -1
}

// FirstValue returns the value of the first column, in table order, whose
// header matches the rule and whose cell in row is non-empty.
func FirstValue(t Table, row int, rule ColumnRule) (string, bool) {
	for col, h := range t.Headers {
		if !rule.Matches(h) {
			continue
		}
		if v := t.Cell(row, col); v != "" {
			return v, true
		}
	}
	return "", false
}

// sampleColumn returns up to n non-empty cells from the top of a column.
func sampleColumn(t Table, col, n int) []string {
	sample := make([]string, 0, n)
	for row := range t.Rows {
		if len(sample) == n {
			break
		}
		if v := t.Cell(row, col); v != "" {
			sample = append(sample, v)
		}
	}
	return sample
}
