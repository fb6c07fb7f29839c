package engine

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"recon/pkg/parser"
	"recon/pkg/schema"
)

// Account status tokens, matched as substrings of the uppercased cell.
// Active tokens are always tested first.
var (
	activeAccountTokens   = []string{"ACTIV", "ENABLED", "TRUE", "1", "SI", "YES"}
	inactiveAccountTokens = []string{"INACTIV", "DISABLED", "FALSE", "0", "NO"}
)

// DirectoryIngestor turns a directory-service export into account records.
type DirectoryIngestor struct {
	logger *zap.Logger
}

// NewDirectoryIngestor creates a directory ingestor. A nil logger discards output.
func NewDirectoryIngestor(logger *zap.Logger) *DirectoryIngestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryIngestor{logger: logger.Named("directory")}
}

// Ingest parses a delimited export (delimiter taken from the first line) and
// returns one account per row with a recoverable identifier.
func (di *DirectoryIngestor) Ingest(r io.Reader) ([]schema.DirectoryAccount, error) {
	res, err := parser.ParseDelimitedReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse directory export: %w", err)
	}
	for _, w := range res.Warnings {
		di.logger.Warn("directory export row", zap.Int("row", w.Row), zap.String("warning", w.Message))
	}
	di.logger.Debug("directory export parsed",
		zap.String("delimiter", string(res.Delimiter)),
		zap.String("encoding", res.Encoding),
	)
	return di.IngestTable(res.Table)
}

// IngestTable extracts accounts from an already parsed table:
//  1. Locate the username column (required) and identifier column by name
//  2. Identifier from the identifier column, else from the account name
//     with a synthetic "-0" check character
//  3. Rows yielding no identifier are dropped
//
// Duplicate identifiers are kept here; they collapse in the reconciler.
func (di *DirectoryIngestor) IngestTable(t schema.Table) ([]schema.DirectoryAccount, error) {
	userCol := schema.DetectUsernameColumn(t)
	if userCol < 0 {
		return nil, &SchemaError{Source: "directory", Field: schema.FieldUsername, Headers: t.Headers}
	}
	idCol := schema.DetectIdentifierColumnByName(t)

	accounts := make([]schema.DirectoryAccount, 0, len(t.Rows))
	dropped, synthesized := 0, 0

	for row := range t.Rows {
		username := t.Cell(row, userCol)

		id, ok := schema.Identifier(""), false
		if idCol >= 0 {
			id, ok = schema.ExtractIdentifier(t.Cell(row, idCol))
		}
		if !ok {
			id, ok = schema.IdentifierFromUsername(username)
			if ok {
				synthesized++
			}
		}
		if !ok {
			dropped++
			continue
		}

		acc := schema.DirectoryAccount{
			Identifier:    id,
			AccountName:   username,
			AccountStatus: accountStatus(t, row),
			SourceRow:     row + 2, // 1-indexed, after the header
		}
		acc.FullName, _ = schema.FirstValue(t, row, schema.FullNameRule)
		acc.Email, _ = schema.FirstValue(t, row, schema.EmailRule)
		accounts = append(accounts, acc)
	}

	di.logger.Info("directory ingested",
		zap.Int("accounts", len(accounts)),
		zap.Int("rows", len(t.Rows)),
		zap.Int("rows_without_identifier", dropped),
		zap.Int("identifiers_from_username", synthesized),
	)

	return accounts, nil
}

// accountStatus walks the status-like columns in table order and returns the
// first classification that matches; a column whose value matches neither
// token list falls through to the next. Defaults to ACTIVE.
func accountStatus(t schema.Table, row int) schema.Status {
	for col, h := range t.Headers {
		if !schema.AccountStatusRule.Matches(h) {
			continue
		}
		v := strings.ToUpper(t.Cell(row, col))
		if v == "" {
			continue
		}
		if containsAny(v, activeAccountTokens) {
			return schema.StatusActive
		}
		if containsAny(v, inactiveAccountTokens) {
			return schema.StatusInactive
		}
	}
	return schema.StatusActive
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
