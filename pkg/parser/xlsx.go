package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"recon/pkg/schema"
)

// ReadWorkbook parses the first worksheet of an .xlsx payroll workbook. The
// first row is the header; fully blank rows are dropped and the rest are
// padded or truncated to the header width.
func ReadWorkbook(r io.Reader) (*ParseResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty sheet %q: no header row found", sheets[0])
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	result := &ParseResult{
		Table:    schema.Table{Headers: headers},
		Encoding: "xlsx",
	}

	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		// GetRows omits trailing empty cells, so short rows are normal here
		// and only overlong rows are worth a warning.
		if len(row) < len(headers) {
			padded := make([]string, len(headers))
			copy(padded, row)
			row = padded
		}
		result.Table.Rows = append(result.Table.Rows, fitRow(row, len(headers), i+2, &result.Warnings))
	}

	return result, nil
}

// ReadWorkbookBytes is ReadWorkbook over an in-memory file.
func ReadWorkbookBytes(data []byte) (*ParseResult, error) {
	return ReadWorkbook(bytes.NewReader(data))
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

var (
	zipSignature = []byte("PK\x03\x04")
	oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// ErrLegacyWorkbook is returned for binary .xls (OLE2) files.
var ErrLegacyWorkbook = errors.New("legacy .xls workbooks are not supported, save the file as .xlsx")

// ReadTable parses a roster file by content: .xlsx archives go through
// ReadWorkbook, anything else is treated as delimited text.
func ReadTable(data []byte) (*ParseResult, error) {
	switch {
	case bytes.HasPrefix(data, zipSignature):
		return ReadWorkbookBytes(data)
	case bytes.HasPrefix(data, oleSignature):
		return nil, ErrLegacyWorkbook
	default:
		return ParseDelimited(data)
	}
}
