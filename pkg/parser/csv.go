package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"recon/pkg/schema"
)

// ParseWarning represents a non-fatal issue encountered during parsing.
type ParseWarning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ParseResult contains the parsed table alongside any warnings.
type ParseResult struct {
	Table     schema.Table   `json:"table"`
	Delimiter rune           `json:"delimiter"`
	Encoding  string         `json:"encoding"`
	Warnings  []ParseWarning `json:"warnings"`
}

// delimiterCandidates are tested against the first line in this order.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

// DetectDelimiter inspects only the first line of data and returns the first
// candidate delimiter (comma, semicolon, tab, pipe) present in it. Defaults
// to comma.
func DetectDelimiter(data []byte) rune {
	line, _, _ := bufio.NewReader(bytes.NewReader(data)).ReadLine()
	for _, d := range delimiterCandidates {
		if bytes.ContainsRune(line, d) {
			return d
		}
	}
	return ','
}

// ParseDelimitedReader reads all of r and parses it with ParseDelimited.
func ParseDelimitedReader(r io.Reader) (*ParseResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return ParseDelimited(data)
}

// ParseDelimited decodes data to UTF-8, detects the delimiter from the first
// line, and parses it into a table. Rows with too few cells are padded and
// rows with too many are truncated; both produce a warning. A header with no
// data rows yields an empty table, not an error.
func ParseDelimited(data []byte) (*ParseResult, error) {
	decoded, enc, err := DetectAndDecode(data)
	if err != nil {
		return nil, fmt.Errorf("encoding detection failed: %w", err)
	}

	delim := DetectDelimiter(decoded)

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = delim
	// Row width is fixed up by fitRow.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file: no header row found")
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	result := &ParseResult{
		Table:     schema.Table{Headers: headers},
		Delimiter: delim,
		Encoding:  enc,
	}
	headerCount := len(headers)
	rowNum := 1 // header is row 1

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++

		if err != nil {
			result.Warnings = append(result.Warnings, ParseWarning{
				Row:     rowNum,
				Message: fmt.Sprintf("parse error: %v", err),
			})
			continue
		}

		result.Table.Rows = append(result.Table.Rows, fitRow(row, headerCount, rowNum, &result.Warnings))
	}

	return result, nil
}

// fitRow pads or truncates row to width cells.
func fitRow(row []string, width, rowNum int, warnings *[]ParseWarning) []string {
	switch {
	case len(row) < width:
		*warnings = append(*warnings, ParseWarning{
			Row:     rowNum,
			Message: fmt.Sprintf("row has %d columns, expected %d; padding with empty values", len(row), width),
		})
		padded := make([]string, width)
		copy(padded, row)
		return padded
	case len(row) > width:
		*warnings = append(*warnings, ParseWarning{
			Row:     rowNum,
			Message: fmt.Sprintf("row has %d columns, expected %d; truncating extra columns", len(row), width),
		})
		return row[:width]
	}
	return row
}
