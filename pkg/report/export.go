package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"recon/pkg/engine"
)

// ExportSheet is the worksheet name of the exported workbook.
const ExportSheet = "Reconciliation"

// ExportHeader lists the exported columns in order.
var ExportHeader = []string{
	"Identifier",
	"Category",
	"Priority",
	"Recommended Action",
	"In Roster",
	"Has Account",
	"Account",
	"Name",
	"Description",
}

var exportColumnWidths = []float64{14, 24, 10, 20, 10, 12, 24, 30, 70}

// ExportWorkbook renders outcomes as an .xlsx workbook with a styled header
// row, one row per outcome in the given order.
func ExportWorkbook(outcomes []engine.Outcome) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(ExportSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	// Indexes shift once the default sheet is gone.
	index, err := f.GetSheetIndex(ExportSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to locate sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]any, len(ExportHeader))
	for i, h := range ExportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(ExportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(ExportHeader), 1)
	if err != nil {
		return nil, fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellStyle(ExportSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, width := range exportColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(ExportSheet, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, o := range outcomes {
		row := []any{
			string(o.Identifier),
			string(o.Category),
			string(o.Priority),
			string(o.Action),
			yesNo(o.ExistsInRoster),
			yesNo(o.HasDirectoryAccount),
			o.AccountName,
			o.DisplayName,
			o.Description,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
