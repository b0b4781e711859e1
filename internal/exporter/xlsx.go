package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"claimscope/internal/services"
)

const sheetName = "Comparison"

// XLSXWriter exports comparison tables as Excel workbooks.
type XLSXWriter struct{}

// NewXLSXWriter creates the Excel exporter.
func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{}
}

// WriteTable renders the table into a single-sheet workbook and streams
// it to w. Labels are text cells; percentages are numeric cells with a
// percent display format so spreadsheet formulas still work on them.
func (x *XLSXWriter) WriteTable(w io.Writer, table *services.ComparisonTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	percentStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: ptr(`0.00"%"`)})
	if err != nil {
		return fmt.Errorf("failed to create percent style: %w", err)
	}

	headers := append(append([]string{}, table.LabelColumns...), table.ValueColumns...)
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, row := range table.Rows {
		rowNum := i + 2
		col := 1
		for _, label := range row.Labels {
			cell, _ := excelize.CoordinatesToCellName(col, rowNum)
			if err := f.SetCellValue(sheetName, cell, label); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i, err)
			}
			col++
		}
		for _, v := range row.Values {
			cell, _ := excelize.CoordinatesToCellName(col, rowNum)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i, err)
			}
			f.SetCellStyle(sheetName, cell, cell, percentStyle)
			col++
		}
	}

	if len(headers) > 0 {
		last, _ := excelize.ColumnNumberToName(len(headers))
		f.SetColWidth(sheetName, "A", last, 18)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func ptr(s string) *string { return &s }
