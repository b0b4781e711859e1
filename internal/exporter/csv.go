package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"claimscope/internal/config"
	"claimscope/internal/services"
)

// CSVWriter exports comparison tables as CSV.
type CSVWriter struct {
	paths *config.Paths
}

// NewCSVWriter creates a CSV exporter rooted at the configured exports
// directory.
func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths}
}

// WriteOptions configures CSV output.
type WriteOptions struct {
	// BOMPrefix adds a UTF-8 BOM so Excel recognizes the encoding.
	BOMPrefix bool
}

// WriteTable streams a comparison table to w. Display-formatted
// percentages are written; the numeric table is untouched.
func (c *CSVWriter) WriteTable(w io.Writer, table *services.ComparisonTable, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	headers, records := TableRecords(table)
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportFile writes a comparison table to a file under the exports
// directory, creating it as needed.
func (c *CSVWriter) ExportFile(fileName string, table *services.ComparisonTable) (string, error) {
	fullPath := c.resolvePath(fileName)

	slog.Info("Writing CSV export",
		slog.String("file", fileName),
		slog.String("path", fullPath),
		slog.Int("rows", len(table.Rows)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := c.WriteTable(file, table, WriteOptions{BOMPrefix: true}); err != nil {
		return "", err
	}
	return fullPath, nil
}

func (c *CSVWriter) resolvePath(fileName string) string {
	if filepath.IsAbs(fileName) {
		return fileName
	}
	return c.paths.GetExportPath(fileName)
}

// TableRecords flattens a comparison table into header and data rows
// shared by the CSV and XLSX exporters.
func TableRecords(table *services.ComparisonTable) ([]string, [][]string) {
	headers := append(append([]string{}, table.LabelColumns...), table.ValueColumns...)
	records := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		records = append(records, append(append([]string{}, row.Labels...), row.Formatted...))
	}
	return headers, records
}
