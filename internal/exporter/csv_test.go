package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimscope/internal/config"
	"claimscope/internal/services"
)

func sampleTable() *services.ComparisonTable {
	return &services.ComparisonTable{
		View:         "claim-types",
		Title:        "Claim Type Comparison",
		LabelColumns: []string{"Data Source"},
		ValueColumns: []string{"Institutional", "Professional", "Total"},
		Rows: []services.ComparisonRow{
			{
				Labels:    []string{"Synthetic"},
				Values:    []float64{50, 50, 100},
				Formatted: []string{"50.00%", "50.00%", "100.00%"},
			},
			{
				Labels:    []string{"LDS"},
				Values:    []float64{20, 80, 100},
				Formatted: []string{"20.00%", "80.00%", "100.00%"},
			},
		},
	}
}

func TestTableRecords(t *testing.T) {
	headers, records := TableRecords(sampleTable())

	assert.Equal(t, []string{"Data Source", "Institutional", "Professional", "Total"}, headers)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Synthetic", "50.00%", "50.00%", "100.00%"}, records[0])
	assert.Equal(t, []string{"LDS", "20.00%", "80.00%", "100.00%"}, records[1])
}

func TestWriteTableCSV(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&config.Paths{ExportsDir: t.TempDir()})

	err := w.WriteTable(&buf, sampleTable(), WriteOptions{BOMPrefix: true})
	require.NoError(t, err)

	out := buf.Bytes()
	assert.True(t, bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}))

	lines := strings.Split(strings.TrimSpace(string(out[3:])), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Data Source,Institutional,Professional,Total", lines[0])
	assert.Equal(t, "Synthetic,50.00%,50.00%,100.00%", lines[1])
}

func TestExportFile(t *testing.T) {
	exportsDir := t.TempDir()
	w := NewCSVWriter(&config.Paths{ExportsDir: exportsDir})

	path, err := w.ExportFile("claim-types.csv", sampleTable())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(exportsDir, "claim-types.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "LDS,20.00%")
}

func TestWriteTableXLSX(t *testing.T) {
	var buf bytes.Buffer
	x := NewXLSXWriter()

	err := x.WriteTable(&buf, sampleTable())
	require.NoError(t, err)

	// XLSX files are zip archives.
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PK")))
	assert.Greater(t, buf.Len(), 1000)
}
