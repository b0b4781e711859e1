package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimscope/internal/dataset"
)

func pivotFixture(t *testing.T, rows [][]string) *Pivot {
	t.Helper()
	table := dataset.NewTable("claims",
		[]string{"data_source", "category", "claim_count"}, rows)
	agg, err := Aggregate(table, []string{"data_source", "category"}, "claim_count")
	require.NoError(t, err)
	pivot, err := agg.Pivot("category")
	require.NoError(t, err)
	return pivot
}

func TestPivotZeroFills(t *testing.T) {
	pivot := pivotFixture(t, [][]string{
		{"A", "x", "10"},
		{"A", "y", "5"},
		{"B", "x", "3"},
	})

	require.Equal(t, []string{"x", "y"}, pivot.Columns)
	require.Len(t, pivot.Rows, 2)

	assert.Equal(t, []string{"A"}, pivot.Rows[0].Key)
	assert.Equal(t, []int64{10, 5}, pivot.Rows[0].Cells)

	// B never produced y; the cell holds exactly 0 and B is not dropped.
	assert.Equal(t, []string{"B"}, pivot.Rows[1].Key)
	assert.Equal(t, []int64{3, 0}, pivot.Rows[1].Cells)
}

func TestPivotConservesTotals(t *testing.T) {
	pivot := pivotFixture(t, [][]string{
		{"A", "x", "10"},
		{"A", "y", "5"},
		{"B", "x", "3"},
	})

	assert.Equal(t, int64(15), pivot.RowTotal(0))
	assert.Equal(t, int64(3), pivot.RowTotal(1))
	assert.Equal(t, []int64{13, 5}, pivot.ColumnTotals())
}

func TestNormalizeRowsWorkedExample(t *testing.T) {
	pivot := pivotFixture(t, [][]string{
		{"A", "x", "10"},
		{"A", "y", "5"},
		{"B", "x", "3"},
	})

	percents := pivot.NormalizeRows()
	require.Len(t, percents.Rows, 2)

	a := percents.Rows[0].Cells
	assert.InDelta(t, 66.67, a[0], 0.01)
	assert.InDelta(t, 33.33, a[1], 0.01)
	assert.InDelta(t, 100, a[0]+a[1], 1e-9)

	b := percents.Rows[1].Cells
	assert.Equal(t, float64(100), b[0])
	assert.Equal(t, float64(0), b[1])
}

func TestNormalizeRowsZeroTotal(t *testing.T) {
	pivot := pivotFixture(t, [][]string{
		{"A", "x", "0"},
		{"A", "y", "0"},
		{"B", "x", "5"},
	})

	percents := pivot.NormalizeRows()
	assert.Equal(t, []float64{0, 0}, percents.Rows[0].Cells)
	assert.Equal(t, []float64{100, 0}, percents.Rows[1].Cells)
}

func TestNormalizeColumns(t *testing.T) {
	// Category rows, data sources as columns.
	table := dataset.NewTable("encounters",
		[]string{"data_source", "encounter_type", "claim_count"},
		[][]string{
			{"A", "dialysis", "40"},
			{"A", "office", "60"},
			{"B", "dialysis", "2"},
			{"B", "office", "98"},
		})
	agg, err := Aggregate(table, []string{"data_source", "encounter_type"}, "claim_count")
	require.NoError(t, err)
	pivot, err := agg.Pivot("data_source")
	require.NoError(t, err)

	percents := pivot.NormalizeColumns()
	require.Equal(t, []string{"A", "B"}, percents.Columns)

	assert.InDelta(t, 40, percents.Rows[0].Cells[0], 1e-9)
	assert.InDelta(t, 2, percents.Rows[0].Cells[1], 1e-9)
	assert.InDelta(t, 60, percents.Rows[1].Cells[0], 1e-9)
	assert.InDelta(t, 98, percents.Rows[1].Cells[1], 1e-9)

	for _, sum := range percents.ColumnSums() {
		assert.InDelta(t, 100, sum, 1e-9)
	}
}

func TestNormalizeColumnsZeroTotal(t *testing.T) {
	table := dataset.NewTable("encounters",
		[]string{"data_source", "encounter_type", "claim_count"},
		[][]string{
			{"A", "dialysis", "0"},
			{"B", "dialysis", "10"},
		})
	agg, err := Aggregate(table, []string{"data_source", "encounter_type"}, "claim_count")
	require.NoError(t, err)
	pivot, err := agg.Pivot("data_source")
	require.NoError(t, err)

	percents := pivot.NormalizeColumns()
	assert.Equal(t, float64(0), percents.Rows[0].Cells[0])
	assert.Equal(t, float64(100), percents.Rows[0].Cells[1])
}

func TestPivotUnknownColumn(t *testing.T) {
	table := dataset.NewTable("claims",
		[]string{"data_source", "category", "claim_count"},
		[][]string{{"A", "x", "1"}})
	agg, err := Aggregate(table, []string{"data_source", "category"}, "claim_count")
	require.NoError(t, err)

	_, err = agg.Pivot("period")
	assert.Error(t, err)
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "66.67%", FormatPercent(66.66666666666667))
	assert.Equal(t, "0.00%", FormatPercent(0))
	assert.Equal(t, "100.00%", FormatPercent(100))
}
