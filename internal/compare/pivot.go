package compare

import (
	"fmt"
	"sort"

	"github.com/cockroachdb/apd/v3"
)

// decCtx carries enough precision that percentage division introduces no
// observable error before display rounding.
var decCtx = apd.BaseContext.WithPrecision(34)

var hundred = apd.New(100, 0)

// Pivot is a wide table: one grouping dimension unstacked into columns.
// Every (row, column) combination absent from the aggregation holds
// exactly 0, so no data source or category is ever dropped.
type Pivot struct {
	// RowKeys names the remaining grouping columns, in aggregation order.
	RowKeys []string
	// Columns holds the distinct pivoted values, sorted.
	Columns []string
	Rows    []PivotRow
}

// PivotRow is one wide row; Cells aligns with Pivot.Columns.
type PivotRow struct {
	Key   []string
	Cells []int64
}

// Pivot unstacks pivotColumn into columns. The remaining group keys, in
// their original order, identify rows.
func (a *Aggregation) Pivot(pivotColumn string) (*Pivot, error) {
	pivotIdx := a.keyIndex(pivotColumn)
	if pivotIdx < 0 {
		return nil, fmt.Errorf("pivot column %q is not a group key", pivotColumn)
	}

	rowKeys := make([]string, 0, len(a.GroupKeys)-1)
	for i, k := range a.GroupKeys {
		if i != pivotIdx {
			rowKeys = append(rowKeys, k)
		}
	}

	columnSet := make(map[string]struct{})
	rowIndex := make(map[string]int)
	var rows []PivotRow
	type cell struct {
		row    int
		column string
		count  int64
	}
	var cells []cell

	for _, gr := range a.Rows {
		column := gr.Key[pivotIdx]
		columnSet[column] = struct{}{}

		key := make([]string, 0, len(rowKeys))
		for i, v := range gr.Key {
			if i != pivotIdx {
				key = append(key, v)
			}
		}
		mapKey := joinKey(key)
		idx, ok := rowIndex[mapKey]
		if !ok {
			idx = len(rows)
			rowIndex[mapKey] = idx
			rows = append(rows, PivotRow{Key: key})
		}
		cells = append(cells, cell{row: idx, column: column, count: gr.Count})
	}

	columns := make([]string, 0, len(columnSet))
	for c := range columnSet {
		columns = append(columns, c)
	}
	sort.Strings(columns)
	columnIdx := make(map[string]int, len(columns))
	for i, c := range columns {
		columnIdx[c] = i
	}

	for i := range rows {
		rows[i].Cells = make([]int64, len(columns))
	}
	for _, c := range cells {
		rows[c.row].Cells[columnIdx[c.column]] += c.count
	}

	sort.Slice(rows, func(i, j int) bool {
		return joinKey(rows[i].Key) < joinKey(rows[j].Key)
	})

	return &Pivot{RowKeys: rowKeys, Columns: columns, Rows: rows}, nil
}

// RowTotal returns the exact sum across one row's cells. It equals the
// raw grouped total for that row key by construction.
func (p *Pivot) RowTotal(row int) int64 {
	var total int64
	for _, v := range p.Rows[row].Cells {
		total += v
	}
	return total
}

// ColumnTotals returns the exact per-column sums, aligned with Columns.
func (p *Pivot) ColumnTotals() []int64 {
	totals := make([]int64, len(p.Columns))
	for _, row := range p.Rows {
		for i, v := range row.Cells {
			totals[i] += v
		}
	}
	return totals
}

// PercentRow is one row of a normalized table; Cells align with the
// parent's Columns.
type PercentRow struct {
	Key   []string
	Cells []float64
}

// PercentPivot is a Pivot with every cell expressed as a percentage of
// its own data source's total. Values are numeric; display formatting is
// layered on top and never mutates them.
type PercentPivot struct {
	RowKeys []string
	Columns []string
	Rows    []PercentRow
}

// NormalizeRows divides each cell by its row's total and multiplies by
// 100. Used when the data source is the row axis, so each source is its
// own percentage base. A zero row total yields 0 for every cell.
func (p *Pivot) NormalizeRows() *PercentPivot {
	out := &PercentPivot{
		RowKeys: p.RowKeys,
		Columns: p.Columns,
		Rows:    make([]PercentRow, len(p.Rows)),
	}
	for i, row := range p.Rows {
		total := p.RowTotal(i)
		cells := make([]float64, len(row.Cells))
		for j, v := range row.Cells {
			cells[j] = percentOf(v, total)
		}
		out.Rows[i] = PercentRow{Key: row.Key, Cells: cells}
	}
	return out
}

// NormalizeColumns divides each cell by its column's total and multiplies
// by 100. Used when the data source is the column axis. A zero column
// total yields 0 for every cell in that column.
func (p *Pivot) NormalizeColumns() *PercentPivot {
	totals := p.ColumnTotals()
	out := &PercentPivot{
		RowKeys: p.RowKeys,
		Columns: p.Columns,
		Rows:    make([]PercentRow, len(p.Rows)),
	}
	for i, row := range p.Rows {
		cells := make([]float64, len(row.Cells))
		for j, v := range row.Cells {
			cells[j] = percentOf(v, totals[j])
		}
		out.Rows[i] = PercentRow{Key: row.Key, Cells: cells}
	}
	return out
}

// ColumnSums returns the per-column sums of the percentages. For a
// column-normalized table with non-zero totals each sum is 100.
func (p *PercentPivot) ColumnSums() []float64 {
	sums := make([]float64, len(p.Columns))
	for _, row := range p.Rows {
		for i, v := range row.Cells {
			sums[i] += v
		}
	}
	return sums
}

// percentOf computes part/total*100 with exact decimal arithmetic. A zero
// total is a defined edge case yielding 0, never a division fault.
func percentOf(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	var num, den, res apd.Decimal
	num.SetInt64(part)
	den.SetInt64(total)
	if _, err := decCtx.Quo(&res, &num, &den); err != nil {
		return 0
	}
	if _, err := decCtx.Mul(&res, &res, hundred); err != nil {
		return 0
	}
	f, err := res.Float64()
	if err != nil {
		return 0
	}
	return f
}
