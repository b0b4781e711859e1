package compare

import (
	"sort"

	"claimscope/internal/dataset"
)

// GroupedRow is one distinct group-key tuple with its exact summed count.
type GroupedRow struct {
	Key   []string
	Count int64
}

// Aggregation is the result of grouping a table. Rows are ordered
// lexicographically by key tuple so output is deterministic regardless of
// input row order.
type Aggregation struct {
	GroupKeys []string
	ValueKey  string
	Rows      []GroupedRow
}

// Aggregate groups the table's rows by the tuple of groupKeys and sums
// valueKey within each group using exact integer addition. Duplicate key
// tuples in the source are summed; every observed tuple yields exactly
// one output row.
func Aggregate(t *dataset.Table, groupKeys []string, valueKey string) (*Aggregation, error) {
	cols := append(append([]string{}, groupKeys...), valueKey)
	if err := t.RequireColumns(cols...); err != nil {
		return nil, err
	}

	type group struct {
		key   []string
		count int64
	}
	groups := make(map[string]*group)
	order := make([]string, 0)

	for row := 0; row < t.Len(); row++ {
		key := make([]string, len(groupKeys))
		for i, k := range groupKeys {
			key[i] = t.Value(row, k)
		}
		count, err := t.IntValue(row, valueKey)
		if err != nil {
			return nil, err
		}

		mapKey := joinKey(key)
		g, ok := groups[mapKey]
		if !ok {
			g = &group{key: key}
			groups[mapKey] = g
			order = append(order, mapKey)
		}
		g.count += count
	}

	sort.Strings(order)
	rows := make([]GroupedRow, 0, len(order))
	for _, k := range order {
		g := groups[k]
		rows = append(rows, GroupedRow{Key: g.key, Count: g.count})
	}

	return &Aggregation{
		GroupKeys: append([]string{}, groupKeys...),
		ValueKey:  valueKey,
		Rows:      rows,
	}, nil
}

// keyIndex returns the position of the named group key, or -1.
func (a *Aggregation) keyIndex(name string) int {
	for i, k := range a.GroupKeys {
		if k == name {
			return i
		}
	}
	return -1
}

// joinKey builds a map key from a tuple, separated by the ASCII unit
// separator so distinct tuples never collide.
func joinKey(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "\x1f"
		}
		out += p
	}
	return out
}
