package compare

import (
	"fmt"
	"sort"
	"time"

	"claimscope/internal/dataset"
	apperrors "claimscope/internal/errors"
)

// Period is a calendar year-month bucket.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a compact numeric year-month code such as "202001".
// The format is strictly six digits with month 01-12; anything else is
// rejected rather than misparsed.
func ParsePeriod(code string) (Period, error) {
	if len(code) != 6 {
		return Period{}, apperrors.ErrMalformedPeriod(code, "want 6-digit YYYYMM")
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return Period{}, apperrors.ErrMalformedPeriod(code, "want 6-digit YYYYMM")
		}
	}
	year := int(code[0]-'0')*1000 + int(code[1]-'0')*100 + int(code[2]-'0')*10 + int(code[3]-'0')
	month := int(code[4]-'0')*10 + int(code[5]-'0')
	if month < 1 || month > 12 {
		return Period{}, apperrors.ErrMalformedPeriod(code, "month out of range")
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// Time returns the first instant of the period's month in UTC.
func (p Period) Time() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Label formats the period for chart axes, e.g. "Jan-2020".
func (p Period) Label() string {
	return p.Time().Format("Jan-2006")
}

// Code returns the compact numeric form, e.g. "202001".
func (p Period) Code() string {
	return fmt.Sprintf("%04d%02d", p.Year, int(p.Month))
}

// Before reports whether p precedes q.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

// SeriesPoint is one (period, sub-category) data point of a stacked
// time-axis chart.
type SeriesPoint struct {
	Period   Period
	Category string
	Count    int64
}

// FilterSeries selects the rows matching every filter value, sums counts
// per (period, category) pair, and returns the points ordered by period
// ascending then category. Malformed period codes fail the whole call.
func FilterSeries(t *dataset.Table, filters map[string]string, periodKey, categoryKey, valueKey string) ([]SeriesPoint, error) {
	cols := []string{periodKey, categoryKey, valueKey}
	for k := range filters {
		cols = append(cols, k)
	}
	if err := t.RequireColumns(cols...); err != nil {
		return nil, err
	}

	type pointKey struct {
		period   Period
		category string
	}
	sums := make(map[pointKey]int64)

	for row := 0; row < t.Len(); row++ {
		matched := true
		for col, want := range filters {
			if t.Value(row, col) != want {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}

		period, err := ParsePeriod(t.Value(row, periodKey))
		if err != nil {
			return nil, err
		}
		count, err := t.IntValue(row, valueKey)
		if err != nil {
			return nil, err
		}
		sums[pointKey{period: period, category: t.Value(row, categoryKey)}] += count
	}

	points := make([]SeriesPoint, 0, len(sums))
	for k, count := range sums {
		points = append(points, SeriesPoint{Period: k.period, Category: k.category, Count: count})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Period != points[j].Period {
			return points[i].Period.Before(points[j].Period)
		}
		return points[i].Category < points[j].Category
	})
	return points, nil
}
