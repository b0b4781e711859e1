package compare

import (
	"sort"
	"time"
)

// ChartPoint is one bar segment on the time axis.
type ChartPoint struct {
	Period string    `json:"period"`
	Time   time.Time `json:"time"`
	Value  int64     `json:"value"`
}

// ChartSeries is one stacked sub-category with a value at every period.
type ChartSeries struct {
	Name   string       `json:"name"`
	Points []ChartPoint `json:"points"`
}

// Chart is a renderer-agnostic feed for a stacked bar chart: an ordered
// period axis and one aligned series per sub-category. Message carries a
// user-visible note when the chart rendered empty because the underlying
// dataset could not be loaded.
type Chart struct {
	Title   string        `json:"title"`
	XLabel  string        `json:"x_label"`
	YLabel  string        `json:"y_label"`
	Stacked bool          `json:"stacked"`
	Periods []string      `json:"periods"`
	Series  []ChartSeries `json:"series"`
	Message string        `json:"message,omitempty"`
}

// BuildStackedChart arranges filtered series points into a chart feed.
// Every series carries a value for every period, zero-filled, so the
// stacks line up on a shared axis.
func BuildStackedChart(points []SeriesPoint, title, xLabel, yLabel string) *Chart {
	periodSet := make(map[Period]struct{})
	categorySet := make(map[string]struct{})
	values := make(map[Period]map[string]int64)

	for _, pt := range points {
		periodSet[pt.Period] = struct{}{}
		categorySet[pt.Category] = struct{}{}
		if values[pt.Period] == nil {
			values[pt.Period] = make(map[string]int64)
		}
		values[pt.Period][pt.Category] += pt.Count
	}

	periods := make([]Period, 0, len(periodSet))
	for p := range periodSet {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })

	categories := make([]string, 0, len(categorySet))
	for c := range categorySet {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	chart := &Chart{
		Title:   title,
		XLabel:  xLabel,
		YLabel:  yLabel,
		Stacked: true,
		Periods: make([]string, len(periods)),
		Series:  make([]ChartSeries, 0, len(categories)),
	}
	for i, p := range periods {
		chart.Periods[i] = p.Label()
	}
	for _, c := range categories {
		series := ChartSeries{Name: c, Points: make([]ChartPoint, len(periods))}
		for i, p := range periods {
			series.Points[i] = ChartPoint{
				Period: p.Label(),
				Time:   p.Time(),
				Value:  values[p][c],
			}
		}
		chart.Series = append(chart.Series, series)
	}
	return chart
}
