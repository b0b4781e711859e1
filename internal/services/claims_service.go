package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"claimscope/internal/compare"
	"claimscope/internal/config"
	"claimscope/internal/dataset"
	apperrors "claimscope/internal/errors"
	"claimscope/internal/infrastructure"
)

// View titles shown above each table or chart.
const (
	TitleClaimTypes        = "Claim Type Comparison"
	TitleServiceCategories = "Service Category Comparison"
	TitleEncounters        = "Encounter Comparison"
)

// ComparisonRow is one row of a rendered comparison table. Values holds
// the numeric percentages; Formatted holds the display strings. The two
// are separate so formatting never feeds later computation.
type ComparisonRow struct {
	Labels    []string  `json:"labels"`
	Values    []float64 `json:"values"`
	Formatted []string  `json:"formatted"`
}

// ComparisonTable is the JSON shape of one comparison view.
type ComparisonTable struct {
	View         string          `json:"view"`
	Title        string          `json:"title"`
	LabelColumns []string        `json:"label_columns"`
	ValueColumns []string        `json:"value_columns"`
	Rows         []ComparisonRow `json:"rows"`
	// Message carries a user-visible load problem; the table is empty
	// and the view degrades instead of failing.
	Message string `json:"message,omitempty"`
}

// ViewDescriptor describes one view for the views index, including the
// filter values a dashboard can offer.
type ViewDescriptor struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	TablePath string       `json:"table_path"`
	ChartPath string       `json:"chart_path,omitempty"`
	Filters   []ViewFilter `json:"filters,omitempty"`
}

// ViewFilter is one selectable filter with its observed values.
type ViewFilter struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// ClaimsService computes the comparison views from the loaded datasets.
// Every call recomputes fully from the cached raw table; there is no
// derived state between requests.
type ClaimsService struct {
	loader  *dataset.Loader
	labels  *compare.LabelRegistry
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// NewClaimsService creates the view computation service.
func NewClaimsService(loader *dataset.Loader, logger *slog.Logger) *ClaimsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClaimsService{
		loader: loader,
		labels: compare.NewLabelRegistry(),
		logger: logger,
	}
}

// SetMetrics wires the view computation instruments. Optional.
func (s *ClaimsService) SetMetrics(m *infrastructure.BusinessMetrics) {
	s.metrics = m
}

// ClaimTypeTable computes the claim type comparison: one row per data
// source, claim types as columns, each source normalized to its own 100%.
func (s *ClaimsService) ClaimTypeTable(ctx context.Context) (*ComparisonTable, error) {
	defer s.observe(ctx, config.ViewClaimTypes)()

	table, loadErr := s.loader.Load(ctx, config.DatasetClaimTypes)
	if loadErr != nil {
		return s.degraded(ctx, config.ViewClaimTypes, TitleClaimTypes, loadErr), nil
	}

	agg, err := compare.Aggregate(table,
		[]string{config.ColumnDataSource, config.ColumnClaimType}, config.ColumnClaimCount)
	if err != nil {
		return nil, s.classify(ctx, config.ViewClaimTypes, TitleClaimTypes, err)
	}
	pivot, err := agg.Pivot(config.ColumnClaimType)
	if err != nil {
		return nil, err
	}
	percents := pivot.NormalizeRows()

	out := &ComparisonTable{
		View:         config.ViewClaimTypes,
		Title:        TitleClaimTypes,
		LabelColumns: []string{"Data Source"},
	}
	for _, c := range percents.Columns {
		out.ValueColumns = append(out.ValueColumns, s.labels.ClaimType(c))
	}
	out.ValueColumns = append(out.ValueColumns, "Total")

	for i, row := range percents.Rows {
		values := append([]float64{}, row.Cells...)
		if pivot.RowTotal(i) > 0 {
			values = append(values, 100)
		} else {
			values = append(values, 0)
		}
		out.Rows = append(out.Rows, ComparisonRow{
			Labels:    []string{s.labels.DataSource(row.Key[0])},
			Values:    values,
			Formatted: formatAll(values),
		})
	}
	return out, nil
}

// ServiceCategoryTable computes the service category comparison,
// transposed so categories are rows and data sources are columns.
func (s *ClaimsService) ServiceCategoryTable(ctx context.Context) (*ComparisonTable, error) {
	defer s.observe(ctx, config.ViewServiceCategories)()

	table, loadErr := s.loader.Load(ctx, config.DatasetServiceCategories)
	if loadErr != nil {
		return s.degraded(ctx, config.ViewServiceCategories, TitleServiceCategories, loadErr), nil
	}

	agg, err := compare.Aggregate(table,
		[]string{config.ColumnDataSource, config.ColumnServiceCategory1}, config.ColumnClaimCount)
	if err != nil {
		return nil, s.classify(ctx, config.ViewServiceCategories, TitleServiceCategories, err)
	}
	pivot, err := agg.Pivot(config.ColumnServiceCategory1)
	if err != nil {
		return nil, err
	}
	percents := pivot.NormalizeRows()

	out := &ComparisonTable{
		View:         config.ViewServiceCategories,
		Title:        TitleServiceCategories,
		LabelColumns: []string{"Service Category"},
	}
	for _, row := range percents.Rows {
		out.ValueColumns = append(out.ValueColumns, s.labels.DataSource(row.Key[0]))
	}

	// Transposed: one output row per category, one column per source.
	for j, category := range percents.Columns {
		values := make([]float64, len(percents.Rows))
		for i, row := range percents.Rows {
			values[i] = row.Cells[j]
		}
		out.Rows = append(out.Rows, ComparisonRow{
			Labels:    []string{s.labels.ServiceCategory(category)},
			Values:    values,
			Formatted: formatAll(values),
		})
	}
	totals := make([]float64, len(percents.Rows))
	for i := range percents.Rows {
		if pivot.RowTotal(i) > 0 {
			totals[i] = 100
		}
	}
	out.Rows = append(out.Rows, ComparisonRow{
		Labels:    []string{"Total"},
		Values:    totals,
		Formatted: formatAll(totals),
	})
	return out, nil
}

// EncounterTable computes the encounter comparison: rows per (encounter
// group, encounter type), data sources as columns each normalized
// against its own column total, with a Total row appended.
func (s *ClaimsService) EncounterTable(ctx context.Context) (*ComparisonTable, error) {
	defer s.observe(ctx, config.ViewEncounters)()

	table, loadErr := s.loader.Load(ctx, config.DatasetEncounters)
	if loadErr != nil {
		return s.degraded(ctx, config.ViewEncounters, TitleEncounters, loadErr), nil
	}

	agg, err := compare.Aggregate(table,
		[]string{config.ColumnDataSource, config.ColumnEncounterGroup, config.ColumnEncounterType},
		config.ColumnClaimCount)
	if err != nil {
		return nil, s.classify(ctx, config.ViewEncounters, TitleEncounters, err)
	}
	pivot, err := agg.Pivot(config.ColumnDataSource)
	if err != nil {
		return nil, err
	}
	percents := pivot.NormalizeColumns()

	out := &ComparisonTable{
		View:         config.ViewEncounters,
		Title:        TitleEncounters,
		LabelColumns: []string{"Encounter Group", "Encounter Type"},
	}
	for _, c := range percents.Columns {
		out.ValueColumns = append(out.ValueColumns, s.labels.DataSource(c))
	}
	for _, row := range percents.Rows {
		out.Rows = append(out.Rows, ComparisonRow{
			Labels:    append([]string{}, row.Key...),
			Values:    append([]float64{}, row.Cells...),
			Formatted: formatAll(row.Cells),
		})
	}
	// Total row sums each source's percentages: 100 for sources with
	// data, 0 for a source with zero total.
	sums := percents.ColumnSums()
	out.Rows = append(out.Rows, ComparisonRow{
		Labels:    []string{"Total", ""},
		Values:    sums,
		Formatted: formatAll(sums),
	})
	return out, nil
}

// ClaimTypeSeries builds the stacked claim-volume-over-time chart for one
// data source.
func (s *ClaimsService) ClaimTypeSeries(ctx context.Context, dataSource string) (*compare.Chart, error) {
	defer s.observe(ctx, config.ViewClaimTypes+"-series")()

	table, loadErr := s.loader.Load(ctx, config.DatasetClaimTypes)
	if loadErr != nil {
		return s.degradedChart(ctx, config.ViewClaimTypes, TitleClaimTypes, loadErr), nil
	}

	raw := s.resolveDataSource(dataSource)
	points, err := compare.FilterSeries(table,
		map[string]string{config.ColumnDataSource: raw},
		config.ColumnYearMonth, config.ColumnClaimType, config.ColumnClaimCount)
	if err != nil {
		return nil, s.classify(ctx, config.ViewClaimTypes, TitleClaimTypes, err)
	}
	for i := range points {
		points[i].Category = s.labels.ClaimType(points[i].Category)
	}

	title := fmt.Sprintf("Claim Volume Over Time (%s)", s.labels.DataSource(raw))
	return compare.BuildStackedChart(points, title, "Year-Month", "Count of Claims"), nil
}

// EncounterSeries builds the stacked encounter chart for one data source
// and encounter type, stacked by encounter group.
func (s *ClaimsService) EncounterSeries(ctx context.Context, dataSource, encounterType string) (*compare.Chart, error) {
	defer s.observe(ctx, config.ViewEncounters+"-series")()

	table, loadErr := s.loader.Load(ctx, config.DatasetEncounters)
	if loadErr != nil {
		return s.degradedChart(ctx, config.ViewEncounters, TitleEncounters, loadErr), nil
	}

	raw := s.resolveDataSource(dataSource)
	points, err := compare.FilterSeries(table,
		map[string]string{
			config.ColumnDataSource:    raw,
			config.ColumnEncounterType: encounterType,
		},
		config.ColumnYearMonth, config.ColumnEncounterGroup, config.ColumnClaimCount)
	if err != nil {
		return nil, s.classify(ctx, config.ViewEncounters, TitleEncounters, err)
	}

	title := fmt.Sprintf("Time Series for %s (%s)", encounterType, s.labels.DataSource(raw))
	return compare.BuildStackedChart(points, title, "Year-Month", "Count of Claims"), nil
}

// Views describes the available views and their selectable filters,
// drawn from the currently loaded data.
func (s *ClaimsService) Views(ctx context.Context) []ViewDescriptor {
	views := []ViewDescriptor{
		{
			ID:        config.ViewClaimTypes,
			Title:     TitleClaimTypes,
			TablePath: "/api/views/claim-types/table",
			ChartPath: "/api/views/claim-types/series",
			Filters:   []ViewFilter{{Name: "data_source", Values: s.distinct(ctx, config.DatasetClaimTypes, config.ColumnDataSource)}},
		},
		{
			ID:        config.ViewServiceCategories,
			Title:     TitleServiceCategories,
			TablePath: "/api/views/service-categories/table",
		},
		{
			ID:        config.ViewEncounters,
			Title:     TitleEncounters,
			TablePath: "/api/views/encounters/table",
			ChartPath: "/api/views/encounters/series",
			Filters: []ViewFilter{
				{Name: "data_source", Values: s.distinct(ctx, config.DatasetEncounters, config.ColumnDataSource)},
				{Name: "encounter_type", Values: s.distinct(ctx, config.DatasetEncounters, config.ColumnEncounterType)},
			},
		},
	}
	return views
}

// TableForView returns the comparison table for a view ID, for export
// and generic lookups.
func (s *ClaimsService) TableForView(ctx context.Context, view string) (*ComparisonTable, error) {
	switch view {
	case config.ViewClaimTypes:
		return s.ClaimTypeTable(ctx)
	case config.ViewServiceCategories:
		return s.ServiceCategoryTable(ctx)
	case config.ViewEncounters:
		return s.EncounterTable(ctx)
	default:
		return nil, apperrors.ErrViewNotFound
	}
}

// Datasets reports the state of every dataset file.
func (s *ClaimsService) Datasets(ctx context.Context) []dataset.DatasetInfo {
	return s.loader.Stats(config.DatasetFiles)
}

// ReloadDatasets invalidates the cache and re-reads every dataset file,
// returning the refreshed state. Missing files are reported in the
// state, not treated as failures.
func (s *ClaimsService) ReloadDatasets(ctx context.Context) []dataset.DatasetInfo {
	s.loader.InvalidateAll()
	for _, file := range config.DatasetFiles {
		if _, err := s.loader.Load(ctx, file); err != nil {
			s.logger.WarnContext(ctx, "dataset reload failed",
				slog.String("file", file), slog.String("error", err.Error()))
		}
	}
	return s.loader.Stats(config.DatasetFiles)
}

// degraded logs a load failure and returns the empty table carrying a
// user-visible message. The view renders empty instead of erroring.
func (s *ClaimsService) degraded(ctx context.Context, view, title string, err error) *ComparisonTable {
	s.logger.WarnContext(ctx, "view degraded to empty table",
		slog.String("view", view), slog.String("error", err.Error()))
	return &ComparisonTable{
		View:    view,
		Title:   title,
		Message: fmt.Sprintf("An error occurred while loading the dataset: %v", err),
	}
}

// classify separates fatal precondition failures (missing column, kept
// as API errors) from recoverable data problems, which are wrapped with
// the view for the error handler.
func (s *ClaimsService) classify(ctx context.Context, view, title string, err error) error {
	var apiErr *apperrors.APIError
	if errors.As(err, &apiErr) {
		s.logger.ErrorContext(ctx, "view precondition failed",
			slog.String("view", view), slog.String("error", err.Error()))
		return err
	}
	return fmt.Errorf("%s: %w", view, err)
}

func (s *ClaimsService) distinct(ctx context.Context, file, column string) []string {
	table, err := s.loader.Load(ctx, file)
	if err != nil {
		return nil
	}
	return table.Distinct(column)
}

// resolveDataSource accepts either a raw label or a display name so the
// API tolerates both forms a dashboard might echo back.
func (s *ClaimsService) resolveDataSource(v string) string {
	for _, raw := range s.labels.KnownDataSources() {
		if v == raw || v == s.labels.DataSource(raw) {
			return raw
		}
	}
	return v
}

func (s *ClaimsService) observe(ctx context.Context, view string) func() {
	if s.metrics == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		s.metrics.RecordViewComputation(ctx, view, time.Since(start).Seconds())
	}
}

func formatAll(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = compare.FormatPercent(v)
	}
	return out
}

// degradedChart is the chart counterpart of degraded: the series render
// empty and the load failure surfaces as a user-visible message.
func (s *ClaimsService) degradedChart(ctx context.Context, view, title string, err error) *compare.Chart {
	s.logger.WarnContext(ctx, "chart degraded to empty series",
		slog.String("view", view), slog.String("error", err.Error()))
	return &compare.Chart{
		Title:   title,
		XLabel:  "Year-Month",
		YLabel:  "Count of Claims",
		Stacked: true,
		Message: fmt.Sprintf("An error occurred while loading the dataset: %v", err),
	}
}
