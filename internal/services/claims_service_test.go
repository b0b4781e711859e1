package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimscope/internal/config"
	"claimscope/internal/dataset"
	apperrors "claimscope/internal/errors"
	"claimscope/internal/shared/testutil"
)

func newTestService(t *testing.T) (*ClaimsService, string) {
	t.Helper()
	dir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)
	loader := dataset.NewLoader(dir, logger)
	return NewClaimsService(loader, logger), dir
}

func TestClaimTypeTable(t *testing.T) {
	svc, dir := newTestService(t)
	testutil.WriteDataset(t, dir, config.DatasetClaimTypes,
		"DATA_SOURCE,CLAIM_TYPE,YEAR_MONTH,CLAIM_COUNT",
		"cms_synthetic,professional,202001,30",
		"cms_synthetic,institutional,202001,30",
		"medicare_lds,professional,202001,80",
		"medicare_lds,institutional,202001,20")

	table, err := svc.ClaimTypeTable(context.Background())
	require.NoError(t, err)

	assert.Empty(t, table.Message)
	assert.Equal(t, []string{"Data Source"}, table.LabelColumns)
	assert.Equal(t, []string{"Institutional", "Professional", "Total"}, table.ValueColumns)
	require.Len(t, table.Rows, 2)

	synthetic := table.Rows[0]
	assert.Equal(t, []string{"Synthetic"}, synthetic.Labels)
	assert.InDelta(t, 50, synthetic.Values[0], 1e-9)
	assert.InDelta(t, 50, synthetic.Values[1], 1e-9)
	assert.Equal(t, float64(100), synthetic.Values[2])
	assert.Equal(t, []string{"50.00%", "50.00%", "100.00%"}, synthetic.Formatted)

	lds := table.Rows[1]
	assert.Equal(t, []string{"LDS"}, lds.Labels)
	assert.InDelta(t, 20, lds.Values[0], 1e-9)
	assert.InDelta(t, 80, lds.Values[1], 1e-9)
}

func TestClaimTypeTableDegradesOnMissingFile(t *testing.T) {
	svc, _ := newTestService(t)

	table, err := svc.ClaimTypeTable(context.Background())
	require.NoError(t, err)

	assert.Empty(t, table.Rows)
	assert.Contains(t, table.Message, "error occurred while loading")
}

func TestClaimTypeTableMissingColumn(t *testing.T) {
	svc, dir := newTestService(t)
	testutil.WriteDataset(t, dir, config.DatasetClaimTypes,
		"data_source,claim_count",
		"cms_synthetic,10")

	_, err := svc.ClaimTypeTable(context.Background())
	require.Error(t, err)

	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 422, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "claim_type")
}

func TestServiceCategoryTableTransposed(t *testing.T) {
	svc, dir := newTestService(t)
	testutil.WriteDataset(t, dir, config.DatasetServiceCategories,
		"data_source,service_category_1,claim_count",
		"cms_synthetic,inpatient,25",
		"cms_synthetic,outpatient,75",
		"medicare_lds,inpatient,10",
		"medicare_lds,outpatient,90")

	table, err := svc.ServiceCategoryTable(context.Background())
	require.NoError(t, err)

	// Categories are rows, data sources are columns.
	assert.Equal(t, []string{"Service Category"}, table.LabelColumns)
	assert.Equal(t, []string{"Synthetic", "LDS"}, table.ValueColumns)
	require.Len(t, table.Rows, 3)

	assert.Equal(t, []string{"Inpatient"}, table.Rows[0].Labels)
	assert.InDelta(t, 25, table.Rows[0].Values[0], 1e-9)
	assert.InDelta(t, 10, table.Rows[0].Values[1], 1e-9)

	assert.Equal(t, []string{"Outpatient"}, table.Rows[1].Labels)
	assert.InDelta(t, 75, table.Rows[1].Values[0], 1e-9)
	assert.InDelta(t, 90, table.Rows[1].Values[1], 1e-9)

	total := table.Rows[2]
	assert.Equal(t, []string{"Total"}, total.Labels)
	assert.Equal(t, []float64{100, 100}, total.Values)
}

func TestEncounterTable(t *testing.T) {
	svc, dir := newTestService(t)
	testutil.EncounterFixture(t, dir)

	table, err := svc.EncounterTable(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Encounter Group", "Encounter Type"}, table.LabelColumns)
	assert.Equal(t, []string{"Synthetic", "LDS"}, table.ValueColumns)
	require.Len(t, table.Rows, 3)

	dialysis := table.Rows[0]
	assert.Equal(t, []string{"outpatient", "dialysis"}, dialysis.Labels)
	assert.InDelta(t, 40, dialysis.Values[0], 1e-9)
	assert.InDelta(t, 2, dialysis.Values[1], 1e-9)

	office := table.Rows[1]
	assert.Equal(t, []string{"outpatient", "office visit"}, office.Labels)
	assert.InDelta(t, 60, office.Values[0], 1e-9)
	assert.InDelta(t, 98, office.Values[1], 1e-9)

	// Total row with a blank encounter type cell.
	total := table.Rows[2]
	assert.Equal(t, []string{"Total", ""}, total.Labels)
	assert.InDelta(t, 100, total.Values[0], 1e-9)
	assert.InDelta(t, 100, total.Values[1], 1e-9)
}

func TestClaimTypeSeries(t *testing.T) {
	svc, dir := newTestService(t)
	testutil.ClaimTypeFixture(t, dir)

	chart, err := svc.ClaimTypeSeries(context.Background(), "cms_synthetic")
	require.NoError(t, err)

	assert.Contains(t, chart.Title, "Synthetic")
	assert.True(t, chart.Stacked)
	assert.Equal(t, []string{"Jan-2020", "Feb-2020"}, chart.Periods)
	require.Len(t, chart.Series, 2)
	assert.Equal(t, "Institutional", chart.Series[0].Name)
	assert.Equal(t, "Professional", chart.Series[1].Name)
	assert.Equal(t, int64(10), chart.Series[1].Points[0].Value)
	assert.Equal(t, int64(20), chart.Series[1].Points[1].Value)
}

func TestClaimTypeSeriesDegradesOnMissingFile(t *testing.T) {
	svc, _ := newTestService(t)

	chart, err := svc.ClaimTypeSeries(context.Background(), "cms_synthetic")
	require.NoError(t, err)

	assert.Empty(t, chart.Series)
	assert.Empty(t, chart.Periods)
	assert.Contains(t, chart.Message, "An error occurred while loading the dataset")
}

func TestEncounterSeriesDegradesOnMissingFile(t *testing.T) {
	svc, _ := newTestService(t)

	chart, err := svc.EncounterSeries(context.Background(), "cms_synthetic", "Outpatient")
	require.NoError(t, err)

	assert.Empty(t, chart.Series)
	assert.Contains(t, chart.Message, "An error occurred while loading the dataset")
}

func TestClaimTypeSeriesAcceptsDisplayName(t *testing.T) {
	svc, dir := newTestService(t)
	testutil.ClaimTypeFixture(t, dir)

	chart, err := svc.ClaimTypeSeries(context.Background(), "Synthetic")
	require.NoError(t, err)
	assert.NotEmpty(t, chart.Series)
}

func TestEncounterSeries(t *testing.T) {
	svc, dir := newTestService(t)
	testutil.EncounterFixture(t, dir)

	chart, err := svc.EncounterSeries(context.Background(), "medicare_lds", "dialysis")
	require.NoError(t, err)

	assert.Contains(t, chart.Title, "dialysis")
	assert.Contains(t, chart.Title, "LDS")
	require.Len(t, chart.Series, 1)
	assert.Equal(t, "outpatient", chart.Series[0].Name)
	assert.Equal(t, int64(2), chart.Series[0].Points[0].Value)
}

func TestViews(t *testing.T) {
	svc, dir := newTestService(t)
	testutil.ClaimTypeFixture(t, dir)
	testutil.EncounterFixture(t, dir)

	views := svc.Views(context.Background())
	require.Len(t, views, 3)

	assert.Equal(t, config.ViewClaimTypes, views[0].ID)
	require.Len(t, views[0].Filters, 1)
	assert.ElementsMatch(t, []string{"cms_synthetic", "medicare_lds"}, views[0].Filters[0].Values)

	assert.Equal(t, config.ViewServiceCategories, views[1].ID)
	assert.Empty(t, views[1].Filters)

	assert.Equal(t, config.ViewEncounters, views[2].ID)
	require.Len(t, views[2].Filters, 2)
	assert.Contains(t, views[2].Filters[1].Values, "dialysis")
}

func TestTableForView(t *testing.T) {
	svc, dir := newTestService(t)
	testutil.ClaimTypeFixture(t, dir)

	table, err := svc.TableForView(context.Background(), config.ViewClaimTypes)
	require.NoError(t, err)
	assert.Equal(t, config.ViewClaimTypes, table.View)

	_, err = svc.TableForView(context.Background(), "bogus")
	require.Error(t, err)

	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)
}

func TestReloadDatasets(t *testing.T) {
	svc, dir := newTestService(t)
	testutil.ClaimTypeFixture(t, dir)

	infos := svc.ReloadDatasets(context.Background())
	require.Len(t, infos, len(config.DatasetFiles))

	for _, info := range infos {
		if info.File == config.DatasetClaimTypes {
			assert.True(t, info.Cached)
			assert.Equal(t, 5, info.Rows)
		}
	}
}

func TestHealthService(t *testing.T) {
	dir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)
	loader := dataset.NewLoader(dir, logger)
	hs := NewHealthService("test", loader)

	status := hs.Health(context.Background())
	assert.Equal(t, "degraded", status.Status)
	assert.False(t, hs.Ready(context.Background()))

	testutil.ClaimTypeFixture(t, dir)
	status = hs.Health(context.Background())
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "ok", status.Checks[config.DatasetClaimTypes])
	assert.True(t, hs.Ready(context.Background()))
}
