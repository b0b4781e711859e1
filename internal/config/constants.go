package config

// Dataset file names expected in the data directory. These are the
// pre-aggregated summaries produced by the upstream transformation
// pipeline; this application only reads them.
const (
	DatasetClaimTypes        = "claim_count_by_type.csv"
	DatasetServiceCategories = "claim_count_by_service_category_1.csv"
	DatasetEncounters        = "encounters.csv"
)

// Canonical column names. Headers are lower-cased on load, so these
// match regardless of the casing in the source file.
const (
	ColumnDataSource       = "data_source"
	ColumnClaimType        = "claim_type"
	ColumnServiceCategory1 = "service_category_1"
	ColumnEncounterGroup   = "encounter_group"
	ColumnEncounterType    = "encounter_type"
	ColumnYearMonth        = "year_month"
	ColumnClaimCount       = "claim_count"
)

// View identifiers used in routes and export filenames.
const (
	ViewClaimTypes        = "claim-types"
	ViewServiceCategories = "service-categories"
	ViewEncounters        = "encounters"
)

// DatasetFiles lists every dataset the dashboard serves, in display order.
var DatasetFiles = []string{
	DatasetClaimTypes,
	DatasetServiceCategories,
	DatasetEncounters,
}
