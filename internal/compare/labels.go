package compare

// LabelRegistry maps raw categorical values from the input files to their
// display names. All recognized labels live here so renames are auditable
// in one place. Unrecognized values pass through verbatim rather than
// being dropped, keeping unexpected categories visible.
type LabelRegistry struct {
	dataSources       map[string]string
	claimTypes        map[string]string
	serviceCategories map[string]string
}

// DataSourceSynthetic and DataSourceLDS are the raw provenance labels.
const (
	DataSourceSynthetic = "cms_synthetic"
	DataSourceLDS       = "medicare_lds"
)

// NewLabelRegistry returns the registry seeded with the recognized label
// sets for both datasets.
func NewLabelRegistry() *LabelRegistry {
	return &LabelRegistry{
		dataSources: map[string]string{
			DataSourceSynthetic: "Synthetic",
			DataSourceLDS:       "LDS",
		},
		claimTypes: map[string]string{
			"professional":  "Professional",
			"institutional": "Institutional",
			"total":         "Total",
		},
		serviceCategories: map[string]string{
			"inpatient":    "Inpatient",
			"outpatient":   "Outpatient",
			"office-based": "Office-based",
			"ancillary":    "Ancillary",
			"other":        "Other",
			"total":        "Total",
		},
	}
}

// DataSource returns the display name for a provenance label.
func (r *LabelRegistry) DataSource(raw string) string {
	return lookup(r.dataSources, raw)
}

// ClaimType returns the display name for a claim type.
func (r *LabelRegistry) ClaimType(raw string) string {
	return lookup(r.claimTypes, raw)
}

// ServiceCategory returns the display name for a service category.
func (r *LabelRegistry) ServiceCategory(raw string) string {
	return lookup(r.serviceCategories, raw)
}

// KnownDataSources returns the raw labels of the recognized data sources
// in a stable order, synthetic first.
func (r *LabelRegistry) KnownDataSources() []string {
	return []string{DataSourceSynthetic, DataSourceLDS}
}

func lookup(m map[string]string, raw string) string {
	if display, ok := m[raw]; ok {
		return display
	}
	return raw
}
