package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteDataset writes a CSV fixture into dir and returns its path. Lines
// are joined verbatim, so tests control headers and formatting exactly.
func WriteDataset(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", name, err)
	}
	return path
}

// ClaimTypeFixture is a small claim type dataset covering both data
// sources across two periods.
func ClaimTypeFixture(t *testing.T, dir string) string {
	t.Helper()
	return WriteDataset(t, dir, "claim_count_by_type.csv",
		"DATA_SOURCE,CLAIM_TYPE,YEAR_MONTH,CLAIM_COUNT",
		"cms_synthetic,professional,202001,10",
		"cms_synthetic,institutional,202001,30",
		"cms_synthetic,professional,202002,20",
		"medicare_lds,professional,202001,80",
		"medicare_lds,institutional,202001,20",
	)
}

// EncounterFixture is a small encounters dataset with both sources.
func EncounterFixture(t *testing.T, dir string) string {
	t.Helper()
	return WriteDataset(t, dir, "encounters.csv",
		"data_source,encounter_group,encounter_type,year_month,claim_count",
		"cms_synthetic,outpatient,dialysis,202001,40",
		"cms_synthetic,outpatient,office visit,202001,60",
		"medicare_lds,outpatient,dialysis,202001,2",
		"medicare_lds,outpatient,office visit,202002,98",
	)
}
