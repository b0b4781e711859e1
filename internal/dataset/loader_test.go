package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimscope/internal/shared/testutil"
)

func newTestLoader(t *testing.T) (*Loader, string) {
	t.Helper()
	dir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)
	return NewLoader(dir, logger), dir
}

func TestLoaderLoad(t *testing.T) {
	loader, dir := newTestLoader(t)
	testutil.WriteDataset(t, dir, "claims.csv",
		"DATA_SOURCE,CLAIM_COUNT",
		"cms_synthetic,10")

	table, err := loader.Load(context.Background(), "claims.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"data_source", "claim_count"}, table.Columns())
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, "cms_synthetic", table.Value(0, "data_source"))
}

func TestLoaderMissingFile(t *testing.T) {
	loader, _ := newTestLoader(t)

	_, err := loader.Load(context.Background(), "absent.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.csv")
}

func TestLoaderCachesByMtime(t *testing.T) {
	loader, dir := newTestLoader(t)
	path := testutil.WriteDataset(t, dir, "claims.csv",
		"data_source,claim_count",
		"a,1")

	ctx := context.Background()
	first, err := loader.Load(ctx, "claims.csv")
	require.NoError(t, err)

	second, err := loader.Load(ctx, "claims.csv")
	require.NoError(t, err)
	assert.Same(t, first, second)

	// A rewritten file with a new mtime is picked up transparently.
	testutil.WriteDataset(t, dir, "claims.csv",
		"data_source,claim_count",
		"a,1",
		"b,2")
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	third, err := loader.Load(ctx, "claims.csv")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, third.Len())
}

func TestLoaderInvalidate(t *testing.T) {
	loader, dir := newTestLoader(t)
	testutil.WriteDataset(t, dir, "claims.csv",
		"data_source,claim_count",
		"a,1")

	ctx := context.Background()
	first, err := loader.Load(ctx, "claims.csv")
	require.NoError(t, err)

	loader.Invalidate("claims.csv")

	second, err := loader.Load(ctx, "claims.csv")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, first.Columns(), second.Columns())
}

func TestLoaderReload(t *testing.T) {
	loader, dir := newTestLoader(t)
	testutil.WriteDataset(t, dir, "claims.csv",
		"data_source,claim_count",
		"a,1")

	table, err := loader.Reload(context.Background(), "claims.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
}

func TestLoaderMalformedCSV(t *testing.T) {
	loader, dir := newTestLoader(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.csv"),
		[]byte("a,b\n\"unterminated\n"), 0644))

	_, err := loader.Load(context.Background(), "bad.csv")
	assert.Error(t, err)
}

func TestLoaderStats(t *testing.T) {
	loader, dir := newTestLoader(t)
	testutil.WriteDataset(t, dir, "claims.csv",
		"data_source,claim_count",
		"a,1")

	_, err := loader.Load(context.Background(), "claims.csv")
	require.NoError(t, err)

	stats := loader.Stats([]string{"missing.csv", "claims.csv"})
	require.Len(t, stats, 2)

	// Sorted by file name.
	assert.Equal(t, "claims.csv", stats[0].File)
	assert.True(t, stats[0].Exists)
	assert.True(t, stats[0].Cached)
	assert.Equal(t, 1, stats[0].Rows)

	assert.Equal(t, "missing.csv", stats[1].File)
	assert.False(t, stats[1].Exists)
	assert.False(t, stats[1].Cached)
}

func TestLoaderEmptyFile(t *testing.T) {
	loader, dir := newTestLoader(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.csv"), nil, 0644))

	table, err := loader.Load(context.Background(), "empty.csv")
	require.NoError(t, err)
	assert.True(t, table.Empty())
}
