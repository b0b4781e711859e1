package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"claimscope/internal/infrastructure"
)

// Loader reads delimited dataset files and caches parsed tables keyed by
// (path, mtime). A changed file is re-read transparently on the next
// Load; Invalidate and Reload give callers explicit control on top of
// that. There is no other process-wide mutable state.
type Loader struct {
	dataDir string
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry

	metrics *infrastructure.BusinessMetrics
}

type cacheEntry struct {
	table    *Table
	modTime  time.Time
	size     int64
	loadedAt time.Time
}

// DatasetInfo describes one dataset file for the datasets listing.
type DatasetInfo struct {
	File     string    `json:"file"`
	Path     string    `json:"-"`
	Exists   bool      `json:"exists"`
	Size     int64     `json:"size_bytes"`
	ModTime  time.Time `json:"mod_time,omitempty"`
	Cached   bool      `json:"cached"`
	Rows     int       `json:"rows"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}

// NewLoader creates a loader rooted at dataDir.
func NewLoader(dataDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		dataDir: dataDir,
		logger:  logger,
		cache:   make(map[string]cacheEntry),
	}
}

// SetMetrics wires the load/cache counters. Optional; nil disables them.
func (l *Loader) SetMetrics(m *infrastructure.BusinessMetrics) {
	l.metrics = m
}

// Load returns the parsed table for the named file under the data
// directory. The cached copy is reused while the file's mtime is
// unchanged.
func (l *Loader) Load(ctx context.Context, file string) (*Table, error) {
	path := filepath.Join(l.dataDir, file)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat dataset %s: %w", file, err)
	}

	l.mu.Lock()
	entry, ok := l.cache[file]
	l.mu.Unlock()

	if ok && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		l.recordCache(ctx, file, true)
		return entry.table, nil
	}
	l.recordCache(ctx, file, false)

	table, err := l.read(path, file)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[file] = cacheEntry{
		table:    table,
		modTime:  info.ModTime(),
		size:     info.Size(),
		loadedAt: time.Now(),
	}
	l.mu.Unlock()

	if l.metrics != nil {
		l.metrics.RecordDatasetLoad(ctx, file)
	}
	l.logger.InfoContext(ctx, "dataset loaded",
		slog.String("file", file),
		slog.Int("rows", table.Len()),
		slog.Int64("size_bytes", info.Size()))

	return table, nil
}

// Invalidate drops the cached table for one file. The next Load re-reads
// it regardless of mtime.
func (l *Loader) Invalidate(file string) {
	l.mu.Lock()
	delete(l.cache, file)
	l.mu.Unlock()
}

// InvalidateAll drops every cached table.
func (l *Loader) InvalidateAll() {
	l.mu.Lock()
	l.cache = make(map[string]cacheEntry)
	l.mu.Unlock()
}

// Reload invalidates and immediately re-loads the named file.
func (l *Loader) Reload(ctx context.Context, file string) (*Table, error) {
	l.Invalidate(file)
	return l.Load(ctx, file)
}

// Stats reports the current state of every known dataset file, cached or
// not, sorted by file name.
func (l *Loader) Stats(files []string) []DatasetInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]DatasetInfo, 0, len(files))
	for _, file := range files {
		path := filepath.Join(l.dataDir, file)
		di := DatasetInfo{File: file, Path: path}
		if info, err := os.Stat(path); err == nil {
			di.Exists = true
			di.Size = info.Size()
			di.ModTime = info.ModTime()
		}
		if entry, ok := l.cache[file]; ok {
			di.Cached = true
			di.Rows = entry.table.Len()
			di.LoadedAt = entry.loadedAt
		}
		out = append(out, di)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out
}

func (l *Loader) read(path, name string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", name, err)
	}
	if len(records) == 0 {
		return EmptyTable(name), nil
	}
	return NewTable(name, records[0], records[1:]), nil
}

func (l *Loader) recordCache(ctx context.Context, file string, hit bool) {
	if l.metrics == nil {
		return
	}
	if hit {
		l.metrics.RecordDatasetCacheHit(ctx, file)
	} else {
		l.metrics.RecordDatasetCacheMiss(ctx, file)
	}
}
