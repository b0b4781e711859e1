package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths holds all resolved filesystem paths used by the application.
// Relative configured paths resolve against the executable directory so
// the dashboard can run from any working directory.
type Paths struct {
	ExecutableDir string
	DataDir       string
	ExportsDir    string
	WebDir        string
	LogsDir       string
}

// ResolvePaths resolves the configured paths against the executable
// directory. Exposed for callers that carry their own PathsConfig.
func ResolvePaths(cfg PathsConfig) (*Paths, error) {
	return resolvePaths(cfg)
}

func resolvePaths(cfg PathsConfig) (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}
	exeDir := filepath.Dir(exe)

	resolve := func(p, fallback string) string {
		if p == "" {
			p = fallback
		}
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(exeDir, p)
	}

	return &Paths{
		ExecutableDir: exeDir,
		DataDir:       resolve(cfg.DataDir, "data"),
		ExportsDir:    resolve(cfg.ExportsDir, "exports"),
		WebDir:        resolve(cfg.WebDir, "web"),
		LogsDir:       resolve(cfg.LogsDir, "logs"),
	}, nil
}

// EnsureDirectories creates all writable directories if missing. The
// data directory is read-only input and is only checked, not created.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ExportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetExportPath returns the full path of an export file.
func (p *Paths) GetExportPath(filename string) string {
	return filepath.Join(p.ExportsDir, filename)
}

// GetLogPath returns the full path of a log file.
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// LogPathResolution logs all resolved paths for startup debugging.
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Info("resolved application paths",
		slog.String("executable_dir", p.ExecutableDir),
		slog.String("data_dir", p.DataDir),
		slog.String("exports_dir", p.ExportsDir),
		slog.String("web_dir", p.WebDir),
		slog.String("logs_dir", p.LogsDir))
}
