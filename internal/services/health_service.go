package services

import (
	"context"
	"time"

	"claimscope/internal/config"
	"claimscope/internal/dataset"
)

// HealthStatus is the health endpoint payload.
type HealthStatus struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthService reports liveness and dataset readiness.
type HealthService struct {
	version   string
	startTime time.Time
	loader    *dataset.Loader
}

// NewHealthService creates the health service.
func NewHealthService(version string, loader *dataset.Loader) *HealthService {
	return &HealthService{
		version:   version,
		startTime: time.Now(),
		loader:    loader,
	}
}

// Health returns the overall status. The service is degraded, not down,
// when dataset files are missing; views render empty in that state.
func (s *HealthService) Health(ctx context.Context) HealthStatus {
	checks := make(map[string]string, len(config.DatasetFiles))
	status := "healthy"
	for _, info := range s.loader.Stats(config.DatasetFiles) {
		if info.Exists {
			checks[info.File] = "ok"
		} else {
			checks[info.File] = "missing"
			status = "degraded"
		}
	}
	return HealthStatus{
		Status:    status,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}
}

// Ready reports whether at least one dataset file is present.
func (s *HealthService) Ready(ctx context.Context) bool {
	for _, info := range s.loader.Stats(config.DatasetFiles) {
		if info.Exists {
			return true
		}
	}
	return false
}

// Version returns the build version string.
func (s *HealthService) Version() string {
	return s.version
}
