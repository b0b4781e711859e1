package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName    = "claimscope"
	ServiceVersion = "v1.0.0"
	MeterName      = "claimscope"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// DefaultOTelConfig returns a default OpenTelemetry configuration
func DefaultOTelConfig() *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    env,
		EnableMetrics:  true,
		EnableTracing:  true,
		SampleRatio:    1.0,
	}
}

// InitializeOTel initializes OpenTelemetry metrics and tracing
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}

	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
		attribute.String("service.instance.id", uuid.New().String()),
	)

	providers := &OTelProviders{
		Logger: logger,
	}

	if cfg.EnableTracing {
		// Spans stay in-process; the provider exists so request trace IDs
		// propagate through context and logs.
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
		)
		providers.TracerProvider = tp
		providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
		otel.SetTracerProvider(tp)
	}

	if cfg.EnableMetrics {
		exporter, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		providers.PrometheusHTTP = promhttp.Handler()

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
		otel.SetMeterProvider(mp)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "OpenTelemetry initialization complete")

	return providers, nil
}

// Shutdown flushes and stops the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var firstErr error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// BusinessMetrics holds application-specific metric instruments
type BusinessMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	ViewComputationsTotal   metric.Int64Counter
	ViewComputationDuration metric.Float64Histogram
	DatasetLoadsTotal       metric.Int64Counter
	DatasetCacheHitsTotal   metric.Int64Counter
	DatasetCacheMissesTotal metric.Int64Counter
	ViewExportsTotal        metric.Int64Counter
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	httpRequestsTotal, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	httpActiveRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	viewComputationsTotal, err := meter.Int64Counter(
		"view_computations_total",
		metric.WithDescription("Total number of comparison view computations"),
	)
	if err != nil {
		return nil, err
	}

	viewComputationDuration, err := meter.Float64Histogram(
		"view_computation_duration_seconds",
		metric.WithDescription("Comparison view computation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	datasetLoadsTotal, err := meter.Int64Counter(
		"dataset_loads_total",
		metric.WithDescription("Total number of dataset file loads from disk"),
	)
	if err != nil {
		return nil, err
	}

	datasetCacheHitsTotal, err := meter.Int64Counter(
		"dataset_cache_hits_total",
		metric.WithDescription("Total number of dataset cache hits"),
	)
	if err != nil {
		return nil, err
	}

	datasetCacheMissesTotal, err := meter.Int64Counter(
		"dataset_cache_misses_total",
		metric.WithDescription("Total number of dataset cache misses"),
	)
	if err != nil {
		return nil, err
	}

	viewExportsTotal, err := meter.Int64Counter(
		"view_exports_total",
		metric.WithDescription("Total number of comparison view export downloads"),
	)
	if err != nil {
		return nil, err
	}

	return &BusinessMetrics{
		HTTPRequestsTotal:       httpRequestsTotal,
		HTTPRequestDuration:     httpRequestDuration,
		HTTPActiveRequests:      httpActiveRequests,
		ViewComputationsTotal:   viewComputationsTotal,
		ViewComputationDuration: viewComputationDuration,
		DatasetLoadsTotal:       datasetLoadsTotal,
		DatasetCacheHitsTotal:   datasetCacheHitsTotal,
		DatasetCacheMissesTotal: datasetCacheMissesTotal,
		ViewExportsTotal:        viewExportsTotal,
	}, nil
}

// RecordViewComputation records one completed view computation.
func (bm *BusinessMetrics) RecordViewComputation(ctx context.Context, view string, seconds float64) {
	attrs := metric.WithAttributes(attribute.String("view", view))
	bm.ViewComputationsTotal.Add(ctx, 1, attrs)
	bm.ViewComputationDuration.Record(ctx, seconds, attrs)
}

// RecordDatasetLoad records one dataset file read from disk.
func (bm *BusinessMetrics) RecordDatasetLoad(ctx context.Context, file string) {
	bm.DatasetLoadsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("file", file)))
}

// RecordDatasetCacheHit records a load served from the in-memory cache.
func (bm *BusinessMetrics) RecordDatasetCacheHit(ctx context.Context, file string) {
	bm.DatasetCacheHitsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("file", file)))
}

// RecordDatasetCacheMiss records a load that had to re-read the file.
func (bm *BusinessMetrics) RecordDatasetCacheMiss(ctx context.Context, file string) {
	bm.DatasetCacheMissesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("file", file)))
}

// RecordExport records one table export download.
func (bm *BusinessMetrics) RecordExport(ctx context.Context, view, format string) {
	bm.ViewExportsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("view", view),
		attribute.String("format", format)))
}
