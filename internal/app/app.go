package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"claimscope/internal/config"
	"claimscope/internal/dataset"
	apierrors "claimscope/internal/errors"
	"claimscope/internal/exporter"
	"claimscope/internal/infrastructure"
	"claimscope/internal/middleware"
	"claimscope/internal/services"
	transporthttp "claimscope/internal/transport/http"
)

// Version is the build version, overridable at link time.
var Version = "dev"

// Application wires configuration, services, and the HTTP router into a
// runnable server.
type Application struct {
	cfg    *config.Config
	paths  *config.Paths
	logger *slog.Logger

	otel    *infrastructure.OTelProviders
	metrics *infrastructure.BusinessMetrics

	loader        *dataset.Loader
	claimsService *services.ClaimsService
	healthService *services.HealthService

	router chi.Router
	server *http.Server
}

// New builds the application from configuration. Datasets are not
// loaded here; Run preloads them so a missing file degrades views
// instead of failing startup.
func New(cfg *config.Config) (*Application, error) {
	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	// A relative log file lands in the resolved logs directory so the
	// server writes to the same place regardless of working directory.
	if !filepath.IsAbs(cfg.Logging.FilePath) {
		cfg.Logging.FilePath = paths.GetLogPath(filepath.Base(cfg.Logging.FilePath))
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:    infrastructure.ServiceName,
		ServiceVersion: Version,
		EnableMetrics:  true,
		EnableTracing:  true,
		SampleRatio:    1.0,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize otel: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	app := &Application{
		cfg:     cfg,
		paths:   paths,
		logger:  logger,
		otel:    otelProviders,
		metrics: metrics,
	}
	app.initializeServices()
	app.setupRouter()

	return app, nil
}

// Logger exposes the application logger for the entrypoint.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// Router exposes the configured router, mainly for tests.
func (a *Application) Router() chi.Router {
	return a.router
}

func (a *Application) initializeServices() {
	a.loader = dataset.NewLoader(a.paths.DataDir, a.logger)
	a.loader.SetMetrics(a.metrics)

	a.claimsService = services.NewClaimsService(a.loader, a.logger)
	a.claimsService.SetMetrics(a.metrics)

	a.healthService = services.NewHealthService(Version, a.loader)
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredLogger(a.logger))
	r.Use(middleware.Recoverer(a.logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Compress())
	r.Use(middleware.Timeout(a.cfg.Server.ReadTimeout))

	otelMW := middleware.NewOTelMiddleware(a.otel.Tracer, a.metrics)
	r.Use(otelMW.Handler)
	r.Use(middleware.BusinessMetricsMiddleware(a.metrics))

	errorHandler := apierrors.NewErrorHandler(a.logger, a.cfg.Logging.Level == "debug")
	csvWriter := exporter.NewCSVWriter(a.paths)
	xlsxWriter := exporter.NewXLSXWriter()

	claimsHandler := transporthttp.NewClaimsHandler(a.claimsService, a.logger, errorHandler, csvWriter, xlsxWriter)
	healthHandler := transporthttp.NewHealthHandler(a.healthService)

	r.Route("/api", func(r chi.Router) {
		if a.cfg.Security.EnableCORS {
			cors := middleware.DefaultCORSConfig()
			if len(a.cfg.Security.AllowedOrigins) > 0 {
				cors.AllowedOrigins = a.cfg.Security.AllowedOrigins
			}
			r.Use(middleware.CORS(cors))
		}
		if a.cfg.Security.RateLimit.Enabled {
			r.Use(middleware.RateLimiter(a.cfg.Security.RateLimit.RPS, a.cfg.Security.RateLimit.Burst))
		}

		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.GetVersion)
		r.Mount("/", claimsHandler.Routes())
	})

	if a.otel.PrometheusHTTP != nil {
		r.Handle("/metrics", a.otel.PrometheusHTTP)
	}

	// The dashboard frontend, when present, is served from the web dir.
	if info, err := os.Stat(a.paths.WebDir); err == nil && info.IsDir() {
		r.Handle("/*", http.FileServer(http.Dir(a.paths.WebDir)))
	}

	a.router = r
}

// PreloadDatasets warms the cache for every dataset file concurrently.
// Load failures are logged and tolerated; the affected views degrade to
// empty tables.
func (a *Application) PreloadDatasets(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	for _, file := range config.DatasetFiles {
		file := file
		g.Go(func() error {
			if _, err := a.loader.Load(ctx, file); err != nil {
				a.logger.WarnContext(ctx, "dataset preload failed",
					slog.String("file", file),
					slog.String("error", err.Error()))
			}
			return nil
		})
	}
	g.Wait()
}

// Run starts the HTTP server and blocks until the context is cancelled
// or a termination signal arrives, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.PreloadDatasets(ctx)

	addr := fmt.Sprintf(":%d", a.cfg.Server.Port)
	a.server = &http.Server{
		Addr:           addr,
		Handler:        a.router,
		ReadTimeout:    a.cfg.Server.ReadTimeout,
		WriteTimeout:   a.cfg.Server.WriteTimeout,
		IdleTimeout:    a.cfg.Server.IdleTimeout,
		MaxHeaderBytes: a.cfg.Server.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening",
			slog.String("addr", addr),
			slog.String("version", Version))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if a.otel != nil {
		if err := a.otel.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("otel shutdown", slog.String("error", err.Error()))
		}
	}
	infrastructure.CloseLogFile()
	return nil
}
