package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"claimscope/internal/compare"
	"claimscope/internal/dataset"
	apierrors "claimscope/internal/errors"
	"claimscope/internal/exporter"
	"claimscope/internal/middleware"
	"claimscope/internal/services"
)

// ClaimsServiceInterface is the view computation surface the handler
// depends on, kept narrow for testing.
type ClaimsServiceInterface interface {
	ClaimTypeTable(ctx context.Context) (*services.ComparisonTable, error)
	ServiceCategoryTable(ctx context.Context) (*services.ComparisonTable, error)
	EncounterTable(ctx context.Context) (*services.ComparisonTable, error)
	ClaimTypeSeries(ctx context.Context, dataSource string) (*compare.Chart, error)
	EncounterSeries(ctx context.Context, dataSource, encounterType string) (*compare.Chart, error)
	Views(ctx context.Context) []services.ViewDescriptor
	TableForView(ctx context.Context, view string) (*services.ComparisonTable, error)
	Datasets(ctx context.Context) []dataset.DatasetInfo
	ReloadDatasets(ctx context.Context) []dataset.DatasetInfo
}

// ClaimsHandler serves the comparison views, dataset management, and
// exports with RFC 7807 error responses.
type ClaimsHandler struct {
	service      ClaimsServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
	csv          *exporter.CSVWriter
	xlsx         *exporter.XLSXWriter
}

// NewClaimsHandler creates the handler.
func NewClaimsHandler(service ClaimsServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, csv *exporter.CSVWriter, xlsx *exporter.XLSXWriter) *ClaimsHandler {
	return &ClaimsHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "claims_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
		csv:          csv,
		xlsx:         xlsx,
	}
}

// Routes returns the view, dataset, and export routes.
func (h *ClaimsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/views", func(r chi.Router) {
		r.Get("/", h.GetViews)
		r.Get("/claim-types/table", h.GetClaimTypeTable)
		r.Get("/claim-types/series", h.GetClaimTypeSeries)
		r.Get("/service-categories/table", h.GetServiceCategoryTable)
		r.Get("/encounters/table", h.GetEncounterTable)
		r.Get("/encounters/series", h.GetEncounterSeries)
	})

	r.Route("/datasets", func(r chi.Router) {
		r.Get("/", h.GetDatasets)
		r.Post("/reload", h.ReloadDatasets)
	})

	r.Get("/export/{view}", h.ExportView)

	return r
}

// seriesQuery carries the claim type series selection.
type seriesQuery struct {
	DataSource string `validate:"required"`
}

// encounterSeriesQuery carries the encounter series selection.
type encounterSeriesQuery struct {
	DataSource    string `validate:"required"`
	EncounterType string `validate:"required"`
}

// exportQuery carries the export format selection.
type exportQuery struct {
	Format string `validate:"oneof=csv xlsx"`
}

// GetViews handles GET /api/views.
func (h *ClaimsHandler) GetViews(w http.ResponseWriter, r *http.Request) {
	views := h.service.Views(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   views,
		"count":  len(views),
	})
}

// GetClaimTypeTable handles GET /api/views/claim-types/table.
func (h *ClaimsHandler) GetClaimTypeTable(w http.ResponseWriter, r *http.Request) {
	h.respondTable(w, r, func() (*services.ComparisonTable, error) {
		return h.service.ClaimTypeTable(r.Context())
	})
}

// GetServiceCategoryTable handles GET /api/views/service-categories/table.
func (h *ClaimsHandler) GetServiceCategoryTable(w http.ResponseWriter, r *http.Request) {
	h.respondTable(w, r, func() (*services.ComparisonTable, error) {
		return h.service.ServiceCategoryTable(r.Context())
	})
}

// GetEncounterTable handles GET /api/views/encounters/table.
func (h *ClaimsHandler) GetEncounterTable(w http.ResponseWriter, r *http.Request) {
	h.respondTable(w, r, func() (*services.ComparisonTable, error) {
		return h.service.EncounterTable(r.Context())
	})
}

// GetClaimTypeSeries handles GET /api/views/claim-types/series.
func (h *ClaimsHandler) GetClaimTypeSeries(w http.ResponseWriter, r *http.Request) {
	q := seriesQuery{DataSource: r.URL.Query().Get("data_source")}
	if err := h.validate.Struct(q); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("data_source", "Query parameter data_source is required"))
		return
	}

	chart, err := h.service.ClaimTypeSeries(r.Context(), q.DataSource)
	if err != nil {
		h.logError(r, "claim type series failed", err)
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   chart,
	})
}

// GetEncounterSeries handles GET /api/views/encounters/series.
func (h *ClaimsHandler) GetEncounterSeries(w http.ResponseWriter, r *http.Request) {
	q := encounterSeriesQuery{
		DataSource:    r.URL.Query().Get("data_source"),
		EncounterType: r.URL.Query().Get("encounter_type"),
	}
	if err := h.validate.Struct(q); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("data_source,encounter_type",
			"Query parameters data_source and encounter_type are required"))
		return
	}

	chart, err := h.service.EncounterSeries(r.Context(), q.DataSource, q.EncounterType)
	if err != nil {
		h.logError(r, "encounter series failed", err)
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   chart,
	})
}

// GetDatasets handles GET /api/datasets.
func (h *ClaimsHandler) GetDatasets(w http.ResponseWriter, r *http.Request) {
	datasets := h.service.Datasets(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   datasets,
		"count":  len(datasets),
	})
}

// ReloadDatasets handles POST /api/datasets/reload.
func (h *ClaimsHandler) ReloadDatasets(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "reloading datasets",
		slog.String("request_id", middleware.GetReqID(r)))

	datasets := h.service.ReloadDatasets(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   datasets,
		"count":  len(datasets),
	})
}

// ExportView handles GET /api/export/{view}?format=csv|xlsx.
func (h *ClaimsHandler) ExportView(w http.ResponseWriter, r *http.Request) {
	view := chi.URLParam(r, "view")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if err := h.validate.Struct(exportQuery{Format: format}); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format",
			fmt.Sprintf("Unsupported export format: %s", format)))
		return
	}

	table, err := h.service.TableForView(r.Context(), view)
	if err != nil {
		h.logError(r, "export failed", err)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if bm := middleware.GetBusinessMetricsFromContext(r.Context()); bm != nil {
		bm.RecordExport(r.Context(), view, format)
	}

	switch format {
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, view))
		if err := h.xlsx.WriteTable(w, table); err != nil {
			h.logError(r, "xlsx export failed", err)
		}
	default:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, view))
		if err := h.csv.WriteTable(w, table, exporter.WriteOptions{BOMPrefix: true}); err != nil {
			h.logError(r, "csv export failed", err)
		}
	}
}

func (h *ClaimsHandler) respondTable(w http.ResponseWriter, r *http.Request, compute func() (*services.ComparisonTable, error)) {
	table, err := compute()
	if err != nil {
		h.logError(r, "view computation failed", err)
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   table,
	})
}

func (h *ClaimsHandler) logError(r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetReqID(r)),
		slog.String("path", r.URL.Path))
}
