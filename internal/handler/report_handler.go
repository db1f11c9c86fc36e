package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/libreport/internal/service"
)

// ReportHandler handles the dashboard and reporting endpoints.
type ReportHandler struct {
	reports *service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports *service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		logger:  logger.With().Str("handler", "report").Logger(),
	}
}

// RegisterRoutes registers routes available to any bearer token.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/heatmap/visits", h.handleHeatmap)
	r.Get("/reports/top-books", h.handleTopBooks)
	r.Get("/reports/overdue", h.handleOverdue)
}

// RegisterAdminRoutes registers the admin-only dashboard route.
func (h *ReportHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/dashboard", h.handleDashboard)
}

func (h *ReportHandler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.reports.Dashboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (h *ReportHandler) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "days must be an integer")
			return
		}
		days = parsed
	}

	heatmap, err := h.reports.VisitHeatmap(r.Context(), days, r.URL.Query().Get("branch"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, heatmap)
}

func (h *ReportHandler) handleTopBooks(w http.ResponseWriter, r *http.Request) {
	items, err := h.reports.TopBooks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *ReportHandler) handleOverdue(w http.ResponseWriter, r *http.Request) {
	items, err := h.reports.Overdue(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
