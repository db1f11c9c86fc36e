package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/libreport/internal/service"
)

// HoursHandler handles the opening-hours configuration endpoints.
type HoursHandler struct {
	hours  *service.HoursService
	logger zerolog.Logger
}

// NewHoursHandler creates a new HoursHandler.
func NewHoursHandler(hours *service.HoursService, logger zerolog.Logger) *HoursHandler {
	return &HoursHandler{
		hours:  hours,
		logger: logger.With().Str("handler", "hours").Logger(),
	}
}

// RegisterRoutes registers the read route (any bearer token).
func (h *HoursHandler) RegisterRoutes(r chi.Router) {
	r.Get("/hours", h.handleList)
}

// RegisterAdminRoutes registers the write routes (admin only).
func (h *HoursHandler) RegisterAdminRoutes(r chi.Router) {
	r.Put("/hours", h.handleUpsert)
	r.Put("/hours/{branch}/{day}", h.handleUpsertByPath)
}

func (h *HoursHandler) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.hours.ListWeek(r.Context(), r.URL.Query().Get("branch"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": entries})
}

type upsertHoursRequest struct {
	Branch    string `json:"branch"`
	DayOfWeek int    `json:"dayOfWeek"`
	Open      string `json:"open"`
	Close     string `json:"close"`
}

func (h *HoursHandler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var req upsertHoursRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.upsert(w, r, service.UpsertHoursInput{
		Branch:    req.Branch,
		DayOfWeek: req.DayOfWeek,
		Open:      req.Open,
		Close:     req.Close,
	})
}

func (h *HoursHandler) handleUpsertByPath(w http.ResponseWriter, r *http.Request) {
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		writeError(w, service.ErrInvalidDayOfWeek)
		return
	}

	var req upsertHoursRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.upsert(w, r, service.UpsertHoursInput{
		Branch:    chi.URLParam(r, "branch"),
		DayOfWeek: day,
		Open:      req.Open,
		Close:     req.Close,
	})
}

func (h *HoursHandler) upsert(w http.ResponseWriter, r *http.Request, input service.UpsertHoursInput) {
	entry, err := h.hours.Upsert(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
