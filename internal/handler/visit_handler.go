package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/libreport/internal/service"
)

// VisitHandler handles the unauthenticated check-in kiosk endpoint.
type VisitHandler struct {
	visits *service.VisitService
	logger zerolog.Logger
}

// NewVisitHandler creates a new VisitHandler.
func NewVisitHandler(visits *service.VisitService, logger zerolog.Logger) *VisitHandler {
	return &VisitHandler{
		visits: visits,
		logger: logger.With().Str("handler", "visit").Logger(),
	}
}

// RegisterRoutes registers the public visit routes.
func (h *VisitHandler) RegisterRoutes(r chi.Router) {
	r.Post("/visit/enter", h.handleEnter)
}

type enterRequest struct {
	StudentID string `json:"studentId"`
	Barcode   string `json:"barcode"`
	Branch    string `json:"branch"`
}

func (h *VisitHandler) handleEnter(w http.ResponseWriter, r *http.Request) {
	var req enterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	output, err := h.visits.CheckIn(r.Context(), service.CheckInInput{
		StudentID: req.StudentID,
		Barcode:   req.Barcode,
		Branch:    req.Branch,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, output)
}
