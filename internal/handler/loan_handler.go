package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/libreport/internal/service"
)

// LoanHandler handles borrow and return endpoints.
type LoanHandler struct {
	loans  *service.LoanService
	logger zerolog.Logger
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loans *service.LoanService, logger zerolog.Logger) *LoanHandler {
	return &LoanHandler{
		loans:  loans,
		logger: logger.With().Str("handler", "loan").Logger(),
	}
}

// RegisterRoutes registers the loan desk routes (admin only).
func (h *LoanHandler) RegisterRoutes(r chi.Router) {
	r.Post("/loans/borrow", h.handleBorrow)
	r.Post("/loans/return", h.handleReturn)
	r.Get("/loans/active", h.handleListActive)
}

// RegisterStudentRoutes registers routes usable with any bearer token.
func (h *LoanHandler) RegisterStudentRoutes(r chi.Router) {
	r.Get("/student/{id}/borrowed", h.handleListBorrowed)
}

type borrowRequest struct {
	AccountID string `json:"accountId"`
	ItemID    string `json:"itemId"`
	Days      int    `json:"days"`
}

func (h *LoanHandler) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	loan, err := h.loans.Borrow(r.Context(), service.BorrowInput{
		AccountID: req.AccountID,
		ItemID:    req.ItemID,
		Days:      req.Days,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, loan)
}

type returnRequest struct {
	LoanID    string `json:"loanId"`
	AccountID string `json:"accountId"`
	ItemID    string `json:"itemId"`
}

func (h *LoanHandler) handleReturn(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	loan, err := h.loans.Return(r.Context(), service.ReturnInput{
		LoanID:    req.LoanID,
		AccountID: req.AccountID,
		ItemID:    req.ItemID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loan)
}

func (h *LoanHandler) handleListActive(w http.ResponseWriter, r *http.Request) {
	items, err := h.loans.ListActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *LoanHandler) handleListBorrowed(w http.ResponseWriter, r *http.Request) {
	items, err := h.loans.ListBorrowedByUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
