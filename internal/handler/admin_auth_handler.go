package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/libreport/internal/auth"
	"github.com/prn-tf/libreport/internal/service"
)

// AdminAuthHandler handles the separate admin identity endpoints.
type AdminAuthHandler struct {
	adminAuth *service.AdminAuthService
	logger    zerolog.Logger
}

// NewAdminAuthHandler creates a new AdminAuthHandler.
func NewAdminAuthHandler(adminAuth *service.AdminAuthService, logger zerolog.Logger) *AdminAuthHandler {
	return &AdminAuthHandler{
		adminAuth: adminAuth,
		logger:    logger.With().Str("handler", "admin_auth").Logger(),
	}
}

// RegisterRoutes registers the public admin auth routes.
func (h *AdminAuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/admin/auth/signup", h.handleSignup)
	r.Post("/admin/auth/login", h.handleLogin)
}

// RegisterProtectedRoutes registers routes behind the auth middleware.
func (h *AdminAuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/admin/auth/me", h.handleMe)
}

type adminSignupRequest struct {
	Email           string `json:"email"`
	FullName        string `json:"fullName"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	AdminCode       string `json:"adminCode"`
}

func (h *AdminAuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req adminSignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	output, err := h.adminAuth.Signup(r.Context(), service.AdminSignupInput{
		Email:           req.Email,
		FullName:        req.FullName,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		AdminCode:       req.AdminCode,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, output)
}

func (h *AdminAuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	output, err := h.adminAuth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (h *AdminAuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeErrorMsg(w, http.StatusUnauthorized, "missing token")
		return
	}
	if !claims.IsAdmin() {
		writeErrorMsg(w, http.StatusForbidden, "admin access required")
		return
	}

	admin, err := h.adminAuth.Me(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, admin)
}
