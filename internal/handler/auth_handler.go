package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/libreport/internal/auth"
	"github.com/prn-tf/libreport/internal/service"
)

// AuthHandler handles user signup, login, profile, and password reset.
type AuthHandler struct {
	authService *service.AuthService
	logger      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger.With().Str("handler", "auth").Logger(),
	}
}

// RegisterRoutes registers the public auth routes.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/signup", h.handleSignup)
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/request-reset", h.handleRequestReset)
	r.Post("/auth/reset", h.handleReset)

	// Browser-friendly hints for endpoints that only accept POST.
	r.Get("/auth/signup", methodHint("POST /api/auth/signup"))
	r.Get("/auth/login", methodHint("POST /api/auth/login"))
}

// RegisterProtectedRoutes registers routes behind the auth middleware.
func (h *AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
}

type signupRequest struct {
	StudentID       string `json:"studentId"`
	Email           string `json:"email"`
	FullName        string `json:"fullName"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	AdminCode       string `json:"adminCode"`
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	output, err := h.authService.Signup(r.Context(), service.SignupInput{
		StudentID:       req.StudentID,
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

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	output, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeErrorMsg(w, http.StatusUnauthorized, "missing token")
		return
	}

	user, err := h.authService.Me(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type requestResetRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) handleRequestReset(w http.ResponseWriter, r *http.Request) {
	var req requestResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		writeError(w, service.ErrMissingFields)
		return
	}

	output, err := h.authService.RequestReset(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

type resetRequest struct {
	UID         string `json:"uid"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (h *AuthHandler) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.UID, req.Token, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// methodHint tells browsers poking a POST endpoint with GET what to do
// instead.
func methodHint(usage string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", "POST")
		writeErrorMsg(w, http.StatusMethodNotAllowed, "use "+usage)
	}
}
