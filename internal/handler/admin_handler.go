package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/service"
)

// AdminHandler handles user management, invite keys, and report exports.
type AdminHandler struct {
	users   *service.UserAdminService
	invites *service.InviteService

	// archives is nil when exports are disabled.
	archives *service.ArchiveService

	logger zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	users *service.UserAdminService,
	invites *service.InviteService,
	archives *service.ArchiveService,
	logger zerolog.Logger,
) *AdminHandler {
	return &AdminHandler{
		users:    users,
		invites:  invites,
		archives: archives,
		logger:   logger.With().Str("handler", "admin").Logger(),
	}
}

// RegisterRoutes registers the admin management routes (admin only).
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/admin/users", h.handleListUsers)
	r.Patch("/admin/users/{id}/role", h.handleUpdateRole)

	r.Get("/admin/keys", h.handleListKeys)
	r.Post("/admin/keys", h.handleCreateKey)
	r.Patch("/admin/keys/{id}", h.handlePatchKey)

	r.Post("/admin/export", h.handleExport)
}

func (h *AdminHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": users})
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

func (h *AdminHandler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.UpdateRole(r.Context(), chi.URLParam(r, "id"), domain.Role(req.Role))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) handleListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.invites.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": keys})
}

type createKeyRequest struct {
	Label        string `json:"label"`
	MaxUses      int    `json:"maxUses"`
	DaysToExpire int    `json:"daysToExpire"`
}

func (h *AdminHandler) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	output, err := h.invites.Create(r.Context(), service.CreateKeyInput{
		Label:        req.Label,
		MaxUses:      req.MaxUses,
		DaysToExpire: req.DaysToExpire,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, output)
}

type patchKeyRequest struct {
	Label        *string `json:"label"`
	MaxUses      *int    `json:"maxUses"`
	Active       *bool   `json:"active"`
	DaysToExpire *int    `json:"daysToExpire"`
}

func (h *AdminHandler) handlePatchKey(w http.ResponseWriter, r *http.Request) {
	var req patchKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	key, err := h.invites.Patch(r.Context(), chi.URLParam(r, "id"), service.PatchKeyInput{
		Label:        req.Label,
		MaxUses:      req.MaxUses,
		Active:       req.Active,
		DaysToExpire: req.DaysToExpire,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, key)
}

func (h *AdminHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	if h.archives == nil {
		writeErrorMsg(w, http.StatusServiceUnavailable, "archive exports are disabled")
		return
	}

	output, err := h.archives.Export(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, output)
}
