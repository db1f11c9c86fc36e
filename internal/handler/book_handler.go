package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/libreport/internal/service"
)

// BookHandler handles catalog management endpoints.
type BookHandler struct {
	books  *service.BookService
	logger zerolog.Logger
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(books *service.BookService, logger zerolog.Logger) *BookHandler {
	return &BookHandler{
		books:  books,
		logger: logger.With().Str("handler", "book").Logger(),
	}
}

// RegisterRoutes registers the catalog routes. All of them are admin
// only; the caller mounts them behind the admin middleware.
func (h *BookHandler) RegisterRoutes(r chi.Router) {
	r.Get("/books", h.handleList)
	r.Post("/books", h.handleCreate)
	r.Get("/books/{id}", h.handleGet)
	r.Patch("/books/{id}", h.handleUpdate)
	r.Delete("/books/{id}", h.handleDelete)
}

type createBookRequest struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	ISBN        string   `json:"isbn"`
	Tags        []string `json:"tags"`
	TotalCopies int      `json:"totalCopies"`
}

func (h *BookHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	book, err := h.books.Create(r.Context(), service.CreateBookInput{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Tags:        req.Tags,
		TotalCopies: req.TotalCopies,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, book)
}

func (h *BookHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	book, err := h.books.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *BookHandler) handleList(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": books})
}

type updateBookRequest struct {
	Title           *string  `json:"title"`
	Author          *string  `json:"author"`
	ISBN            *string  `json:"isbn"`
	Tags            []string `json:"tags"`
	TotalCopies     *int     `json:"totalCopies"`
	AvailableCopies *int     `json:"availableCopies"`
}

func (h *BookHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateBookRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	book, err := h.books.Update(r.Context(), chi.URLParam(r, "id"), service.UpdateBookInput{
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		Tags:            req.Tags,
		TotalCopies:     req.TotalCopies,
		AvailableCopies: req.AvailableCopies,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

func (h *BookHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.books.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
