// internal/entitlement/handler.go
package entitlement

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"inkvault/internal/api"
	"inkvault/internal/domain"
)

type Handler struct {
	service  Service
	booksDir string
}

func NewHandler(service Service, booksDir string) *Handler {
	return &Handler{service: service, booksDir: booksDir}
}

// HandleRead serves GET /books/read/{id}: the entitlement-gated file stream.
func (h *Handler) HandleRead(w http.ResponseWriter, r *http.Request) {
	bookID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.Err(w, r, domain.Errorf(domain.EINVALID, "Invalid book ID"))
		return
	}

	auth, err := h.service.Authorize(r.Context(), api.Subject(r.Context()), bookID)
	if err != nil {
		api.Err(w, r, err)
		return
	}

	path, err := h.service.ResolveSecurePath(auth, h.booksDir)
	if err != nil {
		api.Err(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}

// HandleListOwned serves GET /books/mine: books the caller owns.
func (h *Handler) HandleListOwned(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListOwned(r.Context(), api.Subject(r.Context()))
	if err != nil {
		api.Err(w, r, err)
		return
	}
	api.OK(w, http.StatusOK, "Owned books retrieved successfully", map[string]interface{}{
		"books": books,
	})
}

// HandleOwnership serves GET /books/{id}/ownership.
func (h *Handler) HandleOwnership(w http.ResponseWriter, r *http.Request) {
	bookID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.Err(w, r, domain.Errorf(domain.EINVALID, "Invalid book ID"))
		return
	}

	owns, err := h.service.Owns(r.Context(), api.Subject(r.Context()), bookID)
	if err != nil {
		api.Err(w, r, err)
		return
	}
	api.OK(w, http.StatusOK, "Ownership checked", map[string]interface{}{
		"book_id": bookID,
		"owned":   owns,
	})
}
