// internal/catalog/handler.go
package catalog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"inkvault/internal/api"
	"inkvault/internal/domain"
)

type Handler struct {
	service       Service
	searchLimiter *rate.Limiter
}

func NewHandler(service Service, searchLimiter *rate.Limiter) *Handler {
	return &Handler{service: service, searchLimiter: searchLimiter}
}

// HandleList serves GET /books.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	books, err := h.service.ListBooks(r.Context(), limit, offset)
	if err != nil {
		api.Err(w, r, err)
		return
	}

	api.OK(w, http.StatusOK, "Books retrieved successfully", map[string]interface{}{
		"books": books,
	})
}

// HandleGet serves GET /books/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.Err(w, r, domain.Errorf(domain.EINVALID, "Invalid book ID"))
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		api.Err(w, r, err)
		return
	}

	api.OK(w, http.StatusOK, "Book retrieved successfully", map[string]interface{}{
		"book": book,
	})
}

// HandleSearch serves GET /search/books.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if !h.searchLimiter.Allow() {
		api.Fail(w, http.StatusTooManyRequests, "Too many search requests")
		return
	}

	q := r.URL.Query()
	params := SearchParams{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		SortBy:   q.Get("sort_by"),
	}
	params.Limit, _ = strconv.Atoi(q.Get("limit"))
	params.Offset, _ = strconv.Atoi(q.Get("offset"))

	if raw := q.Get("min_price"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			api.Err(w, r, domain.Errorf(domain.EINVALID, "Invalid min_price"))
			return
		}
		params.MinPrice = &p
	}
	if raw := q.Get("max_price"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			api.Err(w, r, domain.Errorf(domain.EINVALID, "Invalid max_price"))
			return
		}
		params.MaxPrice = &p
	}

	books, total, err := h.service.Search(r.Context(), params)
	if err != nil {
		api.Err(w, r, err)
		return
	}

	api.OK(w, http.StatusOK, "Search completed successfully", map[string]interface{}{
		"books": books,
		"total": total,
	})
}
