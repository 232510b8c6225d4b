// internal/cart/handler.go
package cart

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"inkvault/internal/api"
	"inkvault/internal/domain"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// HandleAddItem serves POST /cart/items.
func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookID   uuid.UUID `json:"book_id"`
		Quantity int       `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Err(w, r, domain.Errorf(domain.EINVALID, "Invalid request body"))
		return
	}

	line, err := h.service.AddItem(r.Context(), api.Subject(r.Context()), req.BookID, req.Quantity)
	if err != nil {
		api.Err(w, r, err)
		return
	}

	api.OK(w, http.StatusCreated, "Item added to cart", line)
}

// HandleGetCart serves GET /cart.
func (h *Handler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetCart(r.Context(), api.Subject(r.Context()))
	if err != nil {
		api.Err(w, r, err)
		return
	}
	api.OK(w, http.StatusOK, "Cart retrieved successfully", view)
}

// HandleUpdateItem serves PUT /cart/items/{id}?quantity=. Quantity 0 removes
// the line.
func (h *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	lineID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.Err(w, r, domain.Errorf(domain.EINVALID, "Invalid cart item ID"))
		return
	}

	raw := r.URL.Query().Get("quantity")
	quantity, err := strconv.Atoi(raw)
	if err != nil {
		api.Err(w, r, domain.Errorf(domain.EINVALID, "Invalid quantity"))
		return
	}

	subject := api.Subject(r.Context())
	if quantity == 0 {
		if err := h.service.RemoveItem(r.Context(), subject, lineID); err != nil {
			api.Err(w, r, err)
			return
		}
		api.OK(w, http.StatusOK, "Item removed from cart", nil)
		return
	}

	if err := h.service.UpdateQuantity(r.Context(), subject, lineID, quantity); err != nil {
		api.Err(w, r, err)
		return
	}
	api.OK(w, http.StatusOK, "Cart item updated", map[string]interface{}{
		"id":       lineID,
		"quantity": quantity,
	})
}

// HandleRemoveItem serves DELETE /cart/items/{id}.
func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	lineID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.Err(w, r, domain.Errorf(domain.EINVALID, "Invalid cart item ID"))
		return
	}

	if err := h.service.RemoveItem(r.Context(), api.Subject(r.Context()), lineID); err != nil {
		api.Err(w, r, err)
		return
	}
	api.OK(w, http.StatusOK, "Item removed from cart", nil)
}

// HandleClearCart serves DELETE /cart.
func (h *Handler) HandleClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCart(r.Context(), api.Subject(r.Context())); err != nil {
		api.Err(w, r, err)
		return
	}
	api.OK(w, http.StatusOK, "Cart cleared", nil)
}
