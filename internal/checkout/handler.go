// internal/checkout/handler.go
package checkout

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"inkvault/internal/api"
	"inkvault/internal/domain"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// HandleCreateOrder serves POST /checkout. The response is 201 whenever an
// order was persisted, regardless of the payment outcome.
func (h *Handler) HandleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Err(w, r, domain.Errorf(domain.EINVALID, "Invalid request body"))
		return
	}

	result, err := h.service.CreateOrder(r.Context(), api.Subject(r.Context()), input)
	if err != nil {
		api.Err(w, r, err)
		return
	}

	api.OK(w, http.StatusCreated, "Order created", result)
}

// HandleGetOrder serves GET /checkout/orders/{order_number}.
func (h *Handler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "order_number"), api.Subject(r.Context()))
	if err != nil {
		api.Err(w, r, err)
		return
	}
	api.OK(w, http.StatusOK, "Order retrieved successfully", detail)
}

// HandleListOrders serves GET /checkout/orders?limit=.
func (h *Handler) HandleListOrders(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	orders, err := h.service.ListOrders(r.Context(), api.Subject(r.Context()), limit)
	if err != nil {
		api.Err(w, r, err)
		return
	}
	api.OK(w, http.StatusOK, "Orders retrieved successfully", map[string]interface{}{
		"orders": orders,
		"total":  len(orders),
	})
}
