package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campomarket/storefront/internal/domain/order"
)

type updateStatusRequest struct {
	Status string `json:"status"`
}

// orderResponse is the immutable order record as returned over the
// wire. Items and pricing are the snapshots frozen at completion.
type orderResponse struct {
	ID        string             `json:"id"`
	Number    string             `json:"number"`
	Items     []lineItemResponse `json:"items"`
	Pricing   breakdownResponse  `json:"pricing"`
	Payment   order.Payment      `json:"payment"`
	Delivery  order.Delivery     `json:"delivery"`
	Status    string             `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

// ListOrders returns the order history of the user identified by the
// Authorization bearer token, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	user, err := h.authn.Authenticate(r.Context(), bearerToken(r))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	orders, err := h.orders.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = *toOrderResponse(&orders[i])
	}
	respondJSON(w, http.StatusOK, out)
}

// GetOrder returns a single order by id. Only the order's owner may
// read it; anyone else sees the same 404 as for an unknown id.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	user, err := h.authn.Authenticate(r.Context(), bearerToken(r))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	if o.UserID != user.ID {
		h.respondDomainError(w, r, order.ErrNotFound)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(o))
}

// UpdateOrderStatus transitions an order along its lifecycle, scoped to
// the owner like GetOrder.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	user, err := h.authn.Authenticate(r.Context(), bearerToken(r))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	var req updateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "orderID")
	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	if o.UserID != user.ID {
		h.respondDomainError(w, r, order.ErrNotFound)
		return
	}

	o, err = h.orders.UpdateStatus(r.Context(), id, order.Status(req.Status))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(o))
}

func bearerToken(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func toOrderResponse(o *order.Order) *orderResponse {
	items := make([]lineItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = lineItemResponse{
			ProductID:   it.ProductID,
			UnitPrice:   it.UnitPrice.Round().Amount.StringFixed(2),
			Quantity:    it.Quantity,
			Unit:        it.Unit,
			MinOrderQty: it.MinOrderQty,
		}
	}
	return &orderResponse{
		ID:        o.ID,
		Number:    o.Number,
		Items:     items,
		Pricing:   toBreakdownResponse(o.Pricing),
		Payment:   o.Payment,
		Delivery:  o.Delivery,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
	}
}
