package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campomarket/storefront/internal/domain/cart"
	"github.com/campomarket/storefront/internal/domain/pricing"
)

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// cartResponse is the cart view as returned over the wire. Amounts are
// rounded to the currency's minor unit here, at the display edge;
// internal arithmetic keeps full precision.
type cartResponse struct {
	Items     []lineItemResponse `json:"items"`
	Currency  string             `json:"currency"`
	Rate      string             `json:"rate"`
	Breakdown breakdownResponse  `json:"breakdown"`
}

type lineItemResponse struct {
	ProductID   string `json:"product_id"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Unit        string `json:"unit"`
	MinOrderQty int    `json:"min_order_qty"`
}

type breakdownResponse struct {
	Currency  string `json:"currency"`
	Subtotal  string `json:"subtotal"`
	Logistics string `json:"logistics"`
	Tax       string `json:"tax"`
	Total     string `json:"total"`
}

// GetCart returns the session's cart, creating an empty one on first
// access.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.Get(r.Context(), sessionID(r))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(view))
}

// AddItem adds a product to the cart, accumulating quantity when the
// product is already present.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	view, err := h.carts.AddItem(r.Context(), sessionID(r), req.ProductID, req.Quantity)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCartResponse(view))
}

// UpdateQuantity sets a line item's quantity, clamped to the product's
// minimum order quantity.
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	view, err := h.carts.UpdateQuantity(r.Context(), sessionID(r), chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(view))
}

// RemoveItem removes a line item; removing an absent product is a no-op.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.RemoveItem(r.Context(), sessionID(r), chi.URLParam(r, "productID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(view))
}

// ToggleCurrency flips the cart between USD and BS display.
func (h *Handler) ToggleCurrency(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.ToggleCurrency(r.Context(), sessionID(r))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(view))
}

// ClearCart empties the session's cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.Clear(r.Context(), sessionID(r))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(view))
}

func toCartResponse(v cart.View) cartResponse {
	items := make([]lineItemResponse, len(v.Items))
	for i, it := range v.Items {
		items[i] = lineItemResponse{
			ProductID:   it.ProductID,
			UnitPrice:   it.UnitPrice.Round().Amount.StringFixed(2),
			Quantity:    it.Quantity,
			Unit:        it.Unit,
			MinOrderQty: it.MinOrderQty,
		}
	}
	return cartResponse{
		Items:     items,
		Currency:  string(v.Currency),
		Rate:      v.Rate.String(),
		Breakdown: toBreakdownResponse(v.Breakdown),
	}
}

func toBreakdownResponse(b pricing.Breakdown) breakdownResponse {
	return breakdownResponse{
		Currency:  string(b.Currency),
		Subtotal:  b.Subtotal.Round().Amount.StringFixed(2),
		Logistics: b.Logistics.Round().Amount.StringFixed(2),
		Tax:       b.Tax.Round().Amount.StringFixed(2),
		Total:     b.Total.Round().Amount.StringFixed(2),
	}
}
