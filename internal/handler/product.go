package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campomarket/storefront/internal/domain/catalog"
)

// productResponse is the catalog item as returned over the wire. Prices
// are canonical USD; the cart endpoints handle display conversion.
type productResponse struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Price       string        `json:"price"`
	Category    string        `json:"category"`
	Unit        string        `json:"unit"`
	Stock       int           `json:"stock"`
	MinOrderQty int           `json:"min_order_qty"`
	Image       imageResponse `json:"image"`
}

type imageResponse struct {
	Thumbnail string `json:"thumbnail"`
	Mobile    string `json:"mobile"`
	Desktop   string `json:"desktop"`
}

// ListProducts returns every product in the catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toProductResponses(products))
}

// SearchProducts returns products matching the q query parameter,
// expanded through the synonym dictionary. A blank query lists all.
func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.search.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toProductResponses(products))
}

// GetProduct returns a single product by ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toProductResponse(*p))
}

func (h *Handler) toProductResponses(products []catalog.Product) []productResponse {
	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = h.toProductResponse(p)
	}
	return out
}

// toProductResponse converts a catalog product to its wire form. Image
// paths are prefixed with the configured imageBaseURL.
func (h *Handler) toProductResponse(p catalog.Product) productResponse {
	base := h.imageBaseURL
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price.StringFixed(2),
		Category:    p.Category,
		Unit:        p.Unit,
		Stock:       p.Stock,
		MinOrderQty: p.MinOrderQty,
		Image: imageResponse{
			Thumbnail: base + p.Image.Thumbnail,
			Mobile:    base + p.Image.Mobile,
			Desktop:   base + p.Image.Desktop,
		},
	}
}
