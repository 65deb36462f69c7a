// Package handler exposes the storefront over HTTP. Routes delegate to
// the domain services and map domain errors onto JSON error responses.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/campomarket/storefront/internal/domain/auth"
	"github.com/campomarket/storefront/internal/domain/cart"
	"github.com/campomarket/storefront/internal/domain/catalog"
	"github.com/campomarket/storefront/internal/domain/checkout"
	"github.com/campomarket/storefront/internal/domain/money"
	"github.com/campomarket/storefront/internal/domain/order"
	"github.com/campomarket/storefront/internal/payment"
)

// sessionHeader carries the client-generated cart session identifier.
const sessionHeader = "X-Session-ID"

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product
	// responses. When empty, paths are returned as stored.
	ImageBaseURL string
}

// Handler wires the domain services to the chi router.
type Handler struct {
	products     catalog.Repository
	search       *catalog.Searcher
	carts        *cart.Service
	checkouts    *checkout.Manager
	orders       *order.Service
	authn        auth.Provider
	imageBaseURL string
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg Config,
	products catalog.Repository,
	search *catalog.Searcher,
	carts *cart.Service,
	checkouts *checkout.Manager,
	orders *order.Service,
	authn auth.Provider,
) *Handler {
	return &Handler{
		products:     products,
		search:       search,
		carts:        carts,
		checkouts:    checkouts,
		orders:       orders,
		authn:        authn,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Routes mounts every storefront endpoint on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/product", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/search", h.SearchProducts)
		r.Get("/{productID}", h.GetProduct)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Use(h.requireSession)
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Patch("/items/{productID}", h.UpdateQuantity)
		r.Delete("/items/{productID}", h.RemoveItem)
		r.Post("/currency", h.ToggleCurrency)
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Use(h.requireSession)
		r.Post("/", h.BeginCheckout)
		r.Get("/", h.GetCheckout)
		r.Delete("/", h.CancelCheckout)
		r.Post("/auth", h.SubmitAuth)
		r.Post("/fiscal", h.SubmitFiscal)
		r.Post("/delivery", h.SubmitDelivery)
		r.Post("/payment", h.SubmitPayment)
		r.Post("/back", h.StepBack)
		r.Post("/complete", h.CompleteCheckout)
	})

	r.Route("/order", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Get("/{orderID}", h.GetOrder)
		r.Patch("/{orderID}/status", h.UpdateOrderStatus)
	})

	return r
}

type ctxKey int

const sessionKey ctxKey = iota

// requireSession rejects requests without an X-Session-ID header and
// stashes the session in the request context for the handlers below.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := r.Header.Get(sessionHeader)
		if sid == "" {
			respondError(w, http.StatusBadRequest, "missing "+sessionHeader+" header")
			return
		}
		ctx := contextWithSession(r.Context(), sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func contextWithSession(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sessionKey, sid)
}

func sessionID(r *http.Request) string {
	sid, _ := r.Context().Value(sessionKey).(string)
	return sid
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondDomainError maps domain errors onto HTTP statuses. Anything
// unrecognized is logged and reported as a 500 without leaking the
// underlying error text.
func (h *Handler) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *checkout.ValidationError
	if errors.As(err, &vErr) {
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    http.StatusUnprocessableEntity,
			Message: vErr.Error(),
			Fields:  vErr.Fields,
		})
		return
	}

	var iqErr *cart.InvalidQuantityError
	if errors.As(err, &iqErr) {
		respondError(w, http.StatusUnprocessableEntity, iqErr.Error())
		return
	}

	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, checkout.ErrNoCheckout):
		respondError(w, http.StatusNotFound, checkout.ErrNoCheckout.Error())
	case errors.Is(err, auth.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, auth.ErrUnauthenticated.Error())
	case errors.Is(err, payment.ErrDeclined):
		respondError(w, http.StatusPaymentRequired, payment.ErrDeclined.Error())
	case errors.Is(err, checkout.ErrStepNotReached),
		errors.Is(err, checkout.ErrInvalidStep),
		errors.Is(err, checkout.ErrAlreadyCompleted),
		errors.Is(err, order.ErrInvalidTransition):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrPaymentRequired),
		errors.Is(err, payment.ErrUnknownMethod),
		errors.Is(err, payment.ErrMissingDetails),
		errors.Is(err, money.ErrUnknownCurrency):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
