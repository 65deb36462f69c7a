package order

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/campomarket/storefront/internal/domain/cart"
	"github.com/campomarket/storefront/internal/domain/pricing"
)

// Sentinel errors for order creation.
var (
	ErrEmptyOrder          = errors.New("order requires at least one item")
	ErrPaymentNotConfirmed = errors.New("payment confirmation required")
)

// Factory builds immutable orders from a completed checkout. The clock
// is injectable for tests.
type Factory struct {
	now func() time.Time
}

// NewFactory creates a Factory using the wall clock.
func NewFactory() *Factory {
	return &Factory{now: time.Now}
}

// NewFactoryWithClock creates a Factory with an injected clock.
func NewFactoryWithClock(now func() time.Time) *Factory {
	return &Factory{now: now}
}

// Create assembles an order from the cart snapshot and checkout data.
// Items are deep-copied so subsequent cart mutations cannot reach the
// order. The order number is derived from a UUID rather than a
// timestamp, so rapid double submission cannot collide.
func (f *Factory) Create(userID, sessionID string, items []cart.LineItem, breakdown pricing.Breakdown, payment Payment, delivery Delivery) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	if payment.Method == "" || payment.Reference == "" {
		return nil, ErrPaymentNotConfirmed
	}

	snapshot := make([]cart.LineItem, len(items))
	copy(snapshot, items)

	id := uuid.New()
	return &Order{
		ID:        id.String(),
		Number:    orderNumber(id),
		UserID:    userID,
		SessionID: sessionID,
		Items:     snapshot,
		Pricing:   breakdown,
		Payment:   payment,
		Delivery:  delivery,
		Status:    StatusConfirmed,
		CreatedAt: f.now().UTC(),
	}, nil
}

// orderNumber renders a short human-readable reference from the order
// UUID, e.g. "ORD-9F3A216B".
func orderNumber(id uuid.UUID) string {
	compact := strings.ReplaceAll(id.String(), "-", "")
	return "ORD-" + strings.ToUpper(compact[:8])
}
