package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/campomarket/storefront/internal/domain/cart"
	"github.com/campomarket/storefront/internal/domain/pricing"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var (
	// ErrNotFound is returned when the requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidTransition is returned for a status change the lifecycle
	// does not permit.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// transitions lists the permitted next states. Cancellation is allowed
// from any non-terminal state; delivered and cancelled are terminal.
var transitions = map[Status][]Status{
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// CanTransitionTo reports whether next is a permitted successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Delivery holds the shipping destination captured at checkout.
type Delivery struct {
	Recipient string `json:"recipient"`
	Phone     string `json:"phone"`
	State     string `json:"state"`
	City      string `json:"city"`
	Address   string `json:"address"`
	Notes     string `json:"notes,omitempty"`
}

// Payment records how a completed order was paid: the method kind and
// the gateway confirmation reference.
type Payment struct {
	Method    string `json:"method"`
	Reference string `json:"reference"`
}

// Order is an immutable point-in-time record of a completed purchase.
// Items and Pricing are snapshots: later cart or price changes never
// alter an existing order. Only Status changes after creation.
type Order struct {
	ID        string            `json:"id"`
	Number    string            `json:"number"`
	UserID    string            `json:"user_id"`
	SessionID string            `json:"session_id"`
	Items     []cart.LineItem   `json:"items"`
	Pricing   pricing.Breakdown `json:"pricing"`
	Payment   Payment           `json:"payment"`
	Delivery  Delivery          `json:"delivery"`
	Status    Status            `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// Repository defines persistence operations for orders. Orders live
// independently of the cart and survive cart clears.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}
