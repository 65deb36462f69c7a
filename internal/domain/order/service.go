package order

import (
	"context"

	"github.com/go-faster/errors"
)

// Service exposes order history reads and status transitions over a
// Repository, enforcing the lifecycle rules.
type Service struct {
	orders Repository
}

// NewService creates an order Service.
func NewService(orders Repository) *Service {
	return &Service{orders: orders}
}

// Get returns a single order by id.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %s", id)
	}
	return o, nil
}

// ListByUser returns the user's order history, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	list, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return list, nil
}

// UpdateStatus transitions an order to the next status after checking
// the move is permitted from its current state.
func (s *Service) UpdateStatus(ctx context.Context, id string, next Status) (*Order, error) {
	if !next.Valid() {
		return nil, errors.Wrapf(ErrInvalidTransition, "unknown status %q", next)
	}

	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %s", id)
	}
	if !o.Status.CanTransitionTo(next) {
		return nil, errors.Wrapf(ErrInvalidTransition, "%s -> %s", o.Status, next)
	}

	if err := s.orders.UpdateStatus(ctx, id, next); err != nil {
		return nil, errors.Wrapf(err, "update order %s", id)
	}
	o.Status = next
	return o, nil
}
