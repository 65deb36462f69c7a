package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campomarket/storefront/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
// Item snapshots, the frozen pricing breakdown, and the delivery record
// are serialized to JSONB.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository using the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshal order items")
	}
	breakdown, err := json.Marshal(o.Pricing)
	if err != nil {
		return errors.Wrap(err, "marshal order pricing")
	}
	delivery, err := json.Marshal(o.Delivery)
	if err != nil {
		return errors.Wrap(err, "marshal order delivery")
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO orders (id, number, user_id, session_id, items, pricing,
			payment_method, payment_reference, delivery, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		o.ID, o.Number, o.UserID, o.SessionID, items, breakdown,
		o.Payment.Method, o.Payment.Reference, delivery, string(o.Status), o.CreatedAt)
	if err != nil {
		return errors.Wrapf(err, "create order %q", o.ID)
	}
	return nil
}

const orderColumns = `id, number, user_id, session_id, items, pricing,
	payment_method, payment_reference, delivery, status, created_at`

// GetByID returns a single order.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

	o, err := scanOrder(row)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, order.ErrNotFound
	case err != nil:
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	return o, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// UpdateStatus sets an order's status. Transition legality is enforced
// by the order service before this is called.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return errors.Wrapf(err, "update order %q", id)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o         order.Order
		items     []byte
		breakdown []byte
		delivery  []byte
		status    string
	)
	err := row.Scan(&o.ID, &o.Number, &o.UserID, &o.SessionID, &items, &breakdown,
		&o.Payment.Method, &o.Payment.Reference, &delivery, &status, &o.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, errors.Wrap(err, "unmarshal items")
	}
	if err := json.Unmarshal(breakdown, &o.Pricing); err != nil {
		return nil, errors.Wrap(err, "unmarshal pricing")
	}
	if err := json.Unmarshal(delivery, &o.Delivery); err != nil {
		return nil, errors.Wrap(err, "unmarshal delivery")
	}
	o.Status = order.Status(status)
	return &o, nil
}
