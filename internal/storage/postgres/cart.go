package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/campomarket/storefront/internal/domain/cart"
)

var _ cart.Store = (*CartStore)(nil)

// CartStore persists one JSONB cart snapshot per session.
type CartStore struct {
	pool *pgxpool.Pool
}

// NewCartStore returns a CartStore using the given pool.
func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

// Save upserts the session's snapshot.
func (s *CartStore) Save(ctx context.Context, sessionID string, snap cart.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "marshal cart snapshot")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO carts (session_id, snapshot, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (session_id)
		DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = now()`,
		sessionID, data)
	if err != nil {
		return errors.Wrapf(err, "save cart %q", sessionID)
	}
	return nil
}

// Load reads the session's snapshot. A missing row or a snapshot that
// no longer unmarshals both report ok=false: malformed stored state is
// treated as an empty cart, never a fatal error.
func (s *CartStore) Load(ctx context.Context, sessionID string) (cart.Snapshot, bool, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT snapshot FROM carts WHERE session_id = $1`, sessionID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return cart.Snapshot{}, false, nil
	}
	if err != nil {
		return cart.Snapshot{}, false, errors.Wrapf(err, "load cart %q", sessionID)
	}

	var snap cart.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		zctx.From(ctx).Warn("discarding malformed cart snapshot",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return cart.Snapshot{}, false, nil
	}
	return snap, true, nil
}

// Delete removes the session's snapshot; absent rows are a no-op.
func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM carts WHERE session_id = $1`, sessionID); err != nil {
		return errors.Wrapf(err, "delete cart %q", sessionID)
	}
	return nil
}
