// Package memory provides in-memory storage used by tests and by the
// server when it runs without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/campomarket/storefront/internal/domain/cart"
	"github.com/campomarket/storefront/internal/domain/catalog"
	"github.com/campomarket/storefront/internal/domain/order"
)

var _ catalog.Repository = (*ProductRepository)(nil)

// ProductRepository keeps the catalog in a map.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]catalog.Product
}

func NewProductRepository(products ...catalog.Product) *ProductRepository {
	r := &ProductRepository{products: make(map[string]catalog.Product, len(products))}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *ProductRepository) Put(p catalog.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
}

func (r *ProductRepository) List(ctx context.Context) ([]catalog.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]catalog.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

var _ cart.Store = (*CartStore)(nil)

// CartStore keeps cart snapshots keyed by session.
type CartStore struct {
	mu    sync.RWMutex
	carts map[string]cart.Snapshot
}

func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[string]cart.Snapshot)}
}

func (s *CartStore) Save(ctx context.Context, sessionID string, snap cart.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[sessionID] = snap
	return nil
}

func (s *CartStore) Load(ctx context.Context, sessionID string) (cart.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.carts[sessionID]
	return snap, ok, nil
}

func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository keeps orders in memory, insertion ordered.
type OrderRepository struct {
	mu     sync.RWMutex
	orders []order.Order
	byID   map[string]int
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{byID: make(map[string]int)}
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[o.ID] = len(r.orders)
	r.orders = append(r.orders, *o)
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o := r.orders[idx]
	return &o, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []order.Order
	// Newest first.
	for i := len(r.orders) - 1; i >= 0; i-- {
		if r.orders[i].UserID == userID {
			out = append(out, r.orders[i])
		}
	}
	return out, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byID[id]
	if !ok {
		return order.ErrNotFound
	}
	r.orders[idx].Status = status
	return nil
}
