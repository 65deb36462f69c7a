package cart

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/campomarket/storefront/internal/domain/catalog"
	"github.com/campomarket/storefront/internal/domain/money"
	"github.com/campomarket/storefront/internal/domain/pricing"
)

// RateSource supplies the current USD→BS exchange rate. Implementations
// are expected to fall back to cached or default values rather than
// fail on transient source errors.
type RateSource interface {
	Rate(ctx context.Context) (decimal.Decimal, error)
}

// Store persists cart snapshots keyed by session. A Load of a session
// with no (or unreadable) stored state reports ok=false, never an error
// the caller must treat as fatal.
type Store interface {
	Save(ctx context.Context, sessionID string, snap Snapshot) error
	Load(ctx context.Context, sessionID string) (snap Snapshot, ok bool, err error)
	Delete(ctx context.Context, sessionID string) error
}

// View is the read model handed to transport: items, display currency,
// and the breakdown they price to.
type View struct {
	Items     []LineItem        `json:"items"`
	Currency  money.Currency    `json:"currency"`
	Rate      decimal.Decimal   `json:"rate"`
	Breakdown pricing.Breakdown `json:"breakdown"`
}

// Service owns the live carts, one per session, and keeps the Store in
// sync after every mutation. Product facts (price, unit, minimum order
// quantity) are resolved from the catalog at add time.
type Service struct {
	policy   pricing.Policy
	products catalog.Repository
	store    Store
	rates    RateSource

	mu    sync.Mutex
	carts map[string]*Cart
}

// NewService creates a cart Service.
func NewService(policy pricing.Policy, products catalog.Repository, store Store, rates RateSource) *Service {
	return &Service{
		policy:   policy,
		products: products,
		store:    store,
		rates:    rates,
		carts:    make(map[string]*Cart),
	}
}

// Get returns the current view of the session's cart, rehydrating it
// from the store on first access.
func (s *Service) Get(ctx context.Context, sessionID string) (View, error) {
	c, err := s.cart(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	return view(c), nil
}

// AddItem looks the product up in the catalog and adds it to the cart,
// accumulating quantity when the product is already present.
func (s *Service) AddItem(ctx context.Context, sessionID, productID string, quantity int) (View, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return View{}, errors.Wrapf(err, "product %s", productID)
	}

	c, err := s.cart(ctx, sessionID)
	if err != nil {
		return View{}, err
	}

	unitPrice, err := money.New(p.Price, money.USD)
	if err != nil {
		return View{}, errors.Wrap(err, "catalog price")
	}
	if err := c.AddItem(p.ID, unitPrice, quantity, p.Unit, p.MinOrderQty); err != nil {
		return View{}, err
	}
	return s.persist(ctx, sessionID, c)
}

// UpdateQuantity sets a line item quantity, clamped to the product's
// minimum order quantity.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (View, error) {
	c, err := s.cart(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	if err := c.UpdateQuantity(productID, quantity); err != nil {
		return View{}, err
	}
	return s.persist(ctx, sessionID, c)
}

// RemoveItem removes a line item; absent products are a no-op.
func (s *Service) RemoveItem(ctx context.Context, sessionID, productID string) (View, error) {
	c, err := s.cart(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	c.RemoveItem(productID)
	return s.persist(ctx, sessionID, c)
}

// ToggleCurrency flips the display currency. Switching to BS refreshes
// the rate from the rate source; the fetch happens outside the cart
// lock and its result is dropped if the cart mutated meanwhile.
func (s *Service) ToggleCurrency(ctx context.Context, sessionID string) (View, error) {
	c, err := s.cart(ctx, sessionID)
	if err != nil {
		return View{}, err
	}

	if c.Currency() == money.BS {
		if err := c.SetDisplay(money.USD, decimal.NewFromInt(1), c.Generation()); err != nil {
			return View{}, err
		}
		return s.persist(ctx, sessionID, c)
	}

	gen := c.Generation()
	rate, err := s.rates.Rate(ctx)
	if err != nil {
		return View{}, errors.Wrap(err, "fetch exchange rate")
	}

	switch err := c.SetDisplay(money.BS, rate, gen); {
	case errors.Is(err, ErrStaleRate):
		// The cart changed while the rate was in flight. Keep the
		// cart as it is now and report its current state.
		zctx.From(ctx).Debug("discarding stale exchange rate",
			zap.String("session_id", sessionID),
			zap.String("rate", rate.String()))
		return view(c), nil
	case err != nil:
		return View{}, err
	}
	return s.persist(ctx, sessionID, c)
}

// Clear empties the cart, used after order completion.
func (s *Service) Clear(ctx context.Context, sessionID string) (View, error) {
	c, err := s.cart(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	c.Clear()
	return s.persist(ctx, sessionID, c)
}

// Cart exposes the live aggregate for a session. The checkout
// orchestrator uses it to snapshot items and clear on completion.
func (s *Service) Cart(ctx context.Context, sessionID string) (*Cart, error) {
	return s.cart(ctx, sessionID)
}

// Persist writes the session's current snapshot to the store. Exposed
// for collaborators (checkout) that mutate the aggregate directly.
func (s *Service) Persist(ctx context.Context, sessionID string) error {
	c, err := s.cart(ctx, sessionID)
	if err != nil {
		return err
	}
	_, err = s.persist(ctx, sessionID, c)
	return err
}

func (s *Service) cart(ctx context.Context, sessionID string) (*Cart, error) {
	s.mu.Lock()
	if c, ok := s.carts[sessionID]; ok {
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()

	// Rehydrate outside the map lock; a racing request for the same
	// session resolves below with the first stored cart winning.
	snap, ok, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}

	var c *Cart
	if ok {
		c = Restore(snap, s.policy)
	} else {
		c = New(s.policy)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.carts[sessionID]; ok {
		return existing, nil
	}
	s.carts[sessionID] = c
	return c, nil
}

func (s *Service) persist(ctx context.Context, sessionID string, c *Cart) (View, error) {
	if err := s.store.Save(ctx, sessionID, c.Snapshot()); err != nil {
		return View{}, errors.Wrap(err, "save cart")
	}
	return view(c), nil
}

func view(c *Cart) View {
	snap, bd := c.State()
	return View{
		Items:     snap.Items,
		Currency:  snap.Currency,
		Rate:      snap.Rate,
		Breakdown: bd,
	}
}
