// Package cart implements the shopping cart aggregate. The cart is the
// single writer of its own state: every mutation recomputes the pricing
// breakdown before returning, so readers never observe totals computed
// from a different item set.
package cart

import (
	"sort"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/campomarket/storefront/internal/domain/money"
	"github.com/campomarket/storefront/internal/domain/pricing"
)

// Sentinel errors for cart mutations.
var (
	ErrItemNotFound = errors.New("item not in cart")
	// ErrStaleRate is returned when an exchange rate fetched for an
	// earlier cart generation arrives after the cart has mutated again.
	ErrStaleRate = errors.New("stale exchange rate discarded")
)

// InvalidQuantityError indicates an add with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return errors.Errorf("quantity %d invalid for product %s", e.Quantity, e.ProductID).Error()
}

// LineItem is a product entry in the cart. UnitPrice is always the
// canonical USD price; display conversion happens during breakdown
// computation.
type LineItem struct {
	ProductID   string      `json:"product_id"`
	UnitPrice   money.Money `json:"unit_price"`
	Quantity    int         `json:"quantity"`
	Unit        string      `json:"unit"`
	MinOrderQty int         `json:"min_order_qty"`
}

// Snapshot is the serializable cart state persisted by the Store.
type Snapshot struct {
	Items    []LineItem      `json:"items"`
	Currency money.Currency  `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
}

// Cart holds the line items and the cached breakdown for one session.
// All methods are safe for concurrent use; mutations are serialized by
// an internal mutex.
type Cart struct {
	mu        sync.Mutex
	items     map[string]*LineItem
	currency  money.Currency
	rate      decimal.Decimal
	policy    pricing.Policy
	breakdown pricing.Breakdown
	gen       uint64
}

// New creates an empty cart displaying USD.
func New(policy pricing.Policy) *Cart {
	return &Cart{
		items:     make(map[string]*LineItem),
		currency:  money.USD,
		rate:      decimal.NewFromInt(1),
		policy:    policy,
		breakdown: pricing.ZeroBreakdown(money.USD),
	}
}

// Restore rebuilds a cart from a persisted snapshot, recomputing the
// breakdown rather than trusting any stored totals.
func Restore(snap Snapshot, policy pricing.Policy) *Cart {
	c := New(policy)
	if snap.Currency != "" {
		c.currency = snap.Currency
	}
	if snap.Rate.IsPositive() {
		c.rate = snap.Rate
	}
	for i := range snap.Items {
		item := snap.Items[i]
		if item.Quantity <= 0 {
			continue
		}
		// Stored snapshots are not trusted to respect the floor either.
		item.Quantity = clampMin(item.Quantity, item.MinOrderQty)
		c.items[item.ProductID] = &item
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recompute()
	return c
}

// AddItem inserts a line item or, when the product is already in the
// cart, accumulates its quantity. The stored quantity never falls below
// minOrderQty. Adding never fails for a duplicate product.
func (c *Cart) AddItem(productID string, unitPrice money.Money, quantity int, unit string, minOrderQty int) error {
	if quantity <= 0 {
		return &InvalidQuantityError{ProductID: productID, Quantity: quantity}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.items[productID]; ok {
		existing.Quantity += quantity
	} else {
		c.items[productID] = &LineItem{
			ProductID:   productID,
			UnitPrice:   unitPrice,
			Quantity:    clampMin(quantity, minOrderQty),
			Unit:        unit,
			MinOrderQty: minOrderQty,
		}
	}
	c.recompute()
	return nil
}

// UpdateQuantity sets a line item's quantity, clamped to the item's
// minimum order quantity floor.
func (c *Cart) UpdateQuantity(productID string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[productID]
	if !ok {
		return errors.Wrapf(ErrItemNotFound, "%s", productID)
	}
	item.Quantity = clampMin(quantity, item.MinOrderQty)
	c.recompute()
	return nil
}

// RemoveItem deletes a line item. Removing an absent product is a no-op.
func (c *Cart) RemoveItem(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[productID]; !ok {
		return
	}
	delete(c.items, productID)
	c.recompute()
}

// Clear empties the cart and resets the breakdown to zero in the
// current display currency.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*LineItem)
	c.recompute()
}

// SetDisplay switches the display currency using the given rate,
// provided the cart has not mutated since expectedGen was observed.
// A stale rate (fetched for an older generation) is discarded with
// ErrStaleRate so an in-flight fetch can never clobber a cart that
// changed underneath it.
func (c *Cart) SetDisplay(currency money.Currency, rate decimal.Decimal, expectedGen uint64) error {
	if currency == money.BS && !rate.IsPositive() {
		return errors.Wrapf(money.ErrInvalidRate, "%s", rate)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != expectedGen {
		return ErrStaleRate
	}
	c.currency = currency
	if currency == money.BS {
		c.rate = rate
	}
	c.recompute()
	return nil
}

// Currency returns the current display currency.
func (c *Cart) Currency() money.Currency {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currency
}

// Generation returns the mutation counter. Callers record it before a
// slow fetch and pass it to SetDisplay to detect staleness.
func (c *Cart) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Items returns the line items as a sorted deep copy.
func (c *Cart) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.itemsLocked()
}

// Breakdown returns the cached pricing breakdown. It always reflects
// the current item set because every mutation recomputes it before
// releasing the lock.
func (c *Cart) Breakdown() pricing.Breakdown {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.breakdown
}

// Snapshot returns the persistable state of the cart.
func (c *Cart) Snapshot() Snapshot {
	snap, _ := c.State()
	return snap
}

// State returns the snapshot and the breakdown it prices to under a
// single lock acquisition, so callers cannot observe items from one
// mutation and totals from another.
func (c *Cart) State() (Snapshot, pricing.Breakdown) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Items:    c.itemsLocked(),
		Currency: c.currency,
		Rate:     c.rate,
	}, c.breakdown
}

func (c *Cart) itemsLocked() []LineItem {
	items := make([]LineItem, 0, len(c.items))
	for _, item := range c.items {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items
}

// recompute refreshes the cached breakdown and bumps the generation.
// Must be called with c.mu held. With a validated rate the computation
// cannot fail; a failure would indicate corrupted state, so the cart
// falls back to the zero breakdown rather than serving stale totals.
func (c *Cart) recompute() {
	items := make([]pricing.Item, 0, len(c.items))
	for _, item := range c.items {
		items = append(items, pricing.Item{UnitPrice: item.UnitPrice, Quantity: item.Quantity})
	}
	bd, err := pricing.ComputeBreakdown(items, c.currency, c.rate, c.policy)
	if err != nil {
		bd = pricing.ZeroBreakdown(c.currency)
	}
	c.breakdown = bd
	c.gen++
}

func clampMin(quantity, floor int) int {
	if floor > 0 && quantity < floor {
		return floor
	}
	return quantity
}
