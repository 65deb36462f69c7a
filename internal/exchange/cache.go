package exchange

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache wraps a Source with a staleness window and collapses concurrent
// refreshes into a single in-flight fetch. When the source fails it
// serves the last-known-good rate regardless of age, and before any
// fetch ever succeeded, the configured default. Rate lookups therefore
// never fail; transient source trouble is logged as a warning.
type Cache struct {
	source      Source
	ttl         time.Duration
	defaultRate decimal.Decimal
	now         func() time.Time

	sf singleflight.Group

	mu        sync.RWMutex
	rate      decimal.Decimal
	fetchedAt time.Time
}

// NewCache creates a Cache. ttl is the staleness window (6h in
// production wiring); defaultRate is the hardcoded last resort.
func NewCache(source Source, ttl time.Duration, defaultRate decimal.Decimal) *Cache {
	return &Cache{
		source:      source,
		ttl:         ttl,
		defaultRate: defaultRate,
		now:         time.Now,
	}
}

// Rate returns the current USD→BS rate, refreshing lazily when the
// cached value is older than the staleness window.
func (c *Cache) Rate(ctx context.Context) (decimal.Decimal, error) {
	if rate, ok := c.fresh(); ok {
		return rate, nil
	}

	v, _, _ := c.sf.Do("usd-bs", func() (any, error) {
		// A caller that queued behind the winning fetch sees its result.
		if rate, ok := c.fresh(); ok {
			return rate, nil
		}

		rate, err := c.source.Fetch(ctx)
		if err == nil {
			c.mu.Lock()
			c.rate = rate
			c.fetchedAt = c.now()
			c.mu.Unlock()
			return rate, nil
		}

		c.mu.RLock()
		last := c.rate
		c.mu.RUnlock()
		if last.IsPositive() {
			zctx.From(ctx).Warn("exchange rate refresh failed, serving last known good",
				zap.String("rate", last.String()),
				zap.Error(err))
			return last, nil
		}

		zctx.From(ctx).Warn("exchange rate unavailable, serving default",
			zap.String("rate", c.defaultRate.String()),
			zap.Error(err))
		return c.defaultRate, nil
	})
	return v.(decimal.Decimal), nil
}

func (c *Cache) fresh() (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.rate.IsPositive() && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.rate, true
	}
	return decimal.Decimal{}, false
}
