package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/campomarket/storefront/internal/domain/money"
)

var _ Gateway = (*Simulator)(nil)

// Simulator is the non-production Gateway: it validates the details,
// optionally waits an injected delay (cancellable), and approves the
// payment with a generated reference. A real provider integration
// implements the same interface and replaces it in wiring.
type Simulator struct {
	delay time.Duration
	now   func() time.Time
}

// NewSimulator creates a Simulator. delay of zero authorizes
// immediately; a positive delay mimics provider latency.
func NewSimulator(delay time.Duration) *Simulator {
	return &Simulator{delay: delay, now: time.Now}
}

// Authorize validates the payment details and returns an approved
// confirmation. It honours context cancellation during the simulated
// latency window.
func (s *Simulator) Authorize(ctx context.Context, details Details, amount money.Money) (Confirmation, error) {
	if err := details.Validate(); err != nil {
		return Confirmation{}, err
	}
	if amount.Amount.IsNegative() {
		return Confirmation{}, errors.Wrap(ErrDeclined, "negative amount")
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Confirmation{}, ctx.Err()
		case <-timer.C:
		}
	}

	return Confirmation{
		Reference:    "sim-" + uuid.New().String(),
		AuthorizedAt: s.now().UTC(),
	}, nil
}
