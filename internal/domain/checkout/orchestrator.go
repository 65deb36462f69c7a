package checkout

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/campomarket/storefront/internal/domain/auth"
	"github.com/campomarket/storefront/internal/domain/cart"
	"github.com/campomarket/storefront/internal/domain/order"
	"github.com/campomarket/storefront/internal/payment"
)

// Deps are the collaborators an Orchestrator needs.
type Deps struct {
	Auth         auth.Provider
	FiscalForm   FiscalForm
	DeliveryForm DeliveryForm
	Gateway      payment.Gateway
	Factory      *order.Factory
	Orders       order.Repository
	Carts        *cart.Service
}

// Orchestrator drives one session's checkout. It is safe for
// concurrent use; all draft access is serialized.
type Orchestrator struct {
	deps      Deps
	sessionID string

	// completeMu serializes whole Complete calls so at most one payment
	// authorization is ever in flight for this checkout.
	completeMu sync.Mutex

	mu        sync.Mutex
	draft     Draft
	completed *order.Order
}

// New creates an Orchestrator for the given session with an empty draft.
func New(sessionID string, deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps, sessionID: sessionID}
}

// Completed reports whether this checkout already produced an order.
func (o *Orchestrator) Completed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.completed != nil
}

// Draft returns a copy of the accumulated draft for pre-filling forms.
func (o *Orchestrator) Draft() Draft {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.draft
}

// SubmitAuth resolves the session token at step 0 and advances to the
// fiscal step.
func (o *Orchestrator) SubmitAuth(ctx context.Context, token string) (Draft, error) {
	user, err := o.deps.Auth.Authenticate(ctx, token)
	if err != nil {
		return Draft{}, errors.Wrap(err, "authenticate")
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.completed != nil {
		return Draft{}, ErrAlreadyCompleted
	}
	o.draft.User = user
	o.advanceLocked(StepFiscal)
	return o.draft, nil
}

// SubmitFiscal validates and stores the fiscal data, advancing to the
// delivery step. Submitting again after backward navigation replaces
// the stored data.
func (o *Orchestrator) SubmitFiscal(data FiscalData) (Draft, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.completed != nil {
		return Draft{}, ErrAlreadyCompleted
	}
	if o.draft.Step < StepFiscal {
		return Draft{}, errors.Wrap(ErrStepNotReached, "fiscal")
	}
	if fields := o.deps.FiscalForm.Validate(data); len(fields) > 0 {
		return Draft{}, &ValidationError{Step: StepFiscal, Fields: fields}
	}
	o.draft.Fiscal = &data
	o.advanceLocked(StepDelivery)
	return o.draft, nil
}

// SubmitDelivery validates and stores the delivery destination,
// advancing to the payment step.
func (o *Orchestrator) SubmitDelivery(info order.Delivery) (Draft, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.completed != nil {
		return Draft{}, ErrAlreadyCompleted
	}
	if o.draft.Step < StepDelivery {
		return Draft{}, errors.Wrap(ErrStepNotReached, "delivery")
	}
	if fields := o.deps.DeliveryForm.Validate(info); len(fields) > 0 {
		return Draft{}, &ValidationError{Step: StepDelivery, Fields: fields}
	}
	o.draft.Delivery = &info
	o.advanceLocked(StepPayment)
	return o.draft, nil
}

// SubmitPayment validates and stores the payment method details. The
// draft stays at the payment step until Complete confirms the payment.
func (o *Orchestrator) SubmitPayment(details payment.Details) (Draft, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.completed != nil {
		return Draft{}, ErrAlreadyCompleted
	}
	if o.draft.Step < StepPayment {
		return Draft{}, errors.Wrap(ErrStepNotReached, "payment")
	}
	if err := details.Validate(); err != nil {
		return Draft{}, &ValidationError{Step: StepPayment, Fields: FieldErrors{"method": err.Error()}}
	}
	o.draft.Payment = &details
	return o.draft, nil
}

// Back moves to an earlier step. Data already entered for later steps
// is preserved and pre-fills on re-entry.
func (o *Orchestrator) Back(to Step) (Draft, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.completed != nil {
		return Draft{}, ErrAlreadyCompleted
	}
	if to < StepAuth || to >= o.draft.Step {
		return Draft{}, errors.Wrapf(ErrInvalidStep, "cannot go back from %s to %s", o.draft.Step, to)
	}
	o.draft.Step = to
	return o.draft, nil
}

// Complete finishes the checkout. The sequence is strict: authorize the
// payment, build the order, persist it, and only then clear the cart.
// Any failure leaves the cart (and the draft) intact so the user can
// retry; the cart is never cleared before the order exists.
//
// Concurrent calls serialize: whichever call wins pays and places the
// order, and every other call then observes it and gets the same order
// with ErrAlreadyCompleted rather than a second charge.
func (o *Orchestrator) Complete(ctx context.Context) (*order.Order, error) {
	o.completeMu.Lock()
	defer o.completeMu.Unlock()

	o.mu.Lock()
	if o.completed != nil {
		done := o.completed
		o.mu.Unlock()
		return done, ErrAlreadyCompleted
	}
	if o.draft.Step != StepPayment {
		o.mu.Unlock()
		return nil, errors.Wrapf(ErrStepNotReached, "at %s", o.draft.Step)
	}
	if o.draft.Payment == nil {
		o.mu.Unlock()
		return nil, ErrPaymentRequired
	}
	draft := o.draft
	o.mu.Unlock()

	c, err := o.deps.Carts.Cart(ctx, o.sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	snapshot, breakdown := c.State()
	if len(snapshot.Items) == 0 {
		return nil, ErrEmptyCart
	}

	conf, err := o.deps.Gateway.Authorize(ctx, *draft.Payment, breakdown.Total)
	if err != nil {
		return nil, errors.Wrap(err, "authorize payment")
	}

	ord, err := o.deps.Factory.Create(
		draft.User.ID,
		o.sessionID,
		snapshot.Items,
		breakdown,
		order.Payment{Method: string(draft.Payment.Kind), Reference: conf.Reference},
		*draft.Delivery,
	)
	if err != nil {
		return nil, errors.Wrap(err, "build order")
	}

	if err := o.deps.Orders.Create(ctx, ord); err != nil {
		return nil, errors.Wrap(err, "persist order")
	}

	// The order is durable; clearing the cart is now safe. A failed
	// persist of the cleared cart is logged, not fatal: the snapshot is
	// derived state and the next mutation rewrites it.
	c.Clear()
	if err := o.deps.Carts.Persist(ctx, o.sessionID); err != nil {
		zctx.From(ctx).Warn("persist cleared cart",
			zap.String("session_id", o.sessionID),
			zap.Error(err))
	}

	o.mu.Lock()
	o.draft.Step = StepCompleted
	o.completed = ord
	o.mu.Unlock()
	return ord, nil
}

// advanceLocked moves forward to next without ever rewinding: a
// re-submitted earlier step keeps the furthest step reached.
func (o *Orchestrator) advanceLocked(next Step) {
	if next > o.draft.Step {
		o.draft.Step = next
	}
}
