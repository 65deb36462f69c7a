// Package checkout implements the multi-step checkout flow: an ordered
// sequence of auth, fiscal, delivery, and payment steps that
// accumulates a draft and, on completion, produces an immutable order
// before clearing the cart, so an order can never be lost to a
// premature cart clear.
package checkout

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/campomarket/storefront/internal/domain/auth"
	"github.com/campomarket/storefront/internal/domain/order"
	"github.com/campomarket/storefront/internal/payment"
)

// Step identifies a checkout stage. Steps advance only after the
// corresponding form validates; stepping backward never discards data.
type Step int

const (
	StepAuth Step = iota
	StepFiscal
	StepDelivery
	StepPayment
	StepCompleted
)

func (s Step) String() string {
	switch s {
	case StepAuth:
		return "auth"
	case StepFiscal:
		return "fiscal"
	case StepDelivery:
		return "delivery"
	case StepPayment:
		return "payment"
	case StepCompleted:
		return "completed"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Sentinel errors for flow control.
var (
	ErrStepNotReached   = errors.New("previous checkout steps incomplete")
	ErrAlreadyCompleted = errors.New("checkout already completed")
	ErrPaymentRequired  = errors.New("payment details required")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrInvalidStep      = errors.New("invalid step")
)

// FieldErrors maps a form field name to its validation message.
type FieldErrors map[string]string

// ValidationError reports which step's form failed and the offending
// fields. It is user-correctable, never fatal.
type ValidationError struct {
	Step   Step
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s form validation failed (%d fields)", e.Step, len(e.Fields))
}

// FiscalData is the billing identity collected at step 1.
type FiscalData struct {
	LegalName     string `json:"legal_name"`
	TaxID         string `json:"tax_id"`
	FiscalAddress string `json:"fiscal_address"`
}

// FiscalForm validates fiscal data. Implementations are external
// collaborators; the orchestrator only consumes the contract.
type FiscalForm interface {
	Validate(data FiscalData) FieldErrors
}

// DeliveryForm validates the delivery destination.
type DeliveryForm interface {
	Validate(info order.Delivery) FieldErrors
}

// Draft accumulates the data entered so far. Pointers are nil until the
// corresponding step has been submitted at least once; they survive
// backward navigation so re-entered steps pre-fill.
type Draft struct {
	Step     Step
	User     *auth.User
	Fiscal   *FiscalData
	Delivery *order.Delivery
	Payment  *payment.Details
}
