// Package payment defines the payment gateway capability consumed by
// checkout, plus the tagged payment detail variants. Business logic
// never sleeps or simulates delays itself; simulated behaviour lives in
// the Simulator implementation and is swapped in via dependency
// injection.
package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/campomarket/storefront/internal/domain/money"
)

// Method enumerates the supported payment methods.
type Method string

const (
	MethodCard          Method = "card"
	MethodMobilePayment Method = "mobile_payment"
	MethodBankTransfer  Method = "bank_transfer"
	MethodCash          Method = "cash"
)

// Validation errors surfaced to the checkout form.
var (
	ErrUnknownMethod  = errors.New("unknown payment method")
	ErrMissingDetails = errors.New("missing payment details")
	ErrDeclined       = errors.New("payment declined")
)

// CardDetails is required for MethodCard.
type CardDetails struct {
	HolderName string `json:"holder_name"`
	Number     string `json:"number"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
	CVV        string `json:"cvv"`
}

// MobilePaymentDetails is required for MethodMobilePayment (pago móvil:
// a national phone-number transfer referencing the payer's bank and ID).
type MobilePaymentDetails struct {
	Phone      string `json:"phone"`
	BankCode   string `json:"bank_code"`
	NationalID string `json:"national_id"`
}

// BankTransferDetails is required for MethodBankTransfer.
type BankTransferDetails struct {
	BankName  string `json:"bank_name"`
	Account   string `json:"account"`
	Reference string `json:"reference"`
}

// Details is a tagged union: Kind selects which variant pointer must be
// set. MethodCash carries no variant.
type Details struct {
	Kind         Method                `json:"kind"`
	Card         *CardDetails          `json:"card,omitempty"`
	Mobile       *MobilePaymentDetails `json:"mobile,omitempty"`
	BankTransfer *BankTransferDetails  `json:"bank_transfer,omitempty"`
}

// Validate checks that exactly the variant required by Kind is present
// and complete. The switch is exhaustive over Method; unknown kinds are
// rejected.
func (d Details) Validate() error {
	switch d.Kind {
	case MethodCard:
		c := d.Card
		if c == nil || c.HolderName == "" || c.Number == "" || c.CVV == "" || c.ExpMonth < 1 || c.ExpMonth > 12 || c.ExpYear == 0 {
			return errors.Wrap(ErrMissingDetails, "card")
		}
	case MethodMobilePayment:
		m := d.Mobile
		if m == nil || m.Phone == "" || m.BankCode == "" || m.NationalID == "" {
			return errors.Wrap(ErrMissingDetails, "mobile payment")
		}
	case MethodBankTransfer:
		b := d.BankTransfer
		if b == nil || b.BankName == "" || b.Account == "" || b.Reference == "" {
			return errors.Wrap(ErrMissingDetails, "bank transfer")
		}
	case MethodCash:
		// Cash on delivery needs no details.
	default:
		return errors.Wrapf(ErrUnknownMethod, "%q", d.Kind)
	}
	return nil
}

// Confirmation is the gateway's proof of an authorized payment.
type Confirmation struct {
	Reference    string
	AuthorizedAt time.Time
}

// Gateway authorizes a payment for the given amount. Implementations
// must respect ctx cancellation; checkout treats an error as a
// transient failure and leaves the cart untouched.
type Gateway interface {
	Authorize(ctx context.Context, details Details, amount money.Money) (Confirmation, error)
}
