// Package money provides the monetary value types shared by the cart,
// pricing, and order domains. Amounts are decimal and non-negative;
// every arithmetic operation returns a new value.
package money

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Currency identifies a supported display currency.
type Currency string

const (
	// USD is the canonical currency: all catalog prices and line item
	// unit prices are stored in USD.
	USD Currency = "USD"
	// BS is the bolívar, the secondary display currency.
	BS Currency = "BS"
)

var (
	// ErrNegativeAmount is returned when constructing a Money with a
	// negative amount.
	ErrNegativeAmount = errors.New("amount must not be negative")
	// ErrInvalidRate is returned when a conversion rate is zero or negative.
	ErrInvalidRate = errors.New("exchange rate must be greater than 0")
	// ErrUnknownCurrency is returned when parsing an unrecognized
	// currency code.
	ErrUnknownCurrency = errors.New("unknown currency")
)

// ParseCurrency converts a currency code to a Currency.
func ParseCurrency(code string) (Currency, error) {
	switch Currency(code) {
	case USD:
		return USD, nil
	case BS:
		return BS, nil
	default:
		return "", errors.Wrapf(ErrUnknownCurrency, "%q", code)
	}
}

// minorUnits is the number of decimal places of the smallest
// representable unit. Both USD and BS use 2.
const minorUnits = 2

// Money is an immutable amount in a specific currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

// New creates a Money value. It returns ErrNegativeAmount when amount
// is negative.
func New(amount decimal.Decimal, currency Currency) (Money, error) {
	if amount.IsNegative() {
		return Money{}, errors.Wrapf(ErrNegativeAmount, "%s %s", amount, currency)
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// Zero returns the zero amount in the given currency.
func Zero(currency Currency) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// MustFromString builds a Money from a decimal string, panicking on
// malformed input or negative amounts. Intended for constants and tests.
func MustFromString(amount string, currency Currency) Money {
	m, err := New(decimal.RequireFromString(amount), currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Add returns m + other. Both operands must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, errors.Errorf("currency mismatch: %s + %s", m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// MulInt returns m multiplied by an integer quantity.
func (m Money) MulInt(n int) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(int64(n))), Currency: m.Currency}
}

// Mul returns m scaled by the given factor.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(factor), Currency: m.Currency}
}

// Round returns m rounded to the currency's minor unit. Used only at
// the display edge; internal arithmetic keeps full precision.
func (m Money) Round() Money {
	return Money{Amount: m.Amount.Round(minorUnits), Currency: m.Currency}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Equal reports whether both value and currency match.
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount, m.Currency)
}

// Convert returns the amount expressed in target currency using the
// given USD→BS rate. Conversion is identity when the currencies already
// match; otherwise the rate must be positive. Callers always convert
// from the canonical USD amount so repeated display-currency toggles do
// not compound rounding error.
func Convert(m Money, target Currency, rate decimal.Decimal) (Money, error) {
	if m.Currency == target {
		return m, nil
	}
	if !rate.IsPositive() {
		return Money{}, errors.Wrapf(ErrInvalidRate, "%s", rate)
	}
	switch target {
	case BS:
		return Money{Amount: m.Amount.Mul(rate), Currency: BS}, nil
	case USD:
		return Money{Amount: m.Amount.Div(rate), Currency: USD}, nil
	default:
		return Money{}, errors.Wrapf(ErrUnknownCurrency, "%q", target)
	}
}
