// Package pricing derives the order cost breakdown (subtotal, logistics
// fee, tax, total) from a set of line items and a pricing policy. All
// functions are pure; the package holds no state and is safe for
// concurrent use.
package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/campomarket/storefront/internal/domain/money"
)

// Item is a line item as seen by the pricing engine: a canonical USD
// unit price and a quantity. Quantities are validated at the cart
// boundary; the engine assumes they are positive.
type Item struct {
	UnitPrice money.Money
	Quantity  int
}

// Breakdown is the derived cost summary, each component expressed in
// the display currency it was computed for. It is never stored as
// authoritative state; carts recompute it after every mutation.
type Breakdown struct {
	Currency  money.Currency `json:"currency"`
	Subtotal  money.Money    `json:"subtotal"`
	Logistics money.Money    `json:"logistics"`
	Tax       money.Money    `json:"tax"`
	Total     money.Money    `json:"total"`
}

// ZeroBreakdown returns the all-zero breakdown in the given currency.
func ZeroBreakdown(currency money.Currency) Breakdown {
	zero := money.Zero(currency)
	return Breakdown{
		Currency:  currency,
		Subtotal:  zero,
		Logistics: zero,
		Tax:       zero,
		Total:     zero,
	}
}

// Policy holds the pricing constants. The values are currency-aware
// where the legacy storefront hardcoded them per call site.
type Policy struct {
	// FreeShippingThreshold maps display currency to the subtotal at or
	// above which the logistics fee is waived.
	FreeShippingThreshold map[money.Currency]decimal.Decimal
	// TaxRate is applied to subtotal + logistics.
	TaxRate decimal.Decimal
	// LogisticsBase is the flat part of the logistics fee, in USD.
	LogisticsBase decimal.Decimal
	// LogisticsPerUnit is charged per ordered unit, in USD.
	LogisticsPerUnit decimal.Decimal
}

// DefaultPolicy returns the canonical marketplace policy: free shipping
// at 400 USD / 3600 BS, 13% tax, logistics fee of 2.50 USD plus
// 0.50 USD per unit.
func DefaultPolicy() Policy {
	return Policy{
		FreeShippingThreshold: map[money.Currency]decimal.Decimal{
			money.USD: decimal.NewFromInt(400),
			money.BS:  decimal.NewFromInt(3600),
		},
		TaxRate:          decimal.RequireFromString("0.13"),
		LogisticsBase:    decimal.RequireFromString("2.50"),
		LogisticsPerUnit: decimal.RequireFromString("0.50"),
	}
}

// ComputeBreakdown calculates the full cost breakdown for the given
// items in the requested display currency. Unit prices are always
// converted from their canonical USD amount using rate, so the result
// does not drift across repeated currency toggles. An empty item list
// yields the zero breakdown.
func ComputeBreakdown(items []Item, currency money.Currency, rate decimal.Decimal, policy Policy) (Breakdown, error) {
	if len(items) == 0 {
		return ZeroBreakdown(currency), nil
	}

	subtotal := money.Zero(currency)
	totalUnits := 0
	for _, item := range items {
		unit, err := money.Convert(item.UnitPrice, currency, rate)
		if err != nil {
			return Breakdown{}, errors.Wrap(err, "convert unit price")
		}
		subtotal, err = subtotal.Add(unit.MulInt(item.Quantity))
		if err != nil {
			return Breakdown{}, errors.Wrap(err, "sum line")
		}
		totalUnits += item.Quantity
	}

	logistics, err := logisticsFee(subtotal, totalUnits, currency, rate, policy)
	if err != nil {
		return Breakdown{}, err
	}

	taxable, err := subtotal.Add(logistics)
	if err != nil {
		return Breakdown{}, errors.Wrap(err, "taxable base")
	}
	tax := taxable.Mul(policy.TaxRate)

	total, err := taxable.Add(tax)
	if err != nil {
		return Breakdown{}, errors.Wrap(err, "total")
	}

	return Breakdown{
		Currency:  currency,
		Subtotal:  subtotal,
		Logistics: logistics,
		Tax:       tax,
		Total:     total,
	}, nil
}

// logisticsFee returns the delivery fee: zero at or above the
// free-shipping threshold, otherwise base + perUnit × units converted
// to the display currency.
func logisticsFee(subtotal money.Money, totalUnits int, currency money.Currency, rate decimal.Decimal, policy Policy) (money.Money, error) {
	threshold, ok := policy.FreeShippingThreshold[currency]
	if !ok {
		return money.Money{}, errors.Errorf("no free shipping threshold for %s", currency)
	}
	if subtotal.Amount.GreaterThanOrEqual(threshold) {
		return money.Zero(currency), nil
	}

	feeUSD := policy.LogisticsBase.Add(policy.LogisticsPerUnit.Mul(decimal.NewFromInt(int64(totalUnits))))
	fee, err := money.Convert(money.Money{Amount: feeUSD, Currency: money.USD}, currency, rate)
	if err != nil {
		return money.Money{}, errors.Wrap(err, "convert logistics fee")
	}
	return fee, nil
}
