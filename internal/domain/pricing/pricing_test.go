package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campomarket/storefront/internal/domain/money"
)

var one = decimal.NewFromInt(1)

func item(price string, qty int) Item {
	return Item{UnitPrice: money.MustFromString(price, money.USD), Quantity: qty}
}

func TestComputeBreakdown_Empty(t *testing.T) {
	got, err := ComputeBreakdown(nil, money.USD, one, DefaultPolicy())
	require.NoError(t, err)

	assert.True(t, got.Subtotal.IsZero())
	assert.True(t, got.Logistics.IsZero())
	assert.True(t, got.Tax.IsZero())
	assert.True(t, got.Total.IsZero())
	assert.Equal(t, money.USD, got.Currency)
}

func TestComputeBreakdown_WorkedExample(t *testing.T) {
	// One item at $4.50 × 10: subtotal 45.00, below the 400 threshold,
	// logistics 2.50 + 0.50×10 = 7.50, tax (45+7.5)×0.13 = 6.8325,
	// total 59.3325 at full precision.
	got, err := ComputeBreakdown([]Item{item("4.50", 10)}, money.USD, one, DefaultPolicy())
	require.NoError(t, err)

	assert.True(t, money.MustFromString("45.00", money.USD).Equal(got.Subtotal), "subtotal %s", got.Subtotal)
	assert.True(t, money.MustFromString("7.50", money.USD).Equal(got.Logistics), "logistics %s", got.Logistics)
	assert.True(t, money.MustFromString("6.8325", money.USD).Equal(got.Tax), "tax %s", got.Tax)
	assert.True(t, money.MustFromString("59.3325", money.USD).Equal(got.Total), "total %s", got.Total)
}

func TestComputeBreakdown_FreeShippingAtThreshold(t *testing.T) {
	// Subtotal of exactly 400 waives the logistics fee.
	got, err := ComputeBreakdown([]Item{item("40.00", 10)}, money.USD, one, DefaultPolicy())
	require.NoError(t, err)

	assert.True(t, got.Logistics.IsZero(), "logistics %s", got.Logistics)
	assert.True(t, money.MustFromString("400.00", money.USD).Equal(got.Subtotal))
	assert.True(t, money.MustFromString("52.00", money.USD).Equal(got.Tax))
}

func TestComputeBreakdown_AdditiveIdentity(t *testing.T) {
	items := []Item{item("4.50", 10), item("12.99", 3), item("0.75", 40)}

	for _, currency := range []money.Currency{money.USD, money.BS} {
		got, err := ComputeBreakdown(items, currency, decimal.RequireFromString("36.50"), DefaultPolicy())
		require.NoError(t, err)

		sum, err := got.Subtotal.Add(got.Logistics)
		require.NoError(t, err)
		sum, err = sum.Add(got.Tax)
		require.NoError(t, err)
		assert.True(t, got.Total.Equal(sum), "%s: total %s != sum %s", currency, got.Total, sum)
	}
}

func TestComputeBreakdown_BSUsesOwnThreshold(t *testing.T) {
	rate := decimal.RequireFromString("36.50")

	// 100 USD subtotal = 3650 BS, which clears the 3600 BS threshold.
	got, err := ComputeBreakdown([]Item{item("100.00", 1)}, money.BS, rate, DefaultPolicy())
	require.NoError(t, err)
	assert.True(t, got.Logistics.IsZero(), "logistics %s", got.Logistics)

	// 98 USD subtotal = 3577 BS stays under it.
	got, err = ComputeBreakdown([]Item{item("98.00", 1)}, money.BS, rate, DefaultPolicy())
	require.NoError(t, err)
	assert.False(t, got.Logistics.IsZero())
	// Fee is (2.50 + 0.50) USD converted: 3.00 × 36.50 = 109.50 BS.
	assert.True(t, money.MustFromString("109.50", money.BS).Equal(got.Logistics), "logistics %s", got.Logistics)
}

func TestComputeBreakdown_SubtotalMatchesSum(t *testing.T) {
	items := []Item{item("4.50", 2), item("10.00", 5)}
	got, err := ComputeBreakdown(items, money.USD, one, DefaultPolicy())
	require.NoError(t, err)
	assert.True(t, money.MustFromString("59.00", money.USD).Equal(got.Subtotal))
}

func TestComputeBreakdown_BadRateForBS(t *testing.T) {
	_, err := ComputeBreakdown([]Item{item("1.00", 1)}, money.BS, decimal.Zero, DefaultPolicy())
	require.ErrorIs(t, err, money.ErrInvalidRate)
}
