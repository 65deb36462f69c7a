package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsNegative(t *testing.T) {
	_, err := New(decimal.RequireFromString("-0.01"), USD)
	require.ErrorIs(t, err, ErrNegativeAmount)
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		code    string
		want    Currency
		wantErr bool
	}{
		{code: "USD", want: USD},
		{code: "BS", want: BS},
		{code: "usd", wantErr: true},
		{code: "EUR", wantErr: true},
		{code: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := ParseCurrency(tt.code)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownCurrency)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdd_CurrencyMismatch(t *testing.T) {
	_, err := MustFromString("1.00", USD).Add(MustFromString("1.00", BS))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "currency mismatch")
}

func TestConvert_Identity(t *testing.T) {
	m := MustFromString("4.50", USD)

	// Same-currency conversion returns the value unchanged even with a
	// bogus rate; the rate must not be consulted.
	got, err := Convert(m, USD, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, m.Equal(got))
}

func TestConvert_USDToBS(t *testing.T) {
	rate := decimal.RequireFromString("36.50")

	got, err := Convert(MustFromString("4.50", USD), BS, rate)
	require.NoError(t, err)
	assert.True(t, MustFromString("164.25", BS).Equal(got), "got %s", got)
}

func TestConvert_RoundTrip(t *testing.T) {
	rate := decimal.RequireFromString("36.50")
	orig := MustFromString("123.45", USD)

	bs, err := Convert(orig, BS, rate)
	require.NoError(t, err)
	back, err := Convert(bs, USD, rate)
	require.NoError(t, err)

	// Round-trip law: toggling twice returns the original within
	// minor-unit rounding.
	assert.True(t, orig.Round().Equal(back.Round()), "got %s", back)
}

func TestConvert_InvalidRate(t *testing.T) {
	for _, rate := range []string{"0", "-1"} {
		_, err := Convert(MustFromString("1.00", USD), BS, decimal.RequireFromString(rate))
		require.ErrorIs(t, err, ErrInvalidRate)
	}
}

func TestMulInt(t *testing.T) {
	got := MustFromString("4.50", USD).MulInt(10)
	assert.True(t, MustFromString("45.00", USD).Equal(got))
}

func TestRound(t *testing.T) {
	got := MustFromString("6.8325", USD).Round()
	assert.True(t, MustFromString("6.83", USD).Equal(got))
}
