package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campomarket/storefront/internal/domain/money"
)

func validMobile() Details {
	return Details{
		Kind:   MethodMobilePayment,
		Mobile: &MobilePaymentDetails{Phone: "0414-5551234", BankCode: "0102", NationalID: "V-12345678"},
	}
}

func TestDetails_Validate(t *testing.T) {
	tests := []struct {
		name    string
		details Details
		wantErr error
	}{
		{
			name:    "valid card",
			details: Details{Kind: MethodCard, Card: &CardDetails{HolderName: "Ana", Number: "4111111111111111", ExpMonth: 12, ExpYear: 2028, CVV: "123"}},
		},
		{
			name:    "card missing cvv",
			details: Details{Kind: MethodCard, Card: &CardDetails{HolderName: "Ana", Number: "4111111111111111", ExpMonth: 12, ExpYear: 2028}},
			wantErr: ErrMissingDetails,
		},
		{
			name:    "card month out of range",
			details: Details{Kind: MethodCard, Card: &CardDetails{HolderName: "Ana", Number: "4111", ExpMonth: 13, ExpYear: 2028, CVV: "123"}},
			wantErr: ErrMissingDetails,
		},
		{
			name:    "valid mobile payment",
			details: validMobile(),
		},
		{
			name:    "mobile payment without variant",
			details: Details{Kind: MethodMobilePayment},
			wantErr: ErrMissingDetails,
		},
		{
			name:    "valid bank transfer",
			details: Details{Kind: MethodBankTransfer, BankTransfer: &BankTransferDetails{BankName: "Banco X", Account: "0102-1234", Reference: "ref-9"}},
		},
		{
			name:    "cash needs nothing",
			details: Details{Kind: MethodCash},
		},
		{
			name:    "unknown method",
			details: Details{Kind: Method("barter")},
			wantErr: ErrUnknownMethod,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.details.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSimulator_Authorize(t *testing.T) {
	sim := NewSimulator(0)

	conf, err := sim.Authorize(context.Background(), validMobile(), money.MustFromString("59.33", money.USD))
	require.NoError(t, err)
	assert.NotEmpty(t, conf.Reference)
	assert.False(t, conf.AuthorizedAt.IsZero())
}

func TestSimulator_Authorize_InvalidDetails(t *testing.T) {
	sim := NewSimulator(0)

	_, err := sim.Authorize(context.Background(), Details{Kind: MethodCard}, money.Zero(money.USD))
	require.ErrorIs(t, err, ErrMissingDetails)
}

func TestSimulator_Authorize_Cancelled(t *testing.T) {
	sim := NewSimulator(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Authorize(ctx, validMobile(), money.Zero(money.USD))
	require.ErrorIs(t, err, context.Canceled)
}
