package order

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campomarket/storefront/internal/domain/cart"
	"github.com/campomarket/storefront/internal/domain/money"
	"github.com/campomarket/storefront/internal/domain/pricing"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	byID      map[string]*Order
	createErr error
	updateErr error
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{byID: make(map[string]*Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.byID[o.ID] = o
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, assert.AnError
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID string) ([]Order, error) {
	var out []Order
	for _, o := range m.byID {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, status Status) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.byID[id].Status = status
	return nil
}

// --- Helpers ---

func testItems() []cart.LineItem {
	return []cart.LineItem{
		{ProductID: "corn", UnitPrice: money.MustFromString("4.50", money.USD), Quantity: 10, Unit: "kg", MinOrderQty: 5},
	}
}

func testPayment() Payment {
	return Payment{Method: "mobile_payment", Reference: "pay-123"}
}

func testDelivery() Delivery {
	return Delivery{Recipient: "Ana Pérez", Phone: "0414-5551234", State: "Lara", City: "Barquisimeto", Address: "Calle 42"}
}

// --- Factory tests ---

func TestFactory_Create(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f := NewFactoryWithClock(func() time.Time { return fixed })

	o, err := f.Create("u1", "s1", testItems(), pricing.ZeroBreakdown(money.USD), testPayment(), testDelivery())
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.True(t, strings.HasPrefix(o.Number, "ORD-"), "number %s", o.Number)
	assert.Len(t, o.Number, 12)
	assert.Equal(t, StatusConfirmed, o.Status)
	assert.Equal(t, fixed, o.CreatedAt)
}

func TestFactory_Create_EmptyItems(t *testing.T) {
	f := NewFactory()
	_, err := f.Create("u1", "s1", nil, pricing.ZeroBreakdown(money.USD), testPayment(), testDelivery())
	require.ErrorIs(t, err, ErrEmptyOrder)
}

func TestFactory_Create_UnconfirmedPayment(t *testing.T) {
	f := NewFactory()
	_, err := f.Create("u1", "s1", testItems(), pricing.ZeroBreakdown(money.USD), Payment{Method: "card"}, testDelivery())
	require.ErrorIs(t, err, ErrPaymentNotConfirmed)
}

func TestFactory_Create_SnapshotIsolation(t *testing.T) {
	f := NewFactory()
	items := testItems()

	o, err := f.Create("u1", "s1", items, pricing.ZeroBreakdown(money.USD), testPayment(), testDelivery())
	require.NoError(t, err)

	// Mutating the source slice after creation must not reach the order.
	items[0].Quantity = 999
	assert.Equal(t, 10, o.Items[0].Quantity)
}

func TestFactory_Create_UniqueNumbers(t *testing.T) {
	f := NewFactory()
	seen := make(map[string]bool)
	for range 100 {
		o, err := f.Create("u1", "s1", testItems(), pricing.ZeroBreakdown(money.USD), testPayment(), testDelivery())
		require.NoError(t, err)
		require.False(t, seen[o.Number], "duplicate order number %s", o.Number)
		seen[o.Number] = true
	}
}

// --- Status tests ---

func TestStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusConfirmed, StatusProcessing, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusShipped, false},
		{StatusProcessing, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusProcessing, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}
}

// --- Service tests ---

func TestService_UpdateStatus(t *testing.T) {
	repo := newMockOrderRepo()
	f := NewFactory()
	o, err := f.Create("u1", "s1", testItems(), pricing.ZeroBreakdown(money.USD), testPayment(), testDelivery())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), o))

	svc := NewService(repo)

	updated, err := svc.UpdateStatus(context.Background(), o.ID, StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, updated.Status)

	_, err = svc.UpdateStatus(context.Background(), o.ID, StatusDelivered)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestService_UpdateStatus_UnknownStatus(t *testing.T) {
	svc := NewService(newMockOrderRepo())
	_, err := svc.UpdateStatus(context.Background(), "any", Status("teleported"))
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestService_ListByUser(t *testing.T) {
	repo := newMockOrderRepo()
	f := NewFactory()
	for _, user := range []string{"u1", "u1", "u2"} {
		o, err := f.Create(user, "s1", testItems(), pricing.ZeroBreakdown(money.USD), testPayment(), testDelivery())
		require.NoError(t, err)
		require.NoError(t, repo.Create(context.Background(), o))
	}

	svc := NewService(repo)
	list, err := svc.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
