package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanjelkic00/TechShop/internal/domain"
	r "github.com/stefanjelkic00/TechShop/internal/repository"
)

func validAddress() domain.Address {
	return domain.Address{
		Street:     "Kralja Petra 12",
		City:       "Belgrade",
		PostalCode: "11000",
		Country:    "Serbia",
	}
}

func twoLineSnapshot() *domain.CartSnapshot {
	return &domain.CartSnapshot{
		CartID: 5,
		UserID: 1,
		Items: []domain.CartSnapshotItem{
			{
				ProductID: 10,
				Quantity:  2,
				UnitPrice: decimal.RequireFromString("50.00"),
				Subtotal:  decimal.RequireFromString("100.00"),
			},
			{
				ProductID: 11,
				Quantity:  1,
				UnitPrice: decimal.RequireFromString("25.50"),
				Subtotal:  decimal.RequireFromString("25.50"),
			},
		},
	}
}

func newTestFulfillment(store *MockStore) (*FulfillmentService, *MockLocker, *MockNotifier, *MockIssuer) {
	locker := &MockLocker{}
	notifier := &MockNotifier{}
	issuer := &MockIssuer{Token: "fresh-token"}
	return NewFulfillmentService(store, locker, notifier, issuer), locker, notifier, issuer
}

func TestCheckout_Success(t *testing.T) {
	store := &MockStore{
		Tx:   &MockTx{Snapshot: twoLineSnapshot()},
		User: &domain.User{ID: 1, Email: "ana@example.com", CustomerType: domain.TierPremium},
		// 3 prior orders price the discount, 4 after persist set the tier
		OrderCounts: []int{3, 4},
	}
	svc, locker, notifier, issuer := newTestFulfillment(store)

	result, err := svc.Checkout(context.Background(), 1, validAddress())

	require.NoError(t, err)
	require.NotNil(t, result.Order)

	// 125.50 * 0.8 = 100.40
	assert.Equal(t, "100.40", result.Order.TotalPrice.StringFixed(2))
	assert.Equal(t, domain.OrderStatusPending, result.Order.Status)
	require.Len(t, result.Order.Items, 2)
	assert.Equal(t, "100.00", result.Order.Items[0].Price.StringFixed(2))
	assert.Equal(t, "25.50", result.Order.Items[1].Price.StringFixed(2))

	assert.Equal(t, []stockChange{{10, 2}, {11, 1}}, store.Tx.Reserved)
	assert.Equal(t, int64(5), store.Tx.DrainedCartID)
	assert.NotNil(t, store.Tx.InsertedOrder)
	assert.NotNil(t, store.Tx.InsertedAddress)

	assert.Equal(t, []string{"ana@example.com"}, notifier.Confirmations)
	assert.Equal(t, domain.TierPlatinum, result.Tier)
	assert.Equal(t, domain.TierPlatinum, store.UpdatedTier)
	assert.Equal(t, []domain.Tier{domain.TierPlatinum}, issuer.IssuedTiers)
	assert.Equal(t, "fresh-token", result.Credential)

	assert.Equal(t, 1, locker.LockCalls)
	assert.Equal(t, 1, locker.UnlockCalls)
}

func TestCheckout_CrossesVIPThreshold(t *testing.T) {
	store := &MockStore{
		Tx:          &MockTx{Snapshot: twoLineSnapshot()},
		User:        &domain.User{ID: 1, Email: "ana@example.com", CustomerType: domain.TierPlatinum},
		OrderCounts: []int{4, 5},
	}
	svc, _, _, _ := newTestFulfillment(store)

	result, err := svc.Checkout(context.Background(), 1, validAddress())

	require.NoError(t, err)
	// discount still priced on the 4 orders that existed before
	assert.Equal(t, "100.40", result.Order.TotalPrice.StringFixed(2))
	// tier reflects the order that now exists
	assert.Equal(t, domain.TierVIP, result.Tier)
}

func TestCheckout_EmptyCart(t *testing.T) {
	store := &MockStore{
		Tx:          &MockTx{Snapshot: &domain.CartSnapshot{CartID: 5, UserID: 1}},
		User:        &domain.User{ID: 1, Email: "ana@example.com"},
		OrderCounts: []int{0},
	}
	svc, _, notifier, _ := newTestFulfillment(store)

	_, err := svc.Checkout(context.Background(), 1, validAddress())

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.True(t, store.RolledBack)
	assert.Nil(t, store.Tx.InsertedOrder)
	assert.Empty(t, notifier.Confirmations)
}

func TestCheckout_InvalidAddress(t *testing.T) {
	store := &MockStore{Tx: &MockTx{}}
	svc, locker, _, _ := newTestFulfillment(store)

	_, err := svc.Checkout(context.Background(), 1, domain.Address{Street: "Kralja Petra 12"})

	assert.ErrorIs(t, err, ErrInvalidAddress)
	// rejected before any store or lock interaction
	assert.Equal(t, 0, locker.LockCalls)
	assert.Equal(t, 0, store.CountCalls)
}

func TestCheckout_CustomerNotFound(t *testing.T) {
	store := &MockStore{Tx: &MockTx{}, UserErr: r.ErrUserNotFound}
	svc, locker, _, _ := newTestFulfillment(store)

	_, err := svc.Checkout(context.Background(), 99, validAddress())

	assert.ErrorIs(t, err, r.ErrUserNotFound)
	assert.Equal(t, 0, locker.LockCalls)
}

func TestCheckout_CartNotFound(t *testing.T) {
	store := &MockStore{
		Tx:          &MockTx{SnapshotErr: r.ErrCartNotFound},
		User:        &domain.User{ID: 1, Email: "ana@example.com"},
		OrderCounts: []int{0},
	}
	svc, _, _, _ := newTestFulfillment(store)

	_, err := svc.Checkout(context.Background(), 1, validAddress())

	assert.ErrorIs(t, err, r.ErrCartNotFound)
	assert.True(t, store.RolledBack)
}

func TestCheckout_InsufficientStockAbortsEverything(t *testing.T) {
	store := &MockStore{
		Tx: &MockTx{
			Snapshot:    twoLineSnapshot(),
			ReserveErrs: map[int64]error{11: &r.InsufficientStockError{ProductID: 11}},
		},
		User:        &domain.User{ID: 1, Email: "ana@example.com"},
		OrderCounts: []int{3},
	}
	svc, _, notifier, issuer := newTestFulfillment(store)

	_, err := svc.Checkout(context.Background(), 1, validAddress())

	var stockErr *r.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(11), stockErr.ProductID)

	assert.True(t, store.RolledBack)
	assert.Nil(t, store.Tx.InsertedOrder)
	assert.Zero(t, store.Tx.DrainedCartID)
	assert.Empty(t, notifier.Confirmations)
	assert.Empty(t, issuer.IssuedTiers)
	assert.Equal(t, 0, store.TierUpdateCalls)
}

func TestCheckout_NotificationFailureStillSucceeds(t *testing.T) {
	store := &MockStore{
		Tx:          &MockTx{Snapshot: twoLineSnapshot()},
		User:        &domain.User{ID: 1, Email: "ana@example.com"},
		OrderCounts: []int{0, 1},
	}
	svc, _, notifier, _ := newTestFulfillment(store)
	notifier.ConfirmErr = assert.AnError

	result, err := svc.Checkout(context.Background(), 1, validAddress())

	require.NoError(t, err)
	assert.NotNil(t, result.Order)
	assert.Equal(t, domain.TierPremium, result.Tier)
}

func TestCheckout_ReissueFailureLeavesCredentialEmpty(t *testing.T) {
	store := &MockStore{
		Tx:          &MockTx{Snapshot: twoLineSnapshot()},
		User:        &domain.User{ID: 1, Email: "ana@example.com"},
		OrderCounts: []int{0, 1},
	}
	svc, _, _, issuer := newTestFulfillment(store)
	issuer.Err = assert.AnError

	result, err := svc.Checkout(context.Background(), 1, validAddress())

	require.NoError(t, err)
	assert.Equal(t, domain.TierPremium, result.Tier)
	assert.Equal(t, domain.TierPremium, store.UpdatedTier)
	assert.Empty(t, result.Credential)
}

func TestCheckout_RecountFailureKeepsPreviousTier(t *testing.T) {
	store := &MockStore{
		Tx:          &MockTx{Snapshot: twoLineSnapshot()},
		User:        &domain.User{ID: 1, Email: "ana@example.com", CustomerType: domain.TierPremium},
		OrderCounts: []int{1},
	}
	svc, _, _, _ := newTestFulfillment(store)

	// second CountOrdersByUser call exhausts the queue and errors
	result, err := svc.Checkout(context.Background(), 1, validAddress())

	require.NoError(t, err)
	assert.Equal(t, domain.TierPremium, result.Tier)
	assert.Equal(t, 0, store.TierUpdateCalls)
	assert.Empty(t, result.Credential)
}

func TestCheckout_LockFailure(t *testing.T) {
	store := &MockStore{
		Tx:   &MockTx{Snapshot: twoLineSnapshot()},
		User: &domain.User{ID: 1, Email: "ana@example.com"},
	}
	svc, locker, _, _ := newTestFulfillment(store)
	locker.Err = context.DeadlineExceeded

	_, err := svc.Checkout(context.Background(), 1, validAddress())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, store.CountCalls)
}
