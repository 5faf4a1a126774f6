package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stefanjelkic00/TechShop/internal/domain"
	r "github.com/stefanjelkic00/TechShop/internal/repository"
)

type stockChange struct {
	ProductID int64
	Quantity  int32
}

// MockTx records every mutation made through it so tests can assert on
// the exact sequence of transactional work.
type MockTx struct {
	Snapshot    *domain.CartSnapshot
	SnapshotErr error

	Order    *domain.Order
	OrderErr error

	ReserveErrs map[int64]error

	Reserved        []stockChange
	Released        []stockChange
	InsertedAddress *domain.Address
	InsertedOrder   *domain.Order
	DrainedCartID   int64
	UpdatedStatus   domain.OrderStatus
	UpdatedTotal    decimal.Decimal
	DeletedOrderID  uuid.UUID
}

func (m *MockTx) CartSnapshotForUpdate(_ context.Context, _ int64) (*domain.CartSnapshot, error) {
	if m.SnapshotErr != nil {
		return nil, m.SnapshotErr
	}
	return m.Snapshot, nil
}

func (m *MockTx) DrainCart(_ context.Context, cartID int64) error {
	m.DrainedCartID = cartID
	return nil
}

func (m *MockTx) ReserveStock(_ context.Context, productID int64, quantity int32) error {
	if err, ok := m.ReserveErrs[productID]; ok {
		return err
	}
	m.Reserved = append(m.Reserved, stockChange{ProductID: productID, Quantity: quantity})
	return nil
}

func (m *MockTx) ReleaseStock(_ context.Context, productID int64, quantity int32) error {
	m.Released = append(m.Released, stockChange{ProductID: productID, Quantity: quantity})
	return nil
}

func (m *MockTx) InsertAddress(_ context.Context, addr *domain.Address) error {
	addr.ID = 77
	m.InsertedAddress = addr
	return nil
}

func (m *MockTx) InsertOrder(_ context.Context, order *domain.Order) error {
	m.InsertedOrder = order
	return nil
}

func (m *MockTx) GetOrderForUpdate(_ context.Context, _ uuid.UUID) (*domain.Order, error) {
	if m.OrderErr != nil {
		return nil, m.OrderErr
	}
	return m.Order, nil
}

func (m *MockTx) UpdateOrderStatus(_ context.Context, _ uuid.UUID, status domain.OrderStatus, total decimal.Decimal) error {
	m.UpdatedStatus = status
	m.UpdatedTotal = total
	return nil
}

func (m *MockTx) DeleteOrder(_ context.Context, id uuid.UUID) error {
	m.DeletedOrderID = id
	return nil
}

// MockStore drives WithinTx through a single MockTx. A non-nil error
// from the callback counts as a rollback.
type MockStore struct {
	Tx         *MockTx
	RolledBack bool

	User    *domain.User
	UserErr error

	// OrderCounts is consumed front to back by successive
	// CountOrdersByUser calls; checkout counts twice.
	OrderCounts []int
	CountErr    error
	CountCalls  int

	UpdatedTier     domain.Tier
	TierUpdateCalls int
	TierErr         error
}

func (m *MockStore) Close() error { return nil }

func (m *MockStore) RunMigrations(_ *r.Credentials) error { return nil }

func (m *MockStore) WithinTx(_ context.Context, fn func(tx r.Tx) error) error {
	if err := fn(m.Tx); err != nil {
		m.RolledBack = true
		return err
	}
	return nil
}

func (m *MockStore) GetUserByID(_ context.Context, _ int64) (*domain.User, error) {
	if m.UserErr != nil {
		return nil, m.UserErr
	}
	return m.User, nil
}

func (m *MockStore) CountOrdersByUser(_ context.Context, _ int64) (int, error) {
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	if m.CountCalls >= len(m.OrderCounts) {
		return 0, errors.New("unexpected CountOrdersByUser call")
	}
	count := m.OrderCounts[m.CountCalls]
	m.CountCalls++
	return count, nil
}

func (m *MockStore) UpdateCustomerTier(_ context.Context, _ int64, tier domain.Tier) error {
	if m.TierErr != nil {
		return m.TierErr
	}
	m.UpdatedTier = tier
	m.TierUpdateCalls++
	return nil
}

func (m *MockStore) GetOrderByID(_ context.Context, _ uuid.UUID) (*domain.Order, error) {
	return nil, r.ErrOrderNotFound
}

func (m *MockStore) ListOrdersByUserID(_ context.Context, _ int64) ([]*domain.Order, error) {
	return nil, nil
}

func (m *MockStore) GetUnprocessedEvents(_ context.Context, _ int) ([]*r.OutboxEvent, error) {
	return nil, nil
}

func (m *MockStore) MarkEventAsProcessed(_ context.Context, _ int64) error {
	return nil
}

type MockNotifier struct {
	Confirmations []string
	Cancellations []string
	ConfirmErr    error
	CancelErr     error
}

func (m *MockNotifier) SendOrderConfirmation(_ context.Context, email string, _ *domain.Order) error {
	if m.ConfirmErr != nil {
		return m.ConfirmErr
	}
	m.Confirmations = append(m.Confirmations, email)
	return nil
}

func (m *MockNotifier) SendOrderCancellation(_ context.Context, email string, _ *domain.Order) error {
	if m.CancelErr != nil {
		return m.CancelErr
	}
	m.Cancellations = append(m.Cancellations, email)
	return nil
}

type MockIssuer struct {
	IssuedTiers []domain.Tier
	Token       string
	Err         error
}

func (m *MockIssuer) Reissue(_ context.Context, _ *domain.User, tier domain.Tier) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.IssuedTiers = append(m.IssuedTiers, tier)
	return m.Token, nil
}

type MockLocker struct {
	LockCalls   int
	UnlockCalls int
	Err         error
}

func (m *MockLocker) Lock(_ context.Context, _ int64) (func(), error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.LockCalls++
	return func() { m.UnlockCalls++ }, nil
}
