package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stefanjelkic00/TechShop/internal/domain"
	r "github.com/stefanjelkic00/TechShop/internal/repository"
)

type CheckoutResult struct {
	Order      *domain.Order
	Tier       domain.Tier
	Credential string
}

// FulfillmentService converts a customer's cart into a persisted order.
// Everything between the cart snapshot and the cart drain runs in one
// database transaction; notification, tier persistence and credential
// reissue happen after commit and are best-effort.
type FulfillmentService struct {
	store    r.Store
	locker   CartLocker
	notifier Notifier
	issuer   CredentialIssuer
}

func NewFulfillmentService(store r.Store, locker CartLocker, notifier Notifier, issuer CredentialIssuer) *FulfillmentService {
	return &FulfillmentService{
		store:    store,
		locker:   locker,
		notifier: notifier,
		issuer:   issuer,
	}
}

func (s *FulfillmentService) Checkout(ctx context.Context, userID int64, shipping domain.Address) (*CheckoutResult, error) {
	if !shipping.Complete() {
		return nil, ErrInvalidAddress
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Cart-level lock: the cart row lock inside the transaction is the
	// authoritative serializer, this keeps the loser from even opening
	// a transaction while the winner is draining.
	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart: %w", err)
	}
	defer unlock()

	// Discount is priced against the order history before this order.
	pastOrders, err := s.store.CountOrdersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	_, rate := domain.TierFor(pastOrders)

	var order *domain.Order
	err = s.store.WithinTx(ctx, func(tx r.Tx) error {
		snapshot, err := tx.CartSnapshotForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if len(snapshot.Items) == 0 {
			return ErrEmptyCart
		}

		addr := shipping
		if err := tx.InsertAddress(ctx, &addr); err != nil {
			return err
		}

		// All-or-nothing reservation: the first shortage aborts the
		// transaction, rolling back every earlier decrement.
		for _, item := range snapshot.Items {
			if err := tx.ReserveStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		order = buildOrder(userID, addr, snapshot, rate)
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}

		return tx.DrainCart(ctx, snapshot.CartID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifier.SendOrderConfirmation(ctx, user.Email, order); err != nil {
		log.Printf("failed to send order confirmation for order %v: %v", order.ID, err)
	}

	tier, credential := refreshCustomerTier(ctx, s.store, s.issuer, user)

	return &CheckoutResult{
		Order:      order,
		Tier:       tier,
		Credential: credential,
	}, nil
}

func buildOrder(userID int64, addr domain.Address, snapshot *domain.CartSnapshot, rate decimal.Decimal) *domain.Order {
	items := make([]domain.OrderItem, 0, len(snapshot.Items))
	for _, line := range snapshot.Items {
		items = append(items, domain.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Subtotal, // frozen, pre-discount
		})
	}

	now := time.Now()
	return &domain.Order{
		ID:         uuid.New(),
		UserID:     userID,
		Status:     domain.OrderStatusPending,
		TotalPrice: domain.DiscountedTotal(snapshot.Subtotal(), rate),
		Address:    addr,
		Items:      items,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// refreshCustomerTier recomputes the tier from the orders that exist
// now, persists it and asks for a fresh credential carrying the new
// tier claim. The order is already durable at this point, so failures
// here are logged, never surfaced.
func refreshCustomerTier(ctx context.Context, store r.Store, issuer CredentialIssuer, user *domain.User) (domain.Tier, string) {
	count, err := store.CountOrdersByUser(ctx, user.ID)
	if err != nil {
		log.Printf("failed to recount orders for user %d: %v", user.ID, err)
		return user.CustomerType, ""
	}

	tier, _ := domain.TierFor(count)
	if err := store.UpdateCustomerTier(ctx, user.ID, tier); err != nil {
		log.Printf("failed to persist tier %s for user %d: %v", tier, user.ID, err)
	}

	credential, err := issuer.Reissue(ctx, user, tier)
	if err != nil {
		log.Printf("failed to reissue credential for user %d: %v", user.ID, err)
		return tier, ""
	}
	return tier, credential
}
