package service

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stefanjelkic00/TechShop/internal/domain"
	r "github.com/stefanjelkic00/TechShop/internal/repository"
)

// LifecycleService handles mutations of orders after creation: status
// transitions and the privileged delete with its compensating stock
// release.
type LifecycleService struct {
	store    r.Store
	notifier Notifier
	issuer   CredentialIssuer
}

func NewLifecycleService(store r.Store, notifier Notifier, issuer CredentialIssuer) *LifecycleService {
	return &LifecycleService{
		store:    store,
		notifier: notifier,
		issuer:   issuer,
	}
}

// UpdateStatus transitions the order's status and updates its total.
// Status edits never touch inventory; the delete path below owns the
// compensating release. The first transition into CANCELLED triggers a
// cancellation mail, best-effort.
func (s *LifecycleService) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus domain.OrderStatus, newTotal decimal.Decimal) (*domain.Order, error) {
	var order *domain.Order
	var becameCancelled bool

	err := s.store.WithinTx(ctx, func(tx r.Tx) error {
		existing, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if !domain.CanTransitionTo(existing.Status, newStatus) {
			return IllegalTransitionError
		}
		becameCancelled = newStatus == domain.OrderStatusCancelled && existing.Status != domain.OrderStatusCancelled

		if err := tx.UpdateOrderStatus(ctx, orderID, newStatus, newTotal); err != nil {
			return err
		}

		existing.Status = newStatus
		existing.TotalPrice = newTotal
		order = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	if becameCancelled {
		user, err := s.store.GetUserByID(ctx, order.UserID)
		if err != nil {
			log.Printf("failed to load user %d for cancellation mail: %v", order.UserID, err)
			return order, nil
		}
		if err := s.notifier.SendOrderCancellation(ctx, user.Email, order); err != nil {
			log.Printf("failed to send cancellation mail for order %v: %v", order.ID, err)
		}
	}

	return order, nil
}

// Delete removes the order. Unless the order was already delivered, each
// line's quantity goes back to the stock ledger in the same transaction
// as the delete, so either both happen or neither does. Afterwards the
// customer's tier reflects the lower order count and a fresh credential
// is requested, mirroring checkout's post-commit step.
func (s *LifecycleService) Delete(ctx context.Context, orderID uuid.UUID) error {
	var userID int64

	err := s.store.WithinTx(ctx, func(tx r.Tx) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		userID = order.UserID

		// A delivered order's stock is consumed for good.
		if order.Status != domain.OrderStatusDelivered {
			for _, item := range order.Items {
				if err := tx.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		return tx.DeleteOrder(ctx, orderID)
	})
	if err != nil {
		return err
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		log.Printf("failed to load user %d after order delete: %v", userID, err)
		return nil
	}
	refreshCustomerTier(ctx, s.store, s.issuer, user)

	return nil
}
