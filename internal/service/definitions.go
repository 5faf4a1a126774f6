package service

import (
	"context"

	"github.com/stefanjelkic00/TechShop/internal/domain"
)

// Notifier delivers customer-facing order mail. Both calls are
// fire-and-forget from the caller's point of view: failures are logged
// and never affect the outcome of the operation that triggered them.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, email string, order *domain.Order) error
	SendOrderCancellation(ctx context.Context, email string, order *domain.Order) error
}

// CredentialIssuer refreshes the customer's externally held session
// token so its embedded tier claim matches the current tier.
type CredentialIssuer interface {
	Reissue(ctx context.Context, user *domain.User, tier domain.Tier) (string, error)
}

// CartLocker guards a customer's cart against concurrent checkouts.
// Lock blocks until the lock is acquired or ctx is done; the returned
// function releases it.
type CartLocker interface {
	Lock(ctx context.Context, userID int64) (func(), error)
}
