package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stefanjelkic00/TechShop/internal/domain"
)

// Tx is the unit of atomicity for checkout and order lifecycle edits.
// A reservation failure inside the callback rolls back every mutation
// made through the same Tx, including earlier reservations.
type Tx interface {
	CartSnapshotForUpdate(ctx context.Context, userID int64) (*domain.CartSnapshot, error)
	DrainCart(ctx context.Context, cartID int64) error

	ReserveStock(ctx context.Context, productID int64, quantity int32) error
	ReleaseStock(ctx context.Context, productID int64, quantity int32) error

	InsertAddress(ctx context.Context, addr *domain.Address) error
	InsertOrder(ctx context.Context, order *domain.Order) error
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, total decimal.Decimal) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}

type sqlTx struct {
	tx *sql.Tx
}

// WithinTx runs fn inside a single database transaction and commits only
// if fn returns nil. Any error from fn aborts the whole transaction.
func (r *Repository) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&sqlTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
