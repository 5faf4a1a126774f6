package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stefanjelkic00/TechShop/internal/domain"
)

// CartSnapshotForUpdate locks the customer's cart row and captures its
// line items with the catalog prices at this moment. The row lock
// serializes concurrent checkouts for the same cart: the loser blocks
// until the winner commits and then observes the drained cart.
func (t *sqlTx) CartSnapshotForUpdate(ctx context.Context, userID int64) (*domain.CartSnapshot, error) {
	var cartID int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT id FROM carts WHERE user_id = $1 FOR UPDATE`, userID).Scan(&cartID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock cart for user %d: %w", userID, err)
	}

	query := `SELECT ci.product_id, p.name, ci.quantity, p.price
	          FROM cart_items ci
	          JOIN products p ON p.id = ci.product_id
	          WHERE ci.cart_id = $1
	          ORDER BY ci.id`

	rows, err := t.tx.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	snapshot := &domain.CartSnapshot{
		CartID:     cartID,
		UserID:     userID,
		Items:      make([]domain.CartSnapshotItem, 0),
		CapturedAt: time.Now(),
	}

	for rows.Next() {
		var item domain.CartSnapshotItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		item.Subtotal = item.UnitPrice.Mul(decimalFromInt32(item.Quantity))
		snapshot.Items = append(snapshot.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return snapshot, nil
}

func decimalFromInt32(n int32) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

// DrainCart deletes every line of the cart inside the current transaction.
func (t *sqlTx) DrainCart(ctx context.Context, cartID int64) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("drain cart %d: %w", cartID, err)
	}
	return nil
}
