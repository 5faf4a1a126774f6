package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ReserveStock atomically checks and decrements the product's stock
// counter. The WHERE guard keeps the counter non-negative; zero rows
// affected means the line cannot be satisfied and the caller is expected
// to abort the transaction, undoing any earlier reservations.
func (t *sqlTx) ReserveStock(ctx context.Context, productID int64, quantity int32) error {
	var newStock int32
	err := t.tx.QueryRowContext(ctx,
		`UPDATE products
		 SET stock_quantity = stock_quantity - $2, updated_at = NOW()
		 WHERE id = $1 AND stock_quantity >= $2
		 RETURNING stock_quantity`,
		productID, quantity).Scan(&newStock)
	if errors.Is(err, sql.ErrNoRows) {
		return &InsufficientStockError{ProductID: productID}
	}
	if err != nil {
		return fmt.Errorf("reserve stock for product %d: %w", productID, err)
	}

	return t.insertStockEvent(ctx, productID, newStock)
}

// ReleaseStock returns quantity to the product's stock counter. Used as
// the compensating action when an order is deleted before delivery.
func (t *sqlTx) ReleaseStock(ctx context.Context, productID int64, quantity int32) error {
	var newStock int32
	err := t.tx.QueryRowContext(ctx,
		`UPDATE products
		 SET stock_quantity = stock_quantity + $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING stock_quantity`,
		productID, quantity).Scan(&newStock)
	if errors.Is(err, sql.ErrNoRows) {
		// product removed from the catalog; nothing to restore
		return nil
	}
	if err != nil {
		return fmt.Errorf("release stock for product %d: %w", productID, err)
	}

	return t.insertStockEvent(ctx, productID, newStock)
}

// insertStockEvent records the new stock value in the outbox so the
// search index mirror catches up after commit. The row commits or rolls
// back together with the stock change itself, so the mirror never sees
// a value the ledger did not commit.
func (t *sqlTx) insertStockEvent(ctx context.Context, productID int64, newStock int32) error {
	payload, err := json.Marshal(map[string]interface{}{
		"product_id": productID,
		"stock":      newStock,
	})
	if err != nil {
		return fmt.Errorf("marshal stock event payload: %w", err)
	}

	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO outbox_events (aggregate_id, event_type, payload)
		 VALUES ($1, $2, $3)`,
		fmt.Sprint(productID), "stock.updated", payload)
	if err != nil {
		return fmt.Errorf("insert stock event: %w", err)
	}
	return nil
}
