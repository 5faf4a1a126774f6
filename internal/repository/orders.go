package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stefanjelkic00/TechShop/internal/domain"
)

func (t *sqlTx) InsertAddress(ctx context.Context, addr *domain.Address) error {
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO addresses (street, city, postal_code, country)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		addr.Street, addr.City, addr.PostalCode, addr.Country).Scan(&addr.ID)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

func (t *sqlTx) InsertOrder(ctx context.Context, order *domain.Order) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, status, total_price, address_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`,
		order.ID, order.UserID, order.Status, order.TotalPrice, order.Address.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err := t.tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price)
			 VALUES ($1, $2, $3, $4)`,
			order.ID, item.ProductID, item.Quantity, item.Price)
		if err != nil {
			return fmt.Errorf("insert order item for product %d: %w", item.ProductID, err)
		}
	}
	return nil
}

// GetOrderForUpdate loads the order and its lines with the order row
// locked, so concurrent lifecycle edits for the same order serialize.
func (t *sqlTx) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	var addressID sql.NullInt64
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, user_id, status, total_price, address_id, created_at, updated_at
		 FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.TotalPrice,
		&addressID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock order %s: %w", id, err)
	}
	if addressID.Valid {
		order.Address.ID = addressID.Int64
	}

	items, err := scanOrderItems(ctx, t.tx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (t *sqlTx) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, total decimal.Decimal) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE orders SET status = $2, total_price = $3, updated_at = NOW() WHERE id = $1`,
		id, status, total)
	if err != nil {
		return fmt.Errorf("update order %s status: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (t *sqlTx) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	// order_items go via ON DELETE CASCADE
	res, err := t.tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func scanOrderItems(ctx context.Context, q queryer, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT product_id, quantity, price FROM order_items WHERE order_id = $1 ORDER BY id`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

func (r *Repository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT o.id, o.user_id, o.status, o.total_price, o.created_at, o.updated_at,
	                 COALESCE(a.street, ''), COALESCE(a.city, ''), COALESCE(a.postal_code, ''), COALESCE(a.country, '')
	          FROM orders o
	          LEFT JOIN addresses a ON a.id = o.address_id
	          WHERE o.id = $1`

	var order domain.Order
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.TotalPrice,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.Address.Street,
		&order.Address.City,
		&order.Address.PostalCode,
		&order.Address.Country,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	items, err := scanOrderItems(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (r *Repository) ListOrdersByUserID(ctx context.Context, userID int64) ([]*domain.Order, error) {
	query := `SELECT id, user_id, status, total_price, created_at, updated_at
	          FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Status,
			&order.TotalPrice,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, order := range orders {
		items, err := scanOrderItems(ctx, r.db, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}

	return orders, nil
}

func (r *Repository) CountOrdersByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count orders for user %d: %w", userID, err)
	}
	return count, nil
}
