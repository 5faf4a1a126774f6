package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartSnapshotItem struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int32           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// CartSnapshot represents the full cart state at checkout time.
// Items keep the cart's insertion order; unit prices are the catalog
// prices read at capture time and are never re-derived afterwards.
type CartSnapshot struct {
	CartID     int64              `json:"cart_id"`
	UserID     int64              `json:"user_id"`
	Items      []CartSnapshotItem `json:"items"`
	CapturedAt time.Time          `json:"captured_at"`
}

// Subtotal is the undiscounted sum over all lines.
func (s *CartSnapshot) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.Subtotal)
	}
	return total
}
