package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusShipped, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusShipped, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		// same-status edits are idempotent no-ops
		{OrderStatusCancelled, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusPending, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransitionTo(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusShipped.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.True(t, OrderStatusDelivered.IsTerminal())
}

func TestValidOrderStatus(t *testing.T) {
	assert.True(t, ValidOrderStatus("PENDING"))
	assert.True(t, ValidOrderStatus("CANCELLED"))
	assert.False(t, ValidOrderStatus("UNKNOWN"))
	assert.False(t, ValidOrderStatus(""))
}
