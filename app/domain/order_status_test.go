package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	for _, s := range []string{"Processing", "Shipped", "Delivered"} {
		status, err := ParseOrderStatus(s)
		require.NoError(t, err)
		assert.Equal(t, OrderStatus(s), status)
	}

	_, err := ParseOrderStatus("Cancelled")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = ParseOrderStatus("shipped")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStateMachine_Plan(t *testing.T) {
	tests := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		restock bool
		actions []LedgerAction
		wantErr bool
	}{
		{"ship", OrderStatusProcessing, OrderStatusShipped, false, []LedgerAction{LedgerConsume}, false},
		{"deliver directly", OrderStatusProcessing, OrderStatusDelivered, false, []LedgerAction{LedgerConsume}, false},
		{"shipped to delivered", OrderStatusShipped, OrderStatusDelivered, false, nil, false},
		{"revert shipped", OrderStatusShipped, OrderStatusProcessing, false, []LedgerAction{LedgerReserve}, false},
		{"revert delivered", OrderStatusDelivered, OrderStatusProcessing, false, []LedgerAction{LedgerReserve}, false},
		{"revert with restock", OrderStatusShipped, OrderStatusProcessing, true, []LedgerAction{LedgerRestock, LedgerReserve}, false},
		{"same state", OrderStatusShipped, OrderStatusShipped, false, nil, false},
		{"delivered to shipped", OrderStatusDelivered, OrderStatusShipped, false, nil, true},
		{"unknown target", OrderStatusProcessing, OrderStatus("Lost"), false, nil, true},
		{"unknown same state", OrderStatus("Lost"), OrderStatus("Lost"), false, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := StateMachine{RestockOnRevert: tt.restock}
			tr, err := m.Plan(tt.from, tt.to)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.actions, tr.Actions)
			assert.Equal(t, tt.from == tt.to, tr.IsNoop())
		})
	}
}
