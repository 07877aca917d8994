package usecase

import (
	"context"
	"storefront-service/app/domain"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ship(status domain.OrderStatus) domain.OrderStatusUpdateRequest {
	return domain.OrderStatusUpdateRequest{Status: string(status)}
}

func TestUpdateOrderStatus_ShipConsumesReservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.StateMachine{})
	p := f.addProduct(t, "ring", 2500, 10)
	f.placeOrder(t, "ORD-1", domain.OrderItemRequest{ProductID: p.ID, Quantity: 3})

	got := f.product(t, p.ID)
	require.Equal(t, int64(10), got.StockQuantity)
	require.Equal(t, int64(3), got.ReservedStock)

	order, err := f.fulfillment.UpdateOrderStatus(ctx, "ORD-1", ship(domain.OrderStatusShipped))
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, order.Status)

	got = f.product(t, p.ID)
	assert.Equal(t, int64(7), got.StockQuantity)
	assert.Equal(t, int64(0), got.ReservedStock)
	assert.Equal(t, 1, f.countMovements(t, p.ID, domain.LedgerConsume))

	stored, err := f.orders.GetByOrderID(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, stored.Status)
}

func TestUpdateOrderStatus_DeliverFromProcessing(t *testing.T) {
	f := newFixture(t, domain.StateMachine{})
	p := f.addProduct(t, "ring", 2500, 10)
	f.placeOrder(t, "ORD-1", domain.OrderItemRequest{ProductID: p.ID, Quantity: 4})

	_, err := f.fulfillment.UpdateOrderStatus(context.Background(), "ORD-1", ship(domain.OrderStatusDelivered))
	require.NoError(t, err)

	got := f.product(t, p.ID)
	assert.Equal(t, int64(6), got.StockQuantity)
	assert.Zero(t, got.ReservedStock)
}

func TestUpdateOrderStatus_RevertRestoresReservationOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.StateMachine{})
	p := f.addProduct(t, "ring", 2500, 10)
	f.placeOrder(t, "ORD-1", domain.OrderItemRequest{ProductID: p.ID, Quantity: 3})

	_, err := f.fulfillment.UpdateOrderStatus(ctx, "ORD-1", ship(domain.OrderStatusShipped))
	require.NoError(t, err)
	order, err := f.fulfillment.UpdateOrderStatus(ctx, "ORD-1", ship(domain.OrderStatusProcessing))
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, order.Status)

	got := f.product(t, p.ID)
	assert.Equal(t, int64(7), got.StockQuantity)
	assert.Equal(t, int64(3), got.ReservedStock)
}

func TestUpdateOrderStatus_RevertWithRestock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.StateMachine{RestockOnRevert: true})
	p := f.addProduct(t, "ring", 2500, 10)
	f.placeOrder(t, "ORD-1", domain.OrderItemRequest{ProductID: p.ID, Quantity: 3})

	_, err := f.fulfillment.UpdateOrderStatus(ctx, "ORD-1", ship(domain.OrderStatusDelivered))
	require.NoError(t, err)
	_, err = f.fulfillment.UpdateOrderStatus(ctx, "ORD-1", ship(domain.OrderStatusProcessing))
	require.NoError(t, err)

	got := f.product(t, p.ID)
	assert.Equal(t, int64(10), got.StockQuantity)
	assert.Equal(t, int64(3), got.ReservedStock)
	assert.Equal(t, 1, f.countMovements(t, p.ID, domain.LedgerRestock))
}

func TestUpdateOrderStatus_ShippedToDeliveredLeavesStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.StateMachine{})
	p := f.addProduct(t, "ring", 2500, 10)
	f.placeOrder(t, "ORD-1", domain.OrderItemRequest{ProductID: p.ID, Quantity: 3})

	_, err := f.fulfillment.UpdateOrderStatus(ctx, "ORD-1", ship(domain.OrderStatusShipped))
	require.NoError(t, err)
	before := f.product(t, p.ID)

	order, err := f.fulfillment.UpdateOrderStatus(ctx, "ORD-1", ship(domain.OrderStatusDelivered))
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, order.Status)
	assert.Equal(t, before, f.product(t, p.ID))
}

func TestUpdateOrderStatus_InvalidTransitionChangesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.StateMachine{})
	p := f.addProduct(t, "ring", 2500, 10)
	f.placeOrder(t, "ORD-1", domain.OrderItemRequest{ProductID: p.ID, Quantity: 3})

	_, err := f.fulfillment.UpdateOrderStatus(ctx, "ORD-1", ship(domain.OrderStatusDelivered))
	require.NoError(t, err)

	productBefore := f.product(t, p.ID)
	orderBefore, err := f.orders.GetByOrderID(ctx, "ORD-1")
	require.NoError(t, err)

	_, err = f.fulfillment.UpdateOrderStatus(ctx, "ORD-1", ship(domain.OrderStatusShipped))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.fulfillment.UpdateOrderStatus(ctx, "ORD-1", domain.OrderStatusUpdateRequest{Status: "Cancelled"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	orderAfter, err := f.orders.GetByOrderID(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, orderBefore, orderAfter)
	assert.Equal(t, productBefore, f.product(t, p.ID))
}

func TestUpdateOrderStatus_SameStatusUpdatesTrackingAndNotifies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.StateMachine{})
	p := f.addProduct(t, "ring", 2500, 10)
	f.placeOrder(t, "ORD-1", domain.OrderItemRequest{ProductID: p.ID, Quantity: 3})

	_, err := f.fulfillment.UpdateOrderStatus(ctx, "ORD-1", ship(domain.OrderStatusShipped))
	require.NoError(t, err)
	before := f.product(t, p.ID)
	sent := len(f.notifier.notifications())

	tracking := "TRK-42"
	req := domain.OrderStatusUpdateRequest{Status: string(domain.OrderStatusShipped), TrackingNumber: &tracking}
	order, err := f.fulfillment.UpdateOrderStatus(ctx, "ORD-1", req)
	require.NoError(t, err)
	require.NotNil(t, order.TrackingNumber)
	assert.Equal(t, "TRK-42", *order.TrackingNumber)
	assert.Equal(t, before, f.product(t, p.ID))

	notifications := f.notifier.notifications()
	require.Len(t, notifications, sent+1)
	last := notifications[len(notifications)-1]
	assert.Equal(t, domain.NotificationTrackingUpdated, last.Kind)
	assert.Equal(t, domain.OrderStatusShipped, last.Status)
	require.NotNil(t, last.TrackingNumber)
	assert.Equal(t, "TRK-42", *last.TrackingNumber)

	stored, err := f.orders.GetByOrderID(ctx, "ORD-1")
	require.NoError(t, err)
	require.NotNil(t, stored.TrackingNumber)
	assert.Equal(t, "TRK-42", *stored.TrackingNumber)

	// Same tracking number again is a no-op.
	_, err = f.fulfillment.UpdateOrderStatus(ctx, "ORD-1", req)
	require.NoError(t, err)
	assert.Len(t, f.notifier.notifications(), sent+1)
	again, err := f.orders.GetByOrderID(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, stored.Version, again.Version)
}

func TestUpdateOrderStatus_ConcurrentShipConsumesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.StateMachine{})
	p := f.addProduct(t, "ring", 2500, 10)
	f.placeOrder(t, "ORD-1", domain.OrderItemRequest{ProductID: p.ID, Quantity: 3})

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.fulfillment.UpdateOrderStatus(ctx, "ORD-1", ship(domain.OrderStatusShipped))
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, isConflict(err), "unexpected error: %v", err)
	}
	assert.GreaterOrEqual(t, succeeded, 1)

	got := f.product(t, p.ID)
	assert.Equal(t, int64(7), got.StockQuantity)
	assert.Equal(t, int64(0), got.ReservedStock)
	assert.Equal(t, 1, f.countMovements(t, p.ID, domain.LedgerConsume))
}

func TestUpdateOrderStatus_LockHeld(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.StateMachine{})
	p := f.addProduct(t, "ring", 2500, 10)
	f.placeOrder(t, "ORD-1", domain.OrderItemRequest{ProductID: p.ID, Quantity: 3})

	unlock, err := f.locker.Lock(ctx, "ORD-1")
	require.NoError(t, err)

	_, err = f.fulfillment.UpdateOrderStatus(ctx, "ORD-1", ship(domain.OrderStatusShipped))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, int64(3), f.product(t, p.ID).ReservedStock)

	require.NoError(t, unlock(ctx))
	_, err = f.fulfillment.UpdateOrderStatus(ctx, "ORD-1", ship(domain.OrderStatusShipped))
	assert.NoError(t, err)
}

func TestUpdateOrderStatus_MissingProductRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.StateMachine{})
	a := f.addProduct(t, "ring", 2500, 10)
	b := f.addProduct(t, "necklace", 4000, 10)
	f.placeOrder(t, "ORD-1",
		domain.OrderItemRequest{ProductID: a.ID, Quantity: 2},
		domain.OrderItemRequest{ProductID: b.ID, Quantity: 1},
	)

	// Deleted underneath the order, bypassing the catalog guard.
	require.NoError(t, f.products.Delete(ctx, b.ID))
	before := f.product(t, a.ID)

	_, err := f.fulfillment.UpdateOrderStatus(ctx, "ORD-1", ship(domain.OrderStatusShipped))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, before, f.product(t, a.ID))
	order, err := f.orders.GetByOrderID(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, order.Status)
}

func TestUpdateOrderStatus_InsufficientStockRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.StateMachine{})
	a := f.addProduct(t, "ring", 2500, 10)
	b := f.addProduct(t, "necklace", 4000, 10)
	f.placeOrder(t, "ORD-1",
		domain.OrderItemRequest{ProductID: a.ID, Quantity: 2},
		domain.OrderItemRequest{ProductID: b.ID, Quantity: 2},
	)

	broken := f.product(t, b.ID)
	broken.ReservedStock = 0
	require.NoError(t, f.products.UpdateCounters(ctx, &broken))
	before := f.product(t, a.ID)

	_, err := f.fulfillment.UpdateOrderStatus(ctx, "ORD-1", ship(domain.OrderStatusShipped))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, before, f.product(t, a.ID))
	assert.Equal(t, 0, f.countMovements(t, a.ID, domain.LedgerConsume))
}

func TestUpdateOrderStatus_NotFound(t *testing.T) {
	f := newFixture(t, domain.StateMachine{})
	_, err := f.fulfillment.UpdateOrderStatus(context.Background(), "ORD-404", ship(domain.OrderStatusShipped))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateOrderStatus_PublishesAndNotifies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domain.StateMachine{})
	p := f.addProduct(t, "ring", 2500, 10)
	f.placeOrder(t, "ORD-1", domain.OrderItemRequest{ProductID: p.ID, Quantity: 3})
	published := len(f.publisher.messages())

	tracking := "TRK-1"
	_, err := f.fulfillment.UpdateOrderStatus(ctx, "ORD-1", domain.OrderStatusUpdateRequest{
		Status:         string(domain.OrderStatusShipped),
		TrackingNumber: &tracking,
	})
	require.NoError(t, err)

	msgs := f.publisher.messages()
	require.Len(t, msgs, published+1)
	assert.Equal(t, domain.StockMessage{ProductID: p.ID, Available: 7, LowStock: false}, msgs[len(msgs)-1])

	sent := f.notifier.notifications()
	last := sent[len(sent)-1]
	assert.Equal(t, domain.NotificationStatusChanged, last.Kind)
	assert.Equal(t, "ann@shop.io", last.Recipient)
	assert.Equal(t, domain.OrderStatusShipped, last.Status)
	require.NotNil(t, last.TrackingNumber)
	assert.Equal(t, "TRK-1", *last.TrackingNumber)
}

func TestUpdateOrderStatus_SideEffectFailuresDoNotFail(t *testing.T) {
	f := newFixture(t, domain.StateMachine{})
	p := f.addProduct(t, "ring", 2500, 10)
	f.placeOrder(t, "ORD-1", domain.OrderItemRequest{ProductID: p.ID, Quantity: 3})

	f.publisher.err = assert.AnError
	f.notifier.err = assert.AnError

	_, err := f.fulfillment.UpdateOrderStatus(context.Background(), "ORD-1", ship(domain.OrderStatusShipped))
	require.NoError(t, err)
	assert.Equal(t, int64(7), f.product(t, p.ID).StockQuantity)
}
