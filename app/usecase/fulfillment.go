package usecase

import (
	"context"
	"log/slog"
	"storefront-service/app/domain"
)

type fulfillmentUsecase struct {
	transactor domain.Transactor
	orderRepo  domain.OrderRepository
	ledger     stockLedger
	locker     domain.OrderLocker
	publisher  domain.BrokerPublisher
	notifier   domain.Notifier
	machine    domain.StateMachine
}

func NewFulfillmentUsecase(transactor domain.Transactor, orderRepo domain.OrderRepository, productRepo domain.ProductRepository,
	movementRepo domain.StockMovementRepository, locker domain.OrderLocker, publisher domain.BrokerPublisher,
	notifier domain.Notifier, machine domain.StateMachine) domain.FulfillmentUsecase {
	return &fulfillmentUsecase{
		transactor: transactor,
		orderRepo:  orderRepo,
		ledger:     stockLedger{productRepo, movementRepo},
		locker:     locker,
		publisher:  publisher,
		notifier:   notifier,
		machine:    machine,
	}
}

// UpdateOrderStatus moves an order to a new status and applies the matching ledger actions
// to every line item. The stock writes and the order write commit together.
func (u *fulfillmentUsecase) UpdateOrderStatus(ctx context.Context, orderID string, req domain.OrderStatusUpdateRequest) (*domain.Order, error) {
	to, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		slog.WarnContext(ctx, "[fulfillmentUsecase] UpdateOrderStatus", "parseStatus", err)
		return nil, err
	}

	unlock, err := u.locker.Lock(ctx, orderID)
	if err != nil {
		slog.WarnContext(ctx, "[fulfillmentUsecase] UpdateOrderStatus", "lock", err)
		return nil, err
	}
	defer releaseLock(ctx, unlock, orderID)

	order, err := u.orderRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		slog.ErrorContext(ctx, "[fulfillmentUsecase] UpdateOrderStatus", "getOrder", err)
		return nil, err
	}

	transition, err := u.machine.Plan(order.Status, to)
	if err != nil {
		slog.WarnContext(ctx, "[fulfillmentUsecase] UpdateOrderStatus", "plan", err)
		return nil, err
	}

	trackingChanged := req.TrackingNumber != nil &&
		(order.TrackingNumber == nil || *order.TrackingNumber != *req.TrackingNumber)
	if transition.IsNoop() && !trackingChanged {
		return &order, nil
	}

	updated := order
	updated.Status = to
	if req.TrackingNumber != nil {
		updated.TrackingNumber = req.TrackingNumber
	}

	var touched []domain.Product
	err = u.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		if len(transition.Actions) > 0 {
			products, err := u.ledger.apply(ctx, order.OrderID, order.Quantities(), transition.Actions)
			if err != nil {
				return err
			}
			touched = products
		}
		return u.orderRepo.UpdateStatus(ctx, &updated, order.Status)
	})
	if err != nil {
		slog.ErrorContext(ctx, "[fulfillmentUsecase] UpdateOrderStatus", "transaction", err)
		return nil, err
	}

	publishStock(ctx, u.publisher, touched)
	kind := domain.NotificationStatusChanged
	if transition.IsNoop() {
		kind = domain.NotificationTrackingUpdated
	}
	notify(ctx, u.notifier, domain.OrderNotification{
		Kind:           kind,
		Recipient:      updated.UserEmail,
		OrderID:        updated.OrderID,
		Status:         updated.Status,
		TrackingNumber: updated.TrackingNumber,
		Total:          updated.Total,
	})

	slog.InfoContext(ctx, "[fulfillmentUsecase] UpdateOrderStatus", "order_id", orderID, "from", transition.From, "to", transition.To)
	return &updated, nil
}
