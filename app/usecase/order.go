package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"storefront-service/app/domain"
	"time"
)

const guestUserName = "Guest"

type orderUsecase struct {
	transactor domain.Transactor
	orderRepo  domain.OrderRepository
	ledger     stockLedger
	locker     domain.OrderLocker
	publisher  domain.BrokerPublisher
	notifier   domain.Notifier
	pricing    domain.PricingRules
	now        func() time.Time
}

func NewOrderUsecase(transactor domain.Transactor, orderRepo domain.OrderRepository, productRepo domain.ProductRepository,
	movementRepo domain.StockMovementRepository, locker domain.OrderLocker, publisher domain.BrokerPublisher,
	notifier domain.Notifier, pricing domain.PricingRules) domain.OrderUsecase {
	return &orderUsecase{
		transactor: transactor,
		orderRepo:  orderRepo,
		ledger:     stockLedger{productRepo, movementRepo},
		locker:     locker,
		publisher:  publisher,
		notifier:   notifier,
		pricing:    pricing,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder prices the cart from the catalog and reserves stock for every line item
// in the same transaction as the insert.
func (u *orderUsecase) CreateOrder(ctx context.Context, req domain.OrderCreateRequest) (*domain.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", domain.ErrValidation)
	}

	quantities := make(map[int64]int64, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
		}
		quantities[item.ProductID] += item.Quantity
	}

	now := u.now()
	order := domain.Order{
		OrderID:         req.OrderID,
		Date:            now,
		Status:          domain.OrderStatusProcessing,
		TrackingNumber:  req.TrackingNumber,
		UserID:          req.UserID,
		UserEmail:       req.UserEmail,
		UserName:        req.UserName,
		ShippingAddress: req.ShippingAddress,
	}
	if order.OrderID == "" {
		order.OrderID = fmt.Sprintf("ORD-%d", now.UnixMilli())
	}
	if req.Date != nil {
		order.Date = req.Date.UTC()
	}
	if order.UserName == "" {
		order.UserName = guestUserName
	}

	var touched []domain.Product
	err := u.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		products, err := u.ledger.apply(ctx, order.OrderID, quantities, []domain.LedgerAction{domain.LedgerReserve})
		if err != nil {
			return err
		}

		catalog := make(map[int64]domain.Product, len(products))
		for _, p := range products {
			catalog[p.ID] = p
		}

		order.Items = make([]domain.OrderItem, 0, len(req.Items))
		for _, item := range req.Items {
			p := catalog[item.ProductID]
			order.Items = append(order.Items, domain.OrderItem{
				ProductID: p.ID,
				Name:      p.Name,
				Quantity:  item.Quantity,
				Price:     p.Price,
			})
		}

		quote := u.pricing.Quote(order.Items)
		if req.Total != nil && !req.Total.Equal(quote.Total) {
			return fmt.Errorf("%w: total %s does not match computed total %s", domain.ErrValidation, req.Total, quote.Total)
		}
		order.Subtotal = quote.Subtotal
		order.Shipping = quote.Shipping
		order.Tax = quote.Tax
		order.Total = quote.Total

		touched = products
		return u.orderRepo.Create(ctx, &order)
	})
	if err != nil {
		slog.ErrorContext(ctx, "[orderUsecase] CreateOrder", "transaction", err)
		return nil, err
	}

	publishStock(ctx, u.publisher, touched)
	notify(ctx, u.notifier, domain.OrderNotification{
		Kind:      domain.NotificationOrderConfirmation,
		Recipient: order.UserEmail,
		OrderID:   order.OrderID,
		Status:    order.Status,
		Total:     order.Total,
		Items:     order.Items,
	})

	slog.InfoContext(ctx, "[orderUsecase] CreateOrder", "order_id", order.OrderID, "total", order.Total.StringFixed(domain.CurrencyPlaces))
	return &order, nil
}

func (u *orderUsecase) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	order, err := u.orderRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		slog.ErrorContext(ctx, "[orderUsecase] GetOrder", "getByOrderID", err)
		return domain.Order{}, err
	}
	return order, nil
}

func (u *orderUsecase) GetListOrder(ctx context.Context, param domain.GetListOrderRequest) ([]domain.Order, error) {
	orders, err := u.orderRepo.GetList(ctx, param)
	if err != nil {
		slog.ErrorContext(ctx, "[orderUsecase] GetListOrder", "getList", err)
		return nil, err
	}
	return orders, nil
}

// DeleteOrder removes the order. A Processing order gives its reservations back first.
func (u *orderUsecase) DeleteOrder(ctx context.Context, orderID string) error {
	unlock, err := u.locker.Lock(ctx, orderID)
	if err != nil {
		slog.WarnContext(ctx, "[orderUsecase] DeleteOrder", "lock", err)
		return err
	}
	defer releaseLock(ctx, unlock, orderID)

	order, err := u.orderRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		slog.ErrorContext(ctx, "[orderUsecase] DeleteOrder", "getByOrderID", err)
		return err
	}

	var touched []domain.Product
	err = u.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		if order.Status.IsOpen() && len(order.Items) > 0 {
			products, err := u.ledger.apply(ctx, order.OrderID, order.Quantities(), []domain.LedgerAction{domain.LedgerRelease})
			if err != nil {
				return err
			}
			touched = products
		}
		return u.orderRepo.Delete(ctx, orderID)
	})
	if err != nil {
		slog.ErrorContext(ctx, "[orderUsecase] DeleteOrder", "transaction", err)
		return err
	}

	publishStock(ctx, u.publisher, touched)
	slog.InfoContext(ctx, "[orderUsecase] DeleteOrder", "order_id", orderID)
	return nil
}
