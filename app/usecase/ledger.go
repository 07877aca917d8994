package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"storefront-service/app/domain"
)

type stockLedger struct {
	productRepo  domain.ProductRepository
	movementRepo domain.StockMovementRepository
}

// apply runs actions against every product in quantities and must be called inside a
// transaction. All counters are computed before anything is written, so a failing item
// leaves the stored rows untouched. Products come back in id order.
func (l stockLedger) apply(ctx context.Context, orderID string, quantities map[int64]int64, actions []domain.LedgerAction) ([]domain.Product, error) {
	ids := make([]int64, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	locked, err := l.productRepo.LockForUpdate(ctx, ids)
	if err != nil {
		slog.ErrorContext(ctx, "[stockLedger] apply", "lockForUpdate", err)
		return nil, err
	}

	products := make([]domain.Product, 0, len(ids))
	var movements []domain.StockMovement
	for _, id := range ids {
		product := locked[id]
		for _, action := range actions {
			if err := product.Apply(action, quantities[id]); err != nil {
				return nil, fmt.Errorf("%s product %d: %w", action, id, err)
			}
			movements = append(movements, domain.StockMovement{
				ProductID: id,
				Kind:      action,
				Quantity:  quantities[id],
				OrderID:   &orderID,
			})
		}
		products = append(products, product)
	}

	for i := range products {
		if err := l.productRepo.UpdateCounters(ctx, &products[i]); err != nil {
			slog.ErrorContext(ctx, "[stockLedger] apply", "updateCounters", err)
			return nil, err
		}
	}

	if err := l.movementRepo.Create(ctx, movements); err != nil {
		slog.ErrorContext(ctx, "[stockLedger] apply", "createMovements", err)
		return nil, err
	}

	return products, nil
}

// publishStock announces the new availability of every product. Failures are only logged.
func publishStock(ctx context.Context, publisher domain.BrokerPublisher, products []domain.Product) {
	for _, p := range products {
		err := publisher.PublishStockAvailable(ctx, domain.StockMessage{
			ProductID: p.ID,
			Available: p.AvailableStock(),
			LowStock:  p.IsLowStock(),
		})
		if err != nil {
			slog.WarnContext(ctx, "[publishStock]", "product_id", p.ID, "error", err)
		}
	}
}

func notify(ctx context.Context, notifier domain.Notifier, n domain.OrderNotification) {
	if err := notifier.Notify(ctx, n); err != nil {
		slog.WarnContext(ctx, "[notify]", "order_id", n.OrderID, "kind", n.Kind, "error", err)
	}
}

func releaseLock(ctx context.Context, unlock domain.Unlock, orderID string) {
	if err := unlock(context.WithoutCancel(ctx)); err != nil {
		slog.WarnContext(ctx, "[releaseLock]", "order_id", orderID, "error", err)
	}
}
