package domain

import (
	"context"
	"time"
)

// StockMovement records one ledger mutation for auditing.
type StockMovement struct {
	ID        int64        `json:"id"`
	ProductID int64        `json:"product_id"`
	Kind      LedgerAction `json:"kind"`
	Quantity  int64        `json:"quantity"`
	OrderID   *string      `json:"order_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type StockMovementRepository interface {
	Create(ctx context.Context, movements []StockMovement) error
	GetByProductID(ctx context.Context, productID int64) ([]StockMovement, error)
}
