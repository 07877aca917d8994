package domain

import "fmt"

// LedgerAction is a single counter mutation applied to a product.
type LedgerAction string

const (
	LedgerReserve LedgerAction = "reserve"
	LedgerRelease LedgerAction = "release"
	LedgerConsume LedgerAction = "consume"
	LedgerRestock LedgerAction = "restock"
	LedgerAdjust  LedgerAction = "adjust"
)

// Reserve allocates quantity units to an unfulfilled order.
func (p *Product) Reserve(quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if p.ReservedStock+quantity > p.StockQuantity {
		return fmt.Errorf("%w: product %d has %d available, %d requested", ErrInsufficientStock, p.ID, p.AvailableStock(), quantity)
	}
	p.ReservedStock += quantity
	return nil
}

// Release gives back a reservation. The counter never drops below zero.
func (p *Product) Release(quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	p.ReservedStock -= quantity
	if p.ReservedStock < 0 {
		p.ReservedStock = 0
	}
	return nil
}

// Consume turns a reservation into a physical decrement.
func (p *Product) Consume(quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if p.StockQuantity-quantity < 0 || p.ReservedStock-quantity < 0 {
		return fmt.Errorf("%w: product %d cannot consume %d (stock %d, reserved %d)",
			ErrInsufficientStock, p.ID, quantity, p.StockQuantity, p.ReservedStock)
	}
	p.StockQuantity -= quantity
	p.ReservedStock -= quantity
	return nil
}

// Restock puts quantity units back on hand.
func (p *Product) Restock(quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	p.StockQuantity += quantity
	return nil
}

// Adjust sets the on-hand quantity and, optionally, the reorder threshold.
func (p *Product) Adjust(stockQuantity int64, minStockThreshold *int64) error {
	if stockQuantity < 0 {
		return fmt.Errorf("%w: stock quantity must not be negative", ErrValidation)
	}
	if minStockThreshold != nil && *minStockThreshold < 0 {
		return fmt.Errorf("%w: min stock threshold must not be negative", ErrValidation)
	}
	if stockQuantity < p.ReservedStock {
		return fmt.Errorf("%w: product %d has %d units reserved", ErrInsufficientStock, p.ID, p.ReservedStock)
	}
	p.StockQuantity = stockQuantity
	if minStockThreshold != nil {
		p.MinStockThreshold = *minStockThreshold
	}
	return nil
}

// Apply dispatches a per-unit ledger action. Adjust is not a per-unit action.
func (p *Product) Apply(action LedgerAction, quantity int64) error {
	switch action {
	case LedgerReserve:
		return p.Reserve(quantity)
	case LedgerRelease:
		return p.Release(quantity)
	case LedgerConsume:
		return p.Consume(quantity)
	case LedgerRestock:
		return p.Restock(quantity)
	default:
		return fmt.Errorf("%w: unsupported ledger action %q", ErrInvalidRequest, action)
	}
}
