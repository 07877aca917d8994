package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultMinStockThreshold int64 = 5

type Product struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	SKU               string          `json:"sku"`
	Category          string          `json:"category"`
	Image             string          `json:"image"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	StockQuantity     int64           `json:"stock_quantity"`
	ReservedStock     int64           `json:"reserved_stock"`
	MinStockThreshold int64           `json:"min_stock_threshold"`
	Version           int64           `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// AvailableStock is the number of units that can still be sold.
func (p Product) AvailableStock() int64 {
	return p.StockQuantity - p.ReservedStock
}

func (p Product) IsLowStock() bool {
	return p.AvailableStock() <= p.MinStockThreshold
}

// ValidPrice reports whether p is a positive amount with at most two decimal places.
func ValidPrice(p decimal.Decimal) bool {
	return p.IsPositive() && p.Equal(p.Round(CurrencyPlaces))
}

type ProductCreateRequest struct {
	Name              string          `json:"name" validate:"required"`
	SKU               string          `json:"sku"`
	Category          string          `json:"category" validate:"required"`
	Image             string          `json:"image" validate:"required"`
	Description       string          `json:"description" validate:"required"`
	Price             decimal.Decimal `json:"price"`
	StockQuantity     int64           `json:"stock_quantity" validate:"gte=0"`
	MinStockThreshold *int64          `json:"min_stock_threshold" validate:"omitempty,gte=0"`
}

type ProductUpdateRequest struct {
	Name        string          `json:"name" validate:"required"`
	SKU         string          `json:"sku"`
	Category    string          `json:"category" validate:"required"`
	Image       string          `json:"image" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Price       decimal.Decimal `json:"price"`
}

type InventoryResponse struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	SKU               string `json:"sku"`
	StockQuantity     int64  `json:"stock_quantity"`
	ReservedStock     int64  `json:"reserved_stock"`
	AvailableStock    int64  `json:"available_stock"`
	MinStockThreshold int64  `json:"min_stock_threshold"`
	IsLowStock        bool   `json:"is_low_stock"`
}

func NewInventoryResponse(p Product) InventoryResponse {
	return InventoryResponse{
		ID:                p.ID,
		Name:              p.Name,
		SKU:               p.SKU,
		StockQuantity:     p.StockQuantity,
		ReservedStock:     p.ReservedStock,
		AvailableStock:    p.AvailableStock(),
		MinStockThreshold: p.MinStockThreshold,
		IsLowStock:        p.IsLowStock(),
	}
}

type InventoryUpdateRequest struct {
	StockQuantity     *int64 `json:"stock_quantity" validate:"omitempty,gte=0"`
	MinStockThreshold *int64 `json:"min_stock_threshold" validate:"omitempty,gte=0"`
}

type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	GetByID(ctx context.Context, id int64) (Product, error)
	GetList(ctx context.Context) ([]Product, error)
	GetLowStock(ctx context.Context) ([]Product, error)
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id int64) error

	// LockForUpdate must be called inside WithTransaction. Missing ids yield ErrNotFound.
	LockForUpdate(ctx context.Context, ids []int64) (map[int64]Product, error)
	// UpdateCounters writes stock, reserved and threshold when the stored version still
	// matches product.Version, then bumps product.Version. A stale version yields ErrConflict.
	UpdateCounters(ctx context.Context, product *Product) error
}

type ProductUsecase interface {
	Create(ctx context.Context, req ProductCreateRequest) (*Product, error)
	GetByID(ctx context.Context, id int64) (Product, error)
	GetList(ctx context.Context) ([]Product, error)
	Update(ctx context.Context, id int64, req ProductUpdateRequest) (*Product, error)
	Delete(ctx context.Context, id int64) error
}

type InventoryUsecase interface {
	GetInventory(ctx context.Context, productID int64) (InventoryResponse, error)
	AdjustInventory(ctx context.Context, productID int64, req InventoryUpdateRequest) (InventoryResponse, error)
	GetLowStock(ctx context.Context) ([]InventoryResponse, error)
	GetMovements(ctx context.Context, productID int64) ([]StockMovement, error)
}
