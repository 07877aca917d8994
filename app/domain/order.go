package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Quantity))
}

type ShippingAddress struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	Address   string `json:"address" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	ZipCode   string `json:"zip_code" validate:"required"`
	Country   string `json:"country" validate:"required"`
}

type Order struct {
	ID              int64           `json:"id"`
	OrderID         string          `json:"order_id"`
	Date            time.Time       `json:"date"`
	Status          OrderStatus     `json:"status"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Shipping        decimal.Decimal `json:"shipping"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
	Items           []OrderItem     `json:"items"`
	TrackingNumber  *string         `json:"tracking_number,omitempty"`
	UserID          *string         `json:"user_id,omitempty"`
	UserEmail       string          `json:"user_email"`
	UserName        string          `json:"user_name"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	Version         int64           `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Quantities sums line item quantities per product.
func (o Order) Quantities() map[int64]int64 {
	out := make(map[int64]int64, len(o.Items))
	for _, it := range o.Items {
		out[it.ProductID] += it.Quantity
	}
	return out
}

type OrderItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gt=0"`
}

type OrderCreateRequest struct {
	OrderID         string             `json:"order_id"`
	Date            *time.Time         `json:"date"`
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Total           *decimal.Decimal   `json:"total"`
	TrackingNumber  *string            `json:"tracking_number"`
	UserID          *string            `json:"user_id"`
	UserEmail       string             `json:"user_email" validate:"required,email"`
	UserName        string             `json:"username"`
	ShippingAddress ShippingAddress    `json:"shipping_address"`
}

type OrderStatusUpdateRequest struct {
	Status         string  `json:"status" validate:"required"`
	TrackingNumber *string `json:"tracking_number"`
}

// GetListOrderRequest filters orders. When both fields are set an order matches if it
// belongs to UserID or was placed with UserEmail.
type GetListOrderRequest struct {
	UserEmail string `query:"user_email"`
	UserID    string `query:"-"`
}

func (p GetListOrderRequest) Matches(o Order) bool {
	byUser := p.UserID != "" && o.UserID != nil && *o.UserID == p.UserID
	byEmail := p.UserEmail != "" && strings.EqualFold(o.UserEmail, p.UserEmail)
	switch {
	case p.UserID != "" && p.UserEmail != "":
		return byUser || byEmail
	case p.UserID != "":
		return byUser
	case p.UserEmail != "":
		return byEmail
	}
	return true
}

type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	GetByOrderID(ctx context.Context, orderID string) (Order, error)
	GetList(ctx context.Context, param GetListOrderRequest) ([]Order, error)
	// UpdateStatus persists status and tracking number only if the stored row still has
	// the expected status and order.Version. Otherwise it returns ErrConflict.
	UpdateStatus(ctx context.Context, order *Order, expected OrderStatus) error
	Delete(ctx context.Context, orderID string) error
	CountOpenByProductID(ctx context.Context, productID int64) (int64, error)
}

type OrderUsecase interface {
	CreateOrder(ctx context.Context, req OrderCreateRequest) (*Order, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	GetListOrder(ctx context.Context, param GetListOrderRequest) ([]Order, error)
	DeleteOrder(ctx context.Context, orderID string) error
}

type FulfillmentUsecase interface {
	UpdateOrderStatus(ctx context.Context, orderID string, req OrderStatusUpdateRequest) (*Order, error)
}
