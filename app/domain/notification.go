package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type NotificationKind string

const (
	NotificationOrderConfirmation NotificationKind = "order_confirmation"
	NotificationStatusChanged     NotificationKind = "status_changed"
	NotificationTrackingUpdated   NotificationKind = "tracking_updated"
)

type OrderNotification struct {
	Kind           NotificationKind `json:"kind"`
	Recipient      string           `json:"recipient"`
	OrderID        string           `json:"order_id"`
	Status         OrderStatus      `json:"status"`
	TrackingNumber *string          `json:"tracking_number,omitempty"`
	Total          decimal.Decimal  `json:"total"`
	Items          []OrderItem      `json:"items,omitempty"`
}

// Notifier delivers order messages to the purchaser on a best-effort basis.
type Notifier interface {
	Notify(ctx context.Context, n OrderNotification) error
}
