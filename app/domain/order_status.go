package domain

import "fmt"

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
)

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch status := OrderStatus(s); status {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return status, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, s)
	}
}

// IsOpen reports whether the order still holds a reservation.
func (s OrderStatus) IsOpen() bool {
	return s == OrderStatusProcessing
}

type edge struct {
	from, to OrderStatus
}

type edgeKind int

const (
	edgeFulfil edgeKind = iota + 1
	edgeRevert
	edgeAdvance
)

var transitions = map[edge]edgeKind{
	{OrderStatusProcessing, OrderStatusShipped}:   edgeFulfil,
	{OrderStatusProcessing, OrderStatusDelivered}: edgeFulfil,
	{OrderStatusShipped, OrderStatusProcessing}:   edgeRevert,
	{OrderStatusDelivered, OrderStatusProcessing}: edgeRevert,
	{OrderStatusShipped, OrderStatusDelivered}:    edgeAdvance,
}

// Transition is a validated status edge and the ledger actions every line item goes through.
type Transition struct {
	From    OrderStatus
	To      OrderStatus
	Actions []LedgerAction
}

func (t Transition) IsNoop() bool {
	return t.From == t.To
}

// StateMachine decides which status edges are allowed for an order.
//
// Reverting a shipped or delivered order back to Processing always restores its
// reservation. With RestockOnRevert the consumed units are also put back on hand.
type StateMachine struct {
	RestockOnRevert bool
}

func (m StateMachine) Plan(from, to OrderStatus) (Transition, error) {
	t := Transition{From: from, To: to}
	if from == to {
		if _, err := ParseOrderStatus(string(to)); err != nil {
			return Transition{}, err
		}
		return t, nil
	}

	kind, ok := transitions[edge{from, to}]
	if !ok {
		return Transition{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	switch kind {
	case edgeFulfil:
		t.Actions = []LedgerAction{LedgerConsume}
	case edgeRevert:
		if m.RestockOnRevert {
			t.Actions = []LedgerAction{LedgerRestock, LedgerReserve}
		} else {
			t.Actions = []LedgerAction{LedgerReserve}
		}
	}
	return t, nil
}
