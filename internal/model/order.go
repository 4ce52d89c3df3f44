package model

import "time"

// Order statuses.  The lifecycle is a closed state machine: every
// transition must come from the exact source status of its edge, and
// conflicting attempts are rejected rather than silently ignored.
//
//	PENDING_PAYMENT -> CLOSED | ALREADY_PAID
//	ALREADY_PAID    -> REFUNDED | RESCHEDULED | COMPLETED
//	RESCHEDULED     -> COMPLETED | REFUNDED
//
// CLOSED, REFUNDED and COMPLETED are terminal.
const (
	OrderPendingPayment = "PENDING_PAYMENT"
	OrderAlreadyPaid    = "ALREADY_PAID"
	OrderCompleted      = "COMPLETED"
	OrderClosed         = "CLOSED"
	OrderRefunded       = "REFUNDED"
	OrderRescheduled    = "RESCHEDULED"
)

var orderEdges = map[string]map[string]bool{
	OrderPendingPayment: {OrderClosed: true, OrderAlreadyPaid: true},
	OrderAlreadyPaid:    {OrderRefunded: true, OrderRescheduled: true, OrderCompleted: true},
	OrderRescheduled:    {OrderCompleted: true, OrderRefunded: true},
}

// OrderStatusValid reports whether s is a known order status.
func OrderStatusValid(s string) bool {
	switch s {
	case OrderPendingPayment, OrderAlreadyPaid, OrderCompleted,
		OrderClosed, OrderRefunded, OrderRescheduled:
		return true
	}
	return false
}

// OrderCanTransition reports whether the lifecycle permits moving an
// order from status from to status to.
func OrderCanTransition(from, to string) bool {
	return orderEdges[from][to]
}

// Order aggregates one purchase: who bought, which segment, and the
// lifecycle status gated by the order lock.
//
// Fields:
//  SN        – order serial number, unique per purchase.
//  UserID    – account that initiated the purchase.
//  Segment   – the leg the tickets are valid for.
//  Status    – lifecycle status, see constants above.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last status change.
type Order struct {
	SN        string    // t_order.order_sn
	UserID    string    // t_order.user_id
	Segment   Segment   // t_order.train_id / departure / arrival
	Status    string    // t_order.status
	CreatedAt time.Time // t_order.created_at
	UpdatedAt time.Time // t_order.updated_at
}

// OrderItem is one passenger's ticket inside an order.
type OrderItem struct {
	OrderSN     string    // t_order_item.order_sn
	PassengerID string    // t_order_item.passenger_id
	CarriageID  int       // t_order_item.carriage_number
	SeatNumber  string    // t_order_item.seat_number
	Class       SeatClass // t_order_item.seat_type
	AmountCents uint32    // t_order_item.amount_cents
}
