package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/iliyamo/train-ticket-inventory/internal/model"
	"github.com/iliyamo/train-ticket-inventory/internal/orderlock"
	"github.com/iliyamo/train-ticket-inventory/internal/repository"
)

// SeatMutator is the slice of the seat ledger the order lifecycle
// needs: freeing the seats of a closed order and selling the seats of
// a paid one.
type SeatMutator interface {
	Release(ctx context.Context, seg model.Segment, seat model.Seat) error
	Sell(ctx context.Context, seg model.Segment, seats []model.Seat) error
}

// OrderService drives the order lifecycle state machine.  Every
// transition runs under the per-order lock: cancel and close acquire
// it non-blocking (a held lock means the operation is already in
// progress and surfaces as a conflict), status reversal blocks for
// it.
type OrderService struct {
	orders OrderStore
	seats  SeatMutator
	locks  *orderlock.Manager
}

// NewOrderService wires the lifecycle path.
func NewOrderService(orders OrderStore, seats SeatMutator, locks *orderlock.Manager) *OrderService {
	if orders == nil || seats == nil || locks == nil {
		panic("nil dependency passed to NewOrderService")
	}
	return &OrderService{orders: orders, seats: seats, locks: locks}
}

// CancelIfPending is the delayed-close handler: when the payment
// window elapses the scheduler calls it with the order's serial
// number.  It is idempotent — an order that already moved past
// PENDING_PAYMENT (paid, or closed by an earlier signal) is a no-op,
// not an error, so retried signals are harmless.
func (s *OrderService) CancelIfPending(ctx context.Context, orderSN string) error {
	status, err := s.orders.Status(ctx, orderSN)
	if err != nil {
		return err
	}
	if status != model.OrderPendingPayment {
		return nil
	}
	return s.close(ctx, orderSN, true)
}

// Close cancels an unpaid order on the buyer's request.  Unlike the
// delayed-close path, an order that is no longer PENDING_PAYMENT is a
// status conflict the caller must see.
func (s *OrderService) Close(ctx context.Context, orderSN string) error {
	return s.close(ctx, orderSN, false)
}

// close moves PENDING_PAYMENT -> CLOSED under the non-blocking order
// lock and releases the order's seats back to AVAILABLE.
func (s *OrderService) close(ctx context.Context, orderSN string, idempotent bool) error {
	return s.locks.WithOrderLock(ctx, orderSN, false, func() error {
		err := s.orders.UpdateStatusIf(ctx, orderSN, model.OrderPendingPayment, model.OrderClosed)
		if errors.Is(err, repository.ErrStatusConflict) {
			// Lost the race to another lifecycle transition while
			// waiting on the lock.
			if idempotent {
				return nil
			}
			status, serr := s.orders.Status(ctx, orderSN)
			if serr != nil {
				status = "?"
			}
			return &StatusConflictError{OrderSN: orderSN, From: status, To: model.OrderClosed}
		}
		if err != nil {
			return err
		}
		return s.releaseSeats(ctx, orderSN)
	})
}

// StatusReversal moves an order along one lifecycle edge under the
// blocking order lock.  Paying an order (PENDING_PAYMENT ->
// ALREADY_PAID) also commits its seats LOCKED -> SOLD.
func (s *OrderService) StatusReversal(ctx context.Context, orderSN, target string) error {
	if !model.OrderStatusValid(target) {
		return fmt.Errorf("status reversal: unknown status %q", target)
	}
	return s.locks.WithOrderLock(ctx, orderSN, true, func() error {
		status, err := s.orders.Status(ctx, orderSN)
		if err != nil {
			return err
		}
		if !model.OrderCanTransition(status, target) {
			return &StatusConflictError{OrderSN: orderSN, From: status, To: target}
		}
		if err := s.orders.UpdateStatusIf(ctx, orderSN, status, target); err != nil {
			if errors.Is(err, repository.ErrStatusConflict) {
				return &StatusConflictError{OrderSN: orderSN, From: status, To: target}
			}
			return err
		}
		if target == model.OrderAlreadyPaid {
			return s.sellSeats(ctx, orderSN)
		}
		return nil
	})
}

// releaseSeats frees every seat of the order.  A failed release
// leaves the seat LOCKED; it is logged and skipped so the remaining
// seats still come back.
func (s *OrderService) releaseSeats(ctx context.Context, orderSN string) error {
	order, items, err := s.orderWithItems(ctx, orderSN)
	if err != nil {
		return err
	}
	for _, it := range items {
		seat := model.Seat{CarriageID: it.CarriageID, SeatNumber: it.SeatNumber, Class: it.Class}
		if err := s.seats.Release(ctx, order.Segment, seat); err != nil {
			log.Printf("order-service: release seat %d-%s of order %s failed: %v",
				seat.CarriageID, seat.SeatNumber, orderSN, err)
		}
	}
	return nil
}

// sellSeats commits the paid order's seats.  The batch is atomic in
// the ledger; a conflict here means the lifecycle and the ledger
// disagree and must surface.
func (s *OrderService) sellSeats(ctx context.Context, orderSN string) error {
	order, items, err := s.orderWithItems(ctx, orderSN)
	if err != nil {
		return err
	}
	seats := make([]model.Seat, len(items))
	for i, it := range items {
		seats[i] = model.Seat{CarriageID: it.CarriageID, SeatNumber: it.SeatNumber, Class: it.Class}
	}
	if err := s.seats.Sell(ctx, order.Segment, seats); err != nil {
		return fmt.Errorf("sell seats of order %s: %w", orderSN, err)
	}
	return nil
}

func (s *OrderService) orderWithItems(ctx context.Context, orderSN string) (*model.Order, []model.OrderItem, error) {
	order, err := s.orders.Get(ctx, orderSN)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.orders.Items(ctx, orderSN)
	if err != nil {
		return nil, nil, err
	}
	return order, items, nil
}
