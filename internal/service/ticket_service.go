package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/iliyamo/train-ticket-inventory/internal/allocation"
	"github.com/iliyamo/train-ticket-inventory/internal/model"
)

// ProfileClient is the passenger profile service boundary.  Profiles
// enrich assignments after seats are committed; allocation itself
// never consults them.
type ProfileClient interface {
	ProfilesByIDs(ctx context.Context, ids []string) ([]model.Passenger, error)
}

// PriceLookup is the fare service boundary.
type PriceLookup interface {
	Price(ctx context.Context, seg model.Segment, class model.SeatClass) (uint32, error)
}

// OrderStore persists orders.  repository.OrderRepo is the MySQL
// implementation.
type OrderStore interface {
	Create(ctx context.Context, order model.Order, items []model.OrderItem) error
	Status(ctx context.Context, orderSN string) (string, error)
	UpdateStatusIf(ctx context.Context, orderSN, from, to string) error
	Items(ctx context.Context, orderSN string) ([]model.OrderItem, error)
	Get(ctx context.Context, orderSN string) (*model.Order, error)
}

// PurchaseRequest is one buyer's multi-passenger ticket purchase.
type PurchaseRequest struct {
	UserID     string                       `json:"user_id"`
	Vehicle    model.VehicleClass           `json:"vehicle_class"`
	Segment    model.Segment                `json:"segment"`
	Passengers []model.PassengerSeatRequest `json:"passengers"`
}

// PurchaseResult is the outcome of a fully allocated purchase.
type PurchaseResult struct {
	OrderSN          string                 `json:"order_sn"`
	Assignments      []model.SeatAssignment `json:"assignments"`
	Passengers       []model.Passenger      `json:"passengers"`
	TotalAmountCents uint32                 `json:"total_amount_cents"`
}

// TicketService runs the full purchase: allocation, profile
// enrichment, price attach and order creation.
type TicketService struct {
	coordinator *allocation.Coordinator
	profiles    ProfileClient
	prices      PriceLookup
	orders      OrderStore
}

// NewTicketService wires the purchase path.  All dependencies must be
// non-nil.
func NewTicketService(coordinator *allocation.Coordinator, profiles ProfileClient, prices PriceLookup, orders OrderStore) *TicketService {
	if coordinator == nil || profiles == nil || prices == nil || orders == nil {
		panic("nil dependency passed to NewTicketService")
	}
	return &TicketService{coordinator: coordinator, profiles: profiles, prices: prices, orders: orders}
}

// Purchase allocates seats for every passenger and records the order
// in PENDING_PAYMENT.  Allocation failures arrive with zero net
// seat-state change.  Failures past allocation return a RemoteError
// carrying the committed assignments: by then the seats are locked in
// the ledger and the caller decides between retry and rollback.
func (s *TicketService) Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error) {
	if len(req.Passengers) == 0 {
		return nil, fmt.Errorf("purchase: no passengers")
	}
	assignments, err := s.coordinator.Allocate(ctx, req.Vehicle, req.Segment, req.Passengers)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(assignments))
	for i, a := range assignments {
		ids[i] = a.PassengerID
	}
	passengers, err := s.profiles.ProfilesByIDs(ctx, ids)
	if err != nil {
		return nil, &RemoteError{Dependency: "passenger-profile", Committed: assignments, Err: err}
	}

	// One fare per seat class on the segment; reuse across passengers
	// of the same class.
	fares := make(map[model.SeatClass]uint32)
	var total uint32
	for i := range assignments {
		class := assignments[i].Seat.Class
		cents, ok := fares[class]
		if !ok {
			cents, err = s.prices.Price(ctx, req.Segment, class)
			if err != nil {
				return nil, &RemoteError{Dependency: "price-lookup", Committed: assignments, Err: err}
			}
			fares[class] = cents
		}
		assignments[i].AmountCents = cents
		total += cents
	}

	order := model.Order{
		SN:      uuid.NewString(),
		UserID:  req.UserID,
		Segment: req.Segment,
		Status:  model.OrderPendingPayment,
	}
	items := make([]model.OrderItem, len(assignments))
	for i, a := range assignments {
		items[i] = model.OrderItem{
			OrderSN:     order.SN,
			PassengerID: a.PassengerID,
			CarriageID:  a.Seat.CarriageID,
			SeatNumber:  a.Seat.SeatNumber,
			Class:       a.Seat.Class,
			AmountCents: a.AmountCents,
		}
	}
	if err := s.orders.Create(ctx, order, items); err != nil {
		return nil, &RemoteError{Dependency: "order-store", Committed: assignments, Err: err}
	}

	return &PurchaseResult{
		OrderSN:          order.SN,
		Assignments:      assignments,
		Passengers:       passengers,
		TotalAmountCents: total,
	}, nil
}
