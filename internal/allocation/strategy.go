package allocation

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/iliyamo/train-ticket-inventory/internal/model"
)

// Strategy allocates seats for a group of passengers who all bought
// the same seat class on the same segment.  A strategy either returns
// one assignment per passenger or an error with zero net seat-state
// change: seats it locked on the way are released before returning.
type Strategy interface {
	Allocate(ctx context.Context, seg model.Segment, class model.SeatClass, passengers []model.PassengerSeatRequest) ([]model.SeatAssignment, error)
}

// lockRetries bounds how often a strategy reselects after losing a
// seat race.  Exhaustion is reported as InsufficientError.
const lockRetries = 3

// LayoutStrategy is the shared allocation core.  Each registered
// (vehicle, seat class) combination is a LayoutStrategy parameterized
// with that combination's carriage layout; the layout drives adjacency
// for the pairing ladder.
type LayoutStrategy struct {
	ledger SeatLedger
	layout model.CarriageLayout
}

// NewLayoutStrategy builds a strategy over the given ledger and
// carriage layout.
func NewLayoutStrategy(ledger SeatLedger, layout model.CarriageLayout) *LayoutStrategy {
	return &LayoutStrategy{ledger: ledger, layout: layout}
}

// Allocate reads current availability, selects candidates via the
// degrade ladder and commits AVAILABLE->LOCKED transitions seat by
// seat.  A lost race on any seat rolls this attempt back and retries
// against refreshed availability; partial success is never reported.
func (s *LayoutStrategy) Allocate(ctx context.Context, seg model.Segment, class model.SeatClass, passengers []model.PassengerSeatRequest) ([]model.SeatAssignment, error) {
	n := len(passengers)
	if n == 0 {
		return nil, nil
	}
	lastAvail := 0
	for attempt := 0; attempt <= lockRetries; attempt++ {
		avail, err := s.ledger.Available(ctx, seg, class)
		if err != nil {
			return nil, fmt.Errorf("read availability: %w", err)
		}
		lastAvail = len(avail)
		picked, ok := selectSeats(s.layout, class, avail, n)
		if !ok {
			return nil, &InsufficientError{Requested: n, Available: len(avail)}
		}
		locked := make([]model.Seat, 0, n)
		lostRace := false
		for _, seat := range picked {
			err := s.ledger.Lock(ctx, seg, seat)
			if errors.Is(err, ErrSeatConflict) {
				lostRace = true
				break
			}
			if err != nil {
				s.rollback(ctx, seg, locked)
				return nil, fmt.Errorf("lock seat %d-%s: %w", seat.CarriageID, seat.SeatNumber, err)
			}
			locked = append(locked, seat)
		}
		if !lostRace {
			out := make([]model.SeatAssignment, n)
			for i, p := range passengers {
				out[i] = model.SeatAssignment{PassengerID: p.PassengerID, Seat: locked[i]}
			}
			return out, nil
		}
		// Lost a seat race: undo this attempt entirely, then reselect
		// against a fresh snapshot.
		s.rollback(ctx, seg, locked)
	}
	return nil, &InsufficientError{Requested: n, Available: lastAvail}
}

// rollback releases every seat locked during a failed attempt.  A
// failed release leaves the seat LOCKED until the delayed-close sweep
// frees it, so it is logged rather than propagated.
func (s *LayoutStrategy) rollback(ctx context.Context, seg model.Segment, locked []model.Seat) {
	for _, seat := range locked {
		if err := s.ledger.Release(ctx, seg, seat); err != nil {
			log.Printf("allocation: release %s seat %d-%s failed: %v", seg, seat.CarriageID, seat.SeatNumber, err)
		}
	}
}

// combination is the dispatch key: the ordered (vehicle, seat class)
// pair.
type combination struct {
	vehicle model.VehicleClass
	class   model.SeatClass
}

// Dispatcher maps (vehicle class, seat class) combinations to their
// registered strategies.  Registration validates the combination so
// unknown enum values fail at wiring time, not at purchase time; an
// unregistered combination at resolve time is a hard client-facing
// error.
type Dispatcher struct {
	strategies map[combination]Strategy
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{strategies: make(map[combination]Strategy)}
}

// Register binds a strategy to a combination.  Unknown vehicle or
// seat classes and duplicate registrations are rejected.
func (d *Dispatcher) Register(vehicle model.VehicleClass, class model.SeatClass, s Strategy) error {
	if !vehicle.Valid() {
		return fmt.Errorf("register: unknown vehicle class %q", vehicle)
	}
	if !class.Valid() {
		return fmt.Errorf("register: unknown seat class %q", class)
	}
	if s == nil {
		return fmt.Errorf("register: nil strategy for %s/%s", vehicle, class)
	}
	key := combination{vehicle: vehicle, class: class}
	if _, dup := d.strategies[key]; dup {
		return fmt.Errorf("register: duplicate strategy for %s/%s", vehicle, class)
	}
	d.strategies[key] = s
	return nil
}

// Resolve returns the strategy registered for the combination, or an
// UnsupportedError when none is.
func (d *Dispatcher) Resolve(vehicle model.VehicleClass, class model.SeatClass) (Strategy, error) {
	s, ok := d.strategies[combination{vehicle: vehicle, class: class}]
	if !ok {
		return nil, &UnsupportedError{Vehicle: vehicle, Class: class}
	}
	return s, nil
}
