// Package alloctest provides an in-memory SeatLedger for tests and
// local development.  It honors the same conditional-transition
// contract as the MySQL ledger and records every committed transition
// as a ChangeEvent, so the cache-sync pipeline can be exercised
// without a database or a binlog tail.
package alloctest

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/train-ticket-inventory/internal/allocation"
	"github.com/iliyamo/train-ticket-inventory/internal/model"
)

type seatKey struct {
	seg  model.Segment
	seat model.Seat
}

// Ledger is a mutex-guarded seat table.  All transitions are CAS:
// the expected-status check and the write happen under one lock
// acquisition, making transitions linearizable per seat.
type Ledger struct {
	mu     sync.Mutex
	status map[seatKey]string
	events []model.ChangeEvent
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{status: make(map[seatKey]string)}
}

// Seed inserts seats for a segment in AVAILABLE status.
func (l *Ledger) Seed(seg model.Segment, seats []model.Seat) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range seats {
		l.status[seatKey{seg: seg, seat: s}] = model.SeatAvailable
	}
}

// SeedLayout fills carriages numbered 1..carriages with every seat of
// the layout, all AVAILABLE.
func (l *Ledger) SeedLayout(seg model.Segment, class model.SeatClass, layout model.CarriageLayout, carriages int) {
	var seats []model.Seat
	for c := 1; c <= carriages; c++ {
		for row := 0; row < layout.Rows; row++ {
			for col := 0; col < len(layout.Columns); col++ {
				seats = append(seats, model.Seat{
					CarriageID: c,
					SeatNumber: layout.SeatNumber(row, col),
					Class:      class,
				})
			}
		}
	}
	l.Seed(seg, seats)
}

// Available implements allocation.SeatLedger.
func (l *Ledger) Available(ctx context.Context, seg model.Segment, class model.SeatClass) ([]model.Seat, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.Seat
	for k, st := range l.status {
		if k.seg == seg && k.seat.Class == class && st == model.SeatAvailable {
			out = append(out, k.seat)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CarriageID != out[j].CarriageID {
			return out[i].CarriageID < out[j].CarriageID
		}
		return out[i].SeatNumber < out[j].SeatNumber
	})
	return out, nil
}

// Lock implements allocation.SeatLedger.
func (l *Ledger) Lock(ctx context.Context, seg model.Segment, seat model.Seat) error {
	return l.transition(seg, seat, model.SeatAvailable, model.SeatLocked)
}

// Release implements allocation.SeatLedger.
func (l *Ledger) Release(ctx context.Context, seg model.Segment, seat model.Seat) error {
	return l.transition(seg, seat, model.SeatLocked, model.SeatAvailable)
}

// Sell transitions a batch of seats LOCKED -> SOLD.  Any seat not in
// LOCKED fails the whole call with no partial writes, mirroring the
// transactional MySQL implementation.
func (l *Ledger) Sell(ctx context.Context, seg model.Segment, seats []model.Seat) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range seats {
		if l.status[seatKey{seg: seg, seat: s}] != model.SeatLocked {
			return allocation.ErrSeatConflict
		}
	}
	for _, s := range seats {
		l.apply(seg, s, model.SeatLocked, model.SeatSold)
	}
	return nil
}

func (l *Ledger) transition(seg model.Segment, seat model.Seat, from, to string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.status[seatKey{seg: seg, seat: seat}] != from {
		return allocation.ErrSeatConflict
	}
	l.apply(seg, seat, from, to)
	return nil
}

// apply commits a transition and records its ChangeEvent.  Callers
// hold the mutex.
func (l *Ledger) apply(seg model.Segment, seat model.Seat, from, to string) {
	l.status[seatKey{seg: seg, seat: seat}] = to
	l.events = append(l.events, model.ChangeEvent{
		Segment:    seg,
		Class:      seat.Class,
		CarriageID: seat.CarriageID,
		SeatNumber: seat.SeatNumber,
		OldStatus:  from,
		NewStatus:  to,
	})
}

// Status returns the current status of one seat, or "" if unknown.
func (l *Ledger) Status(seg model.Segment, seat model.Seat) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status[seatKey{seg: seg, seat: seat}]
}

// CountByStatus counts seats of a class on a segment in the given
// status.
func (l *Ledger) CountByStatus(seg model.Segment, class model.SeatClass, status string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, st := range l.status {
		if k.seg == seg && k.seat.Class == class && st == status {
			n++
		}
	}
	return n
}

// DrainEvents returns all recorded ChangeEvents in commit order and
// clears the buffer.
func (l *Ledger) DrainEvents() []model.ChangeEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.events
	l.events = nil
	return out
}
