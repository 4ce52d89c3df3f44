// Package allocation implements the seat inventory allocation engine:
// per vehicle/seat class strategies with the pairing degrade ladder,
// the dispatcher that selects a strategy for a purchase, and the
// coordinator that fans multi-class purchases out over a bounded
// worker pool with all-or-nothing semantics.
package allocation

import (
	"errors"
	"fmt"

	"github.com/iliyamo/train-ticket-inventory/internal/model"
)

// ErrSeatConflict is returned by SeatLedger implementations when a
// conditional status transition finds the seat in a different status
// than expected, i.e. another purchase won the race for it.
var ErrSeatConflict = errors.New("seat not in expected status")

// InsufficientError reports that a segment holds fewer sellable seats
// of a class than the purchase needs.  Retry exhaustion under heavy
// contention is reported the same way: at the boundary the caller
// cannot tell scarcity from losing every race.
type InsufficientError struct {
	Requested int
	Available int
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("insufficient seats: requested %d, available %d", e.Requested, e.Available)
}

// UnsupportedError reports that no strategy is registered for a
// (vehicle class, seat class) combination.  The dispatcher fails
// closed: layout assumptions are never guessed.
type UnsupportedError struct {
	Vehicle model.VehicleClass
	Class   model.SeatClass
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported vehicle/seat combination: %s/%s", e.Vehicle, e.Class)
}
