package allocation

import (
	"context"

	"github.com/iliyamo/train-ticket-inventory/internal/model"
)

// SeatLedger is the authoritative seat state store as seen by the
// allocation engine.  Implementations must make Lock and Release
// conditional transitions: they succeed only when the seat currently
// holds the expected status, and report ErrSeatConflict otherwise.
// Transitions are linearizable per seat; there is no ordering
// guarantee across distinct seats.
type SeatLedger interface {
	// Available lists the AVAILABLE seats of a class on a segment,
	// ordered by carriage then seat number.
	Available(ctx context.Context, seg model.Segment, class model.SeatClass) ([]model.Seat, error)

	// Lock transitions one seat AVAILABLE -> LOCKED.  Returns
	// ErrSeatConflict when the seat is no longer AVAILABLE.
	Lock(ctx context.Context, seg model.Segment, seat model.Seat) error

	// Release transitions one seat LOCKED -> AVAILABLE.  Returns
	// ErrSeatConflict when the seat is not LOCKED.
	Release(ctx context.Context, seg model.Segment, seat model.Seat) error
}
