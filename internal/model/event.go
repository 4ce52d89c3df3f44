package model

// ChangeEvent is one seat-status transition observed on the ledger's
// change feed.  Events for the same seat arrive in commit order; the
// cache-sync pipeline folds batches of them into remaining-count
// deltas.
//
// Fields:
//  Segment    – the leg whose remaining count the row affects.
//  Class      – seat class of the mutated seat row.
//  CarriageID – carriage of the seat, for tracing only.
//  SeatNumber – seat label, for tracing only.
//  OldStatus  – status before the committed mutation.
//  NewStatus  – status after the committed mutation.
type ChangeEvent struct {
	Segment    Segment
	Class      SeatClass
	CarriageID int
	SeatNumber string
	OldStatus  string
	NewStatus  string
}

// CountDelta returns the signed remaining-count contribution of the
// event: -1 for AVAILABLE->LOCKED, +1 for LOCKED->AVAILABLE, and
// (0, false) for every other transition.  LOCKED->SOLD in particular
// does not change how many seats are sellable.
func (e ChangeEvent) CountDelta() (int64, bool) {
	switch {
	case e.OldStatus == SeatAvailable && e.NewStatus == SeatLocked:
		return -1, true
	case e.OldStatus == SeatLocked && e.NewStatus == SeatAvailable:
		return 1, true
	}
	return 0, false
}
