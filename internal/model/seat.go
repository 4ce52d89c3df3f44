package model

// Seat lifecycle statuses as stored in the ledger.  Transitions are
// committed with conditional updates only; a status is never inferred
// from the remaining-ticket cache.
const (
	SeatAvailable = "AVAILABLE"
	SeatLocked    = "LOCKED"
	SeatSold      = "SOLD"
)

// SeatStatusFromCode maps the numeric seat_status column of the
// change feed to its string form.  Unknown codes return false.
func SeatStatusFromCode(code int) (string, bool) {
	switch code {
	case 0:
		return SeatAvailable, true
	case 1:
		return SeatLocked, true
	case 2:
		return SeatSold, true
	}
	return "", false
}

// Seat is one physical seat on a train, scoped to its carriage.  The
// ledger stores one row per seat per sellable segment; Seat carries
// the identity half of that row.
//
// Fields:
//  CarriageID – carriage number within the train, ascending from 1.
//  SeatNumber – seat label within the carriage, e.g. "03A".
//  Class      – seat class of this physical seat.
type Seat struct {
	CarriageID int       // t_seat.carriage_number
	SeatNumber string    // t_seat.seat_number
	Class      SeatClass // t_seat.seat_type
}

// SeatAssignment pairs a passenger with the concrete seat selected for
// them on a segment.  AmountCents stays zero until the price lookup
// runs after allocation.
type SeatAssignment struct {
	PassengerID string `json:"passenger_id"`
	Seat        Seat   `json:"seat"`
	AmountCents uint32 `json:"amount_cents"`
}

// PassengerSeatRequest is one traveler inside a purchase: who rides
// and which fare tier they asked for.
type PassengerSeatRequest struct {
	PassengerID string    `json:"passenger_id"`
	Class       SeatClass `json:"seat_class"`
}

// Passenger is the profile record returned by the passenger profile
// service.  It enriches assignments after seats are committed and is
// never consulted during seat selection.
type Passenger struct {
	ID       string `json:"id"`
	RealName string `json:"real_name"`
	IDType   int    `json:"id_type"`
	IDCard   string `json:"id_card"`
	Phone    string `json:"phone"`
}
