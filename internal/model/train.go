package model

import "fmt"

// VehicleClass is the category of train a seat lives on.  It selects
// the carriage layout together with the seat class; allocation never
// touches a combination it was not registered for.
type VehicleClass string

const (
	VehicleHighSpeed VehicleClass = "HIGH_SPEED"
	VehicleBullet    VehicleClass = "BULLET"
	VehicleRegular   VehicleClass = "REGULAR"
)

// Valid reports whether v is one of the known vehicle classes.
func (v VehicleClass) Valid() bool {
	switch v {
	case VehicleHighSpeed, VehicleBullet, VehicleRegular:
		return true
	}
	return false
}

// SeatClass is the fare tier a passenger books into.  The string form
// travels over the API; the numeric code is what the ledger and the
// remaining-ticket cache store.
type SeatClass string

const (
	ClassBusiness    SeatClass = "BUSINESS"
	ClassFirst       SeatClass = "FIRST"
	ClassSecond      SeatClass = "SECOND"
	ClassSoftSleeper SeatClass = "SOFT_SLEEPER"
	ClassHardSleeper SeatClass = "HARD_SLEEPER"
)

// Valid reports whether s is one of the known seat classes.
func (s SeatClass) Valid() bool {
	_, ok := classCodes[s]
	return ok
}

var classCodes = map[SeatClass]int{
	ClassBusiness:    0,
	ClassFirst:       1,
	ClassSecond:      2,
	ClassSoftSleeper: 3,
	ClassHardSleeper: 4,
}

// Code returns the numeric seat_type code stored in the ledger and
// used as the hash field of the remaining-ticket cache.
func (s SeatClass) Code() int {
	return classCodes[s]
}

// SeatClassFromCode maps a numeric seat_type code back to its class.
// Unknown codes return false.
func SeatClassFromCode(code int) (SeatClass, bool) {
	for class, c := range classCodes {
		if c == code {
			return class, true
		}
	}
	return "", false
}

// Segment is one sellable leg of a train journey.  Seat inventory,
// prices and the remaining-ticket cache are all scoped to a segment,
// never to the whole route.
type Segment struct {
	TrainID   string `json:"train_id"`
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
}

// CacheKey is the redis hash key holding remaining counts per seat
// class for this segment.
func (s Segment) CacheKey() string {
	return fmt.Sprintf("ticket:remaining:%s_%s_%s", s.TrainID, s.Departure, s.Arrival)
}

func (s Segment) String() string {
	return fmt.Sprintf("%s %s->%s", s.TrainID, s.Departure, s.Arrival)
}
