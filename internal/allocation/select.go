package allocation

import (
	"sort"

	"github.com/iliyamo/train-ticket-inventory/internal/model"
)

// carriageAvail is the availability snapshot of one carriage: its
// seat numbers sorted ascending plus a set view for pair lookups.
type carriageAvail struct {
	id      int
	numbers []string
	present map[string]bool
}

// groupByCarriage folds a flat availability snapshot into per-carriage
// views sorted by carriage id.
func groupByCarriage(avail []model.Seat) []carriageAvail {
	byID := make(map[int]*carriageAvail)
	ids := make([]int, 0)
	for _, s := range avail {
		c, ok := byID[s.CarriageID]
		if !ok {
			c = &carriageAvail{id: s.CarriageID, present: make(map[string]bool)}
			byID[s.CarriageID] = c
			ids = append(ids, s.CarriageID)
		}
		c.numbers = append(c.numbers, s.SeatNumber)
		c.present[s.SeatNumber] = true
	}
	sort.Ints(ids)
	out := make([]carriageAvail, 0, len(ids))
	for _, id := range ids {
		c := byID[id]
		sort.Strings(c.numbers)
		out = append(out, *c)
	}
	return out
}

// selectSeats picks n candidate seats from the availability snapshot
// according to the degrade ladder.  It is pure selection: no ledger
// state changes here.  Returns false when fewer than n seats exist.
//
// For a party of exactly two the ladder is:
//  1. walk carriages ascending and take the first adjacent pair;
//  2. failing that, take two seats inside the single carriage holding
//     the most availability (lowest carriage id on ties);
//  3. failing that, one seat per carriage, ascending.
// Any other party size goes straight to the greedy walk: ascending
// carriage, ascending seat number.
func selectSeats(layout model.CarriageLayout, class model.SeatClass, avail []model.Seat, n int) ([]model.Seat, bool) {
	if len(avail) < n || n == 0 {
		return nil, false
	}
	carriages := groupByCarriage(avail)
	if n != 2 {
		return greedy(carriages, class, n), true
	}
	if pair, ok := adjacentPair(layout, carriages, class); ok {
		return pair, true
	}
	if pair, ok := sameCarriagePair(carriages, class); ok {
		return pair, true
	}
	return greedy(carriages, class, 2), true
}

// adjacentPair walks carriages ascending and returns the first two
// seats that sit shoulder to shoulder under the layout.
func adjacentPair(layout model.CarriageLayout, carriages []carriageAvail, class model.SeatClass) ([]model.Seat, bool) {
	for _, c := range carriages {
		for row := 0; row < layout.Rows; row++ {
			for col := 0; col+1 < len(layout.Columns); col++ {
				if !layout.AdjacentColumns(col) {
					continue
				}
				left := layout.SeatNumber(row, col)
				right := layout.SeatNumber(row, col+1)
				if c.present[left] && c.present[right] {
					return []model.Seat{
						{CarriageID: c.id, SeatNumber: left, Class: class},
						{CarriageID: c.id, SeatNumber: right, Class: class},
					}, true
				}
			}
		}
	}
	return nil, false
}

// sameCarriagePair picks two non-adjacent seats from the carriage with
// the most remaining availability, keeping future fragmentation low.
// Ties go to the lowest carriage id, which the ascending walk already
// guarantees.
func sameCarriagePair(carriages []carriageAvail, class model.SeatClass) ([]model.Seat, bool) {
	best := -1
	for i, c := range carriages {
		if len(c.numbers) < 2 {
			continue
		}
		if best == -1 || len(c.numbers) > len(carriages[best].numbers) {
			best = i
		}
	}
	if best == -1 {
		return nil, false
	}
	c := carriages[best]
	return []model.Seat{
		{CarriageID: c.id, SeatNumber: c.numbers[0], Class: class},
		{CarriageID: c.id, SeatNumber: c.numbers[1], Class: class},
	}, true
}

// greedy assigns seats in ascending carriage, ascending seat-number
// order.  Used directly for party sizes other than two and as the
// final degrade step for pairs, where no carriage holds two seats and
// the pair is split across carriages.
func greedy(carriages []carriageAvail, class model.SeatClass, n int) []model.Seat {
	picked := make([]model.Seat, 0, n)
	for _, c := range carriages {
		for _, num := range c.numbers {
			picked = append(picked, model.Seat{CarriageID: c.id, SeatNumber: num, Class: class})
			if len(picked) == n {
				return picked
			}
		}
	}
	return picked
}
