package model

import "fmt"

// CarriageLayout describes how seats are arranged inside one carriage
// of a given vehicle/seat class combination.  The layout is the sole
// source of adjacency: two seats pair only when they sit in the same
// row, in neighbouring columns, with no aisle between them.  Seats in
// different carriages are never adjacent.
//
// Fields:
//  Rows       – number of seat rows in the carriage.
//  Columns    – ordered column letters, e.g. ["A","B","C","D","F"].
//  AisleAfter – column indexes followed by the aisle gap.
type CarriageLayout struct {
	Rows       int
	Columns    []string
	AisleAfter map[int]bool
}

// SeatCount returns the total seats in one carriage of this layout.
func (l CarriageLayout) SeatCount() int {
	return l.Rows * len(l.Columns)
}

// SeatNumber formats the label of the seat at (row, col), rows and
// columns counted from zero.  Labels sort lexicographically in the
// same order seats are walked, which the greedy assignment relies on.
func (l CarriageLayout) SeatNumber(row, col int) string {
	return fmt.Sprintf("%02d%s", row+1, l.Columns[col])
}

// AdjacentColumns reports whether column col and col+1 form a
// shoulder-to-shoulder pair, i.e. no aisle separates them.
func (l CarriageLayout) AdjacentColumns(col int) bool {
	if col < 0 || col+1 >= len(l.Columns) {
		return false
	}
	return !l.AisleAfter[col]
}

// Adjacent reports whether the two seat labels are an adjacent pair
// under this layout.  Order of the arguments does not matter.
func (l CarriageLayout) Adjacent(a, b string) bool {
	ra, ca, ok := l.parse(a)
	if !ok {
		return false
	}
	rb, cb, ok := l.parse(b)
	if !ok {
		return false
	}
	if ra != rb {
		return false
	}
	if ca > cb {
		ca, cb = cb, ca
	}
	return cb == ca+1 && l.AdjacentColumns(ca)
}

// parse splits a "03A" style label back into zero-based row and
// column indexes.
func (l CarriageLayout) parse(number string) (row, col int, ok bool) {
	if len(number) < 3 {
		return 0, 0, false
	}
	var r int
	if _, err := fmt.Sscanf(number[:2], "%d", &r); err != nil || r < 1 || r > l.Rows {
		return 0, 0, false
	}
	letter := number[2:]
	for i, c := range l.Columns {
		if c == letter {
			return r - 1, i, true
		}
	}
	return 0, 0, false
}
