package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var secondClass = CarriageLayout{
	Rows:       18,
	Columns:    []string{"A", "B", "C", "D", "F"},
	AisleAfter: map[int]bool{2: true},
}

func TestSeatNumber(t *testing.T) {
	assert.Equal(t, "01A", secondClass.SeatNumber(0, 0))
	assert.Equal(t, "03C", secondClass.SeatNumber(2, 2))
	assert.Equal(t, "18F", secondClass.SeatNumber(17, 4))
}

func TestAdjacent(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"neighbouring columns", "01A", "01B", true},
		{"order independent", "01B", "01A", true},
		{"window-middle pair", "05B", "05C", true},
		{"across the aisle", "01C", "01D", false},
		{"same row not neighbouring", "01A", "01C", false},
		{"different rows", "01A", "02A", false},
		{"different rows neighbouring columns", "01A", "02B", false},
		{"no E column", "01D", "01F", true},
		{"unknown column", "01E", "01F", false},
		{"row out of range", "19A", "19B", false},
		{"malformed label", "1A", "01B", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, secondClass.Adjacent(tt.a, tt.b))
		})
	}
}

func TestSeatCount(t *testing.T) {
	assert.Equal(t, 90, secondClass.SeatCount())
}

func TestOrderCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{OrderPendingPayment, OrderClosed, true},
		{OrderPendingPayment, OrderAlreadyPaid, true},
		{OrderPendingPayment, OrderRefunded, false},
		{OrderAlreadyPaid, OrderRefunded, true},
		{OrderAlreadyPaid, OrderRescheduled, true},
		{OrderAlreadyPaid, OrderCompleted, true},
		{OrderAlreadyPaid, OrderClosed, false},
		{OrderRescheduled, OrderCompleted, true},
		{OrderRescheduled, OrderRefunded, true},
		{OrderRescheduled, OrderAlreadyPaid, false},
		{OrderClosed, OrderPendingPayment, false},
		{OrderCompleted, OrderRefunded, false},
		{OrderRefunded, OrderAlreadyPaid, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OrderCanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestCountDelta(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		want     int64
		counts   bool
	}{
		{"lock", SeatAvailable, SeatLocked, -1, true},
		{"release", SeatLocked, SeatAvailable, 1, true},
		{"sell", SeatLocked, SeatSold, 0, false},
		{"refund restock", SeatSold, SeatAvailable, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := ChangeEvent{OldStatus: tt.from, NewStatus: tt.to}
			got, ok := ev.CountDelta()
			assert.Equal(t, tt.counts, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSegmentCacheKey(t *testing.T) {
	seg := Segment{TrainID: "G35", Departure: "Beijing South", Arrival: "Hangzhou East"}
	assert.Equal(t, "ticket:remaining:G35_Beijing South_Hangzhou East", seg.CacheKey())
}
