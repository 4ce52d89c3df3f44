package allocation_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/train-ticket-inventory/internal/allocation"
	"github.com/iliyamo/train-ticket-inventory/internal/allocation/alloctest"
	"github.com/iliyamo/train-ticket-inventory/internal/model"
)

func newCoordinator(t *testing.T, ledger allocation.SeatLedger) *allocation.Coordinator {
	t.Helper()
	d, err := allocation.DefaultDispatcher(ledger)
	require.NoError(t, err)
	c := allocation.NewCoordinator(d, ledger, allocation.PoolConfig{
		Workers:     4,
		QueueDepth:  16,
		TaskTimeout: time.Second,
	})
	t.Cleanup(c.Close)
	return c
}

func seedCombination(t *testing.T, ledger *alloctest.Ledger, vehicle model.VehicleClass, class model.SeatClass, carriages int) {
	t.Helper()
	layout, ok := allocation.LayoutFor(vehicle, class)
	require.True(t, ok)
	ledger.SeedLayout(testSegment, class, layout, carriages)
}

func TestCoordinatorSingleClass(t *testing.T) {
	ledger := alloctest.NewLedger()
	seedCombination(t, ledger, model.VehicleHighSpeed, model.ClassSecond, 1)
	c := newCoordinator(t, ledger)

	got, err := c.Allocate(context.Background(), model.VehicleHighSpeed, testSegment,
		party(model.ClassSecond, "p1", "p2", "p3"))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 3, ledger.CountByStatus(testSegment, model.ClassSecond, model.SeatLocked))
}

func TestCoordinatorMultiClassJoin(t *testing.T) {
	ledger := alloctest.NewLedger()
	seedCombination(t, ledger, model.VehicleHighSpeed, model.ClassFirst, 1)
	seedCombination(t, ledger, model.VehicleHighSpeed, model.ClassSecond, 1)
	c := newCoordinator(t, ledger)

	passengers := []model.PassengerSeatRequest{
		{PassengerID: "p1", Class: model.ClassFirst},
		{PassengerID: "p2", Class: model.ClassSecond},
		{PassengerID: "p3", Class: model.ClassFirst},
	}
	got, err := c.Allocate(context.Background(), model.VehicleHighSpeed, testSegment, passengers)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Results keep first-appearance class order, request order within
	// a class.
	assert.Equal(t, "p1", got[0].PassengerID)
	assert.Equal(t, "p3", got[1].PassengerID)
	assert.Equal(t, "p2", got[2].PassengerID)
	assert.Equal(t, model.ClassFirst, got[0].Seat.Class)
	assert.Equal(t, model.ClassSecond, got[2].Seat.Class)

	assert.Equal(t, 2, ledger.CountByStatus(testSegment, model.ClassFirst, model.SeatLocked))
	assert.Equal(t, 1, ledger.CountByStatus(testSegment, model.ClassSecond, model.SeatLocked))
}

func TestCoordinatorAllOrNothingAcrossClasses(t *testing.T) {
	ledger := alloctest.NewLedger()
	seedCombination(t, ledger, model.VehicleHighSpeed, model.ClassSecond, 1)
	// Exactly one first class seat: the two-passenger first class
	// group cannot be satisfied.
	ledger.Seed(testSegment, []model.Seat{
		{CarriageID: 1, SeatNumber: "01A", Class: model.ClassFirst},
	})
	c := newCoordinator(t, ledger)

	passengers := []model.PassengerSeatRequest{
		{PassengerID: "p1", Class: model.ClassSecond},
		{PassengerID: "p2", Class: model.ClassFirst},
		{PassengerID: "p3", Class: model.ClassFirst},
	}
	_, err := c.Allocate(context.Background(), model.VehicleHighSpeed, testSegment, passengers)

	var insufficient *allocation.InsufficientError
	require.ErrorAs(t, err, &insufficient)

	// The second class seat locked by the sibling group was released.
	assert.Equal(t, 0, ledger.CountByStatus(testSegment, model.ClassSecond, model.SeatLocked))
	assert.Equal(t, 0, ledger.CountByStatus(testSegment, model.ClassFirst, model.SeatLocked))
}

func TestCoordinatorUnsupportedCombinationLocksNothing(t *testing.T) {
	ledger := alloctest.NewLedger()
	seedCombination(t, ledger, model.VehicleHighSpeed, model.ClassSecond, 1)
	c := newCoordinator(t, ledger)

	passengers := []model.PassengerSeatRequest{
		{PassengerID: "p1", Class: model.ClassSecond},
		{PassengerID: "p2", Class: model.ClassSoftSleeper},
	}
	_, err := c.Allocate(context.Background(), model.VehicleHighSpeed, testSegment, passengers)

	var unsupported *allocation.UnsupportedError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, model.ClassSoftSleeper, unsupported.Class)

	// Resolution happens before any group runs.
	assert.Equal(t, 0, ledger.CountByStatus(testSegment, model.ClassSecond, model.SeatLocked))
}

func TestCoordinatorEmptyPurchase(t *testing.T) {
	c := newCoordinator(t, alloctest.NewLedger())
	_, err := c.Allocate(context.Background(), model.VehicleHighSpeed, testSegment, nil)
	assert.Error(t, err)
}

// panicStrategy blows up on every allocation.
type panicStrategy struct{}

func (panicStrategy) Allocate(context.Context, model.Segment, model.SeatClass, []model.PassengerSeatRequest) ([]model.SeatAssignment, error) {
	panic("boom")
}

func TestCoordinatorPanickingStrategyReleasesSiblings(t *testing.T) {
	ledger := alloctest.NewLedger()
	seedCombination(t, ledger, model.VehicleHighSpeed, model.ClassSecond, 1)

	d := allocation.NewDispatcher()
	layout, ok := allocation.LayoutFor(model.VehicleHighSpeed, model.ClassSecond)
	require.True(t, ok)
	require.NoError(t, d.Register(model.VehicleHighSpeed, model.ClassSecond,
		allocation.NewLayoutStrategy(ledger, layout)))
	require.NoError(t, d.Register(model.VehicleHighSpeed, model.ClassFirst, panicStrategy{}))

	c := allocation.NewCoordinator(d, ledger, allocation.PoolConfig{Workers: 2, TaskTimeout: time.Second})
	defer c.Close()

	passengers := []model.PassengerSeatRequest{
		{PassengerID: "p1", Class: model.ClassSecond},
		{PassengerID: "p2", Class: model.ClassFirst},
	}
	_, err := c.Allocate(context.Background(), model.VehicleHighSpeed, testSegment, passengers)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.Equal(t, 0, ledger.CountByStatus(testSegment, model.ClassSecond, model.SeatLocked))
}

func TestCoordinatorNoDoubleSellUnderContention(t *testing.T) {
	ledger := alloctest.NewLedger()
	seedCombination(t, ledger, model.VehicleHighSpeed, model.ClassSecond, 2)
	layout, _ := allocation.LayoutFor(model.VehicleHighSpeed, model.ClassSecond)
	total := 2 * layout.SeatCount()
	c := newCoordinator(t, ledger)

	const buyers = 40
	var wg sync.WaitGroup
	won := make(chan []model.SeatAssignment, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Allocate(context.Background(), model.VehicleHighSpeed, testSegment,
				party(model.ClassSecond, "a", "b", "c", "d", "e"))
			if err == nil {
				won <- got
			}
		}()
	}
	wg.Wait()
	close(won)

	seen := make(map[string]bool)
	locked := 0
	for got := range won {
		for _, a := range got {
			key := fmt.Sprintf("%d-%s", a.Seat.CarriageID, a.Seat.SeatNumber)
			assert.False(t, seen[key], "seat %s assigned twice", key)
			seen[key] = true
			locked++
		}
	}
	assert.Equal(t, locked, ledger.CountByStatus(testSegment, model.ClassSecond, model.SeatLocked))
	assert.Equal(t, total-locked, ledger.CountByStatus(testSegment, model.ClassSecond, model.SeatAvailable))
}
