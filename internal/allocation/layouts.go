package allocation

import (
	"fmt"

	"github.com/iliyamo/train-ticket-inventory/internal/model"
)

// Carriage layouts per vehicle/seat class combination.  Column lists
// follow rail convention (no E column on seated stock); AisleAfter
// marks where the aisle splits a row so seats across it never pair.
var (
	// High speed business class, 2+1 rows.
	layoutHighSpeedBusiness = model.CarriageLayout{
		Rows:       5,
		Columns:    []string{"A", "C", "F"},
		AisleAfter: map[int]bool{1: true},
	}
	// First class, 2+2 rows.
	layoutFirst = model.CarriageLayout{
		Rows:       7,
		Columns:    []string{"A", "C", "D", "F"},
		AisleAfter: map[int]bool{1: true},
	}
	// Second class, 3+2 rows.
	layoutSecond = model.CarriageLayout{
		Rows:       18,
		Columns:    []string{"A", "B", "C", "D", "F"},
		AisleAfter: map[int]bool{2: true},
	}
	// Soft sleeper compartments, two bunks per column pair.
	layoutSoftSleeper = model.CarriageLayout{
		Rows:       9,
		Columns:    []string{"A", "B"},
		AisleAfter: map[int]bool{},
	}
	// Hard sleeper bays: lower, middle, upper bunk.
	layoutHardSleeper = model.CarriageLayout{
		Rows:       11,
		Columns:    []string{"A", "B", "C"},
		AisleAfter: map[int]bool{},
	}
)

// defaultCombinations lists which seat classes each vehicle class
// sells and the layout backing them.
var defaultCombinations = []struct {
	vehicle model.VehicleClass
	class   model.SeatClass
	layout  model.CarriageLayout
}{
	{model.VehicleHighSpeed, model.ClassBusiness, layoutHighSpeedBusiness},
	{model.VehicleHighSpeed, model.ClassFirst, layoutFirst},
	{model.VehicleHighSpeed, model.ClassSecond, layoutSecond},
	{model.VehicleBullet, model.ClassFirst, layoutFirst},
	{model.VehicleBullet, model.ClassSecond, layoutSecond},
	{model.VehicleRegular, model.ClassSoftSleeper, layoutSoftSleeper},
	{model.VehicleRegular, model.ClassHardSleeper, layoutHardSleeper},
}

// DefaultDispatcher registers a LayoutStrategy over the given ledger
// for every sellable combination.
func DefaultDispatcher(ledger SeatLedger) (*Dispatcher, error) {
	d := NewDispatcher()
	for _, c := range defaultCombinations {
		if err := d.Register(c.vehicle, c.class, NewLayoutStrategy(ledger, c.layout)); err != nil {
			return nil, fmt.Errorf("default dispatcher: %w", err)
		}
	}
	return d, nil
}

// LayoutFor exposes the layout of a sellable combination, used when
// seeding ledgers for a new train run.
func LayoutFor(vehicle model.VehicleClass, class model.SeatClass) (model.CarriageLayout, bool) {
	for _, c := range defaultCombinations {
		if c.vehicle == vehicle && c.class == class {
			return c.layout, true
		}
	}
	return model.CarriageLayout{}, false
}
