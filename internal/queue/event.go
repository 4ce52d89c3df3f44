// Package queue adapts the external binlog-tailing collaborator to
// the cache-sync pipeline.  The feed delivers row-image events for
// the t_seat table; this package converts them into ordered
// ChangeEvent batches and hands them to the syncer.
package queue

import (
	"fmt"
	"strconv"

	"github.com/iliyamo/train-ticket-inventory/internal/model"
)

// seatTable is the ledger table whose row changes feed the cache.
const seatTable = "t_seat"

// BinlogEvent is the wire shape of one change-feed message: the
// after-images of the touched rows plus, for updates, the changed
// columns of the before-images.  Column values arrive as strings.
type BinlogEvent struct {
	Table string              `json:"table"`
	Type  string              `json:"type"`
	Data  []map[string]string `json:"data"`
	Old   []map[string]string `json:"old"`
}

// ChangeEvents converts a binlog event into ledger ChangeEvents.
// Only UPDATEs of t_seat rows whose seat_status column actually
// changed are kept; row order within the message is preserved.  Rows
// with malformed columns are skipped rather than poisoning the batch.
func (e BinlogEvent) ChangeEvents() []model.ChangeEvent {
	if e.Table != seatTable || e.Type != "UPDATE" || len(e.Old) != len(e.Data) {
		return nil
	}
	var out []model.ChangeEvent
	for i, oldRow := range e.Old {
		oldStatusRaw, changed := oldRow["seat_status"]
		if !changed || oldStatusRaw == "" {
			continue
		}
		row := e.Data[i]
		ev, err := rowChange(row, oldStatusRaw)
		if err != nil {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// rowChange builds one ChangeEvent from an after-image row and the
// before-image status column.
func rowChange(row map[string]string, oldStatusRaw string) (model.ChangeEvent, error) {
	oldCode, err := strconv.Atoi(oldStatusRaw)
	if err != nil {
		return model.ChangeEvent{}, fmt.Errorf("old seat_status %q: %w", oldStatusRaw, err)
	}
	newCode, err := strconv.Atoi(row["seat_status"])
	if err != nil {
		return model.ChangeEvent{}, fmt.Errorf("seat_status %q: %w", row["seat_status"], err)
	}
	oldStatus, ok := model.SeatStatusFromCode(oldCode)
	if !ok {
		return model.ChangeEvent{}, fmt.Errorf("unknown old seat_status code %d", oldCode)
	}
	newStatus, ok := model.SeatStatusFromCode(newCode)
	if !ok {
		return model.ChangeEvent{}, fmt.Errorf("unknown seat_status code %d", newCode)
	}
	classCode, err := strconv.Atoi(row["seat_type"])
	if err != nil {
		return model.ChangeEvent{}, fmt.Errorf("seat_type %q: %w", row["seat_type"], err)
	}
	class, ok := model.SeatClassFromCode(classCode)
	if !ok {
		return model.ChangeEvent{}, fmt.Errorf("unknown seat_type code %d", classCode)
	}
	carriage, _ := strconv.Atoi(row["carriage_number"])
	return model.ChangeEvent{
		Segment: model.Segment{
			TrainID:   row["train_id"],
			Departure: row["start_station"],
			Arrival:   row["end_station"],
		},
		Class:      class,
		CarriageID: carriage,
		SeatNumber: row["seat_number"],
		OldStatus:  oldStatus,
		NewStatus:  newStatus,
	}, nil
}
