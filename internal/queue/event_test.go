package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/train-ticket-inventory/internal/model"
)

func seatRow(seat, status string) map[string]string {
	return map[string]string{
		"train_id":        "G35",
		"start_station":   "Beijing South",
		"end_station":     "Nanjing South",
		"carriage_number": "3",
		"seat_number":     seat,
		"seat_type":       "2",
		"seat_status":     status,
	}
}

func TestChangeEventsFromBinlogPayload(t *testing.T) {
	payload := `{
		"table": "t_seat",
		"type": "UPDATE",
		"data": [` + mustJSON(t, seatRow("01A", "1")) + `,` + mustJSON(t, seatRow("01B", "1")) + `],
		"old": [{"seat_status": "0"}, {"seat_status": "0"}]
	}`
	var ev BinlogEvent
	require.NoError(t, json.Unmarshal([]byte(payload), &ev))

	got := ev.ChangeEvents()
	require.Len(t, got, 2)

	want := model.ChangeEvent{
		Segment:    model.Segment{TrainID: "G35", Departure: "Beijing South", Arrival: "Nanjing South"},
		Class:      model.ClassSecond,
		CarriageID: 3,
		SeatNumber: "01A",
		OldStatus:  model.SeatAvailable,
		NewStatus:  model.SeatLocked,
	}
	assert.Equal(t, want, got[0])
	// Row order inside the message is preserved.
	assert.Equal(t, "01B", got[1].SeatNumber)
}

func TestChangeEventsFiltersIrrelevantMessages(t *testing.T) {
	tests := []struct {
		name string
		ev   BinlogEvent
	}{
		{"other table", BinlogEvent{
			Table: "t_order", Type: "UPDATE",
			Data: []map[string]string{seatRow("01A", "1")},
			Old:  []map[string]string{{"seat_status": "0"}},
		}},
		{"insert", BinlogEvent{
			Table: "t_seat", Type: "INSERT",
			Data: []map[string]string{seatRow("01A", "0")},
		}},
		{"delete", BinlogEvent{
			Table: "t_seat", Type: "DELETE",
			Data: []map[string]string{seatRow("01A", "0")},
			Old:  []map[string]string{seatRow("01A", "0")},
		}},
		{"status column untouched", BinlogEvent{
			Table: "t_seat", Type: "UPDATE",
			Data: []map[string]string{seatRow("01A", "1")},
			Old:  []map[string]string{{"seat_number": "02A"}},
		}},
		{"mismatched row images", BinlogEvent{
			Table: "t_seat", Type: "UPDATE",
			Data: []map[string]string{seatRow("01A", "1"), seatRow("01B", "1")},
			Old:  []map[string]string{{"seat_status": "0"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, tt.ev.ChangeEvents())
		})
	}
}

func TestChangeEventsSkipsMalformedRows(t *testing.T) {
	bad := seatRow("01B", "not-a-code")
	badClass := seatRow("01C", "1")
	badClass["seat_type"] = "9"

	ev := BinlogEvent{
		Table: seatTable,
		Type:  "UPDATE",
		Data:  []map[string]string{seatRow("01A", "1"), bad, badClass, seatRow("01D", "2")},
		Old: []map[string]string{
			{"seat_status": "0"},
			{"seat_status": "0"},
			{"seat_status": "0"},
			{"seat_status": "1"},
		},
	}
	got := ev.ChangeEvents()
	require.Len(t, got, 2)
	assert.Equal(t, "01A", got[0].SeatNumber)
	assert.Equal(t, "01D", got[1].SeatNumber)
	assert.Equal(t, model.SeatSold, got[1].NewStatus)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
