package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/train-ticket-inventory/internal/allocation"
	"github.com/iliyamo/train-ticket-inventory/internal/model"
)

// SeatRepo is the MySQL-backed seat ledger.  One t_seat row exists per
// physical seat per sellable segment; the status column is the single
// source of truth for whether the seat can be sold.  Every mutation is
// a conditional update on the expected prior status so concurrent
// purchases of the same seat cannot both succeed.  SeatRepo implements
// allocation.SeatLedger.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo given a DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// DB exposes the underlying handle for callers that need to open a
// transaction spanning several repositories.
func (r *SeatRepo) DB() *sql.DB { return r.db }

// Available lists AVAILABLE seats of a class on a segment, ordered by
// carriage then seat number so selection walks carriages ascending.
func (r *SeatRepo) Available(ctx context.Context, seg model.Segment, class model.SeatClass) ([]model.Seat, error) {
	const q = `SELECT carriage_number, seat_number
	           FROM t_seat
	           WHERE train_id = ? AND start_station = ? AND end_station = ?
	             AND seat_type = ? AND seat_status = ?
	           ORDER BY carriage_number ASC, seat_number ASC`
	rows, err := r.db.QueryContext(ctx, q, seg.TrainID, seg.Departure, seg.Arrival, class.Code(), statusCode(model.SeatAvailable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.Seat
	for rows.Next() {
		s := model.Seat{Class: class}
		if err := rows.Scan(&s.CarriageID, &s.SeatNumber); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// Lock transitions one seat AVAILABLE -> LOCKED.  RowsAffected is the
// CAS success signal: zero rows means another purchase already took
// the seat and the caller must reselect.
func (r *SeatRepo) Lock(ctx context.Context, seg model.Segment, seat model.Seat) error {
	return r.conditional(ctx, seg, seat, model.SeatAvailable, model.SeatLocked)
}

// Release transitions one seat LOCKED -> AVAILABLE, undoing a lock
// after a failed or cancelled purchase.
func (r *SeatRepo) Release(ctx context.Context, seg model.Segment, seat model.Seat) error {
	return r.conditional(ctx, seg, seat, model.SeatLocked, model.SeatAvailable)
}

// Sell transitions a batch of seats LOCKED -> SOLD inside one
// transaction.  If any seat is not LOCKED the whole batch rolls back
// and allocation.ErrSeatConflict is returned, leaving no partial
// sale.
func (r *SeatRepo) Sell(ctx context.Context, seg model.Segment, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const q = `UPDATE t_seat SET seat_status = ?
	           WHERE train_id = ? AND start_station = ? AND end_station = ?
	             AND carriage_number = ? AND seat_number = ? AND seat_type = ?
	             AND seat_status = ?`
	for _, s := range seats {
		res, err := tx.ExecContext(ctx, q,
			statusCode(model.SeatSold),
			seg.TrainID, seg.Departure, seg.Arrival,
			s.CarriageID, s.SeatNumber, s.Class.Code(),
			statusCode(model.SeatLocked),
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n != 1 {
			return allocation.ErrSeatConflict
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// conditional performs one expected-old-status update on a single
// seat row.
func (r *SeatRepo) conditional(ctx context.Context, seg model.Segment, seat model.Seat, from, to string) error {
	const q = `UPDATE t_seat SET seat_status = ?
	           WHERE train_id = ? AND start_station = ? AND end_station = ?
	             AND carriage_number = ? AND seat_number = ? AND seat_type = ?
	             AND seat_status = ?`
	res, err := r.db.ExecContext(ctx, q,
		statusCode(to),
		seg.TrainID, seg.Departure, seg.Arrival,
		seat.CarriageID, seat.SeatNumber, seat.Class.Code(),
		statusCode(from),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return allocation.ErrSeatConflict
	}
	return nil
}

// statusCode maps status strings onto the numeric seat_status column.
func statusCode(status string) int {
	switch status {
	case model.SeatAvailable:
		return 0
	case model.SeatLocked:
		return 1
	case model.SeatSold:
		return 2
	}
	return -1
}
