package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/train-ticket-inventory/internal/model"
)

// PriceRepo reads per-segment fares.  Fares live in t_train_station_price
// keyed by train, leg and seat class; the allocation path only ever
// reads them, after seats are committed.
type PriceRepo struct {
	db *sql.DB
}

// NewPriceRepo constructs a PriceRepo given a DB handle.
func NewPriceRepo(db *sql.DB) *PriceRepo {
	return &PriceRepo{db: db}
}

// Price returns the fare in cents for one seat class on a segment.
// ErrPriceNotFound is returned when the combination has no fare row.
func (r *PriceRepo) Price(ctx context.Context, seg model.Segment, class model.SeatClass) (uint32, error) {
	const q = `SELECT price_cents FROM t_train_station_price
	           WHERE train_id = ? AND departure = ? AND arrival = ? AND seat_type = ?`
	var cents uint32
	err := r.db.QueryRowContext(ctx, q, seg.TrainID, seg.Departure, seg.Arrival, class.Code()).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrPriceNotFound
	}
	if err != nil {
		return 0, err
	}
	return cents, nil
}
