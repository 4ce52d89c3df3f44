package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/train-ticket-inventory/internal/model"
)

// OrderRepo persists orders and their per-passenger items.  Status
// changes are conditional updates on the expected prior status; the
// table never sees a blind overwrite.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// Create inserts the order row and its items in one transaction.  The
// order starts in PENDING_PAYMENT.
func (r *OrderRepo) Create(ctx context.Context, order model.Order, items []model.OrderItem) error {
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
	const q = `INSERT INTO t_order (order_sn, user_id, train_id, departure, arrival, status)
	           VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q,
		order.SN, order.UserID, order.Segment.TrainID, order.Segment.Departure, order.Segment.Arrival, order.Status,
	); err != nil {
		return err
	}
	if len(items) > 0 {
		query := `INSERT INTO t_order_item (order_sn, passenger_id, carriage_number, seat_number, seat_type, amount_cents) VALUES `
		args := make([]interface{}, 0, len(items)*6)
		for i, it := range items {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?, ?)"
			args = append(args, it.OrderSN, it.PassengerID, it.CarriageID, it.SeatNumber, it.Class.Code(), it.AmountCents)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Status returns the current lifecycle status of an order.
func (r *OrderRepo) Status(ctx context.Context, orderSN string) (string, error) {
	const q = `SELECT status FROM t_order WHERE order_sn = ?`
	var status string
	err := r.db.QueryRowContext(ctx, q, orderSN).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

// UpdateStatusIf moves the order from exactly status from to status
// to.  Zero matched rows means the order is no longer in the source
// status; that is reported as ErrStatusConflict so callers can tell a
// lost lifecycle race from a database fault.
func (r *OrderRepo) UpdateStatusIf(ctx context.Context, orderSN, from, to string) error {
	const q = `UPDATE t_order SET status = ? WHERE order_sn = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, to, orderSN, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrStatusConflict
	}
	return nil
}

// Items returns the per-passenger tickets of an order, in insert
// order.  Used when a close or refund has to release the order's
// seats.
func (r *OrderRepo) Items(ctx context.Context, orderSN string) ([]model.OrderItem, error) {
	const q = `SELECT passenger_id, carriage_number, seat_number, seat_type, amount_cents
	           FROM t_order_item WHERE order_sn = ? ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, q, orderSN)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.OrderItem
	for rows.Next() {
		it := model.OrderItem{OrderSN: orderSN}
		var code int
		if err := rows.Scan(&it.PassengerID, &it.CarriageID, &it.SeatNumber, &code, &it.AmountCents); err != nil {
			return nil, err
		}
		if class, ok := model.SeatClassFromCode(code); ok {
			it.Class = class
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Get loads one order header.
func (r *OrderRepo) Get(ctx context.Context, orderSN string) (*model.Order, error) {
	const q = `SELECT order_sn, user_id, train_id, departure, arrival, status, created_at, updated_at
	           FROM t_order WHERE order_sn = ?`
	var o model.Order
	err := r.db.QueryRowContext(ctx, q, orderSN).Scan(
		&o.SN, &o.UserID, &o.Segment.TrainID, &o.Segment.Departure, &o.Segment.Arrival,
		&o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
