package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/hotel-room-inventory/internal/model"
)

// BookingRepo provides data access to the booking_line_items table.  A
// line item is one reserved room-unit; the concurrency guard creates
// them and the assignment engine binds them to concrete rooms.  Checks
// against "active" items always mean status IN (PENDING, CONFIRMED,
// CHECKED_IN).
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle so services can open transactions
// spanning several repositories.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const itemColumns = `id, booking_ref, hotel_id, room_type, check_in, check_out,
	status, room_id, price_cents, created_at, updated_at`

const activeStatuses = `('PENDING','CONFIRMED','CHECKED_IN')`

func scanItem(row interface{ Scan(...interface{}) error }) (model.BookingLineItem, error) {
	var it model.BookingLineItem
	var roomID sql.NullInt64
	err := row.Scan(&it.ID, &it.BookingRef, &it.HotelID, &it.RoomType, &it.CheckIn, &it.CheckOut,
		&it.Status, &roomID, &it.PriceCents, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return it, err
	}
	if roomID.Valid {
		id := uint64(roomID.Int64)
		it.RoomID = &id
	}
	return it, nil
}

func collectItems(rows *sql.Rows) ([]model.BookingLineItem, error) {
	defer rows.Close()
	out := make([]model.BookingLineItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ActiveOverlapping returns every active line item of the hotel (and
// type, when given) whose stay interval overlaps [checkIn, checkOut).
// The overlap test is the single interval comparison; no per-day
// iteration happens anywhere.
func (r *BookingRepo) ActiveOverlapping(ctx context.Context, hotelID uint64, roomType model.RoomType, checkIn, checkOut time.Time) ([]model.BookingLineItem, error) {
	return r.activeOverlapping(ctx, r.db.QueryContext, hotelID, roomType, checkIn, checkOut)
}

// ActiveOverlappingTx is ActiveOverlapping inside a transaction.  The
// guard calls it after locking the type's room rows, so the counts it
// sees cannot change before commit.
func (r *BookingRepo) ActiveOverlappingTx(ctx context.Context, tx *sql.Tx, hotelID uint64, roomType model.RoomType, checkIn, checkOut time.Time) ([]model.BookingLineItem, error) {
	return r.activeOverlapping(ctx, tx.QueryContext, hotelID, roomType, checkIn, checkOut)
}

func (r *BookingRepo) activeOverlapping(ctx context.Context, query queryFn, hotelID uint64, roomType model.RoomType, checkIn, checkOut time.Time) ([]model.BookingLineItem, error) {
	q := `SELECT ` + itemColumns + ` FROM booking_line_items
	      WHERE hotel_id = ? AND status IN ` + activeStatuses + `
	        AND check_in < ? AND check_out > ?`
	args := []interface{}{hotelID, dateArg(checkOut), dateArg(checkIn)}
	if roomType != "" {
		q += ` AND room_type = ?`
		args = append(args, roomType)
	}
	q += ` ORDER BY id`
	rows, err := query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

// InsertItemsTx inserts the given line items within the transaction and
// populates their generated IDs and timestamps.  All items are inserted
// or none: any error aborts the caller's transaction.
func (r *BookingRepo) InsertItemsTx(ctx context.Context, tx *sql.Tx, items []model.BookingLineItem) ([]model.BookingLineItem, error) {
	const q = `INSERT INTO booking_line_items (booking_ref, hotel_id, room_type, check_in, check_out, status, price_cents)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	out := make([]model.BookingLineItem, 0, len(items))
	for _, it := range items {
		res, err := tx.ExecContext(ctx, q,
			it.BookingRef, it.HotelID, it.RoomType, dateArg(it.CheckIn), dateArg(it.CheckOut), it.Status, it.PriceCents)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		got, err := r.itemByIDTx(ctx, tx, uint64(id), false)
		if err != nil {
			return nil, err
		}
		out = append(out, got)
	}
	return out, nil
}

// ItemsByIDsTx loads the given line items inside the transaction.  With
// forUpdate the rows are locked until commit.
func (r *BookingRepo) ItemsByIDsTx(ctx context.Context, tx *sql.Tx, ids []uint64, forUpdate bool) ([]model.BookingLineItem, error) {
	if len(ids) == 0 {
		return []model.BookingLineItem{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	q := `SELECT ` + itemColumns + ` FROM booking_line_items
	      WHERE id IN (` + strings.Join(placeholders, ",") + `) ORDER BY id`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

// ItemsByBookingRefTx loads all line items of a booking in id order.
func (r *BookingRepo) ItemsByBookingRefTx(ctx context.Context, tx *sql.Tx, bookingRef string, forUpdate bool) ([]model.BookingLineItem, error) {
	q := `SELECT ` + itemColumns + ` FROM booking_line_items WHERE booking_ref = ? ORDER BY id`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	rows, err := tx.QueryContext(ctx, q, bookingRef)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

func (r *BookingRepo) itemByIDTx(ctx context.Context, tx *sql.Tx, id uint64, forUpdate bool) (model.BookingLineItem, error) {
	q := `SELECT ` + itemColumns + ` FROM booking_line_items WHERE id = ?`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	return scanItem(tx.QueryRowContext(ctx, q, id))
}

// UpdateStatusTx sets a new status on the given line items and returns
// the number of rows changed.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, ids []uint64, status model.LineItemStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, status)
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	q := `UPDATE booking_line_items SET status = ? WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AssignRoomTx binds a line item to a concrete room and marks it
// CHECKED_IN-eligible by moving it to CONFIRMED if still PENDING.
func (r *BookingRepo) AssignRoomTx(ctx context.Context, tx *sql.Tx, itemID, roomID uint64) error {
	const q = `UPDATE booking_line_items
	           SET room_id = ?, status = IF(status = 'PENDING', 'CONFIRMED', status)
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, roomID, itemID)
	return err
}

// ActiveForRoomTx returns the active line items assigned to a room.
// With forUpdate the rows are locked; the delete-cascade and status
// transition flows use this to freeze the room's bookings while they
// decide.
func (r *BookingRepo) ActiveForRoomTx(ctx context.Context, tx *sql.Tx, roomID uint64, forUpdate bool) ([]model.BookingLineItem, error) {
	q := `SELECT ` + itemColumns + ` FROM booking_line_items
	      WHERE room_id = ? AND status IN ` + activeStatuses + ` ORDER BY id`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	rows, err := tx.QueryContext(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

// ActiveCoveringRoomTx reports whether an active line item assigned to
// the room has a stay interval containing the given instant.  The status
// state machine consults this for the OCCUPIED/AVAILABLE invariant.
func (r *BookingRepo) ActiveCoveringRoomTx(ctx context.Context, tx *sql.Tx, roomID uint64, now time.Time) (bool, error) {
	const q = `SELECT COUNT(*) FROM booking_line_items
	           WHERE room_id = ? AND status IN ` + activeStatuses + `
	             AND check_in <= ? AND check_out > ?`
	var n int
	day := dateArg(now)
	if err := tx.QueryRowContext(ctx, q, roomID, day, day).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// dateArg formats a stay boundary for the DATE columns.
func dateArg(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
