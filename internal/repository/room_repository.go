package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/hotel-room-inventory/internal/model"
)

// RoomRepo provides data access to the rooms and room_status_history
// tables.  Status values are written here but validated elsewhere: every
// status mutation is decided by the state machine before it reaches this
// layer.  All timestamps are stored in UTC.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying handle so services can open transactions
// spanning several repositories.
func (r *RoomRepo) DB() *sql.DB { return r.db }

const roomColumns = `id, hotel_id, room_number, room_type, floor, base_price_cents,
	max_occupancy, status, version, created_at, updated_at`

func scanRoom(row interface{ Scan(...interface{}) error }) (model.Room, error) {
	var rm model.Room
	err := row.Scan(&rm.ID, &rm.HotelID, &rm.Number, &rm.Type, &rm.Floor, &rm.BasePriceCents,
		&rm.MaxOccupancy, &rm.Status, &rm.Version, &rm.CreatedAt, &rm.UpdatedAt)
	return rm, err
}

// CreateTx inserts a new room within the given transaction and populates
// the generated ID and timestamps on the passed record.  Room numbers
// are unique per hotel; a duplicate insert returns ErrDuplicateRoom.
func (r *RoomRepo) CreateTx(ctx context.Context, tx *sql.Tx, room *model.Room) error {
	const q = `INSERT INTO rooms (hotel_id, room_number, room_type, floor, base_price_cents, max_occupancy, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		room.HotelID, room.Number, room.Type, room.Floor, room.BasePriceCents, room.MaxOccupancy, room.Status)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrDuplicateRoom
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	room.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	got, err := r.GetByIDTx(ctx, tx, room.ID, false)
	if err != nil {
		return err
	}
	*room = got
	return nil
}

// GetByID fetches a room by id.  It returns ErrRoomNotFound when the
// room does not exist.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (model.Room, error) {
	rm, err := scanRoom(r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Room{}, ErrRoomNotFound
	}
	return rm, err
}

// GetByIDTx is GetByID inside a transaction.  When forUpdate is set the
// row is locked until the transaction ends.
func (r *RoomRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64, forUpdate bool) (model.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	rm, err := scanRoom(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Room{}, ErrRoomNotFound
	}
	return rm, err
}

// ListByHotel returns the hotel's rooms, optionally filtered by type,
// ordered by floor then room number.  The availability calculator and
// the assignment engine both rely on this ordering being deterministic.
func (r *RoomRepo) ListByHotel(ctx context.Context, hotelID uint64, roomType model.RoomType) ([]model.Room, error) {
	return r.listByHotel(ctx, r.db.QueryContext, hotelID, roomType, false)
}

// ListByHotelTx is ListByHotel inside a transaction.  With forUpdate the
// matching rows are locked: the concurrency guard uses this lock as the
// contention anchor that serializes writers per (hotel, room type).
func (r *RoomRepo) ListByHotelTx(ctx context.Context, tx *sql.Tx, hotelID uint64, roomType model.RoomType, forUpdate bool) ([]model.Room, error) {
	return r.listByHotel(ctx, tx.QueryContext, hotelID, roomType, forUpdate)
}

type queryFn func(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)

func (r *RoomRepo) listByHotel(ctx context.Context, query queryFn, hotelID uint64, roomType model.RoomType, forUpdate bool) ([]model.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms WHERE hotel_id = ?`
	args := []interface{}{hotelID}
	if roomType != "" {
		q += ` AND room_type = ?`
		args = append(args, roomType)
	}
	q += ` ORDER BY floor, room_number`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	rows, err := query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

// UpdateStatusTx writes a new status for the room, guarded by the
// optimistic version counter.  When another writer bumped the version in
// between, no row matches and ErrVersionConflict is returned so the
// caller can re-read and retry.
func (r *RoomRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, roomID uint64, status model.RoomStatus, version uint32) error {
	const q = `UPDATE rooms SET status = ?, version = version + 1 WHERE id = ? AND version = ?`
	res, err := tx.ExecContext(ctx, q, status, roomID, version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionConflict
	}
	return nil
}

// AppendStatusHistoryTx records one accepted state-machine transition in
// the room's status-history log.
func (r *RoomRepo) AppendStatusHistoryTx(ctx context.Context, tx *sql.Tx, ch model.RoomStatusChange) error {
	const q = `INSERT INTO room_status_history (room_id, from_status, to_status, reason, changed_at)
	           VALUES (?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, ch.RoomID, ch.FromStatus, ch.ToStatus, ch.Reason,
		ch.ChangedAt.UTC().Format("2006-01-02 15:04:05"))
	return err
}

// StatusHistory returns the room's status-history log, oldest first.
func (r *RoomRepo) StatusHistory(ctx context.Context, roomID uint64) ([]model.RoomStatusChange, error) {
	const q = `SELECT id, room_id, from_status, to_status, reason, changed_at
	           FROM room_status_history WHERE room_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.RoomStatusChange, 0)
	for rows.Next() {
		var ch model.RoomStatusChange
		if err := rows.Scan(&ch.ID, &ch.RoomID, &ch.FromStatus, &ch.ToStatus, &ch.Reason, &ch.ChangedAt); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// DeleteTx removes a room row.  Callers must have already cancelled any
// active line items referencing it; the store's delete flow does both in
// one transaction so bookings are never silently orphaned.
func (r *RoomRepo) DeleteTx(ctx context.Context, tx *sql.Tx, roomID uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, roomID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}
