package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/hotel-room-inventory/internal/model"
)

// HotelRepo is the read-only hotel configuration provider: category and
// per-type base prices.  The engine never writes these tables; they are
// maintained by back-office tooling outside this service.
type HotelRepo struct {
	db *sql.DB
}

// NewHotelRepo returns a HotelRepo bound to the given database.
func NewHotelRepo(db *sql.DB) *HotelRepo { return &HotelRepo{db: db} }

// GetByID fetches a hotel by id.  It returns ErrHotelNotFound when no
// row exists.
func (r *HotelRepo) GetByID(ctx context.Context, id uint64) (model.Hotel, error) {
	const q = `SELECT id, name, category, created_at FROM hotels WHERE id = ?`
	var h model.Hotel
	err := r.db.QueryRowContext(ctx, q, id).Scan(&h.ID, &h.Name, &h.Category, &h.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Hotel{}, ErrHotelNotFound
	}
	return h, err
}

// RoomTypeConfig returns the configured room types of a hotel with their
// base prices, ordered by room type for deterministic output.
func (r *HotelRepo) RoomTypeConfig(ctx context.Context, hotelID uint64) ([]model.HotelRoomType, error) {
	const q = `SELECT hotel_id, room_type, base_price_cents
	           FROM hotel_room_types
	           WHERE hotel_id = ?
	           ORDER BY room_type`
	rows, err := r.db.QueryContext(ctx, q, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.HotelRoomType
	for rows.Next() {
		var rt model.HotelRoomType
		if err := rows.Scan(&rt.HotelID, &rt.RoomType, &rt.BasePriceCents); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}
