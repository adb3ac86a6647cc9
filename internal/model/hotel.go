package model

import "time"

// HotelCategory classifies a hotel for pricing purposes.  The pricing
// utility scales demand multipliers by category.
type HotelCategory string

const (
	CategoryStandard HotelCategory = "STANDARD"
	CategoryComfort  HotelCategory = "COMFORT"
	CategoryLuxury   HotelCategory = "LUXURY"
)

// Hotel mirrors the read-only hotel configuration: category and the
// base price configured for each sellable room type.  The engine never
// writes this table.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the hotel.
//  Category  – pricing category.
//  CreatedAt – creation timestamp.
type Hotel struct {
	ID        uint64        // hotels.id
	Name      string        // hotels.name
	Category  HotelCategory // hotels.category
	CreatedAt time.Time     // hotels.created_at
}

// HotelRoomType is one row of per-hotel room-type configuration.
//
// Fields:
//  HotelID        – hotel the configuration belongs to.
//  RoomType       – configured room category.
//  BasePriceCents – default nightly price for new rooms of this type.
type HotelRoomType struct {
	HotelID        uint64   // hotel_room_types.hotel_id
	RoomType       RoomType // hotel_room_types.room_type
	BasePriceCents uint32   // hotel_room_types.base_price_cents
}
