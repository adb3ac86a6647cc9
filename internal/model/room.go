package model

import "time"

// RoomStatus enumerates the lifecycle states a physical room can be in.
// Status values are stored verbatim in the rooms.status column and are
// only ever mutated through the status state machine.
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "AVAILABLE"    // room can be sold and assigned
	RoomOccupied    RoomStatus = "OCCUPIED"     // a guest currently occupies the room
	RoomMaintenance RoomStatus = "MAINTENANCE"  // housekeeping or repair in progress
	RoomOutOfOrder  RoomStatus = "OUT_OF_ORDER" // removed from sale until repaired
)

// RoomType enumerates the sellable room categories.  Base prices are
// configured per hotel and type in the hotel_room_types table.
type RoomType string

const (
	RoomTypeSingle RoomType = "SINGLE"
	RoomTypeDouble RoomType = "DOUBLE"
	RoomTypeSuite  RoomType = "SUITE"
	RoomTypeDeluxe RoomType = "DELUXE"
)

// ValidRoomType reports whether t is one of the known room types.
func ValidRoomType(t RoomType) bool {
	switch t {
	case RoomTypeSingle, RoomTypeDouble, RoomTypeSuite, RoomTypeDeluxe:
		return true
	}
	return false
}

// Room describes a physical room in a hotel.  Rooms are uniquely
// identified by their hotel and room number.
//
// Fields:
//  ID             – primary key identifier.
//  HotelID        – hotel to which this room belongs.
//  Number         – room number within the hotel (unique per hotel).
//  Type           – sellable category of the room.
//  Floor          – floor the room is on; drives assignment adjacency.
//  BasePriceCents – nightly base price before demand adjustment.
//  MaxOccupancy   – maximum number of guests.
//  Status         – lifecycle status, mutated only via the state machine.
//  Version        – optimistic locking counter bumped on every mutation.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Room struct {
	ID             uint64     // rooms.id
	HotelID        uint64     // rooms.hotel_id
	Number         uint32     // rooms.room_number
	Type           RoomType   // rooms.room_type
	Floor          int32      // rooms.floor
	BasePriceCents uint32     // rooms.base_price_cents
	MaxOccupancy   uint8      // rooms.max_occupancy
	Status         RoomStatus // rooms.status
	Version        uint32     // rooms.version
	CreatedAt      time.Time  // rooms.created_at
	UpdatedAt      time.Time  // rooms.updated_at
}

// RoomStatusChange is one entry of a room's status-history log.  A row is
// appended for every accepted state-machine transition.
//
// Fields:
//  ID         – primary key identifier.
//  RoomID     – room whose status changed.
//  FromStatus – status before the transition.
//  ToStatus   – status after the transition.
//  Reason     – free-form operator reason recorded with the change.
//  ChangedAt  – when the transition was committed.
type RoomStatusChange struct {
	ID         uint64     // room_status_history.id
	RoomID     uint64     // room_status_history.room_id
	FromStatus RoomStatus // room_status_history.from_status
	ToStatus   RoomStatus // room_status_history.to_status
	Reason     string     // room_status_history.reason
	ChangedAt  time.Time  // room_status_history.changed_at
}
