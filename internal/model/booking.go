package model

import "time"

// LineItemStatus enumerates the lifecycle of a booking line item.  A line
// item is "active" (counts against capacity and blocks its room interval)
// while in PENDING, CONFIRMED or CHECKED_IN.
type LineItemStatus string

const (
	LineItemPending   LineItemStatus = "PENDING"
	LineItemConfirmed LineItemStatus = "CONFIRMED"
	LineItemCheckedIn LineItemStatus = "CHECKED_IN"
	LineItemCancelled LineItemStatus = "CANCELLED"
	LineItemCompleted LineItemStatus = "COMPLETED"
)

// Active reports whether a line item in this status still consumes
// capacity for its interval.
func (s LineItemStatus) Active() bool {
	switch s {
	case LineItemPending, LineItemConfirmed, LineItemCheckedIn:
		return true
	}
	return false
}

// BookingLineItem is one reserved room-unit of a booking.  A reservation
// for quantity N creates N line items sharing the same booking reference.
// RoomID stays nil until the auto-assignment engine binds the item to a
// concrete room at or near check-in.
//
// Fields:
//  ID         – primary key identifier.
//  BookingRef – UUID grouping the line items of one reservation.
//  HotelID    – hotel the stay belongs to.
//  RoomType   – requested room category.
//  CheckIn    – first night of the stay (inclusive).
//  CheckOut   – day of departure (exclusive).
//  Status     – lifecycle status; see LineItemStatus.
//  RoomID     – assigned concrete room (nullable until assignment).
//  PriceCents – demand-adjusted nightly price locked in at reservation.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type BookingLineItem struct {
	ID         uint64         // booking_line_items.id
	BookingRef string         // booking_line_items.booking_ref
	HotelID    uint64         // booking_line_items.hotel_id
	RoomType   RoomType       // booking_line_items.room_type
	CheckIn    time.Time      // booking_line_items.check_in
	CheckOut   time.Time      // booking_line_items.check_out
	Status     LineItemStatus // booking_line_items.status
	RoomID     *uint64        // booking_line_items.room_id (nullable)
	PriceCents uint32         // booking_line_items.price_cents
	CreatedAt  time.Time      // booking_line_items.created_at
	UpdatedAt  time.Time      // booking_line_items.updated_at
}

// Overlaps reports whether the line item's [CheckIn, CheckOut) interval
// intersects the given half-open interval.  This single comparison replaces
// any per-day iteration over the range.
func (b BookingLineItem) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckIn.Before(checkOut) && b.CheckOut.After(checkIn)
}

// Covers reports whether the stay interval contains the given instant.
func (b BookingLineItem) Covers(now time.Time) bool {
	return !now.Before(b.CheckIn) && now.Before(b.CheckOut)
}
