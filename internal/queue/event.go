// Package queue defines the change-event envelope produced by inventory
// mutations and the message plumbing that carries it: a typed in-process
// bus for cache invalidation and realtime fan-out, plus a RabbitMQ
// publisher and audit consumer for out-of-process subscribers.
package queue

import (
	"time"

	"github.com/iliyamo/hotel-room-inventory/internal/model"
)

// EventType is the closed set of inventory change notifications.  Every
// successful mutation produces exactly one event of one of these types;
// there is no free-form event name anywhere in the system.
type EventType string

const (
	EventRoomAdded        EventType = "ROOM_ADDED"
	EventRoomDeleted      EventType = "ROOM_DELETED"
	EventStatusChanged    EventType = "STATUS_CHANGED"
	EventBookingCreated   EventType = "BOOKING_CREATED"
	EventBookingCancelled EventType = "BOOKING_CANCELLED"
	EventRoomAssigned     EventType = "ROOM_ASSIGNED"
	EventPriceChanged     EventType = "PRICE_CHANGED"
)

// ChangeEvent is the single notification envelope published after every
// durable inventory mutation.  Sequence numbers increase monotonically
// per hotel; no ordering is guaranteed across hotels.  Exactly one of
// the payload pointers is non-nil, matching Type.
type ChangeEvent struct {
	Type      EventType `json:"type"`
	HotelID   uint64    `json:"hotel_id"`
	Sequence  uint64    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`

	Room     *RoomPayload     `json:"room,omitempty"`
	Status   *StatusPayload   `json:"status,omitempty"`
	Booking  *BookingPayload  `json:"booking,omitempty"`
	Assigned *AssignedPayload `json:"assigned,omitempty"`
	Price    *PricePayload    `json:"price,omitempty"`
}

// RoomPayload accompanies ROOM_ADDED and ROOM_DELETED events.
type RoomPayload struct {
	RoomID   uint64         `json:"room_id"`
	Number   uint32         `json:"room_number"`
	RoomType model.RoomType `json:"room_type"`
	Floor    int32          `json:"floor"`
}

// StatusPayload accompanies STATUS_CHANGED events.
type StatusPayload struct {
	RoomID     uint64           `json:"room_id"`
	RoomType   model.RoomType   `json:"room_type"`
	FromStatus model.RoomStatus `json:"from_status"`
	ToStatus   model.RoomStatus `json:"to_status"`
	Reason     string           `json:"reason,omitempty"`
}

// BookingPayload accompanies BOOKING_CREATED and BOOKING_CANCELLED
// events.  LineItemIDs lists every line item created or released by the
// mutation.
type BookingPayload struct {
	BookingRef  string         `json:"booking_ref"`
	RoomType    model.RoomType `json:"room_type"`
	CheckIn     time.Time      `json:"check_in"`
	CheckOut    time.Time      `json:"check_out"`
	LineItemIDs []uint64       `json:"line_item_ids"`
}

// AssignedPayload accompanies ROOM_ASSIGNED events published by the
// auto-assignment engine.
type AssignedPayload struct {
	BookingRef string `json:"booking_ref"`
	LineItemID uint64 `json:"line_item_id"`
	RoomID     uint64 `json:"room_id"`
	Number     uint32 `json:"room_number"`
}

// PricePayload accompanies PRICE_CHANGED events emitted when a mutation
// moves a room type across a demand threshold.
type PricePayload struct {
	RoomType   model.RoomType    `json:"room_type"`
	CheckIn    time.Time         `json:"check_in"`
	CheckOut   time.Time         `json:"check_out"`
	FromDemand model.DemandLevel `json:"from_demand"`
	ToDemand   model.DemandLevel `json:"to_demand"`
	PriceCents uint32            `json:"price_cents"`
}
