// Package repository implements MySQL persistence for rooms, bookings and
// the per-hotel event sequence.  This file defines sentinel errors reused
// across repositories so higher layers can distinguish failure scenarios
// with errors.Is without depending on driver error codes.
package repository

import (
	"database/sql/driver"
	"errors"
	"strings"
)

// ErrRoomNotFound is returned when a room lookup matches no row.
var ErrRoomNotFound = errors.New("room not found")

// ErrHotelNotFound is returned when a hotel lookup matches no row.
var ErrHotelNotFound = errors.New("hotel not found")

// ErrDuplicateRoom is returned when creating a room whose number already
// exists within the hotel.  Handlers should translate this into 409.
var ErrDuplicateRoom = errors.New("room number already exists in hotel")

// ErrBookingNotFound is returned when no line items match a booking
// reference or ID set.
var ErrBookingNotFound = errors.New("booking not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers should translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrVersionConflict is returned when an optimistic version check fails,
// meaning another writer modified the row between read and write.  The
// caller may retry the whole unit of work.
var ErrVersionConflict = errors.New("version conflict")

// IsTransient reports whether err is a temporary store failure worth
// retrying with backoff: InnoDB deadlock (1213), lock wait timeout
// (1205), a broken connection, or an optimistic version conflict.
// Genuine unavailability is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrVersionConflict) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "1213") || strings.Contains(msg, "1205") ||
		strings.Contains(msg, "connection refused") || strings.Contains(msg, "invalid connection")
}
