// Package service implements the room inventory engine: the status state
// machine, availability calculator, booking concurrency guard, inventory
// store and auto-assignment engine.  This file defines the typed errors
// the engine surfaces; each carries enough structured detail for callers
// to decide between retry and abandon.
package service

import (
	"fmt"

	"github.com/iliyamo/hotel-room-inventory/internal/model"
)

// ValidationError reports malformed input rejected before any store
// access: bad date ranges, unknown room types, zero quantities.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// InvalidTransitionError reports a status change the state machine does
// not allow from the room's current state.
type InvalidTransitionError struct {
	RoomID uint64
	From   model.RoomStatus
	To     model.RoomStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s for room %d", e.From, e.To, e.RoomID)
}

// ActiveBookingConflictError reports an attempt to mark a room AVAILABLE
// while an active booking's stay interval covers the current instant.
type ActiveBookingConflictError struct {
	RoomID uint64
}

func (e *ActiveBookingConflictError) Error() string {
	return fmt.Sprintf("room %d has an active booking covering now", e.RoomID)
}

// ConflictError reports genuine unavailability: the reservation cannot be
// fully satisfied.  Available is the best currently-known remaining
// capacity at the moment the transaction re-validated.  The guard never
// retries this error; the caller may re-query and decide.
type ConflictError struct {
	HotelID   uint64
	RoomType  model.RoomType
	Requested int
	Available int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("insufficient availability: hotel=%d type=%s requested=%d available=%d",
		e.HotelID, e.RoomType, e.Requested, e.Available)
}

// TransientStoreError reports that the store stayed unreachable or kept
// conflicting through the whole retry budget.
type TransientStoreError struct {
	Attempts int
	Err      error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("store unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransientStoreError) Unwrap() error { return e.Err }

// AssignmentError reports that the all-or-nothing room assignment could
// not be completed.  Unsatisfiable lists the line items for which no
// candidate room existed; nothing from the failing call was committed.
type AssignmentError struct {
	BookingRef    string
	Unsatisfiable []uint64
}

func (e *AssignmentError) Error() string {
	return fmt.Sprintf("cannot assign rooms for booking %s: unsatisfiable line items %v",
		e.BookingRef, e.Unsatisfiable)
}
