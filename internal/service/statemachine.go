package service

import (
	"time"

	"github.com/iliyamo/hotel-room-inventory/internal/model"
	"github.com/iliyamo/hotel-room-inventory/internal/queue"
)

// allowedTransitions encodes the room lifecycle graph.  AVAILABLE is the
// initial state; the graph is cyclic with no terminal state.
var allowedTransitions = map[model.RoomStatus][]model.RoomStatus{
	model.RoomAvailable:   {model.RoomOccupied, model.RoomMaintenance, model.RoomOutOfOrder},
	model.RoomOccupied:    {model.RoomAvailable, model.RoomMaintenance},
	model.RoomMaintenance: {model.RoomAvailable, model.RoomOutOfOrder},
	model.RoomOutOfOrder:  {model.RoomMaintenance, model.RoomAvailable},
}

// CanTransition reports whether the lifecycle graph allows moving from
// one status to another.  Same-state moves are treated as no-ops and
// allowed.
func CanTransition(from, to model.RoomStatus) bool {
	if from == to {
		return true
	}
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Transition validates and applies a status change to a room.  It is a
// pure function: the caller supplies whether an active booking currently
// covers "now" (activeBookingNow) and receives the updated room, the
// history entry to append and the event payload to publish.  Publication
// and persistence are the store's job.
//
// A same-state target is a no-op: the room is returned unchanged and the
// payload is nil, meaning nothing to record or publish.
func Transition(room model.Room, target model.RoomStatus, reason string, activeBookingNow bool, now time.Time) (model.Room, model.RoomStatusChange, *queue.StatusPayload, error) {
	if room.Status == target {
		return room, model.RoomStatusChange{}, nil, nil
	}
	if !CanTransition(room.Status, target) {
		return room, model.RoomStatusChange{}, nil, &InvalidTransitionError{RoomID: room.ID, From: room.Status, To: target}
	}
	// A room cannot come back on sale while a guest's stay covers now.
	if target == model.RoomAvailable && activeBookingNow {
		return room, model.RoomStatusChange{}, nil, &ActiveBookingConflictError{RoomID: room.ID}
	}
	change := model.RoomStatusChange{
		RoomID:     room.ID,
		FromStatus: room.Status,
		ToStatus:   target,
		Reason:     reason,
		ChangedAt:  now,
	}
	payload := &queue.StatusPayload{
		RoomID:     room.ID,
		RoomType:   room.Type,
		FromStatus: room.Status,
		ToStatus:   target,
		Reason:     reason,
	}
	updated := room
	updated.Status = target
	updated.UpdatedAt = now
	return updated, change, payload, nil
}
