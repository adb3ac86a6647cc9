package service

import (
	"context"

	"github.com/iliyamo/hotel-room-inventory/internal/model"
	"github.com/iliyamo/hotel-room-inventory/internal/queue"
	"github.com/iliyamo/hotel-room-inventory/internal/repository"
)

// AssignmentPreferences narrows room selection.  Every field is
// enumerated here; there is no free-form options bag.
type AssignmentPreferences struct {
	PreferredFloor *int32 // pick a room on this floor when one is free
	AdjacentRooms  bool   // keep the booking's rooms physically close
}

// Assignment records one line item bound to a concrete room.
type Assignment struct {
	LineItemID uint64 `json:"line_item_id"`
	RoomID     uint64 `json:"room_id"`
	RoomNumber uint32 `json:"room_number"`
	Floor      int32  `json:"floor"`
}

// AssignmentResult is returned when every unassigned line item of the
// booking received a room.
type AssignmentResult struct {
	BookingRef  string       `json:"booking_ref"`
	Assignments []Assignment `json:"assignments"`
}

// AssignmentEngine binds booked room-type line items to concrete rooms
// at or near check-in.  Selection order per line item: preferred floor,
// then adjacency to the booking's most recently assigned room (same
// floor, number distance <= 2), then the first candidate in the
// calculator's deterministic floor/number order.
//
// Assignment is all-or-nothing per call: when any line item has no
// candidate, the whole transaction rolls back and AssignmentError lists
// the unsatisfiable items.  Assignments committed by earlier calls stay
// untouched.
type AssignmentEngine struct {
	store *Store
}

// NewAssignmentEngine constructs an engine writing through the store.
func NewAssignmentEngine(store *Store) *AssignmentEngine {
	return &AssignmentEngine{store: store}
}

// AssignRooms assigns every unassigned active line item of the booking.
func (e *AssignmentEngine) AssignRooms(ctx context.Context, bookingRef string, prefs AssignmentPreferences) (*AssignmentResult, error) {
	if bookingRef == "" {
		return nil, &ValidationError{Field: "booking_ref", Reason: "is required"}
	}
	return e.store.assignOnce(ctx, bookingRef, prefs)
}

// assignOnce runs the whole assignment as one transaction on the store.
func (s *Store) assignOnce(ctx context.Context, bookingRef string, prefs AssignmentPreferences) (*AssignmentResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	items, err := s.bookings.ItemsByBookingRefTx(ctx, tx, bookingRef, true)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, repository.ErrBookingNotFound
	}
	unassigned := make([]model.BookingLineItem, 0, len(items))
	for _, it := range items {
		if it.Status.Active() && it.RoomID == nil {
			unassigned = append(unassigned, it)
		}
	}
	result := &AssignmentResult{BookingRef: bookingRef, Assignments: []Assignment{}}
	if len(unassigned) == 0 {
		return result, tx.Commit()
	}
	hotelID := unassigned[0].HotelID

	// Lock the room rows of every involved type once; the same lock that
	// serializes reservations serializes assignment against them.
	roomsByType := map[model.RoomType][]model.Room{}
	for _, it := range unassigned {
		if _, ok := roomsByType[it.RoomType]; ok {
			continue
		}
		rooms, err := s.rooms.ListByHotelTx(ctx, tx, hotelID, it.RoomType, true)
		if err != nil {
			return nil, err
		}
		roomsByType[it.RoomType] = rooms
	}

	type pick struct {
		item model.BookingLineItem
		room model.Room
	}
	var picks []pick
	var unsatisfiable []uint64
	chosen := map[uint64][]model.BookingLineItem{} // roomID -> intervals taken this call
	var last *model.Room

	for i := range unassigned {
		it := unassigned[i]
		overlap, err := s.bookings.ActiveOverlappingTx(ctx, tx, hotelID, it.RoomType, it.CheckIn, it.CheckOut)
		if err != nil {
			return nil, err
		}
		cands := CandidateRooms(UsableRooms(roomsByType[it.RoomType]), overlap, it.CheckIn, it.CheckOut)
		cands = withoutChosen(cands, chosen, it)
		room, ok := selectRoom(cands, prefs, last)
		if !ok {
			unsatisfiable = append(unsatisfiable, it.ID)
			continue
		}
		chosen[room.ID] = append(chosen[room.ID], it)
		picks = append(picks, pick{item: it, room: room})
		r := room
		last = &r
	}
	if len(unsatisfiable) > 0 {
		return nil, &AssignmentError{BookingRef: bookingRef, Unsatisfiable: unsatisfiable}
	}

	var events []queue.ChangeEvent
	now := s.now()
	for _, p := range picks {
		if err := s.bookings.AssignRoomTx(ctx, tx, p.item.ID, p.room.ID); err != nil {
			return nil, err
		}
		n, err := s.seq.NextTx(ctx, tx, hotelID)
		if err != nil {
			return nil, err
		}
		ev := s.event(queue.EventRoomAssigned, hotelID, n)
		ev.Assigned = &queue.AssignedPayload{
			BookingRef: bookingRef,
			LineItemID: p.item.ID,
			RoomID:     p.room.ID,
			Number:     p.room.Number,
		}
		events = append(events, ev)

		// The room becomes OCCUPIED only when the stay covers now, which
		// keeps OCCUPIED equivalent to "a guest is in the room".
		if !p.item.Covers(now) {
			continue
		}
		if _, err := s.bookings.UpdateStatusTx(ctx, tx, []uint64{p.item.ID}, model.LineItemCheckedIn); err != nil {
			return nil, err
		}
		_, change, payload, err := Transition(p.room, model.RoomOccupied, "auto-assigned at check-in", false, now)
		if err != nil {
			return nil, err
		}
		if payload == nil {
			continue
		}
		if err := s.rooms.UpdateStatusTx(ctx, tx, p.room.ID, model.RoomOccupied, p.room.Version); err != nil {
			return nil, err
		}
		if err := s.rooms.AppendStatusHistoryTx(ctx, tx, change); err != nil {
			return nil, err
		}
		sn, err := s.seq.NextTx(ctx, tx, hotelID)
		if err != nil {
			return nil, err
		}
		sev := s.event(queue.EventStatusChanged, hotelID, sn)
		sev.Status = payload
		events = append(events, sev)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	s.publish(events)

	for _, p := range picks {
		result.Assignments = append(result.Assignments, Assignment{
			LineItemID: p.item.ID,
			RoomID:     p.room.ID,
			RoomNumber: p.room.Number,
			Floor:      p.room.Floor,
		})
	}
	return result, nil
}

// withoutChosen removes rooms already taken for an overlapping interval
// earlier in the same call.
func withoutChosen(cands []model.Room, chosen map[uint64][]model.BookingLineItem, it model.BookingLineItem) []model.Room {
	out := make([]model.Room, 0, len(cands))
	for _, rm := range cands {
		conflict := false
		for _, taken := range chosen[rm.ID] {
			if taken.Overlaps(it.CheckIn, it.CheckOut) {
				conflict = true
				break
			}
		}
		if !conflict {
			out = append(out, rm)
		}
	}
	return out
}

// selectRoom applies the selection heuristics over candidates already in
// deterministic floor/number order.
func selectRoom(cands []model.Room, prefs AssignmentPreferences, last *model.Room) (model.Room, bool) {
	if len(cands) == 0 {
		return model.Room{}, false
	}
	if prefs.PreferredFloor != nil {
		for _, rm := range cands {
			if rm.Floor == *prefs.PreferredFloor {
				return rm, true
			}
		}
	}
	if prefs.AdjacentRooms && last != nil {
		for _, rm := range cands {
			if rm.Floor == last.Floor && numberDistance(rm.Number, last.Number) <= 2 {
				return rm, true
			}
		}
	}
	return cands[0], true
}

func numberDistance(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
