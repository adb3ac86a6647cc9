package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/hotel-room-inventory/internal/model"
	"github.com/iliyamo/hotel-room-inventory/internal/queue"
	"github.com/iliyamo/hotel-room-inventory/internal/repository"
)

// Store is the room inventory store: the only component with direct
// write access to persisted Room and BookingLineItem state.  Every
// mutation runs in one transaction together with its per-hotel sequence
// allocation, and the resulting ChangeEvents are published to the bus
// only after the transaction committed.
type Store struct {
	db       *sql.DB
	rooms    *repository.RoomRepo
	bookings *repository.BookingRepo
	hotels   *repository.HotelRepo
	seq      *repository.SequenceRepo
	bus      *queue.Bus
	now      func() time.Time
}

// NewStore wires a Store from its repositories and the event bus.
func NewStore(db *sql.DB, rooms *repository.RoomRepo, bookings *repository.BookingRepo, hotels *repository.HotelRepo, seq *repository.SequenceRepo, bus *queue.Bus) *Store {
	return &Store{
		db:       db,
		rooms:    rooms,
		bookings: bookings,
		hotels:   hotels,
		seq:      seq,
		bus:      bus,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Rooms exposes the room repository for read-only callers.
func (s *Store) Rooms() *repository.RoomRepo { return s.rooms }

// Bookings exposes the booking repository for read-only callers.
func (s *Store) Bookings() *repository.BookingRepo { return s.bookings }

// publish emits the events of a committed transaction in sequence order.
func (s *Store) publish(events []queue.ChangeEvent) {
	for _, ev := range events {
		s.bus.Publish(ev)
	}
}

// event stamps a ChangeEvent envelope.
func (s *Store) event(t queue.EventType, hotelID, seq uint64) queue.ChangeEvent {
	return queue.ChangeEvent{Type: t, HotelID: hotelID, Sequence: seq, Timestamp: s.now()}
}

// CreateRoom inserts a new room.  Room numbers are unique within a
// hotel; a duplicate returns repository.ErrDuplicateRoom.  The room
// starts its lifecycle in AVAILABLE.
func (s *Store) CreateRoom(ctx context.Context, room *model.Room) error {
	if !model.ValidRoomType(room.Type) {
		return &ValidationError{Field: "room_type", Reason: "is unknown"}
	}
	if room.Number == 0 {
		return &ValidationError{Field: "room_number", Reason: "must be positive"}
	}
	hotel, err := s.hotels.GetByID(ctx, room.HotelID)
	if err != nil {
		return err
	}
	if room.BasePriceCents == 0 {
		cfg, err := s.hotels.RoomTypeConfig(ctx, hotel.ID)
		if err != nil {
			return err
		}
		for _, rt := range cfg {
			if rt.RoomType == room.Type {
				room.BasePriceCents = rt.BasePriceCents
			}
		}
	}
	room.Status = model.RoomAvailable

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := s.rooms.CreateTx(ctx, tx, room); err != nil {
		return err
	}
	n, err := s.seq.NextTx(ctx, tx, room.HotelID)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	ev := s.event(queue.EventRoomAdded, room.HotelID, n)
	ev.Room = &queue.RoomPayload{RoomID: room.ID, Number: room.Number, RoomType: room.Type, Floor: room.Floor}
	s.publish([]queue.ChangeEvent{ev})
	return nil
}

// DeleteRoom removes a room.  Active bookings assigned to the room are
// cancelled in the same transaction, never silently orphaned, and each
// cancellation gets its own ChangeEvent before the ROOM_DELETED event.
func (s *Store) DeleteRoom(ctx context.Context, roomID uint64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	room, err := s.rooms.GetByIDTx(ctx, tx, roomID, true)
	if err != nil {
		return err
	}
	items, err := s.bookings.ActiveForRoomTx(ctx, tx, roomID, true)
	if err != nil {
		return err
	}
	var events []queue.ChangeEvent
	if len(items) > 0 {
		ids := make([]uint64, len(items))
		for i, it := range items {
			ids[i] = it.ID
		}
		if _, err := s.bookings.UpdateStatusTx(ctx, tx, ids, model.LineItemCancelled); err != nil {
			return err
		}
		for _, group := range groupItems(items) {
			n, err := s.seq.NextTx(ctx, tx, group.hotelID)
			if err != nil {
				return err
			}
			ev := s.event(queue.EventBookingCancelled, group.hotelID, n)
			ev.Booking = group.payload
			events = append(events, ev)
		}
	}
	if err := s.rooms.DeleteTx(ctx, tx, roomID); err != nil {
		return err
	}
	n, err := s.seq.NextTx(ctx, tx, room.HotelID)
	if err != nil {
		return err
	}
	ev := s.event(queue.EventRoomDeleted, room.HotelID, n)
	ev.Room = &queue.RoomPayload{RoomID: room.ID, Number: room.Number, RoomType: room.Type, Floor: room.Floor}
	events = append(events, ev)

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	s.publish(events)
	return nil
}

// ChangeStatus routes a status mutation through the state machine.  A
// same-state target is a no-op and publishes nothing.  Moving a room to
// AVAILABLE while an active stay covers now fails with
// ActiveBookingConflictError.
func (s *Store) ChangeStatus(ctx context.Context, roomID uint64, target model.RoomStatus, reason string) (model.Room, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Room{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	room, err := s.rooms.GetByIDTx(ctx, tx, roomID, true)
	if err != nil {
		return model.Room{}, err
	}
	activeNow, err := s.bookings.ActiveCoveringRoomTx(ctx, tx, roomID, s.now())
	if err != nil {
		return model.Room{}, err
	}
	updated, change, payload, err := Transition(room, target, reason, activeNow, s.now())
	if err != nil {
		return model.Room{}, err
	}
	if payload == nil {
		// No-op transition: nothing to persist or publish.
		return room, tx.Commit()
	}
	if err := s.rooms.UpdateStatusTx(ctx, tx, roomID, target, room.Version); err != nil {
		return model.Room{}, err
	}
	if err := s.rooms.AppendStatusHistoryTx(ctx, tx, change); err != nil {
		return model.Room{}, err
	}
	n, err := s.seq.NextTx(ctx, tx, room.HotelID)
	if err != nil {
		return model.Room{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Room{}, err
	}
	committed = true

	ev := s.event(queue.EventStatusChanged, room.HotelID, n)
	ev.Status = payload
	s.publish([]queue.ChangeEvent{ev})
	updated.Version = room.Version + 1
	return updated, nil
}

// ReserveOnce is one atomic check-then-act reservation attempt.  The
// type's room rows are locked first, serializing all writers contending
// for the same (hotel, room type); availability is then re-validated
// inside the same transaction, never from a cache.
func (s *Store) ReserveOnce(ctx context.Context, req ReserveRequest) (*ReservationResult, error) {
	hotel, err := s.hotels.GetByID(ctx, req.HotelID)
	if err != nil {
		return nil, err
	}
	basePrices := map[model.RoomType]uint32{}
	cfg, err := s.hotels.RoomTypeConfig(ctx, req.HotelID)
	if err != nil {
		return nil, err
	}
	for _, rt := range cfg {
		basePrices[rt.RoomType] = rt.BasePriceCents
	}

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

	// Contention anchor: every reserve for this (hotel, type) blocks here
	// until the previous writer commits.
	rooms, err := s.rooms.ListByHotelTx(ctx, tx, req.HotelID, req.RoomType, true)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, &ValidationError{Field: "room_type", Reason: "is not offered by this hotel"}
	}
	usable := UsableRooms(rooms)
	items, err := s.bookings.ActiveOverlappingTx(ctx, tx, req.HotelID, req.RoomType, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	available := len(usable) - len(items)
	if available < 0 {
		available = 0
	}
	if available < req.Quantity {
		return nil, &ConflictError{
			HotelID:   req.HotelID,
			RoomType:  req.RoomType,
			Requested: req.Quantity,
			Available: available,
		}
	}

	base := basePrices[req.RoomType]
	if base == 0 {
		base = usable[0].BasePriceCents
	}
	prevLevel := ClassifyDemand(len(items), len(usable))
	newLevel := ClassifyDemand(len(items)+req.Quantity, len(usable))
	price := AdjustedPrice(base, prevLevel, hotel.Category)

	ref := uuid.NewString()
	toInsert := make([]model.BookingLineItem, req.Quantity)
	for i := range toInsert {
		toInsert[i] = model.BookingLineItem{
			BookingRef: ref,
			HotelID:    req.HotelID,
			RoomType:   req.RoomType,
			CheckIn:    req.CheckIn,
			CheckOut:   req.CheckOut,
			Status:     model.LineItemPending,
			PriceCents: price,
		}
	}
	inserted, err := s.bookings.InsertItemsTx(ctx, tx, toInsert)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, len(inserted))
	for i, it := range inserted {
		ids[i] = it.ID
	}

	n, err := s.seq.NextTx(ctx, tx, req.HotelID)
	if err != nil {
		return nil, err
	}
	booked := s.event(queue.EventBookingCreated, req.HotelID, n)
	booked.Booking = &queue.BookingPayload{
		BookingRef:  ref,
		RoomType:    req.RoomType,
		CheckIn:     req.CheckIn,
		CheckOut:    req.CheckOut,
		LineItemIDs: ids,
	}
	events := []queue.ChangeEvent{booked}
	if newLevel != prevLevel {
		pn, err := s.seq.NextTx(ctx, tx, req.HotelID)
		if err != nil {
			return nil, err
		}
		priced := s.event(queue.EventPriceChanged, req.HotelID, pn)
		priced.Price = &queue.PricePayload{
			RoomType:   req.RoomType,
			CheckIn:    req.CheckIn,
			CheckOut:   req.CheckOut,
			FromDemand: prevLevel,
			ToDemand:   newLevel,
			PriceCents: AdjustedPrice(base, newLevel, hotel.Category),
		}
		events = append(events, priced)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	s.publish(events)

	return &ReservationResult{
		BookingRef:  ref,
		LineItemIDs: ids,
		PriceCents:  price,
		DemandLevel: prevLevel,
		Available:   available - req.Quantity,
	}, nil
}

// CancelOnce releases the given line items in one transaction.  Already
// inactive items are skipped, making cancellation idempotent.  Assigned
// rooms whose stay covered now drop back to AVAILABLE through the state
// machine once no other active stay covers them.
func (s *Store) CancelOnce(ctx context.Context, ids []uint64) (*CancelResult, error) {
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
	items, err := s.bookings.ItemsByIDsTx(ctx, tx, ids, true)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, repository.ErrBookingNotFound
	}
	active := make([]model.BookingLineItem, 0, len(items))
	activeIDs := make([]uint64, 0, len(items))
	for _, it := range items {
		if it.Status.Active() {
			active = append(active, it)
			activeIDs = append(activeIDs, it.ID)
		}
	}
	if len(active) == 0 {
		return &CancelResult{Cancelled: []uint64{}}, tx.Commit()
	}
	if _, err := s.bookings.UpdateStatusTx(ctx, tx, activeIDs, model.LineItemCancelled); err != nil {
		return nil, err
	}

	var events []queue.ChangeEvent
	now := s.now()
	for _, it := range active {
		if it.RoomID == nil || !it.Covers(now) {
			continue
		}
		room, err := s.rooms.GetByIDTx(ctx, tx, *it.RoomID, true)
		if err != nil {
			return nil, err
		}
		if room.Status != model.RoomOccupied {
			continue
		}
		stillActive, err := s.bookings.ActiveCoveringRoomTx(ctx, tx, room.ID, now)
		if err != nil {
			return nil, err
		}
		if stillActive {
			continue
		}
		_, change, payload, err := Transition(room, model.RoomAvailable, "booking cancelled", false, now)
		if err != nil {
			return nil, err
		}
		if err := s.rooms.UpdateStatusTx(ctx, tx, room.ID, model.RoomAvailable, room.Version); err != nil {
			return nil, err
		}
		if err := s.rooms.AppendStatusHistoryTx(ctx, tx, change); err != nil {
			return nil, err
		}
		n, err := s.seq.NextTx(ctx, tx, room.HotelID)
		if err != nil {
			return nil, err
		}
		ev := s.event(queue.EventStatusChanged, room.HotelID, n)
		ev.Status = payload
		events = append(events, ev)
	}

	for _, group := range groupItems(active) {
		n, err := s.seq.NextTx(ctx, tx, group.hotelID)
		if err != nil {
			return nil, err
		}
		ev := s.event(queue.EventBookingCancelled, group.hotelID, n)
		ev.Booking = group.payload
		events = append(events, ev)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	s.publish(events)
	return &CancelResult{Cancelled: activeIDs}, nil
}

// bookingGroup pairs a per-booking payload with its hotel for sequence
// allocation.
type bookingGroup struct {
	hotelID uint64
	payload *queue.BookingPayload
}

// groupItems folds line items into one BookingPayload per booking
// reference, preserving first-seen order.
func groupItems(items []model.BookingLineItem) []bookingGroup {
	var order []string
	byRef := map[string]*bookingGroup{}
	for _, it := range items {
		g, ok := byRef[it.BookingRef]
		if !ok {
			g = &bookingGroup{
				hotelID: it.HotelID,
				payload: &queue.BookingPayload{
					BookingRef: it.BookingRef,
					RoomType:   it.RoomType,
					CheckIn:    it.CheckIn,
					CheckOut:   it.CheckOut,
				},
			}
			byRef[it.BookingRef] = g
			order = append(order, it.BookingRef)
		}
		g.payload.LineItemIDs = append(g.payload.LineItemIDs, it.ID)
	}
	out := make([]bookingGroup, len(order))
	for i, ref := range order {
		out[i] = *byRef[ref]
	}
	return out
}
