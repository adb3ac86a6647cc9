package service

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/hotel-room-inventory/internal/model"
)

// InventoryReader is the read-only room access the calculator needs.
// *repository.RoomRepo satisfies it; tests provide in-memory fakes.
type InventoryReader interface {
	ListByHotel(ctx context.Context, hotelID uint64, roomType model.RoomType) ([]model.Room, error)
}

// BookingReader is the read-only booking access the calculator needs.
// *repository.BookingRepo satisfies it.
type BookingReader interface {
	ActiveOverlapping(ctx context.Context, hotelID uint64, roomType model.RoomType, checkIn, checkOut time.Time) ([]model.BookingLineItem, error)
}

// HotelConfig is the read-only hotel configuration provider.
// *repository.HotelRepo satisfies it.
type HotelConfig interface {
	GetByID(ctx context.Context, id uint64) (model.Hotel, error)
	RoomTypeConfig(ctx context.Context, hotelID uint64) ([]model.HotelRoomType, error)
}

// AvailabilityQuery describes one availability computation.  RoomType
// empty means all configured types.  MinOccupancy, when non-zero,
// restricts candidates to rooms sleeping at least that many guests.
type AvailabilityQuery struct {
	HotelID      uint64
	RoomType     model.RoomType
	CheckIn      time.Time
	CheckOut     time.Time
	MinOccupancy uint8
}

// Calculator computes free-unit counts, candidate rooms and
// demand-adjusted prices for a date range.  It is a pure read: it never
// mutates inventory and is safe to call concurrently without
// coordination.  The reservation write path never trusts its output; the
// concurrency guard re-validates inside the store transaction.
type Calculator struct {
	rooms    InventoryReader
	bookings BookingReader
	hotels   HotelConfig
	ttl      time.Duration
	now      func() time.Time
}

// NewCalculator constructs a Calculator.  ttl is stamped on every
// snapshot so the cache knows how long it may serve it.
func NewCalculator(rooms InventoryReader, bookings BookingReader, hotels HotelConfig, ttl time.Duration) *Calculator {
	return &Calculator{rooms: rooms, bookings: bookings, hotels: hotels, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// validateStay rejects malformed date ranges before any store access.
func validateStay(checkIn, checkOut time.Time) error {
	if checkIn.IsZero() || checkOut.IsZero() {
		return &ValidationError{Field: "check_in/check_out", Reason: "is required"}
	}
	if !checkIn.Before(checkOut) {
		return &ValidationError{Field: "check_out", Reason: "must be after check_in"}
	}
	return nil
}

// Compute answers an availability query with a fresh snapshot.
func (c *Calculator) Compute(ctx context.Context, q AvailabilityQuery) (*model.AvailabilitySnapshot, error) {
	if err := validateStay(q.CheckIn, q.CheckOut); err != nil {
		return nil, err
	}
	if q.RoomType != "" && !model.ValidRoomType(q.RoomType) {
		return nil, &ValidationError{Field: "room_type", Reason: "is unknown"}
	}
	hotel, err := c.hotels.GetByID(ctx, q.HotelID)
	if err != nil {
		return nil, err
	}
	basePrices := map[model.RoomType]uint32{}
	cfg, err := c.hotels.RoomTypeConfig(ctx, q.HotelID)
	if err != nil {
		return nil, err
	}
	for _, rt := range cfg {
		basePrices[rt.RoomType] = rt.BasePriceCents
	}
	rooms, err := c.rooms.ListByHotel(ctx, q.HotelID, q.RoomType)
	if err != nil {
		return nil, err
	}
	items, err := c.bookings.ActiveOverlapping(ctx, q.HotelID, q.RoomType, q.CheckIn, q.CheckOut)
	if err != nil {
		return nil, err
	}

	byType := map[model.RoomType][]model.Room{}
	for _, rm := range rooms {
		if q.MinOccupancy > 0 && rm.MaxOccupancy < q.MinOccupancy {
			continue
		}
		byType[rm.Type] = append(byType[rm.Type], rm)
	}
	itemsByType := map[model.RoomType][]model.BookingLineItem{}
	for _, it := range items {
		itemsByType[it.RoomType] = append(itemsByType[it.RoomType], it)
	}

	types := make([]model.RoomType, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	perType := make([]model.TypeAvailability, 0, len(types))
	for _, t := range types {
		usable := UsableRooms(byType[t])
		booked := itemsByType[t]
		candidates := CandidateRooms(usable, booked, q.CheckIn, q.CheckOut)
		available := len(usable) - len(booked)
		if available < 0 {
			available = 0
		}
		base := basePrices[t]
		if base == 0 && len(usable) > 0 {
			base = usable[0].BasePriceCents
		}
		level := ClassifyDemand(len(booked), len(usable))
		current := AdjustedPrice(base, level, hotel.Category)
		ids := make([]uint64, len(candidates))
		for i, rm := range candidates {
			ids[i] = rm.ID
		}
		perType = append(perType, model.TypeAvailability{
			RoomType:          t,
			AvailableCount:    available,
			CandidateRooms:    ids,
			CurrentPriceCents: current,
			PriceChangeCents:  int64(current) - int64(base),
			DemandLevel:       level,
		})
	}
	return &model.AvailabilitySnapshot{
		HotelID:    q.HotelID,
		PerType:    perType,
		ComputedAt: c.now(),
		TTL:        c.ttl,
	}, nil
}

// Candidates returns the concrete rooms of a type with no interval
// conflict over [checkIn, checkOut), in the deterministic floor/number
// order the assignment engine's adjacency heuristic relies on.
func (c *Calculator) Candidates(ctx context.Context, hotelID uint64, roomType model.RoomType, checkIn, checkOut time.Time) ([]model.Room, error) {
	if err := validateStay(checkIn, checkOut); err != nil {
		return nil, err
	}
	rooms, err := c.rooms.ListByHotel(ctx, hotelID, roomType)
	if err != nil {
		return nil, err
	}
	items, err := c.bookings.ActiveOverlapping(ctx, hotelID, roomType, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	return CandidateRooms(UsableRooms(rooms), items, checkIn, checkOut), nil
}

// UsableRooms filters out rooms that are unavailable for the whole
// interval regardless of bookings (maintenance and out-of-order).  An
// OCCUPIED room stays usable for future intervals; its current stay
// surfaces as an interval conflict instead.
func UsableRooms(rooms []model.Room) []model.Room {
	out := make([]model.Room, 0, len(rooms))
	for _, rm := range rooms {
		if rm.Status == model.RoomMaintenance || rm.Status == model.RoomOutOfOrder {
			continue
		}
		out = append(out, rm)
	}
	return out
}

// CandidateRooms returns the rooms with no conflicting assigned line
// item over [checkIn, checkOut), preserving the caller's room order.
// Unassigned line items consume capacity but block no particular room,
// so they do not remove candidates.
func CandidateRooms(rooms []model.Room, items []model.BookingLineItem, checkIn, checkOut time.Time) []model.Room {
	conflicting := map[uint64]bool{}
	for _, it := range items {
		if it.RoomID != nil && it.Overlaps(checkIn, checkOut) {
			conflicting[*it.RoomID] = true
		}
	}
	out := make([]model.Room, 0, len(rooms))
	for _, rm := range rooms {
		if !conflicting[rm.ID] {
			out = append(out, rm)
		}
	}
	return out
}
