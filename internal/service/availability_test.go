package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-room-inventory/internal/model"
)

// fakeInventory and friends back the calculator in-memory so the tests
// exercise the computation without a database.

type fakeInventory struct {
	rooms []model.Room
	calls int
}

func (f *fakeInventory) ListByHotel(_ context.Context, hotelID uint64, roomType model.RoomType) ([]model.Room, error) {
	f.calls++
	out := []model.Room{}
	for _, rm := range f.rooms {
		if rm.HotelID != hotelID {
			continue
		}
		if roomType != "" && rm.Type != roomType {
			continue
		}
		out = append(out, rm)
	}
	return out, nil
}

type fakeBookings struct {
	items []model.BookingLineItem
}

func (f *fakeBookings) ActiveOverlapping(_ context.Context, hotelID uint64, roomType model.RoomType, checkIn, checkOut time.Time) ([]model.BookingLineItem, error) {
	out := []model.BookingLineItem{}
	for _, it := range f.items {
		if it.HotelID != hotelID || !it.Status.Active() {
			continue
		}
		if roomType != "" && it.RoomType != roomType {
			continue
		}
		if it.Overlaps(checkIn, checkOut) {
			out = append(out, it)
		}
	}
	return out, nil
}

type fakeHotels struct {
	hotel model.Hotel
	cfg   []model.HotelRoomType
}

func (f *fakeHotels) GetByID(_ context.Context, id uint64) (model.Hotel, error) {
	return f.hotel, nil
}

func (f *fakeHotels) RoomTypeConfig(_ context.Context, hotelID uint64) ([]model.HotelRoomType, error) {
	return f.cfg, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func room(id uint64, number uint32, floor int32, t model.RoomType, status model.RoomStatus) model.Room {
	return model.Room{
		ID: id, HotelID: 1, Number: number, Floor: floor,
		Type: t, Status: status, MaxOccupancy: 2, BasePriceCents: 10000,
	}
}

func item(id uint64, t model.RoomType, roomID *uint64, in, out time.Time) model.BookingLineItem {
	return model.BookingLineItem{
		ID: id, BookingRef: "ref", HotelID: 1, RoomType: t, RoomID: roomID,
		CheckIn: in, CheckOut: out, Status: model.LineItemConfirmed,
	}
}

func newTestCalculator(inv *fakeInventory, bk *fakeBookings) *Calculator {
	hotels := &fakeHotels{
		hotel: model.Hotel{ID: 1, Category: model.CategoryStandard},
		cfg: []model.HotelRoomType{
			{HotelID: 1, RoomType: model.RoomTypeDouble, BasePriceCents: 10000},
		},
	}
	return NewCalculator(inv, bk, hotels, 30*time.Second)
}

func TestComputeCountsAndCandidates(t *testing.T) {
	r201 := uint64(2)
	inv := &fakeInventory{rooms: []model.Room{
		room(1, 101, 1, model.RoomTypeDouble, model.RoomAvailable),
		room(2, 201, 2, model.RoomTypeDouble, model.RoomAvailable),
		room(3, 202, 2, model.RoomTypeDouble, model.RoomMaintenance),
	}}
	bk := &fakeBookings{items: []model.BookingLineItem{
		item(10, model.RoomTypeDouble, &r201, date(2026, 9, 1), date(2026, 9, 5)),
	}}
	calc := newTestCalculator(inv, bk)

	snap, err := calc.Compute(context.Background(), AvailabilityQuery{
		HotelID: 1, CheckIn: date(2026, 9, 2), CheckOut: date(2026, 9, 4),
	})
	require.NoError(t, err)
	require.Len(t, snap.PerType, 1)

	got := snap.PerType[0]
	assert.Equal(t, model.RoomTypeDouble, got.RoomType)
	// 2 usable rooms (maintenance excluded), 1 overlapping item.
	assert.Equal(t, 1, got.AvailableCount)
	// Room 2 is assigned to the overlapping stay; only room 1 is a candidate.
	assert.Equal(t, []uint64{1}, got.CandidateRooms)
	// 1/2 booked is NORMAL demand, so no price change.
	assert.Equal(t, model.DemandNormal, got.DemandLevel)
	assert.Equal(t, uint32(10000), got.CurrentPriceCents)
	assert.Equal(t, int64(0), got.PriceChangeCents)
	assert.Equal(t, 30*time.Second, snap.TTL)
}

func TestComputeUnassignedItemsConsumeCapacityNotRooms(t *testing.T) {
	inv := &fakeInventory{rooms: []model.Room{
		room(1, 101, 1, model.RoomTypeDouble, model.RoomAvailable),
		room(2, 102, 1, model.RoomTypeDouble, model.RoomAvailable),
	}}
	bk := &fakeBookings{items: []model.BookingLineItem{
		item(10, model.RoomTypeDouble, nil, date(2026, 9, 1), date(2026, 9, 5)),
	}}
	calc := newTestCalculator(inv, bk)

	snap, err := calc.Compute(context.Background(), AvailabilityQuery{
		HotelID: 1, CheckIn: date(2026, 9, 1), CheckOut: date(2026, 9, 5),
	})
	require.NoError(t, err)
	require.Len(t, snap.PerType, 1)
	// The unassigned item blocks one unit but no particular room.
	assert.Equal(t, 1, snap.PerType[0].AvailableCount)
	assert.Equal(t, []uint64{1, 2}, snap.PerType[0].CandidateRooms)
}

func TestComputeNonOverlappingStayDoesNotCount(t *testing.T) {
	inv := &fakeInventory{rooms: []model.Room{
		room(1, 101, 1, model.RoomTypeDouble, model.RoomAvailable),
	}}
	bk := &fakeBookings{items: []model.BookingLineItem{
		// Checkout day equals the queried check-in: back-to-back, no overlap.
		item(10, model.RoomTypeDouble, nil, date(2026, 9, 1), date(2026, 9, 3)),
	}}
	calc := newTestCalculator(inv, bk)

	snap, err := calc.Compute(context.Background(), AvailabilityQuery{
		HotelID: 1, CheckIn: date(2026, 9, 3), CheckOut: date(2026, 9, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, snap.PerType[0].AvailableCount)
}

func TestComputeMinOccupancyFilters(t *testing.T) {
	inv := &fakeInventory{rooms: []model.Room{
		room(1, 101, 1, model.RoomTypeDouble, model.RoomAvailable),
	}}
	calc := newTestCalculator(inv, &fakeBookings{})

	snap, err := calc.Compute(context.Background(), AvailabilityQuery{
		HotelID: 1, CheckIn: date(2026, 9, 1), CheckOut: date(2026, 9, 2), MinOccupancy: 4,
	})
	require.NoError(t, err)
	assert.Empty(t, snap.PerType)
}

func TestComputeRejectsBadInput(t *testing.T) {
	calc := newTestCalculator(&fakeInventory{}, &fakeBookings{})

	var vErr *ValidationError
	_, err := calc.Compute(context.Background(), AvailabilityQuery{HotelID: 1})
	require.ErrorAs(t, err, &vErr)

	_, err = calc.Compute(context.Background(), AvailabilityQuery{
		HotelID: 1, CheckIn: date(2026, 9, 5), CheckOut: date(2026, 9, 1),
	})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "check_out", vErr.Field)

	_, err = calc.Compute(context.Background(), AvailabilityQuery{
		HotelID: 1, RoomType: "PENTHOUSE",
		CheckIn: date(2026, 9, 1), CheckOut: date(2026, 9, 5),
	})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "room_type", vErr.Field)
}

func TestComputeIsReadOnlyAndRepeatable(t *testing.T) {
	inv := &fakeInventory{rooms: []model.Room{
		room(1, 101, 1, model.RoomTypeDouble, model.RoomAvailable),
	}}
	calc := newTestCalculator(inv, &fakeBookings{})
	q := AvailabilityQuery{HotelID: 1, CheckIn: date(2026, 9, 1), CheckOut: date(2026, 9, 2)}

	first, err := calc.Compute(context.Background(), q)
	require.NoError(t, err)
	second, err := calc.Compute(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, first.PerType, second.PerType)
}

func TestCandidatesOrderedByFloorThenNumber(t *testing.T) {
	inv := &fakeInventory{rooms: []model.Room{
		// The repository returns rooms ordered by floor, room_number; the
		// fake mirrors that contract.
		room(1, 102, 1, model.RoomTypeDouble, model.RoomAvailable),
		room(2, 201, 2, model.RoomTypeDouble, model.RoomAvailable),
		room(3, 202, 2, model.RoomTypeDouble, model.RoomAvailable),
	}}
	calc := newTestCalculator(inv, &fakeBookings{})

	rooms, err := calc.Candidates(context.Background(), 1, model.RoomTypeDouble, date(2026, 9, 1), date(2026, 9, 2))
	require.NoError(t, err)
	ids := make([]uint64, len(rooms))
	for i, rm := range rooms {
		ids[i] = rm.ID
	}
	assert.Equal(t, []uint64{1, 2, 3}, ids)
}
