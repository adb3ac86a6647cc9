package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-room-inventory/internal/cache"
	"github.com/iliyamo/hotel-room-inventory/internal/config"
	"github.com/iliyamo/hotel-room-inventory/internal/model"
	"github.com/iliyamo/hotel-room-inventory/internal/service"
)

type staticInventory struct {
	rooms []model.Room
	calls int
}

func (f *staticInventory) ListByHotel(context.Context, uint64, model.RoomType) ([]model.Room, error) {
	f.calls++
	return f.rooms, nil
}

type noBookings struct{}

func (noBookings) ActiveOverlapping(context.Context, uint64, model.RoomType, time.Time, time.Time) ([]model.BookingLineItem, error) {
	return nil, nil
}

type staticHotel struct{}

func (staticHotel) GetByID(context.Context, uint64) (model.Hotel, error) {
	return model.Hotel{ID: 1, Category: model.CategoryStandard}, nil
}

func (staticHotel) RoomTypeConfig(context.Context, uint64) ([]model.HotelRoomType, error) {
	return []model.HotelRoomType{{HotelID: 1, RoomType: model.RoomTypeDouble, BasePriceCents: 10000}}, nil
}

func newAvailabilityHandler(inv *staticInventory) *AvailabilityHandler {
	calc := service.NewCalculator(inv, noBookings{}, staticHotel{}, 30*time.Second)
	hc := cache.New(config.CacheConfig{Enabled: true, TTL: 30 * time.Second, LocalTTL: 30 * time.Second, Prefix: "avail"}, nil)
	return NewAvailabilityHandler(calc, hc)
}

func getAvailability(t *testing.T, h *AvailabilityHandler, hotelID, rawQuery string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/hotels/"+hotelID+"/availability?"+rawQuery, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(hotelID)
	require.NoError(t, h.GetAvailability(c))
	return rec
}

func TestGetAvailabilityReturnsSnapshot(t *testing.T) {
	inv := &staticInventory{rooms: []model.Room{
		{ID: 1, HotelID: 1, Number: 101, Floor: 1, Type: model.RoomTypeDouble, Status: model.RoomAvailable, MaxOccupancy: 2},
	}}
	h := newAvailabilityHandler(inv)

	rec := getAvailability(t, h, "1", "check_in=2026-09-01&check_out=2026-09-05")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap model.AvailabilitySnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, uint64(1), snap.HotelID)
	require.Len(t, snap.PerType, 1)
	assert.Equal(t, 1, snap.PerType[0].AvailableCount)
	assert.Equal(t, []uint64{1}, snap.PerType[0].CandidateRooms)
}

func TestGetAvailabilitySecondReadHitsCache(t *testing.T) {
	inv := &staticInventory{rooms: []model.Room{
		{ID: 1, HotelID: 1, Number: 101, Type: model.RoomTypeDouble, Status: model.RoomAvailable, MaxOccupancy: 2},
	}}
	h := newAvailabilityHandler(inv)

	for i := 0; i < 2; i++ {
		rec := getAvailability(t, h, "1", "check_in=2026-09-01&check_out=2026-09-05")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 1, inv.calls)
}

func TestGetAvailabilityRejectsBadInput(t *testing.T) {
	h := newAvailabilityHandler(&staticInventory{})
	cases := []struct {
		name, hotelID, query string
	}{
		{"bad hotel id", "abc", "check_in=2026-09-01&check_out=2026-09-05"},
		{"missing dates", "1", ""},
		{"bad date format", "1", "check_in=09/01/2026&check_out=2026-09-05"},
		{"inverted range", "1", "check_in=2026-09-05&check_out=2026-09-01"},
		{"bad occupancy", "1", "check_in=2026-09-01&check_out=2026-09-05&min_occupancy=many"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := getAvailability(t, h, tc.hotelID, tc.query)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
