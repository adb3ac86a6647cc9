package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-inventory/internal/cache"
	"github.com/iliyamo/hotel-room-inventory/internal/model"
	"github.com/iliyamo/hotel-room-inventory/internal/service"
)

const dateLayout = "2006-01-02"

// AvailabilityHandler answers availability searches.  Reads go through
// the hybrid cache; the cache degrades to direct computation on its own,
// so the handler never cares which tier answered.
type AvailabilityHandler struct {
	Calc  *service.Calculator
	Cache *cache.HybridCache
}

func NewAvailabilityHandler(calc *service.Calculator, hc *cache.HybridCache) *AvailabilityHandler {
	return &AvailabilityHandler{Calc: calc, Cache: hc}
}

// parseStay reads check_in/check_out query params as calendar dates.
func parseStay(c echo.Context) (time.Time, time.Time, error) {
	checkIn, err := time.Parse(dateLayout, c.QueryParam("check_in"))
	if err != nil {
		return time.Time{}, time.Time{}, &service.ValidationError{Field: "check_in", Reason: "must be YYYY-MM-DD"}
	}
	checkOut, err := time.Parse(dateLayout, c.QueryParam("check_out"))
	if err != nil {
		return time.Time{}, time.Time{}, &service.ValidationError{Field: "check_out", Reason: "must be YYYY-MM-DD"}
	}
	return checkIn, checkOut, nil
}

func parseHotelID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, &service.ValidationError{Field: "hotel_id", Reason: "must be a positive integer"}
	}
	return id, nil
}

// GetAvailability handles GET /v1/hotels/:id/availability.
func (h *AvailabilityHandler) GetAvailability(c echo.Context) error {
	hotelID, err := parseHotelID(c)
	if err != nil {
		return writeError(c, err)
	}
	checkIn, checkOut, err := parseStay(c)
	if err != nil {
		return writeError(c, err)
	}
	q := service.AvailabilityQuery{
		HotelID:  hotelID,
		RoomType: model.RoomType(c.QueryParam("room_type")),
		CheckIn:  checkIn,
		CheckOut: checkOut,
	}
	if occ := c.QueryParam("min_occupancy"); occ != "" {
		n, err := strconv.ParseUint(occ, 10, 8)
		if err != nil {
			return writeError(c, &service.ValidationError{Field: "min_occupancy", Reason: "must be a small positive integer"})
		}
		q.MinOccupancy = uint8(n)
	}

	snap, err := h.Cache.GetOrCompute(c.Request().Context(), q, func(ctx context.Context) (*model.AvailabilitySnapshot, error) {
		return h.Calc.Compute(ctx, q)
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// GetCandidates handles GET /v1/hotels/:id/candidates: the concrete
// rooms a stay could land in, in assignment order.
func (h *AvailabilityHandler) GetCandidates(c echo.Context) error {
	hotelID, err := parseHotelID(c)
	if err != nil {
		return writeError(c, err)
	}
	checkIn, checkOut, err := parseStay(c)
	if err != nil {
		return writeError(c, err)
	}
	roomType := model.RoomType(c.QueryParam("room_type"))
	if !model.ValidRoomType(roomType) {
		return writeError(c, &service.ValidationError{Field: "room_type", Reason: "is unknown"})
	}
	rooms, err := h.Calc.Candidates(c.Request().Context(), hotelID, roomType, checkIn, checkOut)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rooms})
}
