package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-inventory/internal/model"
	"github.com/iliyamo/hotel-room-inventory/internal/service"
)

// RoomHandler exposes staff-facing room inventory management.  All
// mutations go through the store so that every change carries its
// sequence number and event.
type RoomHandler struct {
	Store *service.Store
}

func NewRoomHandler(store *service.Store) *RoomHandler {
	return &RoomHandler{Store: store}
}

// ----- DTOs -----

type createRoomReq struct {
	Number         uint32 `json:"room_number" validate:"required"`
	RoomType       string `json:"room_type" validate:"required"`
	Floor          int32  `json:"floor"`
	BasePriceCents uint32 `json:"base_price_cents"`
	MaxOccupancy   uint8  `json:"max_occupancy" validate:"required,min=1,max=10"`
}

type changeStatusReq struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason"`
}

func parseRoomID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, &service.ValidationError{Field: "room_id", Reason: "must be a positive integer"}
	}
	return id, nil
}

// Create handles POST /v1/hotels/:id/rooms.
func (h *RoomHandler) Create(c echo.Context) error {
	hotelID, err := parseHotelID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req createRoomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(&req); err != nil {
		return writeError(c, err)
	}
	room := model.Room{
		HotelID:        hotelID,
		Number:         req.Number,
		Type:           model.RoomType(req.RoomType),
		Floor:          req.Floor,
		BasePriceCents: req.BasePriceCents,
		MaxOccupancy:   req.MaxOccupancy,
	}
	if err := h.Store.CreateRoom(c.Request().Context(), &room); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, room)
}

// List handles GET /v1/hotels/:id/rooms with an optional room_type
// filter.
func (h *RoomHandler) List(c echo.Context) error {
	hotelID, err := parseHotelID(c)
	if err != nil {
		return writeError(c, err)
	}
	roomType := model.RoomType(c.QueryParam("room_type"))
	if roomType != "" && !model.ValidRoomType(roomType) {
		return writeError(c, &service.ValidationError{Field: "room_type", Reason: "is unknown"})
	}
	rooms, err := h.Store.Rooms().ListByHotel(c.Request().Context(), hotelID, roomType)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rooms})
}

// Delete handles DELETE /v1/rooms/:id.  Active bookings on the room are
// cancelled, not orphaned; the response says how the deletion went.
func (h *RoomHandler) Delete(c echo.Context) error {
	roomID, err := parseRoomID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Store.DeleteRoom(c.Request().Context(), roomID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangeStatus handles PATCH /v1/rooms/:id/status.
func (h *RoomHandler) ChangeStatus(c echo.Context) error {
	roomID, err := parseRoomID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req changeStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(&req); err != nil {
		return writeError(c, err)
	}
	room, err := h.Store.ChangeStatus(c.Request().Context(), roomID, model.RoomStatus(req.Status), req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, room)
}

// StatusHistory handles GET /v1/rooms/:id/status-history.
func (h *RoomHandler) StatusHistory(c echo.Context) error {
	roomID, err := parseRoomID(c)
	if err != nil {
		return writeError(c, err)
	}
	history, err := h.Store.Rooms().StatusHistory(c.Request().Context(), roomID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"history": history})
}
