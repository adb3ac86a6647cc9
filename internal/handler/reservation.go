package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-inventory/internal/model"
	"github.com/iliyamo/hotel-room-inventory/internal/service"
)

// ReservationHandler bundles the reservation write path: the
// concurrency guard for reserve/cancel and the assignment engine for
// binding line items to concrete rooms.
type ReservationHandler struct {
	Guard  *service.Guard
	Engine *service.AssignmentEngine
}

func NewReservationHandler(guard *service.Guard, engine *service.AssignmentEngine) *ReservationHandler {
	return &ReservationHandler{Guard: guard, Engine: engine}
}

// ----- DTOs -----

type reserveReq struct {
	HotelID  uint64 `json:"hotel_id" validate:"required"`
	RoomType string `json:"room_type" validate:"required"`
	CheckIn  string `json:"check_in" validate:"required"`
	CheckOut string `json:"check_out" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1,max=20"`
}

type cancelReq struct {
	LineItemIDs []uint64 `json:"line_item_ids" validate:"required,min=1"`
}

type assignReq struct {
	PreferredFloor *int32 `json:"preferred_floor"`
	AdjacentRooms  bool   `json:"adjacent_rooms"`
}

// Reserve handles POST /v1/reservations.  The response is either the
// committed reservation or a 409 carrying the capacity the transaction
// actually saw.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(&req); err != nil {
		return writeError(c, err)
	}
	checkIn, err := time.Parse(dateLayout, req.CheckIn)
	if err != nil {
		return writeError(c, &service.ValidationError{Field: "check_in", Reason: "must be YYYY-MM-DD"})
	}
	checkOut, err := time.Parse(dateLayout, req.CheckOut)
	if err != nil {
		return writeError(c, &service.ValidationError{Field: "check_out", Reason: "must be YYYY-MM-DD"})
	}

	res, err := h.Guard.Reserve(c.Request().Context(), service.ReserveRequest{
		HotelID:  req.HotelID,
		RoomType: model.RoomType(req.RoomType),
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Quantity: req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Cancel handles POST /v1/reservations/cancel.  Cancelling already
// released line items is a no-op, so retries are safe.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	var req cancelReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(&req); err != nil {
		return writeError(c, err)
	}
	res, err := h.Guard.Cancel(c.Request().Context(), req.LineItemIDs)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Assign handles POST /v1/reservations/:ref/assign: bind every
// unassigned line item of the booking to a concrete room.
func (h *ReservationHandler) Assign(c echo.Context) error {
	var req assignReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	res, err := h.Engine.AssignRooms(c.Request().Context(), c.Param("ref"), service.AssignmentPreferences{
		PreferredFloor: req.PreferredFloor,
		AdjacentRooms:  req.AdjacentRooms,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
