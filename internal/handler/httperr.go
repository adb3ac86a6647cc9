package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-inventory/internal/repository"
	"github.com/iliyamo/hotel-room-inventory/internal/service"
)

// validate checks request DTO struct tags before any service call.
var validate = validator.New()

// writeError maps a service or repository error onto the wire.  The
// error taxonomy is closed, so every branch here is a known failure
// mode; anything unrecognized is a 500.
func writeError(c echo.Context, err error) error {
	var (
		vErr   *service.ValidationError
		cErr   *service.ConflictError
		tErr   *service.InvalidTransitionError
		bErr   *service.ActiveBookingConflictError
		aErr   *service.AssignmentError
		sErr   *service.TransientStoreError
		fldErr validator.ValidationErrors
	)
	switch {
	case errors.As(err, &vErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": vErr.Error()})
	case errors.As(err, &fldErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fldErr.Error()})
	case errors.As(err, &cErr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     cErr.Error(),
			"room_type": cErr.RoomType,
			"requested": cErr.Requested,
			"available": cErr.Available,
		})
	case errors.As(err, &tErr):
		return c.JSON(http.StatusConflict, echo.Map{"error": tErr.Error()})
	case errors.As(err, &bErr):
		return c.JSON(http.StatusConflict, echo.Map{"error": bErr.Error()})
	case errors.As(err, &aErr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":         aErr.Error(),
			"unsatisfiable": aErr.Unsatisfiable,
		})
	case errors.As(err, &sErr):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store busy, retry later"})
	case errors.Is(err, repository.ErrHotelNotFound),
		errors.Is(err, repository.ErrRoomNotFound),
		errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrDuplicateRoom):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
