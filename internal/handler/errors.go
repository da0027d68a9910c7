package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"github.com/Faheem12005/pathable-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// toHTTPError maps service errors onto status codes. Anything unrecognised
// is returned as is and rendered as a 500 by the error handler.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, service.ErrDateLocked):
		return echo.NewHTTPError(http.StatusLocked, err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrBusNotFound),
		errors.Is(err, service.ErrGroupNotFound),
		errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, service.ErrRunNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyBooked),
		errors.Is(err, service.ErrRequestAllocated),
		service.IsAllocationFailure(err):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrPastDate):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}

func parseDateParam(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "date is required")
	}
	d, err := models.ParseServiceDate(s)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	return d, nil
}
