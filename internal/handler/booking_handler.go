package handler

import (
	"net/http"

	"github.com/Faheem12005/pathable-backend/internal/dto"
	"github.com/Faheem12005/pathable-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type BookingHandler struct {
	individual service.IndividualBookingService
	group      service.GroupBookingService
}

func NewBookingHandler(individual service.IndividualBookingService, group service.GroupBookingService) *BookingHandler {
	return &BookingHandler{individual: individual, group: group}
}

func (h *BookingHandler) RegisterRoutes(g *echo.Group) {
	bookings := g.Group("/bookings")
	bookings.POST("/individual", h.BookIndividual)
	bookings.POST("/group", h.BookGroup)
}

func (h *BookingHandler) BookIndividual(c echo.Context) error {
	var req dto.IndividualBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.UserID == "" || req.BusID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id and bus_id are required")
	}
	if err := validateIDs("user_id", req.UserID, "bus_id", req.BusID); err != nil {
		return err
	}
	date, err := parseDateParam(req.Date)
	if err != nil {
		return err
	}

	booking, err := h.individual.BookIndividual(c.Request().Context(), req.UserID, req.BusID, date)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) BookGroup(c echo.Context) error {
	var req dto.GroupBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.GroupID == "" || req.BusID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "group_id and bus_id are required")
	}
	if err := validateIDs("group_id", req.GroupID, "bus_id", req.BusID); err != nil {
		return err
	}
	date, err := parseDateParam(req.Date)
	if err != nil {
		return err
	}

	result, err := h.group.BookGroup(c.Request().Context(), req.GroupID, req.BusID, date)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, result)
}
