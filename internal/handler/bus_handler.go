package handler

import (
	"net/http"
	"time"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"github.com/Faheem12005/pathable-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type BusHandler struct {
	svc service.InventoryService
	now func() time.Time
}

func NewBusHandler(svc service.InventoryService) *BusHandler {
	return &BusHandler{svc: svc, now: time.Now}
}

func (h *BusHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/buses", h.ListBuses)
	g.GET("/buses/:id", h.GetBus)
}

func (h *BusHandler) ListBuses(c echo.Context) error {
	buses, err := h.svc.ListBuses(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, buses)
}

// GetBus shows the seat map with the riders booked for ?date=, today by default.
func (h *BusHandler) GetBus(c echo.Context) error {
	if err := validateIDs("bus id", c.Param("id")); err != nil {
		return err
	}
	date := models.ServiceDate(h.now())
	if q := c.QueryParam("date"); q != "" {
		d, err := parseDateParam(q)
		if err != nil {
			return err
		}
		date = d
	}

	bus, err := h.svc.GetBus(c.Request().Context(), c.Param("id"), date)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, bus)
}
