package handler

import (
	"net/http"

	"github.com/Faheem12005/pathable-backend/internal/dto"
	"github.com/Faheem12005/pathable-backend/internal/models"
	"github.com/Faheem12005/pathable-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type LockHandler struct {
	gate service.LockGate
}

func NewLockHandler(gate service.LockGate) *LockHandler {
	return &LockHandler{gate: gate}
}

func (h *LockHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/locks/:date", h.GetLock)
	g.PUT("/locks/:date", h.LockDate)
}

func (h *LockHandler) GetLock(c echo.Context) error {
	date, err := parseDateParam(c.Param("date"))
	if err != nil {
		return err
	}
	locked, err := h.gate.IsLocked(c.Request().Context(), date)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.LockResponse{Date: models.FormatDate(date), IsLocked: locked})
}

// LockDate is idempotent; locking an already locked date succeeds.
func (h *LockHandler) LockDate(c echo.Context) error {
	date, err := parseDateParam(c.Param("date"))
	if err != nil {
		return err
	}
	if err := h.gate.LockDate(c.Request().Context(), date); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.LockResponse{Date: models.FormatDate(date), IsLocked: true})
}
