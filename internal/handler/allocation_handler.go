package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Faheem12005/pathable-backend/internal/dto"
	"github.com/Faheem12005/pathable-backend/internal/models"
	"github.com/Faheem12005/pathable-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type AllocationHandler struct {
	engine service.AllocationEngine
	now    func() time.Time
}

func NewAllocationHandler(engine service.AllocationEngine) *AllocationHandler {
	return &AllocationHandler{engine: engine, now: time.Now}
}

func (h *AllocationHandler) RegisterRoutes(g *echo.Group) {
	runs := g.Group("/allocation/runs")
	runs.POST("", h.RunAllocation)
	runs.GET("", h.ListRuns)
	runs.GET("/:date", h.GetRun)
}

// RunAllocation runs the allocation for ?date=, tomorrow when omitted.
func (h *AllocationHandler) RunAllocation(c echo.Context) error {
	date := models.ServiceDate(h.now()).AddDate(0, 0, 1)
	if q := c.QueryParam("date"); q != "" {
		d, err := parseDateParam(q)
		if err != nil {
			return err
		}
		date = d
	}

	stats, err := h.engine.RunAllocation(c.Request().Context(), date)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *AllocationHandler) ListRuns(c echo.Context) error {
	limit := 0
	if q := c.QueryParam("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}

	runs, err := h.engine.ListRuns(c.Request().Context(), limit)
	if err != nil {
		return toHTTPError(err)
	}
	resp := make([]dto.RunResponse, len(runs))
	for i := range runs {
		resp[i] = dto.ToRunResponse(&runs[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AllocationHandler) GetRun(c echo.Context) error {
	date, err := parseDateParam(c.Param("date"))
	if err != nil {
		return err
	}
	run, err := h.engine.GetRun(c.Request().Context(), date)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToRunResponse(run))
}
