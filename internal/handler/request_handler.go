package handler

import (
	"net/http"
	"time"

	"github.com/Faheem12005/pathable-backend/internal/dto"
	"github.com/Faheem12005/pathable-backend/internal/models"
	"github.com/Faheem12005/pathable-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type RequestHandler struct {
	svc service.RequestService
	now func() time.Time
}

func NewRequestHandler(svc service.RequestService) *RequestHandler {
	return &RequestHandler{svc: svc, now: time.Now}
}

func (h *RequestHandler) RegisterRoutes(g *echo.Group) {
	users := g.Group("/users/:id")
	users.POST("/requests", h.UpsertRequest)
	users.GET("/requests", h.ListRequests)
	users.DELETE("/requests/:date", h.CancelRequest)
	users.GET("/assignment/:date", h.GetAssignment)
}

func (h *RequestHandler) UpsertRequest(c echo.Context) error {
	userID := c.Param("id")
	if err := validateIDs("user id", userID); err != nil {
		return err
	}
	var req dto.UpsertRequestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	date, err := parseDateParam(req.Date)
	if err != nil {
		return err
	}

	var loc *service.Location
	if req.Location != nil {
		if req.Location.Lat == nil || req.Location.Lng == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "location needs both lat and lng")
		}
		loc = &service.Location{Lat: *req.Location.Lat, Lng: *req.Location.Lng}
	}

	saved, err := h.svc.Upsert(c.Request().Context(), userID, date, loc)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToRequestResponse(saved))
}

// ListRequests returns the user's requests from ?from=, today by default.
func (h *RequestHandler) ListRequests(c echo.Context) error {
	if err := validateIDs("user id", c.Param("id")); err != nil {
		return err
	}
	from := models.ServiceDate(h.now())
	if q := c.QueryParam("from"); q != "" {
		d, err := parseDateParam(q)
		if err != nil {
			return err
		}
		from = d
	}

	reqs, err := h.svc.List(c.Request().Context(), c.Param("id"), from)
	if err != nil {
		return toHTTPError(err)
	}
	resp := make([]dto.RequestResponse, len(reqs))
	for i := range reqs {
		resp[i] = dto.ToRequestResponse(&reqs[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *RequestHandler) CancelRequest(c echo.Context) error {
	if err := validateIDs("user id", c.Param("id")); err != nil {
		return err
	}
	date, err := parseDateParam(c.Param("date"))
	if err != nil {
		return err
	}
	if err := h.svc.Cancel(c.Request().Context(), c.Param("id"), date); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *RequestHandler) GetAssignment(c echo.Context) error {
	if err := validateIDs("user id", c.Param("id")); err != nil {
		return err
	}
	date, err := parseDateParam(c.Param("date"))
	if err != nil {
		return err
	}
	a, err := h.svc.Assignment(c.Request().Context(), c.Param("id"), date)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}
