package dashboard

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	orch *Orchestrator
}

func NewHandler(orch *Orchestrator) *Handler {
	return &Handler{orch: orch}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard/charts", h.GetCharts)
	api.POST("/dashboard/refresh", h.Refresh)
	api.GET("/dashboard/events", h.ListEvents)
	api.GET("/stats", h.GetStats)
	api.GET("/stats/export", h.ExportStats)
}

func (h *Handler) GetCharts(c echo.Context) error {
	return c.JSON(http.StatusOK, h.orch.ChartState())
}

// Refresh rebuilds the charts, either over an explicit start_date/end_date
// range or over the default trailing range when neither is given.
func (h *Handler) Refresh(c echo.Context) error {
	start := c.QueryParam("start_date")
	end := c.QueryParam("end_date")

	var err error
	var state *ChartState
	switch {
	case start == "" && end == "":
		state, err = h.orch.RefreshDefault(c.Request().Context())
	case start != "" && end != "":
		if !validDate(start) || !validDate(end) {
			return echo.NewHTTPError(http.StatusBadRequest, "start_date and end_date must be YYYY-MM-DD dates")
		}
		state, err = h.orch.Refresh(c.Request().Context(), start, end)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "start_date and end_date must be given together")
	}
	if err != nil {
		if errors.Is(err, ErrStaleRefresh) {
			return echo.NewHTTPError(http.StatusConflict, "refresh superseded by a newer one")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "failed to refresh charts")
	}
	return c.JSON(http.StatusOK, state)
}

func (h *Handler) ListEvents(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}
	return c.JSON(http.StatusOK, map[string]any{
		"events": h.orch.Events(limit),
		"stale":  h.orch.Stale(),
	})
}

func (h *Handler) GetStats(c echo.Context) error {
	start := c.QueryParam("start_date")
	end := c.QueryParam("end_date")
	if !validDate(start) || !validDate(end) {
		return echo.NewHTTPError(http.StatusBadRequest, "start_date and end_date must be YYYY-MM-DD dates")
	}

	points, err := h.orch.Stats(c.Request().Context(), start, end)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "failed to load stats")
	}
	return c.JSON(http.StatusOK, points)
}

// ExportStats redirects to the gateway's CSV export so the download streams
// straight from the source.
func (h *Handler) ExportStats(c echo.Context) error {
	interval := c.QueryParam("interval")
	if interval == "" {
		interval = "day"
	}
	return c.Redirect(http.StatusFound, h.orch.StatsExportURL(interval))
}

func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}
