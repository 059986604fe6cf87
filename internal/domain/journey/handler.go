package journey

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hl7dash/hl7dash/internal/platform/upstream"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/journeys/:id", h.GetJourney)
	api.GET("/journeys/:id/stays/:stayId", h.GetStay)
}

// GetJourney serves the annotated journey for one patient. An optional
// "codes" query parameter restricts the events to the given comma-separated
// resource code prefixes, e.g. codes=A01,A03.
func (h *Handler) GetJourney(c echo.Context) error {
	patientID := c.Param("id")
	if patientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient id is required")
	}

	var (
		view *View
		err  error
	)
	if codes := c.QueryParam("codes"); codes != "" {
		view, err = h.svc.JourneyFiltered(c.Request().Context(), patientID, splitCodes(codes))
	} else {
		view, err = h.svc.Journey(c.Request().Context(), patientID)
	}
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no journey found for this patient")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "failed to load patient journey")
	}
	return c.JSON(http.StatusOK, view)
}

// GetStay serves the classified timeline for one stay of a patient.
func (h *Handler) GetStay(c echo.Context) error {
	patientID := c.Param("id")
	stayID := c.Param("stayId")
	if patientID == "" || stayID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient id and stay id are required")
	}

	view, err := h.svc.Stay(c.Request().Context(), patientID, stayID)
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no journey found for this patient and stay")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "failed to load stay journey")
	}
	return c.JSON(http.StatusOK, view)
}

func splitCodes(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
