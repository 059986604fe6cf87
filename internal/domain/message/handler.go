package message

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hl7dash/hl7dash/internal/platform/upstream"
	"github.com/hl7dash/hl7dash/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.ListPatients)
	api.GET("/patients/:id/stays", h.ListStays)
	api.GET("/messages", h.ListMessages)
	api.GET("/messages/patient/:id", h.MessagesByPatient)
	api.GET("/messages/patient-stay", h.MessagesByPatientStay)
	api.GET("/messages/export", h.ExportAll)
	api.DELETE("/admin/clear-all", h.ClearAll)
	api.POST("/admin/process-all", h.ProcessAll)
}

func sourceParam(c echo.Context) (string, error) {
	source := c.QueryParam("source")
	if source == "" {
		source = upstream.SourceBoth
	}
	if !upstream.ValidSource(source) {
		return "", echo.NewHTTPError(http.StatusBadRequest, "source must be wish, orline, both, or intersection")
	}
	return source, nil
}

func (h *Handler) ListPatients(c echo.Context) error {
	source, err := sourceParam(c)
	if err != nil {
		return err
	}

	resp, err := h.svc.Patients(c.Request().Context(), source)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "failed to load patients")
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListStays(c echo.Context) error {
	patientID := c.Param("id")
	if patientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient id is required")
	}

	stays, err := h.svc.Stays(c.Request().Context(), patientID)
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no stays found for this patient")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "failed to load stays")
	}
	return c.JSON(http.StatusOK, stays)
}

func (h *Handler) ListMessages(c echo.Context) error {
	source, err := sourceParam(c)
	if err != nil {
		return err
	}

	msgs, err := h.svc.Messages(c.Request().Context(), source)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "failed to load messages")
	}

	pg := pagination.FromContext(c)
	page := paginate(msgs, pg)
	return c.JSON(http.StatusOK, pagination.NewResponse(page, len(msgs), pg))
}

func (h *Handler) MessagesByPatient(c echo.Context) error {
	patientID := c.Param("id")
	if patientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient id is required")
	}
	source, err := sourceParam(c)
	if err != nil {
		return err
	}

	msgs, err := h.svc.MessagesByPatient(c.Request().Context(), patientID, source)
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no messages found for this patient")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "failed to load patient messages")
	}
	return c.JSON(http.StatusOK, msgs)
}

func (h *Handler) MessagesByPatientStay(c echo.Context) error {
	patientID := c.QueryParam("patient_id")
	stayID := c.QueryParam("stay_id")
	if patientID == "" || stayID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id and stay_id are required")
	}

	msgs, err := h.svc.MessagesByPatientStay(c.Request().Context(), patientID, stayID)
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no messages found for this patient and stay")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "failed to load stay messages")
	}
	return c.JSON(http.StatusOK, msgs)
}

// ExportAll redirects to the gateway's full-export download so the file
// streams straight from the source.
func (h *Handler) ExportAll(c echo.Context) error {
	return c.Redirect(http.StatusFound, h.svc.ExportAllURL())
}

func (h *Handler) ClearAll(c echo.Context) error {
	if err := h.svc.ClearAll(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "failed to clear upstream tables")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "all message tables cleared"})
}

func (h *Handler) ProcessAll(c echo.Context) error {
	if err := h.svc.ProcessAll(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "failed to trigger upstream import")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "import triggered"})
}

func paginate(msgs []CanonicalMessage, pg pagination.Params) []CanonicalMessage {
	start, end := pg.Window(len(msgs))
	return msgs[start:end]
}
