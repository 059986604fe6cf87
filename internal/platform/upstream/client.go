// Package upstream is the HTTP client for the HL7 gateway that owns message
// storage and parsing. Every collaborator contract the dashboard consumes
// lives here; the rest of the service never builds a gateway URL by hand.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned when the gateway answers 404, e.g. a patient with
// no messages. Callers branch on it with errors.Is.
var ErrNotFound = errors.New("upstream: not found")

// Client is a thin typed wrapper over the gateway's REST API.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     zerolog.Logger
}

// NewClient creates a gateway client. baseURL is the gateway root, e.g.
// "http://127.0.0.1:8000".
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		log:     logger.With().Str("component", "upstream").Logger(),
	}
}

// BaseURL returns the configured gateway root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("upstream: build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("upstream: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("upstream: GET %s: %w", path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upstream: GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("upstream: decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("upstream: build request for %s: %w", path, err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("upstream: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upstream: %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// Patients lists distinct patient ids known to the gateway. source is one of
// wish, orline, both, or intersection.
func (c *Client) Patients(ctx context.Context, source string) (*PatientsResponse, error) {
	q := url.Values{}
	if source != "" {
		q.Set("source", source)
	}
	var out PatientsResponse
	if err := c.getJSON(ctx, "/patients", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WishMessages fetches every raw WISH record.
func (c *Client) WishMessages(ctx context.Context) ([]WishRecord, error) {
	var out []WishRecord
	if err := c.getJSON(ctx, "/wish/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OrlineMessages fetches every raw ORLine record.
func (c *Client) OrlineMessages(ctx context.Context) ([]OrlineRecord, error) {
	var out []OrlineRecord
	if err := c.getJSON(ctx, "/orline/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MessagesByPatient fetches all raw records for one patient, split by source.
func (c *Client) MessagesByPatient(ctx context.Context, patientID, source string) (*PatientMessages, error) {
	q := url.Values{}
	if source != "" {
		q.Set("source", source)
	}
	var out PatientMessages
	if err := c.getJSON(ctx, "/messages-by-patient/"+url.PathEscape(patientID), q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StaysByPatient lists the stay identifiers recorded for one patient.
func (c *Client) StaysByPatient(ctx context.Context, patientID string) ([]string, error) {
	var out []string
	if err := c.getJSON(ctx, "/patient/"+url.PathEscape(patientID)+"/sejours", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MessagesByPatientStay fetches the raw records for one patient and stay. The
// gateway merges both sources into a single untagged array, so the records
// come back raw; the message normalizer detects each record's source.
func (c *Client) MessagesByPatientStay(ctx context.Context, patientID, stayID string) ([]json.RawMessage, error) {
	q := url.Values{}
	q.Set("id_pat", patientID)
	q.Set("id_sejour", stayID)
	var out []json.RawMessage
	if err := c.getJSON(ctx, "/messages-by-patient-sejour", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PatientJourney fetches the ordered admission/transfer/discharge events for
// one patient across all stays.
func (c *Client) PatientJourney(ctx context.Context, patientID string) ([]JourneyEvent, error) {
	var out []JourneyEvent
	if err := c.getJSON(ctx, "/patient-journey-gantt/"+url.PathEscape(patientID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StayJourney fetches the classified journey for one stay of a patient:
// admission, transfer, and discharge events with per-unit durations, sorted
// by start time, plus the Gantt timeline built from them.
func (c *Client) StayJourney(ctx context.Context, patientID, stayID string) (*StayJourney, error) {
	path := "/journey/full/" + url.PathEscape(patientID) + "/" + url.PathEscape(stayID)
	var out StayJourney
	if err := c.getJSON(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StatsBetweenDates fetches per-bucket message counts for a date range.
// Dates are "YYYY-MM-DD".
func (c *Client) StatsBetweenDates(ctx context.Context, startDate, endDate string) ([]StatPoint, error) {
	q := url.Values{}
	q.Set("start_date", startDate)
	q.Set("end_date", endDate)
	var out []StatPoint
	if err := c.getJSON(ctx, "/hl7/stats-between-dates", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PatientCountsAdvanced fetches the day/hour/unit patient-count matrix that
// feeds the dashboard charts.
func (c *Client) PatientCountsAdvanced(ctx context.Context, startDate, endDate string) ([]DailyCount, error) {
	q := url.Values{}
	q.Set("start_date", startDate)
	q.Set("end_date", endDate)
	var out struct {
		DailyCounts []DailyCount `json:"daily_counts"`
	}
	if err := c.getJSON(ctx, "/tableaudebord/patient-counts-advanced-v2", q, &out); err != nil {
		return nil, err
	}
	return out.DailyCounts, nil
}

// ClearAll truncates every message table on the gateway.
func (c *Client) ClearAll(ctx context.Context) error {
	return c.send(ctx, http.MethodDelete, "/clear-all/")
}

// ProcessAll triggers a full re-import of the gateway's watched HL7 folders.
func (c *Client) ProcessAll(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/process-all/")
}

// StatsExportURL builds the pass-through URL for the Excel stats export. The
// download is opened directly by the browser, never proxied.
func (c *Client) StatsExportURL(interval string) string {
	return c.baseURL + "/hl7/stats/export?interval=" + url.QueryEscape(interval)
}

// ExportAllURL builds the pass-through URL for the full message export.
func (c *Client) ExportAllURL() string {
	return c.baseURL + "/hl7/export-all"
}
