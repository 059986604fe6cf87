// Package analytics keeps in-memory counters describing the health of the
// feed-to-chart pipeline. Counters reset on restart; long-term metrics live
// with the gateway, not here.
package analytics

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// PipelineSummary is a point-in-time snapshot of the pipeline counters.
type PipelineSummary struct {
	StartedAt         time.Time     `json:"started_at"`
	Uptime            time.Duration `json:"uptime"`
	EventsReceived    int64         `json:"events_received"`
	BatchesIngested   int64         `json:"batches_ingested"`
	AvgBatchSize      float64       `json:"avg_batch_size"`
	MaxBatchSize      int           `json:"max_batch_size"`
	LastEventAt       time.Time     `json:"last_event_at,omitempty"`
	RefreshesApplied  int64         `json:"refreshes_applied"`
	RefreshesDropped  int64         `json:"refreshes_dropped"`
	AvgRefreshLatency time.Duration `json:"avg_refresh_latency"`
	MaxRefreshLatency time.Duration `json:"max_refresh_latency"`
	LastRefreshAt     time.Time     `json:"last_refresh_at,omitempty"`
}

// Tracker accumulates pipeline counters. Safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	startedAt time.Time
	now       func() time.Time

	eventsReceived  int64
	batchesIngested int64
	maxBatchSize    int
	lastEventAt     time.Time

	refreshesApplied int64
	refreshesDropped int64
	refreshTotal     time.Duration
	refreshMax       time.Duration
	lastRefreshAt    time.Time
}

func NewTracker() *Tracker {
	t := &Tracker{now: time.Now}
	t.startedAt = t.now()
	return t
}

// BatchIngested records one batch of the given size arriving from the feed.
func (t *Tracker) BatchIngested(size int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.batchesIngested++
	t.eventsReceived += int64(size)
	if size > t.maxBatchSize {
		t.maxBatchSize = size
	}
	t.lastEventAt = t.now()
}

// RefreshApplied records a chart refresh that was installed.
func (t *Tracker) RefreshApplied(took time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.refreshesApplied++
	t.refreshTotal += took
	if took > t.refreshMax {
		t.refreshMax = took
	}
	t.lastRefreshAt = t.now()
}

// RefreshDiscarded records a refresh reply dropped for being superseded.
func (t *Tracker) RefreshDiscarded() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refreshesDropped++
}

// Summary returns a snapshot of all counters.
func (t *Tracker) Summary() PipelineSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := PipelineSummary{
		StartedAt:         t.startedAt,
		Uptime:            t.now().Sub(t.startedAt),
		EventsReceived:    t.eventsReceived,
		BatchesIngested:   t.batchesIngested,
		MaxBatchSize:      t.maxBatchSize,
		LastEventAt:       t.lastEventAt,
		RefreshesApplied:  t.refreshesApplied,
		RefreshesDropped:  t.refreshesDropped,
		MaxRefreshLatency: t.refreshMax,
		LastRefreshAt:     t.lastRefreshAt,
	}
	if t.batchesIngested > 0 {
		s.AvgBatchSize = float64(t.eventsReceived) / float64(t.batchesIngested)
	}
	if t.refreshesApplied > 0 {
		s.AvgRefreshLatency = t.refreshTotal / time.Duration(t.refreshesApplied)
	}
	return s
}

// Handler exposes the pipeline summary over HTTP.
type Handler struct {
	tracker *Tracker
}

func NewHandler(tracker *Tracker) *Handler {
	return &Handler{tracker: tracker}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/analytics/pipeline", h.GetPipeline)
}

func (h *Handler) GetPipeline(c echo.Context) error {
	return c.JSON(http.StatusOK, h.tracker.Summary())
}
