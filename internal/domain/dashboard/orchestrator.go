package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hl7dash/hl7dash/internal/domain/stream"
	"github.com/hl7dash/hl7dash/internal/platform/upstream"
)

// ErrStaleRefresh marks a refresh whose reply arrived after a newer refresh
// had already been applied. Its result was discarded.
var ErrStaleRefresh = errors.New("dashboard: refresh superseded by a newer one")

// maxRetainedEvents bounds the activity feed kept for the events endpoint.
const maxRetainedEvents = 200

const dateLayout = "2006-01-02"

// Gateway is the slice of the upstream client the orchestrator needs.
type Gateway interface {
	PatientCountsAdvanced(ctx context.Context, startDate, endDate string) ([]upstream.DailyCount, error)
	StatsBetweenDates(ctx context.Context, startDate, endDate string) ([]upstream.StatPoint, error)
	StatsExportURL(interval string) string
}

// Publisher fans a payload out to live subscribers of a topic. The
// orchestrator publishes batches on "events" and fresh states on "charts".
type Publisher interface {
	Publish(topic string, payload any)
}

// Metrics receives pipeline observations. All methods must be safe for
// concurrent use.
type Metrics interface {
	BatchIngested(size int)
	RefreshApplied(took time.Duration)
	RefreshDiscarded()
}

// Orchestrator owns the dashboard's chart state. Reads never see a partial
// build: a refresh constructs the new state aside and installs it in one
// swap. Each refresh carries a sequence number; a reply that comes back after
// a newer refresh has been applied is discarded instead of overwriting it.
type Orchestrator struct {
	gw        Gateway
	log       zerolog.Logger
	rangeDays int
	now       func() time.Time

	pub     Publisher
	metrics Metrics

	mu      sync.RWMutex
	state   *ChartState
	stale   bool
	events  []FeedEvent
	issued  uint64
	applied uint64
}

func NewOrchestrator(gw Gateway, rangeDays int, logger zerolog.Logger) *Orchestrator {
	if rangeDays <= 0 {
		rangeDays = 30
	}
	return &Orchestrator{
		gw:        gw,
		log:       logger.With().Str("component", "dashboard").Logger(),
		rangeDays: rangeDays,
		now:       time.Now,
		state:     &ChartState{},
		stale:     true,
	}
}

// SetPublisher attaches a live-feed publisher. Optional.
func (o *Orchestrator) SetPublisher(p Publisher) { o.pub = p }

// SetMetrics attaches a pipeline metrics sink. Optional.
func (o *Orchestrator) SetMetrics(m Metrics) { o.metrics = m }

// IngestBatch records a batch of gateway notifications, marks the charts
// stale, and forwards the batch to live subscribers.
func (o *Orchestrator) IngestBatch(batch stream.Batch) {
	if len(batch) == 0 {
		return
	}

	o.mu.Lock()
	for _, ev := range batch {
		o.events = append(o.events, FeedEvent{ReceivedAt: ev.ReceivedAt, Payload: ev.Payload})
	}
	if overflow := len(o.events) - maxRetainedEvents; overflow > 0 {
		o.events = append([]FeedEvent(nil), o.events[overflow:]...)
	}
	o.stale = true
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.BatchIngested(len(batch))
	}
	if o.pub != nil {
		o.pub.Publish("events", batch)
	}
}

// Events returns the most recent feed events, newest last. A limit of zero or
// less means all retained events.
func (o *Orchestrator) Events(limit int) []FeedEvent {
	o.mu.RLock()
	defer o.mu.RUnlock()

	events := o.events
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	out := make([]FeedEvent, len(events))
	copy(out, events)
	return out
}

// ChartState returns the currently installed state. The returned value is
// immutable and safe to serve concurrently with refreshes.
func (o *Orchestrator) ChartState() *ChartState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Stale reports whether feed activity has arrived since the last applied
// refresh.
func (o *Orchestrator) Stale() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.stale
}

// Refresh rebuilds the charts for the given date range and installs the
// result, unless a refresh issued later has already been applied, in which
// case the reply is dropped and ErrStaleRefresh returned.
func (o *Orchestrator) Refresh(ctx context.Context, startDate, endDate string) (*ChartState, error) {
	o.mu.Lock()
	o.issued++
	seq := o.issued
	o.mu.Unlock()

	began := o.now()
	daily, err := o.gw.PatientCountsAdvanced(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("fetch patient counts %s..%s: %w", startDate, endDate, err)
	}

	state, divergence := BuildCharts(daily)
	if divergence != nil {
		o.log.Warn().Err(divergence).Str("start", startDate).Str("end", endDate).
			Msg("hour buckets diverged across days, aligned to first day")
	}
	state.BuiltAt = o.now()
	state.Seq = seq

	o.mu.Lock()
	if seq <= o.applied {
		o.mu.Unlock()
		if o.metrics != nil {
			o.metrics.RefreshDiscarded()
		}
		o.log.Debug().Uint64("seq", seq).Uint64("applied", o.applied).Msg("discarding stale refresh reply")
		return nil, ErrStaleRefresh
	}
	o.applied = seq
	o.state = state
	o.stale = false
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.RefreshApplied(o.now().Sub(began))
	}
	if o.pub != nil {
		o.pub.Publish("charts", state)
	}
	o.log.Info().Uint64("seq", seq).Int("days", len(daily)).
		Str("start", startDate).Str("end", endDate).Msg("chart state refreshed")
	return state, nil
}

// RefreshDefault refreshes over the trailing default range ending today.
func (o *Orchestrator) RefreshDefault(ctx context.Context) (*ChartState, error) {
	end := o.now()
	start := end.AddDate(0, 0, -(o.rangeDays - 1))
	return o.Refresh(ctx, start.Format(dateLayout), end.Format(dateLayout))
}

// Run consumes batches and keeps the charts fresh: every interval, if feed
// activity arrived since the last refresh, it refreshes over the default
// range. Run returns when ctx is done or the batch channel closes.
func (o *Orchestrator) Run(ctx context.Context, batches <-chan stream.Batch, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-batches:
			if !ok {
				return
			}
			o.IngestBatch(batch)
		case <-ticker.C:
			if !o.Stale() {
				continue
			}
			if _, err := o.RefreshDefault(ctx); err != nil && !errors.Is(err, ErrStaleRefresh) {
				o.log.Error().Err(err).Msg("periodic refresh failed")
			}
		}
	}
}

// Reset drops the chart state and retained events, typically after the
// gateway's stores were cleared. The next refresh rebuilds from scratch.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.state = &ChartState{}
	o.events = nil
	o.stale = true
	o.mu.Unlock()
	o.log.Info().Msg("dashboard state reset")
}

// Stats proxies the gateway's message-volume statistics.
func (o *Orchestrator) Stats(ctx context.Context, startDate, endDate string) ([]upstream.StatPoint, error) {
	points, err := o.gw.StatsBetweenDates(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("fetch stats %s..%s: %w", startDate, endDate, err)
	}
	return points, nil
}

// StatsExportURL returns the gateway URL serving the statistics export for
// the given interval.
func (o *Orchestrator) StatsExportURL(interval string) string {
	return o.gw.StatsExportURL(interval)
}
