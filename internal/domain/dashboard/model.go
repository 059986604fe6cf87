// Package dashboard turns the gateway's hourly patient counts into
// chart-ready series and keeps the latest build available behind an atomic
// swap, refreshed when the live feed reports new activity.
package dashboard

import (
	"encoding/json"
	"time"
)

// Series is one named line or stacked-bar series. Data is aligned with the
// axis the owning chart declares.
type Series struct {
	Name string `json:"name"`
	Data []int  `json:"data"`
}

// ChartState is one complete, internally consistent build of both charts.
// A state is immutable once published; refreshes install a new value instead
// of mutating the old one.
type ChartState struct {
	// Hours is the x axis of the per-day line chart, taken from the first
	// day of the range.
	Hours []string `json:"hours"`
	// GlobalSeries holds one series per day, total patients per hour.
	GlobalSeries []Series `json:"global_series"`
	// UnitCategories is the x axis of the stacked unit chart: one
	// "date hour" label per day and hour, day-major.
	UnitCategories []string `json:"unit_categories"`
	// UnitSeries holds one series per care unit, aligned with
	// UnitCategories and zero-filled where a unit had no patients.
	UnitSeries []Series `json:"unit_series"`

	RangeStart string    `json:"range_start"`
	RangeEnd   string    `json:"range_end"`
	BuiltAt    time.Time `json:"built_at"`
	// Seq identifies the refresh that produced this state. Later
	// refreshes always carry a higher value.
	Seq uint64 `json:"seq"`
}

// FeedEvent is one raw gateway notification retained for the activity view.
type FeedEvent struct {
	ReceivedAt time.Time       `json:"received_at"`
	Payload    json.RawMessage `json:"payload"`
}
