package message

import "errors"

// Source tags a canonical message with the upstream system it came from.
type Source string

const (
	SourceWish   Source = "WISH"
	SourceOrline Source = "ORLINE"
)

// NoDate is the sentinel shown when an upstream record carries no date.
// Downstream sort and display code always sees a string, never an absent
// value.
const NoDate = "-"

// ErrMissingID marks a record that arrived without an id. Such records are
// reported, never silently skipped.
var ErrMissingID = errors.New("message: record has no id")

// ErrUnknownSource marks a raw record whose shape matches neither upstream
// system.
var ErrUnknownSource = errors.New("message: record matches no known source")

// CanonicalMessage is the one record shape the dashboard works with,
// regardless of which upstream system produced it. Immutable after creation.
type CanonicalMessage struct {
	ID         int64  `json:"id"`
	Source     Source `json:"source"`
	CreatedAt  string `json:"created_at"`
	RawPreview string `json:"raw_preview"`
}
