// Package message reconciles the heterogeneous WISH and ORLine record shapes
// into one canonical message record.
package message

import (
	"encoding/json"
	"fmt"

	"github.com/hl7dash/hl7dash/internal/platform/upstream"
)

// NormalizeWish maps a raw WISH record to its canonical form.
func NormalizeWish(rec upstream.WishRecord) (CanonicalMessage, error) {
	if rec.ID == 0 {
		return CanonicalMessage{}, fmt.Errorf("%w (wish)", ErrMissingID)
	}
	return CanonicalMessage{
		ID:         rec.ID,
		Source:     SourceWish,
		CreatedAt:  dateOrSentinel(rec.DateMessage),
		RawPreview: preview(rec),
	}, nil
}

// NormalizeOrline maps a raw ORLine record to its canonical form.
func NormalizeOrline(rec upstream.OrlineRecord) (CanonicalMessage, error) {
	if rec.ID == 0 {
		return CanonicalMessage{}, fmt.Errorf("%w (orline)", ErrMissingID)
	}
	return CanonicalMessage{
		ID:         rec.ID,
		Source:     SourceOrline,
		CreatedAt:  dateOrSentinel(rec.DateMessage),
		RawPreview: preview(rec),
	}, nil
}

// NormalizeRaw handles endpoints where the gateway merges both sources into
// one untagged array. The source is detected from the record's key set: WISH
// rows carry cbmrn/nsej, ORLine rows carry id_pat/id_sejour. Detection is on
// key presence, not value, since every column is nullable upstream.
func NormalizeRaw(data json.RawMessage) (CanonicalMessage, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return CanonicalMessage{}, fmt.Errorf("message: decode raw record: %w", err)
	}

	if hasAny(probe, "cbmrn", "nsej", "clrs_cd") {
		var rec upstream.WishRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return CanonicalMessage{}, fmt.Errorf("message: decode wish record: %w", err)
		}
		return NormalizeWish(rec)
	}

	if hasAny(probe, "id_pat", "id_sejour", "id_ope") {
		var rec upstream.OrlineRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return CanonicalMessage{}, fmt.Errorf("message: decode orline record: %w", err)
		}
		return NormalizeOrline(rec)
	}

	return CanonicalMessage{}, ErrUnknownSource
}

func hasAny(probe map[string]json.RawMessage, keys ...string) bool {
	for _, k := range keys {
		if _, ok := probe[k]; ok {
			return true
		}
	}
	return false
}

func dateOrSentinel(date string) string {
	if date == "" {
		return NoDate
	}
	return date
}

// preview renders the full original record for display. Marshalling the
// typed record keeps field order stable across calls, so identical input
// always yields an identical preview.
func preview(rec any) string {
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		// Only reachable with non-serializable types, which the record
		// structs are not.
		return fmt.Sprintf("%+v", rec)
	}
	return string(b)
}
