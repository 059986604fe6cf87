package message

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hl7dash/hl7dash/internal/platform/upstream"
)

func TestNormalizeWish(t *testing.T) {
	rec := upstream.WishRecord{
		ID:           42,
		DateMessage:  "202504070815",
		ResourceCode: "A01",
		PatientID:    "P1",
		StayID:       "S1",
	}

	msg, err := NormalizeWish(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.ID != 42 {
		t.Errorf("expected id copied verbatim, got %d", msg.ID)
	}
	if msg.Source != SourceWish {
		t.Errorf("expected source WISH, got %s", msg.Source)
	}
	if msg.CreatedAt != "202504070815" {
		t.Errorf("expected created_at from date_message, got %q", msg.CreatedAt)
	}
	if !strings.Contains(msg.RawPreview, `"cbmrn": "P1"`) {
		t.Errorf("expected preview to include original fields, got %s", msg.RawPreview)
	}
}

func TestNormalizeWish_MissingDateUsesSentinel(t *testing.T) {
	msg, err := NormalizeWish(upstream.WishRecord{ID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.CreatedAt != NoDate {
		t.Errorf("expected sentinel %q, got %q", NoDate, msg.CreatedAt)
	}
}

func TestNormalizeOrline(t *testing.T) {
	msg, err := NormalizeOrline(upstream.OrlineRecord{ID: 9, DateMessage: "202504070900", PatientID: "P2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Source != SourceOrline {
		t.Errorf("expected source ORLINE, got %s", msg.Source)
	}
	if msg.CreatedAt != "202504070900" {
		t.Errorf("unexpected created_at %q", msg.CreatedAt)
	}
}

func TestNormalize_MissingID(t *testing.T) {
	if _, err := NormalizeWish(upstream.WishRecord{DateMessage: "x"}); !errors.Is(err, ErrMissingID) {
		t.Errorf("expected ErrMissingID for wish record, got %v", err)
	}
	if _, err := NormalizeOrline(upstream.OrlineRecord{DateMessage: "x"}); !errors.Is(err, ErrMissingID) {
		t.Errorf("expected ErrMissingID for orline record, got %v", err)
	}
}

func TestPreview_Deterministic(t *testing.T) {
	rec := upstream.WishRecord{ID: 3, PatientID: "P1", UnitCode: "310", Practitioner: "DR X"}

	first, err := NormalizeWish(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := NormalizeWish(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.RawPreview != second.RawPreview {
		t.Error("expected identical previews for identical input")
	}

	want := "{\n  \"id\": 3,\n  \"cbmrn\": \"P1\",\n  \"clnsid\": \"310\",\n  \"nomm\": \"DR X\"\n}"
	if first.RawPreview != want {
		t.Errorf("preview field order changed:\nwant %q\ngot  %q", want, first.RawPreview)
	}
}

func TestNormalizeRaw_DetectsWish(t *testing.T) {
	raw := json.RawMessage(`{"id": 5, "cbmrn": "P1", "nsej": "S1", "date_message": "202504070815"}`)

	msg, err := NormalizeRaw(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Source != SourceWish {
		t.Errorf("expected WISH, got %s", msg.Source)
	}
}

func TestNormalizeRaw_DetectsOrline(t *testing.T) {
	raw := json.RawMessage(`{"id": 6, "id_pat": "P1", "id_sejour": "S1"}`)

	msg, err := NormalizeRaw(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Source != SourceOrline {
		t.Errorf("expected ORLINE, got %s", msg.Source)
	}
	if msg.CreatedAt != NoDate {
		t.Errorf("expected sentinel date, got %q", msg.CreatedAt)
	}
}

func TestNormalizeRaw_DetectsByKeyPresenceNotValue(t *testing.T) {
	// Nullable columns arrive as explicit nulls; the key alone decides.
	raw := json.RawMessage(`{"id": 7, "cbmrn": null, "nsej": null}`)

	msg, err := NormalizeRaw(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Source != SourceWish {
		t.Errorf("expected WISH from null-valued keys, got %s", msg.Source)
	}
}

func TestNormalizeRaw_UnknownShape(t *testing.T) {
	_, err := NormalizeRaw(json.RawMessage(`{"id": 1, "foo": "bar"}`))
	if !errors.Is(err, ErrUnknownSource) {
		t.Errorf("expected ErrUnknownSource, got %v", err)
	}
}
