// Package journey buckets one patient's clinical events by type, derives a
// discharge status, and assigns deterministic display attributes. It is a
// pure filter over the event sequence the gateway returns: nothing is
// reordered and duplicates are kept.
package journey

import (
	"strings"

	"github.com/hl7dash/hl7dash/internal/platform/upstream"
)

// The three canonical event classes of the clinical view.
var clinicalPrefixes = []string{"A01", "A02", "A03"}

// FilterByPrefixes returns, preserving order, the events whose resource code
// starts with one of the given prefixes. Prefix match is deliberate: upstream
// codes carry free-text suffixes such as "A01 - ADMISSION".
func FilterByPrefixes(events []upstream.JourneyEvent, prefixes []string) []upstream.JourneyEvent {
	var out []upstream.JourneyEvent
	for _, ev := range events {
		for _, p := range prefixes {
			if strings.HasPrefix(ev.ResourceCode, p) {
				out = append(out, ev)
				break
			}
		}
	}
	return out
}

// DefaultClinicalView keeps only admissions, transfers, and discharges.
func DefaultClinicalView(events []upstream.JourneyEvent) []upstream.JourneyEvent {
	return FilterByPrefixes(events, clinicalPrefixes)
}

// HasDischarge reports whether the journey contains at least one discharge
// event.
func HasDischarge(events []upstream.JourneyEvent) bool {
	for _, ev := range events {
		if strings.HasPrefix(ev.ResourceCode, "A03") {
			return true
		}
	}
	return false
}

// FallbackColor is used for any resource label without an assigned color;
// an unrecognized code must never break rendering.
const FallbackColor = "#ffffff"

var resourceColors = map[string]string{
	"A01 - ADMISSION": "#f5ae42",
	"A02 - TRANSFER":  "#48a9a6",
	"A03 - DISCHARGE": "#8cc152",
	"Sortie":          "#8cc152",
}

// ColorFor maps a resource label to its display color, falling back to
// FallbackColor for anything unknown.
func ColorFor(label string) string {
	if color, ok := resourceColors[label]; ok {
		return color
	}
	return FallbackColor
}

var resourceLabels = map[string]string{
	"A01": "A01 - ADMISSION",
	"A02": "A02 - TRANSFER",
	"A03": "A03 - DISCHARGE",
}

// ResourceLabel expands a bare event code to its full display label. Codes
// that already carry a suffix, and codes outside the known set, pass through
// unchanged.
func ResourceLabel(code string) string {
	if label, ok := resourceLabels[code]; ok {
		return label
	}
	return code
}
