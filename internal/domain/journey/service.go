package journey

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hl7dash/hl7dash/internal/platform/upstream"
)

// Gateway is the slice of the upstream client the journey service needs.
type Gateway interface {
	PatientJourney(ctx context.Context, patientID string) ([]upstream.JourneyEvent, error)
	StayJourney(ctx context.Context, patientID, stayID string) (*upstream.StayJourney, error)
}

// AnnotatedEvent is a journey event enriched with display attributes. The
// annotation never mutates the underlying event except for timestamp
// normalization; callers can rely on the upstream ordering.
type AnnotatedEvent struct {
	upstream.JourneyEvent
	ResourceDisplay string `json:"resource_display"`
	UnitDisplay     string `json:"unit_display,omitempty"`
	Color           string `json:"color"`
}

// View is the full journey payload served for one patient.
type View struct {
	PatientID    string           `json:"patient_id"`
	Discharged   bool             `json:"discharged"`
	Events       []AnnotatedEvent `json:"events"`
	ClinicalView []AnnotatedEvent `json:"clinical_view"`
}

// Service classifies and annotates patient journeys.
type Service struct {
	gw  Gateway
	log zerolog.Logger
}

func NewService(gw Gateway, logger zerolog.Logger) *Service {
	return &Service{gw: gw, log: logger.With().Str("component", "journey-service").Logger()}
}

// Journey fetches a patient's event sequence and builds the display view:
// every event annotated, plus the clinical subset restricted to admissions,
// transfers, and discharges.
func (s *Service) Journey(ctx context.Context, patientID string) (*View, error) {
	events, err := s.gw.PatientJourney(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("fetch journey for patient %s: %w", patientID, err)
	}

	view := &View{
		PatientID:    patientID,
		Discharged:   HasDischarge(events),
		Events:       s.annotate(events),
		ClinicalView: s.annotate(DefaultClinicalView(events)),
	}
	s.log.Debug().
		Str("patient_id", patientID).
		Int("events", len(view.Events)).
		Int("clinical_events", len(view.ClinicalView)).
		Bool("discharged", view.Discharged).
		Msg("journey built")
	return view, nil
}

// JourneyFiltered is Journey restricted to events matching the given resource
// code prefixes. The clinical view is computed from the filtered set so both
// lists stay consistent.
func (s *Service) JourneyFiltered(ctx context.Context, patientID string, prefixes []string) (*View, error) {
	events, err := s.gw.PatientJourney(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("fetch journey for patient %s: %w", patientID, err)
	}
	events = FilterByPrefixes(events, prefixes)

	return &View{
		PatientID:    patientID,
		Discharged:   HasDischarge(events),
		Events:       s.annotate(events),
		ClinicalView: s.annotate(DefaultClinicalView(events)),
	}, nil
}

// StayView is the classified timeline for one stay of a patient: events
// bucketed by admission, transfer, and discharge with per-unit durations.
type StayView struct {
	PatientID string                       `json:"patient_id"`
	StayID    string                       `json:"stay_id"`
	Timeline  []upstream.StayTimelineEntry `json:"timeline"`
	Events    []upstream.StayEvent         `json:"events"`
}

// Stay fetches the per-stay journey. Classification and durations come from
// the gateway; the service only resolves bare unit codes to display names,
// which is a no-op for units already carrying their full label.
func (s *Service) Stay(ctx context.Context, patientID, stayID string) (*StayView, error) {
	sj, err := s.gw.StayJourney(ctx, patientID, stayID)
	if err != nil {
		return nil, fmt.Errorf("fetch stay %s journey for patient %s: %w", stayID, patientID, err)
	}

	view := &StayView{
		PatientID: patientID,
		StayID:    stayID,
		Timeline:  sj.Timeline,
		Events:    sj.Events,
	}
	for i := range view.Events {
		if view.Events[i].Unit != "" {
			view.Events[i].Unit = UnitDisplayName(view.Events[i].Unit)
		}
	}
	if view.Timeline == nil {
		view.Timeline = []upstream.StayTimelineEntry{}
	}
	if view.Events == nil {
		view.Events = []upstream.StayEvent{}
	}
	return view, nil
}

func (s *Service) annotate(events []upstream.JourneyEvent) []AnnotatedEvent {
	out := make([]AnnotatedEvent, 0, len(events))
	for _, ev := range events {
		ev.EventTimestamp = NormalizeHL7Timestamp(ev.EventTimestamp)
		ev.ExitTimestamp = NormalizeHL7Timestamp(ev.ExitTimestamp)

		label := ResourceLabel(ev.ResourceCode)
		ann := AnnotatedEvent{
			JourneyEvent:    ev,
			ResourceDisplay: label,
			Color:           ColorFor(label),
		}
		if ev.Unit != "" {
			ann.UnitDisplay = UnitDisplayName(ev.Unit)
		} else if ev.TechnicalService != "" {
			ann.UnitDisplay = UnitDisplayName(ev.TechnicalService)
		}
		out = append(out, ann)
	}
	return out
}
