package message

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hl7dash/hl7dash/internal/platform/upstream"
)

// Gateway is the slice of the upstream client the message service needs.
type Gateway interface {
	Patients(ctx context.Context, source string) (*upstream.PatientsResponse, error)
	WishMessages(ctx context.Context) ([]upstream.WishRecord, error)
	OrlineMessages(ctx context.Context) ([]upstream.OrlineRecord, error)
	MessagesByPatient(ctx context.Context, patientID, source string) (*upstream.PatientMessages, error)
	StaysByPatient(ctx context.Context, patientID string) ([]string, error)
	MessagesByPatientStay(ctx context.Context, patientID, stayID string) ([]json.RawMessage, error)
	ClearAll(ctx context.Context) error
	ProcessAll(ctx context.Context) error
	ExportAllURL() string
}

// Resetter is notified after a successful upstream clear-all so local
// in-memory state derived from the cleared tables can be dropped too.
type Resetter interface {
	Reset()
}

type Service struct {
	gw       Gateway
	log      zerolog.Logger
	resetter Resetter
}

func NewService(gw Gateway, logger zerolog.Logger) *Service {
	return &Service{gw: gw, log: logger.With().Str("component", "message").Logger()}
}

// SetResetter attaches an optional collaborator reset on clear-all.
func (s *Service) SetResetter(r Resetter) {
	s.resetter = r
}

func (s *Service) Patients(ctx context.Context, source string) (*upstream.PatientsResponse, error) {
	return s.gw.Patients(ctx, source)
}

func (s *Service) Stays(ctx context.Context, patientID string) ([]string, error) {
	return s.gw.StaysByPatient(ctx, patientID)
}

// Messages fetches and normalizes the full message set for the given source
// filter, WISH first then ORLine, each in upstream order.
func (s *Service) Messages(ctx context.Context, source string) ([]CanonicalMessage, error) {
	var out []CanonicalMessage

	if source == upstream.SourceWish || source == upstream.SourceBoth {
		recs, err := s.gw.WishMessages(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			msg, err := NormalizeWish(rec)
			if err != nil {
				s.report(err, "wish")
				continue
			}
			out = append(out, msg)
		}
	}

	if source == upstream.SourceOrline || source == upstream.SourceBoth {
		recs, err := s.gw.OrlineMessages(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			msg, err := NormalizeOrline(rec)
			if err != nil {
				s.report(err, "orline")
				continue
			}
			out = append(out, msg)
		}
	}

	return out, nil
}

// MessagesByPatient fetches and normalizes one patient's messages.
func (s *Service) MessagesByPatient(ctx context.Context, patientID, source string) ([]CanonicalMessage, error) {
	resp, err := s.gw.MessagesByPatient(ctx, patientID, source)
	if err != nil {
		return nil, err
	}

	var out []CanonicalMessage
	for _, rec := range resp.WishMessages {
		msg, err := NormalizeWish(rec)
		if err != nil {
			s.report(err, "wish")
			continue
		}
		out = append(out, msg)
	}
	for _, rec := range resp.OrlineMessages {
		msg, err := NormalizeOrline(rec)
		if err != nil {
			s.report(err, "orline")
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

// MessagesByPatientStay fetches one stay's messages. The gateway returns an
// untagged mixed array here, so each record goes through source detection.
func (s *Service) MessagesByPatientStay(ctx context.Context, patientID, stayID string) ([]CanonicalMessage, error) {
	raws, err := s.gw.MessagesByPatientStay(ctx, patientID, stayID)
	if err != nil {
		return nil, err
	}

	var out []CanonicalMessage
	for i, raw := range raws {
		msg, err := NormalizeRaw(raw)
		if err != nil {
			s.log.Warn().Err(err).Int("index", i).Str("patient_id", patientID).Str("stay_id", stayID).
				Msg("malformed record in stay messages")
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

// ClearAll truncates the upstream message stores and resets local derived
// state. Canonical messages do not survive a clear-all.
func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.gw.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear upstream tables: %w", err)
	}
	if s.resetter != nil {
		s.resetter.Reset()
	}
	return nil
}

// ProcessAll asks the gateway to re-import its watched HL7 folders.
func (s *Service) ProcessAll(ctx context.Context) error {
	return s.gw.ProcessAll(ctx)
}

// ExportAllURL returns the gateway URL serving the full message export.
func (s *Service) ExportAllURL() string {
	return s.gw.ExportAllURL()
}

func (s *Service) report(err error, source string) {
	s.log.Warn().Err(err).Str("source", source).Msg("record dropped from normalization")
}
