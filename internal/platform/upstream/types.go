package upstream

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Query values accepted by the gateway's source filter.
const (
	SourceWish         = "wish"
	SourceOrline       = "orline"
	SourceBoth         = "both"
	SourceIntersection = "intersection"
)

// ValidSource reports whether s is a source filter the gateway accepts.
func ValidSource(s string) bool {
	switch s {
	case SourceWish, SourceOrline, SourceBoth, SourceIntersection:
		return true
	}
	return false
}

// WishRecord mirrors one row of the gateway's WISH ADT message store. Every
// column except the id is nullable upstream, so all fields are plain strings
// with the empty string standing in for NULL.
type WishRecord struct {
	ID               int64  `json:"id"`
	MessageID        string `json:"message_id,omitempty"`
	DateMessage      string `json:"date_message,omitempty"`
	ResourceCode     string `json:"clrs_cd,omitempty"`
	StayID           string `json:"nsej,omitempty"`
	PatientID        string `json:"cbmrn,omitempty"`
	PatientType      string `json:"cbtype,omitempty"`
	AdmissionType    string `json:"cbadty,omitempty"`
	EventStart       string `json:"clfrom,omitempty"`
	UnitCode         string `json:"clnsid,omitempty"`
	UnitDescription  string `json:"nsdscr,omitempty"`
	Room             string `json:"clroom,omitempty"`
	Bed              string `json:"clbed,omitempty"`
	TechnicalService string `json:"clsvtc,omitempty"`
	Department       string `json:"cldept,omitempty"`
	PractitionerID   string `json:"nrpr,omitempty"`
	Practitioner     string `json:"nomm,omitempty"`
	EventTime        string `json:"cltima,omitempty"`
}

// OrlineRecord mirrors one row of the gateway's ORLine message store.
type OrlineRecord struct {
	ID            int64  `json:"id"`
	MessageID     string `json:"message_id,omitempty"`
	DateMessage   string `json:"date_message,omitempty"`
	MessageType   string `json:"message_type,omitempty"`
	PatientID     string `json:"id_pat,omitempty"`
	StayID        string `json:"id_sejour,omitempty"`
	OperationID   string `json:"id_ope,omitempty"`
	OperationDate string `json:"date_ope,omitempty"`
	Planning      string `json:"planning,omitempty"`
	Room          string `json:"id_sal_ope,omitempty"`
	Anesthesia    string `json:"anesth,omitempty"`
	Discipline    string `json:"discip,omitempty"`
	OperationType string `json:"type_ope,omitempty"`
	Surgeon       string `json:"chir,omitempty"`
	BirthDate     string `json:"naissance,omitempty"`
	Sex           string `json:"sexe,omitempty"`
}

// PatientsResponse is the gateway's reply to GET /patients.
type PatientsResponse struct {
	Total    int      `json:"total"`
	Patients []string `json:"patients"`
}

// PatientMessages is the gateway's reply to GET /messages-by-patient/{id}.
// Either slice may be absent depending on the source filter.
type PatientMessages struct {
	WishMessages   []WishRecord   `json:"wish_messages,omitempty"`
	OrlineMessages []OrlineRecord `json:"orline_messages,omitempty"`
}

// StatPoint is one time bucket of the message-throughput statistics.
type StatPoint struct {
	Period string `json:"period"`
	Count  int    `json:"count"`
}

// HourLabel is an hour bucket label. The gateway is loose about the type and
// emits either a string ("08") or a bare number (8); both decode to the
// two-digit string form.
type HourLabel string

func (h *HourLabel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*h = HourLabel(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*h = HourLabel(fmt.Sprintf("%02d", n))
		return nil
	}
	return fmt.Errorf("upstream: hour label is neither string nor number: %s", strconv.Quote(string(data)))
}

// HourlyCount is one hour bucket of a day's patient counts. Units absent from
// ByUnit have an implicit count of zero.
type HourlyCount struct {
	Hour          HourLabel      `json:"hour"`
	TotalPatients int            `json:"total_patients"`
	ByUnit        map[string]int `json:"by_unit,omitempty"`
}

// DailyCount carries one day of hourly patient counts.
type DailyCount struct {
	Date         string        `json:"date"`
	HourlyCounts []HourlyCount `json:"hourly_counts"`
}

// JourneyEvent is one patient-journey entry from the gateway's Gantt
// endpoint. The wire format uses the hospital's French column headers, so the
// type carries its own decoder; marshalling produces snake_case keys for this
// service's own API.
type JourneyEvent struct {
	StayID            string `json:"stay_id"`
	PatientID         string `json:"patient_id"`
	ResourceCode      string `json:"resource_code"`
	Unit              string `json:"unit,omitempty"`
	TechnicalService  string `json:"technical_service,omitempty"`
	EventTimestamp    string `json:"event_timestamp,omitempty"`
	ExitTimestamp     string `json:"exit_timestamp,omitempty"`
	DurationInUnit    string `json:"duration_in_unit,omitempty"`
	DurationTotalStay string `json:"duration_total_stay,omitempty"`
}

func pickString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func (e *JourneyEvent) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	pick := func(keys ...string) string { return pickString(m, keys...) }

	e.StayID = pick("NSEJ", "stay_id")
	e.PatientID = pick("CBMRN", "patient_id")
	e.ResourceCode = pick("Resource", "resource_code")
	e.Unit = pick("Unité de soins", "unit")
	e.TechnicalService = pick("Service technique", "technical_service")
	e.EventTimestamp = pick("Date/heure d'événement", "event_timestamp")
	e.ExitTimestamp = pick("Date/heure de sortie", "exit_timestamp")
	e.DurationInUnit = pick("Temps passé", "Temps passé en cours", "duration_in_unit")
	e.DurationTotalStay = pick("Durée totale de séjour", "duration_total_stay")
	return nil
}

// StayEvent is one classified event of a single-stay journey: an admission,
// transfer, or discharge with the time spent in the unit it occurred in.
type StayEvent struct {
	Start     string `json:"start"`
	End       string `json:"end,omitempty"`
	Unit      string `json:"unit,omitempty"`
	UnitCode  string `json:"unit_code,omitempty"`
	EventType string `json:"event_type"`
	Physician string `json:"physician,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

func (e *StayEvent) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	e.Start = pickString(m, "debut", "start")
	e.End = pickString(m, "fin", "end")
	e.Unit = pickString(m, "unite", "unit")
	e.UnitCode = pickString(m, "service", "unit_code")
	e.EventType = pickString(m, "type_evenement", "event_type")
	e.Physician = pickString(m, "medecin", "physician")
	e.Duration = pickString(m, "duration")
	return nil
}

// StayTimelineEntry is one Gantt row of a single-stay journey: an occupancy
// span in one care unit, with compact YYYYMMDDHHMMSS timestamps.
type StayTimelineEntry struct {
	Unit     string `json:"unit"`
	Start    string `json:"start"`
	Finish   string `json:"finish,omitempty"`
	UnitCode string `json:"unit_code,omitempty"`
}

func (e *StayTimelineEntry) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	e.Unit = pickString(m, "Unité de soins", "unit")
	e.Start = pickString(m, "Start", "start")
	e.Finish = pickString(m, "Finish", "finish")
	e.UnitCode = pickString(m, "Resource", "unit_code")
	return nil
}

// StayJourney is the gateway's classified journey for one stay: the ordered
// event list and the Gantt timeline derived from it.
type StayJourney struct {
	Timeline []StayTimelineEntry `json:"timeline"`
	Events   []StayEvent         `json:"events"`
}
