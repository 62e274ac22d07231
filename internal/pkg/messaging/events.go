package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventPunchRecorded = "attendance.punch.recorded"
	EventPunchAdjusted = "attendance.punch.adjusted"
	EventPunchDeleted  = "attendance.punch.deleted"
	EventMarkedAbsent  = "attendance.absence.marked"
	EventLateArrivals  = "attendance.absent_eligible.flagged"
)

// ExchangeAttendanceEvents is the default topic exchange
const ExchangeAttendanceEvents = "attendance.events"

// Event is the envelope every message is wrapped in
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            id.String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into v
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// PunchRecordedEvent is published for every stored punch, QR or manual
type PunchRecordedEvent struct {
	PunchID    string    `json:"punch_id"`
	EmployeeID string    `json:"employee_id"`
	CompanyID  string    `json:"company_id"`
	EventType  string    `json:"event_type"`
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source"`
	CreatedBy  *string   `json:"created_by,omitempty"`
	LocalDate  string    `json:"local_date"`
}

// PunchDeletedEvent is published when a manager removes a punch
type PunchDeletedEvent struct {
	PunchID    string `json:"punch_id"`
	EmployeeID string `json:"employee_id"`
	CompanyID  string `json:"company_id"`
	DeletedBy  string `json:"deleted_by"`
}

// AbsenceMarkedEvent is published when an employee is flagged absent
type AbsenceMarkedEvent struct {
	AbsenceID  string `json:"absence_id"`
	EmployeeID string `json:"employee_id"`
	CompanyID  string `json:"company_id"`
	Date       string `json:"date"`
	Forced     bool   `json:"forced"`
}

// AbsentEligibleEvent summarises one run of the late-arrival job for a company
type AbsentEligibleEvent struct {
	CompanyID   string   `json:"company_id"`
	Date        string   `json:"date"`
	EmployeeIDs []string `json:"employee_ids"`
}
