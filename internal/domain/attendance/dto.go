package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

// MaxReportRangeDays bounds a single shift report request.
const MaxReportRangeDays = 62

// ========================================
// PUNCH DTOs
// ========================================

// RecordPunchRequest is sent by the employee app after scanning the office QR code.
type RecordPunchRequest struct {
	EventType string  `json:"event_type"`
	QRToken   *string `json:"qr_token"`
}

func (r *RecordPunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EventType) {
		errs = append(errs, validator.ValidationError{
			Field:   "event_type",
			Message: "event_type is required",
		})
	} else if !EventType(r.EventType).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "event_type",
			Message: "event_type must be one of sign_in, sign_out, break_start, break_end",
		})
	}

	if r.QRToken != nil && !validator.MaxLength(*r.QRToken, 255) {
		errs = append(errs, validator.ValidationError{
			Field:   "qr_token",
			Message: "qr_token must not exceed 255 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ManualPunchRequest lets a manager add a punch the employee forgot.
type ManualPunchRequest struct {
	EmployeeID string `json:"employee_id"`
	EventType  string `json:"event_type"`
	Timestamp  string `json:"timestamp"`
	Reason     string `json:"reason"`

	ParsedTimestamp time.Time `json:"-"`
}

func (r *ManualPunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	} else if !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}

	if !EventType(r.EventType).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "event_type",
			Message: "event_type must be one of sign_in, sign_out, break_start, break_end",
		})
	}

	if validator.IsEmpty(r.Timestamp) {
		errs = append(errs, validator.ValidationError{
			Field:   "timestamp",
			Message: "timestamp is required",
		})
	} else if ts, ok := validator.IsValidDateTime(r.Timestamp); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "timestamp",
			Message: "timestamp must be an RFC3339 date time",
		})
	} else {
		r.ParsedTimestamp = ts
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	} else if !validator.MaxLength(r.Reason, 500) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 500 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PunchResponse struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	EventType  EventType `json:"event_type"`
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source"`
	Note       *string   `json:"note,omitempty"`
	CreatedBy  *string   `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewPunchResponse(ev PunchEvent) PunchResponse {
	return PunchResponse{
		ID:         ev.ID,
		EmployeeID: ev.EmployeeID,
		EventType:  ev.EventType,
		Timestamp:  ev.Timestamp,
		Source:     ev.Source,
		Note:       ev.Note,
		CreatedBy:  ev.CreatedBy,
		CreatedAt:  ev.CreatedAt,
	}
}

// ========================================
// STATUS DTOs
// ========================================

type StatusResponse struct {
	EmployeeID        string          `json:"employee_id"`
	EmployeeName      string          `json:"employee_name"`
	DepartmentID      *string         `json:"department_id"`
	Date              string          `json:"date"`
	Timezone          string          `json:"timezone"`
	Metrics           LiveMetrics     `json:"metrics"`
	Adherence         AdherenceStatus `json:"adherence"`
	EligibleForAbsent bool            `json:"eligible_for_absent"`
	ManuallyAbsent    bool            `json:"manually_absent"`
	Schedule          *ScheduleWindow `json:"schedule"`
	Anomalies         Anomalies       `json:"anomalies"`
}

type TeamBoardFilter struct {
	DepartmentID *string
}

func (f *TeamBoardFilter) Validate() error {
	if f.DepartmentID != nil && !validator.IsValidUUID(*f.DepartmentID) {
		return validator.ValidationErrors{{
			Field:   "department_id",
			Message: "department_id must be a valid UUID",
		}}
	}
	return nil
}

type BoardSummary struct {
	Total         int `json:"total"`
	Active        int `json:"active"`
	OnBreak       int `json:"on_break"`
	Early         int `json:"early"`
	OnTime        int `json:"on_time"`
	Late          int `json:"late"`
	Absent        int `json:"absent"`
	Pending       int `json:"pending"`
	NotApplicable int `json:"not_applicable"`
}

// Count adds one employee's status to the summary.
func (s *BoardSummary) Count(st StatusResponse) {
	s.Total++
	if st.Metrics.IsActive {
		s.Active++
	}
	if st.Metrics.IsOnBreak {
		s.OnBreak++
	}
	switch st.Adherence {
	case AdherenceEarly:
		s.Early++
	case AdherenceOnTime:
		s.OnTime++
	case AdherenceLate:
		s.Late++
	case AdherenceAbsent:
		s.Absent++
	case AdherencePending:
		s.Pending++
	default:
		s.NotApplicable++
	}
}

type TeamBoardResponse struct {
	Date      string           `json:"date"`
	Timezone  string           `json:"timezone"`
	Summary   BoardSummary     `json:"summary"`
	Employees []StatusResponse `json:"employees"`
}

// ========================================
// SHIFT REPORT DTOs
// ========================================

type ShiftReportFilter struct {
	StartDate    string
	EndDate      string
	EmployeeID   *string
	DepartmentID *string

	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

func (f *ShiftReportFilter) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validateRange(f.StartDate, f.EndDate, &f.Start, &f.End)...)

	if f.EmployeeID != nil && !validator.IsValidUUID(*f.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}
	if f.DepartmentID != nil && !validator.IsValidUUID(*f.DepartmentID) {
		errs = append(errs, validator.ValidationError{
			Field:   "department_id",
			Message: "department_id must be a valid UUID",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type MyShiftFilter struct {
	StartDate string
	EndDate   string

	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

func (f *MyShiftFilter) Validate() error {
	if errs := validateRange(f.StartDate, f.EndDate, &f.Start, &f.End); len(errs) > 0 {
		return errs
	}
	return nil
}

func validateRange(startStr, endStr string, start, end *time.Time) validator.ValidationErrors {
	var errs validator.ValidationErrors

	s, okStart := validator.IsValidDate(startStr)
	if !okStart {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}
	e, okEnd := validator.IsValidDate(endStr)
	if !okEnd {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}
	if okStart && okEnd {
		if e.Before(s) {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must not be before start_date",
			})
		} else if validator.DaysBetween(s, e) > MaxReportRangeDays {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "date range must not exceed 62 days",
			})
		}
		*start, *end = s, e
	}
	return errs
}

type ShiftReportRow struct {
	ShiftRecord
	DepartmentID *string        `json:"department_id"`
	Arrival      *ArrivalResult `json:"arrival"`
}

type ShiftReportResponse struct {
	StartDate    string           `json:"start_date"`
	EndDate      string           `json:"end_date"`
	Timezone     string           `json:"timezone"`
	TotalSeconds int64            `json:"total_seconds"`
	Shifts       []ShiftReportRow `json:"shifts"`
	Anomalies    Anomalies        `json:"anomalies"`
}

// ========================================
// ABSENCE DTOs
// ========================================

type MarkAbsentRequest struct {
	EmployeeID string  `json:"employee_id"`
	Date       *string `json:"date"`
	Reason     string  `json:"reason"`
	Force      bool    `json:"force"`
}

func (r *MarkAbsentRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}
	if r.Date != nil {
		if _, ok := validator.IsValidDate(*r.Date); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	} else if !validator.MaxLength(r.Reason, 500) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 500 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AbsenceResponse struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	Date       string    `json:"date"`
	Reason     string    `json:"reason"`
	MarkedBy   string    `json:"marked_by"`
	Forced     bool      `json:"forced"`
	CreatedAt  time.Time `json:"created_at"`
}
