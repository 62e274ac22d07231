package attendance

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType is the kind of a punch. The set is closed.
type EventType string

const (
	EventSignIn     EventType = "sign_in"
	EventSignOut    EventType = "sign_out"
	EventBreakStart EventType = "break_start"
	EventBreakEnd   EventType = "break_end"
)

var eventTypes = []EventType{EventSignIn, EventSignOut, EventBreakStart, EventBreakEnd}

// IsValid reports whether t is one of the four known punch types.
func (t EventType) IsValid() bool {
	for _, et := range eventTypes {
		if t == et {
			return true
		}
	}
	return false
}

// ParseEventType converts a raw value to an EventType.
func ParseEventType(s string) (EventType, error) {
	t := EventType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownEventType, s)
	}
	return t, nil
}

// Punch sources
const (
	SourceQR     = "qr"
	SourceManual = "manual"
)

// PunchEvent is an immutable attendance fact. A zero Timestamp marks an
// event whose stored timestamp could not be read.
type PunchEvent struct {
	ID         string
	EmployeeID string
	CompanyID  string
	EventType  EventType
	Timestamp  time.Time
	Source     string
	Note       *string
	CreatedBy  *string
	CreatedAt  time.Time

	// DTO
	EmployeeName string
}

// BreakPeriod is one break inside a shift entry. End is nil while the break
// is still open at the end of the event stream.
type BreakPeriod struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// ShiftEntry is a single in/out pair. Either side may be nil: In is nil for an
// orphaned sign-out, Out is nil for an abandoned or still running sign-in.
type ShiftEntry struct {
	In              *time.Time    `json:"in"`
	Out             *time.Time    `json:"out"`
	Breaks          []BreakPeriod `json:"breaks"`
	DurationSeconds int64         `json:"duration_seconds"`
	BreakSeconds    int64         `json:"break_seconds"`
	Incomplete      bool          `json:"incomplete"`
	Ongoing         bool          `json:"ongoing"`
	WasCapped       bool          `json:"was_capped"`
}

// IsComplete reports whether both ends of the entry are known.
func (e ShiftEntry) IsComplete() bool {
	return e.In != nil && e.Out != nil
}

// IsOrphan reports whether the entry comes from a sign-out with no sign-in.
func (e ShiftEntry) IsOrphan() bool {
	return e.In == nil && e.Out != nil
}

// ShiftRecord groups the entries of one employee on one anchor date.
type ShiftRecord struct {
	EmployeeID   string       `json:"employee_id"`
	EmployeeName string       `json:"employee_name"`
	AnchorDate   string       `json:"anchor_date"`
	Entries      []ShiftEntry `json:"entries"`
	TotalSeconds int64        `json:"total_seconds"`
	WasCapped    bool         `json:"was_capped"`
}

// Activity is the last punch seen by the metrics walk.
type Activity struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// LiveMetrics is a point-in-time view of one employee's punches.
type LiveMetrics struct {
	EmployeeID      string    `json:"employee_id"`
	WorkSeconds     int64     `json:"work_seconds"`
	BreakSeconds    int64     `json:"break_seconds"`
	OvertimeSeconds int64     `json:"overtime_seconds"`
	IsActive        bool      `json:"is_active"`
	IsOnBreak       bool      `json:"is_on_break"`
	LastActivity    *Activity `json:"last_activity"`
	WasCapped       bool      `json:"was_capped"`
}

// IsSignedIn reports whether the employee is currently clocked in, working or
// on break.
func (m LiveMetrics) IsSignedIn() bool {
	return m.IsActive || m.IsOnBreak
}

// AdherenceStatus classifies arrival against the department schedule. The
// zero value means not applicable and renders as JSON null.
type AdherenceStatus string

const (
	AdherenceNone    AdherenceStatus = ""
	AdherenceEarly   AdherenceStatus = "early"
	AdherenceOnTime  AdherenceStatus = "on_time"
	AdherenceLate    AdherenceStatus = "late"
	AdherenceAbsent  AdherenceStatus = "absent"
	AdherencePending AdherenceStatus = "pending"
)

func (s AdherenceStatus) MarshalJSON() ([]byte, error) {
	if s == AdherenceNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

func (s *AdherenceStatus) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = AdherenceNone
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = AdherenceStatus(raw)
	return nil
}

// ArrivalResult classifies a single sign-in against a schedule window.
type ArrivalResult struct {
	Status       AdherenceStatus `json:"status"`
	LateMinutes  int             `json:"late_minutes"`
	EarlyMinutes int             `json:"early_minutes"`
}

// Anomalies counts events that were skipped or handled by a fallback rule.
type Anomalies struct {
	Malformed        int `json:"malformed"`
	OrphanedSignOuts int `json:"orphaned_sign_outs"`
	DuplicateSignIns int `json:"duplicate_sign_ins"`
	UnmatchedBreaks  int `json:"unmatched_breaks"`
	CappedIntervals  int `json:"capped_intervals"`
}

func (a Anomalies) Total() int {
	return a.Malformed + a.OrphanedSignOuts + a.DuplicateSignIns + a.UnmatchedBreaks + a.CappedIntervals
}

// Add merges b into a.
func (a *Anomalies) Add(b Anomalies) {
	a.Malformed += b.Malformed
	a.OrphanedSignOuts += b.OrphanedSignOuts
	a.DuplicateSignIns += b.DuplicateSignIns
	a.UnmatchedBreaks += b.UnmatchedBreaks
	a.CappedIntervals += b.CappedIntervals
}

// TimeOfDay is a wall clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay accepts "15:04" or "15:04:05".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
}

// On returns the instant of t on the calendar date of day in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, t.Second, 0, loc)
}

func (t TimeOfDay) Before(o TimeOfDay) bool {
	return t.seconds() < o.seconds()
}

func (t TimeOfDay) seconds() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ScheduleWindow is a department's daily shift. ShiftEnd before ShiftStart
// means the shift crosses midnight.
type ScheduleWindow struct {
	ShiftStart         TimeOfDay `json:"shift_start"`
	ShiftEnd           TimeOfDay `json:"shift_end"`
	GracePeriodMinutes int       `json:"grace_period_minutes"`
}

// IsOvernight reports whether the window ends on the next calendar day.
func (w ScheduleWindow) IsOvernight() bool {
	return w.ShiftEnd.Before(w.ShiftStart)
}

// AbsenceOverride is a manual absent flag set by a manager for one date.
type AbsenceOverride struct {
	ID         string
	EmployeeID string
	CompanyID  string
	Date       string
	Reason     string
	MarkedBy   string
	Forced     bool
	CreatedAt  time.Time
}
