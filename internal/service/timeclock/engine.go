// Package timeclock turns raw punch events into shifts, live metrics and
// adherence statuses. Every function is pure: the current time and the
// timezone are always passed in and nothing is cached between calls.
package timeclock

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
)

const dateLayout = "2006-01-02"

type Engine struct {
	policy Policy
}

func NewEngine(policy Policy) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Engine{policy: policy}, nil
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// WithMaxDuration returns a copy of the engine whose interval cap is limit.
// A limit that is not positive or not stricter than the current cap returns e.
func (e *Engine) WithMaxDuration(limit time.Duration) *Engine {
	if limit <= 0 || limit >= e.policy.MaxDuration {
		return e
	}
	p := e.policy
	p.MaxDuration = limit
	if p.EditableShiftCap > limit {
		p.EditableShiftCap = limit
	}
	if p.StandardWorkday > limit {
		p.StandardWorkday = limit
	}
	return &Engine{policy: p}
}

// Editable returns the engine used to validate hand edited shifts.
func (e *Engine) Editable() *Engine {
	return e.WithMaxDuration(e.policy.EditableShiftCap)
}

// CapDuration returns the whole seconds between start and end, clamped to
// the policy maximum. A non-positive interval contributes zero.
func (e *Engine) CapDuration(start, end time.Time) (seconds int64, capped bool) {
	if !end.After(start) {
		return 0, false
	}
	d := end.Sub(start)
	if d > e.policy.MaxDuration {
		return int64(e.policy.MaxDuration / time.Second), true
	}
	return int64(d / time.Second), false
}

// Overtime returns the seconds above the standard workday, bounded by the
// cap minus the standard workday.
func (e *Engine) Overtime(workSeconds int64) int64 {
	over := workSeconds - int64(e.policy.StandardWorkday/time.Second)
	return min(max(0, over), int64(e.policy.overtimeCeiling()/time.Second))
}

// LoadLocation resolves an IANA zone name. The empty name is rejected rather
// than silently mapped to UTC.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" {
		return nil, fmt.Errorf("%w: empty timezone", attendance.ErrInvalidTimezone)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", attendance.ErrInvalidTimezone, timezone, err)
	}
	return loc, nil
}

// FetchRange returns the instants to load punches for when reconstructing the
// local dates start through end. A day before start pairs a sign-out on start
// with its overnight sign-in; two days after end let shifts anchored on end close.
func FetchRange(start, end time.Time, loc *time.Location) (from, to time.Time) {
	from = time.Date(start.Year(), start.Month(), start.Day()-1, 0, 0, 0, 0, loc)
	to = time.Date(end.Year(), end.Month(), end.Day()+2, 0, 0, 0, 0, loc)
	return from, to
}

// LocalDate formats t as YYYY-MM-DD in loc.
func LocalDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}

func isMalformed(ev attendance.PunchEvent) bool {
	return ev.Timestamp.IsZero() || ev.EmployeeID == "" || !ev.EventType.IsValid()
}

// sortEvents drops malformed events and returns a new slice ordered by
// employee then timestamp. Ties keep input order.
func sortEvents(events []attendance.PunchEvent) ([]attendance.PunchEvent, int) {
	sorted := make([]attendance.PunchEvent, 0, len(events))
	malformed := 0
	for _, ev := range events {
		if isMalformed(ev) {
			malformed++
			continue
		}
		sorted = append(sorted, ev)
	}
	slices.SortStableFunc(sorted, func(a, b attendance.PunchEvent) int {
		if c := cmp.Compare(a.EmployeeID, b.EmployeeID); c != 0 {
			return c
		}
		return a.Timestamp.Compare(b.Timestamp)
	})
	return sorted, malformed
}
