package timeclock

import (
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
)

// AdherenceInput is everything ClassifyAdherence looks at. TodaysEvents are
// the employee's punches on the local date of Now.
type AdherenceInput struct {
	Metrics        attendance.LiveMetrics
	Schedule       *attendance.ScheduleWindow
	TodaysEvents   []attendance.PunchEvent
	Now            time.Time
	Timezone       string
	ManuallyAbsent bool
}

// ClassifyAdherence applies the adherence rules in order; the first match
// wins. AdherenceNone is returned when the department has no schedule.
func (e *Engine) ClassifyAdherence(in AdherenceInput) (attendance.AdherenceStatus, error) {
	loc, err := LoadLocation(in.Timezone)
	if err != nil {
		return attendance.AdherenceNone, err
	}

	if in.ManuallyAbsent {
		return attendance.AdherenceAbsent, nil
	}
	if in.Schedule == nil {
		return attendance.AdherenceNone, nil
	}
	if in.Metrics.IsSignedIn() {
		return attendance.AdherenceOnTime, nil
	}

	if earliestSignIn(in.TodaysEvents) != nil {
		// Showed up at some point today and has signed out since.
		return attendance.AdherenceOnTime, nil
	}

	// Early is only reported per sign-in, by ClassifyArrival.
	shiftStart := in.Schedule.ShiftStart.On(in.Now, loc)
	switch {
	case in.Now.Before(shiftStart.Add(e.grace(*in.Schedule))):
		return attendance.AdherencePending, nil
	case in.Now.Before(shiftStart.Add(e.policy.AbsenceThreshold)):
		return attendance.AdherenceLate, nil
	default:
		return attendance.AdherenceAbsent, nil
	}
}

// IsEligibleForAbsentMarking reports whether a manager may mark the employee
// absent: the status must be late and the local clock past the cutoff hour.
func (e *Engine) IsEligibleForAbsentMarking(status attendance.AdherenceStatus, now time.Time, timezone string) (bool, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return false, err
	}
	return status == attendance.AdherenceLate && now.In(loc).Hour() >= e.policy.AbsentEligibilityHour, nil
}

// ClassifyArrival compares a sign-in with the shift start of the day it
// belongs to. For overnight windows a sign-in before the shift end is counted
// against the previous day's start.
func (e *Engine) ClassifyArrival(signIn time.Time, window attendance.ScheduleWindow, timezone string) (attendance.ArrivalResult, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return attendance.ArrivalResult{}, err
	}

	day := signIn.In(loc)
	local := attendance.TimeOfDay{Hour: day.Hour(), Minute: day.Minute(), Second: day.Second()}
	if window.IsOvernight() && local.Before(window.ShiftEnd) {
		day = day.AddDate(0, 0, -1)
	}
	shiftStart := window.ShiftStart.On(day, loc)

	if signIn.Before(shiftStart.Add(-e.policy.EarlyArrivalThreshold)) {
		return attendance.ArrivalResult{
			Status:       attendance.AdherenceEarly,
			EarlyMinutes: int(shiftStart.Sub(signIn).Minutes()),
		}, nil
	}
	if signIn.After(shiftStart.Add(e.grace(window))) {
		return attendance.ArrivalResult{
			Status:      attendance.AdherenceLate,
			LateMinutes: int(signIn.Sub(shiftStart).Minutes()),
		}, nil
	}
	return attendance.ArrivalResult{Status: attendance.AdherenceOnTime}, nil
}

func (e *Engine) grace(window attendance.ScheduleWindow) time.Duration {
	minutes := window.GracePeriodMinutes
	if minutes < 0 {
		minutes = e.policy.DefaultGracePeriodMinutes
	}
	return time.Duration(minutes) * time.Minute
}

func earliestSignIn(events []attendance.PunchEvent) *time.Time {
	var first *time.Time
	for _, ev := range events {
		if ev.EventType != attendance.EventSignIn || ev.Timestamp.IsZero() {
			continue
		}
		if first == nil || ev.Timestamp.Before(*first) {
			ts := ev.Timestamp
			first = &ts
		}
	}
	return first
}
