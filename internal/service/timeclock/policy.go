package timeclock

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
)

// Policy holds the tunable thresholds of the engine.
type Policy struct {
	// StandardWorkday is the work time after which overtime accrues.
	StandardWorkday time.Duration
	// MaxDuration caps every single work or break interval.
	MaxDuration time.Duration
	// EditableShiftCap is the stricter cap applied when a shift is edited by hand.
	EditableShiftCap time.Duration
	// DefaultGracePeriodMinutes applies when a schedule carries a negative grace period.
	DefaultGracePeriodMinutes int
	// EarlyArrivalThreshold is how far before shift start a sign-in counts as early.
	EarlyArrivalThreshold time.Duration
	// AbsenceThreshold is measured from shift start.
	AbsenceThreshold time.Duration
	// AbsentEligibilityHour is the local hour from which a late employee may be marked absent.
	AbsentEligibilityHour int
}

func DefaultPolicy() Policy {
	return Policy{
		StandardWorkday:           8 * time.Hour,
		MaxDuration:               24 * time.Hour,
		EditableShiftCap:          12 * time.Hour,
		DefaultGracePeriodMinutes: 30,
		EarlyArrivalThreshold:     15 * time.Minute,
		AbsenceThreshold:          4 * time.Hour,
		AbsentEligibilityHour:     12,
	}
}

func (p Policy) Validate() error {
	switch {
	case p.StandardWorkday <= 0:
		return fmt.Errorf("%w: standard workday must be positive", attendance.ErrInvalidPolicy)
	case p.MaxDuration <= 0:
		return fmt.Errorf("%w: max duration must be positive", attendance.ErrInvalidPolicy)
	case p.StandardWorkday > p.MaxDuration:
		return fmt.Errorf("%w: standard workday %s exceeds max duration %s", attendance.ErrInvalidPolicy, p.StandardWorkday, p.MaxDuration)
	case p.EditableShiftCap <= 0 || p.EditableShiftCap > p.MaxDuration:
		return fmt.Errorf("%w: editable shift cap must be within (0, %s]", attendance.ErrInvalidPolicy, p.MaxDuration)
	case p.DefaultGracePeriodMinutes < 0:
		return fmt.Errorf("%w: default grace period must not be negative", attendance.ErrInvalidPolicy)
	case p.EarlyArrivalThreshold < 0:
		return fmt.Errorf("%w: early arrival threshold must not be negative", attendance.ErrInvalidPolicy)
	case p.AbsenceThreshold <= 0:
		return fmt.Errorf("%w: absence threshold must be positive", attendance.ErrInvalidPolicy)
	case p.AbsentEligibilityHour < 0 || p.AbsentEligibilityHour > 23:
		return fmt.Errorf("%w: absent eligibility hour must be between 0 and 23", attendance.ErrInvalidPolicy)
	}
	return nil
}

// overtimeCeiling is the most overtime a single computation may report.
func (p Policy) overtimeCeiling() time.Duration {
	return max(0, p.MaxDuration-p.StandardWorkday)
}
