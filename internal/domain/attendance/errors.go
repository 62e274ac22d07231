package attendance

import "errors"

// Attendance domain errors
var (
	// Engine errors
	ErrInvalidTimezone  = errors.New("invalid timezone")
	ErrMixedEmployees   = errors.New("events belong to more than one employee")
	ErrInvalidPolicy    = errors.New("invalid attendance policy")
	ErrUnknownEventType = errors.New("unknown event type")
	ErrInvalidTimeOfDay = errors.New("invalid time of day")

	// Punch errors
	ErrAlreadySignedIn = errors.New("you are already signed in")
	ErrNotSignedIn     = errors.New("you are not signed in")
	ErrAlreadyOnBreak  = errors.New("you are already on a break")
	ErrNotOnBreak      = errors.New("you are not on a break")
	ErrShiftTooLong    = errors.New("shift exceeds the maximum editable duration")
	ErrPunchInFuture   = errors.New("punch timestamp is in the future")

	// Absence errors
	ErrNotEligibleForAbsent = errors.New("employee is not eligible to be marked absent")
	ErrAlreadyMarkedAbsent  = errors.New("employee is already marked absent for this date")

	// General errors
	ErrPunchNotFound = errors.New("punch event not found")
	ErrUnauthorized  = errors.New("unauthorized to access this attendance record")
)
