package schedule

import "errors"

var (
	ErrScheduleNotFound   = errors.New("shift schedule not found")
	ErrDepartmentNotFound = errors.New("department not found")
)
