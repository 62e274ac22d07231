package schedule

import "context"

type ShiftScheduleRepository interface {
	// GetByDepartment returns ErrScheduleNotFound when the department has no window configured.
	GetByDepartment(ctx context.Context, companyID string, departmentID string) (ShiftSchedule, error)

	ListByCompany(ctx context.Context, companyID string) ([]ShiftSchedule, error)

	// Upsert creates or replaces the window of a department.
	Upsert(ctx context.Context, s ShiftSchedule) (ShiftSchedule, error)
}
