package attendance

import (
	"context"
	"time"
)

// PunchRepository defines data access for punch events.
// All methods include companyID to prevent cross-company data access.
type PunchRepository interface {
	Create(ctx context.Context, event PunchEvent) (PunchEvent, error)

	GetByID(ctx context.Context, id string, companyID string) (PunchEvent, error)

	Delete(ctx context.Context, id string, companyID string) error

	// ListByEmployee returns punches with from <= timestamp < to, in timestamp order.
	ListByEmployee(ctx context.Context, employeeID string, companyID string, from, to time.Time) ([]PunchEvent, error)

	// ListByCompany returns punches of active employees, optionally restricted to one department.
	ListByCompany(ctx context.Context, companyID string, departmentID *string, from, to time.Time) ([]PunchEvent, error)
}

// AbsenceRepository stores manual absent flags.
type AbsenceRepository interface {
	Create(ctx context.Context, absence AbsenceOverride) (AbsenceOverride, error)

	Exists(ctx context.Context, employeeID string, companyID string, date string) (bool, error)

	// ListEmployeeIDsByDate returns the employees flagged absent on date.
	ListEmployeeIDsByDate(ctx context.Context, companyID string, date string) ([]string, error)

	// ListByDateRange returns overrides with startDate <= date <= endDate.
	ListByDateRange(ctx context.Context, companyID string, startDate, endDate string) ([]AbsenceOverride, error)
}
