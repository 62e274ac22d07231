package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)

	// LockForUpdate row-locks the employee inside the current transaction so
	// concurrent punches of the same employee are serialised.
	LockForUpdate(ctx context.Context, id string, companyID string) error

	// ListActive returns active employees ordered by full name.
	ListActive(ctx context.Context, companyID string, departmentID *string) ([]Employee, error)

	// ListManagers returns active managers and admins that have a user account.
	ListManagers(ctx context.Context, companyID string) ([]Employee, error)

	// ListCompanyIDs returns every company that has at least one active employee.
	ListCompanyIDs(ctx context.Context) ([]string, error)
}
