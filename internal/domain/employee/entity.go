package employee

import "time"

type EmploymentStatus string

const (
	EmploymentStatusActive   EmploymentStatus = "active"
	EmploymentStatusInactive EmploymentStatus = "inactive"
)

type Employee struct {
	ID               string
	UserID           *string
	CompanyID        string
	DepartmentID     *string
	EmployeeCode     string
	FullName         string
	Role             string
	EmploymentStatus EmploymentStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// DTO
	DepartmentName *string
}

func (e Employee) IsActive() bool {
	return e.EmploymentStatus == EmploymentStatusActive
}
