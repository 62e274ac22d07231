package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `
	e.id, e.user_id, e.company_id, e.department_id, e.employee_code, e.full_name,
	e.role, e.employment_status, e.created_at, e.updated_at, d.name
`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var emp employee.Employee
	err := row.Scan(
		&emp.ID, &emp.UserID, &emp.CompanyID, &emp.DepartmentID, &emp.EmployeeCode, &emp.FullName,
		&emp.Role, &emp.EmploymentStatus, &emp.CreatedAt, &emp.UpdatedAt, &emp.DepartmentName,
	)
	return emp, err
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + `
		FROM employees e
		LEFT JOIN departments d ON d.id = e.department_id
		WHERE e.id = $1 AND e.company_id = $2 AND e.deleted_at IS NULL
	`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee with id %s: %w", id, err)
	}

	return emp, nil
}

// LockForUpdate implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) LockForUpdate(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, e.db)

	var lockedID string
	err := q.QueryRow(ctx, `
		SELECT id FROM employees
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
		FOR UPDATE
	`, id, companyID).Scan(&lockedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return employee.ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to lock employee with id %s: %w", id, err)
	}

	return nil
}

// ListActive implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActive(ctx context.Context, companyID string, departmentID *string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + `
		FROM employees e
		LEFT JOIN departments d ON d.id = e.department_id
		WHERE e.company_id = $1
		  AND e.employment_status = $2
		  AND e.deleted_at IS NULL
		  AND ($3::uuid IS NULL OR e.department_id = $3::uuid)
		ORDER BY e.full_name ASC, e.id ASC
	`

	return e.list(ctx, q, query, companyID, employee.EmploymentStatusActive, departmentID)
}

// ListManagers implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListManagers(ctx context.Context, companyID string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + `
		FROM employees e
		LEFT JOIN departments d ON d.id = e.department_id
		WHERE e.company_id = $1
		  AND e.employment_status = $2
		  AND e.deleted_at IS NULL
		  AND e.user_id IS NOT NULL
		  AND e.role IN ('admin', 'manager')
		ORDER BY e.full_name ASC
	`

	return e.list(ctx, q, query, companyID, employee.EmploymentStatusActive)
}

// ListCompanyIDs implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListCompanyIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, e.db)

	rows, err := q.Query(ctx, `
		SELECT DISTINCT company_id FROM employees
		WHERE employment_status = $1 AND deleted_at IS NULL
		ORDER BY company_id
	`, employee.EmploymentStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies with active employees: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

func (e *employeeRepositoryImpl) list(ctx context.Context, q database.Querier, query string, args ...interface{}) ([]employee.Employee, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	employees := make([]employee.Employee, 0)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}
