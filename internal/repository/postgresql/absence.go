package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5/pgconn"
)

type absenceRepositoryImpl struct {
	db *database.DB
}

func NewAbsenceRepository(db *database.DB) attendance.AbsenceRepository {
	return &absenceRepositoryImpl{db: db}
}

// Create implements attendance.AbsenceRepository.
func (r *absenceRepositoryImpl) Create(ctx context.Context, absence attendance.AbsenceOverride) (attendance.AbsenceOverride, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO absence_overrides (employee_id, company_id, absent_date, reason, marked_by, forced)
		VALUES ($1, $2, $3::date, $4, $5, $6)
		RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query,
		absence.EmployeeID,
		absence.CompanyID,
		absence.Date,
		absence.Reason,
		absence.MarkedBy,
		absence.Forced,
	).Scan(&absence.ID, &absence.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return attendance.AbsenceOverride{}, attendance.ErrAlreadyMarkedAbsent
		}
		return attendance.AbsenceOverride{}, fmt.Errorf("failed to create absence override: %w", err)
	}

	return absence, nil
}

// Exists implements attendance.AbsenceRepository.
func (r *absenceRepositoryImpl) Exists(ctx context.Context, employeeID string, companyID string, date string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM absence_overrides
			WHERE employee_id = $1 AND company_id = $2 AND absent_date = $3::date
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, companyID, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check absence override: %w", err)
	}
	return exists, nil
}

// ListEmployeeIDsByDate implements attendance.AbsenceRepository.
func (r *absenceRepositoryImpl) ListEmployeeIDsByDate(ctx context.Context, companyID string, date string) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT employee_id FROM absence_overrides
		WHERE company_id = $1 AND absent_date = $2::date
	`, companyID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list absent employees: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan absent employee: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListByDateRange implements attendance.AbsenceRepository.
func (r *absenceRepositoryImpl) ListByDateRange(ctx context.Context, companyID string, startDate, endDate string) ([]attendance.AbsenceOverride, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, company_id, to_char(absent_date, 'YYYY-MM-DD'),
			   reason, marked_by, forced, created_at
		FROM absence_overrides
		WHERE company_id = $1 AND absent_date BETWEEN $2::date AND $3::date
		ORDER BY absent_date, employee_id
	`

	rows, err := q.Query(ctx, query, companyID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list absence overrides: %w", err)
	}
	defer rows.Close()

	absences := make([]attendance.AbsenceOverride, 0)
	for rows.Next() {
		var a attendance.AbsenceOverride
		if err := rows.Scan(
			&a.ID, &a.EmployeeID, &a.CompanyID, &a.Date,
			&a.Reason, &a.MarkedBy, &a.Forced, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan absence override: %w", err)
		}
		absences = append(absences, a)
	}
	return absences, rows.Err()
}
