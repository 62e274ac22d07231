package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type shiftScheduleRepositoryImpl struct {
	db *database.DB
}

func NewShiftScheduleRepository(db *database.DB) schedule.ShiftScheduleRepository {
	return &shiftScheduleRepositoryImpl{db: db}
}

func toPgTime(t attendance.TimeOfDay) pgtype.Time {
	us := (int64(t.Hour)*3600 + int64(t.Minute)*60 + int64(t.Second)) * int64(time.Second/time.Microsecond)
	return pgtype.Time{Microseconds: us, Valid: true}
}

func fromPgTime(t pgtype.Time) attendance.TimeOfDay {
	secs := t.Microseconds / int64(time.Second/time.Microsecond)
	return attendance.TimeOfDay{
		Hour:   int(secs / 3600),
		Minute: int(secs % 3600 / 60),
		Second: int(secs % 60),
	}
}

func scanShiftSchedule(row pgx.Row) (schedule.ShiftSchedule, error) {
	var (
		s          schedule.ShiftSchedule
		start, end pgtype.Time
	)
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.DepartmentID, &start, &end,
		&s.GracePeriodMinutes, &s.CreatedAt, &s.UpdatedAt, &s.DepartmentName,
	)
	if err != nil {
		return schedule.ShiftSchedule{}, err
	}
	s.ShiftStart = fromPgTime(start)
	s.ShiftEnd = fromPgTime(end)
	return s, nil
}

const shiftScheduleColumns = `
	s.id, s.company_id, s.department_id, s.shift_start, s.shift_end,
	s.grace_period_minutes, s.created_at, s.updated_at, d.name
`

// GetByDepartment implements schedule.ShiftScheduleRepository.
func (r *shiftScheduleRepositoryImpl) GetByDepartment(ctx context.Context, companyID string, departmentID string) (schedule.ShiftSchedule, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + shiftScheduleColumns + `
		FROM shift_schedules s
		JOIN departments d ON d.id = s.department_id
		WHERE s.company_id = $1 AND s.department_id = $2
	`

	s, err := scanShiftSchedule(q.QueryRow(ctx, query, companyID, departmentID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return schedule.ShiftSchedule{}, schedule.ErrScheduleNotFound
		}
		return schedule.ShiftSchedule{}, fmt.Errorf("failed to get shift schedule of department %s: %w", departmentID, err)
	}

	return s, nil
}

// ListByCompany implements schedule.ShiftScheduleRepository.
func (r *shiftScheduleRepositoryImpl) ListByCompany(ctx context.Context, companyID string) ([]schedule.ShiftSchedule, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + shiftScheduleColumns + `
		FROM shift_schedules s
		JOIN departments d ON d.id = s.department_id
		WHERE s.company_id = $1
		ORDER BY d.name ASC
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shift schedules: %w", err)
	}
	defer rows.Close()

	schedules := make([]schedule.ShiftSchedule, 0)
	for rows.Next() {
		s, err := scanShiftSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift schedule: %w", err)
		}
		schedules = append(schedules, s)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return schedules, nil
}

// Upsert implements schedule.ShiftScheduleRepository.
func (r *shiftScheduleRepositoryImpl) Upsert(ctx context.Context, s schedule.ShiftSchedule) (schedule.ShiftSchedule, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM departments WHERE id = $1 AND company_id = $2)`,
		s.DepartmentID, s.CompanyID,
	).Scan(&exists)
	if err != nil {
		return schedule.ShiftSchedule{}, fmt.Errorf("failed to check department: %w", err)
	}
	if !exists {
		return schedule.ShiftSchedule{}, schedule.ErrDepartmentNotFound
	}

	query := `
		INSERT INTO shift_schedules (company_id, department_id, shift_start, shift_end, grace_period_minutes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (department_id) DO UPDATE
		SET shift_start = EXCLUDED.shift_start,
			shift_end = EXCLUDED.shift_end,
			grace_period_minutes = EXCLUDED.grace_period_minutes,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		s.CompanyID, s.DepartmentID, toPgTime(s.ShiftStart), toPgTime(s.ShiftEnd), s.GracePeriodMinutes,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return schedule.ShiftSchedule{}, fmt.Errorf("failed to upsert shift schedule: %w", err)
	}

	return r.GetByDepartment(ctx, s.CompanyID, s.DepartmentID)
}
