package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type punchRepositoryImpl struct {
	db *database.DB
}

func NewPunchRepository(db *database.DB) attendance.PunchRepository {
	return &punchRepositoryImpl{db: db}
}

const punchColumns = `
	p.id, p.employee_id, p.company_id, p.event_type, p.occurred_at,
	p.source, p.note, p.created_by, p.created_at, e.full_name
`

func scanPunch(row pgx.Row) (attendance.PunchEvent, error) {
	var ev attendance.PunchEvent
	err := row.Scan(
		&ev.ID, &ev.EmployeeID, &ev.CompanyID, &ev.EventType, &ev.Timestamp,
		&ev.Source, &ev.Note, &ev.CreatedBy, &ev.CreatedAt, &ev.EmployeeName,
	)
	return ev, err
}

// Create implements attendance.PunchRepository.
func (r *punchRepositoryImpl) Create(ctx context.Context, event attendance.PunchEvent) (attendance.PunchEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO punch_events (
			id, employee_id, company_id, event_type, occurred_at, source, note, created_by
		) VALUES (COALESCE($1::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	var id *string
	if event.ID != "" {
		id = &event.ID
	}

	err := q.QueryRow(ctx, query,
		id,
		event.EmployeeID,
		event.CompanyID,
		event.EventType,
		event.Timestamp,
		event.Source,
		event.Note,
		event.CreatedBy,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return attendance.PunchEvent{}, fmt.Errorf("failed to create punch event: %w", err)
	}

	return event, nil
}

// GetByID implements attendance.PunchRepository.
func (r *punchRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (attendance.PunchEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + punchColumns + `
		FROM punch_events p
		JOIN employees e ON e.id = p.employee_id
		WHERE p.id = $1 AND p.company_id = $2
	`

	ev, err := scanPunch(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.PunchEvent{}, attendance.ErrPunchNotFound
		}
		return attendance.PunchEvent{}, fmt.Errorf("failed to get punch event by id: %w", err)
	}

	return ev, nil
}

// Delete implements attendance.PunchRepository.
func (r *punchRepositoryImpl) Delete(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM punch_events WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete punch event with id %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrPunchNotFound
	}

	return nil
}

// ListByEmployee implements attendance.PunchRepository.
func (r *punchRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, companyID string, from, to time.Time) ([]attendance.PunchEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + punchColumns + `
		FROM punch_events p
		JOIN employees e ON e.id = p.employee_id
		WHERE p.employee_id = $1
		  AND p.company_id = $2
		  AND p.occurred_at >= $3
		  AND p.occurred_at < $4
		ORDER BY p.occurred_at ASC, p.created_at ASC
	`

	return r.list(ctx, q, query, employeeID, companyID, from, to)
}

// ListByCompany implements attendance.PunchRepository.
func (r *punchRepositoryImpl) ListByCompany(ctx context.Context, companyID string, departmentID *string, from, to time.Time) ([]attendance.PunchEvent, error) {
	q := GetQuerier(ctx, r.db)

	whereClauses := []string{
		"p.company_id = $1",
		"p.occurred_at >= $2",
		"p.occurred_at < $3",
		"e.employment_status = 'active'",
	}
	args := []interface{}{companyID, from, to}

	if departmentID != nil {
		args = append(args, *departmentID)
		whereClauses = append(whereClauses, fmt.Sprintf("e.department_id = $%d", len(args)))
	}

	query := `SELECT ` + punchColumns + `
		FROM punch_events p
		JOIN employees e ON e.id = p.employee_id
		WHERE ` + strings.Join(whereClauses, " AND ") + `
		ORDER BY p.employee_id, p.occurred_at ASC, p.created_at ASC
	`

	return r.list(ctx, q, query, args...)
}

func (r *punchRepositoryImpl) list(ctx context.Context, q database.Querier, query string, args ...interface{}) ([]attendance.PunchEvent, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list punch events: %w", err)
	}
	defer rows.Close()

	events := make([]attendance.PunchEvent, 0)
	for rows.Next() {
		ev, err := scanPunch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan punch event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate punch events: %w", err)
	}

	return events, nil
}
