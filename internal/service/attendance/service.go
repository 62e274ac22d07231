package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/messaging"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/tzcache"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/timeclock"
)

type AttendanceServiceImpl struct {
	attendance.PunchRepository
	attendance.AbsenceRepository
	employee.EmployeeRepository
	schedule.ShiftScheduleRepository

	engine    *timeclock.Engine
	zones     *tzcache.Cache
	hub       *sse.Hub
	publisher messaging.Publisher
	runInTx   database.TxRunner
	now       func() time.Time
}

type Option func(*AttendanceServiceImpl)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *AttendanceServiceImpl) {
		s.now = now
	}
}

// WithTxRunner makes punches read and write inside one transaction.
func WithTxRunner(run database.TxRunner) Option {
	return func(s *AttendanceServiceImpl) {
		s.runInTx = run
	}
}

func NewAttendanceService(
	punchRepo attendance.PunchRepository,
	absenceRepo attendance.AbsenceRepository,
	employeeRepo employee.EmployeeRepository,
	scheduleRepo schedule.ShiftScheduleRepository,
	engine *timeclock.Engine,
	zones *tzcache.Cache,
	hub *sse.Hub,
	publisher messaging.Publisher,
	opts ...Option,
) *AttendanceServiceImpl {
	s := &AttendanceServiceImpl{
		PunchRepository:         punchRepo,
		AbsenceRepository:       absenceRepo,
		EmployeeRepository:      employeeRepo,
		ShiftScheduleRepository: scheduleRepo,
		engine:                  engine,
		zones:                   zones,
		hub:                     hub,
		publisher:               publisher,
		runInTx:                 database.NoTx,
		now:                     time.Now,
	}
	if s.publisher == nil {
		s.publisher = messaging.NoopPublisher{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ attendance.AttendanceService = (*AttendanceServiceImpl)(nil)

func requirePermission(claims auth.Claims, perm user.Permission) error {
	if !user.HasPermission(claims.Role, perm) {
		return user.ErrInsufficientPermissions
	}
	return nil
}

// activeEmployee loads an employee of the company and rejects inactive ones.
func (s *AttendanceServiceImpl) activeEmployee(ctx context.Context, id, companyID string) (employee.Employee, error) {
	emp, err := s.EmployeeRepository.GetByID(ctx, id, companyID)
	if err != nil {
		return employee.Employee{}, err
	}
	if !emp.IsActive() {
		return employee.Employee{}, employee.ErrEmployeeInactive
	}
	return emp, nil
}

// scheduleWindows returns the shift window of every department of the company.
func (s *AttendanceServiceImpl) scheduleWindows(ctx context.Context, companyID string) (map[string]attendance.ScheduleWindow, error) {
	schedules, err := s.ShiftScheduleRepository.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shift schedules: %w", err)
	}
	return schedule.WindowsByDepartment(schedules), nil
}

func (s *AttendanceServiceImpl) scheduleWindow(ctx context.Context, companyID string, departmentID *string) (*attendance.ScheduleWindow, error) {
	if departmentID == nil {
		return nil, nil
	}
	sc, err := s.ShiftScheduleRepository.GetByDepartment(ctx, companyID, *departmentID)
	if err != nil {
		if errors.Is(err, schedule.ErrScheduleNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get shift schedule: %w", err)
	}
	w := sc.Window()
	return &w, nil
}

func windowFor(windows map[string]attendance.ScheduleWindow, departmentID *string) *attendance.ScheduleWindow {
	if departmentID == nil {
		return nil
	}
	w, ok := windows[*departmentID]
	if !ok {
		return nil
	}
	return &w
}
