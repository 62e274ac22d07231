package attendance

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/tzcache"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/timeclock"
)

// GetMyStatus implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetMyStatus(ctx context.Context) (attendance.StatusResponse, error) {
	claims, err := auth.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.StatusResponse{}, err
	}
	employeeID, err := claims.RequireEmployee()
	if err != nil {
		return attendance.StatusResponse{}, err
	}

	emp, err := s.EmployeeRepository.GetByID(ctx, employeeID, claims.CompanyID)
	if err != nil {
		return attendance.StatusResponse{}, err
	}
	return s.employeeStatus(ctx, emp)
}

// GetEmployeeStatus implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetEmployeeStatus(ctx context.Context, employeeID string) (attendance.StatusResponse, error) {
	claims, err := auth.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.StatusResponse{}, err
	}
	if err := requirePermission(claims, user.PermissionAttendanceViewAll); err != nil {
		return attendance.StatusResponse{}, err
	}
	if !validator.IsValidUUID(employeeID) {
		return attendance.StatusResponse{}, validator.ValidationErrors{{
			Field:   "id",
			Message: "employee id must be a valid UUID",
		}}
	}

	emp, err := s.EmployeeRepository.GetByID(ctx, employeeID, claims.CompanyID)
	if err != nil {
		return attendance.StatusResponse{}, err
	}
	return s.employeeStatus(ctx, emp)
}

// employeeStatus loads everything needed for one employee's live status.
func (s *AttendanceServiceImpl) employeeStatus(ctx context.Context, emp employee.Employee) (attendance.StatusResponse, error) {
	zone, err := s.zones.Get(ctx, emp.CompanyID)
	if err != nil {
		return attendance.StatusResponse{}, err
	}
	now := s.now().UTC()
	dayStart, dayEnd := dayBounds(now, zone.Location)
	maxDuration := s.engine.Policy().MaxDuration

	events, err := s.PunchRepository.ListByEmployee(ctx, emp.ID, emp.CompanyID, dayStart.Add(-maxDuration), dayEnd)
	if err != nil {
		return attendance.StatusResponse{}, err
	}

	window, err := s.scheduleWindow(ctx, emp.CompanyID, emp.DepartmentID)
	if err != nil {
		return attendance.StatusResponse{}, err
	}

	date := dayStart.Format(dateLayout)
	absent, err := s.AbsenceRepository.Exists(ctx, emp.ID, emp.CompanyID, date)
	if err != nil {
		return attendance.StatusResponse{}, fmt.Errorf("failed to check absence: %w", err)
	}

	return s.buildStatus(emp, zone, now, dayStart, events, window, absent)
}

// buildStatus runs the engine over one employee's events. events must start
// at least MaxDuration before dayStart.
func (s *AttendanceServiceImpl) buildStatus(
	emp employee.Employee,
	zone tzcache.Zone,
	now, dayStart time.Time,
	events []attendance.PunchEvent,
	window *attendance.ScheduleWindow,
	manuallyAbsent bool,
) (attendance.StatusResponse, error) {
	scoped, todays := scopeToDay(events, dayStart, s.engine.Policy().MaxDuration)

	metrics, anomalies, err := s.engine.ComputeLiveMetrics(scoped, zone.Name, now)
	if err != nil {
		return attendance.StatusResponse{}, err
	}
	metrics.EmployeeID = emp.ID

	adherence, err := s.engine.ClassifyAdherence(timeclock.AdherenceInput{
		Metrics:        metrics,
		Schedule:       window,
		TodaysEvents:   todays,
		Now:            now,
		Timezone:       zone.Name,
		ManuallyAbsent: manuallyAbsent,
	})
	if err != nil {
		return attendance.StatusResponse{}, err
	}

	eligible := false
	if !manuallyAbsent {
		eligible, err = s.engine.IsEligibleForAbsentMarking(adherence, now, zone.Name)
		if err != nil {
			return attendance.StatusResponse{}, err
		}
	}

	return attendance.StatusResponse{
		EmployeeID:        emp.ID,
		EmployeeName:      emp.FullName,
		DepartmentID:      emp.DepartmentID,
		Date:              dayStart.Format(dateLayout),
		Timezone:          zone.Name,
		Metrics:           metrics,
		Adherence:         adherence,
		EligibleForAbsent: eligible,
		ManuallyAbsent:    manuallyAbsent,
		Schedule:          window,
		Anomalies:         anomalies,
	}, nil
}

// GetTeamBoard implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetTeamBoard(ctx context.Context, filter attendance.TeamBoardFilter) (attendance.TeamBoardResponse, error) {
	claims, err := auth.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.TeamBoardResponse{}, err
	}
	if err := requirePermission(claims, user.PermissionAttendanceViewAll); err != nil {
		return attendance.TeamBoardResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return attendance.TeamBoardResponse{}, err
	}

	return s.EvaluateCompanyBoard(ctx, claims.CompanyID, filter.DepartmentID)
}

// EvaluateCompanyBoard computes the live status of every active employee of a
// company. It trusts companyID and is used by background jobs as well.
func (s *AttendanceServiceImpl) EvaluateCompanyBoard(ctx context.Context, companyID string, departmentID *string) (attendance.TeamBoardResponse, error) {
	zone, err := s.zones.Get(ctx, companyID)
	if err != nil {
		return attendance.TeamBoardResponse{}, err
	}
	now := s.now().UTC()
	dayStart, dayEnd := dayBounds(now, zone.Location)
	date := dayStart.Format(dateLayout)

	employees, err := s.EmployeeRepository.ListActive(ctx, companyID, departmentID)
	if err != nil {
		return attendance.TeamBoardResponse{}, err
	}

	events, err := s.PunchRepository.ListByCompany(ctx, companyID, departmentID, dayStart.Add(-s.engine.Policy().MaxDuration), dayEnd)
	if err != nil {
		return attendance.TeamBoardResponse{}, err
	}
	byEmployee := groupByEmployee(events)

	windows, err := s.scheduleWindows(ctx, companyID)
	if err != nil {
		return attendance.TeamBoardResponse{}, err
	}

	absentIDs, err := s.AbsenceRepository.ListEmployeeIDsByDate(ctx, companyID, date)
	if err != nil {
		return attendance.TeamBoardResponse{}, fmt.Errorf("failed to list absences: %w", err)
	}

	resp := attendance.TeamBoardResponse{
		Date:      date,
		Timezone:  zone.Name,
		Employees: make([]attendance.StatusResponse, 0, len(employees)),
	}
	for _, emp := range employees {
		st, err := s.buildStatus(emp, zone, now, dayStart, byEmployee[emp.ID], windowFor(windows, emp.DepartmentID), slices.Contains(absentIDs, emp.ID))
		if err != nil {
			return attendance.TeamBoardResponse{}, err
		}
		resp.Summary.Count(st)
		resp.Employees = append(resp.Employees, st)
	}

	return resp, nil
}
