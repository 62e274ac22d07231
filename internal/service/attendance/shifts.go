package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/timeclock"
)

// GetShiftReport implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetShiftReport(ctx context.Context, filter attendance.ShiftReportFilter) (attendance.ShiftReportResponse, error) {
	claims, err := auth.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.ShiftReportResponse{}, err
	}
	if err := requirePermission(claims, user.PermissionAttendanceViewAll); err != nil {
		return attendance.ShiftReportResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return attendance.ShiftReportResponse{}, err
	}

	if filter.EmployeeID != nil {
		emp, err := s.EmployeeRepository.GetByID(ctx, *filter.EmployeeID, claims.CompanyID)
		if err != nil {
			return attendance.ShiftReportResponse{}, err
		}
		return s.shiftReport(ctx, claims.CompanyID, filter.Start, filter.End, []employee.Employee{emp},
			func(from, to time.Time) ([]attendance.PunchEvent, error) {
				return s.PunchRepository.ListByEmployee(ctx, emp.ID, claims.CompanyID, from, to)
			})
	}

	employees, err := s.EmployeeRepository.ListActive(ctx, claims.CompanyID, filter.DepartmentID)
	if err != nil {
		return attendance.ShiftReportResponse{}, err
	}
	return s.shiftReport(ctx, claims.CompanyID, filter.Start, filter.End, employees,
		func(from, to time.Time) ([]attendance.PunchEvent, error) {
			return s.PunchRepository.ListByCompany(ctx, claims.CompanyID, filter.DepartmentID, from, to)
		})
}

// GetMyShifts implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetMyShifts(ctx context.Context, filter attendance.MyShiftFilter) (attendance.ShiftReportResponse, error) {
	claims, err := auth.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.ShiftReportResponse{}, err
	}
	employeeID, err := claims.RequireEmployee()
	if err != nil {
		return attendance.ShiftReportResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return attendance.ShiftReportResponse{}, err
	}

	emp, err := s.EmployeeRepository.GetByID(ctx, employeeID, claims.CompanyID)
	if err != nil {
		return attendance.ShiftReportResponse{}, err
	}

	return s.shiftReport(ctx, claims.CompanyID, filter.Start, filter.End, []employee.Employee{emp},
		func(from, to time.Time) ([]attendance.PunchEvent, error) {
			return s.PunchRepository.ListByEmployee(ctx, emp.ID, claims.CompanyID, from, to)
		})
}

// shiftReport reconstructs the shifts anchored between start and end. Events
// are fetched from the day before start to two days after end so shifts
// crossing the range edges pair up; records outside the range are dropped.
func (s *AttendanceServiceImpl) shiftReport(
	ctx context.Context,
	companyID string,
	start, end time.Time,
	employees []employee.Employee,
	fetch func(from, to time.Time) ([]attendance.PunchEvent, error),
) (attendance.ShiftReportResponse, error) {
	zone, err := s.zones.Get(ctx, companyID)
	if err != nil {
		return attendance.ShiftReportResponse{}, err
	}

	from, to := timeclock.FetchRange(start, end, zone.Location)
	events, err := fetch(from, to)
	if err != nil {
		return attendance.ShiftReportResponse{}, err
	}

	now := s.now().UTC()
	var records []attendance.ShiftRecord
	var anomalies attendance.Anomalies
	if to.After(now) {
		records, anomalies, err = s.engine.ReconstructShiftsAsOf(events, zone.Name, now)
	} else {
		records, anomalies, err = s.engine.ReconstructShifts(events, zone.Name)
	}
	if err != nil {
		return attendance.ShiftReportResponse{}, err
	}

	windows, err := s.scheduleWindows(ctx, companyID)
	if err != nil {
		return attendance.ShiftReportResponse{}, err
	}
	departments := make(map[string]*string, len(employees))
	for _, emp := range employees {
		departments[emp.ID] = emp.DepartmentID
	}

	startDate, endDate := start.Format(dateLayout), end.Format(dateLayout)
	resp := attendance.ShiftReportResponse{
		StartDate: startDate,
		EndDate:   endDate,
		Timezone:  zone.Name,
		Shifts:    make([]attendance.ShiftReportRow, 0, len(records)),
		Anomalies: anomalies,
	}
	for _, rec := range records {
		if rec.AnchorDate < startDate || rec.AnchorDate > endDate {
			continue
		}
		deptID, known := departments[rec.EmployeeID]
		if !known {
			continue
		}

		row := attendance.ShiftReportRow{ShiftRecord: rec, DepartmentID: deptID}
		if w := windowFor(windows, deptID); w != nil {
			if in := firstSignIn(rec); in != nil {
				arrival, err := s.engine.ClassifyArrival(*in, *w, zone.Name)
				if err != nil {
					return attendance.ShiftReportResponse{}, fmt.Errorf("failed to classify arrival: %w", err)
				}
				row.Arrival = &arrival
			}
		}

		resp.TotalSeconds += rec.TotalSeconds
		resp.Shifts = append(resp.Shifts, row)
	}

	return resp, nil
}

func firstSignIn(rec attendance.ShiftRecord) *time.Time {
	var first *time.Time
	for _, e := range rec.Entries {
		if e.In != nil && (first == nil || e.In.Before(*first)) {
			first = e.In
		}
	}
	return first
}
