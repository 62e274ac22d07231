package report

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/tzcache"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/timeclock"
)

const dateLayout = "2006-01-02"

type ReportServiceImpl struct {
	attendance.PunchRepository
	attendance.AbsenceRepository
	employee.EmployeeRepository
	schedule.ShiftScheduleRepository

	engine *timeclock.Engine
	zones  *tzcache.Cache
	now    func() time.Time
}

func NewReportService(
	punchRepo attendance.PunchRepository,
	absenceRepo attendance.AbsenceRepository,
	employeeRepo employee.EmployeeRepository,
	scheduleRepo schedule.ShiftScheduleRepository,
	engine *timeclock.Engine,
	zones *tzcache.Cache,
	opts ...Option,
) *ReportServiceImpl {
	s := &ReportServiceImpl{
		PunchRepository:         punchRepo,
		AbsenceRepository:       absenceRepo,
		EmployeeRepository:      employeeRepo,
		ShiftScheduleRepository: scheduleRepo,
		engine:                  engine,
		zones:                   zones,
		now:                     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Option func(*ReportServiceImpl)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *ReportServiceImpl) {
		s.now = now
	}
}

var _ report.ReportService = (*ReportServiceImpl)(nil)

// GetMonthlyAttendanceReport implements report.ReportService.
func (s *ReportServiceImpl) GetMonthlyAttendanceReport(ctx context.Context, req report.MonthlyAttendanceReportRequest) (report.MonthlyAttendanceReport, error) {
	if err := req.Validate(); err != nil {
		return report.MonthlyAttendanceReport{}, err
	}

	claims, err := auth.ClaimsFromContext(ctx)
	if err != nil {
		return report.MonthlyAttendanceReport{}, err
	}
	if !user.HasPermission(claims.Role, user.PermissionReportsView) {
		return report.MonthlyAttendanceReport{}, user.ErrInsufficientPermissions
	}

	zone, err := s.zones.Get(ctx, claims.CompanyID)
	if err != nil {
		return report.MonthlyAttendanceReport{}, err
	}

	periodStart, periodEnd := req.Period()
	startDate, endDate := periodStart.Format(dateLayout), periodEnd.Format(dateLayout)

	from, to := timeclock.FetchRange(periodStart, periodEnd, zone.Location)

	employees, err := s.EmployeeRepository.ListActive(ctx, claims.CompanyID, req.DepartmentID)
	if err != nil {
		return report.MonthlyAttendanceReport{}, err
	}

	events, err := s.PunchRepository.ListByCompany(ctx, claims.CompanyID, req.DepartmentID, from, to)
	if err != nil {
		return report.MonthlyAttendanceReport{}, err
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
		return report.MonthlyAttendanceReport{}, err
	}

	absences, err := s.AbsenceRepository.ListByDateRange(ctx, claims.CompanyID, startDate, endDate)
	if err != nil {
		return report.MonthlyAttendanceReport{}, fmt.Errorf("failed to list absences: %w", err)
	}

	schedules, err := s.ShiftScheduleRepository.ListByCompany(ctx, claims.CompanyID)
	if err != nil {
		return report.MonthlyAttendanceReport{}, fmt.Errorf("failed to list shift schedules: %w", err)
	}
	windows := schedule.WindowsByDepartment(schedules)

	rows := make([]report.MonthlyAttendanceEmployee, len(employees))
	index := make(map[string]int, len(employees))
	for i, emp := range employees {
		rows[i] = report.MonthlyAttendanceEmployee{
			EmployeeID:     emp.ID,
			EmployeeName:   emp.FullName,
			EmployeeCode:   emp.EmployeeCode,
			DepartmentID:   emp.DepartmentID,
			DepartmentName: emp.DepartmentName,
			DailyLogs:      []report.AttendanceDailyLog{},
		}
		index[emp.ID] = i
	}

	for _, rec := range records {
		if rec.AnchorDate < startDate || rec.AnchorDate > endDate {
			continue
		}
		i, ok := index[rec.EmployeeID]
		if !ok {
			continue
		}

		var window *attendance.ScheduleWindow
		if dept := employees[i].DepartmentID; dept != nil {
			if w, ok := windows[*dept]; ok {
				window = &w
			}
		}

		log, err := s.dailyLog(rec, window, zone)
		if err != nil {
			return report.MonthlyAttendanceReport{}, err
		}
		addToSummary(&rows[i].Summary, rec, log)
		rows[i].DailyLogs = append(rows[i].DailyLogs, log)
	}

	for _, a := range absences {
		i, ok := index[a.EmployeeID]
		if !ok {
			continue
		}
		rows[i].Summary.AbsentDays++

		j := slices.IndexFunc(rows[i].DailyLogs, func(l report.AttendanceDailyLog) bool { return l.Date == a.Date })
		if j >= 0 {
			rows[i].DailyLogs[j].Absent = true
			continue
		}
		day, err := time.ParseInLocation(dateLayout, a.Date, zone.Location)
		if err != nil {
			return report.MonthlyAttendanceReport{}, fmt.Errorf("failed to parse absence date %q: %w", a.Date, err)
		}
		rows[i].DailyLogs = append(rows[i].DailyLogs, report.AttendanceDailyLog{
			Date:      a.Date,
			DayOfWeek: day.Weekday().String(),
			Absent:    true,
		})
	}

	for i := range rows {
		slices.SortFunc(rows[i].DailyLogs, func(a, b report.AttendanceDailyLog) int {
			return cmp.Compare(a.Date, b.Date)
		})
	}

	return report.MonthlyAttendanceReport{
		PeriodMonth: req.Month,
		PeriodYear:  req.Year,
		PeriodStart: startDate,
		PeriodEnd:   endDate,
		Timezone:    zone.Name,
		GeneratedAt: now.In(zone.Location).Format(time.RFC3339),
		Employees:   rows,
		Anomalies:   anomalies,
	}, nil
}

// dailyLog flattens one shift record into a report line.
func (s *ReportServiceImpl) dailyLog(rec attendance.ShiftRecord, window *attendance.ScheduleWindow, zone tzcache.Zone) (report.AttendanceDailyLog, error) {
	day, err := time.ParseInLocation(dateLayout, rec.AnchorDate, zone.Location)
	if err != nil {
		return report.AttendanceDailyLog{}, fmt.Errorf("failed to parse anchor date %q: %w", rec.AnchorDate, err)
	}

	log := report.AttendanceDailyLog{
		Date:         rec.AnchorDate,
		DayOfWeek:    day.Weekday().String(),
		GrossSeconds: rec.TotalSeconds,
		WasCapped:    rec.WasCapped,
	}
	for _, e := range rec.Entries {
		if e.In != nil && (log.FirstIn == nil || e.In.Before(*log.FirstIn)) {
			log.FirstIn = e.In
		}
		if e.Out != nil && (log.LastOut == nil || e.Out.After(*log.LastOut)) {
			log.LastOut = e.Out
		}
		if e.IsComplete() {
			log.BreakSeconds += e.BreakSeconds
		}
		if e.Incomplete {
			log.Incomplete = true
		}
	}
	log.WorkSeconds = max(0, log.GrossSeconds-log.BreakSeconds)
	log.OvertimeSeconds = s.engine.Overtime(log.WorkSeconds)

	if window != nil && log.FirstIn != nil {
		arrival, err := s.engine.ClassifyArrival(*log.FirstIn, *window, zone.Name)
		if err != nil {
			return report.AttendanceDailyLog{}, fmt.Errorf("failed to classify arrival: %w", err)
		}
		log.Arrival = &arrival
	}
	return log, nil
}

func addToSummary(sum *report.AttendanceSummary, rec attendance.ShiftRecord, log report.AttendanceDailyLog) {
	if log.FirstIn != nil {
		sum.ShiftDays++
	}
	sum.WorkSeconds += log.WorkSeconds
	sum.BreakSeconds += log.BreakSeconds
	sum.OvertimeSeconds += log.OvertimeSeconds
	if rec.WasCapped {
		sum.CappedShifts++
	}
	for _, e := range rec.Entries {
		if e.IsOrphan() {
			sum.OrphanedSignOuts++
		} else if e.Incomplete {
			sum.IncompleteEntries++
		}
	}
	if log.Arrival == nil {
		return
	}
	switch log.Arrival.Status {
	case attendance.AdherenceEarly:
		sum.EarlyDays++
	case attendance.AdherenceLate:
		sum.LateDays++
		sum.TotalLateMinutes += log.Arrival.LateMinutes
	}
}
