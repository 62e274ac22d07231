package report

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

// ========================================
// MONTHLY ATTENDANCE REPORT
// ========================================

type MonthlyAttendanceReportRequest struct {
	Month        int     `json:"month"`
	Year         int     `json:"year"`
	DepartmentID *string `json:"department_id"`
}

func (r *MonthlyAttendanceReportRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Month < 1 || r.Month > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}

	currentYear := time.Now().Year()
	if r.Year < 2020 || r.Year > currentYear+1 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: fmt.Sprintf("year must be between 2020 and %d", currentYear+1),
		})
	}

	if r.DepartmentID != nil && !validator.IsValidUUID(*r.DepartmentID) {
		errs = append(errs, validator.ValidationError{
			Field:   "department_id",
			Message: "department_id must be a valid UUID",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Period returns the first and last calendar day of the requested month.
func (r *MonthlyAttendanceReportRequest) Period() (start, end time.Time) {
	start = time.Date(r.Year, time.Month(r.Month), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, -1)
	return start, end
}

type MonthlyAttendanceReport struct {
	PeriodMonth int    `json:"period_month"`
	PeriodYear  int    `json:"period_year"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	Timezone    string `json:"timezone"`
	GeneratedAt string `json:"generated_at"`

	Employees []MonthlyAttendanceEmployee `json:"employees"`
	Anomalies attendance.Anomalies        `json:"anomalies"`
}

type MonthlyAttendanceEmployee struct {
	EmployeeID     string  `json:"employee_id"`
	EmployeeName   string  `json:"employee_name"`
	EmployeeCode   string  `json:"employee_code"`
	DepartmentID   *string `json:"department_id"`
	DepartmentName *string `json:"department_name"`

	Summary   AttendanceSummary    `json:"summary"`
	DailyLogs []AttendanceDailyLog `json:"daily_logs"`
}

type AttendanceSummary struct {
	ShiftDays         int   `json:"shift_days"`
	AbsentDays        int   `json:"absent_days"`
	WorkSeconds       int64 `json:"work_seconds"`
	BreakSeconds      int64 `json:"break_seconds"`
	OvertimeSeconds   int64 `json:"overtime_seconds"`
	EarlyDays         int   `json:"early_days"`
	LateDays          int   `json:"late_days"`
	TotalLateMinutes  int   `json:"total_late_minutes"`
	IncompleteEntries int   `json:"incomplete_entries"`
	OrphanedSignOuts  int   `json:"orphaned_sign_outs"`
	CappedShifts      int   `json:"capped_shifts"`
}

type AttendanceDailyLog struct {
	Date            string                    `json:"date"`
	DayOfWeek       string                    `json:"day_of_week"`
	FirstIn         *time.Time                `json:"first_in"`
	LastOut         *time.Time                `json:"last_out"`
	GrossSeconds    int64                     `json:"gross_seconds"`
	BreakSeconds    int64                     `json:"break_seconds"`
	WorkSeconds     int64                     `json:"work_seconds"`
	OvertimeSeconds int64                     `json:"overtime_seconds"`
	Arrival         *attendance.ArrivalResult `json:"arrival"`
	Incomplete      bool                      `json:"incomplete"`
	WasCapped       bool                      `json:"was_capped"`
	Absent          bool                      `json:"absent"`
}
