package schedule

import (
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
)

// DefaultGracePeriodMinutes is stored when a schedule is saved without a grace period.
const DefaultGracePeriodMinutes = 30

// ShiftSchedule is the daily shift window of one department.
type ShiftSchedule struct {
	ID                 string
	CompanyID          string
	DepartmentID       string
	ShiftStart         attendance.TimeOfDay
	ShiftEnd           attendance.TimeOfDay
	GracePeriodMinutes int
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// DTO
	DepartmentName string
}

// Window returns the part of the schedule the adherence rules look at.
func (s ShiftSchedule) Window() attendance.ScheduleWindow {
	return attendance.ScheduleWindow{
		ShiftStart:         s.ShiftStart,
		ShiftEnd:           s.ShiftEnd,
		GracePeriodMinutes: s.GracePeriodMinutes,
	}
}

// WindowsByDepartment indexes schedule windows by department id.
func WindowsByDepartment(schedules []ShiftSchedule) map[string]attendance.ScheduleWindow {
	windows := make(map[string]attendance.ScheduleWindow, len(schedules))
	for _, sc := range schedules {
		windows[sc.DepartmentID] = sc.Window()
	}
	return windows
}
