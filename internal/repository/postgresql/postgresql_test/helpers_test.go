package postgresql_test

import (
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/schedule"
)

func scheduleFor(f fixture, start, end attendance.TimeOfDay, grace int) schedule.ShiftSchedule {
	return schedule.ShiftSchedule{
		CompanyID:          f.CompanyID,
		DepartmentID:       f.DepartmentID,
		ShiftStart:         start,
		ShiftEnd:           end,
		GracePeriodMinutes: grace,
	}
}
