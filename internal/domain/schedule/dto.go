package schedule

import (
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

type UpsertShiftScheduleRequest struct {
	DepartmentID       string `json:"-"`
	ShiftStart         string `json:"shift_start"`
	ShiftEnd           string `json:"shift_end"`
	GracePeriodMinutes *int   `json:"grace_period_minutes"`
}

func (r *UpsertShiftScheduleRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.DepartmentID) {
		errs = append(errs, validator.ValidationError{
			Field:   "department_id",
			Message: "department_id must be a valid UUID",
		})
	}
	if !validator.IsValidTimeOfDay(r.ShiftStart) {
		errs = append(errs, validator.ValidationError{
			Field:   "shift_start",
			Message: "shift_start must be in HH:MM or HH:MM:SS format",
		})
	}
	if !validator.IsValidTimeOfDay(r.ShiftEnd) {
		errs = append(errs, validator.ValidationError{
			Field:   "shift_end",
			Message: "shift_end must be in HH:MM or HH:MM:SS format",
		})
	}
	start, errStart := attendance.ParseTimeOfDay(r.ShiftStart)
	end, errEnd := attendance.ParseTimeOfDay(r.ShiftEnd)
	if errStart == nil && errEnd == nil && start == end {
		errs = append(errs, validator.ValidationError{
			Field:   "shift_end",
			Message: "shift_end must differ from shift_start",
		})
	}
	if r.GracePeriodMinutes != nil && (*r.GracePeriodMinutes < 0 || *r.GracePeriodMinutes > 240) {
		errs = append(errs, validator.ValidationError{
			Field:   "grace_period_minutes",
			Message: "grace_period_minutes must be between 0 and 240",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ShiftScheduleResponse struct {
	ID                 string               `json:"id"`
	DepartmentID       string               `json:"department_id"`
	DepartmentName     string               `json:"department_name"`
	ShiftStart         attendance.TimeOfDay `json:"shift_start"`
	ShiftEnd           attendance.TimeOfDay `json:"shift_end"`
	GracePeriodMinutes int                  `json:"grace_period_minutes"`
	IsOvernight        bool                 `json:"is_overnight"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

func NewShiftScheduleResponse(s ShiftSchedule) ShiftScheduleResponse {
	return ShiftScheduleResponse{
		ID:                 s.ID,
		DepartmentID:       s.DepartmentID,
		DepartmentName:     s.DepartmentName,
		ShiftStart:         s.ShiftStart,
		ShiftEnd:           s.ShiftEnd,
		GracePeriodMinutes: s.GracePeriodMinutes,
		IsOvernight:        s.Window().IsOvernight(),
		UpdatedAt:          s.UpdatedAt,
	}
}
