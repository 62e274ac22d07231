package schedule

import "context"

type ScheduleService interface {
	GetShiftSchedule(ctx context.Context, departmentID string) (ShiftScheduleResponse, error)
	ListShiftSchedules(ctx context.Context) ([]ShiftScheduleResponse, error)
	UpsertShiftSchedule(ctx context.Context, req UpsertShiftScheduleRequest) (ShiftScheduleResponse, error)
}
