package attendance

import (
	"context"
)

// AttendanceService defines business logic for punch-based attendance
type AttendanceService interface {
	// RecordPunch stores a punch for the authenticated employee
	RecordPunch(ctx context.Context, req RecordPunchRequest) (PunchResponse, error)

	// CreateManualPunch adds a punch on behalf of an employee (manager/admin)
	CreateManualPunch(ctx context.Context, req ManualPunchRequest) (PunchResponse, error)

	DeletePunch(ctx context.Context, id string) error

	// GetMyStatus returns today's live metrics for the authenticated employee
	GetMyStatus(ctx context.Context) (StatusResponse, error)

	GetEmployeeStatus(ctx context.Context, employeeID string) (StatusResponse, error)

	// GetTeamBoard returns live metrics and adherence for every active employee
	GetTeamBoard(ctx context.Context, filter TeamBoardFilter) (TeamBoardResponse, error)

	// GetShiftReport reconstructs shifts anchored inside the requested dates
	GetShiftReport(ctx context.Context, filter ShiftReportFilter) (ShiftReportResponse, error)

	GetMyShifts(ctx context.Context, filter MyShiftFilter) (ShiftReportResponse, error)

	// MarkAbsent flags an employee absent for a date
	MarkAbsent(ctx context.Context, req MarkAbsentRequest) (AbsenceResponse, error)
}
