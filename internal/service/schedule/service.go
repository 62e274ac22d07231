package schedule

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

type scheduleServiceImpl struct {
	scheduleRepo schedule.ShiftScheduleRepository
	employeeRepo employee.EmployeeRepository
	hub          *sse.Hub
}

func NewScheduleService(scheduleRepo schedule.ShiftScheduleRepository, employeeRepo employee.EmployeeRepository, hub *sse.Hub) schedule.ScheduleService {
	return &scheduleServiceImpl{
		scheduleRepo: scheduleRepo,
		employeeRepo: employeeRepo,
		hub:          hub,
	}
}

func claimsWith(ctx context.Context, perm user.Permission) (auth.Claims, error) {
	claims, err := auth.ClaimsFromContext(ctx)
	if err != nil {
		return auth.Claims{}, err
	}
	if !user.HasPermission(claims.Role, perm) {
		return auth.Claims{}, user.ErrInsufficientPermissions
	}
	return claims, nil
}

// GetShiftSchedule implements schedule.ScheduleService.
func (s *scheduleServiceImpl) GetShiftSchedule(ctx context.Context, departmentID string) (schedule.ShiftScheduleResponse, error) {
	claims, err := claimsWith(ctx, user.PermissionScheduleView)
	if err != nil {
		return schedule.ShiftScheduleResponse{}, err
	}
	if !validator.IsValidUUID(departmentID) {
		return schedule.ShiftScheduleResponse{}, validator.ValidationErrors{{
			Field:   "department_id",
			Message: "department_id must be a valid UUID",
		}}
	}

	sc, err := s.scheduleRepo.GetByDepartment(ctx, claims.CompanyID, departmentID)
	if err != nil {
		return schedule.ShiftScheduleResponse{}, err
	}
	return schedule.NewShiftScheduleResponse(sc), nil
}

// ListShiftSchedules implements schedule.ScheduleService.
func (s *scheduleServiceImpl) ListShiftSchedules(ctx context.Context) ([]schedule.ShiftScheduleResponse, error) {
	claims, err := claimsWith(ctx, user.PermissionScheduleView)
	if err != nil {
		return nil, err
	}

	schedules, err := s.scheduleRepo.ListByCompany(ctx, claims.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shift schedules: %w", err)
	}

	resp := make([]schedule.ShiftScheduleResponse, 0, len(schedules))
	for _, sc := range schedules {
		resp = append(resp, schedule.NewShiftScheduleResponse(sc))
	}
	return resp, nil
}

// UpsertShiftSchedule implements schedule.ScheduleService.
func (s *scheduleServiceImpl) UpsertShiftSchedule(ctx context.Context, req schedule.UpsertShiftScheduleRequest) (schedule.ShiftScheduleResponse, error) {
	claims, err := claimsWith(ctx, user.PermissionScheduleManage)
	if err != nil {
		return schedule.ShiftScheduleResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return schedule.ShiftScheduleResponse{}, err
	}

	start, err := attendance.ParseTimeOfDay(req.ShiftStart)
	if err != nil {
		return schedule.ShiftScheduleResponse{}, err
	}
	end, err := attendance.ParseTimeOfDay(req.ShiftEnd)
	if err != nil {
		return schedule.ShiftScheduleResponse{}, err
	}
	grace := schedule.DefaultGracePeriodMinutes
	if req.GracePeriodMinutes != nil {
		grace = *req.GracePeriodMinutes
	}

	saved, err := s.scheduleRepo.Upsert(ctx, schedule.ShiftSchedule{
		CompanyID:          claims.CompanyID,
		DepartmentID:       req.DepartmentID,
		ShiftStart:         start,
		ShiftEnd:           end,
		GracePeriodMinutes: grace,
	})
	if err != nil {
		return schedule.ShiftScheduleResponse{}, err
	}

	slog.Info("Shift schedule updated",
		"company_id", claims.CompanyID,
		"department_id", req.DepartmentID,
		"shift_start", start.String(),
		"shift_end", end.String(),
		"updated_by", claims.UserID,
	)

	resp := schedule.NewShiftScheduleResponse(saved)
	s.broadcast(ctx, claims.CompanyID, req.DepartmentID, resp)
	return resp, nil
}

// broadcast tells the department and the managers that the window moved.
func (s *scheduleServiceImpl) broadcast(ctx context.Context, companyID, departmentID string, resp schedule.ShiftScheduleResponse) {
	if s.hub == nil {
		return
	}

	members, err := s.employeeRepo.ListActive(ctx, companyID, &departmentID)
	if err != nil {
		slog.Warn("Failed to list department for schedule broadcast", "department_id", departmentID, "error", err)
		return
	}
	managers, err := s.employeeRepo.ListManagers(ctx, companyID)
	if err != nil {
		slog.Warn("Failed to list managers for schedule broadcast", "company_id", companyID, "error", err)
	}

	var userIDs []string
	for _, emp := range append(members, managers...) {
		if emp.UserID != nil {
			userIDs = append(userIDs, *emp.UserID)
		}
	}
	s.hub.PublishToMany(userIDs, sse.Event{Event: sse.EventScheduleChanged, Data: resp})
}
