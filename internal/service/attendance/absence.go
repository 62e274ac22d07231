package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/messaging"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/sse"
)

// MarkAbsent implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) MarkAbsent(ctx context.Context, req attendance.MarkAbsentRequest) (attendance.AbsenceResponse, error) {
	claims, err := auth.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.AbsenceResponse{}, err
	}
	if err := requirePermission(claims, user.PermissionAttendanceMarkAbsent); err != nil {
		return attendance.AbsenceResponse{}, err
	}
	if req.Force {
		if err := requirePermission(claims, user.PermissionAttendanceForceAbsent); err != nil {
			return attendance.AbsenceResponse{}, err
		}
	}
	if err := req.Validate(); err != nil {
		return attendance.AbsenceResponse{}, err
	}

	emp, err := s.activeEmployee(ctx, req.EmployeeID, claims.CompanyID)
	if err != nil {
		return attendance.AbsenceResponse{}, err
	}

	zone, err := s.zones.Get(ctx, claims.CompanyID)
	if err != nil {
		return attendance.AbsenceResponse{}, err
	}
	dayStart, _ := dayBounds(s.now().UTC(), zone.Location)
	today := dayStart.Format(dateLayout)

	date := today
	if req.Date != nil {
		date = *req.Date
	}

	exists, err := s.AbsenceRepository.Exists(ctx, emp.ID, emp.CompanyID, date)
	if err != nil {
		return attendance.AbsenceResponse{}, fmt.Errorf("failed to check absence: %w", err)
	}
	if exists {
		return attendance.AbsenceResponse{}, attendance.ErrAlreadyMarkedAbsent
	}

	// Eligibility is a live judgement: only today can be checked, any other
	// date needs force.
	if !req.Force {
		if date != today {
			return attendance.AbsenceResponse{}, attendance.ErrNotEligibleForAbsent
		}
		status, err := s.employeeStatus(ctx, emp)
		if err != nil {
			return attendance.AbsenceResponse{}, err
		}
		if !status.EligibleForAbsent {
			return attendance.AbsenceResponse{}, attendance.ErrNotEligibleForAbsent
		}
	}

	created, err := s.AbsenceRepository.Create(ctx, attendance.AbsenceOverride{
		EmployeeID: emp.ID,
		CompanyID:  emp.CompanyID,
		Date:       date,
		Reason:     strings.TrimSpace(req.Reason),
		MarkedBy:   claims.UserID,
		Forced:     req.Force,
	})
	if err != nil {
		return attendance.AbsenceResponse{}, err
	}

	slog.Info("Employee marked absent", "employee_id", emp.ID, "date", date, "forced", req.Force, "marked_by", claims.UserID)

	if err := s.publisher.Publish(ctx, messaging.EventMarkedAbsent, messaging.AbsenceMarkedEvent{
		AbsenceID:  created.ID,
		EmployeeID: emp.ID,
		CompanyID:  emp.CompanyID,
		Date:       date,
		Forced:     req.Force,
	}); err != nil {
		slog.Warn("Failed to publish absence event", "absence_id", created.ID, "error", err)
	}

	resp := attendance.AbsenceResponse{
		ID:         created.ID,
		EmployeeID: created.EmployeeID,
		Date:       created.Date,
		Reason:     created.Reason,
		MarkedBy:   created.MarkedBy,
		Forced:     created.Forced,
		CreatedAt:  created.CreatedAt,
	}
	if s.hub != nil {
		s.hub.PublishToMany(s.audience(ctx, emp), sse.Event{Event: sse.EventMarkedAbsent, Data: resp})
	}
	return resp, nil
}
