package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/messaging"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/timeclock"
	"github.com/google/uuid"
)

// RecordPunch implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RecordPunch(ctx context.Context, req attendance.RecordPunchRequest) (attendance.PunchResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.PunchResponse{}, err
	}

	claims, err := auth.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.PunchResponse{}, err
	}
	if err := requirePermission(claims, user.PermissionAttendancePunch); err != nil {
		return attendance.PunchResponse{}, err
	}
	employeeID, err := claims.RequireEmployee()
	if err != nil {
		return attendance.PunchResponse{}, err
	}

	emp, err := s.activeEmployee(ctx, employeeID, claims.CompanyID)
	if err != nil {
		return attendance.PunchResponse{}, err
	}

	zone, err := s.zones.Get(ctx, claims.CompanyID)
	if err != nil {
		return attendance.PunchResponse{}, err
	}

	eventType := attendance.EventType(req.EventType)
	now := s.now().UTC()
	dayStart, _ := dayBounds(now, zone.Location)

	var created attendance.PunchEvent
	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.EmployeeRepository.LockForUpdate(txCtx, emp.ID, emp.CompanyID); err != nil {
			return err
		}

		events, err := s.PunchRepository.ListByEmployee(txCtx, emp.ID, emp.CompanyID, dayStart.Add(-s.engine.Policy().MaxDuration), now.Add(time.Second))
		if err != nil {
			return err
		}
		scoped, _ := scopeToDay(events, dayStart, s.engine.Policy().MaxDuration)
		metrics, _, err := s.engine.ComputeLiveMetrics(scoped, zone.Name, now)
		if err != nil {
			return err
		}
		if err := checkTransition(metrics, eventType); err != nil {
			return err
		}

		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate punch id: %w", err)
		}
		created, err = s.PunchRepository.Create(txCtx, attendance.PunchEvent{
			ID:         id.String(),
			EmployeeID: emp.ID,
			CompanyID:  emp.CompanyID,
			EventType:  eventType,
			Timestamp:  now,
			Source:     attendance.SourceQR,
		})
		return err
	})
	if err != nil {
		return attendance.PunchResponse{}, err
	}

	slog.Info("Punch recorded", "employee_id", emp.ID, "event_type", eventType, "punch_id", created.ID)
	s.notifyPunch(ctx, emp, zone, created, messaging.EventPunchRecorded)
	return attendance.NewPunchResponse(created), nil
}

// checkTransition rejects a punch that makes no sense given the live state.
func checkTransition(m attendance.LiveMetrics, next attendance.EventType) error {
	switch next {
	case attendance.EventSignIn:
		if m.IsSignedIn() {
			return attendance.ErrAlreadySignedIn
		}
	case attendance.EventSignOut:
		if !m.IsSignedIn() {
			return attendance.ErrNotSignedIn
		}
	case attendance.EventBreakStart:
		if m.IsOnBreak {
			return attendance.ErrAlreadyOnBreak
		}
		if !m.IsActive {
			return attendance.ErrNotSignedIn
		}
	case attendance.EventBreakEnd:
		if !m.IsOnBreak {
			return attendance.ErrNotOnBreak
		}
	default:
		return attendance.ErrUnknownEventType
	}
	return nil
}

// CreateManualPunch implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CreateManualPunch(ctx context.Context, req attendance.ManualPunchRequest) (attendance.PunchResponse, error) {
	claims, err := auth.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.PunchResponse{}, err
	}
	if err := requirePermission(claims, user.PermissionAttendanceAdjust); err != nil {
		return attendance.PunchResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return attendance.PunchResponse{}, err
	}

	emp, err := s.activeEmployee(ctx, req.EmployeeID, claims.CompanyID)
	if err != nil {
		return attendance.PunchResponse{}, err
	}

	now := s.now().UTC()
	ts := req.ParsedTimestamp.UTC()
	if ts.After(now) {
		return attendance.PunchResponse{}, attendance.ErrPunchInFuture
	}

	zone, err := s.zones.Get(ctx, claims.CompanyID)
	if err != nil {
		return attendance.PunchResponse{}, err
	}

	editable := s.engine.Editable()
	reach := s.engine.Policy().MaxDuration + 24*time.Hour

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.PunchResponse{}, fmt.Errorf("failed to generate punch id: %w", err)
	}
	note := strings.TrimSpace(req.Reason)
	createdBy := claims.UserID
	candidate := attendance.PunchEvent{
		ID:           id.String(),
		EmployeeID:   emp.ID,
		CompanyID:    emp.CompanyID,
		EventType:    attendance.EventType(req.EventType),
		Timestamp:    ts,
		Source:       attendance.SourceManual,
		Note:         &note,
		CreatedBy:    &createdBy,
		EmployeeName: emp.FullName,
	}

	var created attendance.PunchEvent
	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.EmployeeRepository.LockForUpdate(txCtx, emp.ID, emp.CompanyID); err != nil {
			return err
		}

		events, err := s.PunchRepository.ListByEmployee(txCtx, emp.ID, emp.CompanyID, ts.Add(-reach), ts.Add(reach))
		if err != nil {
			return err
		}

		records, _, err := editable.ReconstructShiftsAsOf(append(events, candidate), zone.Name, now)
		if err != nil {
			return err
		}
		if shiftTooLong(editable, records, ts, now) {
			return attendance.ErrShiftTooLong
		}

		created, err = s.PunchRepository.Create(txCtx, candidate)
		return err
	})
	if err != nil {
		return attendance.PunchResponse{}, err
	}

	slog.Info("Manual punch created",
		"employee_id", emp.ID,
		"event_type", candidate.EventType,
		"timestamp", ts,
		"created_by", claims.UserID,
	)
	s.notifyPunch(ctx, emp, zone, created, messaging.EventPunchAdjusted)
	return attendance.NewPunchResponse(created), nil
}

// shiftTooLong reports whether the entry containing ts runs past the editable
// cap. An ongoing entry is measured up to now.
func shiftTooLong(editable *timeclock.Engine, records []attendance.ShiftRecord, ts, now time.Time) bool {
	for _, rec := range records {
		for _, entry := range rec.Entries {
			if entry.In == nil || ts.Before(*entry.In) {
				continue
			}
			end := now
			if entry.Out != nil {
				end = *entry.Out
			} else if !entry.Ongoing {
				continue
			}
			if ts.After(end) {
				continue
			}
			if _, capped := editable.CapDuration(*entry.In, end); capped {
				return true
			}
		}
	}
	return false
}

// DeletePunch implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) DeletePunch(ctx context.Context, id string) error {
	claims, err := auth.ClaimsFromContext(ctx)
	if err != nil {
		return err
	}
	if err := requirePermission(claims, user.PermissionAttendanceAdjust); err != nil {
		return err
	}
	if !validator.IsValidUUID(id) {
		return validator.ValidationErrors{{
			Field:   "id",
			Message: "punch id must be a valid UUID",
		}}
	}

	punch, err := s.PunchRepository.GetByID(ctx, id, claims.CompanyID)
	if err != nil {
		return err
	}
	if err := s.PunchRepository.Delete(ctx, id, claims.CompanyID); err != nil {
		return err
	}

	slog.Info("Punch deleted", "punch_id", id, "employee_id", punch.EmployeeID, "deleted_by", claims.UserID)

	if err := s.publisher.Publish(ctx, messaging.EventPunchDeleted, messaging.PunchDeletedEvent{
		PunchID:    id,
		EmployeeID: punch.EmployeeID,
		CompanyID:  punch.CompanyID,
		DeletedBy:  claims.UserID,
	}); err != nil {
		slog.Warn("Failed to publish punch deleted event", "punch_id", id, "error", err)
	}

	emp, err := s.EmployeeRepository.GetByID(ctx, punch.EmployeeID, claims.CompanyID)
	if err != nil {
		slog.Warn("Failed to load employee for punch deleted notification", "employee_id", punch.EmployeeID, "error", err)
		return nil
	}
	s.pushStatus(ctx, emp)
	return nil
}
