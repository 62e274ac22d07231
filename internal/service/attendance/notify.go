package attendance

import (
	"context"
	"log/slog"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/messaging"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/tzcache"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/timeclock"
)

// Notifications are best effort: a stored punch is never rolled back because
// the broker or a stream is unavailable.

func (s *AttendanceServiceImpl) notifyPunch(ctx context.Context, emp employee.Employee, zone tzcache.Zone, ev attendance.PunchEvent, eventType string) {
	err := s.publisher.Publish(ctx, eventType, messaging.PunchRecordedEvent{
		PunchID:    ev.ID,
		EmployeeID: ev.EmployeeID,
		CompanyID:  ev.CompanyID,
		EventType:  string(ev.EventType),
		Timestamp:  ev.Timestamp,
		Source:     ev.Source,
		CreatedBy:  ev.CreatedBy,
		LocalDate:  timeclock.LocalDate(ev.Timestamp, zone.Location),
	})
	if err != nil {
		slog.Warn("Failed to publish punch event", "punch_id", ev.ID, "event_type", eventType, "error", err)
	}

	s.pushStatus(ctx, emp)
}

// pushStatus sends the employee's fresh live status to the employee and to
// every manager of the company.
func (s *AttendanceServiceImpl) pushStatus(ctx context.Context, emp employee.Employee) {
	if s.hub == nil {
		return
	}

	status, err := s.employeeStatus(ctx, emp)
	if err != nil {
		slog.Warn("Failed to compute status for stream", "employee_id", emp.ID, "error", err)
		return
	}

	s.hub.PublishToMany(s.audience(ctx, emp), sse.Event{
		Event: sse.EventAttendance,
		Data:  status,
	})
}

// audience returns the user ids of the employee and of the company managers.
func (s *AttendanceServiceImpl) audience(ctx context.Context, emp employee.Employee) []string {
	var userIDs []string
	if emp.UserID != nil {
		userIDs = append(userIDs, *emp.UserID)
	}

	managers, err := s.EmployeeRepository.ListManagers(ctx, emp.CompanyID)
	if err != nil {
		slog.Warn("Failed to list managers for stream", "company_id", emp.CompanyID, "error", err)
		return userIDs
	}
	for _, m := range managers {
		if m.UserID != nil {
			userIDs = append(userIDs, *m.UserID)
		}
	}
	return userIDs
}
