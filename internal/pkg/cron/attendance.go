package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/messaging"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/sse"
)

// BoardEvaluator computes the live board of a company without a request identity
type BoardEvaluator interface {
	EvaluateCompanyBoard(ctx context.Context, companyID string, departmentID *string) (attendance.TeamBoardResponse, error)
}

// AbsentEligibleNotice is the SSE payload pushed to managers
type AbsentEligibleNotice struct {
	Date      string                       `json:"date"`
	Employees []attendance.StatusResponse `json:"employees"`
}

type AttendanceJobs struct {
	board        BoardEvaluator
	employeeRepo employee.EmployeeRepository
	hub          *sse.Hub
	publisher    messaging.Publisher
	interval     time.Duration

	mu       sync.Mutex
	notified map[string]map[string]struct{} // companyID|date -> employee ids
}

func NewAttendanceJobs(
	board BoardEvaluator,
	employeeRepo employee.EmployeeRepository,
	hub *sse.Hub,
	publisher messaging.Publisher,
	interval time.Duration,
) *AttendanceJobs {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	return &AttendanceJobs{
		board:        board,
		employeeRepo: employeeRepo,
		hub:          hub,
		publisher:    publisher,
		interval:     interval,
		notified:     make(map[string]map[string]struct{}),
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("flag_late_arrivals", j.interval, j.FlagLateArrivals)
}

// FlagLateArrivals tells managers which employees have become eligible for
// absent marking. Each employee is reported at most once per company day.
func (j *AttendanceJobs) FlagLateArrivals(ctx context.Context) error {
	companyIDs, err := j.employeeRepo.ListCompanyIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list companies: %w", err)
	}

	var errs []error
	flagged := 0
	for _, companyID := range companyIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := j.flagCompany(ctx, companyID)
		if err != nil {
			slog.Error("Cron: failed to flag late arrivals", "company_id", companyID, "error", err)
			errs = append(errs, err)
			continue
		}
		flagged += n
	}

	slog.Info("Cron: late arrival check finished", "companies", len(companyIDs), "flagged", flagged)
	return errors.Join(errs...)
}

func (j *AttendanceJobs) flagCompany(ctx context.Context, companyID string) (int, error) {
	board, err := j.board.EvaluateCompanyBoard(ctx, companyID, nil)
	if err != nil {
		return 0, err
	}

	fresh := j.unnotified(companyID, board)
	if len(fresh) == 0 {
		return 0, nil
	}

	managers, err := j.employeeRepo.ListManagers(ctx, companyID)
	if err != nil {
		return 0, fmt.Errorf("failed to list managers: %w", err)
	}

	userIDs := make([]string, 0, len(managers))
	for _, m := range managers {
		if m.UserID != nil {
			userIDs = append(userIDs, *m.UserID)
		}
	}

	j.hub.PublishToMany(userIDs, sse.Event{
		Event: sse.EventAbsentEligible,
		Data:  AbsentEligibleNotice{Date: board.Date, Employees: fresh},
	})

	ids := make([]string, len(fresh))
	for i, st := range fresh {
		ids[i] = st.EmployeeID
	}
	if err := j.publisher.Publish(ctx, messaging.EventLateArrivals, messaging.AbsentEligibleEvent{
		CompanyID:   companyID,
		Date:        board.Date,
		EmployeeIDs: ids,
	}); err != nil {
		slog.Warn("Cron: failed to publish late arrival event", "company_id", companyID, "error", err)
	}

	j.markNotified(companyID, board.Date, ids)
	return len(fresh), nil
}

func (j *AttendanceJobs) unnotified(companyID string, board attendance.TeamBoardResponse) []attendance.StatusResponse {
	j.mu.Lock()
	defer j.mu.Unlock()

	seen := j.notified[companyID+"|"+board.Date]
	var fresh []attendance.StatusResponse
	for _, st := range board.Employees {
		if !st.EligibleForAbsent || st.ManuallyAbsent {
			continue
		}
		if _, ok := seen[st.EmployeeID]; ok {
			continue
		}
		fresh = append(fresh, st)
	}
	return fresh
}

func (j *AttendanceJobs) markNotified(companyID, date string, employeeIDs []string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	key := companyID + "|" + date
	// Only the current day of a company is kept.
	for k := range j.notified {
		if k != key && strings.HasPrefix(k, companyID+"|") {
			delete(j.notified, k)
		}
	}
	if j.notified[key] == nil {
		j.notified[key] = make(map[string]struct{})
	}
	for _, id := range employeeIDs {
		j.notified[key][id] = struct{}{}
	}
}
