package attendance

import (
	"slices"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
)

const dateLayout = "2006-01-02"

// dayBounds returns local midnight of the day containing now and of the next day.
func dayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	l := now.In(loc)
	start := time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// scopeToDay picks the events of one employee that feed today's live metrics
// and today's adherence. The events fetched start maxDuration before
// dayStart so a shift still open at midnight is carried into today: scoped
// then starts at that shift's sign-in. todays holds only the punches of the
// local day itself.
func scopeToDay(events []attendance.PunchEvent, dayStart time.Time, maxDuration time.Duration) (scoped, todays []attendance.PunchEvent) {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b attendance.PunchEvent) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	carry := -1
	first := len(sorted)
	for i, ev := range sorted {
		if !ev.Timestamp.Before(dayStart) {
			first = i
			break
		}
		switch ev.EventType {
		case attendance.EventSignIn:
			carry = i
		case attendance.EventSignOut:
			carry = -1
		}
	}

	todays = sorted[first:]
	if carry >= 0 && dayStart.Sub(sorted[carry].Timestamp) < maxDuration {
		return sorted[carry:], todays
	}
	return todays, todays
}

// groupByEmployee splits a company wide event list by employee.
func groupByEmployee(events []attendance.PunchEvent) map[string][]attendance.PunchEvent {
	grouped := make(map[string][]attendance.PunchEvent)
	for _, ev := range events {
		grouped[ev.EmployeeID] = append(grouped[ev.EmployeeID], ev)
	}
	return grouped
}
