package timeclock

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
)

type interval struct {
	start time.Time
	end   time.Time
}

// ComputeLiveMetrics walks one employee's punches and reports work, break and
// overtime seconds as of now. Intervals still open at the end are closed at
// now. The engine does not filter by date: callers pass exactly the events
// that belong in the window.
func (e *Engine) ComputeLiveMetrics(events []attendance.PunchEvent, timezone string, now time.Time) (attendance.LiveMetrics, attendance.Anomalies, error) {
	if _, err := LoadLocation(timezone); err != nil {
		return attendance.LiveMetrics{}, attendance.Anomalies{}, err
	}

	sorted, malformed := sortEvents(events)
	if len(sorted) > 0 {
		first := sorted[0].EmployeeID
		if last := sorted[len(sorted)-1].EmployeeID; last != first {
			return attendance.LiveMetrics{}, attendance.Anomalies{}, fmt.Errorf("%w: %s and %s", attendance.ErrMixedEmployees, first, last)
		}
	}

	metrics, anomalies := e.walk(sorted, now)
	anomalies.Malformed = malformed
	return metrics, anomalies, nil
}

// ComputeLiveMetricsByEmployee splits a multi-employee event list and
// computes metrics for each employee. Malformed events are counted once in
// the returned anomalies.
func (e *Engine) ComputeLiveMetricsByEmployee(events []attendance.PunchEvent, timezone string, now time.Time) (map[string]attendance.LiveMetrics, attendance.Anomalies, error) {
	if _, err := LoadLocation(timezone); err != nil {
		return nil, attendance.Anomalies{}, err
	}

	sorted, malformed := sortEvents(events)
	result := make(map[string]attendance.LiveMetrics)
	total := attendance.Anomalies{Malformed: malformed}

	for start := 0; start < len(sorted); {
		end := start
		for end < len(sorted) && sorted[end].EmployeeID == sorted[start].EmployeeID {
			end++
		}
		metrics, anomalies := e.walk(sorted[start:end], now)
		result[sorted[start].EmployeeID] = metrics
		total.Add(anomalies)
		start = end
	}

	return result, total, nil
}

// walk expects sorted, well formed events of a single employee.
func (e *Engine) walk(events []attendance.PunchEvent, now time.Time) (attendance.LiveMetrics, attendance.Anomalies) {
	var (
		metrics     attendance.LiveMetrics
		anomalies   attendance.Anomalies
		work        []interval
		breaks      []interval
		isActive    bool
		isOnBreak   bool
		activeStart time.Time
		breakStart  time.Time
	)

	for _, ev := range events {
		ts := ev.Timestamp
		metrics.EmployeeID = ev.EmployeeID
		metrics.LastActivity = &attendance.Activity{Type: ev.EventType, Timestamp: ts}

		switch ev.EventType {
		case attendance.EventSignIn:
			if isOnBreak {
				breaks = append(breaks, interval{breakStart, ts})
				isOnBreak = false
			}
			if isActive {
				// The earlier sign-in is abandoned, its open interval is not counted.
				anomalies.DuplicateSignIns++
			}
			isActive = true
			activeStart = ts

		case attendance.EventSignOut:
			if !isActive && !isOnBreak {
				anomalies.OrphanedSignOuts++
			}
			if isActive {
				work = append(work, interval{activeStart, ts})
			}
			if isOnBreak {
				breaks = append(breaks, interval{breakStart, ts})
			}
			isActive = false
			isOnBreak = false

		case attendance.EventBreakStart:
			// A break always starts, matched or not; only the tally differs.
			if isActive {
				work = append(work, interval{activeStart, ts})
			} else {
				anomalies.UnmatchedBreaks++
			}
			if isOnBreak {
				breaks = append(breaks, interval{breakStart, ts})
			}
			isActive = false
			isOnBreak = true
			breakStart = ts

		case attendance.EventBreakEnd:
			if isOnBreak {
				breaks = append(breaks, interval{breakStart, ts})
			} else {
				anomalies.UnmatchedBreaks++
			}
			if isActive {
				work = append(work, interval{activeStart, ts})
			}
			isOnBreak = false
			isActive = true
			activeStart = ts
		}
	}

	if isActive {
		work = append(work, interval{activeStart, now})
	}
	if isOnBreak {
		breaks = append(breaks, interval{breakStart, now})
	}

	for _, iv := range work {
		secs, capped := e.CapDuration(iv.start, iv.end)
		metrics.WorkSeconds += secs
		if capped {
			metrics.WasCapped = true
			anomalies.CappedIntervals++
		}
	}
	for _, iv := range breaks {
		secs, capped := e.CapDuration(iv.start, iv.end)
		metrics.BreakSeconds += secs
		if capped {
			metrics.WasCapped = true
			anomalies.CappedIntervals++
		}
	}

	metrics.OvertimeSeconds = e.Overtime(metrics.WorkSeconds)
	metrics.IsActive = isActive
	metrics.IsOnBreak = isOnBreak
	return metrics, anomalies
}
