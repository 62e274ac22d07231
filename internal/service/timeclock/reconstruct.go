package timeclock

import (
	"cmp"
	"slices"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
)

type recordKey struct {
	employeeID string
	anchorDate string
}

type openShift struct {
	entry   attendance.ShiftEntry
	anchor  string
	onBreak bool
}

type pairer struct {
	engine    *Engine
	loc       *time.Location
	names     map[string]string
	open      map[string]*openShift
	index     map[recordKey]int
	records   []attendance.ShiftRecord
	anomalies attendance.Anomalies
}

// ReconstructShifts pairs punches into shifts for a historical window. A
// sign-in still open at the end of the stream is flagged incomplete.
func (e *Engine) ReconstructShifts(events []attendance.PunchEvent, timezone string) ([]attendance.ShiftRecord, attendance.Anomalies, error) {
	return e.reconstruct(events, timezone, nil)
}

// ReconstructShiftsAsOf is ReconstructShifts for a window ending at now. A
// sign-in still open at the end of the stream is flagged ongoing.
func (e *Engine) ReconstructShiftsAsOf(events []attendance.PunchEvent, timezone string, now time.Time) ([]attendance.ShiftRecord, attendance.Anomalies, error) {
	return e.reconstruct(events, timezone, &now)
}

func (e *Engine) reconstruct(events []attendance.PunchEvent, timezone string, now *time.Time) ([]attendance.ShiftRecord, attendance.Anomalies, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return nil, attendance.Anomalies{}, err
	}

	sorted, malformed := sortEvents(events)
	p := &pairer{
		engine: e,
		loc:    loc,
		names:  make(map[string]string),
		open:   make(map[string]*openShift),
		index:  make(map[recordKey]int),
	}
	p.anomalies.Malformed = malformed

	for _, ev := range sorted {
		if p.names[ev.EmployeeID] == "" {
			p.names[ev.EmployeeID] = ev.EmployeeName
		}
		p.apply(ev)
	}

	// Flush in employee order so record creation stays deterministic.
	employees := make([]string, 0, len(p.open))
	for id := range p.open {
		employees = append(employees, id)
	}
	slices.Sort(employees)
	for _, id := range employees {
		shift := p.open[id]
		if now != nil {
			shift.entry.Ongoing = true
		} else {
			shift.entry.Incomplete = true
		}
		p.finalize(id, shift.anchor, shift.entry)
	}

	slices.SortStableFunc(p.records, func(a, b attendance.ShiftRecord) int {
		if c := cmp.Compare(b.AnchorDate, a.AnchorDate); c != 0 {
			return c
		}
		return cmp.Compare(a.EmployeeName, b.EmployeeName)
	})

	return p.records, p.anomalies, nil
}

func (p *pairer) apply(ev attendance.PunchEvent) {
	ts := ev.Timestamp
	current := p.open[ev.EmployeeID]

	switch ev.EventType {
	case attendance.EventSignIn:
		if current != nil {
			p.anomalies.DuplicateSignIns++
			current.entry.Incomplete = true
			p.finalize(ev.EmployeeID, current.anchor, current.entry)
		}
		p.open[ev.EmployeeID] = &openShift{
			entry:  attendance.ShiftEntry{In: &ts},
			anchor: LocalDate(ts, p.loc),
		}

	case attendance.EventSignOut:
		if current == nil {
			p.anomalies.OrphanedSignOuts++
			p.finalize(ev.EmployeeID, LocalDate(ts, p.loc), attendance.ShiftEntry{Out: &ts, Incomplete: true})
			return
		}
		if current.onBreak {
			current.entry.Breaks[len(current.entry.Breaks)-1].End = &ts
		}
		current.entry.Out = &ts
		p.finalize(ev.EmployeeID, current.anchor, current.entry)
		delete(p.open, ev.EmployeeID)

	case attendance.EventBreakStart:
		if current == nil || current.onBreak {
			p.anomalies.UnmatchedBreaks++
			return
		}
		current.entry.Breaks = append(current.entry.Breaks, attendance.BreakPeriod{Start: &ts})
		current.onBreak = true

	case attendance.EventBreakEnd:
		if current == nil || !current.onBreak {
			p.anomalies.UnmatchedBreaks++
			return
		}
		current.entry.Breaks[len(current.entry.Breaks)-1].End = &ts
		current.onBreak = false
	}
}

func (p *pairer) finalize(employeeID, anchor string, entry attendance.ShiftEntry) {
	if entry.IsComplete() {
		entry.DurationSeconds, entry.WasCapped = p.engine.CapDuration(*entry.In, *entry.Out)
		if entry.WasCapped {
			p.anomalies.CappedIntervals++
		}
	}
	for _, b := range entry.Breaks {
		if b.Start == nil || b.End == nil {
			continue
		}
		secs, capped := p.engine.CapDuration(*b.Start, *b.End)
		entry.BreakSeconds += secs
		if capped {
			p.anomalies.CappedIntervals++
		}
	}

	key := recordKey{employeeID: employeeID, anchorDate: anchor}
	i, ok := p.index[key]
	if !ok {
		p.records = append(p.records, attendance.ShiftRecord{
			EmployeeID:   employeeID,
			EmployeeName: p.names[employeeID],
			AnchorDate:   anchor,
		})
		i = len(p.records) - 1
		p.index[key] = i
	}

	rec := &p.records[i]
	rec.Entries = append(rec.Entries, entry)
	rec.TotalSeconds += entry.DurationSeconds
	rec.WasCapped = rec.WasCapped || entry.WasCapped
}
