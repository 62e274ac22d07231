package attendance

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/tzcache"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/timeclock"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	_ "time/tzdata"
)

const (
	testCompanyID = "11111111-1111-1111-1111-111111111111"
	testDeptID    = "22222222-2222-2222-2222-222222222222"
	testTimezone  = "Asia/Jakarta"
)

var jakarta = func() *time.Location {
	loc, err := time.LoadLocation(testTimezone)
	if err != nil {
		panic(err)
	}
	return loc
}()

// local returns a wall clock time in Jakarta on March 2024.
func local(day, hour, minute int) time.Time {
	return time.Date(2024, 3, day, hour, minute, 0, 0, jakarta)
}

func strPtr(s string) *string { return &s }

// ---- punches ----

type fakePunchRepo struct {
	mu        sync.Mutex
	events    []attendance.PunchEvent
	employees *fakeEmployeeRepo
}

func (f *fakePunchRepo) Create(ctx context.Context, ev attendance.PunchEvent) (attendance.PunchEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ev.CreatedAt = ev.Timestamp
	if emp, ok := f.employees.byID[ev.EmployeeID]; ok {
		ev.EmployeeName = emp.FullName
	}
	f.events = append(f.events, ev)
	return ev, nil
}

func (f *fakePunchRepo) GetByID(ctx context.Context, id string, companyID string) (attendance.PunchEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range f.events {
		if ev.ID == id && ev.CompanyID == companyID {
			return ev, nil
		}
	}
	return attendance.PunchEvent{}, attendance.ErrPunchNotFound
}

func (f *fakePunchRepo) Delete(ctx context.Context, id string, companyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, ev := range f.events {
		if ev.ID == id && ev.CompanyID == companyID {
			f.events = slices.Delete(f.events, i, i+1)
			return nil
		}
	}
	return attendance.ErrPunchNotFound
}

func (f *fakePunchRepo) ListByEmployee(ctx context.Context, employeeID string, companyID string, from, to time.Time) ([]attendance.PunchEvent, error) {
	return f.list(func(ev attendance.PunchEvent) bool {
		return ev.EmployeeID == employeeID && ev.CompanyID == companyID
	}, from, to), nil
}

func (f *fakePunchRepo) ListByCompany(ctx context.Context, companyID string, departmentID *string, from, to time.Time) ([]attendance.PunchEvent, error) {
	return f.list(func(ev attendance.PunchEvent) bool {
		emp, ok := f.employees.byID[ev.EmployeeID]
		if !ok || !emp.IsActive() || ev.CompanyID != companyID {
			return false
		}
		return departmentID == nil || (emp.DepartmentID != nil && *emp.DepartmentID == *departmentID)
	}, from, to), nil
}

func (f *fakePunchRepo) list(keep func(attendance.PunchEvent) bool, from, to time.Time) []attendance.PunchEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]attendance.PunchEvent, 0)
	for _, ev := range f.events {
		if keep(ev) && !ev.Timestamp.Before(from) && ev.Timestamp.Before(to) {
			out = append(out, ev)
		}
	}
	slices.SortStableFunc(out, func(a, b attendance.PunchEvent) int { return a.Timestamp.Compare(b.Timestamp) })
	return out
}

// ---- absences ----

type fakeAbsenceRepo struct {
	mu       sync.Mutex
	absences []attendance.AbsenceOverride
}

func (f *fakeAbsenceRepo) Create(ctx context.Context, a attendance.AbsenceOverride) (attendance.AbsenceOverride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.absences {
		if x.EmployeeID == a.EmployeeID && x.Date == a.Date {
			return attendance.AbsenceOverride{}, attendance.ErrAlreadyMarkedAbsent
		}
	}
	a.ID = uuid.NewString()
	f.absences = append(f.absences, a)
	return a, nil
}

func (f *fakeAbsenceRepo) Exists(ctx context.Context, employeeID string, companyID string, date string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.absences {
		if x.EmployeeID == employeeID && x.CompanyID == companyID && x.Date == date {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAbsenceRepo) ListEmployeeIDsByDate(ctx context.Context, companyID string, date string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, x := range f.absences {
		if x.CompanyID == companyID && x.Date == date {
			ids = append(ids, x.EmployeeID)
		}
	}
	return ids, nil
}

func (f *fakeAbsenceRepo) ListByDateRange(ctx context.Context, companyID string, startDate, endDate string) ([]attendance.AbsenceOverride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.AbsenceOverride
	for _, x := range f.absences {
		if x.CompanyID == companyID && x.Date >= startDate && x.Date <= endDate {
			out = append(out, x)
		}
	}
	return out, nil
}

// ---- employees ----

type fakeEmployeeRepo struct {
	byID  map[string]employee.Employee
	order []string
	locks int
}

func newFakeEmployeeRepo(emps ...employee.Employee) *fakeEmployeeRepo {
	f := &fakeEmployeeRepo{byID: make(map[string]employee.Employee)}
	for _, e := range emps {
		f.byID[e.ID] = e
		f.order = append(f.order, e.ID)
	}
	return f
}

func (f *fakeEmployeeRepo) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	emp, ok := f.byID[id]
	if !ok || emp.CompanyID != companyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (f *fakeEmployeeRepo) LockForUpdate(ctx context.Context, id string, companyID string) error {
	f.locks++
	_, err := f.GetByID(ctx, id, companyID)
	return err
}

func (f *fakeEmployeeRepo) ListActive(ctx context.Context, companyID string, departmentID *string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, id := range f.order {
		emp := f.byID[id]
		if emp.CompanyID != companyID || !emp.IsActive() {
			continue
		}
		if departmentID != nil && (emp.DepartmentID == nil || *emp.DepartmentID != *departmentID) {
			continue
		}
		out = append(out, emp)
	}
	return out, nil
}

func (f *fakeEmployeeRepo) ListManagers(ctx context.Context, companyID string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, id := range f.order {
		emp := f.byID[id]
		if emp.CompanyID == companyID && emp.IsActive() && emp.UserID != nil && user.Role(emp.Role).IsManager() {
			out = append(out, emp)
		}
	}
	return out, nil
}

func (f *fakeEmployeeRepo) ListCompanyIDs(ctx context.Context) ([]string, error) {
	return []string{testCompanyID}, nil
}

// ---- schedules ----

type fakeScheduleRepo struct {
	schedules map[string]schedule.ShiftSchedule
}

func (f *fakeScheduleRepo) GetByDepartment(ctx context.Context, companyID string, departmentID string) (schedule.ShiftSchedule, error) {
	s, ok := f.schedules[departmentID]
	if !ok || s.CompanyID != companyID {
		return schedule.ShiftSchedule{}, schedule.ErrScheduleNotFound
	}
	return s, nil
}

func (f *fakeScheduleRepo) ListByCompany(ctx context.Context, companyID string) ([]schedule.ShiftSchedule, error) {
	var out []schedule.ShiftSchedule
	for _, s := range f.schedules {
		if s.CompanyID == companyID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) Upsert(ctx context.Context, s schedule.ShiftSchedule) (schedule.ShiftSchedule, error) {
	f.schedules[s.DepartmentID] = s
	return s, nil
}

// ---- publisher ----

type published struct {
	eventType string
	data      interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{eventType, data})
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.eventType
	}
	return out
}

// ---- fixture ----

type fixture struct {
	svc       *AttendanceServiceImpl
	punches   *fakePunchRepo
	absences  *fakeAbsenceRepo
	employees *fakeEmployeeRepo
	schedules *fakeScheduleRepo
	hub       *sse.Hub
	publisher *recordingPublisher
	now       time.Time

	worker  employee.Employee
	other   employee.Employee
	manager employee.Employee
	admin   employee.Employee
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	f := &fixture{now: now}
	f.worker = employee.Employee{
		ID: "33333333-3333-3333-3333-333333333301", UserID: strPtr("user-worker"), CompanyID: testCompanyID,
		DepartmentID: strPtr(testDeptID), FullName: "Budi Santoso", Role: "employee",
		EmploymentStatus: employee.EmploymentStatusActive,
	}
	f.other = employee.Employee{
		ID: "33333333-3333-3333-3333-333333333302", UserID: strPtr("user-other"), CompanyID: testCompanyID,
		DepartmentID: strPtr(testDeptID), FullName: "Citra Lestari", Role: "employee",
		EmploymentStatus: employee.EmploymentStatusActive,
	}
	f.manager = employee.Employee{
		ID: "33333333-3333-3333-3333-333333333303", UserID: strPtr("user-manager"), CompanyID: testCompanyID,
		FullName: "Ani Wijaya", Role: "manager", EmploymentStatus: employee.EmploymentStatusActive,
	}
	f.admin = employee.Employee{
		ID: "33333333-3333-3333-3333-333333333304", UserID: strPtr("user-admin"), CompanyID: testCompanyID,
		FullName: "Dewi Admin", Role: "admin", EmploymentStatus: employee.EmploymentStatusActive,
	}

	f.employees = newFakeEmployeeRepo(f.worker, f.other, f.manager, f.admin)
	f.punches = &fakePunchRepo{employees: f.employees}
	f.absences = &fakeAbsenceRepo{}
	f.schedules = &fakeScheduleRepo{schedules: map[string]schedule.ShiftSchedule{
		testDeptID: {
			CompanyID:          testCompanyID,
			DepartmentID:       testDeptID,
			ShiftStart:         attendance.TimeOfDay{Hour: 9},
			ShiftEnd:           attendance.TimeOfDay{Hour: 17},
			GracePeriodMinutes: 30,
		},
	}}
	f.hub = sse.NewHub()
	f.publisher = &recordingPublisher{}

	engine, err := timeclock.NewEngine(timeclock.DefaultPolicy())
	require.NoError(t, err)
	zones := tzcache.New(func(ctx context.Context, companyID string) (string, error) {
		return testTimezone, nil
	}, time.Hour)

	f.svc = NewAttendanceService(f.punches, f.absences, f.employees, f.schedules, engine, zones, f.hub, f.publisher,
		WithClock(func() time.Time { return f.now }))
	return f
}

// punch stores an event directly, bypassing transition checks.
func (f *fixture) punch(emp employee.Employee, et attendance.EventType, at time.Time) attendance.PunchEvent {
	ev, _ := f.punches.Create(context.Background(), attendance.PunchEvent{
		EmployeeID: emp.ID,
		CompanyID:  emp.CompanyID,
		EventType:  et,
		Timestamp:  at.UTC(),
		Source:     attendance.SourceQR,
	})
	return ev
}

// as returns a context carrying a verified token for emp.
func (f *fixture) as(t *testing.T, emp employee.Employee) context.Context {
	t.Helper()
	ja := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := ja.Encode(map[string]interface{}{
		"user_id":     *emp.UserID,
		"employee_id": emp.ID,
		"company_id":  emp.CompanyID,
		"role":        emp.Role,
		"type":        "access",
	})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}
