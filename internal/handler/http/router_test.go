package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCompanyID = "11111111-1111-1111-1111-111111111111"

// fakeAttendanceService records what the handlers pass through and returns
// err when it is set.
type fakeAttendanceService struct {
	err error

	punch      attendance.RecordPunchRequest
	deletedID  string
	employeeID string
	board      attendance.TeamBoardFilter
	report     attendance.ShiftReportFilter
	myShifts   attendance.MyShiftFilter
	claims     auth.Claims
}

func (f *fakeAttendanceService) RecordPunch(ctx context.Context, req attendance.RecordPunchRequest) (attendance.PunchResponse, error) {
	f.punch = req
	f.claims, _ = auth.ClaimsFromContext(ctx)
	if f.err != nil {
		return attendance.PunchResponse{}, f.err
	}
	return attendance.PunchResponse{ID: "punch-1", EventType: attendance.EventType(req.EventType)}, nil
}

func (f *fakeAttendanceService) CreateManualPunch(ctx context.Context, req attendance.ManualPunchRequest) (attendance.PunchResponse, error) {
	return attendance.PunchResponse{ID: "punch-2", EventType: attendance.EventType(req.EventType)}, f.err
}

func (f *fakeAttendanceService) DeletePunch(ctx context.Context, id string) error {
	f.deletedID = id
	return f.err
}

func (f *fakeAttendanceService) GetMyStatus(ctx context.Context) (attendance.StatusResponse, error) {
	return attendance.StatusResponse{}, f.err
}

func (f *fakeAttendanceService) GetEmployeeStatus(ctx context.Context, employeeID string) (attendance.StatusResponse, error) {
	f.employeeID = employeeID
	return attendance.StatusResponse{}, f.err
}

func (f *fakeAttendanceService) GetTeamBoard(ctx context.Context, filter attendance.TeamBoardFilter) (attendance.TeamBoardResponse, error) {
	f.board = filter
	return attendance.TeamBoardResponse{}, f.err
}

func (f *fakeAttendanceService) GetShiftReport(ctx context.Context, filter attendance.ShiftReportFilter) (attendance.ShiftReportResponse, error) {
	f.report = filter
	return attendance.ShiftReportResponse{}, f.err
}

func (f *fakeAttendanceService) GetMyShifts(ctx context.Context, filter attendance.MyShiftFilter) (attendance.ShiftReportResponse, error) {
	f.myShifts = filter
	return attendance.ShiftReportResponse{}, f.err
}

func (f *fakeAttendanceService) MarkAbsent(ctx context.Context, req attendance.MarkAbsentRequest) (attendance.AbsenceResponse, error) {
	return attendance.AbsenceResponse{}, f.err
}

type fakeScheduleService struct {
	departmentID string
	upsert       schedule.UpsertShiftScheduleRequest
}

func (f *fakeScheduleService) GetShiftSchedule(ctx context.Context, departmentID string) (schedule.ShiftScheduleResponse, error) {
	f.departmentID = departmentID
	return schedule.ShiftScheduleResponse{}, schedule.ErrScheduleNotFound
}

func (f *fakeScheduleService) ListShiftSchedules(ctx context.Context) ([]schedule.ShiftScheduleResponse, error) {
	return []schedule.ShiftScheduleResponse{}, nil
}

func (f *fakeScheduleService) UpsertShiftSchedule(ctx context.Context, req schedule.UpsertShiftScheduleRequest) (schedule.ShiftScheduleResponse, error) {
	f.upsert = req
	return schedule.ShiftScheduleResponse{}, nil
}

type fakeReportService struct {
	req report.MonthlyAttendanceReportRequest
}

func (f *fakeReportService) GetMonthlyAttendanceReport(ctx context.Context, req report.MonthlyAttendanceReportRequest) (report.MonthlyAttendanceReport, error) {
	f.req = req
	if err := req.Validate(); err != nil {
		return report.MonthlyAttendanceReport{}, err
	}
	return report.MonthlyAttendanceReport{}, nil
}

type fakeCompanyService struct{}

func (fakeCompanyService) GetMyCompany(ctx context.Context) (company.CompanyResponse, error) {
	return company.CompanyResponse{ID: testCompanyID, Timezone: "Asia/Jakarta"}, nil
}

func (fakeCompanyService) UpdateTimezone(ctx context.Context, req company.UpdateTimezoneRequest) (company.CompanyResponse, error) {
	if err := req.Validate(); err != nil {
		return company.CompanyResponse{}, err
	}
	return company.CompanyResponse{ID: testCompanyID, Timezone: req.Timezone}, nil
}

type testServer struct {
	handler    http.Handler
	jwt        jwt.Service
	hub        *sse.Hub
	attendance *fakeAttendanceService
	schedule   *fakeScheduleService
	report     *fakeReportService
}

func newTestServer(t *testing.T, checks map[string]func(ctx context.Context) error) *testServer {
	t.Helper()
	ts := &testServer{
		jwt:        jwt.NewJWTService("test-secret", time.Hour, time.Minute),
		hub:        sse.NewHub(),
		attendance: &fakeAttendanceService{},
		schedule:   &fakeScheduleService{},
		report:     &fakeReportService{},
	}
	ts.handler = NewRouter(
		RouterConfig{AppName: "attendance-test", Env: "test", HealthChecks: checks},
		ts.jwt,
		Handlers{
			Attendance: NewAttendanceHandler(ts.attendance),
			Schedule:   NewScheduleHandler(ts.schedule),
			Report:     NewReportHandler(ts.report),
			Company:    NewCompanyHandler(fakeCompanyService{}),
			Stream:     NewStreamHandler(ts.hub, ts.jwt),
		},
	)
	return ts
}

func (ts *testServer) token(t *testing.T, role user.Role) string {
	t.Helper()
	employeeID := "emp-" + string(role)
	token, _, err := ts.jwt.GenerateAccessToken(jwt.AccessClaims{
		UserID:     "user-" + string(role),
		EmployeeID: &employeeID,
		CompanyID:  testCompanyID,
		Role:       role,
	})
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, target, token, body string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var resp response.Response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestRouter_Authentication(t *testing.T) {
	ts := newTestServer(t, nil)

	rec, resp := ts.do(t, http.MethodGet, "/api/v1/attendance/me/status", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, resp.Success)

	sseToken, _, err := ts.jwt.GenerateSSEToken("user-employee")
	require.NoError(t, err)
	rec, _ = ts.do(t, http.MethodGet, "/api/v1/attendance/me/status", sseToken, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "stream tokens must not authorize the API")

	rec, resp = ts.do(t, http.MethodGet, "/api/v1/attendance/me/status", ts.token(t, user.RoleEmployee), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
}

func TestRouter_Permissions(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name   string
		role   user.Role
		method string
		target string
		body   string
		want   int
	}{
		{"employee cannot see the board", user.RoleEmployee, http.MethodGet, "/api/v1/attendance/board", "", http.StatusForbidden},
		{"manager sees the board", user.RoleManager, http.MethodGet, "/api/v1/attendance/board", "", http.StatusOK},
		{"employee cannot add manual punches", user.RoleEmployee, http.MethodPost, "/api/v1/attendance/punches/manual", `{"employee_id":"x"}`, http.StatusForbidden},
		{"employee cannot mark absent", user.RoleEmployee, http.MethodPost, "/api/v1/attendance/absences", `{}`, http.StatusForbidden},
		{"manager cannot edit schedules", user.RoleManager, http.MethodPut, "/api/v1/schedules/" + testCompanyID, `{}`, http.StatusForbidden},
		{"admin edits schedules", user.RoleAdmin, http.MethodPut, "/api/v1/schedules/" + testCompanyID, `{"shift_start":"09:00"}`, http.StatusOK},
		{"employee cannot read reports", user.RoleEmployee, http.MethodGet, "/api/v1/reports/attendance/monthly?month=3&year=2024", "", http.StatusForbidden},
		{"manager cannot change timezone", user.RoleManager, http.MethodPut, "/api/v1/companies/my/timezone", `{"timezone":"UTC"}`, http.StatusForbidden},
		{"employee reads own company", user.RoleEmployee, http.MethodGet, "/api/v1/companies/my", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := ts.do(t, tt.method, tt.target, ts.token(t, tt.role), tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRecordPunch(t *testing.T) {
	ts := newTestServer(t, nil)

	rec, resp := ts.do(t, http.MethodPost, "/api/v1/attendance/punches", ts.token(t, user.RoleEmployee), `{"event_type":"sign_in"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, resp.Success)
	assert.Equal(t, "sign_in", ts.attendance.punch.EventType)
	assert.Equal(t, "emp-employee", ts.attendance.claims.EmployeeID)

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/attendance/punches", ts.token(t, user.RoleEmployee), `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/punches", strings.NewReader(`{"event_type":"sign_in"}`))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", "Bearer "+ts.token(t, user.RoleEmployee))
	plain := httptest.NewRecorder()
	ts.handler.ServeHTTP(plain, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, plain.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{attendance.ErrAlreadySignedIn, http.StatusConflict},
		{attendance.ErrNotOnBreak, http.StatusConflict},
		{attendance.ErrShiftTooLong, http.StatusUnprocessableEntity},
		{attendance.ErrPunchInFuture, http.StatusBadRequest},
		{attendance.ErrPunchNotFound, http.StatusNotFound},
		{validator.ValidationErrors{{Field: "event_type", Message: "required"}}, http.StatusUnprocessableEntity},
		{user.ErrInsufficientPermissions, http.StatusForbidden},
		{attendance.ErrInvalidTimezone, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			ts := newTestServer(t, nil)
			ts.attendance.err = tt.err

			rec, resp := ts.do(t, http.MethodPost, "/api/v1/attendance/punches", ts.token(t, user.RoleEmployee), `{"event_type":"sign_in"}`)
			assert.Equal(t, tt.want, rec.Code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
		})
	}
}

func TestErrorMapping_BrokenCompanyTimezoneKeepsCause(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.attendance.err = fmt.Errorf("%w \"Mars/Olympus\": unknown time zone Mars/Olympus", attendance.ErrInvalidTimezone)

	rec, resp := ts.do(t, http.MethodPost, "/api/v1/attendance/punches", ts.token(t, user.RoleEmployee), `{"event_type":"sign_in"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "Mars/Olympus")
}

func TestQueryAndURLParams(t *testing.T) {
	ts := newTestServer(t, nil)
	manager := ts.token(t, user.RoleManager)

	rec, _ := ts.do(t, http.MethodDelete, "/api/v1/attendance/punches/abc-123", manager, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-123", ts.attendance.deletedID)

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/attendance/employees/emp-9/status", manager, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "emp-9", ts.attendance.employeeID)

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/attendance/board?department_id=dep-1", manager, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, ts.attendance.board.DepartmentID)
	assert.Equal(t, "dep-1", *ts.attendance.board.DepartmentID)

	rec, resp := ts.do(t, http.MethodGet, "/api/v1/attendance/shifts?start_date=2024-03-01&end_date=2024-03-31&employee_id=emp-2", manager, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp.Meta)
	assert.Zero(t, resp.Meta.TotalItems)
	assert.Equal(t, "2024-03-01", ts.attendance.report.StartDate)
	assert.Equal(t, "2024-03-31", ts.attendance.report.EndDate)
	require.NotNil(t, ts.attendance.report.EmployeeID)
	assert.Nil(t, ts.attendance.report.DepartmentID)

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/attendance/me/shifts?start_date=2024-03-01", manager, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-03-01", ts.attendance.myShifts.StartDate)

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/schedules/dep-7", manager, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "dep-7", ts.schedule.departmentID)
}

func TestMonthlyReport_Params(t *testing.T) {
	ts := newTestServer(t, nil)
	manager := ts.token(t, user.RoleManager)

	rec, _ := ts.do(t, http.MethodGet, "/api/v1/reports/attendance/monthly?month=3&year=2024&department_id=22222222-2222-2222-2222-222222222222", manager, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, ts.report.req.Month)
	assert.Equal(t, 2024, ts.report.req.Year)
	require.NotNil(t, ts.report.req.DepartmentID)

	rec, resp := ts.do(t, http.MethodGet, "/api/v1/reports/attendance/monthly?month=march&year=2024", manager, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, report.ErrInvalidMonth.Error(), resp.Error.Message)

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/reports/attendance/monthly?month=3", manager, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateTimezone(t *testing.T) {
	ts := newTestServer(t, nil)
	admin := ts.token(t, user.RoleAdmin)

	rec, _ := ts.do(t, http.MethodPut, "/api/v1/companies/my/timezone", admin, `{"timezone":"Europe/Berlin"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = ts.do(t, http.MethodPut, "/api/v1/companies/my/timezone", admin, `{"timezone":"Mars/Olympus"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, map[string]func(ctx context.Context) error{
		"database": func(ctx context.Context) error { return nil },
	})
	rec, resp := ts.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	ts = newTestServer(t, map[string]func(ctx context.Context) error{
		"database": func(ctx context.Context) error { return nil },
		"rabbitmq": func(ctx context.Context) error { return errors.New("connection closed") },
	})
	rec, resp = ts.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "degraded", data["status"])
}

func TestStream(t *testing.T) {
	ts := newTestServer(t, nil)
	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/attendance/stream")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Access tokens are not accepted on the stream.
	resp, err = http.Get(srv.URL + "/api/v1/attendance/stream?token=" + ts.token(t, user.RoleEmployee))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	rec, tokenResp := ts.do(t, http.MethodPost, "/api/v1/attendance/stream/token", ts.token(t, user.RoleEmployee), "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := tokenResp.Data.(map[string]interface{})
	sseToken := data["token"].(string)
	assert.EqualValues(t, 60, data["expires_in"])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/attendance/stream?token="+sseToken, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	first := readEvent(t, reader)
	assert.Contains(t, first, "event: "+sse.EventConnected)

	require.Eventually(t, func() bool { return ts.hub.SubscriberCount("user-employee") == 1 }, time.Second, 10*time.Millisecond)
	ts.hub.Publish("user-employee", sse.Event{Event: sse.EventAttendance, Data: map[string]string{"employee_id": "emp-employee"}})

	second := readEvent(t, reader)
	assert.Contains(t, second, "event: "+sse.EventAttendance)
	assert.Contains(t, second, `"employee_id":"emp-employee"`)
}

// readEvent reads one SSE frame, up to the blank line that terminates it.
func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	var sb strings.Builder
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if line == "\n" {
			return sb.String()
		}
		sb.WriteString(line)
	}
}
