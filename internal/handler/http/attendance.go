package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	RecordPunch(w http.ResponseWriter, r *http.Request)
	CreateManualPunch(w http.ResponseWriter, r *http.Request)
	DeletePunch(w http.ResponseWriter, r *http.Request)
	GetMyStatus(w http.ResponseWriter, r *http.Request)
	GetMyShifts(w http.ResponseWriter, r *http.Request)
	GetEmployeeStatus(w http.ResponseWriter, r *http.Request)
	GetTeamBoard(w http.ResponseWriter, r *http.Request)
	GetShiftReport(w http.ResponseWriter, r *http.Request)
	MarkAbsent(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// queryPtr returns nil for a missing or empty query parameter.
func queryPtr(r *http.Request, key string) *string {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	return &v
}

// RecordPunch implements AttendanceHandler.
func (h *attendanceHandlerImpl) RecordPunch(w http.ResponseWriter, r *http.Request) {
	var req attendance.RecordPunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode punch request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.RecordPunch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Punch recorded", result)
}

// CreateManualPunch implements AttendanceHandler.
func (h *attendanceHandlerImpl) CreateManualPunch(w http.ResponseWriter, r *http.Request) {
	var req attendance.ManualPunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode manual punch request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.CreateManualPunch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Manual punch created", result)
}

// DeletePunch implements AttendanceHandler.
func (h *attendanceHandlerImpl) DeletePunch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.attendanceService.DeletePunch(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Punch deleted", nil)
}

// GetMyStatus implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMyStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetMyStatus(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetMyShifts implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMyShifts(w http.ResponseWriter, r *http.Request) {
	filter := attendance.MyShiftFilter{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}

	result, err := h.attendanceService.GetMyShifts(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, &response.Meta{TotalItems: int64(len(result.Shifts))})
}

// GetEmployeeStatus implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetEmployeeStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetEmployeeStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetTeamBoard implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetTeamBoard(w http.ResponseWriter, r *http.Request) {
	filter := attendance.TeamBoardFilter{
		DepartmentID: queryPtr(r, "department_id"),
	}

	result, err := h.attendanceService.GetTeamBoard(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetShiftReport implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetShiftReport(w http.ResponseWriter, r *http.Request) {
	filter := attendance.ShiftReportFilter{
		StartDate:    r.URL.Query().Get("start_date"),
		EndDate:      r.URL.Query().Get("end_date"),
		EmployeeID:   queryPtr(r, "employee_id"),
		DepartmentID: queryPtr(r, "department_id"),
	}

	result, err := h.attendanceService.GetShiftReport(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, &response.Meta{TotalItems: int64(len(result.Shifts))})
}

// MarkAbsent implements AttendanceHandler.
func (h *attendanceHandlerImpl) MarkAbsent(w http.ResponseWriter, r *http.Request) {
	var req attendance.MarkAbsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode absence request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.MarkAbsent(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Employee marked absent", result)
}
