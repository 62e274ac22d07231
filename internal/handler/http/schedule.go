package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type ScheduleHandler interface {
	ListShiftSchedules(w http.ResponseWriter, r *http.Request)
	GetShiftSchedule(w http.ResponseWriter, r *http.Request)
	UpsertShiftSchedule(w http.ResponseWriter, r *http.Request)
}

type scheduleHandlerImpl struct {
	scheduleService schedule.ScheduleService
}

func NewScheduleHandler(scheduleService schedule.ScheduleService) ScheduleHandler {
	return &scheduleHandlerImpl{
		scheduleService: scheduleService,
	}
}

// ListShiftSchedules implements ScheduleHandler.
func (h *scheduleHandlerImpl) ListShiftSchedules(w http.ResponseWriter, r *http.Request) {
	result, err := h.scheduleService.ListShiftSchedules(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetShiftSchedule implements ScheduleHandler.
func (h *scheduleHandlerImpl) GetShiftSchedule(w http.ResponseWriter, r *http.Request) {
	result, err := h.scheduleService.GetShiftSchedule(r.Context(), chi.URLParam(r, "departmentID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// UpsertShiftSchedule implements ScheduleHandler.
func (h *scheduleHandlerImpl) UpsertShiftSchedule(w http.ResponseWriter, r *http.Request) {
	var req schedule.UpsertShiftScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode shift schedule request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.DepartmentID = chi.URLParam(r, "departmentID")

	result, err := h.scheduleService.UpsertShiftSchedule(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Shift schedule saved", result)
}
