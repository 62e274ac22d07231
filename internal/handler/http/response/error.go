package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrMissingClaims):
		Unauthorized(w, err.Error())
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAlreadySignedIn),
		errors.Is(err, attendance.ErrNotSignedIn),
		errors.Is(err, attendance.ErrAlreadyOnBreak),
		errors.Is(err, attendance.ErrNotOnBreak):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrAlreadyMarkedAbsent):
		Conflict(w, "Employee is already marked absent for this date")
	case errors.Is(err, attendance.ErrNotEligibleForAbsent):
		UnprocessableEntity(w, "Employee is not eligible to be marked absent")
	case errors.Is(err, attendance.ErrShiftTooLong):
		UnprocessableEntity(w, "Shift would exceed the maximum editable duration")
	case errors.Is(err, attendance.ErrPunchInFuture):
		BadRequest(w, "Punch timestamp is in the future", nil)
	case errors.Is(err, attendance.ErrUnknownEventType):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrPunchNotFound):
		NotFound(w, "Punch not found")
	case errors.Is(err, attendance.ErrUnauthorized):
		Forbidden(w, err.Error())

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeInactive):
		Forbidden(w, "Employee is not active")

	// Schedule domain errors
	case errors.Is(err, schedule.ErrScheduleNotFound):
		NotFound(w, "Shift schedule not found")
	case errors.Is(err, schedule.ErrDepartmentNotFound):
		NotFound(w, "Department not found")

	// Company domain errors
	case errors.Is(err, company.ErrCompanyNotFound):
		NotFound(w, "Company not found")
	case errors.Is(err, company.ErrInvalidTimezone):
		BadRequest(w, err.Error(), nil)

	// Report domain errors
	case errors.Is(err, report.ErrInvalidMonth), errors.Is(err, report.ErrInvalidYear):
		BadRequest(w, err.Error(), nil)

	// A stored zone the engine cannot load is a data fault, not a client one.
	case errors.Is(err, attendance.ErrInvalidTimezone):
		slog.Error("Invalid company timezone", "error", err)
		InternalServerError(w, err.Error())

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
