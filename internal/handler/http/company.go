package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
)

type CompanyHandler interface {
	GetMyCompany(w http.ResponseWriter, r *http.Request)
	UpdateTimezone(w http.ResponseWriter, r *http.Request)
}

type CompanyHandlerImpl struct {
	companyService company.CompanyService
}

func NewCompanyHandler(companyService company.CompanyService) CompanyHandler {
	return &CompanyHandlerImpl{
		companyService: companyService,
	}
}

// GetMyCompany implements CompanyHandler.
func (c *CompanyHandlerImpl) GetMyCompany(w http.ResponseWriter, r *http.Request) {
	result, err := c.companyService.GetMyCompany(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// UpdateTimezone implements CompanyHandler.
func (c *CompanyHandlerImpl) UpdateTimezone(w http.ResponseWriter, r *http.Request) {
	var req company.UpdateTimezoneRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Update timezone decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := c.companyService.UpdateTimezone(r.Context(), req)
	if err != nil {
		slog.Error("Company timezone update error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Company timezone updated", result)
}
