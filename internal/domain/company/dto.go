package company

import (
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

type UpdateTimezoneRequest struct {
	Timezone string `json:"timezone"`
}

func (r *UpdateTimezoneRequest) Validate() error {
	if !validator.IsValidTimezone(r.Timezone) {
		return validator.ValidationErrors{{
			Field:   "timezone",
			Message: "timezone must be a valid IANA zone name, e.g. Asia/Jakarta",
		}}
	}
	return nil
}

type CompanyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewCompanyResponse(c Company) CompanyResponse {
	return CompanyResponse{
		ID:        c.ID,
		Name:      c.Name,
		Username:  c.Username,
		Timezone:  c.Timezone,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
