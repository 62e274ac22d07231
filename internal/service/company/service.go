package company

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/tzcache"
)

type CompanyServiceImpl struct {
	company.CompanyRepository
	zones *tzcache.Cache
}

func NewCompanyService(companyRepo company.CompanyRepository, zones *tzcache.Cache) company.CompanyService {
	return &CompanyServiceImpl{
		CompanyRepository: companyRepo,
		zones:             zones,
	}
}

// GetMyCompany implements company.CompanyService.
func (c *CompanyServiceImpl) GetMyCompany(ctx context.Context) (company.CompanyResponse, error) {
	claims, err := auth.ClaimsFromContext(ctx)
	if err != nil {
		return company.CompanyResponse{}, err
	}
	if !user.HasPermission(claims.Role, user.PermissionCompanyView) {
		return company.CompanyResponse{}, user.ErrInsufficientPermissions
	}

	data, err := c.CompanyRepository.GetByID(ctx, claims.CompanyID)
	if err != nil {
		return company.CompanyResponse{}, err
	}
	return company.NewCompanyResponse(data), nil
}

// UpdateTimezone implements company.CompanyService.
// Punches already stored keep their instant; only the date they are bucketed
// into changes.
func (c *CompanyServiceImpl) UpdateTimezone(ctx context.Context, req company.UpdateTimezoneRequest) (company.CompanyResponse, error) {
	claims, err := auth.ClaimsFromContext(ctx)
	if err != nil {
		return company.CompanyResponse{}, err
	}
	if !user.HasPermission(claims.Role, user.PermissionCompanyManage) {
		return company.CompanyResponse{}, user.ErrInsufficientPermissions
	}
	if err := req.Validate(); err != nil {
		return company.CompanyResponse{}, err
	}

	if err := c.CompanyRepository.UpdateTimezone(ctx, claims.CompanyID, req.Timezone); err != nil {
		return company.CompanyResponse{}, fmt.Errorf("failed to update timezone: %w", err)
	}
	c.zones.Invalidate(claims.CompanyID)

	slog.Info("Company timezone updated", "company_id", claims.CompanyID, "timezone", req.Timezone, "updated_by", claims.UserID)

	data, err := c.CompanyRepository.GetByID(ctx, claims.CompanyID)
	if err != nil {
		return company.CompanyResponse{}, err
	}
	return company.NewCompanyResponse(data), nil
}
