package company

import "context"

type CompanyService interface {
	// GetMyCompany returns the company of the authenticated user
	GetMyCompany(ctx context.Context) (CompanyResponse, error)

	// UpdateTimezone changes the zone used for date bucketing and drops the cached value
	UpdateTimezone(ctx context.Context, req UpdateTimezoneRequest) (CompanyResponse, error)
}
