package company

import "context"

type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (Company, error)

	// GetTimezone returns the IANA zone name used to bucket the company's punches by date.
	GetTimezone(ctx context.Context, id string) (string, error)

	UpdateTimezone(ctx context.Context, id string, timezone string) error
}
