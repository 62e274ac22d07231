package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type companyRepositoryImpl struct {
	db *database.DB
}

func NewCompanyRepository(db *database.DB) company.CompanyRepository {
	return &companyRepositoryImpl{db: db}
}

// GetByID implements company.CompanyRepository.
func (c *companyRepositoryImpl) GetByID(ctx context.Context, id string) (company.Company, error) {
	q := GetQuerier(ctx, c.db)

	query := `
		SELECT id, name, username, timezone, created_at, updated_at
		FROM companies
		WHERE id = $1 AND deleted_at IS NULL
	`

	var comp company.Company
	err := q.QueryRow(ctx, query, id).Scan(
		&comp.ID, &comp.Name, &comp.Username, &comp.Timezone, &comp.CreatedAt, &comp.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return company.Company{}, company.ErrCompanyNotFound
		}
		return company.Company{}, fmt.Errorf("failed to get company with id %s: %w", id, err)
	}

	return comp, nil
}

// GetTimezone implements company.CompanyRepository.
func (c *companyRepositoryImpl) GetTimezone(ctx context.Context, id string) (string, error) {
	q := GetQuerier(ctx, c.db)

	var tz string
	err := q.QueryRow(ctx, `SELECT timezone FROM companies WHERE id = $1 AND deleted_at IS NULL`, id).Scan(&tz)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", company.ErrCompanyNotFound
		}
		return "", fmt.Errorf("failed to get timezone of company %s: %w", id, err)
	}

	return tz, nil
}

// UpdateTimezone implements company.CompanyRepository.
func (c *companyRepositoryImpl) UpdateTimezone(ctx context.Context, id string, timezone string) error {
	q := GetQuerier(ctx, c.db)

	query := `
		UPDATE companies
		SET timezone = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
		RETURNING id
	`

	var updatedID string
	if err := q.QueryRow(ctx, query, timezone, id).Scan(&updatedID); err != nil {
		if err == pgx.ErrNoRows {
			return company.ErrCompanyNotFound
		}
		return fmt.Errorf("failed to update timezone of company %s: %w", id, err)
	}

	return nil
}
