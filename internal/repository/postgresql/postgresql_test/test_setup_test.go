package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

// TestDatabaseSetup wraps the connection used by repository tests
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL. The schema in migrations/
// must already be applied.
func NewTestDatabase(ctx context.Context) (*TestDatabaseSetup, error) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("TEST_DATABASE_URL is not set")
	}

	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolConfig{MaxConns: 4, MinConns: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}

	return &TestDatabaseSetup{DB: db}, nil
}

// setupTestDatabase skips the calling test when no database is reachable
func setupTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()
	ctx := context.Background()

	setup, err := NewTestDatabase(ctx)
	if err != nil {
		t.Skipf("skipping repository test: %v", err)
	}
	require.NoError(t, setup.TruncateAllTables(ctx))
	t.Cleanup(setup.Close)
	return setup
}

// TruncateAllTables removes every row written by previous tests
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := t.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"absence_overrides",
		"punch_events",
		"shift_schedules",
		"employees",
		"departments",
		"companies",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// Close closes the database connection
func (t *TestDatabaseSetup) Close() {
	t.DB.Close()
}

type fixture struct {
	CompanyID    string
	DepartmentID string
	EmployeeID   string
	ManagerID    string
}

// seedCompany creates a company with one department, one employee and one manager
func seedCompany(t *testing.T, ctx context.Context, db *database.DB, timezone string) fixture {
	t.Helper()
	var f fixture

	err := db.QueryRow(ctx, `
		INSERT INTO companies (name, username, timezone)
		VALUES ('Test Company', 'test-company', $1)
		RETURNING id
	`, timezone).Scan(&f.CompanyID)
	require.NoError(t, err)

	err = db.QueryRow(ctx, `
		INSERT INTO departments (company_id, name) VALUES ($1, 'Warehouse') RETURNING id
	`, f.CompanyID).Scan(&f.DepartmentID)
	require.NoError(t, err)

	err = db.QueryRow(ctx, `
		INSERT INTO employees (company_id, department_id, employee_code, full_name, role, user_id)
		VALUES ($1, $2, 'EMP-001', 'Budi Santoso', 'employee', gen_random_uuid())
		RETURNING id
	`, f.CompanyID, f.DepartmentID).Scan(&f.EmployeeID)
	require.NoError(t, err)

	err = db.QueryRow(ctx, `
		INSERT INTO employees (company_id, department_id, employee_code, full_name, role, user_id)
		VALUES ($1, $2, 'MGR-001', 'Ani Wijaya', 'manager', gen_random_uuid())
		RETURNING id
	`, f.CompanyID, f.DepartmentID).Scan(&f.ManagerID)
	require.NoError(t, err)

	return f
}
