package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPunchRepository_CreateAndList(t *testing.T) {
	setup := setupTestDatabase(t)
	ctx := context.Background()
	f := seedCompany(t, ctx, setup.DB, "Asia/Jakarta")
	repo := postgresql.NewPunchRepository(setup.DB)

	base := time.Date(2024, 3, 4, 1, 0, 0, 0, time.UTC)
	for i, et := range []attendance.EventType{attendance.EventSignIn, attendance.EventBreakStart, attendance.EventBreakEnd, attendance.EventSignOut} {
		_, err := repo.Create(ctx, attendance.PunchEvent{
			EmployeeID: f.EmployeeID,
			CompanyID:  f.CompanyID,
			EventType:  et,
			Timestamp:  base.Add(time.Duration(i) * 2 * time.Hour),
			Source:     attendance.SourceQR,
		})
		require.NoError(t, err)
	}

	t.Run("list by employee is half open", func(t *testing.T) {
		events, err := repo.ListByEmployee(ctx, f.EmployeeID, f.CompanyID, base, base.Add(6*time.Hour))
		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, attendance.EventSignIn, events[0].EventType)
		assert.Equal(t, "Budi Santoso", events[0].EmployeeName)
		assert.True(t, events[0].Timestamp.Equal(base))
	})

	t.Run("list by company filters department", func(t *testing.T) {
		events, err := repo.ListByCompany(ctx, f.CompanyID, &f.DepartmentID, base, base.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Len(t, events, 4)

		other := uuid.NewString()
		events, err = repo.ListByCompany(ctx, f.CompanyID, &other, base, base.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("get and delete are company scoped", func(t *testing.T) {
		events, err := repo.ListByEmployee(ctx, f.EmployeeID, f.CompanyID, base, base.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, events, 1)

		_, err = repo.GetByID(ctx, events[0].ID, uuid.NewString())
		assert.ErrorIs(t, err, attendance.ErrPunchNotFound)

		require.NoError(t, repo.Delete(ctx, events[0].ID, f.CompanyID))
		assert.ErrorIs(t, repo.Delete(ctx, events[0].ID, f.CompanyID), attendance.ErrPunchNotFound)
	})
}

func TestAbsenceRepository(t *testing.T) {
	setup := setupTestDatabase(t)
	ctx := context.Background()
	f := seedCompany(t, ctx, setup.DB, "Asia/Jakarta")
	repo := postgresql.NewAbsenceRepository(setup.DB)

	created, err := repo.Create(ctx, attendance.AbsenceOverride{
		EmployeeID: f.EmployeeID,
		CompanyID:  f.CompanyID,
		Date:       "2024-03-04",
		Reason:     "no show",
		MarkedBy:   f.ManagerID,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = repo.Create(ctx, attendance.AbsenceOverride{
		EmployeeID: f.EmployeeID,
		CompanyID:  f.CompanyID,
		Date:       "2024-03-04",
		MarkedBy:   f.ManagerID,
	})
	assert.ErrorIs(t, err, attendance.ErrAlreadyMarkedAbsent)

	exists, err := repo.Exists(ctx, f.EmployeeID, f.CompanyID, "2024-03-04")
	require.NoError(t, err)
	assert.True(t, exists)

	ids, err := repo.ListEmployeeIDsByDate(ctx, f.CompanyID, "2024-03-05")
	require.NoError(t, err)
	assert.Empty(t, ids)

	list, err := repo.ListByDateRange(ctx, f.CompanyID, "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2024-03-04", list[0].Date)
}

func TestShiftScheduleRepository_Upsert(t *testing.T) {
	setup := setupTestDatabase(t)
	ctx := context.Background()
	f := seedCompany(t, ctx, setup.DB, "Asia/Jakarta")
	repo := postgresql.NewShiftScheduleRepository(setup.DB)

	start, err := attendance.ParseTimeOfDay("22:00")
	require.NoError(t, err)
	end, err := attendance.ParseTimeOfDay("06:30")
	require.NoError(t, err)

	saved, err := repo.Upsert(ctx, scheduleFor(f, start, end, 15))
	require.NoError(t, err)
	assert.Equal(t, "Warehouse", saved.DepartmentName)
	assert.Equal(t, start, saved.ShiftStart)
	assert.Equal(t, end, saved.ShiftEnd)
	assert.True(t, saved.Window().IsOvernight())

	saved2, err := repo.Upsert(ctx, scheduleFor(f, end, start, 0))
	require.NoError(t, err)
	assert.Equal(t, saved.ID, saved2.ID)
	assert.Equal(t, 0, saved2.GracePeriodMinutes)

	list, err := repo.ListByCompany(ctx, f.CompanyID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
