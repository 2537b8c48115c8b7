package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Investment-Portfolio-Planner/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/model"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/repository"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/testutil"
)

// TestPlannedChangeRepository_RoundTrip covers storing every optional column.
//
// WHY: Nullable recurrence columns must come back as nil, not as zero values, or
// a reloaded change would gain selectors it never had.
func TestPlannedChangeRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()

	t.Run("yearly change with ordinal day", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewPlannedChangeRepository(db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		freq, ordinal, dayType, endType := "yearly", "last", "weekend_day", "after_occurrences"
		interval, month, occurrences := 2, 11, 5
		amount := decimal.RequireFromString("1234.56")
		pc := model.PlannedChange{
			ID:                testutil.MakeID(),
			PortfolioID:       portfolio.ID,
			ChangeType:        "withdrawal",
			Date:              "2025-11-29",
			Amount:            &amount,
			Description:       "year end",
			Frequency:         &freq,
			Interval:          &interval,
			MonthOrdinal:      &ordinal,
			MonthOrdinalDay:   &dayType,
			MonthOfYear:       &month,
			EndsOnType:        &endType,
			EndsOnOccurrences: &occurrences,
		}
		require.NoError(t, repo.InsertPlannedChange(ctx, pc))

		rec, err := repo.GetPlannedChange(ctx, pc.ID)
		require.NoError(t, err)

		require.NotNil(t, rec.Amount)
		assert.True(t, amount.Equal(*rec.Amount))
		rec.Amount = nil
		pc.Amount = nil
		assert.Equal(t, pc, rec.PlannedChange)
		assert.False(t, rec.CreatedAt.IsZero())
		assert.False(t, rec.UpdatedAt.IsZero())
	})

	t.Run("reallocation keeps allocation order", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		portfolio, assets := testutil.CreatePortfolioWithAssets(t, db, 3)
		targets := []model.AllocationTarget{
			{AssetID: assets[2].ID, Percentage: 50},
			{AssetID: assets[0].ID, Percentage: 25},
			{AssetID: assets[1].ID, Percentage: 25},
		}
		rec := testutil.NewPlannedChange(portfolio.ID).Reallocation(targets...).Weekly("tuesday", "friday").Build(t, db)

		assert.Nil(t, rec.Amount)
		assert.Equal(t, targets, rec.TargetAllocations)
		assert.Equal(t, []string{"tuesday", "friday"}, rec.DaysOfWeek)
		assert.Nil(t, rec.DayOfMonth)
		assert.Nil(t, rec.EndsOnDate)
	})
}

func TestPlannedChangeRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces allocations and clears the expired flag", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewPlannedChangeRepository(db)
		portfolio, assets := testutil.CreatePortfolioWithAssets(t, db, 2)
		rec := testutil.NewPlannedChange(portfolio.ID).
			WithDate("2020-01-01").
			Reallocation(model.AllocationTarget{AssetID: assets[0].ID, Percentage: 100}).
			Build(t, db)

		n, err := repo.ExpireEnded(ctx, mustDate(t, "2021-01-01"))
		require.NoError(t, err)
		require.Equal(t, int64(1), n)

		pc := rec.PlannedChange
		pc.Date = "2030-01-01"
		pc.TargetAllocations = []model.AllocationTarget{
			{AssetID: assets[0].ID, Percentage: 40},
			{AssetID: assets[1].ID, Percentage: 60},
		}
		require.NoError(t, repo.UpdatePlannedChange(ctx, pc))

		updated, err := repo.GetPlannedChange(ctx, rec.ID)
		require.NoError(t, err)
		assert.False(t, updated.IsExpired)
		assert.Equal(t, "2030-01-01", updated.Date)
		assert.Equal(t, pc.TargetAllocations, updated.TargetAllocations)
		testutil.AssertRowCount(t, db, "planned_change_allocation", 2)
	})

	t.Run("missing change", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewPlannedChangeRepository(db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		pc := testutil.NewPlannedChange(portfolio.ID).PlannedChange()
		assert.ErrorIs(t, repo.UpdatePlannedChange(ctx, pc), apperrors.ErrPlannedChangeNotFound)
		_, err := repo.GetPlannedChange(ctx, pc.ID)
		assert.ErrorIs(t, err, apperrors.ErrPlannedChangeNotFound)
	})

	t.Run("rolled back transaction leaves nothing behind", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewPlannedChangeRepository(db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, repo.WithTx(tx).InsertPlannedChange(ctx, testutil.NewPlannedChange(portfolio.ID).PlannedChange()))
		require.NoError(t, tx.Rollback())

		testutil.AssertRowCount(t, db, "planned_change", 0)
	})
}

func TestPlannedChangeRepository_Cascade(t *testing.T) {
	db := testutil.SetupTestDB(t)
	portfolio, assets := testutil.CreatePortfolioWithAssets(t, db, 1)
	testutil.NewPlannedChange(portfolio.ID).
		Reallocation(model.AllocationTarget{AssetID: assets[0].ID, Percentage: 100}).
		Build(t, db)

	_, err := db.Exec(`DELETE FROM portfolio WHERE id = ?`, portfolio.ID)
	require.NoError(t, err)

	testutil.AssertRowCount(t, db, "planned_change", 0)
	testutil.AssertRowCount(t, db, "planned_change_allocation", 0)
}

func TestAssetRepository_GetPortfolioAssets(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAssetRepository(db)
	portfolio, assets := testutil.CreatePortfolioWithAssets(t, db, 3)
	testutil.NewFund().Build(t, db)

	got, err := repo.GetPortfolioAssets(context.Background(), portfolio.ID)
	require.NoError(t, err)
	assert.Equal(t, assets, got)

	got, err = repo.GetPortfolioAssets(context.Background(), testutil.MakeID())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPortfolioRepository_GetPortfolioOnID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPortfolioRepository(db)
	portfolio := testutil.NewPortfolio().Archived().Build(t, db)

	got, err := repo.GetPortfolioOnID(context.Background(), portfolio.ID)
	require.NoError(t, err)
	assert.Equal(t, portfolio, got)

	_, err = repo.GetPortfolioOnID(context.Background(), testutil.MakeID())
	assert.ErrorIs(t, err, apperrors.ErrPortfolioNotFound)
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := repository.ParseTime(s)
	require.NoError(t, err)
	return d
}
