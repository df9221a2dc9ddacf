package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dojo-admin-api/internal/models"
)

func TestHasAssignmentsEndingOnOrAfterChecksDateOnly(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM client_subscriptions WHERE subscription_id = ? AND end_date >= ? LIMIT 1")).
		WithArgs(int64(2), "2025-03-15").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	inUse, err := repo.HasAssignmentsEndingOnOrAfter(context.Background(), nil, 2, models.MustParseDate("2025-03-15"))
	require.NoError(t, err)
	assert.True(t, inUse)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanGuardBoundaryOnSQLite(t *testing.T) {
	f := newFixture(t)
	repo := NewPlanRepository(f.db)
	ctx := context.Background()

	planID := f.plan(30, 8)
	clientID := f.client("Ivan")
	f.db.MustExec(`INSERT INTO client_subscriptions (client_id, subscription_id, start_date, end_date, visits_used, visits_total, is_paid)
VALUES (?, ?, '2025-02-13', '2025-03-15', 8, 8, 0)`, clientID, planID)

	inUse, err := repo.HasAssignmentsEndingOnOrAfter(ctx, nil, planID, models.MustParseDate("2025-03-15"))
	require.NoError(t, err)
	assert.True(t, inUse)

	inUse, err = repo.HasAssignmentsEndingOnOrAfter(ctx, nil, planID, models.MustParseDate("2025-03-16"))
	require.NoError(t, err)
	assert.False(t, inUse)
}

func TestPlanCreateUpdateDelete(t *testing.T) {
	f := newFixture(t)
	repo := NewPlanRepository(f.db)
	ctx := context.Background()

	plan := &models.SubscriptionPlan{Name: "Month", Price: 3000, DurationDays: 30, VisitLimit: 8, CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, plan))
	require.NotZero(t, plan.ID)

	plan.VisitLimit = 12
	require.NoError(t, repo.Update(ctx, plan))

	stored, err := repo.FindByID(ctx, nil, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, stored.VisitLimit)
	assert.Equal(t, 3000.0, stored.Price)

	require.NoError(t, repo.Delete(ctx, nil, plan.ID))
	assert.Error(t, repo.Delete(ctx, nil, plan.ID))
}
