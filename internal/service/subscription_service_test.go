package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/dojo-admin-api/internal/dto"
	"github.com/noah-isme/dojo-admin-api/internal/models"
	"github.com/noah-isme/dojo-admin-api/pkg/clock"
	appErrors "github.com/noah-isme/dojo-admin-api/pkg/errors"
)

type planRepoStub struct {
	plans   map[int64]*models.SubscriptionPlan
	inUse   bool
	execs   []sqlx.ExtContext
	deleted []int64
}

func (s *planRepoStub) List(ctx context.Context) ([]models.SubscriptionPlan, error) {
	return nil, nil
}

func (s *planRepoStub) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.SubscriptionPlan, error) {
	plan, ok := s.plans[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return plan, nil
}

func (s *planRepoStub) Create(ctx context.Context, plan *models.SubscriptionPlan) error { return nil }

func (s *planRepoStub) Update(ctx context.Context, plan *models.SubscriptionPlan) error { return nil }

func (s *planRepoStub) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	s.execs = append(s.execs, exec)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *planRepoStub) HasAssignmentsEndingOnOrAfter(ctx context.Context, exec sqlx.ExtContext, planID int64, day models.Date) (bool, error) {
	s.execs = append(s.execs, exec)
	return s.inUse, nil
}

func newPlanFixture(t *testing.T, repo *planRepoStub) (*SubscriptionService, *txProviderMock) {
	tx, _ := newTxProviderMock(t)
	svc := NewSubscriptionService(repo, nil, nil, tx, clock.NewFixed(at("2025-03-10")), nil, zap.NewNop(), nil)
	return svc, tx.(*txProviderMock)
}

func TestDeletePlanChecksAndDeletesInOneTransaction(t *testing.T) {
	repo := &planRepoStub{plans: map[int64]*models.SubscriptionPlan{4: {ID: 4, Name: "Month"}}}
	svc, tx := newPlanFixture(t, repo)
	tx.mock.ExpectBegin()
	tx.mock.ExpectCommit()

	require.NoError(t, svc.DeletePlan(context.Background(), 4))
	assert.Equal(t, []int64{4}, repo.deleted)
	require.Len(t, repo.execs, 2)
	guardTx, ok := repo.execs[0].(*sqlx.Tx)
	require.True(t, ok)
	assert.Same(t, guardTx, repo.execs[1])
	assert.NoError(t, tx.mock.ExpectationsWereMet())
}

func TestDeletePlanInUseRollsBack(t *testing.T) {
	repo := &planRepoStub{plans: map[int64]*models.SubscriptionPlan{4: {ID: 4}}, inUse: true}
	svc, tx := newPlanFixture(t, repo)
	tx.mock.ExpectBegin()
	tx.mock.ExpectRollback()

	assert.ErrorIs(t, svc.DeletePlan(context.Background(), 4), appErrors.ErrPlanInUse)
	assert.Empty(t, repo.deleted)
	assert.NoError(t, tx.mock.ExpectationsWereMet())

	assert.ErrorIs(t, svc.DeletePlan(context.Background(), 5), appErrors.ErrPlanNotFound)
}

func TestExpiringSoonWindowIsInclusiveFromToday(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, "2025-03-01")
	planID := e.plan(30, 0)

	endsToday, err := e.subscriptions.Assign(ctx, dto.AssignSubscriptionRequest{ClientID: e.client("Anna"), PlanID: planID, StartDate: "2025-01-30"})
	require.NoError(t, err)
	require.Equal(t, "2025-03-01", endsToday.EndDate.String())
	endsTomorrow, err := e.subscriptions.Assign(ctx, dto.AssignSubscriptionRequest{ClientID: e.client("Boris"), PlanID: planID, StartDate: "2025-01-31"})
	require.NoError(t, err)
	require.Equal(t, "2025-03-02", endsTomorrow.EndDate.String())

	got, err := e.subscriptions.ExpiringSoon(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, endsToday.ID, got[0].ID)

	got, err = e.subscriptions.ExpiringSoon(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = e.subscriptions.ExpiringSoon(ctx, -1)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
