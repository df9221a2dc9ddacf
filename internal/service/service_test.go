package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/dojo-admin-api/internal/models"
	"github.com/noah-isme/dojo-admin-api/internal/repository"
	"github.com/noah-isme/dojo-admin-api/internal/testutil"
	"github.com/noah-isme/dojo-admin-api/pkg/clock"
)

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func at(day string) time.Time {
	return models.MustParseDate(day).In(time.UTC).Add(10 * time.Hour)
}

// engine wires every service over a real migrated database.
type engine struct {
	t             *testing.T
	db            *sqlx.DB
	clock         *clock.Fixed
	metrics       *MetricsService
	subscriptions *SubscriptionService
	attendance    *AttendanceService
	lessons       *LessonService
	groups        *GroupService
	clients       *ClientService
}

func newEngine(t *testing.T, today string) *engine {
	t.Helper()
	db := testutil.NewDB(t)
	clk := clock.NewFixed(at(today))
	metrics := NewMetricsService()
	validate := NewValidator()
	logger := zap.NewNop()

	plans := repository.NewPlanRepository(db)
	assignments := repository.NewClientSubscriptionRepository(db)
	clients := repository.NewClientRepository(db)
	groups := repository.NewGroupRepository(db)
	lessons := repository.NewLessonRepository(db)
	attendance := repository.NewAttendanceRepository(db)
	employees := repository.NewEmployeeRepository(db)

	return &engine{
		t:             t,
		db:            db,
		clock:         clk,
		metrics:       metrics,
		subscriptions: NewSubscriptionService(plans, assignments, clients, db, clk, validate, logger, metrics),
		attendance:    NewAttendanceService(attendance, lessons, assignments, clients, db, clk, validate, logger, metrics),
		lessons:       NewLessonService(lessons, groups, attendance, db, clk, validate, logger, metrics),
		groups:        NewGroupService(groups, attendance, clients, employees, db, clk, validate, logger),
		clients:       NewClientService(clients, db, clk, validate, logger),
	}
}

func (e *engine) setToday(day string) {
	e.clock.Set(at(day))
}

func (e *engine) client(name string) int64 {
	return testutil.Exec(e.t, e.db, `INSERT INTO clients (full_name, search_key) VALUES (?, ?)`, name, models.SearchKey(name))
}

func (e *engine) plan(days, limit int) int64 {
	return testutil.Exec(e.t, e.db, `INSERT INTO subscriptions (name, price, duration_days, visit_limit) VALUES ('Plan', 3000, ?, ?)`, days, limit)
}

func (e *engine) group(name string) int64 {
	return testutil.Exec(e.t, e.db, `INSERT INTO training_groups (name) VALUES (?)`, name)
}

func (e *engine) visitsUsed(assignmentID int64) int {
	var used int
	require.NoError(e.t, e.db.Get(&used, `SELECT visits_used FROM client_subscriptions WHERE id = ?`, assignmentID))
	return used
}

func (e *engine) status(lessonID, clientID int64) *models.AttendanceStatus {
	var status *models.AttendanceStatus
	require.NoError(e.t, e.db.Get(&status, `SELECT status FROM attendance WHERE lesson_id = ? AND client_id = ?`, lessonID, clientID))
	return status
}
