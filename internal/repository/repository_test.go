package repository

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dojo-admin-api/internal/models"
	"github.com/noah-isme/dojo-admin-api/internal/testutil"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

type fixture struct {
	t  *testing.T
	db *sqlx.DB
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, db: testutil.NewDB(t)}
}

func (f *fixture) client(name string) int64 {
	return testutil.Exec(f.t, f.db, `INSERT INTO clients (full_name, search_key) VALUES (?, ?)`, name, models.SearchKey(name))
}

func (f *fixture) plan(days, limit int) int64 {
	return testutil.Exec(f.t, f.db, `INSERT INTO subscriptions (name, price, duration_days, visit_limit) VALUES ('Plan', 1000, ?, ?)`, days, limit)
}

func (f *fixture) group(name string) int64 {
	return testutil.Exec(f.t, f.db, `INSERT INTO training_groups (name) VALUES (?)`, name)
}

func (f *fixture) lesson(groupID int64, day string) int64 {
	return testutil.Exec(f.t, f.db, `INSERT INTO lessons (group_id, date, start_time, end_time) VALUES (?, ?, '18:00', '19:30')`, groupID, day)
}

func (f *fixture) member(groupID, clientID int64, joined string) {
	testutil.Exec(f.t, f.db, `INSERT INTO group_members (group_id, client_id, joined_at) VALUES (?, ?, ?)`, groupID, clientID, joined)
}
