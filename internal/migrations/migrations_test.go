package migrations_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/dojo-admin-api/internal/migrations"
	"github.com/noah-isme/dojo-admin-api/internal/testutil"
	"github.com/noah-isme/dojo-admin-api/pkg/config"
	"github.com/noah-isme/dojo-admin-api/pkg/database"
)

func TestUpRecordsEveryVersion(t *testing.T) {
	db := testutil.NewDB(t)

	version, err := migrations.Version(context.Background(), db.DB)
	require.NoError(t, err)
	assert.Equal(t, int64(7), version)

	var applied int
	require.NoError(t, db.Get(&applied, `SELECT COUNT(*) FROM `+migrations.LedgerTable+` WHERE version_id > 0 AND is_applied = 1`))
	assert.Equal(t, 7, applied)
}

func TestUpIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)

	require.NoError(t, migrations.Up(context.Background(), db.DB, migrations.Options{
		Seed: migrations.Seed{AdminLogin: "other", AdminPassword: "secret"},
	}))

	var logins []string
	require.NoError(t, db.Select(&logins, `SELECT login FROM employees WHERE login IS NOT NULL`))
	assert.Equal(t, []string{testutil.SeedLogin}, logins)
}

func TestSeedStaffHashesPassword(t *testing.T) {
	db := testutil.NewDB(t)

	var row struct {
		Hash string `db:"password_hash"`
		Role string `db:"role"`
	}
	require.NoError(t, db.Get(&row, `SELECT password_hash, role FROM employees WHERE login = ?`, testutil.SeedLogin))
	assert.Equal(t, "admin", row.Role)
	assert.NotEqual(t, testutil.SeedPassword, row.Hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(row.Hash), []byte(testutil.SeedPassword)))
}

func TestSeedSkippedWithoutCredentials(t *testing.T) {
	db, err := database.NewSQLite(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "dojo.db"), BusyTimeout: time.Second})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, migrations.Up(context.Background(), db.DB, migrations.Options{}))

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM employees`))
	assert.Zero(t, count)
}

func TestFailedStepIsNotRecorded(t *testing.T) {
	db, err := database.NewSQLite(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "dojo.db"), BusyTimeout: time.Second})
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	// bcrypt rejects passwords longer than 72 bytes, failing the staff seed step.
	err = migrations.Up(ctx, db.DB, migrations.Options{
		Seed: migrations.Seed{AdminLogin: "admin", AdminPassword: strings.Repeat("x", 73)},
	})
	require.Error(t, err)

	version, err := migrations.Version(ctx, db.DB)
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)

	var staff int
	require.NoError(t, db.Get(&staff, `SELECT COUNT(*) FROM employees`))
	assert.Zero(t, staff)

	require.NoError(t, migrations.Up(ctx, db.DB, migrations.Options{
		Seed: migrations.Seed{AdminLogin: "admin", AdminPassword: "secret"},
	}))
	version, err = migrations.Version(ctx, db.DB)
	require.NoError(t, err)
	assert.Equal(t, int64(7), version)
	require.NoError(t, db.Get(&staff, `SELECT COUNT(*) FROM employees`))
	assert.Equal(t, 1, staff)
}

func TestVisitsUsedCannotDecrease(t *testing.T) {
	db := testutil.NewDB(t)

	clientID := testutil.Exec(t, db, `INSERT INTO clients (full_name) VALUES ('Ivan')`)
	subID := testutil.Exec(t, db, `INSERT INTO client_subscriptions (client_id, start_date, end_date, visits_used, visits_total)
VALUES (?, '2024-01-01', '2024-01-31', 2, 8)`, clientID)

	_, err := db.Exec(`UPDATE client_subscriptions SET visits_used = 1 WHERE id = ?`, subID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "visits_used cannot decrease")
}

func TestCascadesAndSetNull(t *testing.T) {
	db := testutil.NewDB(t)

	clientID := testutil.Exec(t, db, `INSERT INTO clients (full_name) VALUES ('Anna')`)
	planID := testutil.Exec(t, db, `INSERT INTO subscriptions (name, price, duration_days, visit_limit) VALUES ('Month', 3000, 30, 8)`)
	assignmentID := testutil.Exec(t, db, `INSERT INTO client_subscriptions (client_id, subscription_id, start_date, end_date, visits_total)
VALUES (?, ?, '2024-01-01', '2024-01-30', 8)`, clientID, planID)
	groupID := testutil.Exec(t, db, `INSERT INTO training_groups (name) VALUES ('Juniors')`)
	lessonID := testutil.Exec(t, db, `INSERT INTO lessons (group_id, date, start_time, end_time) VALUES (?, '2024-01-02', '18:00', '19:00')`, groupID)
	testutil.Exec(t, db, `INSERT INTO attendance (lesson_id, client_id) VALUES (?, ?)`, lessonID, clientID)

	_, err := db.Exec(`DELETE FROM subscriptions WHERE id = ?`, planID)
	require.NoError(t, err)

	var planRef *int64
	require.NoError(t, db.Get(&planRef, `SELECT subscription_id FROM client_subscriptions WHERE id = ?`, assignmentID))
	assert.Nil(t, planRef)

	_, err = db.Exec(`DELETE FROM clients WHERE id = ?`, clientID)
	require.NoError(t, err)

	var remaining int
	require.NoError(t, db.Get(&remaining, `SELECT (SELECT COUNT(*) FROM attendance) + (SELECT COUNT(*) FROM client_subscriptions)`))
	assert.Zero(t, remaining)
}

func TestAttendanceUniquePerLessonClient(t *testing.T) {
	db := testutil.NewDB(t)

	clientID := testutil.Exec(t, db, `INSERT INTO clients (full_name) VALUES ('Petr')`)
	groupID := testutil.Exec(t, db, `INSERT INTO training_groups (name) VALUES ('Seniors')`)
	lessonID := testutil.Exec(t, db, `INSERT INTO lessons (group_id, date, start_time, end_time) VALUES (?, '2024-01-02', '18:00', '19:00')`, groupID)

	testutil.Exec(t, db, `INSERT INTO attendance (lesson_id, client_id) VALUES (?, ?)`, lessonID, clientID)
	_, err := db.Exec(`INSERT INTO attendance (lesson_id, client_id) VALUES (?, ?)`, lessonID, clientID)
	require.Error(t, err)
}
