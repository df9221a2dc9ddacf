// Package testutil provides fixtures shared by repository and service tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dojo-admin-api/internal/migrations"
	"github.com/noah-isme/dojo-admin-api/pkg/config"
	"github.com/noah-isme/dojo-admin-api/pkg/database"
)

// SeedLogin and SeedPassword are the credentials of the admin created by
// NewDB.
const (
	SeedLogin    = "admin"
	SeedPassword = "admin-pass"
)

// NewDB opens a fresh migrated database file under t.TempDir.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.NewSQLite(config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "dojo.db"),
		BusyTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	err = migrations.Up(context.Background(), db.DB, migrations.Options{
		Seed: migrations.Seed{AdminLogin: SeedLogin, AdminPassword: SeedPassword},
	})
	require.NoError(t, err)

	return db
}

// Exec runs a fixture statement and returns the last insert id.
func Exec(t *testing.T, db *sqlx.DB, query string, args ...interface{}) int64 {
	t.Helper()
	res, err := db.Exec(query, args...)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}
