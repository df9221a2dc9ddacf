package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dojo-admin-api/pkg/config"
)

func TestNewSQLiteCreatesFileWithPragmas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dojo.db")

	db, err := NewSQLite(config.DatabaseConfig{Path: path, BusyTimeout: time.Second})
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(path)
	require.NoError(t, err)

	var journal string
	require.NoError(t, db.Get(&journal, "PRAGMA journal_mode"))
	assert.Equal(t, "wal", journal)

	var fk int
	require.NoError(t, db.Get(&fk, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, fk)

	var timeout int
	require.NoError(t, db.Get(&timeout, "PRAGMA busy_timeout"))
	assert.Equal(t, 1000, timeout)
}

func TestNewSQLiteRejectsEmptyPath(t *testing.T) {
	_, err := NewSQLite(config.DatabaseConfig{})
	require.Error(t, err)
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Path: "/data/dojo.db", BusyTimeout: 2 * time.Second})
	assert.Contains(t, dsn, "file:/data/dojo.db?")
	assert.Contains(t, dsn, "_foreign_keys=on")
	assert.Contains(t, dsn, "_journal_mode=WAL")
	assert.Contains(t, dsn, "_busy_timeout=2000")
}
