package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dojo-admin-api/internal/models"
	"github.com/noah-isme/dojo-admin-api/pkg/config"
	"github.com/noah-isme/dojo-admin-api/pkg/database"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "dojo", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	paths := [][]string{{"serve"}, {"migrate", "up"}, {"migrate", "status"}, {"lessons", "generate"}, {"debtors"}}

	for _, path := range paths {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestGenerateFlagsRequired(t *testing.T) {
	cmd := NewRootCommand()
	generate, _, err := cmd.Find([]string{"lessons", "generate"})
	require.NoError(t, err)

	for _, name := range []string{"group", "from", "to"} {
		flag := generate.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, []string{"true"}, flag.Annotations["cobra_annotation_bash_completion_one_required_flag"], name)
	}
}

func TestInvalidFormatRejected(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"debtors", "--format", "yaml"})
	cmd.SetOut(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestMigrateAndDebtors(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SEED_ADMIN_PASSWORD", "cli-pass")
	dbPath := filepath.Join(t.TempDir(), "dojo.db")

	var migrated struct {
		Version int64  `json:"version"`
		Path    string `json:"path"`
	}
	require.NoError(t, json.Unmarshal([]byte(execute(t, "migrate", "up", "--db", dbPath, "--format", "json")), &migrated))
	assert.Equal(t, dbPath, migrated.Path)
	assert.Positive(t, migrated.Version)

	db, err := database.NewSQLite(config.DatabaseConfig{Path: dbPath, BusyTimeout: time.Second})
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO clients (full_name, search_key) VALUES (?, ?)`, "Daria", models.SearchKey("Daria"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	text := execute(t, "debtors", "--db", dbPath)
	assert.Contains(t, text, "Client")
	assert.Contains(t, text, "Daria")
	assert.Contains(t, text, "none")

	export := filepath.Join(t.TempDir(), "debtors.csv")
	assert.Contains(t, execute(t, "debtors", "--db", dbPath, "--out", export), "wrote "+export)
	assert.FileExists(t, export)
}
