// Package migrations holds the versioned schema of the dojo database.
//
// SQL steps are embedded; steps that need data work (seeding the staff
// login, back-filling search keys) are registered as Go migrations. Every
// step runs inside its own transaction and is recorded in the ledger table.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/dojo-admin-api/pkg/logger"
)

// LedgerTable records applied migration versions.
const LedgerTable = "schema_migrations"

//go:embed *.sql
var embedded embed.FS

// goose keeps its configuration in package globals.
var gooseMu sync.Mutex

// Seed carries the credentials of the default staff login.
type Seed struct {
	AdminLogin    string
	AdminPassword string
}

type seedKey struct{}

func withSeed(ctx context.Context, s Seed) context.Context {
	return context.WithValue(ctx, seedKey{}, s)
}

func seedFrom(ctx context.Context) Seed {
	if s, ok := ctx.Value(seedKey{}).(Seed); ok {
		return s
	}
	return Seed{}
}

// Options configures a migration run.
type Options struct {
	Logger *zap.Logger
	Seed   Seed
}

func configure(log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	goose.SetBaseFS(embedded)
	goose.SetTableName(LedgerTable)
	goose.SetLogger(logger.NewGooseAdapter(log))
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Up applies every pending migration in version order. Already applied
// versions are skipped, so running Up on a current database is a no-op.
func Up(ctx context.Context, db *sql.DB, opts Options) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := configure(opts.Logger); err != nil {
		return err
	}
	if err := goose.UpContext(withSeed(ctx, opts.Seed), db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Status logs the applied/pending state of each migration.
func Status(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := configure(log); err != nil {
		return err
	}
	if err := goose.StatusContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	return nil
}

// Version returns the highest applied migration version.
func Version(ctx context.Context, db *sql.DB) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := configure(nil); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	return v, nil
}
