// Package cli implements the dojo command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/dojo-admin-api/internal/migrations"
	"github.com/noah-isme/dojo-admin-api/internal/server"
	"github.com/noah-isme/dojo-admin-api/pkg/config"
	"github.com/noah-isme/dojo-admin-api/pkg/database"
	"github.com/noah-isme/dojo-admin-api/pkg/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DBPath  string
	Format  string // "json" | "text"
	Verbose bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the dojo CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "dojo",
		Short: "Dojo administration engine",
		Long:  "Clients, subscriptions, groups, lessons and attendance of a martial-arts school, stored in one local database file.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range ValidFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "database file (overrides DB_PATH)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewLessonsCommand(opts))
	cmd.AddCommand(NewDebtorsCommand(opts))

	return cmd
}

// runtime is an opened, migrated database with its configuration.
type runtime struct {
	cfg    *config.Config
	log    *zap.Logger
	db     *sqlx.DB
	closed bool
}

func (r *runtime) Close() {
	if r.closed {
		return
	}
	r.closed = true
	_ = r.db.Close()
	_ = r.log.Sync()
}

func (r *runtime) services() *server.Services {
	return server.NewServices(r.db, r.cfg, nil, r.log)
}

func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.DBPath != "" {
		cfg.Database.Path = o.DBPath
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// open loads configuration, opens the database and applies pending
// migrations when migrate is set.
func (o *RootOptions) open(ctx context.Context, migrate bool) (*runtime, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := database.NewSQLite(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	rt := &runtime{cfg: cfg, log: log, db: db}
	if migrate {
		err := migrations.Up(ctx, db.DB, migrations.Options{
			Logger: log,
			Seed:   migrations.Seed{AdminLogin: cfg.Seed.AdminLogin, AdminPassword: cfg.Seed.AdminPassword},
		})
		if err != nil {
			rt.Close()
			return nil, err
		}
	}
	return rt, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
