package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/dojo-admin-api/internal/migrations"
)

// NewMigrateCommand creates the migrate command group.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := rootOpts.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.Close()

			version, err := migrations.Version(cmd.Context(), rt.db.DB)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"version": version, "path": rt.cfg.Database.Path})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "database %s at version %d\n", rt.cfg.Database.Path, version)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Log applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := rootOpts.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()
			return migrations.Status(cmd.Context(), rt.db.DB, rt.log)
		},
	})

	return cmd
}
