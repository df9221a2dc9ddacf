package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/noah-isme/dojo-admin-api/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Migrate the database and serve the local JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts, port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides PORT)")

	return cmd
}

func runServe(ctx context.Context, opts *RootOptions, port int) error {
	rt, err := opts.open(ctx, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	if port > 0 {
		rt.cfg.Port = port
	}
	router := server.NewRouter(rt.cfg, rt.log, rt.services())
	return server.Run(ctx, rt.cfg, rt.log, router)
}
