package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sadopc/inkwell/internal/api"
	"github.com/sadopc/inkwell/internal/mcp"
)

func newServeCmd(o *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the journal over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := o.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.HTTPAddr
			}
			deps := api.Deps{
				Store:     a.store,
				Analyzer:  a.pipeline,
				Analytics: a.analytics,
				Log:       a.log,
			}
			if q := a.newQueue(ctx); q != nil {
				defer q.Close()
				deps.Queue = q
			}

			srv := api.NewServer(api.Config{
				Addr:          addr,
				UserID:        a.user.ID,
				DefaultWindow: a.defaultWindow(ctx),
			}, deps)
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func newMCPCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		Long:  `Run a Model Context Protocol server on stdin/stdout. Logs go to the log file.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := o.open(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := mcp.NewServer(Version, mcp.Deps{
				Store:     a.store,
				Analyzer:  a.pipeline,
				Analytics: a.analytics,
				UserID:    a.user.ID,
				Log:       a.log,
			})
			return srv.Start()
		},
	}
}
