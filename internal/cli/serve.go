package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/execkit/logger"
	"github.com/kbukum/execkit/process"
	"github.com/kbukum/execkit/server"
)

func newServeCmd(root *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the execution HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}
			ctx := cmd.Context()

			tel, err := setupTelemetry(ctx, cfg)
			if err != nil {
				return err
			}
			defer tel.shutdown(ctx)

			srv := server.New(cfg,
				server.WithLogger(logger.GetGlobalLogger()),
				server.WithHTTPMetrics(tel.http),
				server.WithExecutorOptions(process.WithMetrics(tel.exec)),
			)
			if err := srv.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "execkit API listening on %s\n", srv.Addr())

			<-ctx.Done()
			return srv.Stop(context.WithoutCancel(ctx))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides server.address")
	return cmd
}
