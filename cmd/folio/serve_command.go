package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"folio/internal/logging"
	"folio/internal/viewerapi"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the viewer API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return ctx.withApp(func(a *app) error {
				if bind != "" {
					a.cfg.Paths.APIBind = bind
				}
				logging.PruneFromConfig(a.logger, a.cfg)
				srv := viewerapi.New(a.cfg, a.store, a.resolver, a.tracker, a.logger)
				fmt.Fprintf(cmd.OutOrStdout(), "Serving library on http://%s\n", a.cfg.Paths.APIBind)
				if err := srv.Run(signalCtx); err != nil {
					return err
				}
				a.logger.Info("folio serve shutting down")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override paths.api_bind")
	return cmd
}
