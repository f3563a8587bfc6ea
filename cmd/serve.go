// cmd/serve.go
package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dkoval87/gherkinforge/internal/observability"
	"github.com/dkoval87/gherkinforge/internal/server"
	"github.com/dkoval87/gherkinforge/internal/service"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API for scenario generation.",
	RunE: func(cmd *cobra.Command, args []string) error {
		components, err := service.Build(cfg, observability.GetLogger())
		if err != nil {
			return err
		}
		defer components.Shutdown()
		svc := service.New(components, observability.GetLogger())

		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return server.New(addr, Version, svc, observability.GetLogger()).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}
