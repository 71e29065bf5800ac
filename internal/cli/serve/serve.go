package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/api"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/cli/cmdutil"
)

// ServeFlags holds all flags for the serve command
type ServeFlags struct {
	Addr string
}

// NewCommand creates the serve command
func NewCommand() *cobra.Command {
	flags := &ServeFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API used by the FeatherPanel plugin.

Routes are mounted under /api/servers/{server}/vanillatweaks. Callers must
present the configured api_token as a bearer token unless it is empty.
The server shuts down gracefully on SIGINT or SIGTERM.`,
		Example: `  # Listen on the configured address
  vtinstaller serve

  # Override the listen address
  vtinstaller serve --addr 127.0.0.1:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}

func runServe(ctx context.Context, flags *ServeFlags) error {
	return cmdutil.WithApp(func(a *cmdutil.App) error {
		handler := api.NewHandler(api.Deps{
			Catalog:   a.Catalog,
			Installer: a.Installer,
			Resolver:  a.Resolver,
			Gate:      api.TokenGate{Token: a.Config.Server.APIToken},
			Activity:  a.ActivityLister(),
		})

		opts := api.ServerOptions{
			Addr:            a.Config.Server.Addr,
			ReadTimeout:     a.Config.Server.ReadTimeout,
			WriteTimeout:    a.Config.Server.WriteTimeout,
			ShutdownTimeout: a.Config.Server.ShutdownTimeout,
		}
		if flags.Addr != "" {
			opts.Addr = flags.Addr
		}

		return api.Serve(ctx, handler, opts)
	})
}
