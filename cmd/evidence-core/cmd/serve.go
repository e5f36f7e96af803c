package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/legalease-ai/evidence-core/internal/daemon"
	"github.com/legalease-ai/evidence-core/internal/mcp"
)

func newServeCmd() *cobra.Command {
	var (
		transport  string
		socketPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the evidence platform as a long-lived server",
		Long: `serve exposes the Query Bus and Research Orchestrator over one of
two transports:

  --transport mcp     Model Context Protocol over stdio, for AI clients.
  --transport daemon   Unix domain socket RPC, for repeated CLI invocations
                       against one warm process.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch transport {
			case "mcp":
				return runMCPServe(cmd)
			case "daemon":
				return runDaemonServe(cmd, socketPath)
			default:
				return fmt.Errorf("unknown --transport %q (want mcp or daemon)", transport)
			}
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "mcp", "Transport: mcp or daemon")
	cmd.Flags().StringVar(&socketPath, "socket", "", "Daemon Unix socket path (default: ~/.evidence-core/daemon.sock)")

	return cmd
}

func runMCPServe(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := buildApp(ctx, flags)
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := mcp.NewServer(app.bus, app.store, app.manager)
	if err != nil {
		return fmt.Errorf("evidence-core: build MCP server: %w", err)
	}

	return srv.Serve(ctx, "stdio")
}

func runDaemonServe(cmd *cobra.Command, socketPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := buildApp(ctx, flags)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := daemon.DefaultConfig()
	if socketPath != "" {
		cfg.SocketPath = socketPath
	}
	cfg.MaxConcurrentResearchRuns = app.flags.maxConcurrent

	d, err := daemon.NewDaemon(cfg, app.bus, app.store, app.manager)
	if err != nil {
		return fmt.Errorf("evidence-core: build daemon: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "daemon listening on %s\n", cfg.SocketPath)
	return d.Start(ctx)
}
