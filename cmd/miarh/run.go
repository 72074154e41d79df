package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"mercator-hq/miarh/pkg/cli"
	"mercator-hq/miarh/pkg/config"
	"mercator-hq/miarh/pkg/reactor"
	tlsutil "mercator-hq/miarh/pkg/security/tls"
	"mercator-hq/miarh/pkg/server"
	"mercator-hq/miarh/pkg/telemetry/logging"
	"mercator-hq/miarh/pkg/telemetry/metrics"
)

var runFlags struct {
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Miarh gateway",
	Long: `Start the Miarh gateway with the specified configuration.

The gateway binds the HTTPS and HTTP listeners, loads the TLS identity and
serves until it receives SIGINT or SIGTERM. In-flight connections are given
server.shutdown_timeout to finish.

Examples:
  # Start with default config
  miarh run

  # Start with custom config
  miarh run --config /etc/miarh/miarh.yaml

  # Validate config and certificate without binding any port
  miarh run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config and certificate without starting the gateway")
}

func runServer(cmd *cobra.Command, args []string) error {
	holder, err := config.Load(cfgFile)
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	cfg := holder.Get()

	if runFlags.logLevel != "" {
		if _, err := logging.ParseLevel(runFlags.logLevel); err != nil {
			return cli.NewCommandError("run", err)
		}
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	logger, err := logging.Setup(logging.FromConfig(cfg.Telemetry.Logging, os.Stdout))
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	certs := tlsutil.NewCertificateReloader(cfg.Security.TLS.CertFile, cfg.Security.TLS.KeyFile, logger)
	if err := certs.Load(); err != nil {
		return cli.NewConfigError(cfgFile, fmt.Errorf("failed to load TLS identity: %w", err))
	}

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	pid, err := cli.CreatePidfile(cfg.Server.PidFile)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		if err := pid.Close(); err != nil {
			logger.Warn("failed to remove pid file", "path", pid.Path(), "error", err)
		}
	}()

	srv, err := server.New(server.Options{
		Holder:       holder,
		Certificates: certs,
		Metrics:      metrics.NewCollector(&cfg.Telemetry.Metrics, nil),
		Logger:       logger,
		Version:      Version,
		Commit:       GitCommit,
		BuildTime:    BuildDate,
	})
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	if err := srv.Listen(); err != nil {
		return cli.NewCommandError("run", err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := cli.SignalContext(parent)
	defer stop()

	printBanner(out, cfg, srv)

	if err := srv.Serve(ctx); err != nil {
		logger.Error("shutdown failed", "error", err)
		return cli.NewCommandError("run", err)
	}

	slog.Info("gateway stopped")
	fmt.Fprintln(out, "✓ Gateway stopped")
	return nil
}

func printBanner(w io.Writer, cfg *config.Config, srv *server.Server) {
	fmt.Fprintf(w, "Miarh v%s\n", Version)
	fmt.Fprintf(w, "✓ Configuration loaded from %s (%d virtual hosts)\n", cfgFile, len(cfg.VirtualHosts))
	fmt.Fprintf(w, "✓ HTTPS listening on %s\n", srv.Addr(reactor.HTTPSListenerID))
	fmt.Fprintf(w, "✓ HTTP listening on %s\n", srv.Addr(reactor.HTTPListenerID))
	if addr := srv.AdminAddr(); addr != nil {
		if cfg.Telemetry.Metrics.Enabled {
			fmt.Fprintf(w, "✓ Metrics endpoint: http://%s%s\n", addr, cfg.Telemetry.Metrics.Path)
		}
		if cfg.Telemetry.Health.Enabled {
			fmt.Fprintf(w, "✓ Health endpoint: http://%s%s\n", addr, cfg.Telemetry.Health.ReadinessPath)
		}
	}
	fmt.Fprintln(w, "\nPress Ctrl+C to stop")
}
