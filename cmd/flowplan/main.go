// Flowplan is the plan generation daemon.
//
// It serves the HTTP API backed by the configured proposer. Configuration is
// read from ~/.config/flowplan/config.yaml (or --config) and FLOWPLAN_*
// environment variables.
//
// Usage:
//
//	# Start with defaults (template fallback only)
//	flowplan
//
//	# Use Anthropic as the proposer
//	FLOWPLAN_PROPOSER_PROVIDER=anthropic FLOWPLAN_PROPOSER_API_KEY=... flowplan
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/flowplan/internal/app"
	"github.com/fyrsmithlabs/flowplan/internal/config"
	httpserver "github.com/fyrsmithlabs/flowplan/internal/http"
	"github.com/fyrsmithlabs/flowplan/internal/logging"
	"github.com/fyrsmithlabs/flowplan/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to the config file")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  flowplan [--config path]   Start the flowplan daemon\n")
			fmt.Fprintf(os.Stderr, "  flowplan version           Show version information\n")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("flowplan: %v", err)
	}
}

func printVersion() {
	fmt.Printf("flowplan by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the daemon and blocks until ctx is cancelled, then shuts the
// server and telemetry down within the configured timeout.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry, version))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	logger, err := app.NewLogger(cfg, tel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info(ctx, "starting flowplan",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("provider", cfg.Proposer.Provider),
		zap.Bool("telemetry", cfg.Telemetry.Enabled),
		zap.Bool("telemetry_degraded", tel.Health().Degraded),
	)

	gen, err := app.NewGenerator(ctx, cfg, logger, tel, app.Options{})
	if err != nil {
		return fmt.Errorf("failed to initialize generator: %w", err)
	}

	srvCfg := httpserver.FromSettings(cfg.Server)
	srvCfg.Meter = tel.Meter("github.com/fyrsmithlabs/flowplan/internal/http")
	srv, err := httpserver.NewServer(gen, logger, srvCfg)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	return serve(ctx, srv, cfg.Server.ShutdownTimeout.Duration(), logger)
}

type server interface {
	Start() error
	Shutdown(ctx context.Context) error
}

func serve(ctx context.Context, srv server, timeout time.Duration, logger *logging.Logger) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutdown requested", zap.Duration("timeout", timeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info(context.Background(), "shutdown complete")
	return nil
}
