// Package app wires configuration into the planning components shared by the
// flowplan daemon and the planctl CLI.
package app

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/flowplan/internal/config"
	"github.com/fyrsmithlabs/flowplan/internal/generator"
	"github.com/fyrsmithlabs/flowplan/internal/logging"
	"github.com/fyrsmithlabs/flowplan/internal/proposer"
	"github.com/fyrsmithlabs/flowplan/internal/schedule"
	"github.com/fyrsmithlabs/flowplan/internal/telemetry"
)

// NewLogger builds the process logger. When OTEL log output is enabled the
// bridge writes to the telemetry log provider, or the global one.
func NewLogger(cfg *config.Config, tel *telemetry.Telemetry) (*logging.Logger, error) {
	lcfg, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logging config: %w", err)
	}
	provider := tel.LoggerProvider()
	if provider == nil && lcfg.Output.OTEL {
		provider = global.GetLoggerProvider()
	}
	return logging.NewLogger(lcfg, provider)
}

// Options adjusts NewGenerator.
type Options struct {
	// Proposer replaces the configured provider when set.
	Proposer generator.Proposer
}

// NewGenerator builds a generator from cfg. tel may be nil.
func NewGenerator(ctx context.Context, cfg *config.Config, logger *logging.Logger, tel *telemetry.Telemetry, opts Options) (*generator.Generator, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	profile, err := schedule.ProfileFromSettings(cfg.Availability)
	if err != nil {
		return nil, err
	}

	p := opts.Proposer
	if p == nil {
		if p, err = proposer.New(ctx, cfg.Proposer); err != nil {
			return nil, fmt.Errorf("proposer: %w", err)
		}
	}

	metrics, err := generator.NewMetrics(tel.Meter(generator.InstrumentationName))
	if err != nil {
		return nil, fmt.Errorf("generator metrics: %w", err)
	}

	logger.Info(ctx, "planner configured",
		zap.String("provider", providerName(cfg, opts)),
		zap.String("default_band", cfg.Planner.DefaultBand),
		zap.Int("default_weeks", cfg.Planner.DefaultWeeks),
	)

	return generator.New(
		generator.WithProposer(p),
		generator.WithProfile(profile),
		generator.WithDefaults(cfg.Planner.DefaultBand, cfg.Planner.DefaultWeeks),
		generator.WithLogger(logger),
		generator.WithMetrics(metrics),
		generator.WithTracer(tel.Tracer(generator.InstrumentationName)),
	), nil
}

func providerName(cfg *config.Config, opts Options) string {
	if opts.Proposer != nil {
		return "static"
	}
	if cfg.Proposer.Provider == "" {
		return config.ProviderDisabled
	}
	return cfg.Proposer.Provider
}
