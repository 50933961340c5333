// Package config loads flowplan configuration.
//
// Values come from hardcoded defaults, then an optional YAML file, then
// FLOWPLAN_* environment variables. Sections that belong to other packages
// (logging, telemetry, availability) are kept flat here and converted by
// those packages, so config imports nothing but the effort table.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/fyrsmithlabs/flowplan/internal/effort"
)

// Proposer providers.
const (
	ProviderDisabled  = "disabled"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
)

// Providers lists the accepted proposer.provider values.
var Providers = []string{ProviderDisabled, ProviderAnthropic, ProviderOpenAI, ProviderGemini}

// Config is the complete flowplan configuration.
type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Planner      PlannerConfig      `koanf:"planner"`
	Proposer     ProposerConfig     `koanf:"proposer"`
	Availability AvailabilityConfig `koanf:"availability"`
	Logging      LoggingConfig      `koanf:"logging"`
	Telemetry    TelemetryConfig    `koanf:"telemetry"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ReadTimeout     Duration `koanf:"read_timeout"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	// GenerateTimeout bounds one plan generation including proposer calls.
	GenerateTimeout Duration `koanf:"generate_timeout"`
}

// PlannerConfig holds generation defaults applied when a request omits them.
type PlannerConfig struct {
	DefaultBand  string `koanf:"default_band"`
	DefaultWeeks int    `koanf:"default_weeks"`
}

// ProposerConfig selects and configures the plan proposer.
type ProposerConfig struct {
	Provider          string   `koanf:"provider"`
	Model             string   `koanf:"model"`
	APIKey            Secret   `koanf:"api_key"`
	BaseURL           string   `koanf:"base_url"`
	Timeout           Duration `koanf:"timeout"`
	MaxRetries        int      `koanf:"max_retries"`
	RequestsPerMinute int      `koanf:"requests_per_minute"`
	MaxTokens         int      `koanf:"max_tokens"`
}

// AvailabilityConfig is the default availability profile.
type AvailabilityConfig struct {
	WorkDays       []string `koanf:"work_days"`
	WorkStart      string   `koanf:"work_start"`
	WorkEnd        string   `koanf:"work_end"`
	PeakEnergy     string   `koanf:"peak_energy"`
	StrictWorkMode bool     `koanf:"strict_work_mode"`
}

// LoggingConfig holds the logging settings exposed to operators.
type LoggingConfig struct {
	Level           string `koanf:"level"`
	Format          string `koanf:"format"`
	OTEL            bool   `koanf:"otel"`
	DisableSampling bool   `koanf:"disable_sampling"`
}

// TelemetryConfig holds the OpenTelemetry settings exposed to operators.
type TelemetryConfig struct {
	Enabled        bool     `koanf:"enabled"`
	Endpoint       string   `koanf:"endpoint"`
	Protocol       string   `koanf:"protocol"`
	Insecure       bool     `koanf:"insecure"`
	TLSSkipVerify  bool     `koanf:"tls_skip_verify"`
	ServiceName    string   `koanf:"service_name"`
	SampleRate     float64  `koanf:"sample_rate"`
	ExportInterval Duration `koanf:"export_interval"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8085,
			ReadTimeout:     Duration(15 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
			GenerateTimeout: Duration(90 * time.Second),
		},
		Planner: PlannerConfig{
			DefaultBand:  string(effort.Medium),
			DefaultWeeks: 4,
		},
		Proposer: ProposerConfig{
			Provider:          ProviderDisabled,
			Timeout:           Duration(30 * time.Second),
			MaxRetries:        2,
			RequestsPerMinute: 50,
			MaxTokens:         4096,
		},
		Availability: AvailabilityConfig{
			WorkDays:   []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
			WorkStart:  "09:00",
			WorkEnd:    "17:00",
			PeakEnergy: "morning",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Endpoint:       "localhost:4317",
			Protocol:       "grpc",
			Insecure:       true,
			ServiceName:    "flowplan",
			SampleRate:     1.0,
			ExportInterval: Duration(15 * time.Second),
		},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range 1-65535", c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if c.Server.GenerateTimeout <= 0 {
		errs = append(errs, errors.New("server.generate_timeout must be positive"))
	}
	if !slices.Contains(effort.Bands(), effort.Band(c.Planner.DefaultBand)) {
		errs = append(errs, fmt.Errorf("planner.default_band %q is not one of %v", c.Planner.DefaultBand, effort.Bands()))
	}
	if c.Planner.DefaultWeeks < 1 || c.Planner.DefaultWeeks > 12 {
		errs = append(errs, fmt.Errorf("planner.default_weeks %d out of range 1-12", c.Planner.DefaultWeeks))
	}
	if !slices.Contains(Providers, c.Proposer.Provider) {
		errs = append(errs, fmt.Errorf("proposer.provider %q is not one of %v", c.Proposer.Provider, Providers))
	}
	if c.Proposer.Provider != ProviderDisabled && !c.Proposer.APIKey.IsSet() {
		errs = append(errs, fmt.Errorf("proposer.api_key is required for provider %q", c.Proposer.Provider))
	}
	if c.Proposer.MaxRetries < 0 {
		errs = append(errs, errors.New("proposer.max_retries must be >= 0"))
	}
	if c.Proposer.RequestsPerMinute < 1 {
		errs = append(errs, errors.New("proposer.requests_per_minute must be positive"))
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_rate %v out of range 0-1", c.Telemetry.SampleRate))
	}
	return errors.Join(errs...)
}
