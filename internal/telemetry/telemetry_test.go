package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/fyrsmithlabs/flowplan/internal/config"
)

func TestConfig_Validate(t *testing.T) {
	disabled := NewDefaultConfig()
	disabled.Endpoint = ""
	assert.NoError(t, disabled.Validate(), "disabled config skips validation")

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"local insecure", func(c *Config) {}, false},
		{"loopback ip", func(c *Config) { c.Endpoint = "127.0.0.1:4317" }, false},
		{"ipv6 loopback", func(c *Config) { c.Endpoint = "[::1]:4317" }, false},
		{"http scheme local", func(c *Config) { c.Protocol = ProtocolHTTP; c.Endpoint = "http://localhost:4318" }, false},
		{"remote insecure", func(c *Config) { c.Endpoint = "collector.example.com:4317" }, true},
		{"remote tls", func(c *Config) { c.Endpoint = "collector.example.com:4317"; c.Insecure = false }, false},
		{"bad protocol", func(c *Config) { c.Protocol = "udp" }, true},
		{"no endpoint", func(c *Config) { c.Endpoint = "" }, true},
		{"no service", func(c *Config) { c.ServiceName = "" }, true},
		{"sample rate", func(c *Config) { c.SampleRate = 2 }, true},
		{"interval", func(c *Config) { c.ExportInterval = 0 }, true},
		{"shutdown", func(c *Config) { c.ShutdownTimeout = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			cfg.Enabled = true
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestFromSettings(t *testing.T) {
	cfg := FromSettings(config.TelemetryConfig{
		Enabled:        true,
		Endpoint:       "otel.internal:4318",
		Protocol:       ProtocolHTTP,
		TLSSkipVerify:  true,
		SampleRate:     0.25,
		ExportInterval: config.Duration(time.Minute),
	}, "1.2.3")
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "otel.internal:4318", cfg.Endpoint)
	assert.Equal(t, ProtocolHTTP, cfg.Protocol)
	assert.False(t, cfg.Insecure)
	assert.True(t, cfg.TLSSkipVerify)
	assert.Equal(t, "flowplan", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
	assert.Equal(t, time.Minute, cfg.ExportInterval)
	assert.NoError(t, cfg.Validate())
}

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)
	assert.NotNil(t, tel.Tracer("x"))
	assert.NotNil(t, tel.Meter("x"))
	h := tel.Health()
	assert.False(t, h.Enabled)
	assert.True(t, h.Healthy)
	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.False(t, tel.Health().Healthy)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.SampleRate = -1
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNew_WithExporters(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.MetricsEnabled = false
	spans := tracetest.NewInMemoryExporter()

	tel, err := New(context.Background(), cfg, WithSpanExporter(spans))
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	_, span := tel.Tracer("test").Start(context.Background(), "generate")
	span.End()
	require.NoError(t, tel.ForceFlush(context.Background()))
	require.Len(t, spans.GetSpans(), 1)
	assert.Equal(t, "generate", spans.GetSpans()[0].Name)
	assert.False(t, tel.Health().Degraded)
}

func TestNilTelemetry(t *testing.T) {
	var tel *Telemetry
	assert.NotNil(t, tel.Tracer("x"))
	assert.NotNil(t, tel.Meter("x"))
	assert.Nil(t, tel.LoggerProvider())
	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.NoError(t, tel.ForceFlush(context.Background()))
	assert.True(t, tel.Health().Degraded)
}

func TestTestTelemetry(t *testing.T) {
	tt := NewTestTelemetry()
	ctx := context.Background()

	_, span := tt.Tracer("test").Start(ctx, "plan.generate")
	span.SetAttributes(attribute.String("stage", "repair"))
	span.AddEvent("transition")
	span.End()

	tt.AssertSpanAttribute(t, "plan.generate", "stage", "repair")
	assert.Equal(t, []string{"transition"}, tt.SpanEvents("plan.generate"))

	m := tt.Meter("test")
	counter, err := m.Int64Counter("stage.total")
	require.NoError(t, err)
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", "propose")))
	counter.Add(ctx, 2, metric.WithAttributes(attribute.String("stage", "fallback")))

	hist, err := m.Float64Histogram("score")
	require.NoError(t, err)
	hist.Record(ctx, 70)
	hist.Record(ctx, 40)

	assert.Equal(t, int64(3), tt.CounterValue(t, "stage.total"))
	assert.Equal(t, int64(2), tt.CounterValue(t, "stage.total", attribute.String("stage", "fallback")))
	assert.Equal(t, int64(0), tt.CounterValue(t, "missing.total"))
	count, sum := tt.HistogramCount(t, "score")
	assert.Equal(t, uint64(2), count)
	assert.Equal(t, 110.0, sum)
}
