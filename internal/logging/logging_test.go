package logging

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fyrsmithlabs/flowplan/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"trace", TraceLevel, false},
		{"TRACE", TraceLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"Info", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, NewDefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad format", func(c *Config) { c.Format = "xml" }},
		{"no output", func(c *Config) { c.Output = OutputConfig{} }},
		{"zero tick", func(c *Config) { c.Sampling.Tick = 0 }},
		{"zero initial", func(c *Config) { c.Sampling.Initial = 0 }},
		{"negative skip", func(c *Config) { c.Caller.Skip = -1 }},
		{"bad pattern", func(c *Config) { c.Redaction.Patterns = []string{"("} }},
		{"empty field", func(c *Config) { c.Fields = map[string]string{"env": ""} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestFromSettings(t *testing.T) {
	cfg, err := FromSettings(config.LoggingConfig{Level: "debug", Format: "console", DisableSampling: true})
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.False(t, cfg.Sampling.Enabled)

	_, err = FromSettings(config.LoggingConfig{Level: "shout"})
	assert.Error(t, err)
	_, err = FromSettings(config.LoggingConfig{Format: "xml"})
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(NewDefaultConfig(), nil)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Enabled(zapcore.DebugLevel))

	cfg := NewDefaultConfig()
	cfg.Output = OutputConfig{OTEL: true}
	_, err = NewLogger(cfg, nil)
	assert.Error(t, err, "otel-only output without a provider has no sink")
}

func TestLogger_Levels(t *testing.T) {
	tl := NewTestLogger()
	ctx := context.Background()

	tl.Trace(ctx, "trace entry")
	tl.Debug(ctx, "debug entry")
	tl.Info(ctx, "info entry", zap.Int("minutes", 30))
	tl.Warn(ctx, "warn entry")
	tl.Error(ctx, "error entry")

	require.Len(t, tl.All(), 5)
	tl.AssertLogged(t, TraceLevel, "trace")
	tl.AssertLogged(t, zapcore.DebugLevel, "debug")
	tl.AssertLogged(t, zapcore.WarnLevel, "warn")
	tl.AssertLogged(t, zapcore.ErrorLevel, "error")
	tl.AssertField(t, "info entry", "minutes", int64(30))
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "info entry")

	tl.Reset()
	assert.Empty(t, tl.All())
}

func TestTestLogger_Find(t *testing.T) {
	tl := NewTestLogger()
	tl.Warn(context.Background(), "forced slot for long run")

	e := tl.find(zapcore.WarnLevel, "forced slot")
	require.NotNil(t, e)
	assert.Equal(t, "forced slot for long run", e.Message)
	assert.Nil(t, tl.find(zapcore.InfoLevel, "forced slot"))
	assert.Nil(t, tl.find(zapcore.WarnLevel, "missing"))
}

func TestLogger_ChildLoggers(t *testing.T) {
	tl := NewTestLogger()
	child := tl.Named("schedule").With(zap.String("component", "enforcer"))
	child.Info(context.Background(), "moved")

	entries := tl.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "schedule", entries[0].LoggerName)
	assert.Equal(t, "enforcer", entries[0].ContextMap()["component"])
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info(context.Background(), "dropped")
	assert.False(t, l.Enabled(zapcore.ErrorLevel))
	assert.NotNil(t, Wrap(nil).Underlying())
}

func TestContextFields(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithUserID(ctx, "user_42")
	ctx = WithPlanID(ctx, "3f1c2d9e-0000-4000-8000-000000000001")

	tl := NewTestLogger()
	tl.Info(ctx, "plan accepted")
	fields := tl.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request.id"])
	assert.Equal(t, "user_42", fields["user.id"])
	assert.Equal(t, "3f1c2d9e-0000-4000-8000-000000000001", fields["plan.id"])
}

func TestContextFields_RejectsInvalidIDs(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(WithRequestID(ctx, "")))
	assert.Empty(t, RequestID(WithRequestID(ctx, "bad id\nforged=1")))
	assert.Empty(t, UserID(WithUserID(ctx, string(bytes.Repeat([]byte("a"), maxIDLen+1)))))
	assert.Empty(t, ContextFields(ctx))
}

func TestContextFields_Span(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	fields := map[string]zap.Field{}
	for _, f := range ContextFields(ctx) {
		fields[f.Key] = f
	}
	assert.Equal(t, sc.TraceID().String(), fields["trace_id"].String)
	assert.Equal(t, sc.SpanID().String(), fields["span_id"].String)
	assert.Contains(t, fields, "trace_sampled")
}

func TestFromContext(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)
	assert.Same(t, tl.Logger, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestRedactingEncoder(t *testing.T) {
	var buf bytes.Buffer
	enc, err := newRedactingEncoder(newEncoder("json"), NewDefaultConfig().Redaction)
	require.NoError(t, err)
	z := zap.New(zapcore.NewCore(enc, zapcore.AddSync(&buf), zapcore.DebugLevel)).
		With(zap.String("token", "persistent-token"))

	z.Info("calling provider",
		zap.String("api_key", "plain-key-value"),
		zap.String("header", "Bearer abc.def.ghi"),
		zap.String("key_hint", "sk-ant-0123456789abcdefXYZ"),
		zap.String("model", "claude-sonnet"),
	)

	out := buf.String()
	assert.NotContains(t, out, "persistent-token")
	assert.NotContains(t, out, "plain-key-value")
	assert.NotContains(t, out, "abc.def.ghi")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "claude-sonnet")
	assert.Contains(t, out, redacted)
	assert.Contains(t, out, redactedPattern)
}

func TestSecretFields(t *testing.T) {
	tl := NewTestLogger()
	tl.Info(context.Background(), "configured",
		Secret("api_key", config.Secret("sk-live-123")),
		RedactedString("authorization", "Bearer xyz"))

	tl.AssertField(t, "configured", "api_key", "[REDACTED:11]")
	tl.AssertField(t, "configured", "authorization", "[REDACTED:10]")
	tl.AssertNoSecrets(t)
}

func TestSampling(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	z := zap.New(sampled(core, SamplingConfig{
		Enabled:    true,
		Tick:       config.Duration(time.Minute),
		Initial:    3,
		Thereafter: 0,
	}))

	for i := 0; i < 10; i++ {
		z.Info("repeated")
		z.Error("failure")
	}
	assert.Equal(t, 3, observed.FilterMessage("repeated").Len())
	assert.Equal(t, 10, observed.FilterMessage("failure").Len())

	plain := sampled(core, SamplingConfig{})
	assert.Same(t, core, plain)
}
