package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/flowplan/internal/config"
	"github.com/fyrsmithlabs/flowplan/internal/generator"
	"github.com/fyrsmithlabs/flowplan/internal/logging"
	"github.com/fyrsmithlabs/flowplan/internal/plan"
	"github.com/fyrsmithlabs/flowplan/internal/proposer"
	"github.com/fyrsmithlabs/flowplan/internal/telemetry"
)

func TestNewGenerator_Disabled(t *testing.T) {
	logger := logging.NewTestLogger()
	tel := telemetry.NewTestTelemetry()

	g, err := NewGenerator(context.Background(), config.Default(), logger.Logger, tel.Telemetry, Options{})
	require.NoError(t, err)
	assert.False(t, g.HasProposer())
	logger.AssertField(t, "planner configured", "provider", config.ProviderDisabled)

	res, err := g.Generate(context.Background(), generator.Request{
		GoalText:  "Run 5k",
		WeekStart: time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, plan.SourceFallback, res.Stage)
	assert.Equal(t, plan.DefaultWeeks, res.Plan.DurationWeeks)
	assert.Equal(t, int64(1), tel.CounterValue(t, "flowplan.generator.fallback_used.total"))
}

func TestNewGenerator_PlannerDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Planner.DefaultBand = "light"
	cfg.Planner.DefaultWeeks = 8

	g, err := NewGenerator(context.Background(), cfg, nil, nil, Options{})
	require.NoError(t, err)

	res, err := g.Generate(context.Background(), generator.Request{GoalText: "Read more books"})
	require.NoError(t, err)
	assert.Equal(t, "light", res.Plan.Band)
	assert.Equal(t, 8, res.Plan.DurationWeeks)
}

func TestNewGenerator_StaticProposer(t *testing.T) {
	logger := logging.NewTestLogger()
	static := proposer.NewStatic([]byte(`{"title": "x"}`))

	g, err := NewGenerator(context.Background(), config.Default(), logger.Logger, nil, Options{Proposer: static})
	require.NoError(t, err)
	assert.True(t, g.HasProposer())
	logger.AssertField(t, "planner configured", "provider", "static")
}

func TestNewGenerator_Errors(t *testing.T) {
	t.Run("bad availability", func(t *testing.T) {
		cfg := config.Default()
		cfg.Availability.WorkDays = []string{"blursday"}
		_, err := NewGenerator(context.Background(), cfg, nil, nil, Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "blursday")
	})

	t.Run("provider without key", func(t *testing.T) {
		cfg := config.Default()
		cfg.Proposer.Provider = config.ProviderAnthropic
		_, err := NewGenerator(context.Background(), cfg, nil, nil, Options{})
		assert.ErrorIs(t, err, proposer.ErrNotConfigured)
	})
}

func TestNewLogger(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "debug"

	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(zapcore.DebugLevel))

	cfg.Logging.Level = "loud"
	_, err = NewLogger(cfg, nil)
	require.Error(t, err)
}
