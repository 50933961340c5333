package generator

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fyrsmithlabs/flowplan/internal/plan"
)

// InstrumentationName is the OTEL scope of this package.
const InstrumentationName = "github.com/fyrsmithlabs/flowplan/internal/generator"

// Metrics holds the generator instruments. A nil *Metrics records nothing.
type Metrics struct {
	stageTotal      metric.Int64Counter
	repairUsed      metric.Int64Counter
	regenerateUsed  metric.Int64Counter
	fallbackUsed    metric.Int64Counter
	proposerErrors  metric.Int64Counter
	evaluationScore metric.Float64Histogram
}

// NewMetrics creates the instruments on meter, or on the global provider when
// meter is nil.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(InstrumentationName)
	}
	m := &Metrics{}
	var err error

	if m.stageTotal, err = meter.Int64Counter(
		"flowplan.generator.stage.total",
		metric.WithDescription("Plans returned, by the stage that produced them"),
		metric.WithUnit("{plan}"),
	); err != nil {
		return nil, err
	}
	if m.repairUsed, err = meter.Int64Counter(
		"flowplan.generator.repair_used.total",
		metric.WithDescription("Repair attempts"),
		metric.WithUnit("{attempt}"),
	); err != nil {
		return nil, err
	}
	if m.regenerateUsed, err = meter.Int64Counter(
		"flowplan.generator.regenerate_used.total",
		metric.WithDescription("Regenerate attempts"),
		metric.WithUnit("{attempt}"),
	); err != nil {
		return nil, err
	}
	if m.fallbackUsed, err = meter.Int64Counter(
		"flowplan.generator.fallback_used.total",
		metric.WithDescription("Template fallbacks"),
		metric.WithUnit("{plan}"),
	); err != nil {
		return nil, err
	}
	if m.proposerErrors, err = meter.Int64Counter(
		"flowplan.generator.proposer_errors.total",
		metric.WithDescription("Proposer calls that failed or returned unusable output"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}
	if m.evaluationScore, err = meter.Float64Histogram(
		"flowplan.generator.score",
		metric.WithDescription("Evaluation score of each candidate plan"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(0, 20, 40, 50, 60, 70, 80, 90, 100),
	); err != nil {
		return nil, err
	}
	return m, nil
}

func stageAttr(stage plan.Source) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("stage", string(stage)))
}

// recordTransition counts entry into the repair, regenerate and fallback
// stages.
func (m *Metrics) recordTransition(ctx context.Context, stage plan.Source) {
	if m == nil {
		return
	}
	switch stage {
	case plan.SourceRepair:
		m.repairUsed.Add(ctx, 1)
	case plan.SourceRegenerate:
		m.regenerateUsed.Add(ctx, 1)
	case plan.SourceFallback:
		m.fallbackUsed.Add(ctx, 1)
	}
}

func (m *Metrics) recordResult(ctx context.Context, stage plan.Source) {
	if m == nil {
		return
	}
	m.stageTotal.Add(ctx, 1, stageAttr(stage))
}

func (m *Metrics) recordScore(ctx context.Context, stage plan.Source, score int) {
	if m == nil {
		return
	}
	m.evaluationScore.Record(ctx, float64(score), stageAttr(stage))
}

func (m *Metrics) recordProposerError(ctx context.Context, stage plan.Source) {
	if m == nil {
		return
	}
	m.proposerErrors.Add(ctx, 1, stageAttr(stage))
}
