// Package generator runs the plan generation state machine.
//
// A plan is proposed by an external Proposer, scored by the evaluator and,
// when it fails, repaired once and regenerated once before a deterministic
// template fallback takes over. The fallback is accepted unconditionally, so
// Generate always returns a usable plan; proposer failures of any kind only
// move the machine to its next state. The finished plan's first week is then
// scheduled onto concrete days and times.
package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/flowplan/internal/cadence"
	"github.com/fyrsmithlabs/flowplan/internal/effort"
	"github.com/fyrsmithlabs/flowplan/internal/evaluator"
	"github.com/fyrsmithlabs/flowplan/internal/goal"
	"github.com/fyrsmithlabs/flowplan/internal/logging"
	"github.com/fyrsmithlabs/flowplan/internal/plan"
	"github.com/fyrsmithlabs/flowplan/internal/schedule"
)

// MaxProposerCalls bounds proposer calls per generation: propose, repair and
// regenerate.
const MaxProposerCalls = 3

// Proposer produces plan JSON for a prompt pair.
type Proposer interface {
	Propose(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error)
}

// ProposerFunc adapts a function to Proposer.
type ProposerFunc func(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error)

// Propose implements Proposer.
func (f ProposerFunc) Propose(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error) {
	return f(ctx, systemPrompt, userPrompt)
}

// Request describes one generation.
type Request struct {
	GoalText       string              `json:"goal_text"`
	Title          string              `json:"title,omitempty"`
	ResolutionType goal.ResolutionType `json:"resolution_type,omitempty"`
	Band           string              `json:"band,omitempty"`
	DurationWeeks  int                 `json:"duration_weeks,omitempty"`
	WeekStart      time.Time           `json:"week_start,omitempty"`
	Profile        schedule.Profile    `json:"profile"`

	// Prior is a previously generated plan. It is returned as is unless
	// Regenerate is set.
	Prior      *plan.Plan `json:"prior,omitempty"`
	Regenerate bool       `json:"regenerate,omitempty"`
}

// Result is the outcome of Generate.
type Result struct {
	Plan       *plan.Plan       `json:"plan"`
	Stage      plan.Source      `json:"stage"`
	Calls      int              `json:"calls"`
	Evaluation evaluator.Result `json:"evaluation"`
}

// Generator runs generations. It is safe for concurrent use.
type Generator struct {
	proposer  Proposer
	templates *Templates
	profile   schedule.Profile
	band      string
	weeks     int
	logger    *logging.Logger
	metrics   *Metrics
	tracer    trace.Tracer
	now       func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithProposer sets the plan proposer. Without one every generation falls
// back to templates.
func WithProposer(p Proposer) Option {
	return func(g *Generator) { g.proposer = p }
}

// WithTemplates replaces the embedded fallback templates.
func WithTemplates(t *Templates) Option {
	return func(g *Generator) {
		if t != nil {
			g.templates = t
		}
	}
}

// WithProfile sets the availability used when a request carries none.
func WithProfile(p schedule.Profile) Option {
	return func(g *Generator) { g.profile = p.WithDefaults() }
}

// WithDefaults sets the band and duration used when a request leaves them
// unset.
func WithDefaults(band string, weeks int) Option {
	return func(g *Generator) {
		g.band = string(effort.Parse(band))
		g.weeks = plan.ClampWeeks(weeks)
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithMetrics sets the metric instruments.
func WithMetrics(m *Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// WithTracer sets the tracer.
func WithTracer(t trace.Tracer) Option {
	return func(g *Generator) {
		if t != nil {
			g.tracer = t
		}
	}
}

// WithClock sets the time source used to pick the default week start.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// New returns a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		templates: DefaultTemplates(),
		profile:   schedule.DefaultProfile(),
		band:      string(effort.Medium),
		weeks:     plan.DefaultWeeks,
		logger:    logging.NewNop(),
		tracer:    otel.Tracer(InstrumentationName),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.Named("generator")
	return g
}

// HasProposer reports whether a proposer is configured.
func (g *Generator) HasProposer() bool { return g.proposer != nil }

// Generate produces a plan for req. The only error it returns comes from
// the template fallback.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	req = g.resolve(req)
	band := effort.Parse(req.Band)

	ctx, span := g.tracer.Start(ctx, "generator.generate", trace.WithAttributes(
		attribute.String("band", string(band)),
		attribute.String("resolution_type", string(req.ResolutionType)),
		attribute.Int("duration_weeks", req.DurationWeeks),
	))
	defer span.End()

	r := &run{
		g:    g,
		req:  req,
		band: band,
		reqs: goal.Extract(req.GoalText, req.ResolutionType),
		span: span,
	}

	if !req.Regenerate && req.Prior.HasWeekOneTasks() {
		return r.cached(ctx), nil
	}

	if g.proposer != nil {
		base := buildPrompt(req, band, r.reqs)
		proposed, ev, err := r.attempt(ctx, plan.SourcePropose, base)
		if err == nil {
			if ev.Passed {
				return r.finish(ctx, proposed, plan.SourcePropose, ev), nil
			}
			feedback := ev
			repaired, rev, err := r.attempt(ctx, plan.SourceRepair, repairPrompt(proposed, ev))
			if err == nil {
				if rev.Passed {
					return r.finish(ctx, repaired, plan.SourceRepair, rev), nil
				}
				feedback = rev
			}
			fresh, gev, err := r.attempt(ctx, plan.SourceRegenerate, regeneratePrompt(base, feedback))
			if err == nil && gev.Passed {
				return r.finish(ctx, fresh, plan.SourceRegenerate, gev), nil
			}
		}
	}
	return r.fallback(ctx)
}

func (g *Generator) resolve(req Request) Request {
	req.GoalText = strings.TrimSpace(req.GoalText)
	if strings.TrimSpace(req.Title) == "" {
		req.Title = goal.NormalizeTitle(req.GoalText)
	}
	if rt := goal.ParseType(string(req.ResolutionType)); rt == goal.TypeOther {
		req.ResolutionType = goal.Classify(req.GoalText)
	} else {
		req.ResolutionType = rt
	}
	if strings.TrimSpace(req.Band) == "" {
		req.Band = g.band
	}
	req.Band = string(effort.Parse(req.Band))
	if req.DurationWeeks <= 0 {
		req.DurationWeeks = g.weeks
	}
	req.DurationWeeks = plan.ClampWeeks(req.DurationWeeks)
	if req.WeekStart.IsZero() {
		req.WeekStart = NextMonday(g.now())
	}
	req.WeekStart = cadence.Midnight(req.WeekStart)
	if isZeroProfile(req.Profile) {
		req.Profile = g.profile
	}
	req.Profile = req.Profile.WithDefaults()
	return req
}

// NextMonday returns midnight of the Monday on or after t.
func NextMonday(t time.Time) time.Time {
	d := cadence.Midnight(t)
	return d.AddDate(0, 0, (8-int(d.Weekday()))%7)
}

func isZeroProfile(p schedule.Profile) bool {
	return len(p.WorkDays) == 0 && p.WorkStart == 0 && p.WorkEnd == 0 && p.PeakEnergy == "" && !p.StrictWorkMode
}

// run carries the state of one generation.
type run struct {
	g     *Generator
	req   Request
	band  effort.Band
	reqs  goal.Requirements
	span  trace.Span
	calls int
}

// attempt calls the proposer once and evaluates the decoded plan. Any
// failure, including a panic inside the proposer, is returned as an error.
func (r *run) attempt(ctx context.Context, stage plan.Source, prompt string) (*plan.Plan, evaluator.Result, error) {
	r.g.metrics.recordTransition(ctx, stage)
	r.calls++

	raw, err := r.propose(ctx, prompt)
	var p *plan.Plan
	if err == nil {
		p, err = plan.Decode(raw)
	}
	if err != nil {
		r.g.metrics.recordProposerError(ctx, stage)
		r.span.AddEvent(string(stage), trace.WithAttributes(
			attribute.Int("call", r.calls),
			attribute.String("error", err.Error()),
		))
		r.g.logger.Warn(ctx, "proposer attempt failed",
			zap.String("stage", string(stage)),
			zap.Int("call", r.calls),
			zap.Error(err))
		return nil, evaluator.Result{}, err
	}

	r.prepare(p)
	ev := evaluator.Evaluate(p, string(r.band), r.req.ResolutionType, r.reqs)
	r.g.metrics.recordScore(ctx, stage, ev.Score)
	r.span.AddEvent(string(stage), trace.WithAttributes(
		attribute.Int("call", r.calls),
		attribute.Int("score", ev.Score),
		attribute.Bool("passed", ev.Passed),
	))
	r.g.logger.Debug(ctx, "candidate plan evaluated",
		zap.String("stage", string(stage)),
		zap.Int("score", ev.Score),
		zap.Bool("passed", ev.Passed),
		zap.Strings("violations", ev.Violations()))
	return p, ev, nil
}

func (r *run) propose(ctx context.Context, prompt string) (raw []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("proposer panicked: %v", rec)
		}
	}()
	return r.g.proposer.Propose(ctx, SystemPrompt, prompt)
}

// prepare holds a candidate to the requested duration and fills defaults so
// evaluation sees the plan that would be returned.
func (r *run) prepare(p *plan.Plan) {
	p.DurationWeeks = r.req.DurationWeeks
	p.Normalize(r.req.Title, r.g.templates.Milestones(r.req.ResolutionType))
}

func (r *run) fallback(ctx context.Context) (*Result, error) {
	r.g.metrics.recordTransition(ctx, plan.SourceFallback)
	p, err := r.g.templates.Fallback(r.req.Title, r.req.ResolutionType, r.band, r.req.DurationWeeks, r.reqs)
	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, "fallback failed")
		r.g.logger.Error(ctx, "fallback plan failed", zap.Error(err))
		return nil, fmt.Errorf("building fallback plan: %w", err)
	}

	ev := evaluator.Evaluate(p, string(r.band), r.req.ResolutionType, r.reqs)
	r.g.metrics.recordScore(ctx, plan.SourceFallback, ev.Score)
	r.span.AddEvent(string(plan.SourceFallback), trace.WithAttributes(
		attribute.Int("score", ev.Score),
		attribute.Bool("passed", ev.Passed),
	))
	if !ev.Passed {
		r.g.logger.Warn(ctx, "fallback plan accepted despite failed evaluation",
			zap.Int("score", ev.Score),
			zap.Strings("violations", ev.Violations()))
	}
	return r.finish(ctx, p, plan.SourceFallback, ev), nil
}

// cached returns a copy of the prior plan unchanged; only Result.Stage
// reports the cached path.
func (r *run) cached(ctx context.Context) *Result {
	p := r.req.Prior.Clone()
	ev := evaluator.Evaluate(p, string(r.band), r.req.ResolutionType, r.reqs)

	r.g.metrics.recordResult(ctx, plan.SourceCached)
	r.span.SetAttributes(attribute.String("stage", string(plan.SourceCached)), attribute.Int("calls", 0))
	r.g.logger.Info(ctx, "returning prior plan", zap.String("plan_id", p.ID))
	return &Result{Plan: p, Stage: plan.SourceCached, Evaluation: ev}
}

// finish attaches band, evaluation and identity to p and schedules its first
// week.
func (r *run) finish(ctx context.Context, p *plan.Plan, stage plan.Source, ev evaluator.Result) *Result {
	p.ID = uuid.NewString()
	p.Band = string(r.band)
	p.BandRationale = effort.Rationale(r.band)
	p.ResolutionType = string(r.req.ResolutionType)
	p.Evaluation = ev.Summary()
	p.Source = stage

	ctx = logging.WithPlanID(ctx, p.ID)
	planner := schedule.NewPlanner(r.req.Profile, r.g.logger)
	p.Schedule = planner.PlanWeek(ctx, p.Week1Tasks, r.req.WeekStart)
	p.SyncWeekOne()

	r.g.metrics.recordResult(ctx, stage)
	r.span.SetAttributes(
		attribute.String("stage", string(stage)),
		attribute.Int("calls", r.calls),
		attribute.Int("score", ev.Score),
		attribute.Bool("passed", ev.Passed),
	)
	r.g.logger.Info(ctx, "plan generated",
		zap.String("stage", string(stage)),
		zap.Int("calls", r.calls),
		zap.Int("score", ev.Score),
		zap.Int("tasks", len(p.Week1Tasks)),
		zap.Int("slots", len(p.Schedule)))
	return &Result{Plan: p, Stage: stage, Calls: r.calls, Evaluation: ev}
}
