package http

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/flowplan/internal/generator"
	"github.com/fyrsmithlabs/flowplan/internal/logging"
)

const httpInstrumentationName = "github.com/fyrsmithlabs/flowplan/internal/http"

// HTTPMetrics records OpenTelemetry request metrics.
type HTTPMetrics struct {
	meter          metric.Meter
	logger         *logging.Logger
	requestsTotal  metric.Int64Counter
	requestDur     metric.Float64Histogram
	activeRequests metric.Int64UpDownCounter
}

// NewHTTPMetrics creates request metrics on meter, or on the global meter
// provider when meter is nil.
func NewHTTPMetrics(meter metric.Meter, logger *logging.Logger) *HTTPMetrics {
	if logger == nil {
		logger = logging.NewNop()
	}
	if meter == nil {
		meter = otel.Meter(httpInstrumentationName)
	}
	m := &HTTPMetrics{meter: meter, logger: logger}
	m.init()
	return m
}

func (m *HTTPMetrics) init() {
	ctx := context.Background()
	var err error

	m.requestsTotal, err = m.meter.Int64Counter(
		"flowplan.http.requests_total",
		metric.WithDescription("HTTP requests by method, endpoint and status code"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		m.logger.Warn(ctx, "failed to create requests counter", zap.Error(err))
	}

	// Plan generation may wait on several proposer calls, hence the long tail.
	m.requestDur, err = m.meter.Float64Histogram(
		"flowplan.http.request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds by method, endpoint and status code"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120),
	)
	if err != nil {
		m.logger.Warn(ctx, "failed to create duration histogram", zap.Error(err))
	}

	m.activeRequests, err = m.meter.Int64UpDownCounter(
		"flowplan.http.active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		m.logger.Warn(ctx, "failed to create active requests gauge", zap.Error(err))
	}
}

// Middleware returns an echo middleware that records request metrics.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := c.Request().Context()
			method := c.Request().Method

			if m.activeRequests != nil {
				m.activeRequests.Add(ctx, 1)
			}

			err := next(c)
			if err != nil {
				// Let echo write the error so the status below is final.
				c.Error(err)
			}

			attrs := metric.WithAttributes(
				attribute.String("method", method),
				attribute.String("endpoint", endpoint(c)),
				attribute.Int("status", c.Response().Status),
			)
			if m.requestsTotal != nil {
				m.requestsTotal.Add(ctx, 1, attrs)
			}
			if m.requestDur != nil {
				m.requestDur.Record(ctx, time.Since(start).Seconds(), attrs)
			}
			if m.activeRequests != nil {
				m.activeRequests.Add(ctx, -1)
			}
			return nil
		}
	}
}

// endpoint is the matched route pattern. Unmatched paths share one label.
func endpoint(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}

// planMetrics are the Prometheus series served on /metrics.
type planMetrics struct {
	plansTotal     *prometheus.CounterVec
	planScore      prometheus.Histogram
	proposerCalls  prometheus.Histogram
	evaluationsRun *prometheus.CounterVec
}

func newPlanMetrics(reg prometheus.Registerer) *planMetrics {
	f := promauto.With(reg)
	return &planMetrics{
		plansTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowplan",
				Subsystem: "plans",
				Name:      "generated_total",
				Help:      "Plans returned by the generate endpoint, by accepting stage",
			},
			[]string{"stage"},
		),
		planScore: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "flowplan",
				Subsystem: "plans",
				Name:      "score",
				Help:      "Evaluation score of returned plans",
				Buckets:   []float64{0, 40, 50, 60, 70, 80, 90, 100},
			},
		),
		proposerCalls: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "flowplan",
				Subsystem: "plans",
				Name:      "proposer_calls",
				Help:      "Proposer calls made per generated plan",
				Buckets:   []float64{0, 1, 2, 3},
			},
		),
		evaluationsRun: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowplan",
				Subsystem: "plans",
				Name:      "evaluations_total",
				Help:      "Plans evaluated by the evaluate endpoint, by outcome",
			},
			[]string{"result"},
		),
	}
}

func (m *planMetrics) observeGenerated(res *generator.Result) {
	m.plansTotal.WithLabelValues(string(res.Stage)).Inc()
	m.planScore.Observe(float64(res.Evaluation.Score))
	m.proposerCalls.Observe(float64(res.Calls))
}

func (m *planMetrics) observeEvaluated(passed bool) {
	result := "failed"
	if passed {
		result = "passed"
	}
	m.evaluationsRun.WithLabelValues(result).Inc()
}
