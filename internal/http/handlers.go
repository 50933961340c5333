package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/flowplan/internal/cadence"
	"github.com/fyrsmithlabs/flowplan/internal/evaluator"
	"github.com/fyrsmithlabs/flowplan/internal/generator"
	"github.com/fyrsmithlabs/flowplan/internal/goal"
	"github.com/fyrsmithlabs/flowplan/internal/plan"
	"github.com/fyrsmithlabs/flowplan/internal/schedule"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Proposer bool   `json:"proposer"`
}

// GenerateRequest is the request body for POST /api/v1/plans.
type GenerateRequest struct {
	Goal           string            `json:"goal"`
	Title          string            `json:"title,omitempty"`
	ResolutionType string            `json:"resolution_type,omitempty"`
	Band           string            `json:"band,omitempty"`
	DurationWeeks  int               `json:"duration_weeks,omitempty"`
	WeekStart      string            `json:"week_start,omitempty"`
	Availability   *schedule.Profile `json:"availability,omitempty"`
	Prior          *plan.Plan        `json:"prior,omitempty"`
	Regenerate     bool              `json:"regenerate,omitempty"`
}

// GenerateResponse is the response body for POST /api/v1/plans.
type GenerateResponse struct {
	Plan       *plan.Plan       `json:"plan"`
	Stage      plan.Source      `json:"stage"`
	Calls      int              `json:"calls"`
	Evaluation evaluator.Result `json:"evaluation"`
}

// EvaluateRequest is the request body for POST /api/v1/plans/evaluate. Plan
// accepts the same loose shapes a proposer may return.
type EvaluateRequest struct {
	Plan           json.RawMessage `json:"plan"`
	Goal           string          `json:"goal,omitempty"`
	Band           string          `json:"band,omitempty"`
	ResolutionType string          `json:"resolution_type,omitempty"`
}

// ExpandRequest is the request body for POST /api/v1/cadence/expand.
type ExpandRequest struct {
	Cadence          any    `json:"cadence"`
	WeekStart        string `json:"week_start,omitempty"`
	AllowDailyRepeat bool   `json:"allow_daily_repeat,omitempty"`
}

// ExpandResponse is the response body for POST /api/v1/cadence/expand.
type ExpandResponse struct {
	Cadence     cadence.Spec `json:"cadence"`
	Label       string       `json:"label"`
	Occurrences int          `json:"occurrences"`
	Dates       []string     `json:"dates"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Proposer: s.generator.HasProposer()})
}

func (s *Server) handleGenerate(c echo.Context) error {
	ctx := c.Request().Context()

	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(ctx, "invalid generate request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Goal) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "goal field is required")
	}
	weekStart, err := parseDate(req.WeekStart)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "week_start must be YYYY-MM-DD")
	}
	if req.DurationWeeks < 0 || req.DurationWeeks > plan.MaxWeeks {
		return echo.NewHTTPError(http.StatusBadRequest, "duration_weeks must be between 1 and 12")
	}

	greq := generator.Request{
		GoalText:       req.Goal,
		Title:          req.Title,
		ResolutionType: goal.ParseType(req.ResolutionType),
		Band:           req.Band,
		DurationWeeks:  req.DurationWeeks,
		WeekStart:      weekStart,
		Prior:          req.Prior,
		Regenerate:     req.Regenerate,
	}
	if req.Availability != nil {
		greq.Profile = *req.Availability
	}

	if d := s.config.GenerateTimeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	res, err := s.generator.Generate(ctx, greq)
	if err != nil {
		s.logger.Error(ctx, "plan generation failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "plan generation failed")
	}
	s.plans.observeGenerated(res)

	return c.JSON(http.StatusOK, GenerateResponse{
		Plan:       res.Plan,
		Stage:      res.Stage,
		Calls:      res.Calls,
		Evaluation: res.Evaluation,
	})
}

func (s *Server) handleEvaluate(c echo.Context) error {
	ctx := c.Request().Context()

	var req EvaluateRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(ctx, "invalid evaluate request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Plan) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "plan field is required")
	}
	p, err := plan.Decode(req.Plan)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	p.Normalize(goal.NormalizeTitle(req.Goal), nil)

	text := req.Goal
	if text == "" {
		text = p.Title
	}
	rt := goal.ParseType(req.ResolutionType)
	if rt == goal.TypeOther {
		rt = goal.Classify(text)
	}
	ev := evaluator.Evaluate(p, req.Band, rt, goal.Extract(text, rt))
	s.plans.observeEvaluated(ev.Passed)

	s.logger.Debug(ctx, "plan evaluated",
		zap.Int("score", ev.Score),
		zap.Bool("passed", ev.Passed),
		zap.String("resolution_type", string(rt)),
	)
	return c.JSON(http.StatusOK, ev)
}

func (s *Server) handleExpand(c echo.Context) error {
	var req ExpandRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Cadence == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cadence field is required")
	}
	weekStart, err := parseDate(req.WeekStart)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "week_start must be YYYY-MM-DD")
	}
	if weekStart.IsZero() {
		weekStart = generator.NextMonday(s.now())
	}

	spec := cadence.Normalize(req.Cadence)
	dates := cadence.Expand(spec, weekStart, req.AllowDailyRepeat)
	out := ExpandResponse{
		Cadence:     spec,
		Label:       spec.String(),
		Occurrences: spec.Occurrences(),
		Dates:       make([]string, 0, len(dates)),
	}
	for _, d := range dates {
		out.Dates = append(out.Dates, d.Format(plan.DateLayout))
	}
	return c.JSON(http.StatusOK, out)
}

// parseDate accepts an empty string as the zero time.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(plan.DateLayout, s, time.Local)
}
