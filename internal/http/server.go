// Package http provides the flowplan HTTP API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/flowplan/internal/config"
	"github.com/fyrsmithlabs/flowplan/internal/generator"
	"github.com/fyrsmithlabs/flowplan/internal/logging"
)

// PlanGenerator produces plans. *generator.Generator satisfies it.
type PlanGenerator interface {
	Generate(ctx context.Context, req generator.Request) (*generator.Result, error)
	HasProposer() bool
}

// Server provides HTTP endpoints for flowplan.
type Server struct {
	echo      *echo.Echo
	generator PlanGenerator
	logger    *logging.Logger
	config    *Config
	plans     *planMetrics
	now       func() time.Time
}

// Config holds HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	GenerateTimeout time.Duration

	// Meter receives request metrics; nil uses the global meter provider.
	Meter metric.Meter
	// Registry backs /metrics; nil creates a private registry with the Go
	// and process collectors.
	Registry *prometheus.Registry
}

// FromSettings converts the server section of the configuration.
func FromSettings(s config.ServerConfig) *Config {
	return &Config{
		Host:            s.Host,
		Port:            s.Port,
		ReadTimeout:     s.ReadTimeout.Duration(),
		GenerateTimeout: s.GenerateTimeout.Duration(),
	}
}

// NewServer creates a new HTTP server.
func NewServer(gen PlanGenerator, logger *logging.Logger, cfg *Config) (*Server, error) {
	if gen == nil {
		return nil, errors.New("generator cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "127.0.0.1", Port: 8085}
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	logger = logger.Named("http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	if cfg.ReadTimeout > 0 {
		e.Server.ReadTimeout = cfg.ReadTimeout
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			c.SetRequest(c.Request().WithContext(logging.WithRequestID(c.Request().Context(), id)))
		},
	}))
	e.Use(requestLogger(logger))
	e.Use(NewHTTPMetrics(cfg.Meter, logger).Middleware())

	s := &Server{
		echo:      e,
		generator: gen,
		logger:    logger,
		config:    cfg,
		plans:     newPlanMetrics(reg),
		now:       time.Now,
	}
	s.registerRoutes(reg)
	return s, nil
}

func requestLogger(logger *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info(c.Request().Context(), "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		}
	}
}

func (s *Server) registerRoutes(reg *prometheus.Registry) {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/plans", s.handleGenerate)
	v1.POST("/plans/evaluate", s.handleEvaluate)
	v1.POST("/cadence/expand", s.handleExpand)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves until Shutdown. It returns http.ErrServerClosed after a
// graceful shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
