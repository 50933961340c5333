// Package proposer provides the plan proposers used by the generator: hosted
// text-generation APIs behind a shared rate limiter and secret scrubber, and
// a static proposer that replays a fixed payload.
package proposer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/flowplan/internal/config"
	"github.com/fyrsmithlabs/flowplan/internal/generator"
)

// ErrNotConfigured is returned when a provider is selected without the
// settings it needs.
var ErrNotConfigured = errors.New("proposer not configured")

// Default configuration values.
const (
	defaultTimeout     = 60 * time.Second
	defaultMaxTokens   = 4096
	defaultMaxRetries  = 2
	defaultBaseBackoff = time.Second
	defaultBurst       = 5
	defaultRPM         = 50

	// temperature is kept low so repeated calls for the same goal stay close.
	temperature = 0.3
)

// New builds the proposer selected by cfg. The disabled provider returns a
// nil Proposer and no error; the generator then always uses its fallback.
func New(ctx context.Context, cfg config.ProposerConfig) (generator.Proposer, error) {
	var (
		p   generator.Proposer
		err error
	)
	switch cfg.Provider {
	case "", config.ProviderDisabled:
		return nil, nil
	case config.ProviderAnthropic:
		p, err = NewAnthropic(cfg)
	case config.ProviderOpenAI:
		p, err = NewOpenAI(cfg)
	case config.ProviderGemini:
		p, err = NewGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown proposer provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return Guard(p, cfg.RequestsPerMinute), nil
}

// guarded rate limits calls and scrubs prompts before they leave the process.
type guarded struct {
	next    generator.Proposer
	limiter *rate.Limiter
}

// Guard wraps next with a limiter of rpm requests per minute and secret
// scrubbing of both prompts. A non-positive rpm uses the default.
func Guard(next generator.Proposer, rpm int) generator.Proposer {
	if rpm <= 0 {
		rpm = defaultRPM
	}
	return &guarded{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60), defaultBurst),
	}
}

func (g *guarded) Propose(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return g.next.Propose(ctx, scrubSecrets(systemPrompt), scrubSecrets(userPrompt))
}

// Static returns the same payload for every call.
type Static struct {
	payload []byte
}

// NewStatic returns a proposer that always answers with payload.
func NewStatic(payload []byte) *Static {
	return &Static{payload: append([]byte(nil), payload...)}
}

// LoadStatic reads the payload from a file.
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied proposal file
	if err != nil {
		return nil, fmt.Errorf("reading proposal: %w", err)
	}
	return NewStatic(data), nil
}

// Propose implements generator.Proposer.
func (s *Static) Propose(ctx context.Context, _, _ string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]byte(nil), s.payload...), nil
}

func timeoutFor(cfg config.ProposerConfig) time.Duration {
	if d := cfg.Timeout.Duration(); d > 0 {
		return d
	}
	return defaultTimeout
}

func maxTokensFor(cfg config.ProposerConfig) int {
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return defaultMaxTokens
}

var (
	_ generator.Proposer = (*guarded)(nil)
	_ generator.Proposer = (*Static)(nil)
)
