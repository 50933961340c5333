package proposer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/fyrsmithlabs/flowplan/internal/config"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI proposes plans through an OpenAI-compatible chat completions API.
type OpenAI struct {
	llm       llms.Model
	maxTokens int
}

// NewOpenAI returns an OpenAI proposer. BaseURL, when set, must include the
// API version path, e.g. https://api.openai.com/v1.
func NewOpenAI(cfg config.ProposerConfig) (*OpenAI, error) {
	if !cfg.APIKey.IsSet() {
		return nil, fmt.Errorf("%w: openai api key required", ErrNotConfigured)
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey.Value()),
		openai.WithModel(model),
		openai.WithHTTPClient(&http.Client{Timeout: timeoutFor(cfg)}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}
	return &OpenAI{llm: llm, maxTokens: maxTokensFor(cfg)}, nil
}

// Propose requests a completion. The system prompt asks for JSON only and
// plan.Decode strips any code fences around it.
func (o *OpenAI) Propose(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error) {
	resp, err := o.llm.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
			llms.TextParts(schema.ChatMessageTypeHuman, userPrompt),
		},
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(o.maxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return nil, errors.New("empty response from openai")
	}
	return []byte(resp.Choices[0].Content), nil
}
