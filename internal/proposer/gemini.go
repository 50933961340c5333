package proposer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/fyrsmithlabs/flowplan/internal/config"
)

const defaultGeminiModel = "gemini-2.5-flash"

// Gemini proposes plans through the Gemini API.
type Gemini struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

// NewGemini returns a Gemini proposer.
func NewGemini(ctx context.Context, cfg config.ProposerConfig) (*Gemini, error) {
	if !cfg.APIKey.IsSet() {
		return nil, fmt.Errorf("%w: gemini api key required", ErrNotConfigured)
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey.Value(),
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeoutFor(cfg)},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{client: client, model: model, maxTokens: int32(maxTokensFor(cfg))}, nil
}

// Propose requests a JSON response.
func (g *Gemini) Propose(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(userPrompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](temperature),
		MaxOutputTokens:   g.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return nil, errors.New("empty response from gemini")
	}
	return []byte(text), nil
}
