// Package openai generates follow-up message text through an OpenAI-compatible
// chat completions endpoint.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/vendorflow/internal/platform/timeouts"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"

	defaultTemperature = 0.7
	defaultMaxTokens   = 500
)

// Config configures the generator endpoint and credentials.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Generator calls the chat completions API once per message. It never
// retries; callers fall back to template rendering on error.
type Generator struct {
	client  openaisdk.Client
	model   string
	timeout time.Duration
}

// New builds a generator. An API key is required.
func New(cfg Config) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = timeouts.Generation
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &Generator{
		client:  openaisdk.NewClient(opts...),
		model:   model,
		timeout: timeout,
	}, nil
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Generate returns the first completion choice for the prompts.
func (g *Generator) Generate(ctx context.Context, systemPrompt, userPrompt string) (domain.Generation, error) {
	if g == nil {
		return domain.Generation{}, fmt.Errorf("generator is not configured")
	}
	if strings.TrimSpace(userPrompt) == "" {
		return domain.Generation{}, fmt.Errorf("user prompt is required")
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, openaisdk.SystemMessage(systemPrompt))
	}
	messages = append(messages, openaisdk.UserMessage(userPrompt))

	resp, err := g.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(g.model),
		Messages:    messages,
		Temperature: openaisdk.Float(defaultTemperature),
		MaxTokens:   openaisdk.Int(defaultMaxTokens),
	})
	if err != nil {
		return domain.Generation{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Generation{}, fmt.Errorf("chat completion returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return domain.Generation{}, fmt.Errorf("chat completion returned empty content")
	}
	model := resp.Model
	if model == "" {
		model = g.model
	}
	return domain.Generation{
		Text:   text,
		Model:  model,
		Tokens: int(resp.Usage.TotalTokens),
	}, nil
}
