package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/venueqa/venueqa/internal/domain"
	"github.com/venueqa/venueqa/internal/metrics"
)

// ChatProvider is a completion provider over any OpenAI-compatible chat API.
// Vendors (openai, deepseek, nebius, ...) differ only in BaseURL and model.
type ChatProvider struct {
	client  *openai.Client
	model   string
	name    string
	timeout time.Duration
	logger  *zap.Logger
}

// ChatConfig holds completion provider settings.
type ChatConfig struct {
	Name    string
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

var _ domain.CompletionProvider = (*ChatProvider)(nil)

// NewChatProvider creates an OpenAI-compatible chat completion provider.
func NewChatProvider(cfg *ChatConfig) *ChatProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &ChatProvider{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		name:    cfg.Name,
		timeout: timeout,
		logger:  cfg.Logger,
	}
}

// Name implements domain.CompletionProvider.
func (p *ChatProvider) Name() string { return p.name }

// Complete sends the prompt as a single user message and returns the full
// answer. Empty or truncated responses are treated as failures.
func (p *ChatProvider) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})

	duration := time.Since(start)

	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(p.name, "error").Inc()
		return "", fmt.Errorf("chat completion (%s): %w", p.name, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		metrics.CompletionRequestsTotal.WithLabelValues(p.name, "error").Inc()
		return "", fmt.Errorf("chat completion (%s): empty response", p.name)
	}

	metrics.CompletionRequestsTotal.WithLabelValues(p.name, "success").Inc()
	metrics.CompletionRequestDuration.WithLabelValues(p.name).Observe(duration.Seconds())

	return resp.Choices[0].Message.Content, nil
}
