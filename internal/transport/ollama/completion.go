// Package ollama provides a completion provider for a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/venueqa/venueqa/internal/domain"
	"github.com/venueqa/venueqa/internal/metrics"
)

const defaultBaseURL = "http://localhost:11434"

// Provider talks to the Ollama /api/generate endpoint, non-streaming.
type Provider struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds Ollama provider settings.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

var _ domain.CompletionProvider = (*Provider)(nil)

// New creates an Ollama completion provider.
func New(cfg *Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &Provider{
		baseURL:    baseURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
	}
}

// Name implements domain.CompletionProvider.
func (p *Provider) Name() string { return "ollama" }

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Complete implements domain.CompletionProvider.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: p.model, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body),
	)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()

	resp, err := p.httpClient.Do(req)
	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(p.Name(), "error").Inc()
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.CompletionRequestsTotal.WithLabelValues(p.Name(), "error").Inc()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ollama API: status %d: %s", resp.StatusCode, msg)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(p.Name(), "error").Inc()
		return "", fmt.Errorf("decode response: %w", err)
	}
	if result.Response == "" {
		metrics.CompletionRequestsTotal.WithLabelValues(p.Name(), "error").Inc()
		return "", fmt.Errorf("ollama API: empty response")
	}

	metrics.CompletionRequestsTotal.WithLabelValues(p.Name(), "success").Inc()
	metrics.CompletionRequestDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())

	return result.Response, nil
}
