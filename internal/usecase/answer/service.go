// Package answer turns a question into a grounded response: retrieve
// evidence from both corpora, compose a prompt, and drive the ordered
// completion provider chain until one succeeds.
package answer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/venueqa/venueqa/internal/domain"
	"github.com/venueqa/venueqa/internal/metrics"
	"github.com/venueqa/venueqa/internal/usecase/retrieval"
)

// Response is the full answer payload for one question.
type Response struct {
	Answer      domain.Answer                        `json:"answer"`
	Conferences []domain.SearchResult                `json:"conferences"`
	Journals    []domain.SearchResult                `json:"journals"`
	Tiers       map[domain.EntityType]retrieval.Tier `json:"retrieval_tiers,omitempty"`
}

// Service orchestrates retrieval and generation.
type Service struct {
	retriever Retriever
	providers []domain.CompletionProvider
	logger    *zap.Logger
}

// New creates an answer service with an ordered provider chain.
func New(retriever Retriever, providers []domain.CompletionProvider, logger *zap.Logger) *Service {
	return &Service{retriever: retriever, providers: providers, logger: logger}
}

// Ask answers one question end to end. Degraded retrieval is silent to the
// caller beyond the diagnostic tier field; only provider exhaustion fails.
func (s *Service) Ask(ctx context.Context, question string, topK int) (Response, error) {
	both := s.retriever.RetrieveBoth(ctx, question, topK)

	prompt := Compose(question, both.Conferences, both.Journals)

	answer, err := s.Generate(ctx, prompt)
	if err != nil {
		return Response{}, err
	}

	return Response{
		Answer:      answer,
		Conferences: both.Conferences,
		Journals:    both.Journals,
		Tiers:       both.Tiers,
	}, nil
}

// Generate tries each provider in order, sequentially: provider calls are
// billed, so there is no speculative parallelism and no per-provider retry.
// The returned provider name is always the one that actually answered.
func (s *Service) Generate(ctx context.Context, prompt string) (domain.Answer, error) {
	if len(s.providers) == 0 {
		return domain.Answer{}, domain.ErrNoProviders
	}

	var lastErr error
	for i, provider := range s.providers {
		text, err := provider.Complete(ctx, prompt)
		if err != nil {
			lastErr = err
			s.logger.Warn("Completion provider failed, trying next",
				zap.String("provider", provider.Name()),
				zap.Error(err),
			)
			continue
		}

		if i > 0 {
			metrics.CompletionFallbacksTotal.Inc()
		}
		return domain.Answer{Text: text, Provider: provider.Name()}, nil
	}

	return domain.Answer{}, fmt.Errorf("%w: %w", domain.ErrAllProvidersExhausted, lastErr)
}
