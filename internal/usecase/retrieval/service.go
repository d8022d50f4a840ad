// Package retrieval implements tiered search over the two corpora: vector
// KNN first, in-memory cosine similarity when the store cannot serve vector
// queries, keyword substring match as the floor. Zero results and errors
// both trigger the next tier.
package retrieval

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/venueqa/venueqa/internal/domain"
)

// Tier names the retrieval strategy that produced a result set.
type Tier string

const (
	// TierVector is store-side approximate nearest-neighbor search.
	TierVector Tier = "vector"
	// TierCosine is the in-memory similarity fallback, O(collection size).
	TierCosine Tier = "cosine"
	// TierKeyword is case-insensitive substring match.
	TierKeyword Tier = "keyword"
	// TierRecent serves empty queries with the newest records.
	TierRecent Tier = "recent"
	// TierNone means every tier came up empty.
	TierNone Tier = "none"
)

// BothResults carries the independent per-corpus retrievals for one question.
type BothResults struct {
	Conferences []domain.SearchResult
	Journals    []domain.SearchResult
	Tiers       map[domain.EntityType]Tier
}

// Service is the retrieval engine.
type Service struct {
	repo       Repository
	embed      Embedder
	resolver   *Resolver
	vectorOnly bool // disable fallback tiers (degraded answers become errors)
	logger     *zap.Logger
}

// New creates a retrieval service.
func New(repo Repository, embed Embedder, resolver *Resolver, logger *zap.Logger) *Service {
	return &Service{repo: repo, embed: embed, resolver: resolver, logger: logger}
}

// WithVectorOnly disables the fallback tiers; the vector tier's outcome is
// final. Used when degraded relevance is worse than no answer.
func (s *Service) WithVectorOnly() *Service {
	s.vectorOnly = true
	return s
}

// Retrieve returns up to topK results for a corpus, score-descending.
// An empty query short-circuits to the newest records without embedding.
func (s *Service) Retrieve(
	ctx context.Context, t domain.EntityType, query string, topK int,
) ([]domain.SearchResult, Tier, error) {
	if !t.Valid() {
		return nil, TierNone, domain.ErrUnknownEntityType
	}
	topK = domain.ClampTopK(topK)

	if query == "" {
		results, err := s.repo.QueryRecent(ctx, t, topK)
		if err != nil {
			return nil, TierNone, err
		}
		return results, TierRecent, nil
	}

	queryVec := s.embedQuery(ctx, t, query)

	if queryVec != nil {
		if results := s.vectorTier(ctx, t, queryVec, topK); len(results) > 0 {
			return results, TierVector, nil
		}
		if s.vectorOnly {
			return []domain.SearchResult{}, TierVector, nil
		}
		if results := s.cosineTier(ctx, t, queryVec, topK); len(results) > 0 {
			return results, TierCosine, nil
		}
	} else if s.vectorOnly {
		return nil, TierNone, domain.ErrEmbeddingUnavailable
	}

	results, err := s.repo.QueryKeyword(ctx, t, domain.KeywordFields(t), query, topK)
	if err != nil {
		return nil, TierNone, err
	}
	if len(results) == 0 {
		return []domain.SearchResult{}, TierNone, nil
	}
	return results, TierKeyword, nil
}

// RetrieveBoth runs conference and journal retrieval concurrently and
// independently: a failure in one corpus yields an empty list for that
// corpus only, never an error for the whole question.
func (s *Service) RetrieveBoth(ctx context.Context, query string, topK int) BothResults {
	both := BothResults{Tiers: make(map[domain.EntityType]Tier, len(domain.EntityTypes))}

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, t := range domain.EntityTypes {
		wg.Add(1)
		go func(t domain.EntityType) {
			defer wg.Done()

			results, tier, err := s.Retrieve(ctx, t, query, topK)
			if err != nil {
				s.logger.Warn("Retrieval failed for corpus",
					zap.String("entity", string(t)),
					zap.Error(err),
				)
				results, tier = nil, TierNone
			}

			mu.Lock()
			defer mu.Unlock()
			both.Tiers[t] = tier
			switch t {
			case domain.EntityConference:
				both.Conferences = results
			case domain.EntityJournal:
				both.Journals = results
			}
		}(t)
	}

	wg.Wait()
	return both
}

// embedQuery vectorizes the query, returning nil when the embedding backend
// is unavailable so the caller can fall through to the keyword tier.
func (s *Service) embedQuery(ctx context.Context, t domain.EntityType, query string) []float32 {
	res, err := s.embed.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("Query embedding failed, skipping vector tiers",
			zap.String("entity", string(t)),
			zap.Error(err),
		)
		return nil
	}
	return res.Embedding
}

// vectorTier runs KNN against the resolved index/field pair, probing the
// candidate lists when nothing is memoized and invalidating a memoized pair
// that stopped producing hits.
func (s *Service) vectorTier(
	ctx context.Context, t domain.EntityType, vec []float32, topK int,
) []domain.SearchResult {
	k := max(100, topK*5)

	var staleIndex, staleField string
	if index, field, ok := s.resolver.Cached(t); ok {
		results, err := s.repo.QueryVector(ctx, t, index, field, vec, k)
		if err == nil && len(results) > 0 {
			return capTopK(results, topK)
		}
		// Stale resolution: the index may have been rebuilt under a new
		// name. Forget it and re-probe.
		s.resolver.Invalidate(t)
		staleIndex, staleField = index, field
	}

	for _, index := range s.resolver.IndexCandidates(t) {
		for _, field := range s.resolver.FieldCandidates() {
			if index == staleIndex && field == staleField {
				continue // just failed above, no point re-querying
			}
			results, err := s.repo.QueryVector(ctx, t, index, field, vec, k)
			if err != nil {
				if errors.Is(err, domain.ErrIndexNotFound) {
					break // no index under this name, next candidate index
				}
				s.logger.Debug("Vector probe failed",
					zap.String("entity", string(t)),
					zap.String("index", index),
					zap.String("field", field),
					zap.Error(err),
				)
				continue
			}
			if len(results) > 0 {
				s.resolver.Remember(t, index, field)
				return capTopK(results, topK)
			}
		}
	}
	return nil
}

// cosineTier scores every stored vector against the query in memory.
// Intentionally last-resort: O(collection size) per query.
func (s *Service) cosineTier(
	ctx context.Context, t domain.EntityType, vec []float32, topK int,
) []domain.SearchResult {
	records, err := s.repo.FetchVectored(ctx, t)
	if err != nil {
		s.logger.Warn("Cosine fallback fetch failed",
			zap.String("entity", string(t)),
			zap.Error(err),
		)
		return nil
	}
	if len(records) == 0 {
		return nil
	}

	results := make([]domain.SearchResult, 0, len(records))
	for _, rec := range records {
		results = append(results, domain.ResultFromRecord(rec, cosine(vec, rec.Vector)))
	}
	// Stable: ties keep fetch order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return capTopK(results, topK)
}

func capTopK(results []domain.SearchResult, topK int) []domain.SearchResult {
	if len(results) > topK {
		return results[:topK]
	}
	return results
}
