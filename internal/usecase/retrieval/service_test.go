package retrieval

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/venueqa/venueqa/internal/domain"
)

// --- Mocks ---

type vectorCall struct {
	index string
	field string
	k     int
}

type mockRepo struct {
	vectorResults map[string][]domain.SearchResult // keyed by index name
	vectorErr     error
	vectorCalls   []vectorCall

	vectoredRecords []domain.Record
	vectoredErr     error

	keywordResults []domain.SearchResult
	keywordErr     error
	keywordCalled  bool
	keywordQuery   string

	recentResults []domain.SearchResult
	recentCalled  bool
}

func (m *mockRepo) QueryVector(
	_ context.Context, _ domain.EntityType, indexName, field string, _ []float32, k int,
) ([]domain.SearchResult, error) {
	m.vectorCalls = append(m.vectorCalls, vectorCall{index: indexName, field: field, k: k})
	if m.vectorErr != nil {
		return nil, m.vectorErr
	}
	return m.vectorResults[indexName], nil
}

func (m *mockRepo) QueryKeyword(
	_ context.Context, _ domain.EntityType, _ []string, substring string, _ int,
) ([]domain.SearchResult, error) {
	m.keywordCalled = true
	m.keywordQuery = substring
	return m.keywordResults, m.keywordErr
}

func (m *mockRepo) QueryRecent(_ context.Context, _ domain.EntityType, _ int) ([]domain.SearchResult, error) {
	m.recentCalled = true
	return m.recentResults, nil
}

func (m *mockRepo) FetchVectored(_ context.Context, _ domain.EntityType) ([]domain.Record, error) {
	return m.vectoredRecords, m.vectoredErr
}

type mockEmbedder struct {
	vec    []float32
	err    error
	called bool
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.called = true
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

func result(name string, score float64) domain.SearchResult {
	return domain.SearchResult{
		Type:   domain.EntityConference,
		Fields: map[string]string{"name": name},
		Score:  score,
	}
}

func newService(repo *mockRepo, embed *mockEmbedder) *Service {
	return New(repo, embed, NewResolver(""), zap.NewNop())
}

// --- Tests ---

func TestRetrieve_VectorTierWins(t *testing.T) {
	repo := &mockRepo{
		vectorResults: map[string][]domain.SearchResult{
			"venueqa:idx:conference": {result("a", 0.9), result("b", 0.8)},
		},
	}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2}}
	svc := newService(repo, embed)

	results, tier, err := svc.Retrieve(context.Background(), domain.EntityConference, "ml conferences", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tier != TierVector {
		t.Errorf("expected vector tier, got %s", tier)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if repo.keywordCalled {
		t.Error("keyword tier must not run when vector tier yields results")
	}
}

func TestRetrieve_RequestsInflatedCandidateCount(t *testing.T) {
	repo := &mockRepo{
		vectorResults: map[string][]domain.SearchResult{
			"venueqa:idx:conference": {result("a", 0.9)},
		},
	}
	svc := newService(repo, &mockEmbedder{vec: []float32{1}})

	if _, _, err := svc.Retrieve(context.Background(), domain.EntityConference, "q", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.vectorCalls) == 0 {
		t.Fatal("expected a vector query")
	}
	if got := repo.vectorCalls[0].k; got != 100 {
		t.Errorf("expected internal k=max(100, 3*5)=100, got %d", got)
	}

	repo.vectorCalls = nil
	if _, _, err := svc.Retrieve(context.Background(), domain.EntityConference, "q", 40); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := repo.vectorCalls[0].k; got != 200 {
		t.Errorf("expected internal k=40*5=200, got %d", got)
	}
}

func TestRetrieve_VectorTierCapsAtTopK(t *testing.T) {
	many := []domain.SearchResult{
		result("a", 0.9), result("b", 0.8), result("c", 0.7), result("d", 0.6),
	}
	repo := &mockRepo{
		vectorResults: map[string][]domain.SearchResult{"venueqa:idx:conference": many},
	}
	svc := newService(repo, &mockEmbedder{vec: []float32{1}})

	results, _, err := svc.Retrieve(context.Background(), domain.EntityConference, "q", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected topK=2 results, got %d", len(results))
	}
}

func TestRetrieve_IndexProbeTriesNextCandidate(t *testing.T) {
	// Only the second candidate index exists.
	repo := &mockRepo{
		vectorResults: map[string][]domain.SearchResult{
			"idx:conference": {result("a", 0.9)},
		},
	}
	svc := newService(repo, &mockEmbedder{vec: []float32{1}})

	results, tier, err := svc.Retrieve(context.Background(), domain.EntityConference, "q", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tier != TierVector || len(results) != 1 {
		t.Fatalf("expected vector hit via fallback index, got tier=%s n=%d", tier, len(results))
	}

	// Resolution is memoized for the next query.
	index, field, ok := svc.resolver.Cached(domain.EntityConference)
	if !ok || index != "idx:conference" || field != "vector" {
		t.Errorf("expected memoized resolution, got %q %q %v", index, field, ok)
	}
}

func TestRetrieve_EmbedFailureFallsBackToKeyword(t *testing.T) {
	repo := &mockRepo{
		keywordResults: []domain.SearchResult{result("machine learning venue", 1.0)},
	}
	embed := &mockEmbedder{err: domain.ErrEmbeddingUnavailable}
	svc := newService(repo, embed)

	results, tier, err := svc.Retrieve(context.Background(), domain.EntityConference, "machine learning", 3)
	if err != nil {
		t.Fatalf("degraded retrieval must not error: %v", err)
	}
	if tier != TierKeyword {
		t.Errorf("expected keyword tier, got %s", tier)
	}
	if len(results) != 1 || results[0].Score != 1.0 {
		t.Errorf("unexpected results: %+v", results)
	}
	if len(repo.vectorCalls) != 0 {
		t.Error("vector tier must be skipped without a query vector")
	}
}

func TestRetrieve_CosineFallbackWhenIndexMissing(t *testing.T) {
	repo := &mockRepo{
		vectorErr: domain.ErrIndexNotFound,
		vectoredRecords: []domain.Record{
			{
				Type:   domain.EntityConference,
				Fields: map[string]string{"name": "far"},
				Vector: []float32{0, 1},
			},
			{
				Type:   domain.EntityConference,
				Fields: map[string]string{"name": "near"},
				Vector: []float32{1, 0},
			},
			{
				Type:   domain.EntityConference,
				Fields: map[string]string{"name": "no-vector"},
			},
		},
	}
	svc := newService(repo, &mockEmbedder{vec: []float32{1, 0}})

	results, tier, err := svc.Retrieve(context.Background(), domain.EntityConference, "q", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tier != TierCosine {
		t.Fatalf("expected cosine tier, got %s", tier)
	}
	if results[0].Fields["name"] != "near" {
		t.Errorf("expected nearest record first, got %+v", results[0])
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted descending at [%d]", i)
		}
	}
}

func TestRetrieve_EmptyCollectionReturnsEmptyNotError(t *testing.T) {
	repo := &mockRepo{vectorErr: domain.ErrIndexNotFound}
	svc := newService(repo, &mockEmbedder{vec: []float32{1}})

	results, tier, err := svc.Retrieve(context.Background(), domain.EntityConference, "machine learning", 3)
	if err != nil {
		t.Fatalf("empty collection must not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty results, got %+v", results)
	}
	if tier != TierNone {
		t.Errorf("expected tier none, got %s", tier)
	}
}

func TestRetrieve_EmptyQueryShortCircuitsToRecent(t *testing.T) {
	repo := &mockRepo{recentResults: []domain.SearchResult{result("newest", 0)}}
	embed := &mockEmbedder{vec: []float32{1}}
	svc := newService(repo, embed)

	results, tier, err := svc.Retrieve(context.Background(), domain.EntityConference, "", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tier != TierRecent || !repo.recentCalled {
		t.Errorf("empty query must serve recent records, tier=%s", tier)
	}
	if embed.called {
		t.Error("empty query must not be embedded")
	}
	if len(results) != 1 {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestRetrieve_TopKClamping(t *testing.T) {
	repo := &mockRepo{recentResults: nil}
	svc := newService(repo, &mockEmbedder{vec: []float32{1}})

	// Invalid topK values must not error, just clamp.
	if _, _, err := svc.Retrieve(context.Background(), domain.EntityConference, "", -5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := svc.Retrieve(context.Background(), domain.EntityConference, "", 10_000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRetrieve_StaleResolutionReprobed(t *testing.T) {
	repo := &mockRepo{
		vectorResults: map[string][]domain.SearchResult{
			"idx:conference": {result("a", 0.9)},
		},
	}
	svc := newService(repo, &mockEmbedder{vec: []float32{1}})
	// Memoized index no longer yields hits.
	svc.resolver.Remember(domain.EntityConference, "venueqa:idx:conference", "vector")

	results, tier, err := svc.Retrieve(context.Background(), domain.EntityConference, "q", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tier != TierVector || len(results) != 1 {
		t.Fatalf("expected re-probe to find the live index, tier=%s n=%d", tier, len(results))
	}
	index, _, _ := svc.resolver.Cached(domain.EntityConference)
	if index != "idx:conference" {
		t.Errorf("expected re-memoized index, got %q", index)
	}
}

func TestRetrieve_StalePairQueriedOnlyOnce(t *testing.T) {
	repo := &mockRepo{
		vectorResults: map[string][]domain.SearchResult{
			"idx:conference": {result("a", 0.9)},
		},
	}
	svc := newService(repo, &mockEmbedder{vec: []float32{1}})
	svc.resolver.Remember(domain.EntityConference, "venueqa:idx:conference", "vector")

	if _, _, err := svc.Retrieve(context.Background(), domain.EntityConference, "q", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	staleQueries := 0
	for _, c := range repo.vectorCalls {
		if c.index == "venueqa:idx:conference" && c.field == "vector" {
			staleQueries++
		}
	}
	if staleQueries != 1 {
		t.Errorf("stale pair must be queried exactly once, got %d", staleQueries)
	}
}

func TestRetrieve_VectorOnlySkipsFallbacks(t *testing.T) {
	repo := &mockRepo{
		vectorErr:      domain.ErrIndexNotFound,
		keywordResults: []domain.SearchResult{result("x", 1.0)},
	}
	svc := newService(repo, &mockEmbedder{vec: []float32{1}}).WithVectorOnly()

	results, tier, err := svc.Retrieve(context.Background(), domain.EntityConference, "q", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tier != TierVector || len(results) != 0 {
		t.Errorf("vector-only mode must not fall back, tier=%s n=%d", tier, len(results))
	}
	if repo.keywordCalled {
		t.Error("keyword tier must not run in vector-only mode")
	}
}

func TestRetrieveBoth_IndependentFailure(t *testing.T) {
	// Both corpora share the mock; embedding fails, keyword errors too, so
	// both come back empty — but the call itself never fails.
	repo := &mockRepo{keywordErr: errors.New("store down")}
	embed := &mockEmbedder{err: domain.ErrEmbeddingUnavailable}
	svc := newService(repo, embed)

	both := svc.RetrieveBoth(context.Background(), "quantum computing", 5)
	if len(both.Conferences) != 0 || len(both.Journals) != 0 {
		t.Errorf("expected empty results, got %+v", both)
	}
	if both.Tiers[domain.EntityConference] != TierNone {
		t.Errorf("expected tier none for conference, got %s", both.Tiers[domain.EntityConference])
	}
}

func TestRetrieveBoth_PopulatesBothCorpora(t *testing.T) {
	repo := &mockRepo{
		keywordResults: []domain.SearchResult{result("hit", 1.0)},
	}
	embed := &mockEmbedder{err: domain.ErrEmbeddingUnavailable}
	svc := newService(repo, embed)

	both := svc.RetrieveBoth(context.Background(), "data", 5)
	if len(both.Conferences) != 1 || len(both.Journals) != 1 {
		t.Errorf("expected one hit per corpus, got %d/%d", len(both.Conferences), len(both.Journals))
	}
	if both.Tiers[domain.EntityJournal] != TierKeyword {
		t.Errorf("expected keyword tier recorded, got %s", both.Tiers[domain.EntityJournal])
	}
}
