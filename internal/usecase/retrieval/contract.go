package retrieval

import (
	"context"

	"github.com/venueqa/venueqa/internal/domain"
)

// Repository defines the storage contract for retrieval.
type Repository interface {
	// QueryVector runs KNN search against a named index and vector field.
	// Returns domain.ErrIndexNotFound when the index does not exist.
	QueryVector(
		ctx context.Context, t domain.EntityType, indexName, field string, vector []float32, k int,
	) ([]domain.SearchResult, error)
	// QueryKeyword matches a substring, case-insensitive, across fields.
	QueryKeyword(
		ctx context.Context, t domain.EntityType, fields []string, substring string, k int,
	) ([]domain.SearchResult, error)
	// QueryRecent returns the newest k records.
	QueryRecent(ctx context.Context, t domain.EntityType, k int) ([]domain.SearchResult, error)
	// FetchVectored returns all records carrying a stored vector.
	FetchVectored(ctx context.Context, t domain.EntityType) ([]domain.Record, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
