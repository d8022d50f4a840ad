package ingest

import (
	"context"

	"github.com/venueqa/venueqa/internal/domain"
)

// Fetcher pulls raw records from an upstream source in a single attempt.
type Fetcher interface {
	Fetch(ctx context.Context, t domain.EntityType) ([]domain.Record, error)
}

// Repository defines the storage contract for ingestion.
type Repository interface {
	// FindIndexedKeys returns, in one round trip, the dedupe keys that
	// already carry a stored vector.
	FindIndexedKeys(ctx context.Context, t domain.EntityType) (map[string]struct{}, error)
	// Upsert writes one record under its dedupe key, insert-or-replace.
	Upsert(ctx context.Context, rec domain.Record) error
}

// Embedder vectorizes record texts in order-preserving batches.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}
