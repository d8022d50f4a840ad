package answer

import (
	"context"

	"github.com/venueqa/venueqa/internal/usecase/retrieval"
)

// Retriever runs the per-corpus retrievals for one question.
type Retriever interface {
	RetrieveBoth(ctx context.Context, query string, topK int) retrieval.BothResults
}
