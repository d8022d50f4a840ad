package domain

import "errors"

var (
	// ErrFetchFailed signals an unreachable source feed after retries.
	ErrFetchFailed = errors.New("source fetch failed")
	// ErrEmbeddingUnavailable signals an unreachable or malformed embedding backend.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrDimensionMismatch signals an embedding of the wrong dimension.
	// Fatal data-integrity error, never silently coerced.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrIndexNotFound signals a missing vector search index.
	ErrIndexNotFound = errors.New("search index not found")
	// ErrAllProvidersExhausted signals that every completion provider failed.
	ErrAllProvidersExhausted = errors.New("all completion providers exhausted")
	// ErrNoProviders signals an empty completion provider chain.
	ErrNoProviders = errors.New("no completion providers configured")
	// ErrUnknownEntityType signals an entity type outside the two corpora.
	ErrUnknownEntityType = errors.New("unknown entity type")
)
