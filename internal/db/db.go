package db

import (
	"context"
	"time"
)

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Field        string // name of the indexed vector field
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// HashSetItem is one hash write in a multi-key upsert.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// Store is the backend contract implemented by the Redis store.
type Store interface {
	Ping(ctx context.Context) error
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()

	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)

	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, keys ...string) error

	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)

	Scan(ctx context.Context, pattern string) ([]string, error)

	// SearchKNN runs approximate nearest-neighbor search against a named
	// index. Returns ErrIndexNotFound when the index does not exist.
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}
