// Package bootstrap owns process-wide client handles. The Redis client and
// the embedding provider are expensive to construct and must be shared by
// every consumer (HTTP handlers, the ingestion scheduler, health checks),
// so they are initialized lazily exactly once.
package bootstrap

import (
	"sync"

	"go.uber.org/zap"

	"github.com/venueqa/venueqa/internal/config"
	"github.com/venueqa/venueqa/internal/db"
	dbRedis "github.com/venueqa/venueqa/internal/db/redis"
	"github.com/venueqa/venueqa/internal/domain"
	"github.com/venueqa/venueqa/internal/metrics"
	"github.com/venueqa/venueqa/internal/repository/embcache"
	openaiTransport "github.com/venueqa/venueqa/internal/transport/openai"
)

var (
	storeOnce sync.Once
	storeInst db.Store
	storeErr  error

	embedderOnce sync.Once
	embedderInst *openaiTransport.Embedder
)

// Store returns the shared Redis store, creating it on first call.
// Every subsequent call returns the same client regardless of cfg.
func Store(cfg config.DatabaseConfig) (db.Store, error) {
	storeOnce.Do(func() {
		storeInst, storeErr = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
	})
	return storeInst, storeErr
}

// Embedder returns the shared embedding provider, creating it on first call.
func Embedder(cfg config.EmbeddingConfig, logger *zap.Logger) *openaiTransport.Embedder {
	embedderOnce.Do(func() {
		embedderInst = openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   "openai",
			Logger:     logger,
		})
	})
	return embedderInst
}

// QueryEmbedder wraps the shared embedder with the embedding cache when
// caching is enabled. Query texts repeat far more often than record texts,
// so only the query path goes through the cache.
func QueryEmbedder(
	cfg config.EmbeddingConfig, store db.Store, logger *zap.Logger,
) domain.Embedder {
	base := Embedder(cfg, logger)
	if !cfg.Cache || store == nil {
		return base
	}
	return embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
}
