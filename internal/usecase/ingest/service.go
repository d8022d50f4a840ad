// Package ingest populates the content store: fetch, dedupe against
// already-embedded records, embed in ordered batches, upsert with a bounded
// worker pool. Runs are single-flight per entity type.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/venueqa/venueqa/internal/domain"
	"github.com/venueqa/venueqa/internal/metrics"
)

// Config holds ingestion tuning knobs.
type Config struct {
	BatchSize     int           // embedding batch size (default 32)
	Workers       int           // concurrent upserts per batch (default 10)
	FetchAttempts int           // fetch retries before ErrFetchFailed (default 3)
	FetchBackoff  time.Duration // fixed delay between fetch attempts (default 5s)
	Force         bool          // re-embed records that are already indexed
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 32
	}
	if c.Workers <= 0 {
		c.Workers = 10
	}
	if c.FetchAttempts <= 0 {
		c.FetchAttempts = 3
	}
	if c.FetchBackoff <= 0 {
		c.FetchBackoff = 5 * time.Second
	}
	return c
}

// Report summarizes one ingestion run.
type Report struct {
	Entity   domain.EntityType `json:"entity"`
	Fetched  int               `json:"fetched"`
	Skipped  int               `json:"skipped"` // already indexed
	Upserted int               `json:"upserted"`
	Failed   int               `json:"failed"`
	InFlight bool              `json:"in_flight,omitempty"` // run skipped: another one was active
}

// Service drives ingestion runs.
type Service struct {
	fetcher Fetcher
	repo    Repository
	embed   Embedder
	cfg     Config
	logger  *zap.Logger

	mu       sync.Mutex
	inFlight map[domain.EntityType]bool
}

// New creates an ingestion service.
func New(fetcher Fetcher, repo Repository, embed Embedder, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		fetcher:  fetcher,
		repo:     repo,
		embed:    embed,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		inFlight: make(map[domain.EntityType]bool),
	}
}

// RunAll ingests both corpora. A failure in one does not stop the other;
// the first error is returned after all runs finish.
func (s *Service) RunAll(ctx context.Context) ([]Report, error) {
	var reports []Report
	var firstErr error

	for _, t := range domain.EntityTypes {
		report, err := s.Run(ctx, t)
		reports = append(reports, report)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return reports, firstErr
}

// Run executes one ingestion run for a corpus. A second run for the same
// corpus while one is in flight returns immediately with InFlight set:
// overlapping runs would duplicate embedding work and race upserts on the
// same dedupe keys.
func (s *Service) Run(ctx context.Context, t domain.EntityType) (Report, error) {
	if !t.Valid() {
		return Report{Entity: t}, fmt.Errorf("%w: %s", domain.ErrUnknownEntityType, t)
	}

	if !s.acquire(t) {
		s.logger.Info("Ingestion already in flight, skipping", zap.String("entity", string(t)))
		return Report{Entity: t, InFlight: true}, nil
	}
	defer s.release(t)

	// Run id correlates log lines of one run across batches.
	runLogger := s.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("entity", string(t)),
	)

	start := time.Now()
	report, err := s.run(ctx, t)
	metrics.IngestRunDuration.WithLabelValues(string(t)).Observe(time.Since(start).Seconds())

	if err != nil {
		runLogger.Error("Ingestion run failed",
			zap.Int("upserted", report.Upserted),
			zap.Error(err),
		)
		return report, err
	}

	runLogger.Info("Ingestion run finished",
		zap.Int("fetched", report.Fetched),
		zap.Int("skipped", report.Skipped),
		zap.Int("upserted", report.Upserted),
		zap.Int("failed", report.Failed),
		zap.Duration("took", time.Since(start)),
	)
	return report, nil
}

func (s *Service) run(ctx context.Context, t domain.EntityType) (Report, error) {
	report := Report{Entity: t}

	records, err := s.fetchWithRetry(ctx, t)
	if err != nil {
		return report, err
	}
	report.Fetched = len(records)
	metrics.IngestRecordsTotal.WithLabelValues(string(t), "fetched").Add(float64(len(records)))

	fresh, err := s.filterUnindexed(ctx, t, records)
	if err != nil {
		return report, err
	}
	report.Skipped = len(records) - len(fresh)
	metrics.IngestRecordsTotal.WithLabelValues(string(t), "skipped").Add(float64(report.Skipped))

	if len(fresh) == 0 {
		return report, nil
	}

	// Batches run strictly in order so vectors stay positionally aligned
	// with their records. A batch failure aborts the run for this corpus;
	// upserts from earlier batches are already committed and stay intact.
	for offset := 0; offset < len(fresh); offset += s.cfg.BatchSize {
		end := min(offset+s.cfg.BatchSize, len(fresh))
		batch := fresh[offset:end]

		upserted, failed, err := s.embedAndUpsert(ctx, t, batch)
		report.Upserted += upserted
		report.Failed += failed
		if err != nil {
			return report, fmt.Errorf("batch at offset %d: %w", offset, err)
		}
	}

	return report, nil
}

// fetchWithRetry attempts the source fetch with a fixed backoff, wrapping
// the final failure in domain.ErrFetchFailed.
func (s *Service) fetchWithRetry(ctx context.Context, t domain.EntityType) ([]domain.Record, error) {
	var lastErr error

	for attempt := 1; attempt <= s.cfg.FetchAttempts; attempt++ {
		records, err := s.fetcher.Fetch(ctx, t)
		if err == nil {
			return records, nil
		}
		lastErr = err

		s.logger.Warn("Source fetch attempt failed",
			zap.String("entity", string(t)),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt == s.cfg.FetchAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", domain.ErrFetchFailed, ctx.Err())
		case <-time.After(s.cfg.FetchBackoff):
		}
	}

	return nil, fmt.Errorf("%w: %d attempts: %w", domain.ErrFetchFailed, s.cfg.FetchAttempts, lastErr)
}

// filterUnindexed drops records whose dedupe key already carries a vector.
// One set-membership pass against a single store round trip, never
// per-record lookups.
func (s *Service) filterUnindexed(
	ctx context.Context, t domain.EntityType, records []domain.Record,
) ([]domain.Record, error) {
	if s.cfg.Force {
		return records, nil
	}

	indexed, err := s.repo.FindIndexedKeys(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("find indexed keys: %w", err)
	}

	fresh := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		if _, ok := indexed[rec.DedupeKey()]; ok {
			continue
		}
		fresh = append(fresh, rec)
	}
	return fresh, nil
}

// embedAndUpsert vectorizes one batch and writes it with a bounded worker
// pool. Upsert order within the batch does not matter; individual upsert
// failures are counted, not fatal.
func (s *Service) embedAndUpsert(
	ctx context.Context, t domain.EntityType, batch []domain.Record,
) (upserted, failed int, err error) {
	texts := make([]string, len(batch))
	for i, rec := range batch {
		texts[i] = rec.EmbeddingText()
	}

	res, err := s.embed.BatchEmbed(ctx, texts)
	if err != nil {
		return 0, 0, fmt.Errorf("embed batch: %w", err)
	}
	if len(res.Embeddings) != len(batch) {
		return 0, 0, fmt.Errorf(
			"embed batch returned %d vectors for %d records: %w",
			len(res.Embeddings), len(batch), domain.ErrEmbeddingUnavailable,
		)
	}
	metrics.IngestRecordsTotal.WithLabelValues(string(t), "embedded").Add(float64(len(batch)))

	jobs := make(chan domain.Record)
	var wg sync.WaitGroup
	var okCount, failCount atomic.Int64

	workers := min(s.cfg.Workers, len(batch))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				if err := s.repo.Upsert(ctx, rec); err != nil {
					failCount.Add(1)
					s.logger.Warn("Upsert failed",
						zap.String("entity", string(t)),
						zap.String("key", rec.DedupeKey()),
						zap.Error(err),
					)
					continue
				}
				okCount.Add(1)
			}
		}()
	}

	for i, rec := range batch {
		rec.Vector = res.Embeddings[i]
		jobs <- rec
	}
	close(jobs)
	wg.Wait()

	metrics.IngestRecordsTotal.WithLabelValues(string(t), "upserted").Add(float64(okCount.Load()))
	metrics.IngestRecordsTotal.WithLabelValues(string(t), "failed").Add(float64(failCount.Load()))

	return int(okCount.Load()), int(failCount.Load()), nil
}

func (s *Service) acquire(t domain.EntityType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[t] {
		return false
	}
	s.inFlight[t] = true
	return true
}

func (s *Service) release(t domain.EntityType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight[t] = false
}
