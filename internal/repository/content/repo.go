package content

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/venueqa/venueqa/internal/db"
	"github.com/venueqa/venueqa/internal/domain"
)

// Repository persists corpus records in Redis hashes, one hash per dedupe
// key, with a per-corpus set tracking which keys already carry a vector.
type Repository struct {
	store db.Store
}

// New creates a content repository.
func New(store db.Store) *Repository {
	return &Repository{store: store}
}

// Upsert writes a record under its dedupe key (insert-or-replace) and marks
// it indexed when it carries a vector. Each call is independently committed.
func (r *Repository) Upsert(ctx context.Context, rec domain.Record) error {
	key := rec.DedupeKey()
	if key == "" || key == "|" {
		return fmt.Errorf("record has no identifying fields: %w", domain.ErrUnknownEntityType)
	}

	// HSET merges into an existing hash; a preceding DEL makes the write a
	// full replace so fields dropped upstream do not survive re-ingestion.
	storeKey := recordKey(rec.Type, key)
	if err := r.store.Del(ctx, storeKey); err != nil {
		return fmt.Errorf("clear record: %w", err)
	}
	if err := r.store.HSet(ctx, storeKey, buildHashFields(rec)); err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}

	if rec.Indexed() {
		if err := r.store.SAdd(ctx, indexedSetKey(rec.Type), key); err != nil {
			return fmt.Errorf("mark indexed: %w", err)
		}
	}
	return nil
}

// FindIndexedKeys returns the set of dedupe keys that already carry a
// vector. Single round trip: ingestion dedupe must not do per-record lookups.
func (r *Repository) FindIndexedKeys(ctx context.Context, t domain.EntityType) (map[string]struct{}, error) {
	members, err := r.store.SMembers(ctx, indexedSetKey(t))
	if err != nil {
		return nil, fmt.Errorf("indexed keys: %w", err)
	}
	keys := make(map[string]struct{}, len(members))
	for _, m := range members {
		keys[m] = struct{}{}
	}
	return keys, nil
}

// QueryVector runs KNN search against the named index, projecting out the
// vector and internal timestamps. Translates a missing index into
// domain.ErrIndexNotFound so the retrieval engine can probe the next candidate.
func (r *Repository) QueryVector(
	ctx context.Context, t domain.EntityType, indexName, field string, vector []float32, k int,
) ([]domain.SearchResult, error) {
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName,
		Field:        field,
		Vector:       vector,
		K:            k,
		ReturnFields: domain.ProjectionFields(t),
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("index %q: %w", indexName, domain.ErrIndexNotFound)
		}
		return nil, fmt.Errorf("knn search: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(res.Entries))
	for _, e := range res.Entries {
		results = append(results, domain.SearchResult{Type: t, Fields: e.Fields, Score: e.Score})
	}
	return results, nil
}

// QueryKeyword scans the corpus and keeps records containing the substring
// (case-insensitive) in any of the given fields. Matches score 1.0 and keep
// creation order, newest first.
func (r *Repository) QueryKeyword(
	ctx context.Context, t domain.EntityType, fields []string, substring string, k int,
) ([]domain.SearchResult, error) {
	records, err := r.fetchAll(ctx, t)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(substring)
	results := make([]domain.SearchResult, 0, k)
	for _, rec := range records {
		if !matchesAny(rec, fields, needle) {
			continue
		}
		results = append(results, domain.ResultFromRecord(rec, 1.0))
		if len(results) >= k {
			break
		}
	}
	return results, nil
}

// QueryRecent returns the newest k records by creation time.
func (r *Repository) QueryRecent(ctx context.Context, t domain.EntityType, k int) ([]domain.SearchResult, error) {
	records, err := r.fetchAll(ctx, t)
	if err != nil {
		return nil, err
	}
	if len(records) > k {
		records = records[:k]
	}
	results := make([]domain.SearchResult, 0, len(records))
	for _, rec := range records {
		results = append(results, domain.ResultFromRecord(rec, 0))
	}
	return results, nil
}

// FetchVectored returns all records of a corpus that carry a stored vector.
// O(collection size); reserved for the in-memory similarity fallback tier.
func (r *Repository) FetchVectored(ctx context.Context, t domain.EntityType) ([]domain.Record, error) {
	records, err := r.fetchAll(ctx, t)
	if err != nil {
		return nil, err
	}
	vectored := records[:0]
	for _, rec := range records {
		if rec.Indexed() {
			vectored = append(vectored, rec)
		}
	}
	return vectored, nil
}

// fetchAll loads every record of a corpus, newest first. Key order from SCAN
// is unstable, so the sort also breaks creation-time ties by dedupe key to
// keep results deterministic.
func (r *Repository) fetchAll(ctx context.Context, t domain.EntityType) ([]domain.Record, error) {
	keys, err := r.store.Scan(ctx, recordKeyPattern(t))
	if err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	records := make([]domain.Record, 0, len(hashes))
	for _, h := range hashes {
		if len(h) == 0 {
			continue // key vanished between SCAN and HGETALL
		}
		records = append(records, parseRecord(t, h))
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt != records[j].CreatedAt {
			return records[i].CreatedAt > records[j].CreatedAt
		}
		return records[i].DedupeKey() < records[j].DedupeKey()
	})
	return records, nil
}

// Ping delegates to the underlying store for health checks.
func (r *Repository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

func matchesAny(rec domain.Record, fields []string, needle string) bool {
	if needle == "" {
		return false
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(rec.Fields[f]), needle) {
			return true
		}
	}
	return false
}
