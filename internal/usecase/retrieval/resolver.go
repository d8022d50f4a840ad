package retrieval

import (
	"sync"

	"github.com/venueqa/venueqa/internal/domain"
)

// vectorFieldCandidates are probed in order when resolving the indexed
// vector field name for a corpus.
var vectorFieldCandidates = []string{"vector", "embedding"}

// resolved is a memoized (index, field) pair for one corpus.
type resolved struct {
	index string
	field string
}

// Resolver discovers which index name and vector field actually serve a
// corpus and memoizes the answer. Memoization is an optimization only: a
// cached pair that stops yielding hits is invalidated and re-probed on the
// next query.
type Resolver struct {
	configured string // environment-configured index name, probed first

	mu    sync.Mutex
	cache map[domain.EntityType]resolved
}

// NewResolver creates a resolver. configured may be empty.
func NewResolver(configured string) *Resolver {
	return &Resolver{
		configured: configured,
		cache:      make(map[domain.EntityType]resolved),
	}
}

// IndexCandidates returns the index names to probe for a corpus, the
// configured name first, then conventional defaults.
func (r *Resolver) IndexCandidates(t domain.EntityType) []string {
	candidates := make([]string, 0, 3)
	if r.configured != "" {
		candidates = append(candidates, r.configured+":"+string(t))
	}
	candidates = append(candidates,
		domain.KeyPrefix+"idx:"+string(t),
		"idx:"+string(t),
	)
	return candidates
}

// FieldCandidates returns the vector field names to probe.
func (r *Resolver) FieldCandidates() []string {
	return vectorFieldCandidates
}

// Cached returns the memoized pair for a corpus, if any.
func (r *Resolver) Cached(t domain.EntityType) (index, field string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.cache[t]
	return res.index, res.field, ok
}

// Remember memoizes a pair that produced hits.
func (r *Resolver) Remember(t domain.EntityType, index, field string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[t] = resolved{index: index, field: field}
}

// Invalidate forgets the memoized pair for a corpus.
func (r *Resolver) Invalidate(t domain.EntityType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, t)
}
