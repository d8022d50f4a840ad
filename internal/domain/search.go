package domain

// Retrieval limits.
const (
	DefaultTopK = 5
	MaxTopK     = 500
)

// ClampTopK forces k into [1, MaxTopK], defaulting when unset.
func ClampTopK(k int) int {
	if k == 0 {
		return DefaultTopK
	}
	if k < 1 {
		return 1
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}

// SearchResult is a record projection (vector stripped) plus a similarity
// score. Higher score means more relevant; every retrieval path returns
// results sorted by score descending.
type SearchResult struct {
	Type   EntityType        `json:"type"`
	Fields map[string]string `json:"fields"`
	Score  float64           `json:"score"`
}

// ResultFromRecord projects a record into a scored search result.
// Internal fields never leave the repository layer, so only the domain
// fields are copied.
func ResultFromRecord(r Record, score float64) SearchResult {
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return SearchResult{Type: r.Type, Fields: fields, Score: score}
}
