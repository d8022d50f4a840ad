package domain

import "strings"

// KeyPrefix namespaces all store keys written by this service.
const KeyPrefix = "venueqa:"

// Record is a single corpus entry. Fields hold the source attributes as flat
// strings; Vector is set by ingestion once the record has been embedded.
type Record struct {
	Type      EntityType
	Fields    map[string]string
	Vector    []float32
	CreatedAt int64 // unix seconds
}

// DedupeKey derives the deterministic identity of a record from its
// identifying fields: acronym+name for conferences, title for journals.
func (r Record) DedupeKey() string {
	switch r.Type {
	case EntityConference:
		return normalizeKeyPart(r.Fields["acronym"]) + "|" + normalizeKeyPart(r.Fields["name"])
	case EntityJournal:
		return normalizeKeyPart(r.Fields["title"])
	default:
		return ""
	}
}

// Indexed reports whether the record already carries an embedding.
// Presence of the vector is the sole "indexed" flag.
func (r Record) Indexed() bool {
	return len(r.Vector) > 0
}

// EmbeddingText builds the embedding input: the per-type field list joined
// by single spaces, empty fields skipped.
func (r Record) EmbeddingText() string {
	parts := make([]string, 0, len(embeddingFields[r.Type]))
	for _, f := range embeddingFields[r.Type] {
		if v := strings.TrimSpace(r.Fields[f]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func normalizeKeyPart(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
