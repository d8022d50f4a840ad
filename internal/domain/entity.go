package domain

// EntityType identifies one of the two corpora.
type EntityType string

const (
	// EntityConference is the academic conference corpus.
	EntityConference EntityType = "conference"
	// EntityJournal is the academic journal corpus.
	EntityJournal EntityType = "journal"
)

// EntityTypes lists all corpora in canonical order.
var EntityTypes = []EntityType{EntityConference, EntityJournal}

// Valid reports whether t names a known corpus.
func (t EntityType) Valid() bool {
	return t == EntityConference || t == EntityJournal
}

// embeddingFields lists, per corpus, the fields concatenated into the
// embedding input string. Order matters: it is part of the embedding identity.
var embeddingFields = map[EntityType][]string{
	EntityConference: {"acronym", "name", "topics", "location", "deadline"},
	EntityJournal:    {"title", "categories", "areas", "publisher"},
}

// keywordFields lists, per corpus, the fields scanned by the keyword tier.
var keywordFields = map[EntityType][]string{
	EntityConference: {"name", "acronym", "topics", "location"},
	EntityJournal:    {"title", "categories", "areas", "publisher", "issn"},
}

// projectionFields lists, per corpus, the fields surfaced in search results
// and prompts. The vector and internal timestamps are never part of it.
var projectionFields = map[EntityType][]string{
	EntityConference: {"acronym", "name", "topics", "location", "deadline", "url"},
	EntityJournal:    {"title", "categories", "areas", "publisher", "issn", "url"},
}

// ProjectionFields returns the client-visible field set for a corpus.
func ProjectionFields(t EntityType) []string {
	return projectionFields[t]
}

// KeywordFields returns the substring-search field set for a corpus.
func KeywordFields(t EntityType) []string {
	return keywordFields[t]
}

// EmbeddingFields returns the embedding input field list for a corpus.
func EmbeddingFields(t EntityType) []string {
	return embeddingFields[t]
}
