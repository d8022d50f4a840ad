package answer

import (
	"fmt"
	"strings"

	"github.com/venueqa/venueqa/internal/domain"
)

// Prompt rendering limits and sentinels.
const (
	maxPromptEntries = 10
	notAvailable     = "not available"
	emptyCategory    = "no results in this category"
)

const promptPreamble = `You are an assistant for researchers choosing where to publish.
Answer the question using only the conference and journal information below.
If the information is not sufficient, say so instead of guessing.`

// conference and journal entry templates: fixed field order, missing fields
// rendered as "not available" so the model never sees ragged entries.
var conferenceFields = []struct{ label, field string }{
	{"Name", "name"},
	{"Acronym", "acronym"},
	{"Topics", "topics"},
	{"Location", "location"},
	{"Deadline", "deadline"},
	{"URL", "url"},
}

var journalFields = []struct{ label, field string }{
	{"Title", "title"},
	{"Publisher", "publisher"},
	{"Categories", "categories"},
	{"Areas", "areas"},
	{"ISSN", "issn"},
	{"URL", "url"},
}

// Compose renders retrieved evidence and the question into one prompt.
// Pure function of its inputs: same evidence and question, same prompt.
func Compose(question string, conferences, journals []domain.SearchResult) string {
	var b strings.Builder

	b.WriteString(promptPreamble)
	b.WriteString("\n\nConferences:\n")
	writeEntries(&b, conferences, conferenceFields)

	b.WriteString("\nJournals:\n")
	writeEntries(&b, journals, journalFields)

	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nAnswer in the same language as the question.")

	return b.String()
}

func writeEntries(
	b *strings.Builder, results []domain.SearchResult, fields []struct{ label, field string },
) {
	if len(results) == 0 {
		b.WriteString(emptyCategory + "\n")
		return
	}

	n := min(len(results), maxPromptEntries)
	for i := 0; i < n; i++ {
		fmt.Fprintf(b, "%d.", i+1)
		for j, f := range fields {
			value := strings.TrimSpace(results[i].Fields[f.field])
			if value == "" {
				value = notAvailable
			}
			if j > 0 {
				b.WriteString(" |")
			}
			fmt.Fprintf(b, " %s: %s", f.label, value)
		}
		b.WriteString("\n")
	}
}
