package answer

import (
	"strings"
	"testing"

	"github.com/venueqa/venueqa/internal/domain"
)

func confResult(fields map[string]string) domain.SearchResult {
	return domain.SearchResult{Type: domain.EntityConference, Fields: fields, Score: 0.9}
}

func journalResult(fields map[string]string) domain.SearchResult {
	return domain.SearchResult{Type: domain.EntityJournal, Fields: fields, Score: 0.8}
}

func TestCompose_Deterministic(t *testing.T) {
	confs := []domain.SearchResult{
		confResult(map[string]string{"name": "ICML", "location": "Vienna"}),
	}
	journals := []domain.SearchResult{
		journalResult(map[string]string{"title": "JMLR", "publisher": "MIT Press"}),
	}

	a := Compose("where to publish?", confs, journals)
	b := Compose("where to publish?", confs, journals)
	if a != b {
		t.Error("compose must be a pure function of its inputs")
	}
}

func TestCompose_MissingFieldsGetPlaceholder(t *testing.T) {
	confs := []domain.SearchResult{
		confResult(map[string]string{"name": "ICML"}), // no location, deadline, ...
	}

	prompt := Compose("q", confs, nil)
	if !strings.Contains(prompt, "Location: "+notAvailable) {
		t.Errorf("missing field must render placeholder, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Name: ICML") {
		t.Errorf("present field must render its value, got:\n%s", prompt)
	}
}

func TestCompose_EmptyCategorySentinel(t *testing.T) {
	prompt := Compose("q", nil, nil)

	if strings.Count(prompt, emptyCategory) != 2 {
		t.Errorf("both empty categories must carry the sentinel, got:\n%s", prompt)
	}
}

func TestCompose_CapsAtTenEntries(t *testing.T) {
	var confs []domain.SearchResult
	for i := 0; i < 15; i++ {
		confs = append(confs, confResult(map[string]string{"name": "conf"}))
	}

	prompt := Compose("q", confs, nil)
	if strings.Contains(prompt, "11.") {
		t.Errorf("prompt must cap at %d entries:\n%s", maxPromptEntries, prompt)
	}
	if !strings.Contains(prompt, "10.") {
		t.Errorf("prompt must include the tenth entry:\n%s", prompt)
	}
}

func TestCompose_QuestionLastWithLanguageInstruction(t *testing.T) {
	prompt := Compose("¿Dónde publicar?", nil, nil)

	qIdx := strings.Index(prompt, "Question: ¿Dónde publicar?")
	if qIdx == -1 {
		t.Fatalf("question missing from prompt:\n%s", prompt)
	}
	tail := prompt[qIdx:]
	if !strings.Contains(tail, "same language as the question") {
		t.Errorf("language instruction must follow the question:\n%s", tail)
	}
	if strings.Contains(prompt[:qIdx], "¿Dónde publicar?") {
		t.Error("question must appear only at the end")
	}
}
