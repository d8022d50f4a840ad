package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/venueqa/venueqa/internal/domain"
)

func newTestFetcher(conferenceURL, journalURL string) *Fetcher {
	return New(&Config{
		ConferenceURL: conferenceURL,
		JournalURL:    journalURL,
		Logger:        zap.NewNop(),
	})
}

func TestFetch_DecodesFlatRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("missing Accept header")
		}
		w.Write([]byte(`[
			{"name": "ICML", "acronym": "icml", "topics": ["ml", "ai"], "rank": 1},
			{"name": "NeurIPS", "acronym": "neurips"}
		]`))
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL, "")

	records, err := f.Fetch(context.Background(), domain.EntityConference)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Fields["topics"] != "ml, ai" {
		t.Errorf("array field must join with comma, got %q", records[0].Fields["topics"])
	}
	if records[0].Fields["rank"] != "1" {
		t.Errorf("numeric field must stringify, got %q", records[0].Fields["rank"])
	}
	if records[0].Type != domain.EntityConference {
		t.Errorf("record type: got %s", records[0].Type)
	}
	if records[0].CreatedAt == 0 {
		t.Error("fetch must stamp CreatedAt")
	}
}

func TestFetch_Non200Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL, "")

	if _, err := f.Fetch(context.Background(), domain.EntityConference); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestFetch_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "an array"}`))
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL, "")

	if _, err := f.Fetch(context.Background(), domain.EntityConference); err == nil {
		t.Fatal("expected error for malformed body")
	}
}

func TestFetch_MissingURL(t *testing.T) {
	f := newTestFetcher("http://example.com", "")

	_, err := f.Fetch(context.Background(), domain.EntityJournal)
	if err == nil {
		t.Fatal("expected error for missing journal url")
	}
}
