package content

import (
	"testing"

	"github.com/venueqa/venueqa/internal/domain"
)

func TestVectorBytesRoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 3.14159, 0}
	out := bytesToVector(vectorToBytes(in))

	if len(out) != len(in) {
		t.Fatalf("expected %d floats, got %d", len(in), len(out))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("float [%d] mismatch: got %v, want %v", i, out[i], in[i])
		}
	}
}

func TestBytesToVector_Malformed(t *testing.T) {
	if v := bytesToVector("abc"); v != nil {
		t.Errorf("expected nil for truncated input, got %v", v)
	}
	if v := bytesToVector(""); v != nil {
		t.Errorf("expected nil for empty input, got %v", v)
	}
}

func TestHashFieldsRoundTrip(t *testing.T) {
	rec := domain.Record{
		Type: domain.EntityConference,
		Fields: map[string]string{
			"acronym":  "VLDB",
			"name":     "Very Large Data Bases",
			"location": "London",
		},
		Vector:    []float32{0.1, 0.2, 0.3},
		CreatedAt: 1756400000,
	}

	parsed := parseRecord(domain.EntityConference, buildHashFields(rec))

	if parsed.Fields["acronym"] != "VLDB" || parsed.Fields["location"] != "London" {
		t.Errorf("domain fields lost in round trip: %v", parsed.Fields)
	}
	if parsed.CreatedAt != rec.CreatedAt {
		t.Errorf("created_at mismatch: got %d, want %d", parsed.CreatedAt, rec.CreatedAt)
	}
	if len(parsed.Vector) != 3 {
		t.Fatalf("expected 3-element vector, got %d", len(parsed.Vector))
	}
	if !parsed.Indexed() {
		t.Error("parsed record with vector should be indexed")
	}
}

func TestBuildHashFields_NoVectorField(t *testing.T) {
	rec := domain.Record{
		Type:   domain.EntityJournal,
		Fields: map[string]string{"title": "TODS"},
	}

	m := buildHashFields(rec)
	if _, ok := m[fieldVector]; ok {
		t.Error("record without embedding must not persist a vector field")
	}
	if parseRecord(domain.EntityJournal, m).Indexed() {
		t.Error("round-tripped record must stay unindexed")
	}
}

func TestBuildHashFields_DropsReservedNames(t *testing.T) {
	rec := domain.Record{
		Type:   domain.EntityJournal,
		Fields: map[string]string{"title": "x", "__vector": "junk"},
	}

	m := buildHashFields(rec)
	if m[fieldVector] == "junk" {
		t.Error("reserved field name leaked from source data")
	}
}
