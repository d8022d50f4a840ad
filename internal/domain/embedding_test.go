package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type stubEmbedder struct {
	err   error
	calls []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.calls = append(s.calls, text)
	if s.err != nil {
		return EmbeddingResult{}, s.err
	}
	// Deterministic per-text vector so batch/single equivalence is observable.
	return EmbeddingResult{
		Embedding:    []float32{float32(len(text)), float32(len(text)) * 2},
		TotalTokens:  len(text),
		PromptTokens: len(text),
	}, nil
}

func TestBatchFallback_MatchesSingleEmbeds(t *testing.T) {
	texts := []string{"a", "bb", "ccc"}

	single := &stubEmbedder{}
	var want [][]float32
	for _, text := range texts {
		res, err := single.Embed(context.Background(), text)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want = append(want, res.Embedding)
	}

	batched := &stubEmbedder{}
	got, err := BatchFallback(context.Background(), batched, texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got.Embeddings) != len(want) {
		t.Fatalf("expected %d embeddings, got %d", len(want), len(got.Embeddings))
	}
	for i := range want {
		if fmt.Sprint(got.Embeddings[i]) != fmt.Sprint(want[i]) {
			t.Errorf("embedding [%d] mismatch: got %v, want %v", i, got.Embeddings[i], want[i])
		}
	}
	if got.TotalTokens != 6 {
		t.Errorf("expected aggregate 6 tokens, got %d", got.TotalTokens)
	}
}

func TestBatchFallback_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	emb := &stubEmbedder{err: innerErr}

	_, err := BatchFallback(context.Background(), emb, []string{"x"})
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}
