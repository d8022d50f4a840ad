package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func chatServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func TestChatProvider_Complete(t *testing.T) {
	server := chatServer(t, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "ICML fits."}, "finish_reason": "stop"}]
	}`)
	defer server.Close()

	p := NewChatProvider(&ChatConfig{
		Name:    "test",
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	text, err := p.Complete(context.Background(), "where to publish?")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "ICML fits." {
		t.Errorf("unexpected completion %q", text)
	}
	if p.Name() != "test" {
		t.Errorf("unexpected name %q", p.Name())
	}
}

func TestChatProvider_EmptyChoices(t *testing.T) {
	server := chatServer(t, `{"id": "chatcmpl-1", "object": "chat.completion", "choices": []}`)
	defer server.Close()

	p := NewChatProvider(&ChatConfig{
		Name:    "test",
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	if _, err := p.Complete(context.Background(), "q"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestChatProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := NewChatProvider(&ChatConfig{
		Name:    "test",
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	if _, err := p.Complete(context.Background(), "q"); err == nil {
		t.Fatal("expected error for API failure")
	}
}
