package domain

import "context"

// CompletionProvider turns a prompt into an answer. An attempt either
// returns a full answer or fails; partial answers are never surfaced.
type CompletionProvider interface {
	// Name identifies the vendor for logging and response attribution.
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Answer is a generated response together with the provider that actually
// produced it (which may differ from the first configured provider when a
// fallback occurred).
type Answer struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
}
