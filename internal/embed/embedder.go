// Package embed defines the contract to external vector-embedding providers
// and ships HTTP clients for Ollama and OpenAI.
package embed

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the embedding provider could not be reached or
// returned a malformed response. It is never degraded to a placeholder
// vector; callers must fail the surrounding write or query.
var ErrUnavailable = errors.New("embed: provider unavailable")

// Embedder converts text to vectors. EmbedDocuments must return exactly one
// vector per input text, in input order.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Name identifies the provider and model, e.g. "ollama:llama3.2:3b".
	Name() string
}
