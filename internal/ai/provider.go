// Package ai defines the contract to the external answer-generation
// service. The service is a black box: it receives a finished prompt and
// returns text.
package ai

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the generation provider could not be reached or
// returned a malformed response.
var ErrUnavailable = errors.New("ai: generation provider unavailable")

// Provider generates text from a prompt.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}
