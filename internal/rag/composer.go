// Package rag composes a query-time answer: namespace selection, similarity
// retrieval, prompt assembly with bounded history and optional affect
// directive, and delegation to the generation provider.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mohamedaaris/agentx/internal/ai"
	"github.com/mohamedaaris/agentx/internal/emotion"
	"github.com/mohamedaaris/agentx/internal/registry"
	"github.com/mohamedaaris/agentx/internal/store"
)

// ErrNotTrained indicates a query against an agent namespace that holds no
// persisted knowledge yet. Distinct from an empty global namespace, which
// answers without context.
var ErrNotTrained = errors.New("rag: agent has not been trained yet")

const (
	// defaultTopK is how many chunks are retrieved per query.
	defaultTopK = 5
	// defaultHistoryTurns bounds how many past exchanges enter the prompt.
	defaultHistoryTurns = 8
)

// Turn is one past question/answer exchange supplied by the caller.
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// Request is a single query. AgentID selects the namespace; empty means
// the shared global namespace.
type Request struct {
	Question string
	AgentID  string
	History  []Turn
}

// Answer is the complete result of a query. Sources[i] is the metadata of
// the i-th retrieved chunk, in ranked order.
type Answer struct {
	Text    string              `json:"answer"`
	Sources []map[string]string `json:"sources"`
	Emotion emotion.Result      `json:"emotion"`
}

// Composer orchestrates retrieval-augmented answering. Stateless across
// queries beyond the history the caller supplies.
type Composer struct {
	registry     *registry.Registry
	provider     ai.Provider
	detector     *emotion.Detector
	topK         int
	historyTurns int
}

// Option adjusts composer parameters.
type Option func(*Composer)

// WithTopK overrides how many chunks are retrieved per query.
func WithTopK(k int) Option {
	return func(c *Composer) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithHistoryTurns overrides the history bound.
func WithHistoryTurns(n int) Option {
	return func(c *Composer) {
		if n > 0 {
			c.historyTurns = n
		}
	}
}

// New creates a Composer.
func New(reg *registry.Registry, provider ai.Provider, detector *emotion.Detector, opts ...Option) *Composer {
	c := &Composer{
		registry:     reg,
		provider:     provider,
		detector:     detector,
		topK:         defaultTopK,
		historyTurns: defaultHistoryTurns,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Answer runs the full query pipeline. It returns either a complete answer
// with ranked sources or a typed error; never a partial result.
func (c *Composer) Answer(ctx context.Context, req Request) (*Answer, error) {
	affect := c.detector.Detect(req.Question)

	// An agent namespace must already hold knowledge; the global
	// namespace may answer from an empty store.
	if req.AgentID != "" && !c.registry.Exists(req.AgentID) {
		return nil, fmt.Errorf("%w: agent %q", ErrNotTrained, req.AgentID)
	}
	st, err := c.registry.GetOrCreate(req.AgentID)
	if err != nil {
		return nil, err
	}

	results, err := st.SimilaritySearch(ctx, req.Question, c.topK)
	if err != nil {
		return nil, fmt.Errorf("rag: retrieve: %w", err)
	}

	prompt := buildPrompt(
		c.detector.PromptDirective(affect),
		contextBlock(results),
		formatHistory(req.History, c.historyTurns),
		req.Question,
	)

	text, err := c.provider.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("rag: generate: %w", err)
	}

	sources := make([]map[string]string, len(results))
	for i, r := range results {
		sources[i] = r.Metadata
	}
	return &Answer{Text: text, Sources: sources, Emotion: affect}, nil
}

// contextBlock concatenates retrieved chunk texts in ranked order.
func contextBlock(results []store.Result) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Content
	}
	return strings.Join(parts, "\n\n")
}
