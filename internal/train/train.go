// Package train feeds extracted text into the right vector-store namespace
// and keeps agent metadata in step with what was learned.
package train

import (
	"context"
	"fmt"
	"strings"

	"github.com/mohamedaaris/agentx/internal/agents"
	"github.com/mohamedaaris/agentx/internal/extract"
	"github.com/mohamedaaris/agentx/internal/registry"
)

// Service wires extraction, namespace selection, and metadata updates.
type Service struct {
	registry  *registry.Registry
	agents    *agents.Manager
	extractor *extract.URLExtractor
}

// New creates a training service.
func New(reg *registry.Registry, mgr *agents.Manager, extractor *extract.URLExtractor) *Service {
	return &Service{registry: reg, agents: mgr, extractor: extractor}
}

// FromText trains the namespace with raw text. label names the origin
// (e.g. "upload:notes.pdf" or "text:inline"); it becomes the chunks'
// source metadata. An empty agentID trains the global namespace.
func (s *Service) FromText(ctx context.Context, agentID, text, label string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("train: no content provided")
	}
	if label == "" {
		label = "text:inline"
	}

	st, err := s.registry.GetOrCreate(agentID)
	if err != nil {
		return err
	}
	meta := map[string]string{"source": label}
	if err := st.AddTexts(ctx, []string{text}, []map[string]string{meta}); err != nil {
		return err
	}

	if agentID != "" {
		srcType := "text"
		if strings.HasPrefix(label, "upload:") {
			srcType = "upload"
		}
		if err := s.agents.RecordTraining(agentID, agents.Source{Type: srcType, Ref: label}); err != nil {
			return err
		}
	}
	return nil
}

// FromURL extracts a page and trains the namespace with it, recording the
// URL as a refreshable source on the agent.
func (s *Service) FromURL(ctx context.Context, agentID, url string) error {
	if err := s.trainURL(ctx, agentID, url); err != nil {
		return err
	}
	if agentID != "" {
		if err := s.agents.RecordTraining(agentID, agents.Source{Type: "url", Ref: url}); err != nil {
			return err
		}
	}
	return nil
}

// RefreshURL re-extracts and re-trains an already-recorded URL source.
// The store is append-only, so refreshed content accumulates alongside the
// original chunks.
func (s *Service) RefreshURL(ctx context.Context, agentID, url string) error {
	return s.trainURL(ctx, agentID, url)
}

func (s *Service) trainURL(ctx context.Context, agentID, url string) error {
	text, err := s.extractor.FromURL(ctx, url)
	if err != nil {
		return err
	}

	st, err := s.registry.GetOrCreate(agentID)
	if err != nil {
		return err
	}
	meta := map[string]string{"source": "url:" + url}
	return st.AddTexts(ctx, []string{text}, []map[string]string{meta})
}
