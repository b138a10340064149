// Package agents stores per-agent metadata (name, greeting, description,
// trained sources) as one JSON file per agent. Knowledge itself lives in
// the agent's vector-store namespace, keyed by the agent ID.
package agents

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates an unknown agent ID.
var ErrNotFound = errors.New("agents: agent not found")

// Knowledge base states.
const (
	StatusEmpty   = "empty"
	StatusTrained = "trained"
)

// Source records one training input, so scheduled refresh knows what to
// re-fetch.
type Source struct {
	Type      string    `json:"type"` // "url", "upload", "text"
	Ref       string    `json:"ref"`
	TrainedAt time.Time `json:"trained_at"`
}

// Agent is the stored metadata record.
type Agent struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Greeting        string    `json:"greeting"`
	Description     string    `json:"description"`
	Personality     string    `json:"personality"`
	Model           string    `json:"model"`
	KnowledgeStatus string    `json:"knowledge_status"`
	Sources         []Source  `json:"sources,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Update carries the mutable fields; empty strings leave a field unchanged.
type Update struct {
	Name        string `json:"name,omitempty"`
	Greeting    string `json:"greeting,omitempty"`
	Description string `json:"description,omitempty"`
	Personality string `json:"personality,omitempty"`
}

// Manager loads and persists agent records. Safe for concurrent use.
type Manager struct {
	dir string

	mu     sync.RWMutex
	agents map[string]*Agent
}

// NewManager loads all existing agent records from dir.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("agents: create directory %s: %w", dir, err)
	}
	m := &Manager{dir: dir, agents: make(map[string]*Agent)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("agents: read directory %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			log.Printf("agents: reading %s: %v (skipping)", e.Name(), err)
			continue
		}
		var a Agent
		if err := json.Unmarshal(data, &a); err != nil || a.ID == "" {
			log.Printf("agents: %s is not a valid agent record (skipping)", e.Name())
			continue
		}
		m.agents[a.ID] = &a
	}
	return m, nil
}

// Create makes a new agent. Empty fields get the stock defaults.
func (m *Manager) Create(name, greeting, description string) (*Agent, error) {
	if name == "" {
		name = "My Agent"
	}
	if greeting == "" {
		greeting = "Hello! I'm your AI assistant. How can I help you today?"
	}
	if description == "" {
		description = "A helpful AI assistant trained on your knowledge base."
	}

	now := time.Now().UTC()
	a := &Agent{
		ID:              uuid.NewString(),
		Name:            name,
		Greeting:        greeting,
		Description:     description,
		Personality:     "Helpful and professional",
		KnowledgeStatus: StatusEmpty,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.save(a); err != nil {
		return nil, err
	}
	m.agents[a.ID] = a
	return a.clone(), nil
}

// Get returns a copy of the agent record.
func (m *Manager) Get(id string) (*Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.agents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return a.clone(), nil
}

// List returns all agents, oldest first.
func (m *Manager) List() []*Agent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Agent, 0, len(m.agents))
	for _, a := range m.agents {
		out = append(out, a.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Update applies non-empty fields and persists the record.
func (m *Manager) Update(id string, upd Update) (*Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.agents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if upd.Name != "" {
		a.Name = upd.Name
	}
	if upd.Greeting != "" {
		a.Greeting = upd.Greeting
	}
	if upd.Description != "" {
		a.Description = upd.Description
	}
	if upd.Personality != "" {
		a.Personality = upd.Personality
	}
	a.UpdatedAt = time.Now().UTC()
	if err := m.save(a); err != nil {
		return nil, err
	}
	return a.clone(), nil
}

// RecordTraining appends a trained source and marks the knowledge base as
// trained.
func (m *Manager) RecordTraining(id string, src Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.agents[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if src.TrainedAt.IsZero() {
		src.TrainedAt = time.Now().UTC()
	}
	a.Sources = append(a.Sources, src)
	a.KnowledgeStatus = StatusTrained
	a.UpdatedAt = time.Now().UTC()
	return m.save(a)
}

// Delete removes the agent record and its file. Tearing down the agent's
// vector-store namespace is the caller's responsibility.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.agents[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(m.agents, id)
	if err := os.Remove(m.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("agents: remove %q: %w", id, err)
	}
	return nil
}

// save writes the record; callers must hold the write lock.
func (m *Manager) save(a *Agent) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("agents: marshal %q: %w", a.ID, err)
	}
	if err := os.WriteFile(m.path(a.ID), data, 0o644); err != nil {
		return fmt.Errorf("agents: write %q: %w", a.ID, err)
	}
	return nil
}

func (m *Manager) path(id string) string {
	return filepath.Join(m.dir, id+".json")
}

func (a *Agent) clone() *Agent {
	out := *a
	out.Sources = append([]Source(nil), a.Sources...)
	return &out
}
