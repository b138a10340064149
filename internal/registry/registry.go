// Package registry maps a namespace key (an agent ID, or the empty string
// for the shared global namespace) to a dedicated vector store. Stores are
// created lazily, cached, and never shared between namespaces.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mohamedaaris/agentx/internal/chunker"
	"github.com/mohamedaaris/agentx/internal/embed"
	"github.com/mohamedaaris/agentx/internal/store"
)

// Registry hands out per-namespace store instances. Safe for concurrent
// use; two concurrent first-accesses to the same key get the same store.
type Registry struct {
	dir      string
	splitter *chunker.Splitter
	embedder embed.Embedder

	mu     sync.Mutex
	stores map[string]*store.Store
}

// New creates a registry rooted at dir. Global-namespace data lives under
// <dir>/global, per-agent data under <dir>/agents/<id>.
func New(dir string, splitter *chunker.Splitter, embedder embed.Embedder) *Registry {
	return &Registry{
		dir:      dir,
		splitter: splitter,
		embedder: embedder,
		stores:   make(map[string]*store.Store),
	}
}

// GetOrCreate returns the store for the given namespace key, creating it
// (or restoring its snapshot) on first access. Repeated calls with the
// same key return the same instance.
func (r *Registry) GetOrCreate(agentID string) (*store.Store, error) {
	if err := validateKey(agentID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[agentID]; ok {
		return s, nil
	}
	s, err := store.Open(r.storePath(agentID), r.splitter, r.embedder)
	if err != nil {
		return nil, err
	}
	r.stores[agentID] = s
	return s, nil
}

// Exists reports whether the namespace holds any knowledge: either a live
// store with content or a persisted snapshot on disk.
func (r *Registry) Exists(agentID string) bool {
	if validateKey(agentID) != nil {
		return false
	}

	r.mu.Lock()
	s, ok := r.stores[agentID]
	r.mu.Unlock()

	if ok && s.Len() > 0 {
		return true
	}
	return store.SnapshotExists(r.storePath(agentID))
}

// Delete drops the in-memory handle and removes the persisted snapshot.
// The next GetOrCreate with the same key starts a fresh, empty store.
func (r *Registry) Delete(agentID string) error {
	if err := validateKey(agentID); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.stores, agentID)
	r.mu.Unlock()

	if err := os.RemoveAll(r.storePath(agentID)); err != nil {
		return fmt.Errorf("registry: remove namespace %q: %w", agentID, err)
	}
	return nil
}

func (r *Registry) storePath(agentID string) string {
	if agentID == "" {
		return filepath.Join(r.dir, "global")
	}
	return filepath.Join(r.dir, "agents", agentID)
}

// validateKey rejects keys that would escape the registry directory.
func validateKey(agentID string) error {
	if agentID == "" {
		return nil
	}
	if strings.ContainsAny(agentID, `/\`) || agentID == "." || agentID == ".." {
		return fmt.Errorf("registry: invalid namespace key %q", agentID)
	}
	return nil
}
