package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

const (
	snapshotFile = "snapshot.json"

	// snapshotVersion is recorded in every snapshot so future layout
	// changes can be migrated instead of guessed at.
	snapshotVersion = 1
)

// snapshot is the persisted form of the store: one record with three
// equal-length ordered sequences.
type snapshot struct {
	Version    int                 `json:"version"`
	Documents  []string            `json:"documents"`
	Embeddings [][]float32         `json:"embeddings"`
	Metadatas  []map[string]string `json:"metadatas"`
}

// SnapshotExists reports whether dir holds a persisted snapshot.
func SnapshotExists(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, snapshotFile))
	return err == nil && !info.IsDir()
}

// persistLocked writes the snapshot atomically (temp file + rename).
// Callers must hold the write lock.
func (s *Store) persistLocked() error {
	snap := snapshot{
		Version:    snapshotVersion,
		Documents:  s.documents,
		Embeddings: s.embeddings,
		Metadatas:  s.metadatas,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: marshal snapshot: %w", err)
	}

	path := filepath.Join(s.dir, snapshotFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store: replace snapshot: %w", err)
	}
	return nil
}

// loadSnapshot restores the parallel sequences from disk. Missing data
// means a fresh store; unreadable or inconsistent data is logged and
// treated as empty rather than failing startup.
func (s *Store) loadSnapshot() {
	path := filepath.Join(s.dir, snapshotFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		log.Printf("store: reading snapshot %s: %v (starting empty)", path, err)
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("store: snapshot %s is corrupt: %v (starting empty)", path, err)
		return
	}
	if snap.Version != snapshotVersion {
		log.Printf("store: snapshot %s has unknown version %d (starting empty)", path, snap.Version)
		return
	}
	if len(snap.Documents) != len(snap.Embeddings) || len(snap.Documents) != len(snap.Metadatas) {
		log.Printf("store: snapshot %s has mismatched sequence lengths (starting empty)", path)
		return
	}

	s.documents = snap.Documents
	s.embeddings = snap.Embeddings
	s.metadatas = snap.Metadatas
	for i := range s.metadatas {
		if s.metadatas[i] == nil {
			s.metadatas[i] = map[string]string{}
		}
	}
	if len(s.embeddings) > 0 {
		s.dims = len(s.embeddings[0])
	}
}
