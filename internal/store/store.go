// Package store implements a persisted exact-similarity vector store: three
// parallel ordered sequences of chunk text, embedding, and metadata. Search
// is an exact linear cosine scan; this is a documented scaling limitation,
// not an oversight.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/mohamedaaris/agentx/internal/chunker"
	"github.com/mohamedaaris/agentx/internal/embed"
	"github.com/mohamedaaris/agentx/internal/mathutil"
)

// ErrDimensionMismatch indicates an embedding whose length disagrees with
// the store's established dimensionality. The write fails and the store is
// left unchanged.
var ErrDimensionMismatch = errors.New("store: embedding dimension mismatch")

// Result is one similarity-search hit, ranked by score descending.
type Result struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Score    float32           `json:"score"`
}

// Store holds the three parallel sequences. Invariant: documents,
// embeddings, and metadatas are equal in length at every observable point.
// Any number of searches may run concurrently; writes are exclusive.
type Store struct {
	dir      string
	splitter *chunker.Splitter
	embedder embed.Embedder

	mu         sync.RWMutex
	documents  []string
	embeddings [][]float32
	metadatas  []map[string]string
	dims       int
}

// Open creates a store rooted at dir, restoring a persisted snapshot when
// one exists. A missing or corrupt snapshot yields an empty store; it is
// logged as recoverable, never fatal.
func Open(dir string, splitter *chunker.Splitter, embedder embed.Embedder) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create directory %s: %w", dir, err)
	}
	s := &Store{
		dir:      dir,
		splitter: splitter,
		embedder: embedder,
	}
	s.loadSnapshot()
	return s, nil
}

// Dir returns the store's snapshot directory.
func (s *Store) Dir() string { return s.dir }

// Len returns the number of stored chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// AddTexts chunks every input text, embeds the whole accumulated chunk set
// in one batched call, and appends the results atomically. Each text's
// metadata is broadcast to all chunks derived from it. A failure anywhere
// leaves the store and its snapshot untouched; zero resulting chunks is a
// successful no-op.
func (s *Store) AddTexts(ctx context.Context, texts []string, metadatas []map[string]string) error {
	// Stage chunks and embeddings outside the write lock; embedding may
	// block on a network round-trip.
	var chunks []string
	var metas []map[string]string
	for i, text := range texts {
		var meta map[string]string
		if i < len(metadatas) {
			meta = metadatas[i]
		}
		for _, c := range s.splitter.Split(text) {
			chunks = append(chunks, c)
			metas = append(metas, cloneMeta(meta))
		}
	}
	if len(chunks) == 0 {
		return nil
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return fmt.Errorf("store: embed %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("store: got %d vectors for %d chunks: %w",
			len(vectors), len(chunks), embed.ErrUnavailable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dims := s.dims
	for _, v := range vectors {
		if dims == 0 {
			dims = len(v)
		} else if len(v) != dims {
			return fmt.Errorf("%w: got %d, store has %d", ErrDimensionMismatch, len(v), dims)
		}
	}

	prevLen := len(s.documents)
	prevDims := s.dims
	s.documents = append(s.documents, chunks...)
	s.embeddings = append(s.embeddings, vectors...)
	s.metadatas = append(s.metadatas, metas...)
	s.dims = dims

	if err := s.persistLocked(); err != nil {
		// Roll back so memory and snapshot stay in agreement.
		s.documents = s.documents[:prevLen]
		s.embeddings = s.embeddings[:prevLen]
		s.metadatas = s.metadatas[:prevLen]
		s.dims = prevDims
		return err
	}
	return nil
}

// SimilaritySearch embeds the query once and ranks every stored chunk by
// cosine similarity, descending, ties broken by insertion order. An empty
// store returns immediately without calling the embedding provider. At
// most k results are returned; fewer when the store holds fewer chunks.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int) ([]Result, error) {
	if k <= 0 {
		return nil, nil
	}

	// One read lock spans the emptiness check, the query embedding, and
	// the scan, so the scored snapshot is the one the ranking reflects.
	// Concurrent searches still share the lock.
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.documents) == 0 {
		return nil, nil
	}

	qvec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: embed query: %w", err)
	}
	if len(qvec) != s.dims {
		return nil, fmt.Errorf("%w: query has %d, store has %d", ErrDimensionMismatch, len(qvec), s.dims)
	}

	type scored struct {
		idx   int
		score float32
	}
	ranked := make([]scored, len(s.embeddings))
	for i, v := range s.embeddings {
		ranked[i] = scored{idx: i, score: mathutil.CosineSimilarity(qvec, v)}
	}
	// Stable: equal scores keep insertion order.
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	if k > len(ranked) {
		k = len(ranked)
	}
	results := make([]Result, k)
	for i := 0; i < k; i++ {
		r := ranked[i]
		results[i] = Result{
			Content:  s.documents[r.idx],
			Metadata: cloneMeta(s.metadatas[r.idx]),
			Score:    r.score,
		}
	}
	return results, nil
}

// Persist writes the current snapshot to disk.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

func cloneMeta(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
