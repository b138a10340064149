package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedaaris/agentx/internal/chunker"
	"github.com/mohamedaaris/agentx/internal/embed"
)

// fakeEmbedder returns canned vectors per text and counts calls.
type fakeEmbedder struct {
	vectors    map[string][]float32
	queryVec   []float32
	err        error
	docCalls   int
	queryCalls int
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.docCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = []float32{1, 1}
		}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.queryCalls++
	if f.err != nil {
		return nil, f.err
	}
	if f.queryVec != nil {
		return f.queryVec, nil
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 1}, nil
}

func (f *fakeEmbedder) Name() string { return "fake" }

func newTestStore(t *testing.T, e embed.Embedder) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), chunker.New(1200, 200), e)
	require.NoError(t, err)
	return s
}

func TestAddTexts_ParityAndOrder(t *testing.T) {
	fake := &fakeEmbedder{vectors: map[string][]float32{}}
	s := newTestStore(t, fake)
	ctx := context.Background()

	err := s.AddTexts(ctx, []string{"a", "b"}, []map[string]string{
		{"source": "text:a"},
		{"source": "text:b"},
	})
	require.NoError(t, err)

	require.Equal(t, len(s.documents), len(s.embeddings))
	require.Equal(t, len(s.documents), len(s.metadatas))
	require.Equal(t, 2, s.Len())

	// Chunks from "a" precede chunks from "b".
	assert.Equal(t, "a", s.documents[0])
	assert.Equal(t, "b", s.documents[1])
	assert.Equal(t, "text:a", s.metadatas[0]["source"])
	assert.Equal(t, "text:b", s.metadatas[1]["source"])

	// Exactly one batched embedding call for the whole input set.
	assert.Equal(t, 1, fake.docCalls)
}

func TestAddTexts_EmbeddingFailureLeavesStoreUnchanged(t *testing.T) {
	fake := &fakeEmbedder{}
	s := newTestStore(t, fake)
	ctx := context.Background()

	require.NoError(t, s.AddTexts(ctx, []string{"keep"}, nil))
	require.Equal(t, 1, s.Len())

	fake.err = embed.ErrUnavailable
	err := s.AddTexts(ctx, []string{"lost"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, embed.ErrUnavailable))

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, len(s.documents), len(s.embeddings))
	assert.Equal(t, len(s.documents), len(s.metadatas))

	// The persisted snapshot was not rewritten either.
	reloaded, err := Open(s.Dir(), chunker.New(1200, 200), fake)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Len())
}

func TestAddTexts_ZeroChunksIsNoOp(t *testing.T) {
	fake := &fakeEmbedder{}
	s := newTestStore(t, fake)

	require.NoError(t, s.AddTexts(context.Background(), []string{"", "   "}, nil))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, fake.docCalls)
	assert.False(t, SnapshotExists(s.Dir()))
}

func TestAddTexts_DimensionMismatch(t *testing.T) {
	fake := &fakeEmbedder{vectors: map[string][]float32{
		"first":  {1, 0, 0},
		"second": {1, 0}, // wrong width
	}}
	s := newTestStore(t, fake)
	ctx := context.Background()

	require.NoError(t, s.AddTexts(ctx, []string{"first"}, nil))

	err := s.AddTexts(ctx, []string{"second"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
	assert.Equal(t, 1, s.Len())
}

func TestSimilaritySearch_QueryDimensionMismatch(t *testing.T) {
	fake := &fakeEmbedder{
		vectors:  map[string][]float32{"alpha": {0, 0, 1}},
		queryVec: []float32{1, 0}, // narrower than the store
	}
	s := newTestStore(t, fake)
	ctx := context.Background()

	require.NoError(t, s.AddTexts(ctx, []string{"alpha"}, nil))

	results, err := s.SimilaritySearch(ctx, "anything", 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
	assert.Nil(t, results)
}

func TestSimilaritySearch_Determinism(t *testing.T) {
	fake := &fakeEmbedder{
		vectors: map[string][]float32{
			"x": {1, 0},
			"y": {0, 1},
			"z": {1, 1},
		},
		queryVec: []float32{1, 0},
	}
	s := newTestStore(t, fake)
	ctx := context.Background()

	require.NoError(t, s.AddTexts(ctx, []string{"x", "y", "z"}, nil))

	results, err := s.SimilaritySearch(ctx, "query", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "x", results[0].Content)
	assert.Equal(t, "z", results[1].Content)
	assert.Equal(t, "y", results[2].Content)

	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-4)
	assert.InDelta(t, 1/math.Sqrt2, float64(results[1].Score), 1e-4)
	assert.InDelta(t, 0.0, float64(results[2].Score), 1e-4)
}

func TestSimilaritySearch_EmptyStoreShortCircuit(t *testing.T) {
	fake := &fakeEmbedder{}
	s := newTestStore(t, fake)

	results, err := s.SimilaritySearch(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, fake.queryCalls)
}

func TestSimilaritySearch_KSaturation(t *testing.T) {
	fake := &fakeEmbedder{}
	s := newTestStore(t, fake)
	ctx := context.Background()

	require.NoError(t, s.AddTexts(ctx, []string{"one", "two"}, nil))

	results, err := s.SimilaritySearch(ctx, "q", 5)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSimilaritySearch_ZeroMagnitudeScoresZero(t *testing.T) {
	fake := &fakeEmbedder{
		vectors:  map[string][]float32{"degenerate": {0, 0}},
		queryVec: []float32{1, 0},
	}
	s := newTestStore(t, fake)
	ctx := context.Background()

	require.NoError(t, s.AddTexts(ctx, []string{"degenerate"}, nil))

	results, err := s.SimilaritySearch(ctx, "q", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, float32(0), results[0].Score)
}

func TestSimilaritySearch_StableTieOrder(t *testing.T) {
	fake := &fakeEmbedder{
		vectors: map[string][]float32{
			"earlier": {1, 0},
			"later":   {2, 0}, // same direction, identical cosine
		},
		queryVec: []float32{1, 0},
	}
	s := newTestStore(t, fake)
	ctx := context.Background()

	require.NoError(t, s.AddTexts(ctx, []string{"earlier", "later"}, nil))

	results, err := s.SimilaritySearch(ctx, "q", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "earlier", results[0].Content)
	assert.Equal(t, "later", results[1].Content)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	fake := &fakeEmbedder{vectors: map[string][]float32{
		"alpha": {0.1, 0.2},
		"beta":  {0.3, 0.4},
	}}
	dir := t.TempDir()

	s, err := Open(dir, chunker.New(1200, 200), fake)
	require.NoError(t, err)
	require.NoError(t, s.AddTexts(context.Background(), []string{"alpha", "beta"}, []map[string]string{
		{"source": "url:https://example.com"},
		{"source": "upload:notes.txt"},
	}))

	reloaded, err := Open(dir, chunker.New(1200, 200), fake)
	require.NoError(t, err)

	require.Equal(t, s.documents, reloaded.documents)
	require.Equal(t, s.embeddings, reloaded.embeddings)
	require.Equal(t, s.metadatas, reloaded.metadatas)
	assert.Equal(t, 2, reloaded.dims)
}

func TestSnapshot_CorruptIsRecoverable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, snapshotFile), []byte("not json{"), 0o644))

	s, err := Open(dir, chunker.New(1200, 200), &fakeEmbedder{})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestSnapshot_UnknownVersionIsRecoverable(t *testing.T) {
	dir := t.TempDir()
	data := fmt.Sprintf(`{"version": %d, "documents": ["a"], "embeddings": [[1]], "metadatas": [{}]}`, snapshotVersion+1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, snapshotFile), []byte(data), 0o644))

	s, err := Open(dir, chunker.New(1200, 200), &fakeEmbedder{})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}
