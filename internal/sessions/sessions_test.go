package sessions

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "sid-1", "q1", "a1"))
	require.NoError(t, s.Append(ctx, "sid-1", "q2", "a2"))

	turns, err := s.History(ctx, "sid-1", 8)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "q1", turns[0].Question)
	assert.Equal(t, "q2", turns[1].Question)
}

func TestHistory_BoundedOldestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		require.NoError(t, s.Append(ctx, "sid-1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)))
	}

	turns, err := s.History(ctx, "sid-1", 8)
	require.NoError(t, err)
	require.Len(t, turns, 8)
	assert.Equal(t, "q4", turns[0].Question)
	assert.Equal(t, "q11", turns[7].Question)
}

func TestHistory_SessionsIsolated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "sid-1", "private", "answer"))

	turns, err := s.History(ctx, "sid-2", 8)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "sid-1", "q", "a"))
	require.NoError(t, s.Clear(ctx, "sid-1"))

	turns, err := s.History(ctx, "sid-1", 8)
	require.NoError(t, err)
	assert.Empty(t, turns)
}
