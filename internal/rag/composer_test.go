package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedaaris/agentx/internal/ai"
	"github.com/mohamedaaris/agentx/internal/chunker"
	"github.com/mohamedaaris/agentx/internal/emotion"
	"github.com/mohamedaaris/agentx/internal/registry"
)

// wordEmbedder gives texts containing "cats" and "dogs" orthogonal
// vectors so retrieval order is predictable.
type wordEmbedder struct{}

func (wordEmbedder) embed(text string) []float32 {
	v := []float32{0, 0, 1}
	if strings.Contains(text, "cats") {
		v = []float32{1, 0, 0}
	} else if strings.Contains(text, "dogs") {
		v = []float32{0, 1, 0}
	}
	return v
}

func (e wordEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e wordEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func (wordEmbedder) Name() string { return "word" }

// recordingProvider captures the prompt it was handed.
type recordingProvider struct {
	lastPrompt string
	reply      string
	err        error
}

func (p *recordingProvider) Generate(_ context.Context, prompt string) (string, error) {
	p.lastPrompt = prompt
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func (p *recordingProvider) Name() string { return "recording" }

func newTestComposer(t *testing.T) (*Composer, *registry.Registry, *recordingProvider) {
	t.Helper()
	reg := registry.New(t.TempDir(), chunker.New(1200, 200), wordEmbedder{})
	provider := &recordingProvider{reply: "the answer"}
	c := New(reg, provider, emotion.NewDetector())
	return c, reg, provider
}

func TestAnswer_GlobalNamespace(t *testing.T) {
	c, reg, provider := newTestComposer(t)
	ctx := context.Background()

	global, err := reg.GetOrCreate("")
	require.NoError(t, err)
	require.NoError(t, global.AddTexts(ctx, []string{"all about cats"}, []map[string]string{
		{"source": "upload:cats.txt"},
	}))

	answer, err := c.Answer(ctx, Request{Question: "tell me about cats"})
	require.NoError(t, err)

	assert.Equal(t, "the answer", answer.Text)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "upload:cats.txt", answer.Sources[0]["source"])
	assert.Contains(t, provider.lastPrompt, "all about cats")
	assert.Contains(t, provider.lastPrompt, "Question: tell me about cats")
}

func TestAnswer_UntrainedAgentRejected(t *testing.T) {
	c, _, _ := newTestComposer(t)

	_, err := c.Answer(context.Background(), Request{
		Question: "anything",
		AgentID:  "agent-1",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotTrained))
}

func TestAnswer_TrainedAgentUsesOwnNamespace(t *testing.T) {
	c, reg, provider := newTestComposer(t)
	ctx := context.Background()

	st, err := reg.GetOrCreate("agent-1")
	require.NoError(t, err)
	require.NoError(t, st.AddTexts(ctx, []string{"facts about dogs"}, []map[string]string{
		{"source": "url:https://example.com/dogs"},
	}))

	answer, err := c.Answer(ctx, Request{Question: "what about dogs?", AgentID: "agent-1"})
	require.NoError(t, err)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "url:https://example.com/dogs", answer.Sources[0]["source"])
	assert.Contains(t, provider.lastPrompt, "facts about dogs")
}

func TestAnswer_SourcesInRankedOrder(t *testing.T) {
	c, reg, _ := newTestComposer(t)
	ctx := context.Background()

	global, err := reg.GetOrCreate("")
	require.NoError(t, err)
	require.NoError(t, global.AddTexts(ctx,
		[]string{"dogs bark", "cats purr"},
		[]map[string]string{{"id": "dogs"}, {"id": "cats"}},
	))

	answer, err := c.Answer(ctx, Request{Question: "about cats"})
	require.NoError(t, err)
	require.Len(t, answer.Sources, 2)
	assert.Equal(t, "cats", answer.Sources[0]["id"])
	assert.Equal(t, "dogs", answer.Sources[1]["id"])
}

func TestAnswer_HistoryBounded(t *testing.T) {
	c, _, provider := newTestComposer(t)

	var history []Turn
	for i := 0; i < 12; i++ {
		history = append(history, Turn{
			User:      fmt.Sprintf("question %d", i),
			Assistant: fmt.Sprintf("answer %d", i),
		})
	}

	_, err := c.Answer(context.Background(), Request{Question: "next", History: history})
	require.NoError(t, err)

	// Only the last 8 turns survive.
	assert.Equal(t, 8, strings.Count(provider.lastPrompt, "User: question"))
	assert.NotContains(t, provider.lastPrompt, "question 3")
	assert.Contains(t, provider.lastPrompt, "question 4")
	assert.Contains(t, provider.lastPrompt, "question 11")
}

func TestAnswer_AffectDirectivePrepended(t *testing.T) {
	c, _, provider := newTestComposer(t)

	answer, err := c.Answer(context.Background(), Request{
		Question: "I'm really frustrated, why is this broken?",
	})
	require.NoError(t, err)

	assert.Equal(t, "angry", answer.Emotion.Emotion)
	assert.True(t, strings.HasPrefix(provider.lastPrompt, "User appears angry"),
		"directive should lead the prompt, got: %.80s", provider.lastPrompt)
}

func TestAnswer_GenerationFailureIsTyped(t *testing.T) {
	c, _, provider := newTestComposer(t)
	provider.err = ai.ErrUnavailable

	_, err := c.Answer(context.Background(), Request{Question: "anything"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ai.ErrUnavailable))
}
