package gateway

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/mohamedaaris/agentx/internal/rag"
)

type chatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Answer    string              `json:"answer"`
	Sources   []map[string]string `json:"sources"`
	Emotion   string              `json:"emotion,omitempty"`
	SessionID string              `json:"session_id"`
}

// handleAsk handles POST /api/ask: a question against the shared global
// knowledge base.
func (g *Gateway) handleAsk(w http.ResponseWriter, r *http.Request) {
	g.answerHTTP(w, r, "")
}

// handleAgentChat handles POST /api/agents/{id}/chat: a question against one
// agent's namespace.
func (g *Gateway) handleAgentChat(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := g.agents.Get(id); err != nil {
		writeJSONError(w, statusForError(err), err.Error())
		return
	}
	g.answerHTTP(w, r, id)
}

func (g *Gateway) answerHTTP(w http.ResponseWriter, r *http.Request, agentID string) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Question == "" {
		writeJSONError(w, http.StatusBadRequest, "question is required")
		return
	}

	resp, err := g.answer(r.Context(), agentID, req.Question, req.SessionID)
	if err != nil {
		writeJSONError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// answer runs one exchange: load session history, compose the answer, then
// record the exchange back to the session. A blank sessionID starts a fresh
// session.
func (g *Gateway) answer(ctx context.Context, agentID, question, sessionID string) (*chatResponse, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	stored, err := g.sessions.History(ctx, sessionID, g.config.Vector.HistoryTurns)
	if err != nil {
		return nil, err
	}
	history := make([]rag.Turn, len(stored))
	for i, t := range stored {
		history[i] = rag.Turn{User: t.Question, Assistant: t.Answer}
	}

	ans, err := g.composer.Answer(ctx, rag.Request{
		Question: question,
		AgentID:  agentID,
		History:  history,
	})
	if err != nil {
		return nil, err
	}

	if err := g.sessions.Append(ctx, sessionID, question, ans.Text); err != nil {
		// The answer is already composed; a history write failure only
		// costs future context.
		log.Printf("[Gateway] Recording session %s: %v", sessionID, err)
	}

	emo := ""
	if ans.Emotion.Emotion != "neutral" {
		emo = ans.Emotion.Emotion
	}
	return &chatResponse{
		Answer:    ans.Text,
		Sources:   ans.Sources,
		Emotion:   emo,
		SessionID: sessionID,
	}, nil
}
