package gateway

import (
	"encoding/json"
	"net/http"
	"strings"
)

// handleTrainText handles POST /api/train
// Request: {"text": "...", "source": "upload:notes.txt", "agent_id": "..."}
// An empty agent_id trains the shared global knowledge base.
func (g *Gateway) handleTrainText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text    string `json:"text"`
		Source  string `json:"source,omitempty"`
		AgentID string `json:"agent_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSONError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.AgentID != "" {
		if _, err := g.agents.Get(req.AgentID); err != nil {
			writeJSONError(w, statusForError(err), err.Error())
			return
		}
	}

	if err := g.trainer.FromText(r.Context(), req.AgentID, req.Text, req.Source); err != nil {
		writeJSONError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "trained"})
}

// handleTrainURL handles POST /api/train/url
// Request: {"url": "https://...", "agent_id": "..."}
func (g *Gateway) handleTrainURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL     string `json:"url"`
		AgentID string `json:"agent_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.URL == "" {
		writeJSONError(w, http.StatusBadRequest, "url is required")
		return
	}
	if req.AgentID != "" {
		if _, err := g.agents.Get(req.AgentID); err != nil {
			writeJSONError(w, statusForError(err), err.Error())
			return
		}
	}

	if err := g.trainer.FromURL(r.Context(), req.AgentID, req.URL); err != nil {
		writeJSONError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "trained", "url": req.URL})
}
