package gateway

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/mohamedaaris/agentx/internal/agents"
)

// handleCreateAgent handles POST /api/agents
// Request: {"name": "Support Bot", "greeting": "...", "description": "..."}
func (g *Gateway) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Greeting    string `json:"greeting"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	a, err := g.agents.Create(req.Name, req.Greeting, req.Description)
	if err != nil {
		writeJSONError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (g *Gateway) handleListAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"agents": g.agents.List()})
}

func (g *Gateway) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	a, err := g.agents.Get(r.PathValue("id"))
	if err != nil {
		writeJSONError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (g *Gateway) handleUpdateAgent(w http.ResponseWriter, r *http.Request) {
	var upd agents.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	a, err := g.agents.Update(r.PathValue("id"), upd)
	if err != nil {
		writeJSONError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleDeleteAgent removes the agent record and its vector-store namespace.
func (g *Gateway) handleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := g.agents.Delete(id); err != nil {
		writeJSONError(w, statusForError(err), err.Error())
		return
	}
	if err := g.registry.Delete(id); err != nil {
		// Record is already gone; log the orphaned namespace and move on.
		log.Printf("[Gateway] Deleting namespace for agent %s: %v", id, err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}
