package gateway

import (
	"net/http"
	"strconv"
)

// sessionHistoryLimit bounds how many turns a history request returns when
// the client does not ask for a specific window.
const sessionHistoryLimit = 50

// handleSessionHistory handles GET /api/sessions/{id}/history
// Response: {"session_id": "...", "turns": [{"question": ..., "answer": ...}]}
// An optional ?limit=n narrows the window; turns come back oldest first.
func (g *Gateway) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	limit := sessionHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	turns, err := g.sessions.History(r.Context(), id, limit)
	if err != nil {
		writeJSONError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"turns":      turns,
	})
}

// handleSessionClear handles POST /api/sessions/{id}/clear, dropping the
// session's stored turns. Unknown sessions clear to the same end state, so
// the operation is idempotent.
func (g *Gateway) handleSessionClear(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := g.sessions.Clear(r.Context(), id); err != nil {
		writeJSONError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared", "session_id": id})
}
