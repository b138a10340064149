// Package gateway exposes the engine over HTTP: agent management, training,
// question answering, and a WebSocket chat loop.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/mohamedaaris/agentx/internal/agents"
	"github.com/mohamedaaris/agentx/internal/ai"
	"github.com/mohamedaaris/agentx/internal/config"
	"github.com/mohamedaaris/agentx/internal/embed"
	"github.com/mohamedaaris/agentx/internal/rag"
	"github.com/mohamedaaris/agentx/internal/registry"
	"github.com/mohamedaaris/agentx/internal/sessions"
	"github.com/mohamedaaris/agentx/internal/train"
	"github.com/mohamedaaris/agentx/internal/version"
)

// Gateway serves the HTTP and WebSocket API over the engine components.
type Gateway struct {
	config   *config.Config
	agents   *agents.Manager
	registry *registry.Registry
	composer *rag.Composer
	trainer  *train.Service
	sessions *sessions.Store

	// Lifecycle context for WebSocket handlers. Request contexts die when
	// the upgrade handler returns, so the chat loop hangs off this instead.
	ctx context.Context
}

// New assembles a gateway over already-constructed components.
func New(cfg *config.Config, mgr *agents.Manager, reg *registry.Registry, composer *rag.Composer, trainer *train.Service, sess *sessions.Store) *Gateway {
	return &Gateway{
		config:   cfg,
		agents:   mgr,
		registry: reg,
		composer: composer,
		trainer:  trainer,
		sessions: sess,
		ctx:      context.Background(),
	}
}

// Handler builds the route table. Exposed separately from Start so tests can
// drive it through httptest.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", g.handleHealth)

	mux.HandleFunc("POST /api/agents", g.handleCreateAgent)
	mux.HandleFunc("GET /api/agents", g.handleListAgents)
	mux.HandleFunc("GET /api/agents/{id}", g.handleGetAgent)
	mux.HandleFunc("PUT /api/agents/{id}", g.handleUpdateAgent)
	mux.HandleFunc("DELETE /api/agents/{id}", g.handleDeleteAgent)

	mux.HandleFunc("POST /api/ask", g.handleAsk)
	mux.HandleFunc("POST /api/agents/{id}/chat", g.handleAgentChat)

	mux.HandleFunc("POST /api/train", g.handleTrainText)
	mux.HandleFunc("POST /api/train/url", g.handleTrainURL)

	mux.HandleFunc("GET /api/sessions/{id}/history", g.handleSessionHistory)
	mux.HandleFunc("POST /api/sessions/{id}/clear", g.handleSessionClear)

	mux.HandleFunc("GET /ws/chat", g.handleWSChat)

	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (g *Gateway) Start(ctx context.Context) error {
	g.ctx = ctx

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", g.config.Port),
		Handler: g.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Gateway] Listening on %s", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("gateway: shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("gateway: serve: %w", err)
	}
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Info(),
		"agents":  len(g.agents.List()),
	})
}

// statusForError maps component errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, agents.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, rag.ErrNotTrained):
		return http.StatusConflict
	case errors.Is(err, embed.ErrUnavailable), errors.Is(err, ai.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
