package gateway

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The gateway fronts local UIs and trusted reverse proxies.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsQuestion is one inbound chat frame.
type wsQuestion struct {
	Question string `json:"question"`
	AgentID  string `json:"agent_id,omitempty"`
}

// handleWSChat handles GET /ws/chat: a persistent chat loop. Each connection
// gets its own session, so history accumulates across frames without the
// client tracking a session ID.
func (g *Gateway) handleWSChat(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Tie the connection to the gateway lifecycle, not the upgrade request.
	ctx := g.ctx
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	sessionID := "ws-" + uuid.NewString()
	for {
		var q wsQuestion
		if err := conn.ReadJSON(&q); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[Gateway] WebSocket read: %v", err)
			}
			return
		}
		if q.Question == "" {
			g.sendWSError(conn, "question is required")
			continue
		}

		resp, err := g.answer(ctx, q.AgentID, q.Question, sessionID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			g.sendWSError(conn, err.Error())
			continue
		}
		if err := conn.WriteJSON(resp); err != nil {
			log.Printf("[Gateway] WebSocket write: %v", err)
			return
		}
	}
}

func (g *Gateway) sendWSError(conn *websocket.Conn, message string) {
	if err := conn.WriteJSON(map[string]string{"error": message}); err != nil {
		log.Printf("[Gateway] WebSocket write: %v", err)
	}
}
