package handler

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"supportdesk/internal/hub"
)

// createUpgrader creates a WebSocket upgrader with the given allowed origins
func createUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowedMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		allowedMap[origin] = true
	}

	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowedMap[origin]
		},
	}
}

// HandleWebSocket handles GET /ws
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := createUpgrader(h.Config.AllowedOrigins)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	session := hub.NewSession(conn)
	h.Hub.Subscribe(session)
	log.Printf("🔗 Viewer connected: %s. Total sessions: %d", session.ID, h.Hub.Count())

	// クライアントからのメッセージを受信（キープアライブ用）
	for {
		var msg interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			h.Hub.Unsubscribe(session)
			log.Printf("❌ Viewer disconnected: %s. Total sessions: %d", session.ID, h.Hub.Count())
			break
		}
	}
}
