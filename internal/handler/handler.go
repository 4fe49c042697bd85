package handler

import (
	"github.com/gorilla/mux"

	"supportdesk/internal/config"
	"supportdesk/internal/hub"
	"supportdesk/internal/service"
)

// Handler holds application dependencies
type Handler struct {
	Service *service.Service
	Hub     *hub.Hub
	Config  config.Config
}

// New creates a new Handler with the given dependencies
func New(svc *service.Service, h *hub.Hub, cfg config.Config) *Handler {
	return &Handler{
		Service: svc,
		Hub:     h,
		Config:  cfg,
	}
}

// SetupRouter configures and returns the HTTP router
func (h *Handler) SetupRouter() *mux.Router {
	r := mux.NewRouter()

	// REST API
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/send_message", h.SendMessage).Methods("POST")
	r.HandleFunc("/api/messages", h.GetMessages).Methods("GET")
	r.HandleFunc("/canned_messages", h.GetCannedMessages).Methods("GET")
	r.HandleFunc("/import_csv", h.ImportCSV).Methods("POST")

	// WebSocket
	r.HandleFunc("/ws", h.HandleWebSocket).Methods("GET")

	return r
}
