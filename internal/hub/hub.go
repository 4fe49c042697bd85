// Package hub fans newly stored messages out to connected viewer
// sessions. Delivery is best-effort, at-most-once per currently
// connected session: a viewer connecting after publish catches up
// through the read endpoint, never through the hub.
package hub

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"supportdesk/internal/model"
)

const (
	// sendBuffer is the per-session delivery queue. A viewer that falls
	// this far behind is disconnected instead of slowing anyone else down.
	sendBuffer = 32

	// writeWait bounds a single write so a stalled TCP connection
	// eventually surfaces as a write error.
	writeWait = 10 * time.Second
)

// Conn is the write side of one viewer connection.
// *websocket.Conn satisfies it.
type Conn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Session is one live viewer connection eligible to receive broadcasts.
// Each session drains its own queue, so one slow viewer never delays
// delivery to the others.
type Session struct {
	ID   string
	conn Conn
	send chan model.NewMessageEvent
}

// NewSession wraps conn with a fresh session id and delivery queue.
func NewSession(conn Conn) *Session {
	return &Session{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan model.NewMessageEvent, sendBuffer),
	}
}

// Hub holds the set of connected viewer sessions and the broadcast queue.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*Session]bool
	// バッファ化して送信側（intakeパイプライン）のブロッキングを回避
	events chan model.NewMessageEvent
	// セッションのsendチャネルをクローズするのはRunループだけ。
	// 購読解除はこのチャネル経由でRunに依頼する
	unregister chan *Session
}

// New creates an empty hub. Call Run in a goroutine to start delivery.
func New() *Hub {
	return &Hub{
		sessions:   make(map[*Session]bool),
		events:     make(chan model.NewMessageEvent, 100),
		unregister: make(chan *Session, 100),
	}
}

// Subscribe registers a viewer session and starts its write pump.
func (h *Hub) Subscribe(s *Session) {
	h.mu.Lock()
	h.sessions[s] = true
	h.mu.Unlock()
	go h.writePump(s)
}

// Unsubscribe removes a viewer session. Safe to call more than once.
func (h *Hub) Unsubscribe(s *Session) {
	h.unregister <- s
}

// Count returns the number of connected viewer sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Publish enqueues msg for delivery to all currently connected sessions.
func (h *Hub) Publish(msg model.Message) {
	h.events <- model.NewMessageEvent{Type: model.EventNewMessage, Message: msg}
}

// Run routes queued events into each session's delivery queue. Enqueue
// is non-blocking: a session whose queue is full is dropped, so neither
// a stalled viewer nor a full queue can block the other sessions or the
// intake pipeline.
func (h *Hub) Run() {
	for {
		select {
		case s := <-h.unregister:
			h.drop(s)

		case event, ok := <-h.events:
			if !ok {
				// シャットダウン: 全セッションを解放してポンプを止める
				h.mu.Lock()
				for s := range h.sessions {
					delete(h.sessions, s)
					close(s.send)
				}
				h.mu.Unlock()
				return
			}

			// sessions マップをスナップショットしてからロックを外すことで、
			// range 中に delete して "concurrent map iteration and map write"
			// が発生するのを防ぐ
			h.mu.RLock()
			snapshot := make([]*Session, 0, len(h.sessions))
			for s := range h.sessions {
				snapshot = append(snapshot, s)
			}
			h.mu.RUnlock()

			for _, s := range snapshot {
				select {
				case s.send <- event:
				default:
					// キューが溢れたビューアは追いつけないので切断する
					h.drop(s)
					log.Printf("[WebSocket] Dropped slow session: %s", s.ID)
				}
			}
		}
	}
}

// drop removes a session and closes its queue exactly once. Only the
// Run goroutine calls it, so a close can never race an enqueue.
func (h *Hub) drop(s *Session) {
	h.mu.Lock()
	registered := h.sessions[s]
	delete(h.sessions, s)
	h.mu.Unlock()

	if registered {
		close(s.send)
	}
}

// writePump delivers one session's queued events in order. A write
// failure (including a writeWait timeout on a stalled connection)
// unsubscribes the session; the pump exits when the queue is closed.
func (h *Hub) writePump(s *Session) {
	defer s.conn.Close()

	for event := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteJSON(event); err != nil {
			h.Unsubscribe(s)
			log.Printf("[WebSocket] Dropped unreachable session: %s", s.ID)
			return
		}
	}
}

// Close stops the delivery loop once the queue drains.
func (h *Hub) Close() {
	close(h.events)
}
