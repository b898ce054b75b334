package api

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

// Hub fans published results out to websocket subscribers. It implements
// the engine's publisher hook.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]*subscriber
}

type subscriber struct {
	id   string
	conn *websocket.Conn
	send chan *domain.Result
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]*subscriber)}
}

// Publish delivers the result to every subscriber. Slow consumers drop the
// update instead of blocking the pipeline.
func (h *Hub) Publish(res *domain.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		select {
		case s.send <- res:
		default:
			log.Warn().
				Str("component", "hub").
				Str("subscriber", s.id).
				Msg("subscriber lagging, result dropped")
		}
	}
}

// Add registers a connection and starts its write pump.
func (h *Hub) Add(conn *websocket.Conn) string {
	s := &subscriber{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan *domain.Result, 8),
	}
	h.mu.Lock()
	h.subs[s.id] = s
	h.mu.Unlock()

	go h.writePump(s)
	log.Debug().Str("component", "hub").Str("subscriber", s.id).Msg("subscriber added")
	return s.id
}

// Remove drops a subscriber and closes its connection.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	s, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	h.mu.Unlock()
	if ok {
		close(s.send)
		s.conn.Close()
	}
}

// Count returns the current subscriber count.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) writePump(s *subscriber) {
	for res := range s.send {
		if err := s.conn.WriteJSON(res); err != nil {
			log.Debug().
				Str("component", "hub").
				Str("subscriber", s.id).
				Err(err).
				Msg("write failed, dropping subscriber")
			h.Remove(s.id)
			return
		}
	}
}
