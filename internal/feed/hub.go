package feed

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ircsession/internal/core"
)

// Hub fans session events out to subscribers. It is a core.Listener.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}
	log         *zerolog.Logger
}

// NewHub constructs a hub with no subscribers.
func NewHub(logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		subscribers: make(map[*Subscriber]struct{}),
		log:         logger,
	}
}

// Register adds a subscriber. Returns true if newly added.
func (h *Hub) Register(s *Subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.subscribers[s]; exists {
		return false
	}
	h.subscribers[s] = struct{}{}
	return true
}

// Unregister removes a subscriber. Returns true if removed.
func (h *Hub) Unregister(s *Subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.subscribers[s]; !exists {
		return false
	}
	delete(h.subscribers, s)
	return true
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// HandleEvent broadcasts ev without blocking the session.
func (h *Hub) HandleEvent(session *core.Session, ev core.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subscribers {
		if !s.Wants(session, ev) {
			continue
		}
		select {
		case s.Events <- ev:
		default:
			// Drop if slow consumer.
			h.log.Debug().Str("subscriber", s.ID).Str("event", ev.Kind.String()).Msg("feed subscriber lagging, event dropped")
		}
	}
	return nil
}
