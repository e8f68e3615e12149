package feed

import (
	"github.com/vovakirdan/ircsession/internal/core"
	"github.com/vovakirdan/ircsession/internal/utils"
)

// Subscriber receives events from the hub. A subscriber with a channel
// filter only gets events for those channels plus connection lifecycle events.
type Subscriber struct {
	ID       string
	Events   chan core.Event
	channels []string
}

// NewSubscriber constructs a subscriber with a buffered event channel.
func NewSubscriber(buffer int, channels ...string) *Subscriber {
	if buffer <= 0 {
		buffer = 32
	}
	return &Subscriber{
		ID:       utils.NewID(),
		Events:   make(chan core.Event, buffer),
		channels: channels,
	}
}

// Wants reports whether the subscriber's filter accepts ev. Channel names
// are folded with the session's case mapping; without a session the
// RFC1459 rules apply.
func (s *Subscriber) Wants(session *core.Session, ev core.Event) bool {
	if len(s.channels) == 0 {
		return true
	}
	switch ev.Kind {
	case core.EventConnected, core.EventRegistered, core.EventDisconnected:
		return true
	}
	fold := core.CaseMappingRFC1459.Fold
	if session != nil {
		fold = session.Fold
	}
	if ev.Channel != "" {
		return s.matches(fold, ev.Channel)
	}
	for _, name := range ev.Channels {
		if s.matches(fold, name) {
			return true
		}
	}
	return false
}

func (s *Subscriber) matches(fold func(string) string, name string) bool {
	key := fold(name)
	for _, ch := range s.channels {
		if fold(ch) == key {
			return true
		}
	}
	return false
}
