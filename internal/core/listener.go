package core

import (
	"errors"
	"fmt"
)

// Listener receives every event a session emits, in order.
// Returning an error or panicking is reported as an ObserverFailure and
// does not affect the session.
type Listener interface {
	HandleEvent(s *Session, ev Event) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(s *Session, ev Event) error

// HandleEvent calls f.
func (f ListenerFunc) HandleEvent(s *Session, ev Event) error {
	return f(s, ev)
}

// Handlers is a Listener built from optional per-event callbacks.
// OnAny runs after the specific callback for every event.
type Handlers struct {
	OnConnected    func(s *Session, ev Event) error
	OnRegistered   func(s *Session, ev Event) error
	OnJoin         func(s *Session, ev Event) error
	OnPart         func(s *Session, ev Event) error
	OnNick         func(s *Session, ev Event) error
	OnQuit         func(s *Session, ev Event) error
	OnTopic        func(s *Session, ev Event) error
	OnNames        func(s *Session, ev Event) error
	OnMode         func(s *Session, ev Event) error
	OnMessage      func(s *Session, ev Event) error
	OnNotice       func(s *Session, ev Event) error
	OnDisconnected func(s *Session, ev Event) error
	OnRaw          func(s *Session, ev Event) error
	OnAny          func(s *Session, ev Event) error
}

// HandleEvent routes ev to the matching callback.
func (h *Handlers) HandleEvent(s *Session, ev Event) error {
	var fn func(*Session, Event) error
	switch ev.Kind {
	case EventConnected:
		fn = h.OnConnected
	case EventRegistered:
		fn = h.OnRegistered
	case EventSelfJoined, EventUserJoined:
		fn = h.OnJoin
	case EventSelfParted, EventUserParted:
		fn = h.OnPart
	case EventNickChanged:
		fn = h.OnNick
	case EventUserQuit:
		fn = h.OnQuit
	case EventTopicChanged:
		fn = h.OnTopic
	case EventChannelUsersKnown:
		fn = h.OnNames
	case EventModeChanged:
		fn = h.OnMode
	case EventMessage:
		fn = h.OnMessage
	case EventNotice:
		fn = h.OnNotice
	case EventDisconnected:
		fn = h.OnDisconnected
	case EventRaw:
		fn = h.OnRaw
	}
	if fn != nil {
		if err := fn(s, ev); err != nil {
			return err
		}
	}
	if h.OnAny != nil {
		return h.OnAny(s, ev)
	}
	return nil
}

// Listeners fans an event out to several listeners in order. A failing
// member does not stop the others; failures are joined.
type Listeners []Listener

// HandleEvent calls every listener.
func (ls Listeners) HandleEvent(s *Session, ev Event) error {
	var errs []error
	for _, l := range ls {
		if l == nil {
			continue
		}
		if err := callListener(l, s, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func callListener(l Listener, s *Session, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ObserverFailure{Event: ev, Err: fmt.Errorf("%v", r), Panic: true}
		}
	}()
	return l.HandleEvent(s, ev)
}

func (s *Session) dispatch(ev Event) {
	if s.listener == nil {
		return
	}
	err := callListener(s.listener, s, ev)
	if err == nil {
		return
	}
	failure, ok := err.(*ObserverFailure)
	if !ok {
		failure = &ObserverFailure{Event: ev, Err: err}
	}
	s.onFailure(failure)
}

func (s *Session) logFailure(f *ObserverFailure) {
	s.log.Error().
		Err(f.Err).
		Str("event", f.Event.Kind.String()).
		Bool("panic", f.Panic).
		Msg("listener failed")
}
