package core

import (
	"errors"
	"testing"
)

func TestListenerFailuresAreIsolated(t *testing.T) {
	var failures []*ObserverFailure
	var delivered []EventKind

	listener := ListenerFunc(func(_ *Session, ev Event) error {
		delivered = append(delivered, ev.Kind)
		switch ev.Kind {
		case EventSelfJoined:
			panic("boom")
		case EventUserJoined:
			return errors.New("refused")
		}
		return nil
	})
	s := NewSession(Self{Nick: "bob"}, listener, WithFailureHandler(func(f *ObserverFailure) {
		failures = append(failures, f)
	}))

	s.Connected()
	s.Handle(line(":bob!b@h JOIN #a"))
	s.Handle(line(":alice!a@h JOIN #a"))
	s.Handle(line(":alice!a@h PRIVMSG #a :still here"))

	want := []EventKind{EventConnected, EventSelfJoined, EventUserJoined, EventMessage}
	if len(delivered) != len(want) {
		t.Fatalf("expected %v delivered, got %v", want, delivered)
	}
	if len(failures) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(failures))
	}
	if !failures[0].Panic || failures[0].Event.Kind != EventSelfJoined {
		t.Fatalf("unexpected panic failure: %+v", failures[0])
	}
	if failures[1].Panic || failures[1].Err.Error() != "refused" {
		t.Fatalf("unexpected error failure: %+v", failures[1])
	}
	if ErrorCode(failures[1]) != ErrCodeObserverFailure {
		t.Fatalf("unexpected error code: %q", ErrorCode(failures[1]))
	}

	// State changes happened regardless of the failures.
	ch, ok := s.Channel("#a")
	if !ok || len(ch.Members) != 2 {
		t.Fatalf("unexpected channel state: %+v", ch)
	}
}

func TestHandlersRouteByKind(t *testing.T) {
	var joins, parts, all int
	h := &Handlers{
		OnJoin: func(*Session, Event) error { joins++; return nil },
		OnPart: func(*Session, Event) error { parts++; return nil },
		OnAny:  func(*Session, Event) error { all++; return nil },
	}
	s := NewSession(Self{Nick: "bob"}, h)

	s.Connected()
	s.Handle(line(":bob!b@h JOIN #a"))
	s.Handle(line(":alice!a@h JOIN #a"))
	s.Handle(line(":alice!a@h PART #a"))
	s.Handle(line(":bob!b@h PART #a"))

	if joins != 2 || parts != 2 || all != 5 {
		t.Fatalf("unexpected counts: joins=%d parts=%d all=%d", joins, parts, all)
	}
}

func TestListenersFanOut(t *testing.T) {
	first, last := &recorder{}, &recorder{}
	var failures []*ObserverFailure
	s := NewSession(Self{Nick: "bob"}, Listeners{
		first,
		ListenerFunc(func(*Session, Event) error { panic("middle") }),
		last,
	}, WithFailureHandler(func(f *ObserverFailure) { failures = append(failures, f) }))

	s.Connected()

	mustKinds(t, first, EventConnected)
	mustKinds(t, last, EventConnected)
	if len(failures) != 1 {
		t.Fatalf("expected one failure, got %d", len(failures))
	}
	var inner *ObserverFailure
	if !errors.As(failures[0].Err, &inner) || !inner.Panic {
		t.Fatalf("expected wrapped panic, got %+v", failures[0])
	}
}

func TestNilListener(t *testing.T) {
	s := NewSession(Self{Nick: "bob"}, nil)
	s.Connected()
	s.Handle(line(":bob!b@h JOIN #a"))
	if _, ok := s.Channel("#a"); !ok {
		t.Fatal("state must be tracked without a listener")
	}
}
