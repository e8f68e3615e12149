package core

import (
	"strings"
	"testing"
)

// recorder collects dispatched events.
type recorder struct {
	events []Event
}

func (r *recorder) HandleEvent(_ *Session, ev Event) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) kinds() []EventKind {
	out := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func (r *recorder) reset() {
	r.events = nil
}

func (r *recorder) last(t *testing.T) Event {
	t.Helper()
	if len(r.events) == 0 {
		t.Fatal("no events recorded")
	}
	return r.events[len(r.events)-1]
}

func mustKinds(t *testing.T, r *recorder, want ...EventKind) {
	t.Helper()
	got := r.kinds()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, got)
		}
	}
}

// newTestSession returns a connected session for nick "bob".
func newTestSession(t *testing.T) (*Session, *recorder) {
	t.Helper()
	rec := &recorder{}
	s := NewSession(Self{Nick: "bob", Username: "bob", Realname: "Bob"}, rec)
	s.Connected()
	rec.reset()
	return s, rec
}

// line builds a RawMessage from ":prefix COMMAND params... :trailing".
func line(raw string) *RawMessage {
	m := &RawMessage{}
	if strings.HasPrefix(raw, ":") {
		src, rest, _ := strings.Cut(raw[1:], " ")
		m.Prefix = ParsePrefix(src)
		raw = rest
	}
	for raw != "" {
		if strings.HasPrefix(raw, ":") {
			m.Params = append(m.Params, raw[1:])
			break
		}
		word, rest, _ := strings.Cut(raw, " ")
		if m.Command == "" {
			m.Command = word
		} else {
			m.Params = append(m.Params, word)
		}
		raw = rest
	}
	return m
}

func memberNicks(c Channel) []string {
	out := make([]string, len(c.Members))
	for i, m := range c.Members {
		out[i] = m.Nick
	}
	return out
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
