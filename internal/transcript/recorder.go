// Package transcript persists channel and private traffic seen by a session.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vovakirdan/ircsession/internal/core"
	"github.com/vovakirdan/ircsession/internal/store"
)

const defaultTimeout = 2 * time.Second

// Recorder is a core.Listener that writes transcript entries to a store.
// Write errors are returned to the session, which reports them as listener failures.
type Recorder struct {
	store   store.EntryStore
	log     *zerolog.Logger
	timeout time.Duration
}

// NewRecorder creates a recorder writing to st.
func NewRecorder(st store.EntryStore, logger *zerolog.Logger) *Recorder {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Recorder{store: st, log: logger, timeout: defaultTimeout}
}

// HandleEvent records ev if it is part of a conversation.
func (r *Recorder) HandleEvent(s *core.Session, ev core.Event) error {
	entries := r.entries(s, ev)
	if len(entries) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	var errs []error
	for _, e := range entries {
		if err := r.store.SaveEntry(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("save %s entry for %s: %w", e.Kind, e.Target, err))
		}
	}
	if len(errs) == 0 {
		r.log.Debug().Str("event", ev.Kind.String()).Int("entries", len(entries)).Msg("transcript recorded")
	}
	return errors.Join(errs...)
}

func (r *Recorder) entries(s *core.Session, ev core.Event) []*store.Entry {
	at := ev.Time
	if at.IsZero() {
		at = time.Now()
	}
	entry := func(kind store.EntryKind, target, nick, text string) *store.Entry {
		return &store.Entry{
			Kind:      kind,
			Target:    target,
			TargetKey: s.Fold(target),
			Nick:      nick,
			Text:      text,
			CreatedAt: at,
		}
	}

	switch ev.Kind {
	case core.EventMessage, core.EventNotice:
		if ev.Prefix.IsServer() || ev.Nick == "" {
			return nil
		}
		kind := store.EntryMessage
		switch {
		case ev.Kind == core.EventNotice:
			kind = store.EntryNotice
		case ev.Action:
			kind = store.EntryAction
		}
		return []*store.Entry{entry(kind, conversation(ev), ev.Nick, ev.Text)}

	case core.EventSelfJoined, core.EventUserJoined:
		return []*store.Entry{entry(store.EntryJoin, ev.Channel, ev.Nick, "")}

	case core.EventSelfParted, core.EventUserParted:
		if ev.Kicked {
			return []*store.Entry{entry(store.EntryKick, ev.Channel, ev.Nick, kickText(ev))}
		}
		return []*store.Entry{entry(store.EntryPart, ev.Channel, ev.Nick, ev.Reason)}

	case core.EventNickChanged:
		out := make([]*store.Entry, 0, len(ev.Channels))
		for _, ch := range ev.Channels {
			out = append(out, entry(store.EntryNick, ch, ev.OldNick, ev.NewNick))
		}
		return out

	case core.EventUserQuit:
		out := make([]*store.Entry, 0, len(ev.Channels))
		for _, ch := range ev.Channels {
			out = append(out, entry(store.EntryQuit, ch, ev.Nick, ev.Reason))
		}
		return out

	case core.EventTopicChanged:
		if ev.Reply {
			return nil
		}
		return []*store.Entry{entry(store.EntryTopic, ev.Channel, ev.Nick, ev.Topic)}
	}
	return nil
}

// conversation names where a message belongs: the channel, or the other
// party of a private exchange.
func conversation(ev core.Event) string {
	if !ev.Private {
		return ev.Channel
	}
	if ev.Self {
		return ev.Target
	}
	return ev.Nick
}

func kickText(ev core.Event) string {
	if ev.Reason == "" {
		return "kicked by " + ev.By
	}
	return fmt.Sprintf("kicked by %s: %s", ev.By, ev.Reason)
}
