package core

import (
	"iter"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Status is the connection state as seen by the session.
type Status int

const (
	// StatusDisconnected means no transport connection.
	StatusDisconnected Status = iota
	// StatusConnected means the transport is up but registration is not complete.
	StatusConnected
	// StatusRegistered means the server sent its welcome reply.
	StatusRegistered
)

func (s Status) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusRegistered:
		return "registered"
	default:
		return "disconnected"
	}
}

const (
	defaultPrefixModes   = "ov"
	defaultPrefixSymbols = "@+"
	defaultChanTypes     = "#&"
)

var defaultChanModes = [4]string{"beI", "k", "l", "imnpst"}

type serverSupport struct {
	prefixModes   string
	prefixSymbols string
	chanTypes     string
	chanModes     [4]string
}

func defaultSupport() serverSupport {
	return serverSupport{
		prefixModes:   defaultPrefixModes,
		prefixSymbols: defaultPrefixSymbols,
		chanTypes:     defaultChanTypes,
		chanModes:     defaultChanModes,
	}
}

type namesBuffer struct {
	name    string
	entries []nameEntry
}

// Session turns raw protocol messages into state changes and events.
//
// Handle, Connected and Disconnected must be called from a single goroutine
// in arrival order. Read methods are safe from any goroutine and return
// copies. The listener is called synchronously after each state change,
// without any lock held, so it may read the session freely.
type Session struct {
	mu       sync.RWMutex
	st       *state
	identity Self
	casemap  CaseMapping
	status   Status
	support  serverSupport
	names    map[string]*namesBuffer

	listener  Listener
	onFailure func(*ObserverFailure)
	log       *zerolog.Logger
	now       func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for debug traces and listener failures.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithFailureHandler replaces the default reporting of listener failures.
func WithFailureHandler(fn func(*ObserverFailure)) Option {
	return func(s *Session) {
		if fn != nil {
			s.onFailure = fn
		}
	}
}

// WithCaseMapping sets the initial folding rules. A CASEMAPPING token from
// the server overrides it while no channel is tracked.
func WithCaseMapping(m CaseMapping) Option {
	return func(s *Session) {
		s.casemap = m
	}
}

// WithClock sets the time source for events without a server timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSession builds a session for the given identity that reports to listener.
// A nil listener discards events.
func NewSession(identity Self, listener Listener, opts ...Option) *Session {
	nop := zerolog.Nop()
	s := &Session{
		identity: identity,
		casemap:  CaseMappingRFC1459,
		support:  defaultSupport(),
		names:    make(map[string]*namesBuffer),
		listener: listener,
		log:      &nop,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.onFailure == nil {
		s.onFailure = s.logFailure
	}
	s.st = newState(s.casemap)
	return s
}

// Connected resets the model for a fresh connection and emits EventConnected.
func (s *Session) Connected() {
	s.mu.Lock()
	s.st.casemap = s.casemap
	s.st.reset(s.identity)
	s.status = StatusConnected
	s.support = defaultSupport()
	s.names = make(map[string]*namesBuffer)
	ev := Event{Kind: EventConnected, Time: s.now(), Nick: s.identity.Nick, Self: true}
	s.mu.Unlock()

	s.dispatch(ev)
}

// Disconnected empties the model and then emits EventDisconnected.
func (s *Session) Disconnected(reason string) {
	s.mu.Lock()
	s.st.clear()
	s.status = StatusDisconnected
	s.names = make(map[string]*namesBuffer)
	ev := Event{Kind: EventDisconnected, Time: s.now(), Reason: reason}
	s.mu.Unlock()

	s.dispatch(ev)
}

// Handle applies one inbound message and dispatches the resulting event, if any.
func (s *Session) Handle(m *RawMessage) {
	if m == nil || m.Command == "" {
		return
	}
	ev, ok := s.apply(m)
	if !ok {
		return
	}
	s.dispatch(ev)
}

type handlerFunc func(s *Session, m *RawMessage) (Event, bool)

var handlers map[string]handlerFunc

func init() {
	handlers = map[string]handlerFunc{
		RplWelcome:      (*Session).handleWelcome,
		RplISupport:     (*Session).handleISupport,
		CmdJoin:         (*Session).handleJoin,
		CmdPart:         (*Session).handlePart,
		CmdKick:         (*Session).handleKick,
		CmdNick:         (*Session).handleNick,
		CmdQuit:         (*Session).handleQuit,
		CmdTopic:        (*Session).handleTopic,
		RplTopic:        (*Session).handleTopicReply,
		RplNoTopic:      (*Session).handleNoTopic,
		RplTopicWhoTime: (*Session).handleTopicWhoTime,
		RplNamReply:     (*Session).handleNamReply,
		RplEndOfNames:   (*Session).handleEndOfNames,
		CmdMode:         (*Session).handleMode,
		CmdPrivmsg:      (*Session).handlePrivmsg,
		CmdNotice:       (*Session).handleNotice,
	}
}

func (s *Session) apply(m *RawMessage) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := handlers[strings.ToUpper(m.Command)]
	if !ok {
		return s.rawEvent(m), true
	}
	return h(s, m)
}

func (s *Session) eventTime(m *RawMessage) time.Time {
	if !m.Time.IsZero() {
		return m.Time
	}
	return s.now()
}

func (s *Session) rawEvent(m *RawMessage) Event {
	return Event{Kind: EventRaw, Time: s.eventTime(m), Prefix: m.Prefix, Nick: m.Prefix.Nick, Raw: m}
}

func (s *Session) drop(m *RawMessage, why string) (Event, bool) {
	s.log.Debug().Str("command", m.Command).Strs("params", m.Params).Msg(why)
	return Event{}, false
}

func (s *Session) handleWelcome(m *RawMessage) (Event, bool) {
	if nick := m.Param(0); nick != "" && nick != "*" {
		s.st.setSelfNick(nick)
	}
	s.status = StatusRegistered
	return Event{
		Kind:   EventRegistered,
		Time:   s.eventTime(m),
		Nick:   s.st.self.Nick,
		Self:   true,
		Prefix: m.Prefix,
		Text:   m.Trailing(),
		Raw:    m,
	}, true
}

func (s *Session) handleISupport(m *RawMessage) (Event, bool) {
	if len(m.Params) > 2 {
		for _, tok := range m.Params[1 : len(m.Params)-1] {
			s.applySupportToken(tok)
		}
	}
	return s.rawEvent(m), true
}

func (s *Session) applySupportToken(tok string) {
	key, value, _ := strings.Cut(tok, "=")
	switch strings.ToUpper(key) {
	case "CASEMAPPING":
		cm, ok := ParseCaseMapping(value)
		if !ok {
			return
		}
		if !s.st.setCaseMapping(cm) {
			s.log.Debug().Str("casemapping", value).Msg("casemapping ignored, channels already tracked")
		}
	case "PREFIX":
		if value == "" {
			s.support.prefixModes, s.support.prefixSymbols = "", ""
			return
		}
		modes, symbols, ok := strings.Cut(strings.TrimPrefix(value, "("), ")")
		if ok && len(modes) == len(symbols) {
			s.support.prefixModes, s.support.prefixSymbols = modes, symbols
		}
	case "CHANTYPES":
		s.support.chanTypes = value
	case "CHANMODES":
		parts := strings.SplitN(value, ",", 4)
		var cm [4]string
		copy(cm[:], parts)
		s.support.chanModes = cm
	}
}

func (s *Session) handleJoin(m *RawMessage) (Event, bool) {
	name, nick := m.Param(0), m.Prefix.Nick
	if name == "" || nick == "" {
		return s.drop(m, "join without channel or source")
	}
	ev := Event{Time: s.eventTime(m), Nick: nick, Prefix: m.Prefix}

	if s.st.isSelf(nick) {
		ch := s.st.ensureChannel(name)
		s.st.addMember(ch, s.st.ensureUser(m.Prefix), "")
		ev.Kind, ev.Channel, ev.Self = EventSelfJoined, ch.id.String(), true
		return ev, true
	}

	ch := s.st.channel(name)
	if ch == nil {
		return s.drop(m, "join for untracked channel")
	}
	s.st.addMember(ch, s.st.ensureUser(m.Prefix), "")
	ev.Kind, ev.Channel = EventUserJoined, ch.id.String()
	return ev, true
}

func (s *Session) handlePart(m *RawMessage) (Event, bool) {
	name, nick := m.Param(0), m.Prefix.Nick
	if name == "" || nick == "" {
		return s.drop(m, "part without channel or source")
	}
	return s.departed(m, name, nick, m.Param(1), "")
}

func (s *Session) handleKick(m *RawMessage) (Event, bool) {
	name, nick := m.Param(0), m.Param(1)
	if name == "" || nick == "" {
		return s.drop(m, "kick without channel or target")
	}
	return s.departed(m, name, nick, m.Param(2), m.Prefix.Nick)
}

func (s *Session) departed(m *RawMessage, name, nick, reason, by string) (Event, bool) {
	ev := Event{
		Time:    s.eventTime(m),
		Channel: name,
		Nick:    nick,
		Prefix:  m.Prefix,
		Reason:  reason,
		Kicked:  by != "",
		By:      by,
	}
	ch := s.st.channel(name)

	if s.st.isSelf(nick) {
		if ch != nil {
			ev.Channel = ch.id.String()
			s.st.removeChannel(ch)
		}
		delete(s.names, s.st.casemap.Fold(name))
		ev.Kind, ev.Self = EventSelfParted, true
		return ev, true
	}

	if ch == nil {
		return s.drop(m, "departure from untracked channel")
	}
	s.st.removeMember(ch, nick)
	ev.Kind, ev.Channel = EventUserParted, ch.id.String()
	return ev, true
}

func (s *Session) handleNick(m *RawMessage) (Event, bool) {
	oldNick, newNick := m.Prefix.Nick, m.Param(0)
	if oldNick == "" || newNick == "" {
		return s.drop(m, "nick without source or new nick")
	}
	self := s.st.isSelf(oldNick)
	channels := s.st.rename(oldNick, newNick)
	return Event{
		Kind:     EventNickChanged,
		Time:     s.eventTime(m),
		Nick:     newNick,
		Prefix:   m.Prefix,
		Self:     self,
		OldNick:  oldNick,
		NewNick:  newNick,
		Channels: channels,
	}, true
}

func (s *Session) handleQuit(m *RawMessage) (Event, bool) {
	nick := m.Prefix.Nick
	if nick == "" {
		return s.drop(m, "quit without source")
	}
	ev := Event{
		Kind:   EventUserQuit,
		Time:   s.eventTime(m),
		Nick:   nick,
		Prefix: m.Prefix,
		Reason: m.Param(0),
	}
	if s.st.isSelf(nick) {
		ev.Self = true
		for _, ch := range s.st.sortedChannels() {
			ev.Channels = append(ev.Channels, ch.id.String())
			s.st.removeChannel(ch)
		}
		return ev, true
	}
	ev.Channels = s.st.quit(nick)
	return ev, true
}

func (s *Session) handleTopic(m *RawMessage) (Event, bool) {
	name := m.Param(0)
	if name == "" {
		return s.drop(m, "topic without channel")
	}
	ch := s.st.channel(name)
	if ch == nil {
		return s.drop(m, "topic for untracked channel")
	}
	topic := m.Param(1)
	ch.topic, ch.hasTopic = topic, topic != ""
	ch.setter, ch.topicTime = m.Prefix.Nick, s.eventTime(m)
	return Event{
		Kind:     EventTopicChanged,
		Time:     ch.topicTime,
		Channel:  ch.id.String(),
		Nick:     m.Prefix.Nick,
		Prefix:   m.Prefix,
		Topic:    ch.topic,
		HasTopic: ch.hasTopic,
		Setter:   ch.setter,
	}, true
}

func (s *Session) handleTopicReply(m *RawMessage) (Event, bool) {
	name := m.Param(1)
	if name == "" {
		return s.drop(m, "topic reply without channel")
	}
	return s.topicReply(m, name, m.Param(2))
}

func (s *Session) handleNoTopic(m *RawMessage) (Event, bool) {
	name := m.Param(1)
	if name == "" {
		return s.drop(m, "no-topic reply without channel")
	}
	return s.topicReply(m, name, "")
}

func (s *Session) topicReply(m *RawMessage, name, topic string) (Event, bool) {
	ev := Event{
		Kind:     EventTopicChanged,
		Time:     s.eventTime(m),
		Channel:  name,
		Prefix:   m.Prefix,
		Topic:    topic,
		HasTopic: topic != "",
		Reply:    true,
	}
	if ch := s.st.channel(name); ch != nil {
		ch.topic, ch.hasTopic = topic, topic != ""
		if !ch.hasTopic {
			ch.setter, ch.topicTime = "", time.Time{}
		}
		ev.Channel, ev.Setter = ch.id.String(), ch.setter
	}
	return ev, true
}

func (s *Session) handleTopicWhoTime(m *RawMessage) (Event, bool) {
	if ch := s.st.channel(m.Param(1)); ch != nil {
		ch.setter = ParsePrefix(m.Param(2)).Nick
		if sec, err := strconv.ParseInt(m.Param(3), 10, 64); err == nil {
			ch.topicTime = time.Unix(sec, 0).UTC()
		}
	}
	return s.rawEvent(m), true
}

func (s *Session) handleNamReply(m *RawMessage) (Event, bool) {
	// <me> <symbol> <channel> :<names>
	name := m.Param(2)
	if name == "" {
		return s.drop(m, "names reply without channel")
	}
	key := s.st.casemap.Fold(name)
	buf, ok := s.names[key]
	if !ok {
		buf = &namesBuffer{name: name}
		s.names[key] = buf
	}
	buf.entries = append(buf.entries, parseNames(m.Param(3), s.support.prefixSymbols)...)
	return Event{}, false
}

func (s *Session) handleEndOfNames(m *RawMessage) (Event, bool) {
	name := m.Param(1)
	if name == "" {
		return s.drop(m, "end of names without channel")
	}
	key := s.st.casemap.Fold(name)
	buf, ok := s.names[key]
	delete(s.names, key)

	var ch *channelRecord
	if ok {
		ch = s.st.ensureChannel(buf.name)
		s.st.replaceMembers(ch, buf.entries)
	} else if ch = s.st.channel(name); ch == nil {
		return s.drop(m, "end of names for untracked channel")
	}

	snap := s.st.channelSnapshot(ch)
	return Event{
		Kind:    EventChannelUsersKnown,
		Time:    s.eventTime(m),
		Channel: snap.Name,
		Members: snap.Members,
	}, true
}

func (s *Session) handleMode(m *RawMessage) (Event, bool) {
	target := m.Param(0)
	if !s.isChannelLocked(target) || len(m.Params) < 2 {
		return s.rawEvent(m), true
	}
	ch := s.st.channel(target)
	if ch == nil {
		return s.drop(m, "mode for untracked channel")
	}

	changes := s.parseModes(m.Param(1), m.Params[2:])
	for _, c := range changes {
		i := strings.IndexByte(s.support.prefixModes, c.Mode)
		if i < 0 {
			continue
		}
		member, ok := ch.members[s.st.casemap.Fold(c.Param)]
		if !ok {
			continue
		}
		symbol := s.support.prefixSymbols[i]
		if c.Add {
			member.prefix = rankSymbols(member.prefix+string(symbol), s.support.prefixSymbols)
		} else {
			member.prefix = strings.ReplaceAll(member.prefix, string(symbol), "")
		}
	}
	return Event{
		Kind:    EventModeChanged,
		Time:    s.eventTime(m),
		Channel: ch.id.String(),
		Nick:    m.Prefix.Nick,
		Prefix:  m.Prefix,
		Modes:   changes,
	}, true
}

// parseModes walks a mode string, consuming parameters the way the server
// advertised in CHANMODES and PREFIX.
func (s *Session) parseModes(modes string, params []string) []ModeChange {
	var changes []ModeChange
	add := true
	for i := 0; i < len(modes); i++ {
		c := modes[i]
		switch c {
		case '+':
			add = true
			continue
		case '-':
			add = false
			continue
		}
		change := ModeChange{Add: add, Mode: c}
		if s.modeTakesParam(c, add) && len(params) > 0 {
			change.Param, params = params[0], params[1:]
		}
		changes = append(changes, change)
	}
	return changes
}

func (s *Session) modeTakesParam(c byte, add bool) bool {
	cm := s.support.chanModes
	switch {
	case strings.IndexByte(s.support.prefixModes, c) >= 0:
		return true
	case strings.IndexByte(cm[0], c) >= 0, strings.IndexByte(cm[1], c) >= 0:
		return true
	case strings.IndexByte(cm[2], c) >= 0:
		return add
	default:
		return false
	}
}

func (s *Session) handlePrivmsg(m *RawMessage) (Event, bool) {
	return s.message(m, EventMessage)
}

func (s *Session) handleNotice(m *RawMessage) (Event, bool) {
	return s.message(m, EventNotice)
}

func (s *Session) message(m *RawMessage, kind EventKind) (Event, bool) {
	target := m.Param(0)
	if target == "" || len(m.Params) < 2 {
		return s.drop(m, "message without target or text")
	}
	ev := Event{
		Kind:    kind,
		Time:    s.eventTime(m),
		Nick:    m.Prefix.Nick,
		Prefix:  m.Prefix,
		Self:    s.st.isSelf(m.Prefix.Nick),
		Target:  target,
		Text:    m.Param(1),
		Private: !s.isChannelLocked(target),
	}
	if !ev.Private {
		ev.Channel = target
		if ch := s.st.channel(target); ch != nil {
			ev.Channel = ch.id.String()
		}
	}
	if kind == EventMessage {
		if text, ok := ctcpAction(ev.Text); ok {
			ev.Text, ev.Action = text, true
		}
	}
	return ev, true
}

func ctcpAction(text string) (string, bool) {
	const prefix = "\x01ACTION "
	if !strings.HasPrefix(text, prefix) {
		return "", false
	}
	return strings.TrimSuffix(text[len(prefix):], "\x01"), true
}

func (s *Session) isChannelLocked(name string) bool {
	return name != "" && strings.IndexByte(s.support.chanTypes, name[0]) >= 0
}

// IsChannel reports whether name is a channel name for the current server.
func (s *Session) IsChannel(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isChannelLocked(name)
}

// Status returns the connection status.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Self returns the current identity. It is empty while disconnected.
func (s *Session) Self() Self {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.self
}

// Channel returns a snapshot of a tracked channel.
func (s *Session) Channel(name string) (Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch := s.st.channel(name)
	if ch == nil {
		return Channel{}, false
	}
	return s.st.channelSnapshot(ch), true
}

// Channels yields snapshots of all tracked channels ordered by folded name.
// The snapshots are taken when iteration starts.
func (s *Session) Channels() iter.Seq[Channel] {
	return func(yield func(Channel) bool) {
		s.mu.RLock()
		records := s.st.sortedChannels()
		snaps := make([]Channel, 0, len(records))
		for _, ch := range records {
			snaps = append(snaps, s.st.channelSnapshot(ch))
		}
		s.mu.RUnlock()

		for _, c := range snaps {
			if !yield(c) {
				return
			}
		}
	}
}

// User returns a snapshot of a user that shares a channel with us.
func (s *Session) User(nick string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u := s.st.user(nick)
	if u == nil {
		return User{}, false
	}
	return s.st.userSnapshot(u), true
}

// Fold returns the lookup key for name under the casemapping in effect.
func (s *Session) Fold(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.casemap.Fold(name)
}
