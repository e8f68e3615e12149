package core

import (
	"sort"
	"strings"
	"time"
)

// Self is the session's own identity.
type Self struct {
	Nick     string
	Username string
	Realname string
}

// Member is one roster entry of a channel. Prefix holds membership symbols
// such as "@" or "+", highest rank first.
type Member struct {
	Nick   string
	Prefix string
}

// User is a snapshot of a user sharing at least one channel with us.
type User struct {
	Nick     string
	User     string
	Host     string
	Channels []string
}

// Channel is a snapshot of a joined channel.
type Channel struct {
	Name        string
	Topic       string
	HasTopic    bool
	TopicSetter string
	TopicTime   time.Time
	Members     []Member

	casemap CaseMapping
}

// Member returns the roster entry for nick, folded with the case mapping
// the session used when the snapshot was taken.
func (c Channel) Member(nick string) (Member, bool) {
	key := c.casemap.Fold(nick)
	for _, m := range c.Members {
		if c.casemap.Fold(m.Nick) == key {
			return m, true
		}
	}
	return Member{}, false
}

type userRecord struct {
	id       Ident
	user     string
	host     string
	channels map[string]struct{}
}

type membership struct {
	user   *userRecord
	prefix string
}

type channelRecord struct {
	id        Ident
	topic     string
	hasTopic  bool
	setter    string
	topicTime time.Time
	members   map[string]*membership
}

// state is the live session model. Users are dropped as soon as they share
// no tracked channel with us.
type state struct {
	casemap  CaseMapping
	self     Self
	selfID   Ident
	users    map[string]*userRecord
	channels map[string]*channelRecord
}

func newState(casemap CaseMapping) *state {
	return &state{
		casemap:  casemap,
		users:    make(map[string]*userRecord),
		channels: make(map[string]*channelRecord),
	}
}

func (st *state) ident(name string) Ident {
	return st.casemap.Ident(name)
}

func (st *state) reset(self Self) {
	st.clear()
	st.setSelfNick(self.Nick)
	st.self = self
}

func (st *state) clear() {
	st.self = Self{}
	st.selfID = Ident{}
	st.users = make(map[string]*userRecord)
	st.channels = make(map[string]*channelRecord)
}

func (st *state) setSelfNick(nick string) {
	st.self.Nick = nick
	st.selfID = st.ident(nick)
}

func (st *state) isSelf(nick string) bool {
	return st.selfID.Equal(st.ident(nick))
}

// setCaseMapping switches folding rules. It is refused once any channel is tracked.
func (st *state) setCaseMapping(m CaseMapping) bool {
	if len(st.channels) > 0 || len(st.users) > 0 {
		return false
	}
	st.casemap = m
	st.selfID = st.ident(st.self.Nick)
	return true
}

func (st *state) channel(name string) *channelRecord {
	return st.channels[st.casemap.Fold(name)]
}

func (st *state) ensureChannel(name string) *channelRecord {
	id := st.ident(name)
	if ch, ok := st.channels[id.Key()]; ok {
		return ch
	}
	ch := &channelRecord{id: id, members: make(map[string]*membership)}
	st.channels[id.Key()] = ch
	return ch
}

func (st *state) user(nick string) *userRecord {
	return st.users[st.casemap.Fold(nick)]
}

func (st *state) ensureUser(p Prefix) *userRecord {
	id := st.ident(p.Nick)
	u, ok := st.users[id.Key()]
	if !ok {
		u = &userRecord{id: id, channels: make(map[string]struct{})}
		st.users[id.Key()] = u
	}
	if p.User != "" {
		u.user = p.User
	}
	if p.Host != "" {
		u.host = p.Host
	}
	return u
}

func (st *state) addMember(ch *channelRecord, u *userRecord, prefix string) {
	if m, ok := ch.members[u.id.Key()]; ok {
		if prefix != "" {
			m.prefix = prefix
		}
		return
	}
	ch.members[u.id.Key()] = &membership{user: u, prefix: prefix}
	u.channels[ch.id.Key()] = struct{}{}
}

// removeMember drops nick from the roster and collects the user when it has
// no channel left.
func (st *state) removeMember(ch *channelRecord, nick string) bool {
	key := st.casemap.Fold(nick)
	m, ok := ch.members[key]
	if !ok {
		return false
	}
	delete(ch.members, key)
	delete(m.user.channels, ch.id.Key())
	st.collect(m.user)
	return true
}

func (st *state) removeChannel(ch *channelRecord) {
	delete(st.channels, ch.id.Key())
	for _, m := range ch.members {
		delete(m.user.channels, ch.id.Key())
		st.collect(m.user)
	}
}

func (st *state) collect(u *userRecord) {
	if len(u.channels) > 0 {
		return
	}
	if cur, ok := st.users[u.id.Key()]; ok && cur == u {
		delete(st.users, u.id.Key())
	}
}

// rename re-keys a user and every roster entry pointing at it.
func (st *state) rename(oldNick, newNick string) []string {
	oldID, newID := st.ident(oldNick), st.ident(newNick)
	if st.selfID.Equal(oldID) {
		st.setSelfNick(newNick)
	}

	u, ok := st.users[oldID.Key()]
	if !ok {
		return nil
	}
	if other, taken := st.users[newID.Key()]; taken && other != u {
		st.purge(other)
	}

	delete(st.users, oldID.Key())
	u.id = newID
	st.users[newID.Key()] = u

	names := make([]string, 0, len(u.channels))
	for key := range u.channels {
		ch := st.channels[key]
		if ch == nil {
			continue
		}
		m := ch.members[oldID.Key()]
		delete(ch.members, oldID.Key())
		if m != nil {
			ch.members[newID.Key()] = m
		}
		names = append(names, ch.id.String())
	}
	sort.Strings(names)
	return names
}

// quit removes the user from every channel and returns the channel names.
func (st *state) quit(nick string) []string {
	u := st.user(nick)
	if u == nil {
		return nil
	}
	names := st.channelNames(u)
	st.purge(u)
	return names
}

func (st *state) purge(u *userRecord) {
	for key := range u.channels {
		if ch := st.channels[key]; ch != nil {
			delete(ch.members, u.id.Key())
		}
	}
	u.channels = make(map[string]struct{})
	st.collect(u)
}

// replaceMembers swaps a channel roster for a completed names listing.
func (st *state) replaceMembers(ch *channelRecord, entries []nameEntry) {
	keep := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		u := st.ensureUser(e.prefix)
		keep[u.id.Key()] = struct{}{}
		if m, ok := ch.members[u.id.Key()]; ok {
			m.prefix = e.modes
			continue
		}
		st.addMember(ch, u, e.modes)
	}
	for key, m := range ch.members {
		if _, ok := keep[key]; ok {
			continue
		}
		delete(ch.members, key)
		delete(m.user.channels, ch.id.Key())
		st.collect(m.user)
	}
}

func (st *state) channelNames(u *userRecord) []string {
	names := make([]string, 0, len(u.channels))
	for key := range u.channels {
		if ch := st.channels[key]; ch != nil {
			names = append(names, ch.id.String())
		}
	}
	sort.Strings(names)
	return names
}

func (st *state) channelSnapshot(ch *channelRecord) Channel {
	snap := Channel{
		Name:        ch.id.String(),
		Topic:       ch.topic,
		HasTopic:    ch.hasTopic,
		TopicSetter: ch.setter,
		TopicTime:   ch.topicTime,
		Members:     make([]Member, 0, len(ch.members)),
		casemap:     st.casemap,
	}
	keys := make([]string, 0, len(ch.members))
	for key := range ch.members {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		m := ch.members[key]
		snap.Members = append(snap.Members, Member{Nick: m.user.id.String(), Prefix: m.prefix})
	}
	return snap
}

func (st *state) userSnapshot(u *userRecord) User {
	return User{
		Nick:     u.id.String(),
		User:     u.user,
		Host:     u.host,
		Channels: st.channelNames(u),
	}
}

func (st *state) sortedChannels() []*channelRecord {
	out := make([]*channelRecord, 0, len(st.channels))
	for _, ch := range st.channels {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id.Less(out[j].id) })
	return out
}

type nameEntry struct {
	prefix Prefix
	modes  string
}

// parseNames splits a names reply body, stripping membership symbols and an
// optional user@host part.
func parseNames(body, symbols string) []nameEntry {
	fields := strings.Fields(body)
	entries := make([]nameEntry, 0, len(fields))
	for _, f := range fields {
		i := 0
		for i < len(f) && strings.IndexByte(symbols, f[i]) >= 0 {
			i++
		}
		if i == len(f) {
			continue
		}
		entries = append(entries, nameEntry{
			prefix: ParsePrefix(f[i:]),
			modes:  rankSymbols(f[:i], symbols),
		})
	}
	return entries
}

// rankSymbols orders membership symbols by their rank in symbols.
func rankSymbols(set, symbols string) string {
	if len(set) < 2 {
		return set
	}
	var b strings.Builder
	for i := 0; i < len(symbols); i++ {
		if strings.IndexByte(set, symbols[i]) >= 0 {
			b.WriteByte(symbols[i])
		}
	}
	return b.String()
}
