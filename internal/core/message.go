package core

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Prefix is the source of a message. Server-originated messages only carry Nick
// with the server name in it and no User or Host.
type Prefix struct {
	Nick string
	User string
	Host string
}

// ParsePrefix splits a "nick!user@host" source.
func ParsePrefix(src string) Prefix {
	var p Prefix
	if i := strings.IndexByte(src, '@'); i >= 0 {
		p.Host = src[i+1:]
		src = src[:i]
	}
	if i := strings.IndexByte(src, '!'); i >= 0 {
		p.User = src[i+1:]
		src = src[:i]
	}
	p.Nick = src
	return p
}

// IsServer reports whether the prefix looks like a server name.
func (p Prefix) IsServer() bool {
	return p.User == "" && p.Host == "" && strings.IndexByte(p.Nick, '.') >= 0
}

func (p Prefix) String() string {
	var b strings.Builder
	b.WriteString(p.Nick)
	if p.User != "" {
		b.WriteByte('!')
		b.WriteString(p.User)
	}
	if p.Host != "" {
		b.WriteByte('@')
		b.WriteString(p.Host)
	}
	return b.String()
}

// RawMessage is one parsed protocol line handed over by a transport.
type RawMessage struct {
	Prefix  Prefix
	Command string
	Params  []string
	Time    time.Time
}

// Param returns the n-th parameter (zero based), or "" when absent.
func (m *RawMessage) Param(n int) string {
	if n < 0 || n >= len(m.Params) {
		return ""
	}
	return m.Params[n]
}

// Trailing returns the last parameter, or "" when there are none.
func (m *RawMessage) Trailing() string {
	if len(m.Params) == 0 {
		return ""
	}
	return m.Params[len(m.Params)-1]
}

// Commands handled by the session.
const (
	CmdJoin    = "JOIN"
	CmdPart    = "PART"
	CmdKick    = "KICK"
	CmdNick    = "NICK"
	CmdQuit    = "QUIT"
	CmdTopic   = "TOPIC"
	CmdMode    = "MODE"
	CmdPrivmsg = "PRIVMSG"
	CmdNotice  = "NOTICE"
	CmdPing    = "PING"
	CmdPong    = "PONG"
	CmdNames   = "NAMES"
)

// Numeric replies handled by the session.
const (
	RplWelcome      = "001"
	RplISupport     = "005"
	RplNoTopic      = "331"
	RplTopic        = "332"
	RplTopicWhoTime = "333"
	RplNamReply     = "353"
	RplEndOfNames   = "366"
)

// passthroughCommands are verbs the session reports as raw events.
var passthroughCommands = []string{
	CmdPing, CmdPong, "INVITE", "ERROR", "AWAY", "WALLOPS",
	"CAP", "ACCOUNT", "CHGHOST", "KILL",
}

// Commands lists every command a transport should hand to Session.Handle:
// the interpreted commands, the common raw verbs and all three-digit
// numerics. The result is sorted and has no duplicates.
func Commands() []string {
	out := make([]string, 0, len(handlers)+len(passthroughCommands)+1000)
	for cmd := range handlers {
		out = append(out, cmd)
	}
	out = append(out, passthroughCommands...)
	for n := range 1000 {
		out = append(out, fmt.Sprintf("%03d", n))
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// IsKnownCommand reports whether command is one of Commands.
func IsKnownCommand(command string) bool {
	command = strings.ToUpper(command)
	if isNumeric(command) {
		return true
	}
	if _, ok := handlers[command]; ok {
		return true
	}
	return slices.Contains(passthroughCommands, command)
}

func isNumeric(command string) bool {
	if len(command) != 3 {
		return false
	}
	for i := range len(command) {
		if command[i] < '0' || command[i] > '9' {
			return false
		}
	}
	return true
}
