package irc

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ergochat/irc-go/ircmsg"
	"golang.org/x/text/encoding/charmap"

	"github.com/vovakirdan/ircsession/internal/core"
)

// decodeFunc turns a raw parameter into valid UTF-8.
type decodeFunc func(string) string

// newDecoder returns a decoder that leaves valid UTF-8 untouched and falls
// back to the named single-byte charset otherwise.
func newDecoder(name string) (decodeFunc, error) {
	var cm *charmap.Charmap
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return func(s string) string { return strings.ToValidUTF8(s, "�") }, nil
	case "latin1", "iso-8859-1":
		cm = charmap.ISO8859_1
	case "latin9", "iso-8859-15":
		cm = charmap.ISO8859_15
	case "windows-1252", "cp1252":
		cm = charmap.Windows1252
	default:
		return nil, fmt.Errorf("unsupported fallback encoding %q", name)
	}
	return func(s string) string {
		if utf8.ValidString(s) {
			return s
		}
		out, err := cm.NewDecoder().String(s)
		if err != nil {
			return strings.ToValidUTF8(s, "�")
		}
		return out
	}, nil
}

// toRawMessage converts a parsed line into the session's input type.
func toRawMessage(msg ircmsg.Message, decode decodeFunc) *core.RawMessage {
	params := make([]string, len(msg.Params))
	for i, p := range msg.Params {
		params[i] = decode(p)
	}
	return &core.RawMessage{
		Prefix:  core.ParsePrefix(msg.Source),
		Command: strings.ToUpper(msg.Command),
		Params:  params,
		Time:    serverTime(&msg),
	}
}

// serverTime reads the IRCv3 server-time tag.
func serverTime(msg *ircmsg.Message) time.Time {
	ok, value := msg.GetTag("time")
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
