package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ergochat/irc-go/ircmsg"
)

// MaxLineLength is the protocol line limit, CRLF included.
const MaxLineLength = 512

const defaultNickServ = "NickServ"

// Sender writes one protocol line. The line carries no CRLF.
type Sender interface {
	SendLine(line string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(line string) error

// SendLine calls f.
func (f SenderFunc) SendLine(line string) error {
	return f(line)
}

// Encoder turns commands into validated protocol lines. It holds no state
// beyond its configuration and is safe for concurrent use when the Sender is.
type Encoder struct {
	sender   Sender
	maxLen   int
	nickServ string
	onReject func(command string, err error)
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithLineLimit overrides MaxLineLength.
func WithLineLimit(n int) EncoderOption {
	return func(e *Encoder) {
		if n > 2 {
			e.maxLen = n
		}
	}
}

// WithNickServ sets the nick Identify talks to.
func WithNickServ(nick string) EncoderOption {
	return func(e *Encoder) {
		if nick != "" {
			e.nickServ = nick
		}
	}
}

// WithRejectHook is called whenever a command fails validation.
func WithRejectHook(fn func(command string, err error)) EncoderOption {
	return func(e *Encoder) {
		e.onReject = fn
	}
}

// NewEncoder builds an encoder writing to sender.
func NewEncoder(sender Sender, opts ...EncoderOption) *Encoder {
	e := &Encoder{sender: sender, maxLen: MaxLineLength, nickServ: defaultNickServ}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Join joins channel, with an optional key.
func (e *Encoder) Join(channel, key string) error {
	if err := checkTarget("channel", channel); err != nil {
		return e.reject(CmdJoin, err)
	}
	if key == "" {
		return e.send(CmdJoin, channel)
	}
	if err := checkTarget("key", key); err != nil {
		return e.reject(CmdJoin, err)
	}
	return e.send(CmdJoin, channel, key)
}

// JoinMany joins several channels with one line.
func (e *Encoder) JoinMany(channels ...string) error {
	if len(channels) == 0 {
		return e.reject(CmdJoin, invalidArgument("no channels"))
	}
	for _, ch := range channels {
		if err := checkTarget("channel", ch); err != nil {
			return e.reject(CmdJoin, err)
		}
		if strings.IndexByte(ch, ',') >= 0 {
			return e.reject(CmdJoin, invalidArgument("channel %q contains a comma", ch))
		}
	}
	return e.send(CmdJoin, strings.Join(channels, ","))
}

// Part leaves channel with an optional reason.
func (e *Encoder) Part(channel, reason string) error {
	if err := checkTarget("channel", channel); err != nil {
		return e.reject(CmdPart, err)
	}
	if reason == "" {
		return e.send(CmdPart, channel)
	}
	if err := checkText(reason); err != nil {
		return e.reject(CmdPart, err)
	}
	return e.sendText(CmdPart, channel, reason)
}

// Say sends a PRIVMSG to a channel or nick.
func (e *Encoder) Say(target, text string) error {
	return e.message(CmdPrivmsg, target, text)
}

// Notice sends a NOTICE to a channel or nick.
func (e *Encoder) Notice(target, text string) error {
	return e.message(CmdNotice, target, text)
}

// Action sends a CTCP ACTION.
func (e *Encoder) Action(target, text string) error {
	if err := checkText(text); err != nil {
		return e.reject(CmdPrivmsg, err)
	}
	return e.message(CmdPrivmsg, target, "\x01ACTION "+text+"\x01")
}

func (e *Encoder) message(command, target, text string) error {
	if err := checkTarget("target", target); err != nil {
		return e.reject(command, err)
	}
	if text == "" {
		return e.reject(command, invalidArgument("empty text"))
	}
	if err := checkText(text); err != nil {
		return e.reject(command, err)
	}
	return e.sendText(command, target, text)
}

// SetTopic changes the channel topic. An empty text clears it.
func (e *Encoder) SetTopic(channel, text string) error {
	if err := checkTarget("channel", channel); err != nil {
		return e.reject(CmdTopic, err)
	}
	if err := checkText(text); err != nil {
		return e.reject(CmdTopic, err)
	}
	return e.sendText(CmdTopic, channel, text)
}

// GetTopic asks the server for the channel topic.
func (e *Encoder) GetTopic(channel string) error {
	if err := checkTarget("channel", channel); err != nil {
		return e.reject(CmdTopic, err)
	}
	return e.send(CmdTopic, channel)
}

// Names asks the server for a channel roster.
func (e *Encoder) Names(channel string) error {
	if err := checkTarget("channel", channel); err != nil {
		return e.reject(CmdNames, err)
	}
	return e.send(CmdNames, channel)
}

// ChangeNick requests a new nick. The session learns the result from the server.
func (e *Encoder) ChangeNick(nick string) error {
	if err := checkTarget("nick", nick); err != nil {
		return e.reject(CmdNick, err)
	}
	return e.send(CmdNick, nick)
}

// Quit ends the connection with an optional reason.
func (e *Encoder) Quit(reason string) error {
	if reason == "" {
		return e.send(CmdQuit)
	}
	if err := checkText(reason); err != nil {
		return e.reject(CmdQuit, err)
	}
	return e.sendText(CmdQuit, reason)
}

// Ping sends a PING with token.
func (e *Encoder) Ping(token string) error {
	if err := checkTarget("token", token); err != nil {
		return e.reject(CmdPing, err)
	}
	return e.send(CmdPing, token)
}

// Pong answers a PING with token.
func (e *Encoder) Pong(token string) error {
	if err := checkTarget("token", token); err != nil {
		return e.reject(CmdPong, err)
	}
	return e.send(CmdPong, token)
}

// Identify authenticates with NickServ.
func (e *Encoder) Identify(password string) error {
	if err := checkTarget("password", password); err != nil {
		return e.reject(CmdPrivmsg, err)
	}
	return e.message(CmdPrivmsg, e.nickServ, "IDENTIFY "+password)
}

// Raw sends a preformatted line. It must be a single line.
func (e *Encoder) Raw(line string) error {
	if line == "" {
		return e.reject("RAW", invalidArgument("empty line"))
	}
	if err := checkText(line); err != nil {
		return e.reject("RAW", err)
	}
	if len(line)+2 > e.maxLen {
		return e.reject("RAW", tooLong(len(line)+2, e.maxLen))
	}
	return e.sender.SendLine(line)
}

// Encode renders command and params as a line without sending it.
func (e *Encoder) Encode(command string, params ...string) (string, error) {
	return e.encode(false, command, params...)
}

// encode renders a line. With trailing set the last param is always
// written after a colon, as free text conventionally is.
func (e *Encoder) encode(trailing bool, command string, params ...string) (string, error) {
	msg := ircmsg.MakeMessage(nil, "", command, params...)
	if trailing {
		msg.ForceTrailing()
	}
	line, err := msg.Line()
	if err != nil {
		if errors.Is(err, ircmsg.ErrorBodyTooLong) {
			return "", tooLong(encodedLen(trailing, command, params), e.maxLen)
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	line = strings.TrimSuffix(line, "\r\n")
	if len(line)+2 > e.maxLen {
		return "", tooLong(len(line)+2, e.maxLen)
	}
	return line, nil
}

func (e *Encoder) send(command string, params ...string) error {
	return e.transmit(false, command, params...)
}

// sendText sends a command whose last param is free text.
func (e *Encoder) sendText(command string, params ...string) error {
	return e.transmit(true, command, params...)
}

func (e *Encoder) transmit(trailing bool, command string, params ...string) error {
	line, err := e.encode(trailing, command, params...)
	if err != nil {
		return e.reject(command, err)
	}
	return e.sender.SendLine(line)
}

func (e *Encoder) reject(command string, err error) error {
	if e.onReject != nil {
		e.onReject(command, err)
	}
	return err
}

// encodedLen is the length of the rendered line including CRLF.
func encodedLen(trailing bool, command string, params []string) int {
	n := len(command) + 2
	for i, p := range params {
		n += 1 + len(p)
		last := i == len(params)-1
		if last && (trailing || p == "" || p[0] == ':' || strings.IndexByte(p, ' ') >= 0) {
			n++
		}
	}
	return n
}

func tooLong(n, limit int) error {
	return fmt.Errorf("%w: %d bytes, limit %d", ErrMessageTooLong, n, limit)
}

// checkTarget validates a single-word argument such as a channel or nick.
func checkTarget(what, s string) error {
	if s == "" {
		return invalidArgument("empty %s", what)
	}
	if strings.ContainsAny(s, " \x00\r\n") {
		return invalidArgument("%s %q contains a space or control character", what, s)
	}
	return nil
}

// checkText validates free text, which may contain spaces but not line breaks.
func checkText(s string) error {
	if strings.ContainsAny(s, "\x00\r\n") {
		return invalidArgument("text contains a line break or NUL")
	}
	return nil
}
