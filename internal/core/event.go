package core

import "time"

// EventKind identifies what happened in the session.
type EventKind int

const (
	// EventConnected is emitted when the transport established a connection.
	EventConnected EventKind = iota
	// EventRegistered is emitted on the welcome reply; Nick is the nick the server assigned.
	EventRegistered
	// EventSelfJoined is emitted when we join a channel.
	EventSelfJoined
	// EventUserJoined is emitted when another user joins a tracked channel.
	EventUserJoined
	// EventSelfParted is emitted when we leave or are kicked from a channel.
	EventSelfParted
	// EventUserParted is emitted when another user leaves or is kicked from a channel.
	EventUserParted
	// EventNickChanged is emitted once per rename, after every roster was updated.
	EventNickChanged
	// EventUserQuit is emitted once per quit, after the user left every channel.
	EventUserQuit
	// EventTopicChanged is emitted on TOPIC and on topic replies.
	EventTopicChanged
	// EventChannelUsersKnown is emitted when a names listing has been applied.
	EventChannelUsersKnown
	// EventModeChanged is emitted on channel mode changes.
	EventModeChanged
	// EventMessage is emitted for PRIVMSG.
	EventMessage
	// EventNotice is emitted for NOTICE.
	EventNotice
	// EventDisconnected is emitted after the session state was cleared.
	EventDisconnected
	// EventRaw carries any message the session does not interpret.
	EventRaw
)

var eventKindNames = [...]string{
	EventConnected:         "connected",
	EventRegistered:        "registered",
	EventSelfJoined:        "self_joined",
	EventUserJoined:        "user_joined",
	EventSelfParted:        "self_parted",
	EventUserParted:        "user_parted",
	EventNickChanged:       "nick_changed",
	EventUserQuit:          "user_quit",
	EventTopicChanged:      "topic_changed",
	EventChannelUsersKnown: "channel_users_known",
	EventModeChanged:       "mode_changed",
	EventMessage:           "message",
	EventNotice:            "notice",
	EventDisconnected:      "disconnected",
	EventRaw:               "raw",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// Event describes one semantic change. Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind
	Time time.Time

	// Channel is the display name of the channel the event concerns.
	Channel string
	// Nick is the subject of the event.
	Nick   string
	Prefix Prefix
	// Self is set when the subject is the session's own user.
	Self bool

	OldNick string
	NewNick string

	// Target is the recipient of a message or notice as sent.
	Target  string
	Text    string
	Private bool
	Action  bool

	Reason string
	Kicked bool
	By     string

	Topic    string
	HasTopic bool
	Setter   string
	// Reply is set when the topic came from a server reply rather than a change.
	Reply bool

	Members  []Member
	Channels []string
	Modes    []ModeChange

	Raw *RawMessage
}

// ModeChange is one applied channel mode letter.
type ModeChange struct {
	Add   bool
	Mode  byte
	Param string
}
