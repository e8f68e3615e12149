package proto

const (
	ProtocolVersion = 1

	OutboundTypeHello = "hello"
	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// Outbound is the envelope for messages sent to feed subscribers.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Hello is the first frame of every feed connection.
type Hello struct {
	Protocol int      `json:"protocol"`
	Status   string   `json:"status"`
	Nick     string   `json:"nick,omitempty"`
	Channels []string `json:"channels,omitempty"`
}

// EventData is the payload of an event frame. Only fields relevant to
// the event are set.
type EventData struct {
	TS       int64    `json:"ts"`
	Channel  string   `json:"channel,omitempty"`
	Nick     string   `json:"nick,omitempty"`
	Self     bool     `json:"self,omitempty"`
	OldNick  string   `json:"old_nick,omitempty"`
	NewNick  string   `json:"new_nick,omitempty"`
	Target   string   `json:"target,omitempty"`
	Text     string   `json:"text,omitempty"`
	Private  bool     `json:"private,omitempty"`
	Action   bool     `json:"action,omitempty"`
	Reason   string   `json:"reason,omitempty"`
	Kicked   bool     `json:"kicked,omitempty"`
	By       string   `json:"by,omitempty"`
	Topic    *string  `json:"topic,omitempty"`
	Setter   string   `json:"setter,omitempty"`
	Reply    bool     `json:"reply,omitempty"`
	Members  []Member `json:"members,omitempty"`
	Channels []string `json:"channels,omitempty"`
	Modes    []Mode   `json:"modes,omitempty"`
	Command  string   `json:"command,omitempty"`
	Params   []string `json:"params,omitempty"`
}

// Member is a channel member with its membership prefix.
type Member struct {
	Nick   string `json:"nick"`
	Prefix string `json:"prefix,omitempty"`
}

// Mode is one applied channel mode letter.
type Mode struct {
	Add   bool   `json:"add"`
	Mode  string `json:"mode"`
	Param string `json:"param,omitempty"`
}

// Channel is a channel snapshot.
type Channel struct {
	Name        string   `json:"name"`
	Topic       string   `json:"topic"`
	HasTopic    bool     `json:"has_topic"`
	TopicSetter string   `json:"topic_setter,omitempty"`
	TopicTS     int64    `json:"topic_ts,omitempty"`
	Members     []Member `json:"members"`
}

// User is a user snapshot.
type User struct {
	Nick     string   `json:"nick"`
	User     string   `json:"user,omitempty"`
	Host     string   `json:"host,omitempty"`
	Channels []string `json:"channels"`
}

// Self describes the session's own identity and connection state.
type Self struct {
	Nick     string `json:"nick"`
	Username string `json:"username,omitempty"`
	Realname string `json:"realname,omitempty"`
	Status   string `json:"status"`
}

// Entry is one transcript line.
type Entry struct {
	ID     int64  `json:"id"`
	Kind   string `json:"kind"`
	Target string `json:"target"`
	Nick   string `json:"nick,omitempty"`
	Text   string `json:"text,omitempty"`
	TS     int64  `json:"ts"`
}

// SayRequest asks the session to send text to a channel or nick.
type SayRequest struct {
	Target string `json:"target"`
	Text   string `json:"text"`
	Notice bool   `json:"notice,omitempty"`
	Action bool   `json:"action,omitempty"`
}

// JoinRequest asks the session to join a channel.
type JoinRequest struct {
	Channel string `json:"channel"`
	Key     string `json:"key,omitempty"`
}

// PartRequest asks the session to leave a channel.
type PartRequest struct {
	Channel string `json:"channel"`
	Reason  string `json:"reason,omitempty"`
}

// TopicRequest sets or clears a channel topic. Query asks for the current
// topic instead.
type TopicRequest struct {
	Channel string `json:"channel"`
	Topic   string `json:"topic"`
	Query   bool   `json:"query,omitempty"`
}

// NamesRequest asks for a channel roster.
type NamesRequest struct {
	Channel string `json:"channel"`
}

// PingRequest sends a PING to the server.
type PingRequest struct {
	Token string `json:"token,omitempty"`
}

// RawRequest sends one unchecked protocol line.
type RawRequest struct {
	Line string `json:"line"`
}

// NickRequest asks the session to change its nick.
type NickRequest struct {
	Nick string `json:"nick"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
