package http

import (
	"time"

	"github.com/vovakirdan/ircsession/internal/core"
	"github.com/vovakirdan/ircsession/internal/proto"
	"github.com/vovakirdan/ircsession/internal/store"
)

func outboundFromEvent(ev core.Event) proto.Outbound {
	data := proto.EventData{
		TS:       unixOrZero(ev.Time),
		Channel:  ev.Channel,
		Nick:     ev.Nick,
		Self:     ev.Self,
		OldNick:  ev.OldNick,
		NewNick:  ev.NewNick,
		Target:   ev.Target,
		Text:     ev.Text,
		Private:  ev.Private,
		Action:   ev.Action,
		Reason:   ev.Reason,
		Kicked:   ev.Kicked,
		By:       ev.By,
		Setter:   ev.Setter,
		Reply:    ev.Reply,
		Members:  membersToProto(ev.Members),
		Channels: ev.Channels,
	}
	if ev.Kind == core.EventTopicChanged {
		topic := ev.Topic
		data.Topic = &topic
	}
	for _, m := range ev.Modes {
		data.Modes = append(data.Modes, proto.Mode{Add: m.Add, Mode: string(m.Mode), Param: m.Param})
	}
	if ev.Kind == core.EventRaw && ev.Raw != nil {
		data.Command = ev.Raw.Command
		data.Params = ev.Raw.Params
		data.Nick = ev.Raw.Prefix.Nick
	}

	return proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: ev.Kind.String(),
		Data:  data,
	}
}

func helloFromSession(s *core.Session) proto.Outbound {
	hello := proto.Hello{
		Protocol: proto.ProtocolVersion,
		Status:   s.Status().String(),
		Nick:     s.Self().Nick,
	}
	for ch := range s.Channels() {
		hello.Channels = append(hello.Channels, ch.Name)
	}
	return proto.Outbound{Type: proto.OutboundTypeHello, Data: hello}
}

func channelToProto(ch core.Channel) proto.Channel {
	return proto.Channel{
		Name:        ch.Name,
		Topic:       ch.Topic,
		HasTopic:    ch.HasTopic,
		TopicSetter: ch.TopicSetter,
		TopicTS:     unixOrZero(ch.TopicTime),
		Members:     membersToProto(ch.Members),
	}
}

func userToProto(u core.User) proto.User {
	return proto.User{
		Nick:     u.Nick,
		User:     u.User,
		Host:     u.Host,
		Channels: u.Channels,
	}
}

func membersToProto(members []core.Member) []proto.Member {
	if members == nil {
		return nil
	}
	out := make([]proto.Member, 0, len(members))
	for _, m := range members {
		out = append(out, proto.Member{Nick: m.Nick, Prefix: m.Prefix})
	}
	return out
}

func entryToProto(e *store.Entry) proto.Entry {
	return proto.Entry{
		ID:     e.ID,
		Kind:   string(e.Kind),
		Target: e.Target,
		Nick:   e.Nick,
		Text:   e.Text,
		TS:     unixOrZero(e.CreatedAt),
	}
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
