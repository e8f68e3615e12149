package http

import (
	"net/http"
	"strings"
	"testing"

	"github.com/vovakirdan/ircsession/internal/proto"
)

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	status, body := env.do(t, http.MethodGet, "/health", "", nil)
	if status != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected health response: %d %q", status, body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	status, body := env.do(t, http.MethodGet, "/metrics", "", nil)
	if status != http.StatusOK {
		t.Fatalf("unexpected status: %d", status)
	}
	if !strings.Contains(string(body), `session_events_dispatched{kind="registered"} 1`) {
		t.Fatalf("expected dispatched counter in output:\n%s", body)
	}
}

func TestSelfAndChannelsAPI(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	feedLine(env.session, ":bob!b@h JOIN #Go")
	feedLine(env.session, ":irc.example.net 353 bob = #go :bob @carol!c@example.org +alice")
	feedLine(env.session, ":irc.example.net 366 bob #go :End of /NAMES list.")
	feedLine(env.session, ":carol!c@h TOPIC #go :release day")

	status, body := env.do(t, http.MethodGet, "/api/self", "", nil)
	if status != http.StatusOK {
		t.Fatalf("unexpected status: %d", status)
	}
	var self proto.Self
	decode(t, body, &self)
	if self.Nick != "bob" || self.Status != "registered" || self.Realname != "Bob" {
		t.Fatalf("unexpected self: %+v", self)
	}

	status, body = env.do(t, http.MethodGet, "/api/channels", "", nil)
	if status != http.StatusOK {
		t.Fatalf("unexpected status: %d", status)
	}
	var list struct {
		Channels []proto.Channel `json:"channels"`
	}
	decode(t, body, &list)
	if len(list.Channels) != 1 || list.Channels[0].Name != "#Go" {
		t.Fatalf("unexpected channels: %+v", list.Channels)
	}

	status, body = env.do(t, http.MethodGet, "/api/channels/%23GO", "", nil)
	if status != http.StatusOK {
		t.Fatalf("unexpected status: %d %s", status, body)
	}
	var ch proto.Channel
	decode(t, body, &ch)
	if ch.Topic != "release day" || ch.TopicSetter != "carol" || len(ch.Members) != 3 {
		t.Fatalf("unexpected channel: %+v", ch)
	}
	prefixes := map[string]string{}
	for _, m := range ch.Members {
		prefixes[m.Nick] = m.Prefix
	}
	if prefixes["carol"] != "@" || prefixes["alice"] != "+" || prefixes["bob"] != "" {
		t.Fatalf("unexpected prefixes: %v", prefixes)
	}

	if status, _ := env.do(t, http.MethodGet, "/api/channels/%23nowhere", "", nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown channel, got %d", status)
	}

	status, body = env.do(t, http.MethodGet, "/api/users/CAROL", "", nil)
	if status != http.StatusOK {
		t.Fatalf("unexpected status: %d", status)
	}
	var u proto.User
	decode(t, body, &u)
	if u.Nick != "carol" || u.Host != "example.org" || len(u.Channels) != 1 {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestHistoryAPI(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	feedLine(env.session, ":bob!b@h JOIN #go")
	feedLine(env.session, ":alice!a@h JOIN #go")
	feedLine(env.session, ":alice!a@h PRIVMSG #go :first")
	feedLine(env.session, ":alice!a@h PRIVMSG #go :second")

	status, body := env.do(t, http.MethodGet, "/api/channels/%23GO/history?limit=2", "", nil)
	if status != http.StatusOK {
		t.Fatalf("unexpected status: %d %s", status, body)
	}
	var history struct {
		Entries []proto.Entry `json:"entries"`
	}
	decode(t, body, &history)
	if len(history.Entries) != 2 || history.Entries[0].Text != "first" || history.Entries[1].Text != "second" {
		t.Fatalf("unexpected history: %+v", history.Entries)
	}

	if status, _ := env.do(t, http.MethodGet, "/api/channels/%23go/history?limit=zero", "", nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid limit, got %d", status)
	}
}

func TestTargetsAPI(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	status, body := env.do(t, http.MethodGet, "/api/targets", "", nil)
	if status != http.StatusOK {
		t.Fatalf("unexpected status: %d %s", status, body)
	}
	var list struct {
		Targets []string `json:"targets"`
	}
	decode(t, body, &list)
	if list.Targets == nil || len(list.Targets) != 0 {
		t.Fatalf("expected an empty target list, got %v", list.Targets)
	}

	feedLine(env.session, ":bob!b@h JOIN #go")
	feedLine(env.session, ":alice!a@h PRIVMSG #go :hello")
	feedLine(env.session, ":alice!a@h PRIVMSG bob :psst")

	_, body = env.do(t, http.MethodGet, "/api/targets", "", nil)
	decode(t, body, &list)
	if len(list.Targets) != 2 || list.Targets[0] != "#go" || list.Targets[1] != "alice" {
		t.Fatalf("unexpected targets: %v", list.Targets)
	}
}

func TestPingDefaultsToken(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	if status, body := env.do(t, http.MethodPost, "/api/ping", "", proto.PingRequest{}); status != http.StatusAccepted {
		t.Fatalf("unexpected status: %d %s", status, body)
	}
	lines := env.sent.all()
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "PING ") || len(lines[0]) <= len("PING ") {
		t.Fatalf("expected a PING with a generated token, got %q", lines)
	}
}

func TestCommandEndpoints(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   string
		line   string
	}{
		{"say", "/api/say", proto.SayRequest{Target: "#go", Text: "hi there"}, http.StatusAccepted, "", "PRIVMSG #go :hi there"},
		{"notice", "/api/say", proto.SayRequest{Target: "alice", Text: "psst", Notice: true}, http.StatusAccepted, "", "NOTICE alice :psst"},
		{"action", "/api/say", proto.SayRequest{Target: "#go", Text: "waves", Action: true}, http.StatusAccepted, "", "PRIVMSG #go :\x01ACTION waves\x01"},
		{"join", "/api/join", proto.JoinRequest{Channel: "#rust"}, http.StatusAccepted, "", "JOIN #rust"},
		{"part", "/api/part", proto.PartRequest{Channel: "#rust", Reason: "bye"}, http.StatusAccepted, "", "PART #rust :bye"},
		{"topic", "/api/topic", proto.TopicRequest{Channel: "#go", Topic: ""}, http.StatusAccepted, "", "TOPIC #go :"},
		{"nick", "/api/nick", proto.NickRequest{Nick: "robert"}, http.StatusAccepted, "", "NICK robert"},
		{"topic query", "/api/topic", proto.TopicRequest{Channel: "#go", Query: true}, http.StatusAccepted, "", "TOPIC #go"},
		{"names", "/api/names", proto.NamesRequest{Channel: "#go"}, http.StatusAccepted, "", "NAMES #go"},
		{"ping", "/api/ping", proto.PingRequest{Token: "lag-1"}, http.StatusAccepted, "", "PING lag-1"},
		{"raw", "/api/raw", proto.RawRequest{Line: "WHO #go"}, http.StatusAccepted, "", "WHO #go"},
		{"raw multiline", "/api/raw", proto.RawRequest{Line: "WHO #go\r\nQUIT"}, http.StatusBadRequest, "invalid_argument", ""},
		{"names without channel", "/api/names", proto.NamesRequest{}, http.StatusBadRequest, "invalid_argument", ""},
		{"empty target", "/api/say", proto.SayRequest{Target: "", Text: "hi"}, http.StatusBadRequest, "invalid_argument", ""},
		{"target with space", "/api/say", proto.SayRequest{Target: "#a b", Text: "hi"}, http.StatusBadRequest, "invalid_argument", ""},
		{"too long", "/api/say", proto.SayRequest{Target: "#go", Text: strings.Repeat("a", 600)}, http.StatusRequestEntityTooLarge, "message_too_long", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(env.sent.all())
			status, body := env.do(t, http.MethodPost, tt.path, "", tt.body)
			if status != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, status, body)
			}

			lines := env.sent.all()[before:]
			if tt.line == "" {
				var resp ErrorResponse
				decode(t, body, &resp)
				if resp.Code != tt.code {
					t.Fatalf("expected code %q, got %q", tt.code, resp.Code)
				}
				if len(lines) != 0 {
					t.Fatalf("nothing must be sent, got %q", lines)
				}
				return
			}
			if len(lines) != 1 || lines[0] != tt.line {
				t.Fatalf("expected %q, got %q", tt.line, lines)
			}
		})
	}
}

func TestCommandRateLimit(t *testing.T) {
	env := newTestEnv(t, envOptions{sayPerMinute: 2})

	req := proto.SayRequest{Target: "#go", Text: "spam"}
	for i := range 2 {
		if status, body := env.do(t, http.MethodPost, "/api/say", "", req); status != http.StatusAccepted {
			t.Fatalf("request %d: unexpected status %d: %s", i, status, body)
		}
	}
	if status, _ := env.do(t, http.MethodPost, "/api/say", "", req); status != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", status)
	}

	// Reads are not limited.
	if status, _ := env.do(t, http.MethodGet, "/api/self", "", nil); status != http.StatusOK {
		t.Fatalf("expected reads to pass, got %d", status)
	}
}

func TestInvalidRequestBody(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	status, _ := env.do(t, http.MethodPost, "/api/say", "", "not an object")
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}
