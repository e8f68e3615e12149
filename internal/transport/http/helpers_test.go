package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ircsession/internal/auth"
	"github.com/vovakirdan/ircsession/internal/config"
	"github.com/vovakirdan/ircsession/internal/core"
	"github.com/vovakirdan/ircsession/internal/feed"
	"github.com/vovakirdan/ircsession/internal/metrics"
	"github.com/vovakirdan/ircsession/internal/store/sqlite"
	"github.com/vovakirdan/ircsession/internal/transcript"
)

type sentLines struct {
	mu    sync.Mutex
	lines []string
}

func (s *sentLines) SendLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
	return nil
}

func (s *sentLines) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

type envOptions struct {
	password     string
	sayPerMinute int
}

type testEnv struct {
	ts      *httptest.Server
	session *core.Session
	hub     *feed.Hub
	sent    *sentLines
}

// newTestEnv starts a server around a session registered as "bob".
func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	logger := zerolog.Nop()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.ApplySchema)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	hub := feed.NewHub(&logger)
	m := metrics.New()
	session := core.NewSession(core.Self{Nick: "bob", Username: "b", Realname: "Bob"},
		core.Listeners{m, hub, transcript.NewRecorder(st, &logger)})
	sent := &sentLines{}

	var hash string
	if opts.password != "" {
		hash, err = auth.HashPassword(opts.password)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
	}
	authService := auth.NewService(hash, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})

	server := NewServer(Deps{
		Session: session,
		Encoder: core.NewEncoder(sent),
		Hub:     hub,
		Entries: st,
		Auth:    authService,
		Metrics: m,
	}, &config.HTTPConfig{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		SayPerMinute:      opts.sayPerMinute,
	}, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	session.Connected()
	feedLine(session, ":irc.example.net 001 bob :Welcome")

	return &testEnv{ts: ts, session: session, hub: hub, sent: sent}
}

// feedLine hands a raw protocol line to the session.
func feedLine(s *core.Session, raw string) {
	m := &core.RawMessage{}
	if strings.HasPrefix(raw, ":") {
		src, rest, _ := strings.Cut(raw[1:], " ")
		m.Prefix = core.ParsePrefix(src)
		raw = rest
	}
	head, trailing, hasTrailing := strings.Cut(raw, " :")
	fields := strings.Fields(head)
	m.Command = strings.ToUpper(fields[0])
	m.Params = fields[1:]
	if hasTrailing {
		m.Params = append(m.Params, trailing)
	}
	s.Handle(m)
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func decode(t *testing.T, data []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
}
