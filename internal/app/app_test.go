package app

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ircsession/internal/config"
	"github.com/vovakirdan/ircsession/internal/core"
	"github.com/vovakirdan/ircsession/internal/metrics"
)

type lines struct {
	mu   sync.Mutex
	sent []string
}

func (l *lines) SendLine(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent = append(l.sent, line)
	return nil
}

func registerWith(t *testing.T, irc config.IRCConfig, opts ...core.EncoderOption) []string {
	t.Helper()

	rec := &lines{}
	nop := zerolog.Nop()
	a := &App{
		cfg:     &config.Config{IRC: irc},
		encoder: core.NewEncoder(rec, opts...),
		metrics: metrics.New(),
		log:     &nop,
	}

	var failures []*core.ObserverFailure
	s := core.NewSession(core.Self{Nick: "bob"}, &core.Handlers{OnRegistered: a.onRegistered},
		core.WithFailureHandler(func(f *core.ObserverFailure) { failures = append(failures, f) }))
	s.Connected()
	s.Handle(&core.RawMessage{Command: "001", Params: []string{"bob", "Welcome"}})

	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	return rec.sent
}

func TestOnRegisteredIdentifiesAndJoins(t *testing.T) {
	sent := registerWith(t, config.IRCConfig{
		Channels:         []string{"#a", "#b"},
		NickServPassword: "hunter2",
	})

	want := []string{"PRIVMSG NickServ :IDENTIFY hunter2", "JOIN #a,#b"}
	if len(sent) != len(want) {
		t.Fatalf("expected %q, got %q", want, sent)
	}
	for i := range want {
		if sent[i] != want[i] {
			t.Fatalf("expected %q, got %q", want, sent)
		}
	}
}

func TestOnRegisteredSplitsLongJoin(t *testing.T) {
	sent := registerWith(t, config.IRCConfig{
		Channels: []string{"#aaaaaaaa", "#bbbbbbbb"},
	}, core.WithLineLimit(20))

	if len(sent) != 2 || sent[0] != "JOIN #aaaaaaaa" || sent[1] != "JOIN #bbbbbbbb" {
		t.Fatalf("unexpected lines: %q", sent)
	}
}

func TestOnRegisteredWithoutChannels(t *testing.T) {
	if sent := registerWith(t, config.IRCConfig{}); len(sent) != 0 {
		t.Fatalf("expected nothing sent, got %q", sent)
	}
}

func TestNewWiresComponents(t *testing.T) {
	cfg := config.Default()
	cfg.Transcript.DatabasePath = filepath.Join(t.TempDir(), "transcript.db")
	nop := zerolog.Nop()

	a, err := New(&cfg, &nop)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(a.cleanup)

	if a.Session() == nil || a.Encoder() == nil || a.store == nil {
		t.Fatal("expected session, encoder and store to be wired")
	}
	if a.Session().Status() != core.StatusDisconnected {
		t.Fatalf("unexpected status: %v", a.Session().Status())
	}
	// Nothing is connected yet.
	if err := a.Encoder().Join("#go", ""); err == nil {
		t.Fatal("expected join to fail without a connection")
	}
}

func TestNewRequiresJWTSecretWithPassword(t *testing.T) {
	cfg := config.Default()
	cfg.Transcript.Enabled = false
	cfg.HTTP.PasswordHash = "$2a$10$abcdefghijklmnopqrstuv"
	nop := zerolog.Nop()

	if _, err := New(&cfg, &nop); err == nil {
		t.Fatal("expected error without jwt secret")
	}
}
