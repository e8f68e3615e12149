package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if resolved != path {
		t.Fatalf("unexpected path: %s", resolved)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config to be written: %v", err)
	}

	def := Default()
	if cfg.IRC.Server != def.IRC.Server || cfg.HTTP.Addr != def.HTTP.Addr || cfg.IRC.ReconnectDelay != def.IRC.ReconnectDelay {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
log_level: debug
irc:
  server: irc.example.net:6667
  tls: false
  nickname: filenick
  channels: ["#go", "#rust"]
  send_rate: 0.5
  reconnect_delay: 10s
http:
  addr: ":9090"
transcript:
  enabled: false
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("IRCSESSION_IRC_NICKNAME", "envnick")
	t.Setenv("IRCSESSION_HTTP_SAY_PER_MINUTE", "5")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LogLevel != "debug" || cfg.IRC.Server != "irc.example.net:6667" || cfg.IRC.TLS {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.IRC.Nickname != "envnick" || cfg.HTTP.SayPerMinute != 5 {
		t.Fatalf("env values not applied: nick=%s say=%d", cfg.IRC.Nickname, cfg.HTTP.SayPerMinute)
	}
	if len(cfg.IRC.Channels) != 2 || cfg.IRC.Channels[1] != "#rust" {
		t.Fatalf("unexpected channels: %v", cfg.IRC.Channels)
	}
	if cfg.IRC.SendRate != 0.5 || cfg.IRC.ReconnectDelay != 10*time.Second {
		t.Fatalf("unexpected irc tuning: rate=%v delay=%v", cfg.IRC.SendRate, cfg.IRC.ReconnectDelay)
	}
	if cfg.HTTP.Addr != ":9090" || cfg.Transcript.Enabled {
		t.Fatalf("unexpected http/transcript config: %+v %+v", cfg.HTTP, cfg.Transcript)
	}
	// Untouched keys keep their defaults.
	if cfg.IRC.MaxLineLength != 512 || cfg.HTTP.TokenTTL != 24*time.Hour {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{
		IRC:  IRCConfig{Nickname: "robert", Channels: []string{"#a"}},
		HTTP: HTTPConfig{Addr: ":1234"},
	})

	if cfg.IRC.Nickname != "robert" || cfg.HTTP.Addr != ":1234" || len(cfg.IRC.Channels) != 1 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.IRC.Server != Default().IRC.Server || cfg.LogLevel != "info" {
		t.Fatalf("zero values must not override: %+v", cfg)
	}
}
