package config

import "time"

// Config holds application configuration values.
type Config struct {
	LogLevel   string           `mapstructure:"log_level" yaml:"log_level"`
	LogFormat  string           `mapstructure:"log_format" yaml:"log_format"`
	IRC        IRCConfig        `mapstructure:"irc" yaml:"irc"`
	HTTP       HTTPConfig       `mapstructure:"http" yaml:"http"`
	Transcript TranscriptConfig `mapstructure:"transcript" yaml:"transcript"`
}

// IRCConfig describes the upstream server and our identity on it.
type IRCConfig struct {
	Server             string        `mapstructure:"server" yaml:"server"`
	TLS                bool          `mapstructure:"tls" yaml:"tls"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	Password           string        `mapstructure:"password" yaml:"password"`
	Nickname           string        `mapstructure:"nickname" yaml:"nickname"`
	Username           string        `mapstructure:"username" yaml:"username"`
	Realname           string        `mapstructure:"realname" yaml:"realname"`
	Channels           []string      `mapstructure:"channels" yaml:"channels"`
	NickServPassword   string        `mapstructure:"nickserv_password" yaml:"nickserv_password"`
	QuitMessage        string        `mapstructure:"quit_message" yaml:"quit_message"`
	FallbackEncoding   string        `mapstructure:"fallback_encoding" yaml:"fallback_encoding"`
	MaxLineLength      int           `mapstructure:"max_line_length" yaml:"max_line_length"`
	SendRate           float64       `mapstructure:"send_rate" yaml:"send_rate"`
	SendBurst          int           `mapstructure:"send_burst" yaml:"send_burst"`
	ReconnectDelay     time.Duration `mapstructure:"reconnect_delay" yaml:"reconnect_delay"`
	Debug              bool          `mapstructure:"debug" yaml:"debug"`
}

// HTTPConfig controls the event feed and API server.
type HTTPConfig struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	PasswordHash      string        `mapstructure:"password_hash" yaml:"password_hash"`
	JWTSecret         string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer         string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience       string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	TokenTTL          time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
	SayPerMinute      int           `mapstructure:"say_per_minute" yaml:"say_per_minute"`
}

// TranscriptConfig controls persistence of channel traffic.
type TranscriptConfig struct {
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "console",
		IRC: IRCConfig{
			Server:         "irc.libera.chat:6697",
			TLS:            true,
			Nickname:       "ircsession",
			Username:       "ircsession",
			Realname:       "ircsession",
			QuitMessage:    "bye",
			MaxLineLength:  512,
			SendRate:       2,
			SendBurst:      5,
			ReconnectDelay: 30 * time.Second,
		},
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   5 * time.Second,
			JWTIssuer:         "ircsession",
			JWTAudience:       "ircsession-api",
			TokenTTL:          24 * time.Hour,
			SayPerMinute:      30,
		},
		Transcript: TranscriptConfig{
			Enabled:      true,
			DatabasePath: "ircsession.db",
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.IRC.Server != "" {
		c.IRC.Server = other.IRC.Server
	}
	if other.IRC.Nickname != "" {
		c.IRC.Nickname = other.IRC.Nickname
	}
	if other.IRC.Username != "" {
		c.IRC.Username = other.IRC.Username
	}
	if other.IRC.Realname != "" {
		c.IRC.Realname = other.IRC.Realname
	}
	if len(other.IRC.Channels) > 0 {
		c.IRC.Channels = other.IRC.Channels
	}
	if other.HTTP.Addr != "" {
		c.HTTP.Addr = other.HTTP.Addr
	}
	if other.HTTP.ReadHeaderTimeout != 0 {
		c.HTTP.ReadHeaderTimeout = other.HTTP.ReadHeaderTimeout
	}
	if other.HTTP.ShutdownTimeout != 0 {
		c.HTTP.ShutdownTimeout = other.HTTP.ShutdownTimeout
	}
	if other.Transcript.DatabasePath != "" {
		c.Transcript.DatabasePath = other.Transcript.DatabasePath
	}
}
