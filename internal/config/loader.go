package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "IRCSESSION"
	envConfigDefaultPath = "IRCSESSION_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
)

// Load builds configuration from defaults, optional config file, env vars, and returns the resolved path.
// Precedence: defaults < config file < env vars < caller overrides.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
			if readErr := v.ReadInConfig(); readErr != nil && logger != nil {
				logger.Warn().Err(readErr).Str("path", configPath).Msg("failed to read config after writing default")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, configPath, nil
}

// setDefaults registers every key so env vars bind even without a config file.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)

	v.SetDefault("irc.server", cfg.IRC.Server)
	v.SetDefault("irc.tls", cfg.IRC.TLS)
	v.SetDefault("irc.insecure_skip_verify", cfg.IRC.InsecureSkipVerify)
	v.SetDefault("irc.password", cfg.IRC.Password)
	v.SetDefault("irc.nickname", cfg.IRC.Nickname)
	v.SetDefault("irc.username", cfg.IRC.Username)
	v.SetDefault("irc.realname", cfg.IRC.Realname)
	v.SetDefault("irc.channels", cfg.IRC.Channels)
	v.SetDefault("irc.nickserv_password", cfg.IRC.NickServPassword)
	v.SetDefault("irc.quit_message", cfg.IRC.QuitMessage)
	v.SetDefault("irc.fallback_encoding", cfg.IRC.FallbackEncoding)
	v.SetDefault("irc.max_line_length", cfg.IRC.MaxLineLength)
	v.SetDefault("irc.send_rate", cfg.IRC.SendRate)
	v.SetDefault("irc.send_burst", cfg.IRC.SendBurst)
	v.SetDefault("irc.reconnect_delay", cfg.IRC.ReconnectDelay)
	v.SetDefault("irc.debug", cfg.IRC.Debug)

	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("http.read_header_timeout", cfg.HTTP.ReadHeaderTimeout)
	v.SetDefault("http.shutdown_timeout", cfg.HTTP.ShutdownTimeout)
	v.SetDefault("http.password_hash", cfg.HTTP.PasswordHash)
	v.SetDefault("http.jwt_secret", cfg.HTTP.JWTSecret)
	v.SetDefault("http.jwt_issuer", cfg.HTTP.JWTIssuer)
	v.SetDefault("http.jwt_audience", cfg.HTTP.JWTAudience)
	v.SetDefault("http.token_ttl", cfg.HTTP.TokenTTL)
	v.SetDefault("http.say_per_minute", cfg.HTTP.SayPerMinute)

	v.SetDefault("transcript.enabled", cfg.Transcript.Enabled)
	v.SetDefault("transcript.database_path", cfg.Transcript.DatabasePath)
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
