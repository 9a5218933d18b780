package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the bot configuration loaded from a TOML file with
// environment variable overrides applied on top.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Playlists   PlaylistsConfig   `toml:"playlists"`
	Chat        ChatConfig        `toml:"chat"`
	Retry       RetryConfig       `toml:"retry"`
	Schedule    ScheduleConfig    `toml:"schedule"`
}

// CredentialsConfig contains the Spotify app credentials and the long-lived refresh token.
type CredentialsConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RefreshToken string `toml:"refresh_token"`
}

// PlaylistsConfig identifies the two playlists the bot operates on.
type PlaylistsConfig struct {
	CollaborativeID string `toml:"collaborative_id"`
	DiscoveryID     string `toml:"discovery_id"`
}

// ChatConfig contains the chat-platform side of the ingest surface.
type ChatConfig struct {
	ChannelID string `toml:"channel_id"`
}

// RetryConfig contains retry policy parameters for the API client.
type RetryConfig struct {
	MaxAttempts int   `toml:"max_attempts"`
	BaseDelayMS int64 `toml:"base_delay_ms"`
	MaxDelayMS  int64 `toml:"max_delay_ms"`
}

// ScheduleConfig contains the recurring discovery schedule.
type ScheduleConfig struct {
	Cron string `toml:"cron"`
}

// envOverrides maps environment variable names onto string config fields.
func (c *Config) envOverrides() map[string]*string {
	return map[string]*string{
		"SPOTIFY_CLIENT_ID":         &c.Credentials.ClientID,
		"SPOTIFY_CLIENT_SECRET":     &c.Credentials.ClientSecret,
		"SPOTIFY_REFRESH_TOKEN":     &c.Credentials.RefreshToken,
		"COLLABORATIVE_PLAYLIST_ID": &c.Playlists.CollaborativeID,
		"DISCOVERY_PLAYLIST_ID":     &c.Playlists.DiscoveryID,
		"TARGET_CHANNEL_ID":         &c.Chat.ChannelID,
		"WEEKLY_SCHEDULE_CRON":      &c.Schedule.Cron,
	}
}

// applyEnv overwrites config values with environment variables when set.
func (c *Config) applyEnv() error {
	for name, field := range c.envOverrides() {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}

	if v := os.Getenv("MAX_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: MAX_RETRY_ATTEMPTS=%q", ErrInvalidConfig, v)
		}
		c.Retry.MaxAttempts = n
	}
	if v := os.Getenv("RETRY_BASE_DELAY_MS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: RETRY_BASE_DELAY_MS=%q", ErrInvalidConfig, v)
		}
		c.Retry.BaseDelayMS = n
	}
	if v := os.Getenv("RETRY_MAX_DELAY_MS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: RETRY_MAX_DELAY_MS=%q", ErrInvalidConfig, v)
		}
		c.Retry.MaxDelayMS = n
	}

	return nil
}

// Validate checks that every field the bot cannot run without is set.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"credentials.client_id", c.Credentials.ClientID},
		{"credentials.client_secret", c.Credentials.ClientSecret},
		{"credentials.refresh_token", c.Credentials.RefreshToken},
		{"playlists.collaborative_id", c.Playlists.CollaborativeID},
		{"playlists.discovery_id", c.Playlists.DiscoveryID},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("%w: %s is required", ErrMissingCredentials, f.name)
		}
	}

	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("%w: retry.max_attempts must be greater than 0", ErrInvalidConfig)
	}
	if c.Retry.BaseDelayMS <= 0 {
		return fmt.Errorf("%w: retry.base_delay_ms must be greater than 0", ErrInvalidConfig)
	}
	if c.Retry.MaxDelayMS < c.Retry.BaseDelayMS {
		return fmt.Errorf("%w: retry.max_delay_ms must be >= retry.base_delay_ms", ErrInvalidConfig)
	}
	if c.Schedule.Cron == "" {
		return fmt.Errorf("%w: schedule.cron is required", ErrInvalidConfig)
	}

	return nil
}

// LoadConfig reads a TOML configuration file, then applies .env and
// environment variable overrides. The file may be absent as long as the
// environment provides every required value.
func LoadConfig(path string) (*Config, error) {
	// Missing .env is fine, env vars may be set directly
	_ = godotenv.Load()

	config := DefaultConfig()

	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
