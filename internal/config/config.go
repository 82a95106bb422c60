package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// ErrMissingDatabaseURL is returned by Validate when no DSN is configured.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")

const (
	defaultServerPort       = "8080"
	defaultUserAgent        = "m3uvault/1.0"
	defaultTimeout          = 30 * time.Second
	defaultMaxPlaylistBytes = 64 << 20
)

// Config holds application configuration (DB, cache, fetcher and parser settings).
type Config struct {
	DatabaseURL      string        `yaml:"database_url" env:"DATABASE_URL"`
	RedisURL         string        `yaml:"redis_url" env:"REDIS_URL"`
	ServerPort       string        `yaml:"server_port" env:"SERVER_PORT"`
	UserAgent        string        `yaml:"user_agent" env:"FETCHER_USER_AGENT"`
	Timeout          time.Duration `yaml:"timeout" env:"FETCHER_TIMEOUT"`
	MaxPlaylistBytes int64         `yaml:"max_playlist_bytes" env:"MAX_PLAYLIST_BYTES"`
	AcceptPaths      bool          `yaml:"accept_paths" env:"M3U_ACCEPT_PATHS"`
}

// Default returns a Config with every optional field at its default.
func Default() *Config {
	return &Config{
		ServerPort:       defaultServerPort,
		UserAgent:        defaultUserAgent,
		Timeout:          defaultTimeout,
		MaxPlaylistBytes: defaultMaxPlaylistBytes,
		AcceptPaths:      true,
	}
}

// Load builds config from environment variables.
// If DATABASE_URL is not set, Load tries to load .env.local and .env from the current directory.
// Malformed optional values fall back to their defaults.
func Load() (*Config, error) {
	if os.Getenv("DATABASE_URL") == "" {
		loadEnvFiles()
	}
	c := Default()
	c.DatabaseURL = os.Getenv("DATABASE_URL")
	c.RedisURL = os.Getenv("REDIS_URL")
	if s := os.Getenv("SERVER_PORT"); s != "" {
		c.ServerPort = s
	}
	if s := os.Getenv("FETCHER_USER_AGENT"); s != "" {
		c.UserAgent = s
	}
	if s := os.Getenv("FETCHER_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			c.Timeout = d
		}
	}
	if s := os.Getenv("MAX_PLAYLIST_BYTES"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
			c.MaxPlaylistBytes = n
		}
	}
	if s := os.Getenv("M3U_ACCEPT_PATHS"); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			c.AcceptPaths = b
		}
	}
	return c, nil
}

// Validate checks the settings required to run the server.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	return nil
}
