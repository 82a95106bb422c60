package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	DatabaseURL      string `yaml:"database_url"`
	RedisURL         string `yaml:"redis_url"`
	ServerPort       string `yaml:"server_port"`
	UserAgent        string `yaml:"user_agent"`
	Timeout          string `yaml:"timeout"`
	MaxPlaylistBytes int64  `yaml:"max_playlist_bytes"`
	AcceptPaths      *bool  `yaml:"accept_paths"`
}

// LoadFromFile loads config from a YAML file. Missing keys keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	c := Default()
	c.DatabaseURL = f.DatabaseURL
	c.RedisURL = f.RedisURL
	if f.ServerPort != "" {
		c.ServerPort = f.ServerPort
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return nil, fmt.Errorf("timeout: %w", err)
		}
		c.Timeout = d
	}
	if f.MaxPlaylistBytes > 0 {
		c.MaxPlaylistBytes = f.MaxPlaylistBytes
	}
	if f.AcceptPaths != nil {
		c.AcceptPaths = *f.AcceptPaths
	}
	return c, nil
}
