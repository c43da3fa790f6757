// Package config loads the process configuration: a YAML file with
// environment-variable overrides for the values that differ per deployment.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Venue struct {
		Target           string `yaml:"target"`
		EventSource      string `yaml:"event_source"`
		ScanInterval     string `yaml:"scan_interval"`
		ScanLimit        int    `yaml:"scan_limit"`
		MaxEventAge      string `yaml:"max_event_age"`
		Cooldown         string `yaml:"cooldown"`
		MaxErrors        int    `yaml:"max_consecutive_errors"`
		ReconnectDelay   string `yaml:"reconnect_delay"`
		ReconnectRetries int    `yaml:"reconnect_retries"`
	} `yaml:"venue"`

	Accounts struct {
		File string `yaml:"file"`
	} `yaml:"accounts"`

	Oracle struct {
		Responder       string `yaml:"responder"`
		ResponderSender string `yaml:"responder_sender"`
		Identity        string `yaml:"identity"`
		ResearchWindow  string `yaml:"research_window"`
		SettleDelay     string `yaml:"settle_delay"`
		Attempts        int    `yaml:"attempts"`
		RetryGap        string `yaml:"retry_gap"`
		FetchLimit      int    `yaml:"fetch_limit"`
	} `yaml:"oracle"`

	Cache struct {
		Backend  string `yaml:"backend"`
		File     string `yaml:"file"`
		RedisURL string `yaml:"redis_url"`
		MySQLDSN string `yaml:"mysql_dsn"`
	} `yaml:"cache"`

	Submit struct {
		BatchSize     int    `yaml:"batch_size"`
		BatchDelay    string `yaml:"batch_delay"`
		IdentityDelay string `yaml:"identity_delay"`
		RatePause     string `yaml:"rate_pause"`
		ScanLimit     int    `yaml:"scan_limit"`
	} `yaml:"submit"`

	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`

	Debug bool `yaml:"debug"`
}

// Load reads YAML config from path, then applies env overrides and defaults.
// A missing file is fine when the env carries the required values.
func Load(path string) (Config, error) {
	var cfg Config

	raw, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	cfg.Venue.Target = getenv("QUIZSENTRY_VENUE", cfg.Venue.Target)
	cfg.Venue.EventSource = getenv("QUIZSENTRY_EVENT_SOURCE", cfg.Venue.EventSource)
	cfg.Accounts.File = getenv("QUIZSENTRY_ACCOUNTS_FILE", cfg.Accounts.File)
	cfg.Oracle.Responder = getenv("QUIZSENTRY_ORACLE", cfg.Oracle.Responder)
	cfg.Oracle.ResponderSender = getenv("QUIZSENTRY_ORACLE_SENDER", cfg.Oracle.ResponderSender)
	cfg.Cache.Backend = getenv("QUIZSENTRY_CACHE_BACKEND", cfg.Cache.Backend)
	cfg.Cache.RedisURL = getenv("REDIS_URL", cfg.Cache.RedisURL)
	cfg.Cache.MySQLDSN = getenv("MYSQL_DSN", cfg.Cache.MySQLDSN)
	cfg.Metrics.Addr = getenv("QUIZSENTRY_METRICS_ADDR", cfg.Metrics.Addr)

	if cfg.Accounts.File == "" {
		cfg.Accounts.File = "accounts.json"
	}
	if cfg.Cache.File == "" {
		cfg.Cache.File = "questions.json"
	}

	if cfg.Venue.Target == "" {
		return cfg, fmt.Errorf("venue.target is required")
	}
	if cfg.Venue.EventSource == "" {
		return cfg, fmt.Errorf("venue.event_source is required")
	}
	if cfg.Oracle.Responder == "" {
		return cfg, fmt.Errorf("oracle.responder is required")
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback when empty or
// malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
