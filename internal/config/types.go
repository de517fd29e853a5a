package config

import (
	"fmt"
	"strings"
	"time"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource

	// Files lists the config files that were read, user file first.
	Files []string
}

// Default values.
const (
	DefaultTasksFile    = "tasks.csv"
	DefaultOnCorrupt    = "abort"
	DefaultUpcomingDays = 7
	DefaultListenAddr   = "127.0.0.1:8765"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultSMTPPort     = 587
)

// Config holds the full configuration for tasklist.
type Config struct {
	// Task file
	TasksFile string `toml:"tasks_file"`
	Format    string `toml:"format"`
	OnCorrupt string `toml:"on_corrupt"`

	// Queries
	UpcomingDays int `toml:"upcoming_days"`

	// Server
	ListenAddr          string `toml:"listen_addr"`
	RollIntervalSeconds int    `toml:"roll_interval_seconds"`
	APISecret           string `toml:"api_secret"`

	// Alerts
	AlertIntervalSeconds int    `toml:"alert_interval_seconds"`
	SMTPHost             string `toml:"smtp_host"`
	SMTPPort             int    `toml:"smtp_port"`
	SMTPUser             string `toml:"smtp_user"`
	SMTPPassword         string `toml:"smtp_password"`
	AlertEmailFrom       string `toml:"alert_email_from"`
	AlertEmailTo         string `toml:"alert_email_to"`
	TelegramToken        string `toml:"telegram_token"`
	TelegramChatID       int64  `toml:"telegram_chat_id"`

	// Logging
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`
	LogDir        string `toml:"log_dir"`

	// WorkDir is the directory relative paths from files, env and flags
	// resolve against. Set by Load.
	WorkDir string `toml:"-"`
}

var (
	validFormats    = []string{"", "csv", "json", "cbor", "yaml", "yml"}
	validOnCorrupt  = []string{"abort", "skip"}
	validLogLevels  = []string{"debug", "info", "warn", "warning", "error", "fatal"}
	validLogFormats = []string{"text", "json", "logfmt"}
)

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if !oneOf(c.Format, validFormats) {
		return fmt.Errorf("format: %q is not one of csv, json, cbor, yaml", c.Format)
	}
	if !oneOf(c.OnCorrupt, validOnCorrupt) {
		return fmt.Errorf("on_corrupt: %q is not one of abort, skip", c.OnCorrupt)
	}
	if c.UpcomingDays < 0 {
		return fmt.Errorf("upcoming_days: must not be negative (got %d)", c.UpcomingDays)
	}
	if c.RollIntervalSeconds < 0 {
		return fmt.Errorf("roll_interval_seconds: must not be negative (got %d)", c.RollIntervalSeconds)
	}
	if c.AlertIntervalSeconds < 0 {
		return fmt.Errorf("alert_interval_seconds: must not be negative (got %d)", c.AlertIntervalSeconds)
	}
	if c.SMTPPort < 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("smtp_port: %d is out of range", c.SMTPPort)
	}
	if !oneOf(c.LogLevel, validLogLevels) {
		return fmt.Errorf("log_level: unknown level %q", c.LogLevel)
	}
	if !oneOf(c.LogFormat, validLogFormats) {
		return fmt.Errorf("log_format: %q is not one of text, json, logfmt", c.LogFormat)
	}
	return nil
}

// RollInterval is the background roll-forward period; zero disables it.
func (c *Config) RollInterval() time.Duration {
	return time.Duration(c.RollIntervalSeconds) * time.Second
}

// AlertInterval is the alert polling period; zero disables alerts.
func (c *Config) AlertInterval() time.Duration {
	return time.Duration(c.AlertIntervalSeconds) * time.Second
}

// EmailEnabled reports whether enough SMTP settings are present to send alerts.
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != "" && c.AlertEmailFrom != "" && c.AlertEmailTo != ""
}

// TelegramEnabled reports whether Telegram alerts are configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

func oneOf(v string, allowed []string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
