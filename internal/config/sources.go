package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// findProjectConfigFile looks for a config file in the current directory.
func findProjectConfigFile() string {
	names := []string{"tasklist.toml", ".tasklist.toml"}
	for _, name := range names {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// findUserConfigFile looks for a user-level config file.
// Checks ~/.tasklist/tasklist.toml first, then falls back to OS-specific
// config directories if ~/.tasklist doesn't exist.
func findUserConfigFile() string {
	home, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(home, ".tasklist", "tasklist.toml")
		if _, err := os.Stat(userConfigPath); err == nil {
			return userConfigPath
		}
	}

	if cfgDir := osUserConfigDir(); cfgDir != "" {
		userConfigPath := filepath.Join(cfgDir, "tasklist", "tasklist.toml")
		if _, err := os.Stat(userConfigPath); err == nil {
			return userConfigPath
		}
	}

	return ""
}

// osUserConfigDir returns the OS-specific user config directory.
// Returns empty string if the directory cannot be determined.
func osUserConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appdata := os.Getenv("APPDATA"); appdata != "" {
			return appdata
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, "Library", "Application Support")
		}
	case "linux", "openbsd", "freebsd", "netbsd":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return xdg
		}
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, ".config")
		}
	}
	return ""
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.TasksFile = DefaultTasksFile
	cfg.OnCorrupt = DefaultOnCorrupt
	cfg.UpcomingDays = DefaultUpcomingDays
	cfg.ListenAddr = DefaultListenAddr
	cfg.SMTPPort = DefaultSMTPPort
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
}

// secretFields are masked by PrintSources.
var secretFields = map[string]bool{
	"api_secret":     true,
	"smtp_password":  true,
	"telegram_token": true,
}

// Value returns the effective value of a field as display text.
func (c *Config) Value(field string) string {
	switch field {
	case "tasks_file":
		return c.TasksFile
	case "format":
		return c.Format
	case "on_corrupt":
		return c.OnCorrupt
	case "upcoming_days":
		return fmt.Sprint(c.UpcomingDays)
	case "listen_addr":
		return c.ListenAddr
	case "roll_interval_seconds":
		return fmt.Sprint(c.RollIntervalSeconds)
	case "api_secret":
		return c.APISecret
	case "alert_interval_seconds":
		return fmt.Sprint(c.AlertIntervalSeconds)
	case "smtp_host":
		return c.SMTPHost
	case "smtp_port":
		return fmt.Sprint(c.SMTPPort)
	case "smtp_user":
		return c.SMTPUser
	case "smtp_password":
		return c.SMTPPassword
	case "alert_email_from":
		return c.AlertEmailFrom
	case "alert_email_to":
		return c.AlertEmailTo
	case "telegram_token":
		return c.TelegramToken
	case "telegram_chat_id":
		return fmt.Sprint(c.TelegramChatID)
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	case "log_timestamps":
		return fmt.Sprint(c.LogTimestamps)
	case "log_caller":
		return fmt.Sprint(c.LogCaller)
	case "log_dir":
		return c.LogDir
	}
	return ""
}

// PrintSources writes one line per field with its value and source.
// Secrets are masked.
func (cws *ConfigWithSources) PrintSources(w io.Writer) {
	for _, field := range configFields() {
		value := cws.Config.Value(field)
		if secretFields[field] && value != "" {
			value = strings.Repeat("*", 8)
		}
		if value == "" {
			value = "(empty)"
		}
		fmt.Fprintf(w, "  %-24s %-40s [%s]\n", field, value, cws.Sources[field])
	}
}
