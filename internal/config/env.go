package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// loadFromEnv overrides config from TASKLIST_* environment variables.
// TASKS_CSV_PATH is honoured as an older spelling of TASKLIST_FILE.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) error {
	setEnv := func(field string, target *string, keys ...string) {
		for _, key := range keys {
			if v := os.Getenv(key); v != "" {
				setSource(target, v, sources, field, SourceEnv)
			}
		}
	}
	setEnvBool := func(field string, target *bool, key string) {
		if v := os.Getenv(key); v != "" {
			setSource(target, boolFromString(v), sources, field, SourceEnv)
		}
	}
	var firstErr error
	setEnvInt := func(field string, target *int, key string) {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %q is not an integer", key, v)
			}
			return
		}
		setSource(target, n, sources, field, SourceEnv)
	}

	setEnv("tasks_file", &cfg.TasksFile, "TASKS_CSV_PATH", "TASKLIST_FILE")
	setEnv("format", &cfg.Format, "TASKLIST_FORMAT")
	setEnv("on_corrupt", &cfg.OnCorrupt, "TASKLIST_ON_CORRUPT")
	setEnvInt("upcoming_days", &cfg.UpcomingDays, "TASKLIST_UPCOMING_DAYS")

	setEnv("listen_addr", &cfg.ListenAddr, "TASKLIST_LISTEN")
	setEnvInt("roll_interval_seconds", &cfg.RollIntervalSeconds, "TASKLIST_ROLL_INTERVAL")
	setEnv("api_secret", &cfg.APISecret, "TASKLIST_API_SECRET")

	setEnvInt("alert_interval_seconds", &cfg.AlertIntervalSeconds, "TASKLIST_ALERT_INTERVAL")
	setEnv("smtp_host", &cfg.SMTPHost, "TASKLIST_SMTP_HOST")
	setEnvInt("smtp_port", &cfg.SMTPPort, "TASKLIST_SMTP_PORT")
	setEnv("smtp_user", &cfg.SMTPUser, "TASKLIST_SMTP_USER")
	setEnv("smtp_password", &cfg.SMTPPassword, "TASKLIST_SMTP_PASSWORD")
	setEnv("alert_email_from", &cfg.AlertEmailFrom, "TASKLIST_ALERT_EMAIL_FROM")
	setEnv("alert_email_to", &cfg.AlertEmailTo, "TASKLIST_ALERT_EMAIL_TO")
	setEnv("telegram_token", &cfg.TelegramToken, "TASKLIST_TELEGRAM_TOKEN")
	if v := strings.TrimSpace(os.Getenv("TASKLIST_TELEGRAM_CHAT_ID")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("TASKLIST_TELEGRAM_CHAT_ID: %q is not an integer", v)
			}
		} else {
			setSource(&cfg.TelegramChatID, id, sources, "telegram_chat_id", SourceEnv)
		}
	}

	setEnv("log_level", &cfg.LogLevel, "TASKLIST_LOG_LEVEL")
	setEnv("log_format", &cfg.LogFormat, "TASKLIST_LOG_FORMAT")
	setEnvBool("log_timestamps", &cfg.LogTimestamps, "TASKLIST_LOG_TIMESTAMPS")
	setEnvBool("log_caller", &cfg.LogCaller, "TASKLIST_LOG_CALLER")
	setEnv("log_dir", &cfg.LogDir, "TASKLIST_LOG_DIR")

	return firstErr
}
