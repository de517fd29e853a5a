package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# tasklist configuration file
# Values can be overridden by TASKLIST_* environment variables or CLI flags

# Task file. The default lives next to the tasklist binary; relative paths
# set here resolve against the working directory. Supports ~ expansion.
tasks_file = "tasks.csv"

# csv, json, cbor or yaml. Empty infers the format from the extension.
# A trailing .zst (tasks.json.zst) compresses the file.
format = ""

# What to do with unreadable records on load: abort or skip
on_corrupt = "abort"

# Default horizon for "upcoming" queries (days)
upcoming_days = 7

# HTTP server
listen_addr = "127.0.0.1:8765"

# Advance overdue recurring tasks every N seconds while serving (0 disables)
roll_interval_seconds = 0

# When set, API requests need "Authorization: Bearer <token>"
# (mint one with: tasklist token)
# api_secret = "change-me"

# Alerts are checked every N seconds by serve and watch (0 disables)
alert_interval_seconds = 0

# E-mail alerts
# smtp_host = "smtp.example.com"
smtp_port = 587
# smtp_user = ""
# smtp_password = ""
# alert_email_from = "tasklist@example.com"
# alert_email_to = "me@example.com"

# Telegram alerts
# telegram_token = ""
# telegram_chat_id = 0

# Logging
log_level = "info"      # debug, info, warn, error
log_format = "text"     # text, json, logfmt
log_timestamps = false
log_caller = false

# Per-run log files for serve and watch (empty disables)
# log_dir = "~/.tasklist/logs"
`
}
