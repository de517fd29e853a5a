// Package config tests configuration loading.
package config

import (
	"bytes"
	"flag"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
)

var envKeys = []string{
	"TASKS_CSV_PATH",
	"TASKLIST_FILE",
	"TASKLIST_FORMAT",
	"TASKLIST_ON_CORRUPT",
	"TASKLIST_UPCOMING_DAYS",
	"TASKLIST_LISTEN",
	"TASKLIST_ROLL_INTERVAL",
	"TASKLIST_API_SECRET",
	"TASKLIST_ALERT_INTERVAL",
	"TASKLIST_SMTP_HOST",
	"TASKLIST_SMTP_PORT",
	"TASKLIST_SMTP_USER",
	"TASKLIST_SMTP_PASSWORD",
	"TASKLIST_ALERT_EMAIL_FROM",
	"TASKLIST_ALERT_EMAIL_TO",
	"TASKLIST_TELEGRAM_TOKEN",
	"TASKLIST_TELEGRAM_CHAT_ID",
	"TASKLIST_LOG_LEVEL",
	"TASKLIST_LOG_FORMAT",
	"TASKLIST_LOG_TIMESTAMPS",
	"TASKLIST_LOG_CALLER",
	"TASKLIST_LOG_DIR",
}

// isolate points HOME, the XDG dir and the working directory at fresh temp
// dirs, clears TASKLIST_* and fakes the executable location.
func isolate(t *testing.T) (home, work, exeDir string) {
	t.Helper()
	home = t.TempDir()
	work = t.TempDir()
	exeDir = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))
	t.Setenv("APPDATA", filepath.Join(home, "appdata"))
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	t.Chdir(work)

	orig := executable
	executable = func() (string, error) { return filepath.Join(exeDir, "tasklist"), nil }
	t.Cleanup(func() { executable = orig })
	return home, work, exeDir
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if cfg.TasksFile != DefaultTasksFile {
		t.Errorf("TasksFile: got %q, want %q", cfg.TasksFile, DefaultTasksFile)
	}
	if cfg.UpcomingDays != DefaultUpcomingDays {
		t.Errorf("UpcomingDays: got %d, want %d", cfg.UpcomingDays, DefaultUpcomingDays)
	}
	if cfg.OnCorrupt != "abort" {
		t.Errorf("OnCorrupt: got %q, want abort", cfg.OnCorrupt)
	}
	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("ListenAddr: got %q, want %q", cfg.ListenAddr, DefaultListenAddr)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort: got %d, want 587", cfg.SMTPPort)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadDefaultTasksFileNextToExecutable(t *testing.T) {
	_, work, exeDir := isolate(t)

	cws, err := LoadWithSources(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("LoadWithSources: %v", err)
	}
	if want := filepath.Join(exeDir, DefaultTasksFile); cws.Config.TasksFile != want {
		t.Errorf("TasksFile: got %q, want %q", cws.Config.TasksFile, want)
	}
	if cws.Config.WorkDir != work {
		// macOS temp dirs are symlinked; compare resolved paths there.
		got, _ := filepath.EvalSymlinks(cws.Config.WorkDir)
		want, _ := filepath.EvalSymlinks(work)
		if got != want {
			t.Errorf("WorkDir: got %q, want %q", cws.Config.WorkDir, work)
		}
	}
	for _, field := range configFields() {
		if cws.Sources[field] != SourceDefault {
			t.Errorf("source of %s: got %q, want default", field, cws.Sources[field])
		}
	}
	if len(cws.Files) != 0 {
		t.Errorf("Files: got %v, want none", cws.Files)
	}
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("TASKLIST_FILE", "custom.json")
	t.Setenv("TASKLIST_UPCOMING_DAYS", "14")
	t.Setenv("TASKLIST_ON_CORRUPT", "skip")
	t.Setenv("TASKLIST_LOG_CALLER", "yes")
	t.Setenv("TASKLIST_TELEGRAM_CHAT_ID", "-1001234")

	cfg := &Config{}
	setDefaults(cfg)
	sources := map[string]ConfigSource{}
	if err := loadFromEnv(cfg, sources); err != nil {
		t.Fatalf("loadFromEnv: %v", err)
	}

	if cfg.TasksFile != "custom.json" {
		t.Errorf("TasksFile: got %q, want custom.json", cfg.TasksFile)
	}
	if cfg.UpcomingDays != 14 {
		t.Errorf("UpcomingDays: got %d, want 14", cfg.UpcomingDays)
	}
	if cfg.OnCorrupt != "skip" {
		t.Errorf("OnCorrupt: got %q, want skip", cfg.OnCorrupt)
	}
	if !cfg.LogCaller {
		t.Error("LogCaller: got false, want true")
	}
	if cfg.TelegramChatID != -1001234 {
		t.Errorf("TelegramChatID: got %d, want -1001234", cfg.TelegramChatID)
	}
	if sources["upcoming_days"] != SourceEnv {
		t.Errorf("source of upcoming_days: got %q, want environment", sources["upcoming_days"])
	}
	if _, ok := sources["listen_addr"]; ok {
		t.Error("listen_addr should not be marked as set from env")
	}
}

func TestLoadFromEnvLegacyPath(t *testing.T) {
	isolate(t)
	t.Setenv("TASKS_CSV_PATH", "legacy.csv")

	cfg := &Config{}
	setDefaults(cfg)
	if err := loadFromEnv(cfg, map[string]ConfigSource{}); err != nil {
		t.Fatal(err)
	}
	if cfg.TasksFile != "legacy.csv" {
		t.Errorf("TasksFile: got %q, want legacy.csv", cfg.TasksFile)
	}

	t.Setenv("TASKLIST_FILE", "new.csv")
	if err := loadFromEnv(cfg, map[string]ConfigSource{}); err != nil {
		t.Fatal(err)
	}
	if cfg.TasksFile != "new.csv" {
		t.Errorf("TASKLIST_FILE should win: got %q", cfg.TasksFile)
	}
}

func TestLoadFromEnvBadInteger(t *testing.T) {
	isolate(t)
	t.Setenv("TASKLIST_SMTP_PORT", "lots")

	cfg := &Config{}
	setDefaults(cfg)
	err := loadFromEnv(cfg, map[string]ConfigSource{})
	if err == nil || !strings.Contains(err.Error(), "TASKLIST_SMTP_PORT") {
		t.Fatalf("expected error naming TASKLIST_SMTP_PORT, got %v", err)
	}
	if cfg.SMTPPort != DefaultSMTPPort {
		t.Errorf("SMTPPort changed to %d", cfg.SMTPPort)
	}
}

func TestLoadConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "tasklist.toml")
	writeFile(t, configFile, `tasks_file = "custom.json"
upcoming_days = 3
alert_interval_seconds = 60
`)

	cfg := &Config{}
	setDefaults(cfg)
	sources := map[string]ConfigSource{}
	if err := loadConfigFile(cfg, configFile, sources, SourceProjFile); err != nil {
		t.Fatalf("loadConfigFile: %v", err)
	}

	if cfg.TasksFile != "custom.json" {
		t.Errorf("TasksFile: got %q, want custom.json", cfg.TasksFile)
	}
	if cfg.UpcomingDays != 3 {
		t.Errorf("UpcomingDays: got %d, want 3", cfg.UpcomingDays)
	}
	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("ListenAddr should keep its default, got %q", cfg.ListenAddr)
	}
	if sources["alert_interval_seconds"] != SourceProjFile {
		t.Errorf("source of alert_interval_seconds: got %q", sources["alert_interval_seconds"])
	}
	if _, ok := sources["listen_addr"]; ok {
		t.Error("listen_addr should not be marked as set from the file")
	}
}

func TestLoadConfigFileUnknownKey(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "tasklist.toml")
	writeFile(t, configFile, "todo_file = \"x\"\n")

	cfg := &Config{}
	err := loadConfigFile(cfg, configFile, map[string]ConfigSource{}, SourceProjFile)
	if err == nil || !strings.Contains(err.Error(), "todo_file") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadPrecedence(t *testing.T) {
	home, work, _ := isolate(t)
	writeFile(t, filepath.Join(home, ".tasklist", "tasklist.toml"), `upcoming_days = 10
listen_addr = ":9000"
log_level = "debug"
`)
	writeFile(t, filepath.Join(work, "tasklist.toml"), `listen_addr = ":9100"
format = "json"
`)
	t.Setenv("TASKLIST_LOG_LEVEL", "warn")

	cws, err := LoadWithSources(newFlagSet(), []string{"--format", "yaml", "--file", "data/tasks.yaml", "ls"})
	if err != nil {
		t.Fatalf("LoadWithSources: %v", err)
	}
	cfg := cws.Config

	tests := []struct {
		field  string
		value  string
		source ConfigSource
	}{
		{"upcoming_days", "10", SourceUserFile},
		{"listen_addr", ":9100", SourceProjFile},
		{"log_level", "warn", SourceEnv},
		{"format", "yaml", SourceFlag},
		{"on_corrupt", "abort", SourceDefault},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if got := cfg.Value(tt.field); got != tt.value {
				t.Errorf("value: got %q, want %q", got, tt.value)
			}
			if got := cws.Sources[tt.field]; got != tt.source {
				t.Errorf("source: got %q, want %q", got, tt.source)
			}
		})
	}

	if want := filepath.Join(cfg.WorkDir, "data", "tasks.yaml"); cfg.TasksFile != want {
		t.Errorf("TasksFile: got %q, want %q", cfg.TasksFile, want)
	}
	if len(cws.Files) != 2 {
		t.Errorf("Files: got %v, want user and project file", cws.Files)
	}
}

func TestLoadXDGUserConfig(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup is linux/BSD only")
	}
	home, _, _ := isolate(t)
	writeFile(t, filepath.Join(home, "xdg", "tasklist", "tasklist.toml"), "upcoming_days = 2\n")

	cfg, err := Load(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UpcomingDays != 2 {
		t.Errorf("UpcomingDays: got %d, want 2", cfg.UpcomingDays)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
		want string
	}{
		{"bad format", []string{"--format", "xml"}, nil, "format"},
		{"bad policy", []string{"--on-corrupt", "ignore"}, nil, "on_corrupt"},
		{"bad level", []string{"--log-level", "loud"}, nil, "log_level"},
		{"negative days", nil, map[string]string{"TASKLIST_UPCOMING_DAYS": "-1"}, "upcoming_days"},
		{"negative interval", nil, map[string]string{"TASKLIST_ALERT_INTERVAL": "-5"}, "alert_interval_seconds"},
		{"empty file", []string{"--file", ""}, nil, "tasks_file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(newFlagSet(), tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestParseFlags(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.LogDir = "/var/log/tasklist"

	fs := newFlagSet()
	sources := map[string]ConfigSource{}
	args := []string{
		"--file", "flag.csv",
		"--on-corrupt", "skip",
		"--log-timestamps",
		"upcoming", "3",
	}
	if err := parseFlags(cfg, fs, args, sources); err != nil {
		t.Fatalf("parseFlags: %v", err)
	}

	if cfg.TasksFile != "flag.csv" {
		t.Errorf("TasksFile: got %q, want flag.csv", cfg.TasksFile)
	}
	if cfg.OnCorrupt != "skip" {
		t.Errorf("OnCorrupt: got %q, want skip", cfg.OnCorrupt)
	}
	if !cfg.LogTimestamps {
		t.Error("LogTimestamps: got false, want true")
	}
	if cfg.LogDir != "/var/log/tasklist" {
		t.Errorf("unset flag clobbered LogDir: %q", cfg.LogDir)
	}
	if _, ok := sources["log_dir"]; ok {
		t.Error("log_dir should not be flag-sourced")
	}
	if got := fs.Args(); len(got) != 2 || got[0] != "upcoming" {
		t.Errorf("remaining args: got %v", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"~", home},
		{"/absolute/path", "/absolute/path"},
		{"relative", "relative"},
		{"~someone/x", "~someone/x"},
	}
	t.Setenv("TASKLIST_TEST_DIR", filepath.Join(home, "data"))
	tests = append(tests, struct{ input, want string }{
		input: "$TASKLIST_TEST_DIR/tasks.csv",
		want:  filepath.Join(home, "data") + "/tasks.csv",
	})
	if runtime.GOOS == "windows" {
		t.Setenv("TASKLIST_TEST_HOME", home)
		tests = append(tests, struct{ input, want string }{
			input: `%TASKLIST_TEST_HOME%\logs`,
			want:  filepath.Join(home, "logs"),
		})
	} else {
		tests = append(tests, struct{ input, want string }{
			input: `~\test`,
			want:  `~\test`,
		})
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := expandPath(tt.input)
			if got != tt.want {
				t.Errorf("expandPath(%q): got %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBoolFromString(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"yes", true},
		{"on", true},
		{"0", false},
		{"false", false},
		{"no", false},
		{"off", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := boolFromString(tt.input)
			if got != tt.want {
				t.Errorf("boolFromString(%q): got %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestExampleConfigDecodes(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	md, err := toml.Decode(ExampleConfig(), cfg)
	if err != nil {
		t.Fatalf("decode example: %v", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		t.Errorf("example has unknown keys: %v", undecoded)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("example does not validate: %v", err)
	}
}

func TestPrintSourcesMasksSecrets(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.APISecret = "hunter2"
	cws := &ConfigWithSources{Config: cfg, Sources: map[string]ConfigSource{"api_secret": SourceEnv}}

	var buf bytes.Buffer
	cws.PrintSources(&buf)
	out := buf.String()
	if strings.Contains(out, "hunter2") {
		t.Error("secret leaked into output")
	}
	if !strings.Contains(out, "api_secret") || !strings.Contains(out, "[environment]") {
		t.Errorf("missing api_secret line:\n%s", out)
	}
}

func TestAlertSettings(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	if cfg.EmailEnabled() || cfg.TelegramEnabled() {
		t.Fatal("alerts should be off by default")
	}
	cfg.SMTPHost = "smtp.example.com"
	cfg.AlertEmailFrom = "a@example.com"
	cfg.AlertEmailTo = "b@example.com"
	cfg.TelegramToken = "123:abc"
	cfg.TelegramChatID = 42
	if !cfg.EmailEnabled() || !cfg.TelegramEnabled() {
		t.Error("alerts should be enabled")
	}
	cfg.AlertIntervalSeconds = 30
	if cfg.AlertInterval().Seconds() != 30 {
		t.Errorf("AlertInterval: got %v", cfg.AlertInterval())
	}
}
