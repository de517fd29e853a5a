package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// executable is swapped in tests.
var executable = os.Executable

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.tasklist/tasklist.toml or OS-specific config dir)
// 3. Project config file (tasklist.toml or .tasklist.toml in current directory)
// 4. Environment variables
// 5. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cws, err := LoadWithSources(fs, args)
	if err != nil {
		return nil, err
	}
	return cws.Config, nil
}

// LoadWithSources loads configuration and tracks the source of each value.
// Returns ConfigWithSources containing the config and a map of field names to their sources.
func LoadWithSources(fs *flag.FlagSet, args []string) (*ConfigWithSources, error) {
	sources := make(map[string]ConfigSource)
	cfg := &Config{}
	var files []string

	// 1. Set defaults (all fields start with default source)
	setDefaults(cfg)
	for _, field := range configFields() {
		sources[field] = SourceDefault
	}

	// 2. Try to load from user config file
	if userConfigFile := findUserConfigFile(); userConfigFile != "" {
		if err := loadConfigFile(cfg, userConfigFile, sources, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", userConfigFile, err)
		}
		files = append(files, userConfigFile)
	}

	// 3. Try to load from project config file (overrides user config)
	if projectConfigFile := findProjectConfigFile(); projectConfigFile != "" {
		if err := loadConfigFile(cfg, projectConfigFile, sources, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", projectConfigFile, err)
		}
		files = append(files, projectConfigFile)
	}

	// 4. Override from environment
	if err := loadFromEnv(cfg, sources); err != nil {
		return nil, err
	}

	// 5. Parse CLI flags (they override everything)
	if err := parseFlags(cfg, fs, args, sources); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 6. Compute derived values
	if err := finalizeConfig(cfg, sources); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}

	return &ConfigWithSources{
		Config:  cfg,
		Sources: sources,
		Files:   files,
	}, nil
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"tasks_file",
		"format",
		"on_corrupt",
		"upcoming_days",
		"listen_addr",
		"roll_interval_seconds",
		"api_secret",
		"alert_interval_seconds",
		"smtp_host",
		"smtp_port",
		"smtp_user",
		"smtp_password",
		"alert_email_from",
		"alert_email_to",
		"telegram_token",
		"telegram_chat_id",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
		"log_dir",
	}
}

// loadConfigFile decodes a TOML file over cfg. Only keys present in the
// file change value or source.
func loadConfigFile(cfg *Config, path string, sources map[string]ConfigSource, source ConfigSource) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	for _, key := range md.Keys() {
		if len(key) == 1 {
			sources[key[0]] = source
		}
	}
	return nil
}

// finalizeConfig computes derived values and validates the result.
func finalizeConfig(cfg *Config, sources map[string]ConfigSource) error {
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	cfg.OnCorrupt = strings.ToLower(strings.TrimSpace(cfg.OnCorrupt))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if cfg.OnCorrupt == "" {
		cfg.OnCorrupt = DefaultOnCorrupt
	}

	if cfg.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		cfg.WorkDir = wd
	}

	// The default task file lives next to the program; anything the user
	// supplied is relative to where they ran it.
	cfg.TasksFile = expandPath(cfg.TasksFile)
	if cfg.TasksFile == "" {
		return fmt.Errorf("tasks_file: must not be empty")
	}
	if !filepath.IsAbs(cfg.TasksFile) {
		base := cfg.WorkDir
		if sources["tasks_file"] == SourceDefault {
			base = executableDir(cfg.WorkDir)
		}
		cfg.TasksFile = filepath.Join(base, cfg.TasksFile)
	}

	cfg.LogDir = expandPath(cfg.LogDir)
	if cfg.LogDir != "" && !filepath.IsAbs(cfg.LogDir) {
		cfg.LogDir = filepath.Join(cfg.WorkDir, cfg.LogDir)
	}

	return cfg.Validate()
}

// executableDir returns the directory of the running binary, or fallback
// when it cannot be determined.
func executableDir(fallback string) string {
	exe, err := executable()
	if err != nil {
		return fallback
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

func setSource[T any](target *T, value T, sources map[string]ConfigSource, field string, source ConfigSource) {
	*target = value
	if sources != nil {
		sources[field] = source
	}
}

// boolFromString parses a boolean from a string (for env vars).
func boolFromString(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
