package config

import (
	"flag"
)

// parseFlags defines the global flags on fs and parses args. Flags that
// were set explicitly are copied into cfg and recorded as flag-sourced.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("tasklist", flag.ContinueOnError)
	}

	// Bind to copies so an unset flag never clobbers file or env values.
	tasksFile := cfg.TasksFile
	format := cfg.Format
	onCorrupt := cfg.OnCorrupt
	listen := cfg.ListenAddr
	logLevel := cfg.LogLevel
	logFormat := cfg.LogFormat
	logTimestamps := cfg.LogTimestamps
	logCaller := cfg.LogCaller
	logDir := cfg.LogDir

	fs.StringVar(&tasksFile, "file", tasksFile, "Path to the task file")
	fs.StringVar(&format, "format", format, "Task file format (csv|json|cbor|yaml; default from extension)")
	fs.StringVar(&onCorrupt, "on-corrupt", onCorrupt, "Corrupt record policy (abort|skip)")
	fs.StringVar(&listen, "listen", listen, "HTTP listen address for serve")
	fs.StringVar(&logLevel, "log-level", logLevel, "Log level (debug|info|warn|error)")
	fs.StringVar(&logFormat, "log-format", logFormat, "Log format (text|json|logfmt)")
	fs.BoolVar(&logTimestamps, "log-timestamps", logTimestamps, "Include timestamps in log output")
	fs.BoolVar(&logCaller, "log-caller", logCaller, "Include caller location in log output")
	fs.StringVar(&logDir, "log-dir", logDir, "Directory for serve/watch run logs (empty disables)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	apply := map[string]func(){
		"file":           func() { setSource(&cfg.TasksFile, tasksFile, sources, "tasks_file", SourceFlag) },
		"format":         func() { setSource(&cfg.Format, format, sources, "format", SourceFlag) },
		"on-corrupt":     func() { setSource(&cfg.OnCorrupt, onCorrupt, sources, "on_corrupt", SourceFlag) },
		"listen":         func() { setSource(&cfg.ListenAddr, listen, sources, "listen_addr", SourceFlag) },
		"log-level":      func() { setSource(&cfg.LogLevel, logLevel, sources, "log_level", SourceFlag) },
		"log-format":     func() { setSource(&cfg.LogFormat, logFormat, sources, "log_format", SourceFlag) },
		"log-timestamps": func() { setSource(&cfg.LogTimestamps, logTimestamps, sources, "log_timestamps", SourceFlag) },
		"log-caller":     func() { setSource(&cfg.LogCaller, logCaller, sources, "log_caller", SourceFlag) },
		"log-dir":        func() { setSource(&cfg.LogDir, logDir, sources, "log_dir", SourceFlag) },
	}
	fs.Visit(func(f *flag.Flag) {
		if fn, ok := apply[f.Name]; ok {
			fn()
		}
	})
	return nil
}
