package log

import "fmt"

// Config is a declarative logger configuration, typically populated from
// the process config or environment.
type Config struct {
	// Level is the minimum level name: debug, info, warn, error, fatal.
	Level string
	// Format selects the formatter: "text" (default) or "json".
	Format string
}

// ApplyConfig builds a Logger from cfg. Zero values fall back to the
// defaults (info level, text format, console output).
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level := InfoLevel
	if cfg.Level != "" {
		lv, err := ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		level = lv
	}
	var formatter Formatter
	switch cfg.Format {
	case "", "text":
		formatter = &TextFormatter{}
	case "json":
		formatter = &JSONFormatter{}
	default:
		return nil, fmt.Errorf("log: unknown format %q", cfg.Format)
	}
	return NewLogger(WithLevel(level), WithFormatter(formatter)), nil
}
