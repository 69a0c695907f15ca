package config

import (
	"os"
	"strconv"
)

// FromEnv overlays RIAK_REPL_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("RIAK_REPL_HTTP"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("RIAK_REPL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("RIAK_REPL_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("RIAK_REPL_QUEUE_MAX_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Queue.MaxBytes = n
		}
	}
	if v := os.Getenv("RIAK_REPL_QUEUE_PAYLOAD_MAX_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Queue.PayloadMaxBytes = n
		}
	}
	if v := os.Getenv("RIAK_REPL_QUEUE_FILTER"); v != "" {
		cfg.Queue.Filter = v
	}
}
