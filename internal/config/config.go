package config

import (
	"encoding/json"
	"os"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	HTTPAddr  string        `json:"httpAddr"`
	LogLevel  string        `json:"logLevel"`
	LogFormat string        `json:"logFormat"`
	Queue     QueueDefaults `json:"queue"`
}

// QueueDefaults captures realtime queue limits.
type QueueDefaults struct {
	// MaxBytes caps retained queue bytes; oldest entries are evicted past it,
	// counting drops against lagging consumers. 0 disables.
	MaxBytes int64 `json:"maxBytes"`
	// PayloadMaxBytes rejects oversized pushes at the service boundary.
	PayloadMaxBytes int `json:"payloadMaxBytes"`
	// Filter is an optional CEL expression gating which mutations enter the queue.
	Filter string `json:"filter"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr:  ":8098",
		LogLevel:  "info",
		LogFormat: "text",
		Queue: QueueDefaults{
			MaxBytes:        0,
			PayloadMaxBytes: 1 << 20,
		},
	}
}

// Load reads configuration from a JSON file. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
