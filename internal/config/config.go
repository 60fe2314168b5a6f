// Package config loads the server configuration from ./config.yaml.
// Absent keys keep their defaults; a malformed file is fatal at startup.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable. Loaded once at startup and passed by
// reference; never mutated afterwards.
type Config struct {
	ServerAddress          string   `yaml:"server-address"`
	SaveEveryXTicks        uint64   `yaml:"save-every-x-ticks"`
	TicksPerSecond         float64  `yaml:"ticks-per-second"`
	ModelTemperature       float64  `yaml:"model-temperature"`
	ToneWords              []string `yaml:"tone-words"`
	ToneWordsPerGeneration int      `yaml:"tone-words-per-generation"`
	LogLevel               string   `yaml:"log-level"`
	ModelName              string   `yaml:"model-name"`
	OllamaAddress          string   `yaml:"ollama-address"`
	NonDeterministic       bool     `yaml:"non-deterministic"`
}

// Default returns the configuration used when no config.yaml exists.
func Default() *Config {
	return &Config{
		ServerAddress:          "0.0.0.0:5000",
		SaveEveryXTicks:        200,
		TicksPerSecond:         20.0,
		ModelTemperature:       0.9,
		ToneWords:              []string{"mystical", "ancient", "dark", "light", "gothic", "sacrosanct"},
		ToneWordsPerGeneration: 2,
		LogLevel:               "info",
		ModelName:              "llama3:latest",
		OllamaAddress:          "http://127.0.0.1:11434",
	}
}

// Load reads the configuration from path, falling back to defaults when
// the file does not exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.TicksPerSecond <= 0 {
		return nil, fmt.Errorf("ticks-per-second must be positive, got %v", cfg.TicksPerSecond)
	}
	if cfg.ToneWordsPerGeneration < 0 || cfg.ToneWordsPerGeneration > len(cfg.ToneWords) {
		return nil, fmt.Errorf("tone-words-per-generation out of range: %d words configured, %d requested",
			len(cfg.ToneWords), cfg.ToneWordsPerGeneration)
	}
	return cfg, nil
}

// SlogLevel maps the configured log level onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
