// Package config loads shell configuration.
//
// Values are layered: built-in defaults, then the configuration file (TOML
// or YAML, chosen by extension), then PATTERNSHELL_* environment variables.
// Command-line flags are applied last by the caller.
package config

import (
	"fmt"
	"time"
)

// Config is the complete shell configuration.
type Config struct {
	// Prompt is printed before each input line. "{group}" is replaced with
	// the current group.
	Prompt string `toml:"prompt" yaml:"prompt" env:"PROMPT"`

	// Group is the group the loop starts in.
	Group string `toml:"group" yaml:"group" env:"GROUP"`

	// Banner is printed when the loop starts.
	Banner string `toml:"banner" yaml:"banner" env:"BANNER"`

	// RecoverPanics reports a panicking command instead of crashing.
	RecoverPanics bool `toml:"recoverPanics" yaml:"recoverPanics" env:"RECOVER_PANICS"`

	Color   ColorConfig   `toml:"color" yaml:"color" envPrefix:"COLOR_"`
	History HistoryConfig `toml:"history" yaml:"history" envPrefix:"HISTORY_"`
	Log     LogConfig     `toml:"log" yaml:"log" envPrefix:"LOG_"`
	Scripts ScriptsConfig `toml:"scripts" yaml:"scripts" envPrefix:"SCRIPTS_"`
	Store   StoreConfig   `toml:"store" yaml:"store" envPrefix:"STORE_"`
}

// ColorConfig controls console colors.
type ColorConfig struct {
	Enabled bool              `toml:"enabled" yaml:"enabled" env:"ENABLED"`
	Palette map[string]string `toml:"palette" yaml:"palette" env:"PALETTE"`
}

// HistoryConfig controls the undo/redo history.
type HistoryConfig struct {
	MaxEntries int `toml:"maxEntries" yaml:"maxEntries" env:"MAX_ENTRIES"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `toml:"level" yaml:"level" env:"LEVEL"`
	File  string `toml:"file" yaml:"file" env:"FILE"`
	JSON  bool   `toml:"json" yaml:"json" env:"JSON"`
}

// ScriptsConfig lists Lua scripts providing extra commands.
type ScriptsConfig struct {
	Dir   string   `toml:"dir" yaml:"dir" env:"DIR"`
	Files []string `toml:"files" yaml:"files" env:"FILES"`
}

// StoreConfig configures the data service. An empty DSN disables it.
type StoreConfig struct {
	Driver          string   `toml:"driver" yaml:"driver" env:"DRIVER"`
	DSN             string   `toml:"dsn" yaml:"dsn" env:"DSN"`
	AutoMigrate     bool     `toml:"autoMigrate" yaml:"autoMigrate" env:"AUTO_MIGRATE"`
	MaxIdleConns    int      `toml:"maxIdleConns" yaml:"maxIdleConns" env:"MAX_IDLE_CONNS"`
	MaxOpenConns    int      `toml:"maxOpenConns" yaml:"maxOpenConns" env:"MAX_OPEN_CONNS"`
	ConnMaxLifetime Duration `toml:"connMaxLifetime" yaml:"connMaxLifetime" env:"CONN_MAX_LIFETIME"`
}

// Enabled reports whether a data store is configured.
func (s StoreConfig) Enabled() bool {
	return s.DSN != ""
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Prompt:        "{group}> ",
		Group:         "command",
		Banner:        "Welcome to patternshell. Type 'help' for commands, 'exit' to quit.",
		RecoverPanics: true,
		Color: ColorConfig{
			Enabled: true,
		},
		History: HistoryConfig{
			MaxEntries: 100,
		},
		Log: LogConfig{
			Level: "warn",
		},
		Store: StoreConfig{
			Driver:          "postgres",
			AutoMigrate:     true,
			MaxIdleConns:    2,
			MaxOpenConns:    10,
			ConnMaxLifetime: Duration{time.Hour},
		},
	}
}

// Validate checks values that cannot be repaired by defaults.
func (c Config) Validate() error {
	if c.Group == "" {
		return &ValidationError{Key: "group", Message: "cannot be empty"}
	}
	if c.History.MaxEntries < 0 {
		return &ValidationError{Key: "history.maxEntries", Message: "cannot be negative"}
	}
	switch c.Store.Driver {
	case "postgres", "mysql":
	default:
		return &ValidationError{Key: "store.driver", Message: fmt.Sprintf("unsupported driver %q", c.Store.Driver)}
	}
	return nil
}

// Duration is a time.Duration that decodes from strings such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
