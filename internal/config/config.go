// Package config loads chatdom settings.
//
// Settings are resolved in order, later sources winning: built-in defaults,
// the YAML file, a .env file, CHATDOM_* environment variables and finally
// command-line flags (applied by the CLI).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CHATDOM_"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds the runtime settings.
type Config struct {
	// ChatID is the id of the message container.
	ChatID string `yaml:"chat_id"`

	// SettleDelay is the delay before the ready signal.
	SettleDelay time.Duration `yaml:"settle_delay"`

	// ScrollDelay defers scroll requests.
	ScrollDelay time.Duration `yaml:"scroll_delay"`

	// Strict turns layout ambiguity into errors and checks invariants after
	// every command.
	Strict bool `yaml:"strict"`

	// Database is the journal path. Empty disables journaling.
	Database string `yaml:"database"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ChatID:      "chat",
		SettleDelay: time.Second,
		ScrollDelay: 5 * time.Millisecond,
		LogLevel:    "info",
	}
}

// Load resolves the configuration from path (optional) and the process
// environment. A missing file at an explicitly given path is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// decode overlays YAML data onto cfg. Unknown keys are rejected.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// applyEnv overlays CHATDOM_* variables found through lookup.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "CHAT_ID"); ok {
		c.ChatID = v
	}
	if v, ok := lookup(EnvPrefix + "DATABASE"); ok {
		c.Database = v
	}
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvPrefix + "STRICT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sSTRICT: %w", EnvPrefix, err)
		}
		c.Strict = b
	}
	if v, ok := lookup(EnvPrefix + "SETTLE_DELAY"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sSETTLE_DELAY: %w", EnvPrefix, err)
		}
		c.SettleDelay = d
	}
	if v, ok := lookup(EnvPrefix + "SCROLL_DELAY"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sSCROLL_DELAY: %w", EnvPrefix, err)
		}
		c.ScrollDelay = d
	}
	return nil
}

// Validate checks the settings.
func (c Config) Validate() error {
	// Any HTML id works: the container is looked up by id, never by selector.
	if c.ChatID == "" || strings.ContainsAny(c.ChatID, " \t\n\f\r") {
		return fmt.Errorf("%w: chat_id %q must be a non-empty id without whitespace", ErrInvalid, c.ChatID)
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("%w: settle_delay must not be negative", ErrInvalid)
	}
	if c.ScrollDelay < 0 {
		return fmt.Errorf("%w: scroll_delay must not be negative", ErrInvalid)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Level returns LogLevel as a slog level.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
