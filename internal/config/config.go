// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for Finsight.
//
// Configuration comes from ~/.finsight/config.toml with built-in defaults
// and environment variable overrides applied last.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/Kimyongari/Finsight/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete Finsight configuration.
type Config struct {
	Version string `toml:"version"`

	Backend BackendConfig `toml:"backend"`
	Chat    ChatConfig    `toml:"chat"`
	Corp    CorpConfig    `toml:"corp"`
	UI      UIConfig      `toml:"ui"`
}

// BackendConfig points the client at the CorpAdvisor backend.
type BackendConfig struct {
	// URL is the backend base URL.
	URL string `toml:"url"`
	// TimeoutSecs is the per-request timeout. Query endpoints run a full
	// retrieval pipeline server-side, so the default is generous.
	TimeoutSecs int `toml:"timeout_secs"`
	// RateLimit is the client-side request rate in requests per second.
	RateLimit float64 `toml:"rate_limit"`
}

// ChatConfig controls the conversation view.
type ChatConfig struct {
	// RevealIntervalMs is the delay between revealed characters.
	RevealIntervalMs int `toml:"reveal_interval_ms"`
	// MirrorPath overrides the conversation mirror location
	// (default ~/.finsight/chat_messages.json).
	MirrorPath string `toml:"mirror_path"`
	// DefaultMode is the query mode selected at startup:
	// "rag", "advanced_rag", or "web_search".
	DefaultMode string `toml:"default_mode"`
}

// CorpConfig controls the local company lookup table.
type CorpConfig struct {
	// CSVPath is the corp code CSV file (empty disables the local table;
	// lookups then go to the backend only).
	CSVPath string `toml:"csv_path"`
	// WatchCSV hot-reloads the table when the CSV changes on disk.
	WatchCSV bool `toml:"watch_csv"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// CompactMode uses a more compact layout.
	CompactMode bool `toml:"compact_mode"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Backend: BackendConfig{
			URL:         "http://127.0.0.1:8000",
			TimeoutSecs: 120,
			RateLimit:   5,
		},
		Chat: ChatConfig{
			RevealIntervalMs: 10,
			DefaultMode:      "rag",
		},
		Corp: CorpConfig{
			WatchCSV: true,
		},
		UI: UIConfig{
			Theme: "dark",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the Finsight configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".finsight"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from ~/.finsight/config.toml, falling back to
// defaults when no file exists. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	cfg.fillDefaults()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults. Decoding over
// Default() already covers absent keys; this guards explicit zero values
// that have no meaningful interpretation.
func (c *Config) fillDefaults() {
	defaults := Default()
	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Backend.TimeoutSecs <= 0 {
		c.Backend.TimeoutSecs = defaults.Backend.TimeoutSecs
	}
	if c.Backend.RateLimit <= 0 {
		c.Backend.RateLimit = defaults.Backend.RateLimit
	}
	if c.Chat.RevealIntervalMs <= 0 {
		c.Chat.RevealIntervalMs = defaults.Chat.RevealIntervalMs
	}
	if c.Chat.DefaultMode == "" {
		c.Chat.DefaultMode = defaults.Chat.DefaultMode
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
// Environment always wins over file values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("FINSIGHT_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("FINSIGHT_CSV_PATH"); v != "" {
		c.Corp.CSVPath = v
	}
	if v := os.Getenv("FINSIGHT_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("FINSIGHT_REVEAL_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Chat.RevealIntervalMs = n
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validation errors.
var (
	ErrInvalidBackendURL = errors.New("invalid backend URL")
	ErrInvalidMode       = errors.New("invalid default query mode")
	ErrInvalidTheme      = errors.New("invalid theme")
)

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBackendURL, c.Backend.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrInvalidBackendURL, u.Scheme)
	}

	switch c.Chat.DefaultMode {
	case "rag", "advanced_rag", "web_search":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.Chat.DefaultMode)
	}

	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTheme, c.UI.Theme)
	}

	return nil
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the configuration to ~/.finsight/config.toml atomically.
// Config files are 0600 in case the file ever grows credentials.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveToPath(path)
}

// SaveToPath writes the configuration to a specific path atomically.
func (c *Config) SaveToPath(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
