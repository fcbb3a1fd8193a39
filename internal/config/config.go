package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ark-forge/mcp-eu-ai-act/internal/logging"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const APP_NAME = "aiact" // application name used for config and data directories

// Defaults for the admission and traversal limits. These mirror the
// service's published free-tier terms and the scanner's safety caps.
const (
	DefaultFreeTierDailyLimit = 10
	DefaultMaxFiles           = 5000
	DefaultMaxFileSize        = 1 << 20 // 1 MiB per file
	DefaultListenAddr         = ":8091"
)

// Config holds service configuration for aiact.
type Config struct {
	// ListenAddr is the address the session gateway binds to.
	ListenAddr string `yaml:"listen_addr"`

	// DataDir is where persisted state lives (api_keys.json, rate_limits.json).
	DataDir string `yaml:"data_dir"`

	// FreeTierDailyLimit is the per-client request quota in a rolling 24h window.
	FreeTierDailyLimit int `yaml:"free_tier_daily_limit"`

	// MaxFiles caps how many files a single scan may collect.
	MaxFiles int `yaml:"max_files"`

	// MaxFileSize caps the size in bytes of any file included in a scan.
	MaxFileSize int64 `yaml:"max_file_size"`

	Version  string `yaml:"version"`
	InitTime int64  `yaml:"init_time"` // Unix timestamp of first setup
}

// ConfigPath returns the standard config file path for the current platform
func ConfigPath() (string, error) {
	configDir := filepath.Join(xdg.ConfigHome, APP_NAME)
	configPath := filepath.Join(configDir, "config.yaml")

	logging.Debug("Determined config path", "path", configPath)
	return configPath, nil
}

// DefaultDataDir returns the standard data directory for persisted state.
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, APP_NAME)
}

// Load loads the config from the standard location.
// If no config exists, defaults are returned so the server can start
// without a first-run ceremony.
func Load() (*Config, error) {
	configPath, exists := FindConfigFile()
	logging.Debug("Loading config from", "path", configPath)
	if !exists {
		cfg := DefaultConfig()
		return &cfg, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads config from a specific path
func LoadFrom(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// FindConfigFile returns the path to an existing config file, and whether it exists.
func FindConfigFile() (string, bool) {
	primary, err := ConfigPath()
	if err != nil {
		logging.Error("Failed to get config path", "error", err)
		return "", false
	}

	if _, err := os.Stat(primary); err == nil {
		logging.Debug("Config found at primary path", "path", primary)
		return primary, true
	}

	// Return primary path for new config
	return primary, false
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:         DefaultListenAddr,
		DataDir:            DefaultDataDir(),
		FreeTierDailyLimit: DefaultFreeTierDailyLimit,
		MaxFiles:           DefaultMaxFiles,
		MaxFileSize:        DefaultMaxFileSize,
		Version:            "1.0",
		InitTime:           0, // set on first save
	}
}

// applyDefaults fills zero-valued fields after a partial config file load.
func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.FreeTierDailyLimit == 0 {
		c.FreeTierDailyLimit = DefaultFreeTierDailyLimit
	}
	if c.MaxFiles == 0 {
		c.MaxFiles = DefaultMaxFiles
	}
	if c.MaxFileSize == 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
}

// Save writes the config to the standard location
func (c *Config) Save() error {
	configPath, _ := FindConfigFile()
	return c.SaveTo(configPath)
}

// SaveTo writes the config to a specific path
func (c *Config) SaveTo(path string) error {
	if c.InitTime == 0 {
		c.InitTime = time.Now().Unix()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Restrictive permissions: the data dir location is not secret, but
	// keeping config files 0600 matches the persisted key material next to it.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// KeyFilePath returns the persisted API key file inside the data dir.
func (c *Config) KeyFilePath() string {
	return filepath.Join(c.DataDir, "api_keys.json")
}

// RateLimitFilePath returns the persisted rate-limit file inside the data dir.
func (c *Config) RateLimitFilePath() string {
	return filepath.Join(c.DataDir, "rate_limits.json")
}

// EnsureDataDir creates the data directory if it does not exist.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}
