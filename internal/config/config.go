package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/neboloop/outfitswitch/internal/defaults"
)

const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"

	IssuerBroadcast = "broadcast"
	IssuerWebhook   = "webhook"
	IssuerLog       = "log"
)

// Config holds the service configuration read from config.yaml.
type Config struct {
	DataDir string `yaml:"data_dir"`
	Store   string `yaml:"store"` // "file" or "sqlite"

	Server   ServerConfig   `yaml:"server"`
	Stream   StreamConfig   `yaml:"stream"`
	Autosave AutosaveConfig `yaml:"autosave"`
	Issuer   IssuerConfig   `yaml:"issuer"`
	Notify   NotifyConfig   `yaml:"notify"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type StreamConfig struct {
	BufferLimit int `yaml:"buffer_limit"` // characters of streamed text kept for matching
}

type AutosaveConfig struct {
	DebounceMs       int    `yaml:"debounce_ms"`
	NoticeCooldownMs int    `yaml:"notice_cooldown_ms"`
	Checkpoint       string `yaml:"checkpoint"` // cron spec, empty = off
}

type IssuerConfig struct {
	Mode           string `yaml:"mode"`
	WebhookURL     string `yaml:"webhook_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// NotifyConfig controls native desktop notifications for status messages.
type NotifyConfig struct {
	Desktop    bool `yaml:"desktop"`
	ErrorsOnly bool `yaml:"errors_only"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir: DefaultDataDir(),
		Store:   StoreFile,
		Server:  ServerConfig{Port: 27480},
		Stream:  StreamConfig{BufferLimit: 2000},
		Autosave: AutosaveConfig{
			DebounceMs:       800,
			NoticeCooldownMs: 1800,
		},
		Issuer: IssuerConfig{
			Mode:           IssuerBroadcast,
			TimeoutSeconds: 10,
		},
		Notify:  NotifyConfig{ErrorsOnly: true},
		Logging: LoggingConfig{Level: "info"},
	}
}

// DefaultDataDir returns the platform data directory, or ".outfitswitch"
// when it cannot be determined.
func DefaultDataDir() string {
	dir, err := defaults.DataDir()
	if err != nil {
		return ".outfitswitch"
	}
	return dir
}

// Load reads config.yaml from the data directory. A missing file yields
// the defaults.
func Load() (*Config, error) {
	path := filepath.Join(DefaultDataDir(), defaults.ConfigFile)
	cfg, err := LoadFrom(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// LoadFrom reads the config at path over the defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses YAML after expanding environment references.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ExpandEnv replaces $NAME and ${NAME} with environment values.
func ExpandEnv(s string) string {
	return os.ExpandEnv(s)
}

func (c *Config) normalize() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	// Expand ~ (config file may have a tilde path)
	if strings.HasPrefix(c.DataDir, "~/") {
		home, _ := os.UserHomeDir()
		c.DataDir = filepath.Join(home, c.DataDir[2:])
	}
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	if c.Store == "" {
		c.Store = StoreFile
	}
	c.Issuer.Mode = strings.ToLower(strings.TrimSpace(c.Issuer.Mode))
	if c.Issuer.Mode == "" {
		c.Issuer.Mode = IssuerBroadcast
	}
	if c.Issuer.TimeoutSeconds <= 0 {
		c.Issuer.TimeoutSeconds = 10
	}
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreFile, StoreSQLite:
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StoreFile, StoreSQLite)
	}
	switch c.Issuer.Mode {
	case IssuerBroadcast, IssuerLog:
	case IssuerWebhook:
		if c.Issuer.WebhookURL == "" {
			return fmt.Errorf("issuer.webhook_url is required in webhook mode")
		}
	default:
		return fmt.Errorf("unknown issuer mode %q", c.Issuer.Mode)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	return nil
}

// EnsureDataDir creates the data directory.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0700)
}

// SettingsPath is where the file store keeps settings.json.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.DataDir, defaults.SettingsFile)
}

// DBPath is the SQLite database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, defaults.DatabaseFile)
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Autosave.DebounceMs) * time.Millisecond
}

func (c *Config) NoticeCooldown() time.Duration {
	return time.Duration(c.Autosave.NoticeCooldownMs) * time.Millisecond
}

func (c *Config) IssuerTimeout() time.Duration {
	return time.Duration(c.Issuer.TimeoutSeconds) * time.Second
}

// Addr is the listen address for serve.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
