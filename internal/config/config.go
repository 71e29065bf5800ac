// Package config loads and saves the installer configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. VTINSTALLER_SERVER_ADDR.
const EnvPrefix = "VTINSTALLER"

// Config is the installer configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Wings    WingsConfig    `yaml:"wings"`
	Activity ActivityConfig `yaml:"activity"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP listener configuration.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// APIToken is the bearer token callers must present. Empty disables the
	// check.
	APIToken string `yaml:"api_token"`
}

// CatalogConfig holds Vanilla Tweaks client configuration.
type CatalogConfig struct {
	BaseURL        string        `yaml:"base_url"`
	UserAgent      string        `yaml:"user_agent"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	Timeout        time.Duration `yaml:"timeout"`
	CacheSize      int           `yaml:"cache_size"`
	MaxArchiveSize string        `yaml:"max_archive_size"`
	MinPause       time.Duration `yaml:"min_pause"`
	MaxPause       time.Duration `yaml:"max_pause"`
	TempDir        string        `yaml:"temp_dir"`
}

// NodeConfig is one Wings daemon.
type NodeConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// WingsConfig maps servers to the daemons hosting them.
type WingsConfig struct {
	Nodes       map[string]NodeConfig `yaml:"nodes"`
	DefaultNode string                `yaml:"default_node"`
	// Servers maps server UUIDs to node ids. Servers not listed use
	// DefaultNode.
	Servers        map[string]string `yaml:"servers"`
	ConnectTimeout time.Duration     `yaml:"connect_timeout"`
	Timeout        time.Duration     `yaml:"timeout"`
}

// ActivityConfig configures the activity store.
type ActivityConfig struct {
	// Database is the SQLite file path. Empty logs activity instead.
	Database string `yaml:"database"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    2 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Catalog: CatalogConfig{
			BaseURL:        "https://vanillatweaks.net",
			ConnectTimeout: 10 * time.Second,
			Timeout:        30 * time.Second,
			CacheSize:      512,
			MaxArchiveSize: "64MB",
			MinPause:       500 * time.Millisecond,
			MaxPause:       1500 * time.Millisecond,
		},
		Wings: WingsConfig{
			Nodes:          map[string]NodeConfig{},
			Servers:        map[string]string{},
			ConnectTimeout: 10 * time.Second,
			Timeout:        30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration from path on top of the defaults and applies
// VTINSTALLER_* environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	defaults, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal defaults: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	err = v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	normalizeNodeIDs(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// normalizeNodeIDs lowercases node references to match the map keys, which
// viper lowercases while reading.
func normalizeNodeIDs(cfg *Config) {
	cfg.Wings.DefaultNode = strings.ToLower(cfg.Wings.DefaultNode)
	for server, node := range cfg.Wings.Servers {
		cfg.Wings.Servers[server] = strings.ToLower(node)
	}
}

// Save validates cfg and writes it to path atomically, keeping the previous
// file as path.bak.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks cfg for values the installer cannot run with.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if cfg.Server.Addr == "" {
		return fmt.Errorf("server address cannot be empty")
	}

	if err := validateURL(cfg.Catalog.BaseURL); err != nil {
		return fmt.Errorf("invalid catalog base URL: %w", err)
	}
	if cfg.Catalog.CacheSize < 1 {
		return fmt.Errorf("catalog cache size must be >= 1, got %d", cfg.Catalog.CacheSize)
	}
	if _, err := cfg.MaxArchiveBytes(); err != nil {
		return err
	}
	if cfg.Catalog.MinPause < 0 || cfg.Catalog.MaxPause < 0 {
		return fmt.Errorf("catalog pause bounds cannot be negative")
	}
	if cfg.Catalog.MinPause > cfg.Catalog.MaxPause {
		return fmt.Errorf("catalog min pause %v exceeds max pause %v", cfg.Catalog.MinPause, cfg.Catalog.MaxPause)
	}

	for id, node := range cfg.Wings.Nodes {
		if err := validateURL(node.URL); err != nil {
			return fmt.Errorf("invalid URL for wings node %q: %w", id, err)
		}
	}
	if cfg.Wings.DefaultNode != "" {
		if _, ok := cfg.Wings.Nodes[cfg.Wings.DefaultNode]; !ok {
			return fmt.Errorf("default wings node %q is not configured", cfg.Wings.DefaultNode)
		}
	}
	for server, node := range cfg.Wings.Servers {
		if _, ok := cfg.Wings.Nodes[node]; !ok {
			return fmt.Errorf("server %q references unknown wings node %q", server, node)
		}
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, cfg.Logging.Level) {
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %q (must be text or json)", cfg.Logging.Format)
	}

	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must be an http or https URL", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}

// MaxArchiveBytes parses Catalog.MaxArchiveSize.
func (c *Config) MaxArchiveBytes() (int64, error) {
	n, err := units.FromHumanSize(c.Catalog.MaxArchiveSize)
	if err != nil {
		return 0, fmt.Errorf("invalid max archive size %q: %w", c.Catalog.MaxArchiveSize, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("max archive size must be positive, got %q", c.Catalog.MaxArchiveSize)
	}
	return n, nil
}

// NodeFor returns the id and configuration of the node hosting serverUUID.
func (c *Config) NodeFor(serverUUID string) (string, NodeConfig, bool) {
	id, ok := c.Wings.Servers[strings.ToLower(serverUUID)]
	if !ok {
		id = c.Wings.DefaultNode
	}
	if id == "" {
		return "", NodeConfig{}, false
	}
	node, ok := c.Wings.Nodes[id]
	return id, node, ok
}
