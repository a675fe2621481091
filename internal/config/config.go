package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"github.com/wtgo/gowetransfer/wetransfer"
)

const (
	MinChunkSize       = 1
	MinPartConcurrency = 1
	MaxPartConcurrency = 64
)

// Config represents the command line client configuration
type Config struct {
	APIKey          string `toml:"api_key"`
	Server          string `toml:"server"`
	Loglevel        string `toml:"loglevel"`
	TransferName    string `toml:"transfer_name"`
	ChunkSize       int64  `toml:"chunk_size"`
	PartConcurrency int    `toml:"part_concurrency"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		Server:          wetransfer.DefaultServer,
		Loglevel:        "info",
		TransferName:    wetransfer.DefaultTransferName,
		ChunkSize:       wetransfer.DefaultChunkSize,
		PartConcurrency: 1,
	}
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "gowetransfer")

	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads configuration from a TOML file
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required")
	}
	if c.Server == "" {
		return fmt.Errorf("server is required")
	}
	if strings.Contains(c.Server, "://") &&
		!strings.HasPrefix(c.Server, "http://") && !strings.HasPrefix(c.Server, "https://") {
		return fmt.Errorf("server must be a host name or an http(s) URL")
	}
	if _, err := logrus.ParseLevel(c.Loglevel); err != nil {
		return fmt.Errorf("loglevel must be one of: panic, fatal, error, warn, info, debug, trace")
	}
	if c.ChunkSize < MinChunkSize {
		return fmt.Errorf("chunk_size must be at least %d byte", MinChunkSize)
	}
	if c.PartConcurrency < MinPartConcurrency || c.PartConcurrency > MaxPartConcurrency {
		return fmt.Errorf("part_concurrency must be between %d and %d", MinPartConcurrency, MaxPartConcurrency)
	}

	return nil
}
