// Package config handles loading and managing mailarch configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the mailarch configuration.
type Config struct {
	Data   DataConfig   `toml:"data"`
	Ingest IngestConfig `toml:"ingest"`
	Server ServerConfig `toml:"server"`

	// Computed paths (not from config file)
	HomeDir string `toml:"-"`
}

// DataConfig holds data storage configuration.
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// IngestConfig holds ingestion pipeline configuration.
type IngestConfig struct {
	Workers   int `toml:"workers"`    // Parallel pipeline workers (default: 4)
	BatchSize int `toml:"batch_size"` // Records per progress batch (default: 800)
}

// ServerConfig holds HTTP API server configuration.
type ServerConfig struct {
	APIPort      int     `toml:"api_port"`       // HTTP server port (default: 8080)
	APIKey       string  `toml:"api_key"`        // API authentication key
	RateLimitQPS float64 `toml:"rate_limit_qps"` // Requests per second per client (default: 10)
}

// DefaultHome returns the default mailarch home directory.
// Respects MAILARCH_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("MAILARCH_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mailarch"
	}
	return filepath.Join(home, ".mailarch")
}

// Load reads the configuration from the specified file.
// If path is empty, uses the default location (~/.mailarch/config.toml).
func Load(path string) (*Config, error) {
	homeDir := DefaultHome()

	if path == "" {
		path = filepath.Join(homeDir, "config.toml")
	}

	cfg := &Config{
		HomeDir: homeDir,
		// Defaults
		Data: DataConfig{
			DataDir: homeDir,
		},
		Ingest: IngestConfig{
			Workers:   4,
			BatchSize: 800,
		},
		Server: ServerConfig{
			APIPort:      8080,
			RateLimitQPS: 10,
		},
	}

	// Config file is optional - use defaults if not present
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Data.DataDir = expandPath(cfg.Data.DataDir)

	return cfg, nil
}

// DatabasePath returns the path to the SQLite database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Data.DataDir, "mailarch.db")
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
