// Package config provides unified configuration loading for the
// CosmicComics server. Supports YAML files, environment variables, and
// programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Library       LibraryConfig       `yaml:"library"`
	Browser       BrowserConfig       `yaml:"browser"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// DatabaseConfig holds metadata store settings.
type DatabaseConfig struct {
	Driver      string `yaml:"driver"` // sqlite3 or postgres
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// DSN returns the connection string for the configured driver.
func (c DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return c.PostgresDSN
	}
	return c.SQLitePath
}

// LibraryConfig holds the on-disk library layout settings.
type LibraryConfig struct {
	BasePath string `yaml:"base_path"`
}

// BrowserConfig holds headless browser settings for the EPUB flow.
type BrowserConfig struct {
	ExecPath string `yaml:"exec_path"` // empty: autodetect
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // json or console
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             4696,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     10 * time.Minute,
			IdleTimeout:      2 * time.Minute,
			GracefulShutdown: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:     "sqlite3",
			SQLitePath: "cosmiccomics.db",
		},
		Library: LibraryConfig{
			BasePath: "data",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// Load reads configuration from an optional YAML file, then applies
// environment overrides. An empty path falls back to defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if cfg.Database.Driver != "sqlite3" && cfg.Database.Driver != "postgres" {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("COSMIC_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("COSMIC_PORT", c.Server.Port)
	c.Library.BasePath = getEnv("COSMIC_DATA_PATH", c.Library.BasePath)
	c.Database.Driver = getEnv("COSMIC_DB_DRIVER", c.Database.Driver)
	c.Database.SQLitePath = getEnv("COSMIC_SQLITE_PATH", c.Database.SQLitePath)
	c.Database.PostgresDSN = getEnv("DATABASE_URL", c.Database.PostgresDSN)
	c.Browser.ExecPath = getEnv("COSMIC_BROWSER_PATH", c.Browser.ExecPath)
	c.Observability.LogLevel = getEnv("COSMIC_LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.LogFormat = getEnv("COSMIC_LOG_FORMAT", c.Observability.LogFormat)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
