package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Store       DatabaseConfig    `yaml:"store"`   // key/value store for cached results (sqlite, memory)
	Archive     DatabaseConfig    `yaml:"archive"` // MongoDB archive of every result seen; empty provider disables it
	Backend     BackendConfig     `yaml:"backend"`
	ObjectStore ObjectStoreConfig `yaml:"object_store,omitempty"`
	Geo         GeoConfig         `yaml:"geo"`
	Refresh     []RefreshSchedule `yaml:"refresh,omitempty"`
	CORSOrigin  string            `yaml:"cors_origin,omitempty"`
	LogLevel    string            `yaml:"log_level,omitempty"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Provider string            `yaml:"provider"`
	URI      string            `yaml:"uri"`
	Database string            `yaml:"database,omitempty"`
	Options  map[string]string `yaml:"options,omitempty"`
}

// BackendConfig points at the external analysis backend
type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	// Rate is the number of requests per second allowed to the backend
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
}

// ObjectStoreConfig configures the MinIO report mirror. Empty endpoint disables it.
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region,omitempty"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Enabled reports whether a report mirror is configured
func (o ObjectStoreConfig) Enabled() bool {
	return o.Endpoint != "" && o.Bucket != ""
}

// GeoConfig holds the sensor constants used for hexagon projection
type GeoConfig struct {
	PixelSizeMeters float64 `yaml:"pixel_size_meters"`
	KmPerDegree     float64 `yaml:"km_per_degree"`
}

// RefreshSchedule re-runs the batch analysis for the stored datasets on a cron expression
type RefreshSchedule struct {
	Name     string `yaml:"name"`
	CronExpr string `yaml:"cron_expr"`
	Analysis string `yaml:"analysis"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Store: DatabaseConfig{
			Provider: "sqlite",
			URI:      filepath.Join(configDir(), "satlens.db"),
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:5000",
			Timeout: 2 * time.Minute,
			Rate:    2,
			Burst:   4,
		},
		Geo: GeoConfig{
			PixelSizeMeters: 463.83,
			KmPerDegree:     111,
		},
		LogLevel: "info",
	}
}

// Load loads configuration from file. Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return config, nil
}

// Validate checks values that would otherwise fail deep inside a component
func (c *Config) Validate() error {
	switch c.Store.Provider {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported store provider: %q", c.Store.Provider)
	}
	switch c.Archive.Provider {
	case "", "mongodb":
	default:
		return fmt.Errorf("unsupported archive provider: %q", c.Archive.Provider)
	}
	if c.Geo.PixelSizeMeters <= 0 || c.Geo.KmPerDegree <= 0 {
		return fmt.Errorf("geo constants must be positive")
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend timeout must not be negative")
	}
	for _, r := range c.Refresh {
		if r.CronExpr == "" {
			return fmt.Errorf("refresh schedule %q has no cron expression", r.Name)
		}
	}
	return nil
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".satlens"
	}
	return filepath.Join(home, ".satlens")
}

// GetConfigPath returns the config file path, honoring SATLENS_CONFIG_PATH
func GetConfigPath() string {
	if envPath := os.Getenv("SATLENS_CONFIG_PATH"); envPath != "" {
		return envPath
	}
	return filepath.Join(configDir(), "config.yaml")
}

// Exists checks if config file exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
