// pkg/config/config.go
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Database connections
	Source    *SourceConfig
	Warehouse *WarehouseConfig

	// Run settings
	RunInterval  time.Duration // 0 means run once and exit
	FetchTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		// Default values
		RunInterval:  time.Duration(getEnvAsInt("RUN_INTERVAL_MINUTES", 0)) * time.Minute,
		FetchTimeout: time.Duration(getEnvAsInt("FETCH_TIMEOUT_SECONDS", 300)) * time.Second,
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "json"),
	}

	srcConfig, err := LoadSourceConfig()
	if err != nil {
		return nil, errors.New("failed to load source configuration: " + err.Error())
	}
	cfg.Source = srcConfig

	whConfig, err := LoadWarehouseConfig()
	if err != nil {
		return nil, errors.New("failed to load warehouse configuration: " + err.Error())
	}
	cfg.Warehouse = whConfig

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.Source == nil {
		return errors.New("source configuration is required")
	}

	if err := c.Source.Validate(); err != nil {
		return err
	}

	if c.Warehouse == nil {
		return errors.New("warehouse configuration is required")
	}

	if c.RunInterval < 0 {
		return errors.New("run interval cannot be negative")
	}

	if c.FetchTimeout <= 0 {
		return errors.New("fetch timeout must be positive")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
