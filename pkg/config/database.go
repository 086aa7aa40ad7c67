// pkg/config/database.go
package config

import (
	"errors"
	"fmt"
	"time"
)

// Source drivers supported for the raw record source. The CRM and ERP
// extracts land on different engines depending on the deployment.
const (
	DriverPostgres  = "postgres"
	DriverMySQL     = "mysql"
	DriverSnowflake = "snowflake"
)

// SourceConfig holds connection parameters for the raw record source
type SourceConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Schema   string // schema/namespace holding the raw tables
	SSLMode  string // postgres only

	// Snowflake-specific
	Account   string
	Warehouse string
	Role      string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Query timeout
	QueryTimeout time.Duration
}

// WarehouseConfig holds PostgreSQL connection parameters for the
// conformed store
type WarehouseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Schema   string
	SSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Statement timeout
	StatementTimeout time.Duration
}

// LoadSourceConfig loads raw source configuration from environment variables
func LoadSourceConfig() (*SourceConfig, error) {
	driver := getEnv("SOURCE_DRIVER", DriverPostgres)

	user := getEnv("SOURCE_USER", "")
	if user == "" {
		return nil, errors.New("SOURCE_USER environment variable is required")
	}

	password := getEnv("SOURCE_PASSWORD", "")
	if password == "" {
		return nil, errors.New("SOURCE_PASSWORD environment variable is required")
	}

	database := getEnv("SOURCE_DATABASE", "")
	if database == "" {
		return nil, errors.New("SOURCE_DATABASE environment variable is required")
	}

	cfg := &SourceConfig{
		Driver:   driver,
		Host:     getEnv("SOURCE_HOST", "localhost"),
		Port:     getEnvAsInt("SOURCE_PORT", defaultSourcePort(driver)),
		User:     user,
		Password: password,
		Database: database,
		Schema:   getEnv("SOURCE_SCHEMA", "raw"),
		SSLMode:  getEnv("SOURCE_SSLMODE", "disable"),

		Account:   getEnv("SOURCE_SNOWFLAKE_ACCOUNT", ""),
		Warehouse: getEnv("SOURCE_SNOWFLAKE_WAREHOUSE", ""),
		Role:      getEnv("SOURCE_SNOWFLAKE_ROLE", ""),

		MaxOpenConns:    getEnvAsInt("SOURCE_MAX_OPEN_CONNS", 5),
		MaxIdleConns:    getEnvAsInt("SOURCE_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: time.Duration(getEnvAsInt("SOURCE_CONN_MAX_LIFETIME_SECONDS", 600)) * time.Second,
		ConnMaxIdleTime: time.Duration(getEnvAsInt("SOURCE_CONN_MAX_IDLE_TIME_SECONDS", 300)) * time.Second,

		QueryTimeout: time.Duration(getEnvAsInt("SOURCE_QUERY_TIMEOUT_SECONDS", 120)) * time.Second,
	}

	return cfg, nil
}

// Validate ensures the source configuration is usable for its driver
func (c *SourceConfig) Validate() error {
	switch c.Driver {
	case DriverPostgres, DriverMySQL:
		if c.Host == "" {
			return errors.New("source host is required")
		}
	case DriverSnowflake:
		if c.Account == "" {
			return errors.New("SOURCE_SNOWFLAKE_ACCOUNT is required for the snowflake driver")
		}
		if c.Warehouse == "" {
			return errors.New("SOURCE_SNOWFLAKE_WAREHOUSE is required for the snowflake driver")
		}
	default:
		return fmt.Errorf("unsupported source driver: %s", c.Driver)
	}

	if c.QueryTimeout <= 0 {
		return errors.New("source query timeout must be positive")
	}

	return nil
}

// LoadWarehouseConfig loads conformed store configuration from environment variables
func LoadWarehouseConfig() (*WarehouseConfig, error) {
	user := getEnv("WAREHOUSE_USER", "")
	if user == "" {
		return nil, errors.New("WAREHOUSE_USER environment variable is required")
	}

	password := getEnv("WAREHOUSE_PASSWORD", "")
	if password == "" {
		return nil, errors.New("WAREHOUSE_PASSWORD environment variable is required")
	}

	cfg := &WarehouseConfig{
		Host:     getEnv("WAREHOUSE_HOST", "localhost"),
		Port:     getEnvAsInt("WAREHOUSE_PORT", 5432),
		User:     user,
		Password: password,
		Database: getEnv("WAREHOUSE_DATABASE", "warehouse"),
		Schema:   getEnv("WAREHOUSE_SCHEMA", "conformed"),
		SSLMode:  getEnv("WAREHOUSE_SSLMODE", "disable"),

		MaxOpenConns:    getEnvAsInt("WAREHOUSE_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvAsInt("WAREHOUSE_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: time.Duration(getEnvAsInt("WAREHOUSE_CONN_MAX_LIFETIME_SECONDS", 600)) * time.Second,
		ConnMaxIdleTime: time.Duration(getEnvAsInt("WAREHOUSE_CONN_MAX_IDLE_TIME_SECONDS", 300)) * time.Second,

		StatementTimeout: time.Duration(getEnvAsInt("WAREHOUSE_STATEMENT_TIMEOUT_SECONDS", 120)) * time.Second,
	}

	return cfg, nil
}

// ConnectionString builds a lib/pq connection string for the warehouse
func (c *WarehouseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func defaultSourcePort(driver string) int {
	switch driver {
	case DriverMySQL:
		return 3306
	case DriverSnowflake:
		return 443
	default:
		return 5432
	}
}
