// pkg/connector/postgres.go
package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/retail-dw/conformance/pkg/config"
)

// PostgresConnector implements the DatabaseConnector interface for PostgreSQL.
// It serves both the warehouse connection and the postgres source driver.
type PostgresConnector struct {
	db     *sqlx.DB
	logger *zap.Logger
	name   string
}

// NewWarehouseConnector creates and initializes the conformed store connection
func NewWarehouseConnector(ctx context.Context, cfg *config.WarehouseConfig) (*PostgresConnector, error) {
	logger := zap.L().Named("warehouse-connector")

	logger.Info("Connecting to warehouse",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	db, err := sqlx.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize warehouse connection: %w", err)
	}

	ApplyConnectionSettings(db, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime, cfg.ConnMaxIdleTime)

	// Set statement timeout if configured
	if cfg.StatementTimeout > 0 {
		_, err = db.ExecContext(ctx, fmt.Sprintf("SET statement_timeout = %d", cfg.StatementTimeout.Milliseconds()))
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to warehouse: %w", err)
	}

	c := &PostgresConnector{db: db, logger: logger, name: cfg.Database}
	LogConnectionStats(logger, cfg.Database, db)
	return c, nil
}

// NewPostgresSourceConnector creates a connection to a postgres-hosted raw source
func NewPostgresSourceConnector(ctx context.Context, cfg *config.SourceConfig) (*PostgresConnector, error) {
	logger := zap.L().Named("postgres-source-connector")

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres source connection: %w", err)
	}

	ApplyConnectionSettings(db, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime, cfg.ConnMaxIdleTime)

	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres source: %w", err)
	}

	logger.Info("Connected to postgres source",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresConnector{db: db, logger: logger, name: cfg.Database}, nil
}

// DB returns the underlying database handle
func (c *PostgresConnector) DB() *sqlx.DB {
	return c.db
}

// Validate verifies the PostgreSQL connection
func (c *PostgresConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}
	c.logger.Info("Connected to PostgreSQL", zap.String("version", version))
	return nil
}

// Close closes the connection and releases resources
func (c *PostgresConnector) Close() error {
	c.logger.Info("Closing PostgreSQL connection", zap.String("database", c.name))
	return c.db.Close()
}
