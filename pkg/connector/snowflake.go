// pkg/connector/snowflake.go
package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/retail-dw/conformance/pkg/config"
)

// SnowflakeConnector implements the DatabaseConnector interface for
// Snowflake, used when the CRM extracts land in a Snowflake stage.
type SnowflakeConnector struct {
	db     *sqlx.DB
	logger *zap.Logger
	name   string
}

// NewSnowflakeSourceConnector creates a connection to a snowflake-hosted raw source
func NewSnowflakeSourceConnector(ctx context.Context, cfg *config.SourceConfig) (*SnowflakeConnector, error) {
	logger := zap.L().Named("snowflake-source-connector")

	sfCfg := &gosnowflake.Config{
		Account:   cfg.Account,
		User:      cfg.User,
		Password:  cfg.Password,
		Database:  cfg.Database,
		Schema:    cfg.Schema,
		Warehouse: cfg.Warehouse,
		Role:      cfg.Role,
	}

	dsn, err := gosnowflake.DSN(sfCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build snowflake DSN: %w", err)
	}

	db, err := sqlx.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snowflake source connection: %w", err)
	}

	ApplyConnectionSettings(db, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime, cfg.ConnMaxIdleTime)

	if err := PingWithTimeout(ctx, db, 10*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to snowflake source: %w", err)
	}

	logger.Info("Connected to snowflake source",
		zap.String("account", cfg.Account),
		zap.String("database", cfg.Database),
		zap.String("warehouse", cfg.Warehouse))

	return &SnowflakeConnector{db: db, logger: logger, name: cfg.Database}, nil
}

// DB returns the underlying database handle
func (c *SnowflakeConnector) DB() *sqlx.DB {
	return c.db
}

// Validate verifies the Snowflake connection and warehouse availability
func (c *SnowflakeConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.QueryRowContext(ctx, "SELECT CURRENT_VERSION()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query Snowflake version: %w", err)
	}
	c.logger.Info("Connected to Snowflake", zap.String("version", version))
	return nil
}

// Close closes the connection and releases resources
func (c *SnowflakeConnector) Close() error {
	c.logger.Info("Closing Snowflake connection", zap.String("database", c.name))
	return c.db.Close()
}
