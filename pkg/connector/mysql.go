// pkg/connector/mysql.go
package connector

import (
	"context"
	"fmt"
	"time"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/retail-dw/conformance/pkg/config"
)

// MySQLConnector implements the DatabaseConnector interface for MySQL,
// used when the ERP extracts are hosted on a MySQL instance.
type MySQLConnector struct {
	db     *sqlx.DB
	logger *zap.Logger
	name   string
}

// NewMySQLSourceConnector creates a connection to a mysql-hosted raw source
func NewMySQLSourceConnector(ctx context.Context, cfg *config.SourceConfig) (*MySQLConnector, error) {
	logger := zap.L().Named("mysql-source-connector")

	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.Database
	mc.ParseTime = true

	db, err := sqlx.Open("mysql", mc.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mysql source connection: %w", err)
	}

	ApplyConnectionSettings(db, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime, cfg.ConnMaxIdleTime)

	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to mysql source: %w", err)
	}

	logger.Info("Connected to mysql source",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &MySQLConnector{db: db, logger: logger, name: cfg.Database}, nil
}

// DB returns the underlying database handle
func (c *MySQLConnector) DB() *sqlx.DB {
	return c.db
}

// Validate verifies the MySQL connection
func (c *MySQLConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query MySQL version: %w", err)
	}
	c.logger.Info("Connected to MySQL", zap.String("version", version))
	return nil
}

// Close closes the connection and releases resources
func (c *MySQLConnector) Close() error {
	c.logger.Info("Closing MySQL connection", zap.String("database", c.name))
	return c.db.Close()
}
