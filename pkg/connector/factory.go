// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/retail-dw/conformance/pkg/config"
)

// ConnectorFactory creates database connectors
type ConnectorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.Config, logger *zap.Logger) *ConnectorFactory {
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSourceConnector creates a connector for the configured raw source driver
func (f *ConnectorFactory) CreateSourceConnector(ctx context.Context) (DatabaseConnector, error) {
	f.logger.Info("Creating source connector", zap.String("driver", f.cfg.Source.Driver))

	switch f.cfg.Source.Driver {
	case config.DriverPostgres:
		return NewPostgresSourceConnector(ctx, f.cfg.Source)
	case config.DriverMySQL:
		return NewMySQLSourceConnector(ctx, f.cfg.Source)
	case config.DriverSnowflake:
		return NewSnowflakeSourceConnector(ctx, f.cfg.Source)
	default:
		return nil, fmt.Errorf("unsupported source driver: %s", f.cfg.Source.Driver)
	}
}

// CreateWarehouseConnector creates the conformed store connector
func (f *ConnectorFactory) CreateWarehouseConnector(ctx context.Context) (*PostgresConnector, error) {
	f.logger.Info("Creating warehouse connector")

	conn, err := NewWarehouseConnector(ctx, f.cfg.Warehouse)
	if err != nil {
		return nil, fmt.Errorf("failed to create warehouse connector: %w", err)
	}

	return conn, nil
}

// CreateAllConnectors creates both the source and warehouse connectors
func (f *ConnectorFactory) CreateAllConnectors(ctx context.Context) (DatabaseConnector, *PostgresConnector, error) {
	srcConn, err := f.CreateSourceConnector(ctx)
	if err != nil {
		return nil, nil, err
	}

	whConn, err := f.CreateWarehouseConnector(ctx)
	if err != nil {
		srcConn.Close() // Clean up the source connection if the warehouse fails
		return nil, nil, err
	}

	return srcConn, whConn, nil
}
