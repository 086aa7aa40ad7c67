package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/retail-dw/conformance/pkg/config"
	"github.com/retail-dw/conformance/pkg/connector"
	"github.com/retail-dw/conformance/pkg/pipeline"
	"github.com/retail-dw/conformance/pkg/source"
	"github.com/retail-dw/conformance/pkg/store"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		zap.NewExample().Fatal("Failed to load configuration", zap.Error(err))
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		zap.NewExample().Fatal("Failed to build logger", zap.Error(err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	factory := connector.NewConnectorFactory(cfg, logger)
	srcConn, whConn, err := factory.CreateAllConnectors(ctx)
	if err != nil {
		logger.Fatal("Failed to create database connectors", zap.Error(err))
	}
	defer srcConn.Close()
	defer whConn.Close()

	if err := srcConn.Validate(ctx); err != nil {
		logger.Fatal("Source connection validation failed", zap.Error(err))
	}
	if err := whConn.Validate(ctx); err != nil {
		logger.Fatal("Warehouse connection validation failed", zap.Error(err))
	}

	warehouse, err := store.NewPostgresStore(ctx, whConn.DB(), cfg.Warehouse.Schema, logger.Named("warehouse"))
	if err != nil {
		logger.Fatal("Failed to initialize conformed store", zap.Error(err))
	}

	src := source.NewSQLSource(srcConn.DB(), cfg.Source.Schema, cfg.Source.QueryTimeout, logger.Named("source"))
	manager := pipeline.NewManager(src, store.New(), logger.Named("pipeline")).WithPersister(warehouse)

	runOnce := func() {
		report, err := manager.Run(ctx)
		if err != nil {
			logger.Error("Conformance run failed", zap.Error(err))
			return
		}
		logger.Info("Conformance run committed",
			zap.String("run_id", report.RunID),
			zap.Duration("duration", report.Metrics.Duration()))
	}

	if cfg.RunInterval <= 0 {
		runOnce()
		return
	}

	// Daemon mode: run on a fixed schedule until interrupted
	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Every(cfg.RunInterval).SingletonMode().Do(runOnce); err != nil {
		logger.Fatal("Failed to schedule conformance runs", zap.Error(err))
	}
	scheduler.StartAsync()
	logger.Info("Scheduled conformance runs", zap.Duration("interval", cfg.RunInterval))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("Shutting down", zap.String("signal", sig.String()))
	scheduler.Stop()
	cancel()
}

// buildLogger constructs the zap logger per the configured level/format
func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.LogFormat == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
