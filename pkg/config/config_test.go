package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SOURCE_USER", "etl")
	t.Setenv("SOURCE_PASSWORD", "secret")
	t.Setenv("SOURCE_DATABASE", "crm")
	t.Setenv("WAREHOUSE_USER", "dw")
	t.Setenv("WAREHOUSE_PASSWORD", "secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Source.Driver != DriverPostgres {
		t.Errorf("expected default driver postgres, got %s", cfg.Source.Driver)
	}
	if cfg.Source.Port != 5432 {
		t.Errorf("expected default port 5432, got %d", cfg.Source.Port)
	}
	if cfg.RunInterval != 0 {
		t.Errorf("expected run-once default, got %v", cfg.RunInterval)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("expected json log format, got %s", cfg.LogFormat)
	}
}

func TestLoadConfigMissingSourceUser(t *testing.T) {
	t.Setenv("SOURCE_USER", "")
	t.Setenv("SOURCE_PASSWORD", "secret")
	t.Setenv("SOURCE_DATABASE", "crm")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing SOURCE_USER")
	}
}

func TestSourceConfigDriverDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SOURCE_DRIVER", "mysql")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Source.Port != 3306 {
		t.Errorf("expected mysql default port 3306, got %d", cfg.Source.Port)
	}
}

func TestSnowflakeDriverRequiresAccount(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SOURCE_DRIVER", "snowflake")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for snowflake driver without account")
	}

	t.Setenv("SOURCE_SNOWFLAKE_ACCOUNT", "acme-eu1")
	t.Setenv("SOURCE_SNOWFLAKE_WAREHOUSE", "ETL_WH")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Source.Account != "acme-eu1" {
		t.Errorf("unexpected account: %s", cfg.Source.Account)
	}
}

func TestUnsupportedDriverRejected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SOURCE_DRIVER", "oracle")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestRunIntervalParsing(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RUN_INTERVAL_MINUTES", "30")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RunInterval != 30*time.Minute {
		t.Errorf("expected 30m interval, got %v", cfg.RunInterval)
	}
}
