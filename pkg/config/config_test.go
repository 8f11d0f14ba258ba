package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "prod" {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}
	if cfg.Storage.NormalizedDriver() != StorageDriverSQLite {
		t.Fatalf("expected sqlite default driver, got %q", cfg.Storage.Driver)
	}
	if got := cfg.Checkout.PrintFallback; got != 30*time.Second {
		t.Fatalf("expected print fallback 30s, got %v", got)
	}
	if cfg.Checkout.SourceAlias != "pos" {
		t.Fatalf("unexpected source alias %q", cfg.Checkout.SourceAlias)
	}
	rate, err := cfg.Checkout.Rate()
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if rate.String() != "0.1" {
		t.Fatalf("expected tax rate 0.1, got %s", rate)
	}
	if cfg.Printer.NormalizedMode() != PrinterModeNone {
		t.Fatalf("expected printer mode none, got %q", cfg.Printer.Mode)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RedisDriverNeedsAddress(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStorageDriver, "redis")

	if _, err := Load(); err == nil {
		t.Fatal("expected redis driver without url/addr to fail")
	}

	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	if _, err := Load(); err != nil {
		t.Fatalf("expected redis driver with url to load, got %v", err)
	}
}

func TestLoad_InvalidTaxRate(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvCheckoutTaxRate, "1.5")

	if _, err := Load(); err == nil {
		t.Fatal("expected tax rate above 1 to fail")
	}
}

func TestLoad_NetworkPrinterNeedsAddress(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvPrinterMode, "network")

	if _, err := Load(); err == nil {
		t.Fatal("expected network printer without address to fail")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvBackendBaseURL, "https://backend.example.com/api")
	t.Setenv(EnvCheckoutTaxRate, "0.1")
	for _, key := range []string{EnvStorageDriver, EnvRedisURL, EnvRedisAddr, EnvPrinterMode, EnvPrinterAddress} {
		unsetEnv(t, key)
	}
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	// t.Setenv registers the restore before the variable is dropped.
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset %s: %v", key, err)
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}
