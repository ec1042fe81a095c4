package config

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ONEPAISA_DB_PATH", "ONEPAISA_CURRENCY", "ONEPAISA_WALLET_ACCOUNT", "ONEPAISA_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Currency != "PKR" {
		t.Fatalf("default currency = %q", cfg.Currency)
	}
	if cfg.WalletAccount != "Wallet" {
		t.Fatalf("default wallet = %q", cfg.WalletAccount)
	}
	if !strings.HasSuffix(cfg.DBPath, filepath.Join(".onepaisa", "onepaisa.db")) {
		t.Fatalf("default db path = %q", cfg.DBPath)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("default log level = %v", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	custom := filepath.Join(t.TempDir(), "ledger.db")
	t.Setenv("ONEPAISA_DB_PATH", custom)
	t.Setenv("ONEPAISA_CURRENCY", "EUR")
	t.Setenv("ONEPAISA_WALLET_ACCOUNT", "Cash")
	t.Setenv("ONEPAISA_LOG_LEVEL", "debug")

	cfg := Load()
	if cfg.DBPath != custom {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, custom)
	}
	if cfg.Currency != "EUR" || cfg.WalletAccount != "Cash" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("log level = %v", cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := &Config{DBPath: "", Currency: "RUPEES", WalletAccount: " "}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"database path", "currency", "wallet account"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error should mention %q: %v", want, err)
		}
	}
}

func TestValidateCreatesDBDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "deeper")
	cfg := &Config{DBPath: filepath.Join(dir, "db.sqlite"), Currency: "PKR", WalletAccount: "Wallet"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
