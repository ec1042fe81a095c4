package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config is loaded from the environment. The database path may be redirected
// with ONEPAISA_DB_PATH; otherwise the store lives under the user's home
// directory and is created on demand.
type Config struct {
	// Database
	DBPath string

	// Ledger
	Currency      string
	WalletAccount string

	// Logging
	LogLevel slog.Level
}

const (
	envDBPath   = "ONEPAISA_DB_PATH"
	envCurrency = "ONEPAISA_CURRENCY"
	envWallet   = "ONEPAISA_WALLET_ACCOUNT"
	envLogLevel = "ONEPAISA_LOG_LEVEL"
)

func Load() *Config {
	return &Config{
		DBPath:        getEnv(envDBPath, defaultDBPath()),
		Currency:      getEnv(envCurrency, "PKR"),
		WalletAccount: getEnv(envWallet, "Wallet"),
		LogLevel:      parseLevel(getEnv(envLogLevel, "info")),
	}
}

// Validate checks the configuration and prepares the database directory.
func (c *Config) Validate() error {
	var errs []string

	if c.DBPath == "" {
		errs = append(errs, "database path cannot be empty")
	} else {
		dir := filepath.Dir(c.DBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if len(c.Currency) != 3 {
		errs = append(errs, fmt.Sprintf("invalid currency '%s': must be a 3-letter code", c.Currency))
	}
	if strings.TrimSpace(c.WalletAccount) == "" {
		errs = append(errs, "wallet account name cannot be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".onepaisa", "onepaisa.db")
	}
	return filepath.Join(home, ".onepaisa", "onepaisa.db")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
