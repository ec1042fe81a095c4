// Package cli carries the command-line glue around the ledger: shared
// initialization and the subcommand implementations. Everything here is
// presentation; the ledger package owns the semantics.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"onepaisa/internal/config"
	"onepaisa/internal/ledger"
	applog "onepaisa/internal/log"
	"onepaisa/internal/storage"
)

// LoadEnvFile loads an optional .env file; absence is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger initializes structured logging and installs it as default.
func SetupLogger(cfg *config.Config) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     cfg.LogLevel,
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration or exits on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		applog.New(applog.Config{Component: applog.ComponentConfig}).
			Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg
}

// InitLedger opens the store and builds the ledger service, or exits.
func InitLedger(logger *applog.Logger, cfg *config.Config) (*ledger.Service, *storage.SQLiteRepository) {
	repo, err := storage.NewSQLiteRepository(cfg.DBPath)
	if err != nil {
		logger.WithComponent(applog.ComponentStorage).
			Error("Failed to open ledger store", applog.FieldError, err.Error(), applog.FieldDBPath, cfg.DBPath)
		os.Exit(1)
	}
	svc := ledger.NewService(repo, ledger.Config{
		WalletAccount: cfg.WalletAccount,
		Currency:      cfg.Currency,
	})
	return svc, repo
}
