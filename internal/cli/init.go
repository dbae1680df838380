// Package cli holds the start-up steps shared by the spendwise binaries.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"spendwise/internal/config"
	"spendwise/internal/export"
	"spendwise/internal/log"
	"spendwise/internal/sheets/google"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from cfg and installs it as the
// slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: component,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// LoadConfig loads the environment (including .env) and validates it.
func LoadConfig() (*config.Config, error) {
	LoadEnvFile()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoadConfig is LoadConfig for main functions: it exits the process
// on validation failure.
func MustLoadConfig() *config.Config {
	cfg, err := LoadConfig()
	if err != nil {
		slog.Error("Configuration validation failed", "error", err, "error_type", log.ErrorTypeConfiguration)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// ExportWriter returns the Google Sheets writer when Sheets export is
// configured and nil otherwise.
func ExportWriter(ctx context.Context, cfg *config.Config) (export.Writer, error) {
	if !cfg.SheetsEnabled() {
		return nil, nil
	}
	w, err := google.NewWriter(ctx, google.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		OAuthClientFile:    cfg.GoogleOAuthClientFile,
		OAuthTokenFile:     cfg.GoogleOAuthTokenFile,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets writer: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets export enabled",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.ExportSheetName)
	return w, nil
}
