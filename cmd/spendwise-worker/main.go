package main

import (
	"context"
	"os"

	"spendwise/internal/backend"
	"spendwise/internal/cli"
	"spendwise/internal/log"
	"spendwise/internal/services"
	"spendwise/internal/worker"
)

func main() {
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	logger.InfoContext(ctx, "Starting spendwise-worker", log.FieldOperation, log.OpStartup)

	if cfg.DataBackend == string(backend.MemoryBackend) {
		logger.WarnContext(ctx, "Worker uses its own memory backend; exports will see no expenses from the server")
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.ErrorContext(ctx, "Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	backendCfg.RequireAMQP = true

	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize backend", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err.Error())
		}
	}()

	writer, err := cli.ExportWriter(ctx, cfg)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize export", log.FieldError, err.Error())
		os.Exit(1)
	}
	if writer == nil {
		// Requests are rejected without requeue until Sheets is configured.
		logger.WarnContext(ctx, "Google Sheets is not configured, export requests will be dropped")
	}

	expenses := services.NewExpenseService(res.Store)
	exports := services.NewExportService(expenses, writer, nil, cfg.ExportSheetName)

	if err := worker.NewExportWorker(exports).Run(ctx, res.AMQP); err != nil {
		logger.Error("Export worker failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully", log.FieldOperation, log.OpShutdown)
}
