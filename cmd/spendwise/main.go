package main

import (
	"context"
	"os"
	"time"

	"spendwise/internal/auth"
	"spendwise/internal/backend"
	"spendwise/internal/cli"
	apphttp "spendwise/internal/http"
	"spendwise/internal/log"
	"spendwise/internal/preferences"
	"spendwise/internal/services"

	"golang.org/x/sync/errgroup"
)

const janitorInterval = time.Minute

func main() {
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	logger.InfoContext(ctx, "Starting spendwise",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"backend", cfg.DataBackend)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.ErrorContext(ctx, "Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
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

	var opts []services.Option
	var requester services.ExportRequester
	if res.AMQP != nil {
		opts = append(opts, services.WithPublisher(res.AMQP))
		requester = res.AMQP
	}
	expenses := services.NewExpenseService(res.Store, opts...)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:        auth.NewService(res.Store, expenses, cfg.SessionTTL),
		Expenses:    expenses,
		Preferences: preferences.NewService(res.Store, cfg.DefaultCurrency),
		Exports:     services.NewExportService(expenses, writer, requester, cfg.ExportSheetName),
		Store:       res.Store,
	}, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		DashboardCacheSize: cfg.DashboardCacheSize,
		DashboardCacheTTL:  cfg.DashboardCacheTTL,
		SecureCookies:      cfg.SecureCookies(),
		Logger:             logger.WithComponent(log.ComponentHTTP),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return srv.Janitor(gctx, janitorInterval) })

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
