// Package worker processes queued export requests.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/report"
	"spendwise/internal/services"
)

// Exporter performs one export.
type Exporter interface {
	Export(ctx context.Context, userID string, q report.Query, sheet string) (int, error)
}

// Consumer delivers export requests until ctx is cancelled.
type Consumer interface {
	ConsumeExportRequests(ctx context.Context, handler func(context.Context, *amqp.ExportRequestedMessage) error) error
}

type ExportWorker struct {
	exporter Exporter
}

func NewExportWorker(exporter Exporter) *ExportWorker {
	return &ExportWorker{exporter: exporter}
}

// Run consumes requests one at a time until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context, consumer Consumer) error {
	slog.InfoContext(ctx, "Export worker started")
	err := consumer.ConsumeExportRequests(ctx, w.HandleExportRequest)
	if errors.Is(err, context.Canceled) {
		slog.InfoContext(ctx, "Export worker stopped")
		return nil
	}
	return err
}

// HandleExportRequest runs a single export. Requests that can never
// succeed are logged and acknowledged; transient failures are returned so
// the message is redelivered.
func (w *ExportWorker) HandleExportRequest(ctx context.Context, msg *amqp.ExportRequestedMessage) error {
	rangeSel, err := report.ParseRange(msg.Range)
	if err != nil {
		slog.ErrorContext(ctx, "Dropping export request with invalid range",
			"request_id", msg.RequestID,
			"range", msg.Range,
			"error", err)
		return nil
	}

	start := time.Now()
	q := report.Query{Range: rangeSel, Category: msg.Category}
	rows, err := w.exporter.Export(ctx, msg.UserID, q, msg.SpreadsheetTab)
	switch {
	case err == nil:
	case errors.Is(err, core.ErrUnauthenticated):
		slog.ErrorContext(ctx, "Dropping export request without user",
			"request_id", msg.RequestID)
		return nil
	case errors.Is(err, services.ErrExportDisabled):
		return fmt.Errorf("export request %s: %w: %v", msg.RequestID, amqp.ErrDropMessage, err)
	default:
		return fmt.Errorf("export request %s: %w", msg.RequestID, err)
	}

	slog.InfoContext(ctx, "Export request completed",
		"request_id", msg.RequestID,
		"user_id", msg.UserID,
		"rows", rows,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}
