package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/export"
	"spendwise/internal/report"
)

// ErrExportDisabled is returned when no export sink is configured.
var ErrExportDisabled = errors.New("export not configured")

// ExportRequester queues exports for asynchronous processing.
type ExportRequester interface {
	PublishExportRequested(ctx context.Context, msg *amqp.ExportRequestedMessage) error
}

// ExportResult describes a finished or queued export.
type ExportResult struct {
	RequestID string `json:"requestId,omitempty"`
	Queued    bool   `json:"queued"`
	Rows      int    `json:"rows"`
	Sheet     string `json:"sheet"`
}

// ExportService writes a user's filtered expenses to the configured sink.
type ExportService struct {
	expenses  *ExpenseService
	writer    export.Writer
	requester ExportRequester
	sheet     string
	now       func() time.Time
}

// NewExportService wires the export pipeline. writer or requester may be
// nil; with a requester, Request queues instead of writing inline.
func NewExportService(expenses *ExpenseService, writer export.Writer, requester ExportRequester, sheet string) *ExportService {
	if sheet == "" {
		sheet = export.DefaultSheet
	}
	return &ExportService{
		expenses:  expenses,
		writer:    writer,
		requester: requester,
		sheet:     sheet,
		now:       time.Now,
	}
}

// Enabled reports whether Export or Request can succeed.
func (s *ExportService) Enabled() bool {
	return s.writer != nil || s.requester != nil
}

// Export lists the user's expenses, applies q and writes the table to
// sheet. An empty sheet means the configured default.
func (s *ExportService) Export(ctx context.Context, userID string, q report.Query, sheet string) (int, error) {
	if s.writer == nil {
		return 0, ErrExportDisabled
	}
	if sheet == "" {
		sheet = s.sheet
	}

	list, err := s.expenses.List(ctx, userID)
	if err != nil {
		return 0, err
	}

	table := export.Rows(q.Filter(list, s.now()))
	if err := s.writer.Write(ctx, sheet, table); err != nil {
		return 0, core.Unavailable("write export", err)
	}

	slog.InfoContext(ctx, "Expenses exported",
		"user_id", userID,
		"range", string(q.Range),
		"category", q.Category,
		"sheet", sheet,
		"rows", table.Len())
	return table.Len(), nil
}

// Request queues an export when a requester is configured and otherwise
// runs it synchronously. A failed publish falls back to the synchronous
// path when a writer is available.
func (s *ExportService) Request(ctx context.Context, userID string, q report.Query) (ExportResult, error) {
	if userID == "" {
		return ExportResult{}, core.ErrUnauthenticated
	}
	if !s.Enabled() {
		return ExportResult{}, ErrExportDisabled
	}

	if s.requester != nil {
		msg := amqp.NewExportRequestedMessage(userID, string(q.Range), q.Category, s.sheet)
		err := s.requester.PublishExportRequested(ctx, msg)
		if err == nil {
			return ExportResult{RequestID: msg.RequestID, Queued: true, Sheet: s.sheet}, nil
		}
		if s.writer == nil {
			return ExportResult{}, core.Unavailable("queue export", err)
		}
		slog.WarnContext(ctx, "Failed to queue export, exporting inline",
			"user_id", userID,
			"error", err)
	}

	n, err := s.Export(ctx, userID, q, "")
	if err != nil {
		return ExportResult{}, err
	}
	return ExportResult{Rows: n, Sheet: s.sheet}, nil
}
