// Package google writes export tables to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"spendwise/internal/export"

	"golang.org/x/oauth2"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the spreadsheet and the credentials used to reach it.
// A service account file takes precedence over an OAuth client/token pair.
type Config struct {
	SpreadsheetID      string
	ServiceAccountFile string
	OAuthClientFile    string
	OAuthTokenFile     string
}

type Writer struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ export.Writer = (*Writer)(nil)

// NewWriter creates a Sheets writer from cfg.
func NewWriter(ctx context.Context, cfg Config) (*Writer, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newWriter(svc, spreadsheetID), nil
}

func newWriter(svc *gsheet.Service, spreadsheetID string) *Writer {
	return &Writer{svc: svc, spreadsheetID: spreadsheetID}
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	saFile := strings.TrimSpace(cfg.ServiceAccountFile)
	clientFile := strings.TrimSpace(cfg.OAuthClientFile)
	tokenFile := strings.TrimSpace(cfg.OAuthTokenFile)

	switch {
	case saFile != "":
		slog.InfoContext(ctx, "Reading service account credentials", "path", saFile)
		credentialsJSON, err := os.ReadFile(saFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return gsheet.NewService(ctx,
			goption.WithCredentialsJSON(credentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope))

	case clientFile != "" && tokenFile != "":
		oauthCfg, err := OAuthConfigFromFile(clientFile)
		if err != nil {
			return nil, err
		}
		tok, err := LoadToken(tokenFile)
		if err != nil {
			return nil, fmt.Errorf("load oauth token: %w", err)
		}
		slog.InfoContext(ctx, "Using OAuth token credentials", "token_file", tokenFile)
		// The oauth2 transport picks up the pooled client from the context.
		ctx = context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
		return gsheet.NewService(ctx, goption.WithHTTPClient(oauthCfg.Client(ctx, tok)))

	default:
		return nil, errors.New("missing credentials (set GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_OAUTH_CLIENT_FILE and GOOGLE_OAUTH_TOKEN_FILE)")
	}
}

// newHTTPClientWithPooling creates an HTTP client tuned for the Sheets API
// with connection pooling and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// Write replaces the contents of the named tab with table, creating the
// tab when it does not exist yet.
func (w *Writer) Write(ctx context.Context, sheet string, table export.Table) error {
	if w.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		sheet = export.DefaultSheet
	}

	if err := w.ensureSheet(ctx, sheet); err != nil {
		return err
	}

	clearRange := fmt.Sprintf("%s!A:Z", sheet)
	if _, err := w.svc.Spreadsheets.Values.Clear(w.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	writeRange := fmt.Sprintf("%s!A1", sheet)
	vr := &gsheet.ValueRange{Values: toValues(table)}
	if _, err := w.svc.Spreadsheets.Values.Update(w.spreadsheetID, writeRange, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", writeRange, err)
	}

	slog.InfoContext(ctx, "Export written to Google Sheets",
		"spreadsheet_id", w.spreadsheetID,
		"sheet", sheet,
		"rows", table.Len())
	return nil
}

func (w *Writer) ensureSheet(ctx context.Context, sheet string) error {
	ss, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && strings.EqualFold(s.Properties.Title, sheet) {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: sheet},
			},
		}},
	}
	if _, err := w.svc.Spreadsheets.BatchUpdate(w.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", sheet, err)
	}
	slog.InfoContext(ctx, "Created sheet", "sheet", sheet)
	return nil
}

func toValues(table export.Table) [][]interface{} {
	grid := table.Values()
	out := make([][]interface{}, len(grid))
	for i, row := range grid {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}
