package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"spendwise/internal/export"

	"golang.org/x/oauth2"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets records the calls a Writer makes against the Sheets REST API.
type fakeSheets struct {
	mu      sync.Mutex
	titles  []string
	calls   []string
	written [][]interface{}
	input   string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet:
		f.calls = append(f.calls, "get")
		var sheets []map[string]any
		for _, t := range f.titles {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": t}})
		}
		json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
	case strings.HasSuffix(path, ":batchUpdate"):
		f.calls = append(f.calls, "addSheet")
		var req gsheet.BatchUpdateSpreadsheetRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Requests) == 1 && req.Requests[0].AddSheet != nil {
			f.titles = append(f.titles, req.Requests[0].AddSheet.Properties.Title)
		}
		w.Write([]byte(`{}`))
	case strings.HasSuffix(path, ":clear"):
		f.calls = append(f.calls, "clear")
		w.Write([]byte(`{}`))
	case r.Method == http.MethodPut:
		f.calls = append(f.calls, "update")
		f.input = r.URL.Query().Get("valueInputOption")
		var vr gsheet.ValueRange
		json.NewDecoder(r.Body).Decode(&vr)
		f.written = vr.Values
		w.Write([]byte(`{}`))
	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusNotFound)
	}
}

func newTestWriter(t *testing.T, fake *fakeSheets) *Writer {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return newWriter(svc, "sheet-id")
}

func testTable() export.Table {
	return export.Table{
		Header: export.Header,
		Rows:   [][]string{{"1/15/2024", "Lunch", "Food", "12.30", ""}},
	}
}

func TestWriter_WriteCreatesMissingSheet(t *testing.T) {
	fake := &fakeSheets{titles: []string{"Sheet1"}}
	w := newTestWriter(t, fake)

	if err := w.Write(context.Background(), "", testTable()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := []string{"get", "addSheet", "clear", "update"}
	if strings.Join(fake.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", fake.calls, want)
	}
	if fake.input != "RAW" {
		t.Errorf("valueInputOption = %q, want RAW", fake.input)
	}
	if len(fake.written) != 2 {
		t.Fatalf("written rows = %d, want 2", len(fake.written))
	}
	if fake.written[0][0] != "Date" || fake.written[1][3] != "12.30" {
		t.Errorf("unexpected values: %v", fake.written)
	}
}

func TestWriter_WriteExistingSheet(t *testing.T) {
	fake := &fakeSheets{titles: []string{"Expenses"}}
	w := newTestWriter(t, fake)

	if err := w.Write(context.Background(), "expenses", testTable()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	for _, c := range fake.calls {
		if c == "addSheet" {
			t.Error("existing sheet should not be re-created")
		}
	}
}

func TestWriter_NilService(t *testing.T) {
	w := &Writer{spreadsheetID: "x"}
	if err := w.Write(context.Background(), "Expenses", testTable()); err == nil {
		t.Fatal("expected error with nil service")
	}
}

func TestNewWriter_MissingSpreadsheetID(t *testing.T) {
	_, err := NewWriter(context.Background(), Config{})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewWriter_MissingCredentials(t *testing.T) {
	_, err := NewWriter(context.Background(), Config{SpreadsheetID: "id"})
	if err == nil || !strings.Contains(err.Error(), "missing credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewWriter_InvalidOAuthClient(t *testing.T) {
	dir := t.TempDir()
	clientFile := filepath.Join(dir, "client.json")
	if err := os.WriteFile(clientFile, []byte("invalid-json"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := NewWriter(context.Background(), Config{
		SpreadsheetID:   "id",
		OAuthClientFile: clientFile,
		OAuthTokenFile:  filepath.Join(dir, "token.json"),
	})
	if err == nil || !strings.Contains(err.Error(), "oauth config") {
		t.Errorf("expected oauth config error, got: %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	tok := &oauth2.Token{AccessToken: "a", RefreshToken: "r", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}

	if err := SaveToken(path, tok); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	got, err := LoadToken(path)
	if err != nil {
		t.Fatalf("LoadToken: %v", err)
	}
	if got.RefreshToken != "r" || !got.Expiry.Equal(tok.Expiry) {
		t.Errorf("unexpected token: %+v", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("token file mode = %v, want 0600", info.Mode().Perm())
	}
}
