// Package memory is an in-process export sink for tests and local runs
// without Google credentials.
package memory

import (
	"context"
	"strings"
	"sync"

	"spendwise/internal/export"
)

type Writer struct {
	mu     sync.Mutex
	tables map[string]export.Table
	writes int
	// Err, when set, is returned by every Write.
	Err error
}

var _ export.Writer = (*Writer)(nil)

func New() *Writer {
	return &Writer{tables: make(map[string]export.Table)}
}

// Write replaces the named sheet. Sheet names are case-insensitive.
func (w *Writer) Write(ctx context.Context, sheet string, table export.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return w.Err
	}
	sheet = normalize(sheet)
	w.tables[sheet] = export.Table{
		Header: append([]string(nil), table.Header...),
		Rows:   copyRows(table.Rows),
	}
	w.writes++
	return nil
}

// Table returns the last table written to sheet.
func (w *Writer) Table(sheet string) (export.Table, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.tables[normalize(sheet)]
	return t, ok
}

// Writes returns how many successful writes happened.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}

func normalize(sheet string) string {
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		sheet = export.DefaultSheet
	}
	return strings.ToLower(sheet)
}

func copyRows(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, r := range in {
		out[i] = append([]string(nil), r...)
	}
	return out
}
