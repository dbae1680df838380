// Package export builds the flat expense table shared by every export sink.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"spendwise/internal/core"
	"spendwise/internal/format"
)

// DefaultSheet is the tab written when the caller names none.
const DefaultSheet = "Expenses"

// Header is the column row of every exported table.
var Header = []string{"Date", "Description", "Category", "Amount", "Notes"}

// Table is a header row followed by data rows, all as display strings.
type Table struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// Values returns the header and rows as one grid.
func (t Table) Values() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Header)
	return append(out, t.Rows...)
}

// Writer is a destination for exported tables.
type Writer interface {
	Write(ctx context.Context, sheet string, table Table) error
}

// Rows converts expenses into the export table, one row per expense in
// input order.
func Rows(expenses []core.Expense) Table {
	rows := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		desc := e.Description
		if strings.TrimSpace(desc) == "" {
			desc = e.Title
		}
		rows = append(rows, []string{
			format.FormatDate(e.Date.Time, format.Short),
			desc,
			string(e.Category),
			e.Amount.String(),
			e.Notes,
		})
	}
	return Table{Header: append([]string(nil), Header...), Rows: rows}
}

// FileName returns the download name of a report for the given range
// selector, e.g. "expense-report-3months.csv".
func FileName(rangeSel, ext string) string {
	rangeSel = strings.TrimSpace(rangeSel)
	if rangeSel == "" {
		rangeSel = "all"
	}
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = "csv"
	}
	return fmt.Sprintf("expense-report-%s.%s", rangeSel, ext)
}

// CSVWriter writes tables to a CSV file. A CSV holds one sheet only, so
// the sheet name is ignored.
type CSVWriter struct {
	Path string
}

var _ Writer = (*CSVWriter)(nil)

func (w *CSVWriter) Write(ctx context.Context, _ string, table Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(w.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}

	f, err := os.Create(w.Path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.WriteAll(table.Values()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}
