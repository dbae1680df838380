package main

import (
	"fmt"
	"time"

	"spendwise/internal/export"
	"spendwise/internal/report"
	"spendwise/internal/services"

	"github.com/spf13/cobra"
)

var (
	flagRange          string
	flagFilterCategory string
	flagPredict        bool
	flagOut            string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the dashboard summary",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Analyze expenses over a range and category",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write expenses to a CSV file",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	for _, c := range []*cobra.Command{reportCmd, exportCmd} {
		c.Flags().StringVarP(&flagRange, "range", "r", "all", "time range: all, 1month, 3months, 6months, 1year")
		c.Flags().StringVarP(&flagFilterCategory, "category", "c", report.AllCategories, "category filter")
	}
	reportCmd.Flags().BoolVar(&flagPredict, "predict", false, "include a six-month projection")
	exportCmd.Flags().StringVarP(&flagOut, "out", "o", "", "output file (default expense-report-<range>.csv)")

	rootCmd.AddCommand(summaryCmd, reportCmd, exportCmd)
}

// buildQuery validates the range, category and predict selectors.
func buildQuery(rangeSel, category string, predict bool) (report.Query, error) {
	r, err := report.ParseRange(rangeSel)
	if err != nil {
		return report.Query{}, err
	}
	if category == "" {
		category = report.AllCategories
	}
	return report.Query{Range: r, Category: category, Predict: predict}, nil
}

func runSummary(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	u, err := a.signIn(ctx)
	if err != nil {
		return err
	}
	list, err := a.expenses.List(ctx, u.ID)
	if err != nil {
		return err
	}

	title := "SPENDWISE"
	if u.DisplayName != "" {
		title += "  " + u.DisplayName
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderDashboard(title, report.BuildDashboard(list, time.Now()), a.display(ctx).Currency))
	return nil
}

func runReport(cmd *cobra.Command, _ []string) error {
	q, err := buildQuery(flagRange, flagFilterCategory, flagPredict)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	u, err := a.signIn(ctx)
	if err != nil {
		return err
	}
	list, err := a.expenses.List(ctx, u.ID)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderReport(report.BuildReport(list, q, time.Now()), a.display(ctx).Currency))
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	q, err := buildQuery(flagRange, flagFilterCategory, false)
	if err != nil {
		return err
	}
	out := firstNonEmpty(flagOut, export.FileName(string(q.Range), "csv"))

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	u, err := a.signIn(ctx)
	if err != nil {
		return err
	}

	exports := services.NewExportService(a.expenses, &export.CSVWriter{Path: out}, nil, "")
	n, err := exports.Export(ctx, u.ID, q, "")
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d expenses to %s\n", n, out)
	return nil
}
