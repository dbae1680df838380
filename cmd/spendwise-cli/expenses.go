package main

import (
	"fmt"
	"strconv"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/report"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	flagTitle       string
	flagAmount      string
	flagCategory    string
	flagDate        string
	flagDescription string
	flagNotes       string
	flagLimit       int
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an expense",
	Long:  "Record an expense. Missing fields are asked for in a form when running in a terminal.",
	Args:  cobra.NoArgs,
	RunE:  runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List expenses, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	addCmd.Flags().StringVarP(&flagTitle, "title", "t", "", "what the expense was for")
	addCmd.Flags().StringVarP(&flagAmount, "amount", "a", "", "amount, e.g. 12.50")
	addCmd.Flags().StringVarP(&flagCategory, "category", "c", "", "category")
	addCmd.Flags().StringVar(&flagDate, "date", "", "date as YYYY-MM-DD (default today)")
	addCmd.Flags().StringVar(&flagDescription, "description", "", "longer description")
	addCmd.Flags().StringVar(&flagNotes, "notes", "", "free-form notes")

	listCmd.Flags().StringVarP(&flagRange, "range", "r", "all", "time range: all, 1month, 3months, 6months, 1year")
	listCmd.Flags().StringVarP(&flagFilterCategory, "category", "c", report.AllCategories, "category filter")
	listCmd.Flags().IntVarP(&flagLimit, "limit", "n", 0, "show at most n expenses (0 for all)")

	rootCmd.AddCommand(addCmd, listCmd)
}

func runAdd(cmd *cobra.Command, _ []string) error {
	draft := core.Draft{
		Title:       flagTitle,
		Description: flagDescription,
		Notes:       flagNotes,
		Amount:      flagAmount,
		Category:    flagCategory,
		Date:        flagDate,
	}
	if draft.Date == "" {
		draft.Date = time.Now().Format(core.DateLayout)
	}
	if (draft.Title == "" || draft.Amount == "" || draft.Category == "") && isInteractive() {
		if err := expenseForm(&draft).Run(); err != nil {
			return err
		}
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
	e, err := a.expenses.Create(ctx, u.ID, draft)
	if err != nil {
		return err
	}

	p := a.display(ctx)
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Saved ")+
		fmt.Sprintf("%s  %s  %s", e.Title, formatMoney(e.Amount, p.Currency), e.Category))
	return nil
}

// expenseForm asks for the draft fields; values already set are shown as
// defaults.
func expenseForm(d *core.Draft) *huh.Form {
	options := make([]huh.Option[string], 0, len(core.Categories()))
	for _, c := range core.Categories() {
		options = append(options, huh.NewOption(string(c), string(c)))
	}
	if d.Category == "" {
		d.Category = string(core.Food)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&d.Title).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Amount").
				Placeholder("12.50").
				Value(&d.Amount).
				Validate(func(s string) error {
					_, err := core.ParseDecimalToCents(s)
					return err
				}),
			huh.NewSelect[string]().
				Title("Category").
				Options(options...).
				Value(&d.Category),
			huh.NewInput().
				Title("Date").
				Value(&d.Date).
				Validate(func(s string) error {
					_, err := core.ParseDate(s)
					return err
				}),
			huh.NewInput().
				Title("Notes").
				Value(&d.Notes),
		),
	)
}

func runList(cmd *cobra.Command, _ []string) error {
	q, err := buildQuery(flagRange, flagFilterCategory, false)
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
	list = q.Filter(list, time.Now())

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No expenses found."))
		return nil
	}

	total, count := report.Total(list), report.Count(list)
	if flagLimit > 0 && len(list) > flagLimit {
		list = list[:flagLimit]
	}
	p := a.display(ctx)
	fmt.Fprintln(out, renderExpenses(list, p.Currency))
	fmt.Fprintln(out, mutedStyle.Render(strconv.Itoa(count)+" expenses, total ")+
		valueStyle.Render(formatMoney(total, p.Currency)))
	return nil
}
