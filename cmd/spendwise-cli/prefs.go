package main

import (
	"fmt"
	"io"

	"spendwise/internal/preferences"

	"github.com/spf13/cobra"
)

var (
	flagCurrency string
	flagTheme    string
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change this device's display preferences",
}

var prefsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the current preferences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := devicePreferences().Get(cmd.Context(), "")
		if err != nil {
			return err
		}
		printPreferences(cmd.OutOrStdout(), p)
		return nil
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the currency or theme",
	Args:  cobra.NoArgs,
	RunE:  runPrefsSet,
}

var prefsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default preferences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := devicePreferences().Reset(cmd.Context(), "")
		if err != nil {
			return err
		}
		printPreferences(cmd.OutOrStdout(), p)
		return nil
	},
}

func init() {
	prefsSetCmd.Flags().StringVar(&flagCurrency, "currency", "", "currency code, e.g. EUR")
	prefsSetCmd.Flags().StringVar(&flagTheme, "theme", "", "light or dark")

	prefsCmd.AddCommand(prefsGetCmd, prefsSetCmd, prefsResetCmd)
	rootCmd.AddCommand(prefsCmd)
}

func runPrefsSet(cmd *cobra.Command, _ []string) error {
	if !cmd.Flags().Changed("currency") && !cmd.Flags().Changed("theme") {
		return fmt.Errorf("nothing to change, pass --currency or --theme")
	}

	svc := devicePreferences()
	ctx := cmd.Context()
	p, err := svc.Get(ctx, "")
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("currency") {
		p.Currency = flagCurrency
	}
	if cmd.Flags().Changed("theme") {
		p.Theme = preferences.Theme(flagTheme)
	}

	saved, err := svc.Save(ctx, "", p)
	if err != nil {
		return err
	}
	printPreferences(cmd.OutOrStdout(), saved)
	return nil
}

func printPreferences(w io.Writer, p preferences.Preferences) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("currency"), p.Currency)
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("theme   "), p.Theme)
}
