// Command spendwise-cli manages expenses in a local spendwise database.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"spendwise/internal/auth"
	"spendwise/internal/cli"
	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/preferences"
	"spendwise/internal/services"
	"spendwise/internal/storage"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	flagDB    string
	flagUser  string
	flagPrefs string
)

var rootCmd = &cobra.Command{
	Use:           "spendwise-cli",
	Short:         "Track and analyze expenses from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	cli.LoadEnvFile()
	log.SetDefault(log.New(log.Config{
		Level:     slog.LevelWarn,
		Format:    "text",
		Component: log.ComponentCLI,
		Output:    os.Stderr,
	}))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default $SQLITE_DB_PATH or data/spendwise.db)")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "account email (default $SPENDWISE_USER)")
	rootCmd.PersistentFlags().StringVar(&flagPrefs, "prefs", "", "device preferences file (default "+preferences.DefaultPath()+")")
}

// app is the set of services one command works with.
type app struct {
	repo     *storage.SQLiteRepository
	auth     *auth.Service
	expenses *services.ExpenseService
	prefs    *preferences.Service

	session string
}

func openApp() (*app, error) {
	path := firstNonEmpty(flagDB, os.Getenv("SQLITE_DB_PATH"), "data/spendwise.db")
	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		return nil, err
	}
	expenses := services.NewExpenseService(repo)
	return &app{
		repo:     repo,
		auth:     auth.NewService(repo, expenses, auth.DefaultSessionTTL),
		expenses: expenses,
		prefs:    devicePreferences(),
	}, nil
}

// Close ends the session opened by signIn and closes the database.
func (a *app) Close() error {
	if a.session != "" {
		_ = a.auth.SignOut(context.Background(), a.session)
	}
	return a.repo.Close()
}

// signIn authenticates the --user account with a prompted password.
func (a *app) signIn(ctx context.Context) (core.User, error) {
	email := userEmail()
	if email == "" {
		return core.User{}, errors.New("no account selected, pass --user or set SPENDWISE_USER")
	}
	password, err := readPassword("Password for " + email + ": ")
	if err != nil {
		return core.User{}, err
	}
	u, sess, err := a.auth.SignIn(ctx, email, password)
	if err != nil {
		return core.User{}, err
	}
	a.session = sess.Token
	return u, nil
}

// display returns the device's display preferences, falling back to the
// defaults when the file cannot be read.
func (a *app) display(ctx context.Context) preferences.Preferences {
	p, err := a.prefs.Get(ctx, "")
	if err != nil {
		slog.WarnContext(ctx, "Using default preferences", "error", err)
	}
	return p
}

func devicePreferences() *preferences.Service {
	path := firstNonEmpty(flagPrefs, preferences.DefaultPath())
	return preferences.NewService(preferences.NewFileStore(path), os.Getenv("DEFAULT_CURRENCY"))
}

func userEmail() string {
	return firstNonEmpty(flagUser, os.Getenv("SPENDWISE_USER"))
}

var stdin = bufio.NewReader(os.Stdin)

// readPassword reads a password without echo from a terminal, or one line
// from stdin when it is redirected.
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
