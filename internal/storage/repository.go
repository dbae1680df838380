// Package storage persists expenses, users, sessions and preferences in
// SQLite. Every expense query is scoped by user ID.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spendwise/internal/core"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serializes writers and keeps transactions simple.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return core.Unavailable("ping database", err)
	}
	return nil
}

// ListExpenses returns the user's expenses, newest date first.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	rows, err := r.queries.ListExpenses(ctx, userID)
	if err != nil {
		return nil, core.Unavailable("list expenses", err)
	}

	expenses := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		expenses = append(expenses, toCoreExpense(ctx, row))
	}
	return expenses, nil
}

// GetExpense returns one expense owned by userID.
func (r *SQLiteRepository) GetExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("get expense %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, core.Unavailable("get expense", err)
	}
	return toCoreExpense(ctx, row), nil
}

func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) error {
	if err := r.queries.CreateExpense(ctx, fromCoreExpense(e)); err != nil {
		return core.Unavailable("create expense", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents,
		"category", string(e.Category),
		"date", e.Date.String())
	return nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	n, err := r.queries.UpdateExpense(ctx, fromCoreExpense(e))
	if err != nil {
		return core.Unavailable("update expense", err)
	}
	if n == 0 {
		return fmt.Errorf("update expense %s: %w", e.ID, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteExpense(ctx, userID, id)
	if err != nil {
		return core.Unavailable("delete expense", err)
	}
	if n == 0 {
		return fmt.Errorf("delete expense %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// DeleteExpensesForUser removes every expense of userID in one
// transaction. Either all rows go or none do.
func (r *SQLiteRepository) DeleteExpensesForUser(ctx context.Context, userID string) (int64, error) {
	var deleted int64
	err := r.inTx(ctx, func(q *Queries) error {
		n, err := q.DeleteExpensesForUser(ctx, userID)
		deleted = n
		return err
	})
	if err != nil {
		return 0, core.Unavailable("delete expenses for user", err)
	}

	slog.InfoContext(ctx, "Deleted all expenses for user", "user_id", userID, "count", deleted)
	return deleted, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) error {
	err := r.queries.CreateUser(ctx, User{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		PasswordHash: u.PasswordHash,
		CreatedAt:    formatTime(u.CreatedAt),
		UpdatedAt:    formatTime(u.UpdatedAt),
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("create user %s: %w", u.Email, core.ErrDuplicate)
	}
	if err != nil {
		return core.Unavailable("create user", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	u, err := r.queries.GetUser(ctx, id)
	return toCoreUser(u, err)
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	u, err := r.queries.GetUserByEmail(ctx, email)
	return toCoreUser(u, err)
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, u core.User) error {
	n, err := r.queries.UpdateUser(ctx, u.ID, u.DisplayName, formatTime(u.UpdatedAt))
	if err != nil {
		return core.Unavailable("update user", err)
	}
	if n == 0 {
		return fmt.Errorf("update user %s: %w", u.ID, core.ErrNotFound)
	}
	return nil
}

// DeleteUser removes the user with their sessions and preferences.
// Expenses are removed separately through DeleteExpensesForUser.
func (r *SQLiteRepository) DeleteUser(ctx context.Context, id string) error {
	var n int64
	err := r.inTx(ctx, func(q *Queries) error {
		if err := q.DeleteSessionsForUser(ctx, id); err != nil {
			return err
		}
		if err := q.DeletePreferences(ctx, id); err != nil {
			return err
		}
		var err error
		n, err = q.DeleteUser(ctx, id)
		return err
	})
	if err != nil {
		return core.Unavailable("delete user", err)
	}
	if n == 0 {
		return fmt.Errorf("delete user %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, s core.Session) error {
	err := r.queries.CreateSession(ctx, Session{
		Token:     s.Token,
		UserID:    s.UserID,
		CreatedAt: formatTime(s.CreatedAt),
		ExpiresAt: formatTime(s.ExpiresAt),
	})
	if err != nil {
		return core.Unavailable("create session", err)
	}
	return nil
}

func (r *SQLiteRepository) GetSession(ctx context.Context, token string) (core.Session, error) {
	s, err := r.queries.GetSession(ctx, token)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, fmt.Errorf("get session: %w", core.ErrNotFound)
	}
	if err != nil {
		return core.Session{}, core.Unavailable("get session", err)
	}
	return core.Session{
		Token:     s.Token,
		UserID:    s.UserID,
		CreatedAt: parseTime(s.CreatedAt),
		ExpiresAt: parseTime(s.ExpiresAt),
	}, nil
}

func (r *SQLiteRepository) ExtendSession(ctx context.Context, token string, expiresAt time.Time) error {
	n, err := r.queries.ExtendSession(ctx, token, formatTime(expiresAt))
	if err != nil {
		return core.Unavailable("extend session", err)
	}
	if n == 0 {
		return fmt.Errorf("extend session: %w", core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if err := r.queries.DeleteSession(ctx, token); err != nil {
		return core.Unavailable("delete session", err)
	}
	return nil
}

func (r *SQLiteRepository) GetPreferences(ctx context.Context, userID string) (map[string]string, error) {
	prefs, err := r.queries.ListPreferences(ctx, userID)
	if err != nil {
		return nil, core.Unavailable("get preferences", err)
	}
	return prefs, nil
}

// SetPreferences upserts every key in values for userID atomically.
func (r *SQLiteRepository) SetPreferences(ctx context.Context, userID string, values map[string]string) error {
	err := r.inTx(ctx, func(q *Queries) error {
		for k, v := range values {
			if err := q.UpsertPreference(ctx, userID, k, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return core.Unavailable("set preferences", err)
	}
	return nil
}

func (r *SQLiteRepository) DeletePreferences(ctx context.Context, userID string) error {
	if err := r.queries.DeletePreferences(ctx, userID); err != nil {
		return core.Unavailable("delete preferences", err)
	}
	return nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func toCoreExpense(ctx context.Context, row Expense) core.Expense {
	e := core.Expense{
		ID:          row.ID,
		UserID:      row.UserID,
		Title:       row.Title,
		Description: row.Description,
		Notes:       row.Notes,
		Amount:      core.Money{Cents: row.AmountCents},
		Category:    core.Category(row.Category),
		CreatedAt:   parseTime(row.CreatedAt),
	}
	if row.UpdatedAt.Valid {
		e.UpdatedAt = parseTime(row.UpdatedAt.String)
	}
	date, err := core.ParseDate(row.Date)
	if err != nil {
		// Left zero; reports skip records without a date.
		slog.WarnContext(ctx, "Stored expense has malformed date",
			"id", row.ID,
			"date", row.Date)
	}
	e.Date = date
	return e
}

func fromCoreExpense(e core.Expense) Expense {
	row := Expense{
		ID:          e.ID,
		UserID:      e.UserID,
		Title:       e.Title,
		Description: e.Description,
		Notes:       e.Notes,
		AmountCents: e.Amount.Cents,
		Category:    string(e.Category),
		Date:        e.Date.String(),
		CreatedAt:   formatTime(e.CreatedAt),
	}
	if !e.UpdatedAt.IsZero() {
		row.UpdatedAt = sql.NullString{String: formatTime(e.UpdatedAt), Valid: true}
	}
	return row
}

func toCoreUser(u User, err error) (core.User, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return core.User{}, core.Unavailable("get user", err)
	}
	return core.User{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		PasswordHash: u.PasswordHash,
		CreatedAt:    parseTime(u.CreatedAt),
		UpdatedAt:    parseTime(u.UpdatedAt),
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
