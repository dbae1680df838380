package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Expense is a row of the expenses table.
type Expense struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Notes       string
	AmountCents int64
	Category    string
	Date        string
	CreatedAt   string
	UpdatedAt   sql.NullString
}

// User is a row of the users table.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    string
	UpdatedAt    string
}

// Session is a row of the sessions table.
type Session struct {
	Token     string
	UserID    string
	CreatedAt string
	ExpiresAt string
}

const expenseColumns = `id, user_id, title, description, notes, amount_cents, category, date, created_at, updated_at`

const listExpenses = `SELECT ` + expenseColumns + `
FROM expenses
WHERE user_id = ?
ORDER BY date DESC, created_at DESC`

func (q *Queries) ListExpenses(ctx context.Context, userID string) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpenses, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var i Expense
		if err := scanExpense(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getExpense = `SELECT ` + expenseColumns + `
FROM expenses
WHERE user_id = ? AND id = ?`

func (q *Queries) GetExpense(ctx context.Context, userID, id string) (Expense, error) {
	row := q.db.QueryRowContext(ctx, getExpense, userID, id)
	var i Expense
	err := scanExpense(row, &i)
	return i, err
}

const createExpense = `INSERT INTO expenses (` + expenseColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`

func (q *Queries) CreateExpense(ctx context.Context, e Expense) error {
	_, err := q.db.ExecContext(ctx, createExpense,
		e.ID, e.UserID, e.Title, e.Description, e.Notes,
		e.AmountCents, e.Category, e.Date, e.CreatedAt,
	)
	return err
}

const updateExpense = `UPDATE expenses
SET title = ?, description = ?, notes = ?, amount_cents = ?, category = ?, date = ?, updated_at = ?
WHERE user_id = ? AND id = ?`

func (q *Queries) UpdateExpense(ctx context.Context, e Expense) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateExpense,
		e.Title, e.Description, e.Notes, e.AmountCents, e.Category, e.Date, e.UpdatedAt,
		e.UserID, e.ID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteExpense = `DELETE FROM expenses WHERE user_id = ? AND id = ?`

func (q *Queries) DeleteExpense(ctx context.Context, userID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpense, userID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteExpensesForUser = `DELETE FROM expenses WHERE user_id = ?`

func (q *Queries) DeleteExpensesForUser(ctx context.Context, userID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpensesForUser, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createUser = `INSERT INTO users (id, email, display_name, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateUser(ctx context.Context, u User) error {
	_, err := q.db.ExecContext(ctx, createUser,
		u.ID, u.Email, u.DisplayName, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	return err
}

const userColumns = `id, email, display_name, password_hash, created_at, updated_at`

const getUser = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUser, id)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const updateUser = `UPDATE users SET display_name = ?, updated_at = ? WHERE id = ?`

func (q *Queries) UpdateUser(ctx context.Context, id, displayName, updatedAt string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateUser, displayName, updatedAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteUser = `DELETE FROM users WHERE id = ?`

func (q *Queries) DeleteUser(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createSession = `INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateSession(ctx context.Context, s Session) error {
	_, err := q.db.ExecContext(ctx, createSession, s.Token, s.UserID, s.CreatedAt, s.ExpiresAt)
	return err
}

const getSession = `SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?`

func (q *Queries) GetSession(ctx context.Context, token string) (Session, error) {
	row := q.db.QueryRowContext(ctx, getSession, token)
	var s Session
	err := row.Scan(&s.Token, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	return s, err
}

const extendSession = `UPDATE sessions SET expires_at = ? WHERE token = ?`

func (q *Queries) ExtendSession(ctx context.Context, token, expiresAt string) (int64, error) {
	res, err := q.db.ExecContext(ctx, extendSession, expiresAt, token)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteSession = `DELETE FROM sessions WHERE token = ?`

func (q *Queries) DeleteSession(ctx context.Context, token string) error {
	_, err := q.db.ExecContext(ctx, deleteSession, token)
	return err
}

const deleteSessionsForUser = `DELETE FROM sessions WHERE user_id = ?`

func (q *Queries) DeleteSessionsForUser(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, deleteSessionsForUser, userID)
	return err
}

const listPreferences = `SELECT key, value FROM preferences WHERE user_id = ?`

func (q *Queries) ListPreferences(ctx context.Context, userID string) (map[string]string, error) {
	rows, err := q.db.QueryContext(ctx, listPreferences, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	prefs := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		prefs[k] = v
	}
	return prefs, rows.Err()
}

const upsertPreference = `INSERT INTO preferences (user_id, key, value) VALUES (?, ?, ?)
ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value`

func (q *Queries) UpsertPreference(ctx context.Context, userID, key, value string) error {
	_, err := q.db.ExecContext(ctx, upsertPreference, userID, key, value)
	return err
}

const deletePreferences = `DELETE FROM preferences WHERE user_id = ?`

func (q *Queries) DeletePreferences(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, deletePreferences, userID)
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanExpense(s scanner, i *Expense) error {
	return s.Scan(
		&i.ID,
		&i.UserID,
		&i.Title,
		&i.Description,
		&i.Notes,
		&i.AmountCents,
		&i.Category,
		&i.Date,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
}
