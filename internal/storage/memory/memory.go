// Package memory is an in-process implementation of the storage ports,
// used by tests and by the memory backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"spendwise/internal/core"
)

type Store struct {
	mu       sync.Mutex
	expenses map[string]core.Expense
	users    map[string]core.User
	sessions map[string]core.Session
	prefs    map[string]map[string]string
}

func New() *Store {
	return &Store{
		expenses: make(map[string]core.Expense),
		users:    make(map[string]core.User),
		sessions: make(map[string]core.Session),
		prefs:    make(map[string]map[string]string),
	}
}

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// ListExpenses returns the user's expenses, newest date first.
func (s *Store) ListExpenses(_ context.Context, userID string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, userID, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return core.Expense{}, fmt.Errorf("get expense %s: %w", id, core.ErrNotFound)
	}
	return e, nil
}

func (s *Store) InsertExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[e.ID]; ok {
		return fmt.Errorf("insert expense %s: %w", e.ID, core.ErrDuplicate)
	}
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.expenses[e.ID]
	if !ok || cur.UserID != e.UserID {
		return fmt.Errorf("update expense %s: %w", e.ID, core.ErrNotFound)
	}
	e.CreatedAt = cur.CreatedAt
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return fmt.Errorf("delete expense %s: %w", id, core.ErrNotFound)
	}
	delete(s.expenses, id)
	return nil
}

// DeleteExpensesForUser removes all of userID's expenses under one lock.
func (s *Store) DeleteExpensesForUser(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, e := range s.expenses {
		if e.UserID == userID {
			delete(s.expenses, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("create user %s: %w", u.Email, core.ErrDuplicate)
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (s *Store) UpdateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[u.ID]
	if !ok {
		return fmt.Errorf("update user %s: %w", u.ID, core.ErrNotFound)
	}
	cur.DisplayName = u.DisplayName
	cur.UpdatedAt = u.UpdatedAt
	s.users[u.ID] = cur
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("delete user %s: %w", id, core.ErrNotFound)
	}
	for tok, sess := range s.sessions {
		if sess.UserID == id {
			delete(s.sessions, tok)
		}
	}
	delete(s.prefs, id)
	delete(s.users, id)
	return nil
}

func (s *Store) CreateSession(_ context.Context, sess core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
	return nil
}

func (s *Store) GetSession(_ context.Context, token string) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return core.Session{}, fmt.Errorf("get session: %w", core.ErrNotFound)
	}
	return sess, nil
}

func (s *Store) ExtendSession(_ context.Context, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return fmt.Errorf("extend session: %w", core.ErrNotFound)
	}
	sess.ExpiresAt = expiresAt
	s.sessions[token] = sess
	return nil
}

func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *Store) GetPreferences(_ context.Context, userID string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.prefs[userID]))
	for k, v := range s.prefs[userID] {
		out[k] = v
	}
	return out, nil
}

func (s *Store) SetPreferences(_ context.Context, userID string, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.prefs[userID]
	if !ok {
		m = make(map[string]string)
		s.prefs[userID] = m
	}
	for k, v := range values {
		m[k] = v
	}
	return nil
}

func (s *Store) DeletePreferences(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.prefs, userID)
	return nil
}
