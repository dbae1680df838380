// Package auth signs users up and in, resolves session tokens and
// deletes accounts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"spendwise/internal/core"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultSessionTTL is how long a session lives without activity.
	DefaultSessionTTL = 30 * 24 * time.Hour

	minPasswordLength = 8
	maxNameLength     = 100
)

// UserStore persists users and sessions.
type UserStore interface {
	CreateUser(ctx context.Context, u core.User) error
	GetUser(ctx context.Context, id string) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
	UpdateUser(ctx context.Context, u core.User) error
	DeleteUser(ctx context.Context, id string) error
	CreateSession(ctx context.Context, s core.Session) error
	GetSession(ctx context.Context, token string) (core.Session, error)
	ExtendSession(ctx context.Context, token string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, token string) error
}

// ExpensePurger removes every expense of a user.
type ExpensePurger interface {
	DeleteAllForUser(ctx context.Context, userID string) error
}

// ProfileUpdate holds the user-editable profile fields.
type ProfileUpdate struct {
	DisplayName string `json:"displayName"`
}

type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithHashCost sets the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

type Service struct {
	store    UserStore
	expenses ExpensePurger
	ttl      time.Duration
	cost     int
	now      func() time.Time
	newID    func() string

	// dummyHash is compared against when the email is unknown so that both
	// failure paths cost one bcrypt comparison.
	dummyHash []byte
}

func NewService(store UserStore, expenses ExpensePurger, ttl time.Duration, opts ...Option) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := &Service{
		store:    store,
		expenses: expenses,
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("spendwise-dummy-password"), s.cost)
	return s
}

// TTL returns the session lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// SignUp registers a new user and opens a session for them.
func (s *Service) SignUp(ctx context.Context, email, password, name string) (core.User, core.Session, error) {
	addr, err := normalizeEmail(email)
	if err != nil {
		return core.User{}, core.Session{}, err
	}
	if len(password) < minPasswordLength {
		return core.User{}, core.Session{}, &core.ValidationError{
			Field:  "password",
			Reason: fmt.Sprintf("password must be at least %d characters", minPasswordLength),
		}
	}
	name = strings.TrimSpace(name)
	if len(name) > maxNameLength {
		return core.User{}, core.Session{}, &core.ValidationError{Field: "displayName", Reason: "name too long"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return core.User{}, core.Session{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	u := core.User{
		ID:           s.newID(),
		Email:        addr,
		DisplayName:  name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, core.ErrDuplicate) {
			return core.User{}, core.Session{}, fmt.Errorf("sign up: %w: email already registered", core.ErrCredential)
		}
		return core.User{}, core.Session{}, serviceError("create user", err)
	}

	sess, err := s.openSession(ctx, u.ID)
	if err != nil {
		return core.User{}, core.Session{}, err
	}

	slog.InfoContext(ctx, "User signed up", "user_id", u.ID)
	return u, sess, nil
}

// SignIn checks credentials and opens a session. Unknown email and wrong
// password fail identically.
func (s *Service) SignIn(ctx context.Context, email, password string) (core.User, core.Session, error) {
	addr, err := normalizeEmail(email)
	if err != nil {
		return core.User{}, core.Session{}, fmt.Errorf("sign in: %w", core.ErrCredential)
	}

	u, err := s.store.GetUserByEmail(ctx, addr)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			return core.User{}, core.Session{}, serviceError("get user", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return core.User{}, core.Session{}, fmt.Errorf("sign in: %w", core.ErrCredential)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		slog.WarnContext(ctx, "Failed sign in", "user_id", u.ID)
		return core.User{}, core.Session{}, fmt.Errorf("sign in: %w", core.ErrCredential)
	}

	sess, err := s.openSession(ctx, u.ID)
	if err != nil {
		return core.User{}, core.Session{}, err
	}
	slog.InfoContext(ctx, "User signed in", "user_id", u.ID)
	return u, sess, nil
}

// SignOut ends the session. Unknown tokens are ignored.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.DeleteSession(ctx, token); err != nil {
		return serviceError("delete session", err)
	}
	return nil
}

// Authenticate resolves a session token to its user. A session past the
// halfway point of its lifetime is extended; the returned session carries
// the new expiry.
func (s *Service) Authenticate(ctx context.Context, token string) (core.User, core.Session, error) {
	if token == "" {
		return core.User{}, core.Session{}, core.ErrUnauthenticated
	}

	sess, err := s.store.GetSession(ctx, token)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, core.Session{}, core.ErrUnauthenticated
	}
	if err != nil {
		return core.User{}, core.Session{}, serviceError("get session", err)
	}

	now := s.now().UTC()
	if sess.Expired(now) {
		if err := s.store.DeleteSession(ctx, token); err != nil {
			slog.WarnContext(ctx, "Failed to delete expired session", "user_id", sess.UserID, "error", err)
		}
		return core.User{}, core.Session{}, core.ErrUnauthenticated
	}

	u, err := s.store.GetUser(ctx, sess.UserID)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, core.Session{}, core.ErrUnauthenticated
	}
	if err != nil {
		return core.User{}, core.Session{}, serviceError("get user", err)
	}

	if sess.ExpiresAt.Sub(now) < s.ttl/2 {
		expiresAt := now.Add(s.ttl)
		if err := s.store.ExtendSession(ctx, token, expiresAt); err != nil {
			slog.WarnContext(ctx, "Failed to renew session", "user_id", u.ID, "error", err)
		} else {
			sess.ExpiresAt = expiresAt
		}
	}
	return u, sess, nil
}

// GetUser returns the user's profile.
func (s *Service) GetUser(ctx context.Context, userID string) (core.User, error) {
	if userID == "" {
		return core.User{}, core.ErrUnauthenticated
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return core.User{}, serviceError("get user", err)
	}
	return u, nil
}

// UpdateProfile changes the display name.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (core.User, error) {
	if userID == "" {
		return core.User{}, core.ErrUnauthenticated
	}
	name := strings.TrimSpace(upd.DisplayName)
	if len(name) > maxNameLength {
		return core.User{}, &core.ValidationError{Field: "displayName", Reason: "name too long"}
	}

	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return core.User{}, serviceError("get user", err)
	}
	u.DisplayName = name
	u.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return core.User{}, serviceError("update user", err)
	}
	return u, nil
}

// DeleteAccount removes the user's expenses and then the user with their
// sessions and preferences. When the expenses cannot all be removed the
// user is kept so that the call can be retried.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	if userID == "" {
		return core.ErrUnauthenticated
	}
	if err := s.expenses.DeleteAllForUser(ctx, userID); err != nil {
		slog.ErrorContext(ctx, "Account deletion stopped, expenses remain", "user_id", userID, "error", err)
		return fmt.Errorf("delete account: %w", err)
	}
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return serviceError("delete user", err)
	}
	slog.InfoContext(ctx, "Account deleted", "user_id", userID)
	return nil
}

func (s *Service) openSession(ctx context.Context, userID string) (core.Session, error) {
	now := s.now().UTC()
	sess := core.Session{
		Token:     s.newID(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return core.Session{}, serviceError("create session", err)
	}
	return sess, nil
}

func normalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Name != "" {
		return "", &core.ValidationError{Field: "email", Reason: "invalid email address"}
	}
	return strings.ToLower(addr.Address), nil
}

// serviceError marks a store failure as ErrAuthService. Not-found and
// validation errors pass through unchanged.
func serviceError(op string, err error) error {
	if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrValidation) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, core.ErrAuthService, err)
}
