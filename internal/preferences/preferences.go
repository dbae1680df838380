// Package preferences stores per-user display settings: the currency
// code used to format amounts and the UI theme.
package preferences

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"spendwise/internal/core"
	"spendwise/internal/format"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

const (
	keyCurrency = "currency"
	keyTheme    = "theme"
)

// Currencies lists the currency codes a user may pick.
var Currencies = []string{"USD", "EUR", "GBP", "JPY", "INR"}

type Preferences struct {
	Currency string `json:"currency" toml:"currency"`
	Theme    Theme  `json:"theme" toml:"theme"`
}

// Defaults returns the preferences of a user who never saved any.
func Defaults() Preferences {
	return Preferences{Currency: format.DefaultCurrency, Theme: ThemeLight}
}

func (p Preferences) Validate() error {
	if !allowedCurrency(p.Currency) {
		return &core.ValidationError{
			Field:  "currency",
			Reason: fmt.Sprintf("currency must be one of %s", strings.Join(Currencies, ", ")),
		}
	}
	if p.Theme != ThemeLight && p.Theme != ThemeDark {
		return &core.ValidationError{Field: "theme", Reason: "theme must be light or dark"}
	}
	return nil
}

func (p Preferences) values() map[string]string {
	return map[string]string{
		keyCurrency: p.Currency,
		keyTheme:    string(p.Theme),
	}
}

func allowedCurrency(code string) bool {
	for _, c := range Currencies {
		if c == code {
			return true
		}
	}
	return false
}

// Store is a per-user key/value backend.
type Store interface {
	GetPreferences(ctx context.Context, userID string) (map[string]string, error)
	SetPreferences(ctx context.Context, userID string, values map[string]string) error
	DeletePreferences(ctx context.Context, userID string) error
}

type Service struct {
	store    Store
	defaults Preferences
}

// NewService creates a preference service. defaultCurrency replaces USD as
// the fallback when it is one of the allowed codes.
func NewService(store Store, defaultCurrency string) *Service {
	defaults := Defaults()
	if c := strings.ToUpper(strings.TrimSpace(defaultCurrency)); allowedCurrency(c) {
		defaults.Currency = c
	}
	return &Service{store: store, defaults: defaults}
}

// Get returns the user's preferences. Missing or invalid stored values
// fall back to the defaults.
func (s *Service) Get(ctx context.Context, userID string) (Preferences, error) {
	values, err := s.store.GetPreferences(ctx, userID)
	if err != nil {
		return s.defaults, core.Unavailable("get preferences", err)
	}

	p := s.defaults
	if c := strings.ToUpper(values[keyCurrency]); allowedCurrency(c) {
		p.Currency = c
	} else if c != "" {
		slog.WarnContext(ctx, "Ignoring stored currency", "user_id", userID, "currency", c)
	}
	switch t := Theme(values[keyTheme]); t {
	case ThemeLight, ThemeDark:
		p.Theme = t
	}
	return p, nil
}

// Save validates and stores p.
func (s *Service) Save(ctx context.Context, userID string, p Preferences) (Preferences, error) {
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	p.Theme = Theme(strings.ToLower(strings.TrimSpace(string(p.Theme))))
	if err := p.Validate(); err != nil {
		return Preferences{}, err
	}
	if err := s.store.SetPreferences(ctx, userID, p.values()); err != nil {
		return Preferences{}, core.Unavailable("save preferences", err)
	}
	return p, nil
}

// Reset drops the stored preferences so that the defaults apply again.
func (s *Service) Reset(ctx context.Context, userID string) (Preferences, error) {
	if err := s.store.DeletePreferences(ctx, userID); err != nil {
		return Preferences{}, core.Unavailable("reset preferences", err)
	}
	return s.defaults, nil
}
