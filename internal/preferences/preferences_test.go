package preferences

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"spendwise/internal/core"
	"spendwise/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ *memory.Store }

func (failingStore) GetPreferences(context.Context, string) (map[string]string, error) {
	return nil, errors.New("disk I/O error")
}

func TestDefaults(t *testing.T) {
	svc := NewService(memory.New(), "")
	p, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, Preferences{Currency: "USD", Theme: ThemeLight}, p)

	svc = NewService(memory.New(), "eur")
	p, err = svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "EUR", p.Currency)

	svc = NewService(memory.New(), "CHF")
	p, _ = svc.Get(context.Background(), "u1")
	assert.Equal(t, "USD", p.Currency, "unsupported default is ignored")
}

func TestSaveGetReset(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), "")

	saved, err := svc.Save(ctx, "u1", Preferences{Currency: " gbp ", Theme: "Dark"})
	require.NoError(t, err)
	assert.Equal(t, Preferences{Currency: "GBP", Theme: ThemeDark}, saved)

	got, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	other, err := svc.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), other)

	reset, err := svc.Reset(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), reset)
	got, err = svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)
}

func TestSaveValidation(t *testing.T) {
	svc := NewService(memory.New(), "")
	tests := []struct {
		name  string
		prefs Preferences
		field string
	}{
		{"unsupported currency", Preferences{Currency: "CHF", Theme: ThemeLight}, "currency"},
		{"empty currency", Preferences{Theme: ThemeLight}, "currency"},
		{"bad theme", Preferences{Currency: "USD", Theme: "solarized"}, "theme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Save(context.Background(), "u1", tt.prefs)
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestInvalidStoredValuesFallBack(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.SetPreferences(ctx, "u1", map[string]string{"currency": "XXX", "theme": "neon"}))

	p, err := NewService(store, "").Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), p)
}

func TestStoreFailure(t *testing.T) {
	_, err := NewService(failingStore{memory.New()}, "").Get(context.Background(), "u1")
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "spendwise", "preferences.toml")
	svc := NewService(NewFileStore(path), "")

	p, err := svc.Get(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), p)

	_, err = svc.Save(ctx, "", Preferences{Currency: "JPY", Theme: ThemeDark})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `currency = "JPY"`)

	reopened := NewService(NewFileStore(path), "")
	p, err = reopened.Get(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, Preferences{Currency: "JPY", Theme: ThemeDark}, p)

	_, err = reopened.Reset(ctx, "")
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDefaultPathHonoursXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, filepath.Join("/tmp/xdg", "spendwise", "preferences.toml"), DefaultPath())
}
