package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hr-events/hr-events/hrevents/internal/models"
	"github.com/hr-events/hr-events/hrevents/internal/repository"
)

// mockStore implements Store for testing
type mockStore struct {
	record  *models.SettingsRecord
	getErr  error
	saveErr error
}

func (m *mockStore) GetSettings(ctx context.Context) (*models.SettingsRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.record == nil {
		return nil, repository.ErrSettingsNotFound
	}
	return m.record, nil
}

func (m *mockStore) SaveSettings(ctx context.Context, record *models.SettingsRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.record = record
	return nil
}

// countingLoader records how often Load is called
type countingLoader struct {
	settings *models.Settings
	err      error
	calls    int
}

func (l *countingLoader) Load(ctx context.Context) (*models.Settings, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	s := *l.settings
	return &s, nil
}

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := NewCipher("test-passphrase")
	require.NoError(t, err)
	return c
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		settings *models.Settings
		wantErr  bool
	}{
		{"nil settings", nil, true},
		{"empty token", &models.Settings{}, true},
		{"blank token", &models.Settings{SlackBotToken: "   "}, true},
		{"valid token", &models.Settings{SlackBotToken: "xoxb-1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.settings)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfiguration)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStaticLoader(t *testing.T) {
	l := &StaticLoader{Settings: models.Settings{SlackBotToken: "xoxb-1", SlackChannel: "#hr"}}
	s, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "xoxb-1", s.SlackBotToken)

	empty := &StaticLoader{}
	_, err = empty.Load(context.Background())
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestDBLoader_SaveAndLoad(t *testing.T) {
	store := &mockStore{}
	l := NewDBLoader(store, newTestCipher(t))
	ctx := context.Background()

	err := l.Save(ctx, &models.Settings{SlackBotToken: "xoxb-secret", SlackChannel: "#general"})
	require.NoError(t, err)

	require.NotNil(t, store.record)
	assert.NotContains(t, string(store.record.EncryptedBotToken), "xoxb-secret")

	s, err := l.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "xoxb-secret", s.SlackBotToken)
	assert.Equal(t, "#general", s.SlackChannel)
}

func TestDBLoader_SaveRejectsEmptyToken(t *testing.T) {
	store := &mockStore{}
	l := NewDBLoader(store, newTestCipher(t))

	err := l.Save(context.Background(), &models.Settings{SlackChannel: "#general"})
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Nil(t, store.record)
}

func TestDBLoader_LoadErrors(t *testing.T) {
	cipher := newTestCipher(t)
	other, err := NewCipher("another-passphrase")
	require.NoError(t, err)
	sealedWithOther, err := other.Seal("xoxb-secret")
	require.NoError(t, err)

	tests := []struct {
		name       string
		store      *mockStore
		wantConfig bool
	}{
		{"record missing", &mockStore{}, true},
		{"token missing", &mockStore{record: &models.SettingsRecord{SlackChannel: "#x"}}, true},
		{"wrong key", &mockStore{record: &models.SettingsRecord{EncryptedBotToken: sealedWithOther}}, true},
		{"store failure", &mockStore{getErr: errors.New("connection refused")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDBLoader(tt.store, cipher).Load(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.wantConfig, errors.Is(err, ErrConfiguration))
		})
	}
}

func TestOverrideLoader(t *testing.T) {
	ctx := context.Background()

	t.Run("config token wins without touching base", func(t *testing.T) {
		base := &countingLoader{settings: &models.Settings{SlackBotToken: "xoxb-db"}}
		s, err := NewOverrideLoader("xoxb-config", "#cfg", base).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "xoxb-config", s.SlackBotToken)
		assert.Equal(t, "#cfg", s.SlackChannel)
		assert.Equal(t, 0, base.calls)
	})

	t.Run("falls back to base", func(t *testing.T) {
		base := &countingLoader{settings: &models.Settings{SlackBotToken: "xoxb-db", SlackChannel: "#db"}}
		s, err := NewOverrideLoader("", "", base).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "xoxb-db", s.SlackBotToken)
		assert.Equal(t, "#db", s.SlackChannel)
	})

	t.Run("channel override applies to base", func(t *testing.T) {
		base := &countingLoader{settings: &models.Settings{SlackBotToken: "xoxb-db", SlackChannel: "#db"}}
		s, err := NewOverrideLoader("", "#cfg", base).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "#cfg", s.SlackChannel)
	})

	t.Run("no token and no base", func(t *testing.T) {
		_, err := NewOverrideLoader("", "", nil).Load(ctx)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("base error propagates", func(t *testing.T) {
		base := &countingLoader{err: ErrConfiguration}
		_, err := NewOverrideLoader("", "", base).Load(ctx)
		assert.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestCipher(t *testing.T) {
	c := newTestCipher(t)

	sealed, err := c.Seal("xoxb-secret")
	require.NoError(t, err)

	again, err := c.Seal("xoxb-secret")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")

	plain, err := c.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "xoxb-secret", plain)

	sealed[len(sealed)-1] ^= 0xff
	_, err = c.Open(sealed)
	assert.ErrorIs(t, err, ErrDecrypt)

	_, err = c.Open([]byte("short"))
	assert.ErrorIs(t, err, ErrDecrypt)

	_, err = NewCipher("")
	assert.ErrorIs(t, err, ErrEmptyKey)
}
