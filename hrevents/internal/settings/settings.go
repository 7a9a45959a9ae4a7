// Package settings loads the singleton Slack integration settings record.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hr-events/hr-events/hrevents/internal/models"
	"github.com/hr-events/hr-events/hrevents/internal/repository"
)

// ErrConfiguration is returned when the Slack credential is missing or unusable.
// Jobs treat it as fatal and do not retry.
var ErrConfiguration = errors.New("configuration error")

// Loader resolves the current Slack settings.
type Loader interface {
	Load(ctx context.Context) (*models.Settings, error)
}

// Store persists the settings record.
type Store interface {
	GetSettings(ctx context.Context) (*models.SettingsRecord, error)
	SaveSettings(ctx context.Context, record *models.SettingsRecord) error
}

// Validate checks that the settings carry a usable bot token.
func Validate(s *models.Settings) error {
	if s == nil || strings.TrimSpace(s.SlackBotToken) == "" {
		return fmt.Errorf("%w: slack bot token is missing", ErrConfiguration)
	}
	return nil
}

// StaticLoader returns fixed settings, typically taken from configuration.
type StaticLoader struct {
	Settings models.Settings
}

// Load returns a copy of the static settings.
func (l *StaticLoader) Load(ctx context.Context) (*models.Settings, error) {
	s := l.Settings
	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// DBLoader reads the settings record from the store and opens the sealed token.
type DBLoader struct {
	store  Store
	cipher *Cipher
}

// NewDBLoader creates a loader over the settings store.
func NewDBLoader(store Store, cipher *Cipher) *DBLoader {
	return &DBLoader{store: store, cipher: cipher}
}

// Load reads and decrypts the settings record.
func (l *DBLoader) Load(ctx context.Context) (*models.Settings, error) {
	record, err := l.store.GetSettings(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrSettingsNotFound) {
			return nil, fmt.Errorf("%w: settings record not found", ErrConfiguration)
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	if len(record.EncryptedBotToken) == 0 {
		return nil, fmt.Errorf("%w: slack bot token is missing", ErrConfiguration)
	}

	token, err := l.cipher.Open(record.EncryptedBotToken)
	if err != nil {
		return nil, fmt.Errorf("%w: slack bot token cannot be decrypted: %v", ErrConfiguration, err)
	}

	s := &models.Settings{
		SlackBotToken: token,
		SlackChannel:  record.SlackChannel,
		UpdatedAt:     record.UpdatedAt,
	}
	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Save seals the token and writes the settings record.
func (l *DBLoader) Save(ctx context.Context, s *models.Settings) error {
	if err := Validate(s); err != nil {
		return err
	}

	sealed, err := l.cipher.Seal(s.SlackBotToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt slack bot token: %w", err)
	}

	return l.store.SaveSettings(ctx, &models.SettingsRecord{
		EncryptedBotToken: sealed,
		SlackChannel:      s.SlackChannel,
		UpdatedAt:         time.Now().UTC(),
	})
}

// OverrideLoader prefers a bot token from configuration over the stored record.
type OverrideLoader struct {
	token   string
	channel string
	base    Loader
}

// NewOverrideLoader wraps base. A non-empty token short-circuits base entirely;
// a non-empty channel replaces the stored channel. base may be nil.
func NewOverrideLoader(token, channel string, base Loader) *OverrideLoader {
	return &OverrideLoader{token: token, channel: channel, base: base}
}

// Load returns the configured override or the base settings.
func (l *OverrideLoader) Load(ctx context.Context) (*models.Settings, error) {
	if strings.TrimSpace(l.token) != "" {
		return &models.Settings{SlackBotToken: l.token, SlackChannel: l.channel}, nil
	}
	if l.base == nil {
		return nil, fmt.Errorf("%w: slack bot token is not configured", ErrConfiguration)
	}

	s, err := l.base.Load(ctx)
	if err != nil {
		return nil, err
	}
	if l.channel != "" {
		s.SlackChannel = l.channel
	}
	return s, nil
}
