// Package app wires the hrevents components from configuration. Both the
// server binary and hrctl build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"

	"github.com/hr-events/hr-events/common/logging"
	"github.com/hr-events/hr-events/hrevents/internal/config"
	"github.com/hr-events/hr-events/hrevents/internal/directory"
	"github.com/hr-events/hr-events/hrevents/internal/gateway"
	"github.com/hr-events/hr-events/hrevents/internal/identity"
	"github.com/hr-events/hr-events/hrevents/internal/jobs"
	"github.com/hr-events/hr-events/hrevents/internal/models"
	"github.com/hr-events/hr-events/hrevents/internal/repository"
	"github.com/hr-events/hr-events/hrevents/internal/service"
	"github.com/hr-events/hr-events/hrevents/internal/settings"
	"github.com/hr-events/hr-events/hrevents/internal/slack"
)

// DefaultMigrationsPath is where the container image ships the SQL migrations.
const DefaultMigrationsPath = "file://migrations"

// Components is the wired service graph.
type Components struct {
	Config     *config.Config
	Repo       repository.Repository
	Redis      *redis.Client
	Identities *identity.Store
	Settings   settings.Loader
	// SettingsDB is nil when no settings.encryption_key is configured.
	SettingsDB *settings.DBLoader
	Sync       *service.SyncService
	Reminders  *service.ReminderService
	Runner     *jobs.Runner
	Location   *time.Location
}

// Build connects storage and cache and wires the jobs.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	repo, err := OpenRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c, err := BuildWithRepository(cfg, repo, logger)
	if err != nil {
		repo.Close()
		return nil, err
	}

	if cfg.Redis.Enabled {
		client, err := OpenRedis(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Warn("Redis unavailable, Slack id lookups go to the database", logging.Error(err))
		} else {
			c.Redis = client
			c.Identities.WithCache(client, cfg.Redis.TTL)
			logger.Info("Slack id lookup cache enabled", slog.Duration("ttl", cfg.Redis.TTL))
		}
	}

	return c, nil
}

// BuildWithRepository wires the services over an already opened repository.
func BuildWithRepository(cfg *config.Config, repo repository.Repository, logger *slog.Logger) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}

	loc, err := cfg.Reminders.Location()
	if err != nil {
		return nil, err
	}

	templates := service.DefaultTemplates()
	if cfg.Reminders.BirthdayTemplate != "" || cfg.Reminders.AnniversaryTemplate != "" {
		templates, err = service.NewTemplates(cfg.Reminders.BirthdayTemplate, cfg.Reminders.AnniversaryTemplate)
		if err != nil {
			return nil, err
		}
	}

	loader, dbLoader, err := SettingsLoader(cfg, repo)
	if err != nil {
		return nil, err
	}

	identities := identity.NewStore(repo, logger.With(logging.Component("identity")))
	dial := SlackDialer(cfg)

	directories := func(ctx context.Context) (service.Directory, error) {
		d, err := directory.Connect(ctx, loader, func(s *models.Settings) directory.UserLister {
			return dial(s)
		}, logger.With(logging.Component("directory")))
		if err != nil {
			return nil, err
		}
		return d, nil
	}

	messengers := func(ctx context.Context) (service.Messenger, error) {
		g, err := gateway.Connect(ctx, loader, func(s *models.Settings) gateway.MessagePoster {
			return dial(s)
		}, logger.With(logging.Component("gateway")))
		if err != nil {
			return nil, err
		}
		return g, nil
	}

	c := &Components{
		Config:     cfg,
		Repo:       repo,
		Identities: identities,
		Settings:   loader,
		SettingsDB: dbLoader,
		Location:   loc,
		Sync: service.NewSyncService(directories, identities, repo, cfg.Slack.PageSize,
			logger.With(logging.Component("sync"))),
		Reminders: service.NewReminderService(messengers, identities, repo, templates, loc,
			logger.With(logging.Component("reminders"))),
		Runner: jobs.NewRunner(logger.With(logging.Component("jobs"))),
	}

	c.Runner.Register(jobs.NameSync, func(ctx context.Context) any {
		return c.Sync.SyncIdentities(ctx)
	})
	c.Runner.Register(jobs.NameReminders, func(ctx context.Context) any {
		return c.Reminders.SendEventReminders(ctx)
	})

	return c, nil
}

// Close releases the repository and cache connections.
func (c *Components) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Repo != nil {
		c.Repo.Close()
	}
}

// OpenRepository opens the configured repository.
func OpenRepository(ctx context.Context, cfg *config.Config) (repository.Repository, error) {
	switch cfg.Database.Type {
	case "memory":
		return repository.NewInMemoryRepository(), nil
	case "postgres", "":
		repo, err := repository.NewPostgresRepository(ctx, cfg.Database.Postgres.ConnString())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported database.type %q", cfg.Database.Type)
	}
}

// OpenRedis connects to Redis and verifies the connection.
func OpenRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// SettingsLoader builds the settings chain: the configured bot token first,
// then the encrypted record when an encryption key is set.
func SettingsLoader(cfg *config.Config, store settings.Store) (settings.Loader, *settings.DBLoader, error) {
	var (
		base     settings.Loader
		dbLoader *settings.DBLoader
	)
	if cfg.Settings.EncryptionKey != "" {
		cipher, err := settings.NewCipher(cfg.Settings.EncryptionKey)
		if err != nil {
			return nil, nil, err
		}
		dbLoader = settings.NewDBLoader(store, cipher)
		base = dbLoader
	}
	return settings.NewOverrideLoader(cfg.Slack.BotToken, cfg.Slack.Channel, base), dbLoader, nil
}

// SlackDialer returns a constructor for Slack clients bound to loaded settings.
func SlackDialer(cfg *config.Config) func(s *models.Settings) *slack.Client {
	return func(s *models.Settings) *slack.Client {
		return slack.NewClient(cfg.Slack.APIURL, s.SlackBotToken, cfg.Slack.Timeout)
	}
}

// Migrate applies (or with down, reverts) the SQL migrations at source.
// An up-to-date schema is not an error.
func Migrate(cfg *config.Config, source string, down bool) error {
	if cfg.Database.Type == "memory" {
		return nil
	}
	if source == "" {
		source = DefaultMigrationsPath
	}

	m, err := migrate.New(source, cfg.Database.Postgres.ConnString())
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	if down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
