// Package config provides configuration loading for the hrevents service.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // reminders.timezone must resolve on minimal images

	"github.com/spf13/viper"
)

// Config holds all configuration for the hrevents service
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Slack     SlackConfig     `mapstructure:"slack"`
	Settings  SettingsConfig  `mapstructure:"settings"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Reminders RemindersConfig `mapstructure:"reminders"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Type     string         `mapstructure:"type"` // "postgres" or "memory"
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ConnString builds the PostgreSQL URL used by pgx and golang-migrate.
func (p PostgresConfig) ConnString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode,
	)
}

// RedisConfig holds Redis configuration for the lookup cache
type RedisConfig struct {
	URL     string        `mapstructure:"url"`
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// NATSConfig holds NATS message broker configuration
type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	Enabled       bool          `mapstructure:"enabled"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	AckWait       time.Duration `mapstructure:"ack_wait"`
}

// SlackConfig holds Slack Web API settings
type SlackConfig struct {
	APIURL   string        `mapstructure:"api_url"`
	BotToken string        `mapstructure:"bot_token"` // overrides the stored settings record
	Channel  string        `mapstructure:"channel"`
	PageSize int           `mapstructure:"page_size"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SettingsConfig holds settings record options
type SettingsConfig struct {
	EncryptionKey string `mapstructure:"encryption_key"`
}

// SyncConfig holds the optional daily directory sync schedule
type SyncConfig struct {
	ScheduleEnabled bool   `mapstructure:"schedule_enabled"`
	RunAt           string `mapstructure:"run_at"`
}

// RemindersConfig holds the daily reminder schedule and message templates
type RemindersConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	RunAt               string `mapstructure:"run_at"`
	Timezone            string `mapstructure:"timezone"`
	BirthdayTemplate    string `mapstructure:"birthday_template"`
	AnniversaryTemplate string `mapstructure:"anniversary_template"`
}

// Location resolves the configured time zone.
func (r RemindersConfig) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid reminders.timezone %q: %w", r.Timezone, err)
	}
	return loc, nil
}

// AuthConfig holds trigger API authentication settings
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")

	v.SetDefault("database.type", "postgres")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "hrevents")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.database", "hrevents")
	v.SetDefault("database.postgres.sslmode", "disable")

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.ttl", "1h")

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.ack_wait", "10m")

	v.SetDefault("slack.api_url", "https://slack.com/api")
	v.SetDefault("slack.bot_token", "")
	v.SetDefault("slack.channel", "")
	v.SetDefault("slack.page_size", 500)
	v.SetDefault("slack.timeout", "30s")

	v.SetDefault("settings.encryption_key", "")

	v.SetDefault("sync.schedule_enabled", false)
	v.SetDefault("sync.run_at", "02:00")

	v.SetDefault("reminders.enabled", true)
	v.SetDefault("reminders.run_at", "09:00")
	v.SetDefault("reminders.timezone", "UTC")
	v.SetDefault("reminders.birthday_template", "")
	v.SetDefault("reminders.anniversary_template", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/hrevents")
	}

	// Environment variables override (HREVENTS_SERVER_PORT, etc.)
	v.SetEnvPrefix("HREVENTS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// Only fail if a specific config path was given
		if configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if _, err := ParseClock(cfg.Reminders.RunAt); err != nil {
		return nil, fmt.Errorf("invalid reminders.run_at: %w", err)
	}
	if _, err := ParseClock(cfg.Sync.RunAt); err != nil {
		return nil, fmt.Errorf("invalid sync.run_at: %w", err)
	}
	if _, err := cfg.Reminders.Location(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ParseClock parses an "HH:MM" wall-clock time into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
