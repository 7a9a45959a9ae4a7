// Package identity is the email to Slack identity mapping store.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hr-events/hr-events/common/logging"
	"github.com/hr-events/hr-events/hrevents/internal/metrics"
	"github.com/hr-events/hr-events/hrevents/internal/models"
	"github.com/hr-events/hr-events/hrevents/internal/repository"
)

const cacheKeyPrefix = "hrevents:slack_user_id:"

// MappingRepository is the persistence used by Store.
type MappingRepository interface {
	UpsertIdentityMapping(ctx context.Context, mapping *models.IdentityMapping) (*models.IdentityMapping, error)
	GetIdentityMapping(ctx context.Context, email string) (*models.IdentityMapping, error)
	ListIdentityMappings(ctx context.Context) ([]*models.IdentityMapping, error)
}

// Store reads and writes identity mappings, optionally through a Redis cache
// of email to Slack user id.
type Store struct {
	repo   MappingRepository
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewStore creates a store without a cache. A nil logger uses slog.Default.
func NewStore(repo MappingRepository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{repo: repo, logger: logger}
}

// WithCache enables the Redis read-through cache.
func (s *Store) WithCache(client *redis.Client, ttl time.Duration) *Store {
	s.cache = client
	s.ttl = ttl
	return s
}

func (s *Store) cacheEnabled() bool {
	return s.cache != nil
}

func cacheKey(email string) string {
	return cacheKeyPrefix + email
}

// Upsert creates or updates the mapping for email. An empty email is a no-op
// and returns (nil, nil).
func (s *Store) Upsert(ctx context.Context, email, slackUserID, slackUsername string) (*models.IdentityMapping, error) {
	if email == "" {
		return nil, nil
	}

	m, err := s.repo.UpsertIdentityMapping(ctx, &models.IdentityMapping{
		User:          email,
		SlackUserID:   slackUserID,
		SlackUsername: slackUsername,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert mapping for %s: %w", email, err)
	}

	if s.cacheEnabled() {
		var cerr error
		if m.SlackUserID == "" {
			cerr = s.cache.Del(ctx, cacheKey(email)).Err()
		} else {
			cerr = s.cache.Set(ctx, cacheKey(email), m.SlackUserID, s.ttl).Err()
		}
		if cerr != nil {
			s.logger.WarnContext(ctx, "Failed to refresh Slack id cache",
				logging.Email(email), logging.Error(cerr))
		}
	}

	return m, nil
}

// LookupSlackUserID returns the Slack user id mapped to email. An empty email
// or a missing mapping reports absent without an error.
func (s *Store) LookupSlackUserID(ctx context.Context, email string) (string, bool, error) {
	if email == "" {
		return "", false, nil
	}

	if s.cacheEnabled() {
		id, err := s.cache.Get(ctx, cacheKey(email)).Result()
		switch {
		case err == nil:
			metrics.LookupCacheHits.Inc()
			return id, true, nil
		case errors.Is(err, redis.Nil):
			metrics.LookupCacheMisses.Inc()
		default:
			metrics.LookupCacheMisses.Inc()
			s.logger.WarnContext(ctx, "Slack id cache unavailable, reading from database",
				logging.Email(email), logging.Error(err))
		}
	}

	m, err := s.repo.GetIdentityMapping(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrMappingNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to look up mapping for %s: %w", email, err)
	}
	if m.SlackUserID == "" {
		return "", false, nil
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, cacheKey(email), m.SlackUserID, s.ttl).Err(); err != nil {
			s.logger.WarnContext(ctx, "Failed to populate Slack id cache",
				logging.Email(email), logging.Error(err))
		}
	}

	return m.SlackUserID, true, nil
}

// List returns all mappings ordered by email.
func (s *Store) List(ctx context.Context) ([]*models.IdentityMapping, error) {
	mappings, err := s.repo.ListIdentityMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}
	return mappings, nil
}
