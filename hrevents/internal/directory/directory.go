// Package directory builds an email-keyed view of the Slack user directory.
package directory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hr-events/hr-events/common/logging"
	"github.com/hr-events/hr-events/hrevents/internal/models"
	"github.com/hr-events/hr-events/hrevents/internal/settings"
	"github.com/hr-events/hr-events/hrevents/internal/slack"
)

// DefaultPageSize is the users.list page size used when none is given.
const DefaultPageSize = 500

// TitleFetchFailed labels directory listing failures in the logs.
const TitleFetchFailed = "Error fetching Slack users"

// UserLister starts a paged walk of the remote user directory.
type UserLister interface {
	ListUsers(limit int) slack.UserPager
}

// FetchError reports a failed directory listing. No partial result accompanies it.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("directory fetch failed on page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client walks the paginated directory.
type Client struct {
	lister UserLister
	logger *slog.Logger
}

// NewClient creates a directory client. A nil logger uses slog.Default.
func NewClient(lister UserLister, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{lister: lister, logger: logger}
}

// Dialer builds a UserLister authenticated with the loaded settings.
type Dialer func(s *models.Settings) UserLister

// Connect resolves Slack settings and builds a client. A missing bot token
// yields settings.ErrConfiguration before any network call.
func Connect(ctx context.Context, loader settings.Loader, dial Dialer, logger *slog.Logger) (*Client, error) {
	s, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(s); err != nil {
		return nil, err
	}
	return NewClient(dial(s), logger), nil
}

// GetUsersByEmail returns every eligible member keyed by profile email.
// Deleted accounts, bots, app users and members without an email are skipped.
// A repeated email keeps the last member seen.
func (c *Client) GetUsersByEmail(ctx context.Context, pageSize int) (map[string]models.ExternalIdentity, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	users := make(map[string]models.ExternalIdentity)
	pager := c.lister.ListUsers(pageSize)
	for page := 1; ; page++ {
		members, ok, err := pager.Next(ctx)
		if err != nil {
			c.logger.ErrorContext(ctx, "Failed to list Slack users",
				logging.Title(TitleFetchFailed), slog.Int("page", page), logging.Error(err))
			return nil, &FetchError{Page: page, Err: err}
		}
		if !ok {
			break
		}

		for _, m := range members {
			if m.Profile.Email == "" || m.Deleted || m.IsBot || m.IsAppUser {
				continue
			}
			users[m.Profile.Email] = models.ExternalIdentity{
				ID:       m.ID,
				Name:     m.Name,
				RealName: m.RealName,
			}
		}
	}

	c.logger.InfoContext(ctx, "Fetched Slack directory", logging.Count(len(users)))
	return users, nil
}
