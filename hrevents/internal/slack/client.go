// Package slack adapts the slack-go Web API client to the two calls the
// service needs: paged users.list and chat.postMessage.
package slack

import (
	"context"
	"net/http"
	"strings"
	"time"

	slackapi "github.com/slack-go/slack"
)

// DefaultAPIURL is the Slack Web API base URL.
const DefaultAPIURL = "https://slack.com/api/"

// Member is a users.list member.
type Member = slackapi.User

// Profile holds the member profile fields, including the email used for matching.
type Profile = slackapi.UserProfile

// APIError is returned when Slack answers with ok=false.
type APIError = slackapi.SlackErrorResponse

// RateLimitedError is returned on HTTP 429.
type RateLimitedError = slackapi.RateLimitedError

// StatusCodeError is returned on any other non-200 HTTP status.
type StatusCodeError = slackapi.StatusCodeError

// UserPager walks users.list one page at a time.
type UserPager interface {
	// Next fetches the next page. ok is false once the directory is exhausted.
	Next(ctx context.Context) (members []Member, ok bool, err error)
}

// Client calls the Slack Web API with a bot token.
type Client struct {
	api *slackapi.Client
}

// NewClient creates a Slack client. An empty apiURL uses DefaultAPIURL.
func NewClient(apiURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}

	return &Client{
		api: slackapi.New(token,
			slackapi.OptionAPIURL(apiURL),
			slackapi.OptionHTTPClient(&http.Client{Timeout: timeout}),
		),
	}
}

// ListUsers starts a users.list walk with the given page size.
func (c *Client) ListUsers(limit int) UserPager {
	return &userPages{page: c.api.GetUsersPaginated(slackapi.GetUsersOptionLimit(limit))}
}

// PostMessage sends text to a channel or user id and returns the channel and
// timestamp Slack assigned to the message.
func (c *Client) PostMessage(ctx context.Context, channel, text string) (string, string, error) {
	return c.api.PostMessageContext(ctx, channel, slackapi.MsgOptionText(text, false))
}

type userPages struct {
	page slackapi.UserPagination
}

func (p *userPages) Next(ctx context.Context) ([]Member, bool, error) {
	next, err := p.page.Next(ctx)
	if p.page.Done(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	p.page = next
	return next.Users, true, nil
}
