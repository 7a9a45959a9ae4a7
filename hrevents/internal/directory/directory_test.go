package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hr-events/hr-events/common/logging"
	"github.com/hr-events/hr-events/hrevents/internal/models"
	"github.com/hr-events/hr-events/hrevents/internal/settings"
	"github.com/hr-events/hr-events/hrevents/internal/slack"
)

// pagedLister serves a fixed sequence of pages and fails on errAt (1-based)
type pagedLister struct {
	pages  [][]slack.Member
	errAt  int
	err    error
	calls  int
	limits []int
}

func (l *pagedLister) ListUsers(limit int) slack.UserPager {
	l.limits = append(l.limits, limit)
	return l
}

func (l *pagedLister) Next(ctx context.Context) ([]slack.Member, bool, error) {
	l.calls++
	if l.err != nil && l.calls == l.errAt {
		return nil, false, l.err
	}
	if l.calls > len(l.pages) {
		return nil, false, nil
	}
	return l.pages[l.calls-1], true, nil
}

func member(id, name, email string) slack.Member {
	return slack.Member{ID: id, Name: name, RealName: name + " Real", Profile: slack.Profile{Email: email}}
}

func TestGetUsersByEmail_UnionOfPages(t *testing.T) {
	lister := &pagedLister{pages: [][]slack.Member{
		{member("U1", "alice", "a@co.com")},
		{member("U2", "bob", "b@co.com")},
		{member("U3", "carol", "c@co.com")},
	}}

	c := NewClient(lister, logging.Discard())
	users, err := c.GetUsersByEmail(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, map[string]models.ExternalIdentity{
		"a@co.com": {ID: "U1", Name: "alice", RealName: "alice Real"},
		"b@co.com": {ID: "U2", Name: "bob", RealName: "bob Real"},
		"c@co.com": {ID: "U3", Name: "carol", RealName: "carol Real"},
	}, users)

	// Stops on the first exhausted call.
	assert.Equal(t, 4, lister.calls)
	assert.Equal(t, []int{2}, lister.limits)
}

func TestGetUsersByEmail_DefaultPageSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		lister := &pagedLister{}
		_, err := NewClient(lister, logging.Discard()).GetUsersByEmail(context.Background(), size)
		require.NoError(t, err)
		assert.Equal(t, []int{DefaultPageSize}, lister.limits)
	}
}

func TestGetUsersByEmail_Exclusions(t *testing.T) {
	deleted := member("U2", "gone", "gone@co.com")
	deleted.Deleted = true
	bot := member("B1", "bot", "bot@co.com")
	bot.IsBot = true
	app := member("A1", "app", "app@co.com")
	app.IsAppUser = true
	noEmail := member("U3", "noemail", "")

	lister := &pagedLister{pages: [][]slack.Member{
		{member("U1", "alice", "a@co.com"), deleted, bot, app, noEmail},
	}}

	users, err := NewClient(lister, logging.Discard()).GetUsersByEmail(context.Background(), 0)
	require.NoError(t, err)

	require.Len(t, users, 1)
	assert.Contains(t, users, "a@co.com")
}

func TestGetUsersByEmail_DuplicateEmailLastWins(t *testing.T) {
	lister := &pagedLister{pages: [][]slack.Member{
		{member("U1", "first", "dup@co.com")},
		{member("U9", "second", "dup@co.com")},
	}}

	users, err := NewClient(lister, logging.Discard()).GetUsersByEmail(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "U9", users["dup@co.com"].ID)
}

func TestGetUsersByEmail_MidPaginationFailure(t *testing.T) {
	cause := &slack.RateLimitedError{RetryAfter: 30 * time.Second}
	lister := &pagedLister{
		pages: [][]slack.Member{{member("U1", "alice", "a@co.com")}, {member("U2", "bob", "b@co.com")}},
		errAt: 2,
		err:   cause,
	}

	users, err := NewClient(lister, logging.Discard()).GetUsersByEmail(context.Background(), 0)
	assert.Nil(t, users, "no partial map on failure")

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 2, fetchErr.Page)
	assert.ErrorIs(t, err, cause)
}

// stubLoader returns fixed settings or an error
type stubLoader struct {
	settings *models.Settings
	err      error
}

func (l *stubLoader) Load(ctx context.Context) (*models.Settings, error) {
	return l.settings, l.err
}

func TestConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("dials with loaded token", func(t *testing.T) {
		var gotToken string
		dial := func(s *models.Settings) UserLister {
			gotToken = s.SlackBotToken
			return &pagedLister{}
		}
		c, err := Connect(ctx, &stubLoader{settings: &models.Settings{SlackBotToken: "xoxb-1"}}, dial, logging.Discard())
		require.NoError(t, err)
		assert.NotNil(t, c)
		assert.Equal(t, "xoxb-1", gotToken)
	})

	t.Run("empty token fails before dialing", func(t *testing.T) {
		dialed := false
		dial := func(s *models.Settings) UserLister {
			dialed = true
			return &pagedLister{}
		}
		_, err := Connect(ctx, &stubLoader{settings: &models.Settings{}}, dial, logging.Discard())
		assert.ErrorIs(t, err, settings.ErrConfiguration)
		assert.False(t, dialed)
	})

	t.Run("loader error propagates", func(t *testing.T) {
		_, err := Connect(ctx, &stubLoader{err: settings.ErrConfiguration}, nil, logging.Discard())
		assert.ErrorIs(t, err, settings.ErrConfiguration)
	})
}
