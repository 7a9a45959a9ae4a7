// Package service implements the directory sync and daily reminder jobs.
package service

import (
	"context"
	"time"

	"github.com/hr-events/hr-events/hrevents/internal/gateway"
	"github.com/hr-events/hr-events/hrevents/internal/models"
)

// Error-report labels attached to failure log lines.
const (
	TitleSlackSyncFailed       = "HR Events Slack Sync Failed"
	TitleSyncFailed            = "HR Events Sync Failed"
	TitleSlackInitFailed       = "HR Events: Failed to init Slack"
	TitleBirthdayWishFailed    = "HR Events: Birthday Wish Failed"
	TitleAnniversaryWishFailed = "HR Events: Anniversary Wish Failed"
)

// Directory lists Slack users keyed by email.
type Directory interface {
	GetUsersByEmail(ctx context.Context, pageSize int) (map[string]models.ExternalIdentity, error)
}

// DirectoryFactory builds a Directory from the current settings.
type DirectoryFactory func(ctx context.Context) (Directory, error)

// Messenger delivers direct messages. A nil receipt means the send failed.
type Messenger interface {
	SendDirectMessage(ctx context.Context, recipient, text string) *gateway.Receipt
}

// MessengerFactory builds a Messenger from the current settings.
type MessengerFactory func(ctx context.Context) (Messenger, error)

// IdentityStore is the mapping store used by both jobs.
type IdentityStore interface {
	Upsert(ctx context.Context, email, slackUserID, slackUsername string) (*models.IdentityMapping, error)
	LookupSlackUserID(ctx context.Context, email string) (string, bool, error)
}

// Roster queries the HR employee and company records.
type Roster interface {
	ListActiveEmployees(ctx context.Context) ([]*models.Employee, error)
	ListBirthdays(ctx context.Context, month time.Month, day int) ([]*models.Employee, error)
	ListAnniversaries(ctx context.Context, month time.Month, day int, today time.Time) ([]*models.Employee, error)
	GetCompany(ctx context.Context, id string) (*models.Company, error)
}
