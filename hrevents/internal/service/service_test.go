package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hr-events/hr-events/hrevents/internal/gateway"
	"github.com/hr-events/hr-events/hrevents/internal/identity"
	"github.com/hr-events/hr-events/hrevents/internal/models"
	"github.com/hr-events/hr-events/hrevents/internal/repository"
)

// ============================================================================
// Test Setup
// ============================================================================

// mockDirectory returns fixed users or an error
type mockDirectory struct {
	users map[string]models.ExternalIdentity
	err   error
}

func (m *mockDirectory) GetUsersByEmail(ctx context.Context, pageSize int) (map[string]models.ExternalIdentity, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users, nil
}

func directoryFactory(d Directory, err error) DirectoryFactory {
	return func(ctx context.Context) (Directory, error) {
		if err != nil {
			return nil, err
		}
		return d, nil
	}
}

type sentMessage struct {
	Recipient string
	Text      string
}

// mockMessenger records messages and fails for configured recipients
type mockMessenger struct {
	mu      sync.Mutex
	failFor map[string]bool
	sent    []sentMessage
}

func (m *mockMessenger) SendDirectMessage(ctx context.Context, recipient, text string) *gateway.Receipt {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[recipient] {
		return nil
	}
	m.sent = append(m.sent, sentMessage{Recipient: recipient, Text: text})
	return &gateway.Receipt{Channel: "D-" + recipient, Timestamp: "1.0"}
}

func messengerFactory(m Messenger, err error) MessengerFactory {
	return func(ctx context.Context) (Messenger, error) {
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

// failingStore wraps a store and fails upserts or lookups for chosen emails
type failingStore struct {
	IdentityStore
	upsertFail map[string]error
	lookupFail map[string]error
}

func (s *failingStore) Upsert(ctx context.Context, email, id, name string) (*models.IdentityMapping, error) {
	if err, ok := s.upsertFail[email]; ok {
		return nil, err
	}
	return s.IdentityStore.Upsert(ctx, email, id, name)
}

func (s *failingStore) LookupSlackUserID(ctx context.Context, email string) (string, bool, error) {
	if err, ok := s.lookupFail[email]; ok {
		return "", false, err
	}
	return s.IdentityStore.LookupSlackUserID(ctx, email)
}

// failingRoster wraps the in-memory roster with injectable query errors
type failingRoster struct {
	*repository.InMemoryRepository
	activeErr        error
	birthdaysErr     error
	anniversariesErr error
	birthdaysPanic   bool
	activePanic      bool
}

func (r *failingRoster) ListActiveEmployees(ctx context.Context) ([]*models.Employee, error) {
	if r.activePanic {
		panic("unexpected nil row")
	}
	if r.activeErr != nil {
		return nil, r.activeErr
	}
	return r.InMemoryRepository.ListActiveEmployees(ctx)
}

func (r *failingRoster) ListBirthdays(ctx context.Context, month time.Month, day int) ([]*models.Employee, error) {
	if r.birthdaysPanic {
		panic("unexpected nil row")
	}
	if r.birthdaysErr != nil {
		return nil, r.birthdaysErr
	}
	return r.InMemoryRepository.ListBirthdays(ctx, month, day)
}

func (r *failingRoster) ListAnniversaries(ctx context.Context, month time.Month, day int, today time.Time) ([]*models.Employee, error) {
	if r.anniversariesErr != nil {
		return nil, r.anniversariesErr
	}
	return r.InMemoryRepository.ListAnniversaries(ctx, month, day, today)
}

type fixture struct {
	repo   *repository.InMemoryRepository
	roster *failingRoster
	store  *failingStore
	logs   *bytes.Buffer
	logger *slog.Logger
}

func newFixture() *fixture {
	repo := repository.NewInMemoryRepository()
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return &fixture{
		repo:   repo,
		roster: &failingRoster{InMemoryRepository: repo},
		store:  &failingStore{IdentityStore: identity.NewStore(repo, logger)},
		logs:   logs,
		logger: logger,
	}
}

func (f *fixture) addEmployee(e *models.Employee) {
	if e.Status == "" {
		e.Status = models.EmployeeStatusActive
	}
	_ = f.repo.SaveEmployee(context.Background(), e)
}

func (f *fixture) mapUser(email, slackID string) {
	_, _ = f.repo.UpsertIdentityMapping(context.Background(), &models.IdentityMapping{User: email, SlackUserID: slackID})
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

var errBoom = errors.New("boom")
