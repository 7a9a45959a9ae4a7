package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/hr-events/hr-events/common/logging"
	"github.com/hr-events/hr-events/hrevents/internal/metrics"
	"github.com/hr-events/hr-events/hrevents/internal/models"
)

const (
	kindBirthday    = "birthday"
	kindAnniversary = "anniversary"
)

// ReminderResult summarizes one reminder run.
type ReminderResult struct {
	Date              string `json:"date"`
	BirthdaysSent     int    `json:"birthdays_sent"`
	AnniversariesSent int    `json:"anniversaries_sent"`
	Failed            int    `json:"failed"`
	Skipped           int    `json:"skipped"`
	Aborted           bool   `json:"aborted"`
	Reason            string `json:"reason,omitempty"`
}

// ReminderService sends birthday and work anniversary direct messages.
type ReminderService struct {
	messengers MessengerFactory
	store      IdentityStore
	roster     Roster
	templates  *Templates
	location   *time.Location
	now        func() time.Time
	logger     *slog.Logger
}

// NewReminderService creates a reminder service. "Today" is evaluated in loc;
// nil templates use the defaults and a nil loc uses time.Local.
func NewReminderService(messengers MessengerFactory, store IdentityStore, roster Roster, templates *Templates, loc *time.Location, logger *slog.Logger) *ReminderService {
	if templates == nil {
		templates = DefaultTemplates()
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderService{
		messengers: messengers,
		store:      store,
		roster:     roster,
		templates:  templates,
		location:   loc,
		now:        time.Now,
		logger:     logger,
	}
}

// WithClock replaces the time source.
func (s *ReminderService) WithClock(now func() time.Time) *ReminderService {
	s.now = now
	return s
}

// Today returns the current calendar date in the service location, at midnight.
func (s *ReminderService) Today() time.Time {
	y, m, d := s.now().In(s.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.location)
}

// SendEventReminders sends today's birthday and anniversary messages.
// The two sub-flows fail independently; nothing is returned as an error.
// Running it twice on the same day sends every message twice.
func (s *ReminderService) SendEventReminders(ctx context.Context) *ReminderResult {
	today := s.Today()
	result := &ReminderResult{Date: today.Format("2006-01-02")}

	messenger, err := s.messengers(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to initialize Slack",
			logging.Title(TitleSlackInitFailed), logging.Error(err))
		result.Aborted = true
		result.Reason = err.Error()
		return result
	}

	s.subflow(ctx, TitleBirthdayWishFailed, func() error {
		return s.sendBirthdayWishes(ctx, messenger, today, result)
	})
	s.subflow(ctx, TitleAnniversaryWishFailed, func() error {
		return s.sendAnniversaryWishes(ctx, messenger, today, result)
	})

	s.logger.InfoContext(ctx, "Event reminders completed",
		slog.String("date", result.Date),
		slog.Int("birthdays_sent", result.BirthdaysSent),
		slog.Int("anniversaries_sent", result.AnniversariesSent),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped),
	)
	return result
}

// subflow runs fn and logs any error or panic under title.
func (s *ReminderService) subflow(ctx context.Context, title string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "Reminder sub-flow panicked",
				logging.Title(title),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	if err := fn(); err != nil {
		s.logger.ErrorContext(ctx, "Reminder sub-flow failed",
			logging.Title(title), logging.Error(err))
	}
}

func (s *ReminderService) sendBirthdayWishes(ctx context.Context, messenger Messenger, today time.Time, result *ReminderResult) error {
	employees, err := s.roster.ListBirthdays(ctx, today.Month(), today.Day())
	if err != nil {
		return fmt.Errorf("failed to query birthdays: %w", err)
	}

	for _, emp := range employees {
		slackID, ok := s.resolveRecipient(ctx, emp, TitleBirthdayWishFailed, result)
		if !ok {
			continue
		}

		message, err := s.templates.Birthday(emp.EmployeeName, s.companyName(ctx, emp))
		if err != nil {
			s.recordFailure(ctx, kindBirthday, TitleBirthdayWishFailed, emp, err, result)
			continue
		}

		if messenger.SendDirectMessage(ctx, slackID, message) == nil {
			s.recordFailure(ctx, kindBirthday, TitleBirthdayWishFailed, emp, nil, result)
			continue
		}

		result.BirthdaysSent++
		metrics.RemindersSent.WithLabelValues(kindBirthday).Inc()
		s.logger.InfoContext(ctx, "Sent birthday wish",
			logging.Employee(emp.EmployeeName), logging.SlackUserID(slackID))
	}
	return nil
}

func (s *ReminderService) sendAnniversaryWishes(ctx context.Context, messenger Messenger, today time.Time, result *ReminderResult) error {
	employees, err := s.roster.ListAnniversaries(ctx, today.Month(), today.Day(), today)
	if err != nil {
		return fmt.Errorf("failed to query work anniversaries: %w", err)
	}

	for _, emp := range employees {
		if emp.DateOfJoining == nil {
			continue
		}
		years := today.Year() - emp.DateOfJoining.Year()
		if years <= 0 {
			// Joined today or the record is in the future.
			continue
		}

		slackID, ok := s.resolveRecipient(ctx, emp, TitleAnniversaryWishFailed, result)
		if !ok {
			continue
		}

		message, err := s.templates.Anniversary(emp.EmployeeName, s.companyName(ctx, emp), years)
		if err != nil {
			s.recordFailure(ctx, kindAnniversary, TitleAnniversaryWishFailed, emp, err, result)
			continue
		}

		if messenger.SendDirectMessage(ctx, slackID, message) == nil {
			s.recordFailure(ctx, kindAnniversary, TitleAnniversaryWishFailed, emp, nil, result)
			continue
		}

		result.AnniversariesSent++
		metrics.RemindersSent.WithLabelValues(kindAnniversary).Inc()
		s.logger.InfoContext(ctx, "Sent anniversary wish",
			logging.Employee(emp.EmployeeName),
			logging.SlackUserID(slackID),
			slog.Int("years", years),
		)
	}
	return nil
}

// resolveRecipient maps an employee to a Slack user id. Employees without an
// email or a mapping are skipped; lookup errors are logged and skipped.
func (s *ReminderService) resolveRecipient(ctx context.Context, emp *models.Employee, title string, result *ReminderResult) (string, bool) {
	if emp.UserID == "" {
		result.Skipped++
		return "", false
	}

	slackID, ok, err := s.store.LookupSlackUserID(ctx, emp.UserID)
	if err != nil {
		result.Failed++
		s.logger.ErrorContext(ctx, "Failed to resolve Slack user",
			logging.Title(title),
			logging.Employee(emp.EmployeeName),
			logging.Email(emp.UserID),
			logging.Error(err),
		)
		return "", false
	}
	if !ok {
		result.Skipped++
		s.logger.DebugContext(ctx, "No Slack mapping for employee",
			logging.Employee(emp.EmployeeName), logging.Email(emp.UserID))
		return "", false
	}
	return slackID, true
}

// companyName resolves the display name, falling back to models.DefaultCompanyName.
func (s *ReminderService) companyName(ctx context.Context, emp *models.Employee) string {
	if emp.Company == "" {
		return models.DefaultCompanyName
	}

	c, err := s.roster.GetCompany(ctx, emp.Company)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to resolve company name",
			slog.String("company", emp.Company), logging.Error(err))
		return models.DefaultCompanyName
	}
	if c.CompanyName == "" {
		return models.DefaultCompanyName
	}
	return c.CompanyName
}

// recordFailure counts a failed send. A nil err means the gateway already logged it.
func (s *ReminderService) recordFailure(ctx context.Context, kind, title string, emp *models.Employee, err error, result *ReminderResult) {
	result.Failed++
	metrics.ReminderFailures.WithLabelValues(kind).Inc()
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to prepare reminder",
			logging.Title(title), logging.Employee(emp.EmployeeName), logging.Error(err))
	}
}
