package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/hr-events/hr-events/common/logging"
	"github.com/hr-events/hr-events/hrevents/internal/directory"
	"github.com/hr-events/hr-events/hrevents/internal/metrics"
	"github.com/hr-events/hr-events/hrevents/internal/settings"
)

// SyncResult summarizes one directory sync run.
type SyncResult struct {
	DirectoryUsers int    `json:"directory_users"`
	Employees      int    `json:"employees"`
	Synced         int    `json:"synced"`
	Failed         int    `json:"failed"`
	Aborted        bool   `json:"aborted"`
	Reason         string `json:"reason,omitempty"`
}

// SyncService reconciles the Slack directory with the active HR roster.
type SyncService struct {
	directories DirectoryFactory
	store       IdentityStore
	roster      Roster
	pageSize    int
	logger      *slog.Logger
}

// NewSyncService creates a sync service. pageSize <= 0 uses the directory default.
func NewSyncService(directories DirectoryFactory, store IdentityStore, roster Roster, pageSize int, logger *slog.Logger) *SyncService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncService{
		directories: directories,
		store:       store,
		roster:      roster,
		pageSize:    pageSize,
		logger:      logger,
	}
}

// SyncIdentities fetches the whole Slack directory and upserts a mapping for
// every active employee whose email appears in it. It never returns an error;
// the result reports what happened. A panic during the run is logged with its
// stack and reported as an aborted result.
func (s *SyncService) SyncIdentities(ctx context.Context) (result *SyncResult) {
	result = &SyncResult{}
	s.logger.InfoContext(ctx, "Starting Slack user sync")

	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "Slack user sync panicked",
				logging.Title(TitleSyncFailed),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			result = s.abort(result, fmt.Sprintf("panic: %v", r))
		}
	}()

	dir, err := s.directories(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to initialize Slack directory client",
			logging.Title(TitleSlackSyncFailed),
			slog.Bool("configuration", errors.Is(err, settings.ErrConfiguration)),
			logging.Error(err),
		)
		return s.abort(result, err.Error())
	}

	users, err := dir.GetUsersByEmail(ctx, s.pageSize)
	if err != nil {
		attrs := []any{logging.Title(TitleSlackSyncFailed), logging.Error(err)}
		var fetchErr *directory.FetchError
		if errors.As(err, &fetchErr) {
			attrs = append(attrs, slog.Int("page", fetchErr.Page))
		}
		s.logger.ErrorContext(ctx, "Failed to fetch Slack users", attrs...)
		return s.abort(result, err.Error())
	}

	result.DirectoryUsers = len(users)
	metrics.DirectoryUsers.Set(float64(len(users)))
	if len(users) == 0 {
		s.logger.WarnContext(ctx, "No Slack users found, nothing to sync")
		metrics.SyncRunsTotal.WithLabelValues("empty").Inc()
		result.Reason = "directory is empty"
		return result
	}

	employees, err := s.roster.ListActiveEmployees(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load active employees",
			logging.Title(TitleSyncFailed), logging.Error(err))
		return s.abort(result, err.Error())
	}
	result.Employees = len(employees)

	for _, emp := range employees {
		if emp.UserID == "" {
			continue
		}
		identity, ok := users[emp.UserID]
		if !ok {
			continue
		}

		if _, err := s.store.Upsert(ctx, emp.UserID, identity.ID, identity.Name); err != nil {
			result.Failed++
			metrics.IdentitySyncFailures.Inc()
			s.logger.ErrorContext(ctx, "Failed to save Slack mapping",
				logging.Title(TitleSyncFailed),
				logging.Email(emp.UserID),
				logging.SlackUserID(identity.ID),
				logging.Error(err),
			)
			continue
		}
		result.Synced++
	}

	metrics.IdentitiesSynced.Add(float64(result.Synced))
	metrics.SyncRunsTotal.WithLabelValues("success").Inc()
	s.logger.InfoContext(ctx, "Slack user sync completed",
		logging.Count(result.Synced),
		slog.Int("failed", result.Failed),
		slog.Int("employees", result.Employees),
	)
	return result
}

func (s *SyncService) abort(result *SyncResult, reason string) *SyncResult {
	metrics.SyncRunsTotal.WithLabelValues("aborted").Inc()
	result.Aborted = true
	result.Reason = reason
	return result
}
